package service

import (
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/util"
	"reflect"
)

// CheckOwnership 课程、职位等记录的归属校验
//
// 记录不存在返回 NotFound，归属不符返回 Forbidden（措辞同样是 "not found"）。
func CheckOwnership(record model.Owned, actor model.UserID, resource string) error {
	if isNil(record) {
		return util.NotFoundErr(resource)
	}
	if actor == "" || record.OwnerID() != actor {
		return util.ForbiddenErr(resource)
	}
	return nil
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
