package repository

import (
	"errors"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// keywordFilter 对多个字段做不区分大小写的子串匹配，输入按字面量处理
func keywordFilter(keyword string, fields ...string) bson.M {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: pattern})
	}
	return bson.M{"$or": or}
}

// findOne 未找到时返回 nil, nil
func findOne[T any](res *mongo.SingleResult) (*T, error) {
	var out T
	if err := res.Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}
