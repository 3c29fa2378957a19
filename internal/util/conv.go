package util

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseObjectID 解析路径或请求体中的文档ID，非法时返回 ValidationError
func ParseObjectID(field, s string) (primitive.ObjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return primitive.NilObjectID, MissingFields(field)
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, NewValidationError("invalid " + field)
	}
	return id, nil
}
