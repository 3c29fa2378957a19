package model

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserID 身份提供方签发的稳定用户标识
type UserID string

func (id UserID) String() string {
	return string(id)
}

type UserRole string

const (
	Student  UserRole = "student"
	Educator UserRole = "educator"
)

// Owned 可被某个用户修改的记录（课程、职位）
type Owned interface {
	OwnerID() UserID
}

// Timestamps 文档公共时间戳
type Timestamps struct {
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Touch 设置创建/更新时间
func (t *Timestamps) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

func GenerateUUID() string {
	return uuid.New().String()
}

// ContainsObjectID 判断集合中是否存在该ID
func ContainsObjectID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
