package repository

import (
	"context"
	"learnhire_backend/internal/model"
	"learnhire_backend/pkg/database"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProgressRepository struct {
	Coll *mongo.Collection
}

func NewProgressRepository(db *mongo.Database) *ProgressRepository {
	return &ProgressRepository{Coll: db.Collection(database.CollProgress)}
}

func (r *ProgressRepository) Find(ctx context.Context, userID model.UserID, courseID primitive.ObjectID) (*model.CourseProgress, error) {
	return findOne[model.CourseProgress](r.Coll.FindOne(ctx, bson.M{"userId": userID, "courseId": courseID}))
}

// AddLecture 单次 upsert 完成“查找或创建 + 追加”；已存在时返回 false
//
// 过滤条件包含 lectureCompleted != lectureID：课时已记录时不匹配任何文档，
// upsert 会尝试插入并触发 (userId, courseId) 唯一索引冲突，据此判定为重复。
func (r *ProgressRepository) AddLecture(ctx context.Context, userID model.UserID, courseID primitive.ObjectID, lectureID string) (bool, error) {
	now := time.Now()
	_, err := r.Coll.UpdateOne(ctx,
		bson.M{
			"userId":           userID,
			"courseId":         courseID,
			"lectureCompleted": bson.M{"$ne": lectureID},
		},
		bson.M{
			"$addToSet":    bson.M{"lectureCompleted": lectureID},
			"$set":         bson.M{"updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
