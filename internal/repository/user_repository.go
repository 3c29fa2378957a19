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

type UserRepository struct {
	Coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{Coll: db.Collection(database.CollUsers)}
}

func (r *UserRepository) FindByID(ctx context.Context, id model.UserID) (*model.User, error) {
	return findOne[model.User](r.Coll.FindOne(ctx, bson.M{"_id": id}))
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []model.UserID) ([]model.User, error) {
	users := []model.User{}
	if len(ids) == 0 {
		return users, nil
	}
	cur, err := r.Coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Upsert 身份同步：只覆盖档案字段，保留选课、收藏与简历
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"name":      user.Name,
			"email":     user.Email,
			"imageUrl":  user.ImageURL,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"enrolledCourses": bson.A{},
			"savedJobs":       bson.A{},
			"resume":          "",
			"createdAt":       now,
		},
	}
	_, err := r.Coll.UpdateByID(ctx, user.ID, update, options.Update().SetUpsert(true))
	return err
}

func (r *UserRepository) Delete(ctx context.Context, id model.UserID) error {
	_, err := r.Coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *UserRepository) AddEnrolledCourse(ctx context.Context, userID model.UserID, courseID primitive.ObjectID) error {
	_, err := r.Coll.UpdateByID(ctx, userID, bson.M{
		"$addToSet": bson.M{"enrolledCourses": courseID},
		"$set":      bson.M{"updatedAt": time.Now()},
	})
	return err
}

// ToggleSavedJob 未收藏则收藏，已收藏则取消，返回操作后的状态
func (r *UserRepository) ToggleSavedJob(ctx context.Context, userID model.UserID, jobID primitive.ObjectID) (bool, error) {
	now := time.Now()
	res, err := r.Coll.UpdateOne(ctx,
		bson.M{"_id": userID, "savedJobs": bson.M{"$ne": jobID}},
		bson.M{"$addToSet": bson.M{"savedJobs": jobID}, "$set": bson.M{"updatedAt": now}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	_, err = r.Coll.UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{"savedJobs": jobID},
		"$set":  bson.M{"updatedAt": now},
	})
	return false, err
}

func (r *UserRepository) RemoveSavedJob(ctx context.Context, jobID primitive.ObjectID) error {
	_, err := r.Coll.UpdateMany(ctx,
		bson.M{"savedJobs": jobID},
		bson.M{"$pull": bson.M{"savedJobs": jobID}},
	)
	return err
}

// SetResume 返回被替换的旧地址
func (r *UserRepository) SetResume(ctx context.Context, userID model.UserID, url string) (string, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"resume": 1})
	prev, err := findOne[model.User](r.Coll.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"resume": url, "updatedAt": time.Now()}},
		opts,
	))
	if err != nil || prev == nil {
		return "", err
	}
	return prev.Resume, nil
}
