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

type CourseRepository struct {
	Coll *mongo.Collection
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{Coll: db.Collection(database.CollCourses)}
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	if course.ID.IsZero() {
		course.ID = primitive.NewObjectID()
	}
	if course.EnrolledStudents == nil {
		course.EnrolledStudents = []model.UserID{}
	}
	if course.CourseRatings == nil {
		course.CourseRatings = []model.Rating{}
	}
	course.Touch(time.Now())
	_, err := r.Coll.InsertOne(ctx, course)
	return err
}

func (r *CourseRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Course, error) {
	return findOne[model.Course](r.Coll.FindOne(ctx, bson.M{"_id": id}))
}

func (r *CourseRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Course, error) {
	courses := []model.Course{}
	if len(ids) == 0 {
		return courses, nil
	}
	cur, err := r.Coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *CourseRepository) List(ctx context.Context, f model.CourseFilter) ([]model.Course, error) {
	filter := bson.M{}
	if f.Educator != "" {
		filter["educator"] = f.Educator
	}
	if f.PublishedOnly {
		filter["isPublished"] = true
	}
	if kw := keywordFilter(f.Keyword, "courseTitle", "courseDescription"); kw != nil {
		filter["$or"] = kw["$or"]
	}

	cur, err := r.Coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	courses := []model.Course{}
	if err := cur.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Update 覆盖可编辑字段，选课与评分由原子操作单独维护
func (r *CourseRepository) Update(ctx context.Context, course *model.Course) error {
	course.Touch(time.Now())
	_, err := r.Coll.UpdateByID(ctx, course.ID, bson.M{"$set": bson.M{
		"courseTitle":       course.CourseTitle,
		"courseDescription": course.CourseDescription,
		"coursePrice":       course.CoursePrice,
		"discount":          course.Discount,
		"courseThumbnail":   course.CourseThumbnail,
		"isPublished":       course.IsPublished,
		"courseContent":     course.CourseContent,
		"updatedAt":         course.UpdatedAt,
	}})
	return err
}

func (r *CourseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *CourseRepository) AddEnrolledStudent(ctx context.Context, courseID primitive.ObjectID, userID model.UserID) error {
	_, err := r.Coll.UpdateByID(ctx, courseID, bson.M{
		"$addToSet": bson.M{"enrolledStudents": userID},
	})
	return err
}

// UpsertRating 已评分则更新，否则追加；同一用户至多一条
func (r *CourseRepository) UpsertRating(ctx context.Context, courseID primitive.ObjectID, userID model.UserID, rating int) error {
	res, err := r.Coll.UpdateOne(ctx,
		bson.M{"_id": courseID, "courseRatings.userId": userID},
		bson.M{"$set": bson.M{"courseRatings.$.rating": rating}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	res, err = r.Coll.UpdateOne(ctx,
		bson.M{"_id": courseID, "courseRatings.userId": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"courseRatings": model.Rating{UserID: userID, Rating: rating}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// 并发插入，改为更新
		_, err = r.Coll.UpdateOne(ctx,
			bson.M{"_id": courseID, "courseRatings.userId": userID},
			bson.M{"$set": bson.M{"courseRatings.$.rating": rating}},
		)
	}
	return err
}
