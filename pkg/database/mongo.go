package database

import (
	"context"
	"learnhire_backend/internal/config"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// 集合名
const (
	CollUsers        = "users"
	CollCourses      = "courses"
	CollProgress     = "course_progress"
	CollJobs         = "jobs"
	CollApplications = "applications"
)

func InitMongo(ctx context.Context, cfg *config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	log.Println("MongoDB connection established")

	db := client.Database(cfg.Database)
	if err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, db, nil
}

// EnsureIndexes 唯一索引保证并发写入下的集合语义
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		CollProgress: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "courseId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		CollApplications: {
			{
				Keys:    bson.D{{Key: "job", Value: 1}, {Key: "applicant", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "applicant", Value: 1}}},
		},
		CollJobs: {
			{
				Keys:    bson.D{{Key: "externalId", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
			{Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CollCourses: {
			{Keys: bson.D{{Key: "educator", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
