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

type JobRepository struct {
	Coll *mongo.Collection
}

func NewJobRepository(db *mongo.Database) *JobRepository {
	return &JobRepository{Coll: db.Collection(database.CollJobs)}
}

func prepareJob(job *model.Job) {
	if job.ID.IsZero() {
		job.ID = primitive.NewObjectID()
	}
	if job.Applications == nil {
		job.Applications = []primitive.ObjectID{}
	}
	if job.Requirements == nil {
		job.Requirements = model.StringList{}
	}
	job.Touch(time.Now())
}

func (r *JobRepository) Create(ctx context.Context, job *model.Job) error {
	prepareJob(job)
	_, err := r.Coll.InsertOne(ctx, job)
	return err
}

// InsertFromFeed 按 externalId 去重，已存在时不修改并返回 false
func (r *JobRepository) InsertFromFeed(ctx context.Context, job *model.Job) (bool, error) {
	prepareJob(job)
	res, err := r.Coll.UpdateOne(ctx,
		bson.M{"externalId": job.ExternalID},
		bson.M{"$setOnInsert": job},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

func (r *JobRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Job, error) {
	return findOne[model.Job](r.Coll.FindOne(ctx, bson.M{"_id": id}))
}

func (r *JobRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Job, error) {
	jobs := []model.Job{}
	if len(ids) == 0 {
		return jobs, nil
	}
	cur, err := r.Coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// List 按创建时间倒序
func (r *JobRepository) List(ctx context.Context, f model.JobFilter) ([]model.Job, error) {
	filter := bson.M{}
	if f.CreatedBy != "" {
		filter["created_by"] = f.CreatedBy
	}
	if kw := keywordFilter(f.Keyword, "title", "description"); kw != nil {
		filter["$or"] = kw["$or"]
	}

	cur, err := r.Coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	jobs := []model.Job{}
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *JobRepository) Update(ctx context.Context, job *model.Job) error {
	job.Touch(time.Now())
	_, err := r.Coll.UpdateByID(ctx, job.ID, bson.M{"$set": bson.M{
		"title":           job.Title,
		"description":     job.Description,
		"requirements":    job.Requirements,
		"salary":          job.Salary,
		"experienceLevel": job.ExperienceLevel,
		"location":        job.Location,
		"jobType":         job.JobType,
		"position":        job.Position,
		"company":         job.Company,
		"companyLogo":     job.CompanyLogo,
		"applyLink":       job.ApplyLink,
		"updatedAt":       job.UpdatedAt,
	}})
	return err
}

func (r *JobRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *JobRepository) AddApplication(ctx context.Context, jobID, applicationID primitive.ObjectID) error {
	_, err := r.Coll.UpdateByID(ctx, jobID, bson.M{
		"$addToSet": bson.M{"applications": applicationID},
	})
	return err
}
