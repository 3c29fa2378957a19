package repository

import (
	"context"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/util"
	"learnhire_backend/pkg/database"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ApplicationRepository struct {
	Coll *mongo.Collection
}

func NewApplicationRepository(db *mongo.Database) *ApplicationRepository {
	return &ApplicationRepository{Coll: db.Collection(database.CollApplications)}
}

// Create (job, applicant) 唯一索引冲突时返回 ErrConflict
func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	if app.ID.IsZero() {
		app.ID = primitive.NewObjectID()
	}
	if app.Status == "" {
		app.Status = model.ApplicationPending
	}
	app.Touch(time.Now())
	if _, err := r.Coll.InsertOne(ctx, app); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return util.ConflictErr("You have already applied for this job")
		}
		return err
	}
	return nil
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Application, error) {
	return findOne[model.Application](r.Coll.FindOne(ctx, bson.M{"_id": id}))
}

func (r *ApplicationRepository) find(ctx context.Context, filter bson.M) ([]model.Application, error) {
	cur, err := r.Coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	apps := []model.Application{}
	if err := cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *ApplicationRepository) FindByApplicant(ctx context.Context, userID model.UserID) ([]model.Application, error) {
	return r.find(ctx, bson.M{"applicant": userID})
}

func (r *ApplicationRepository) FindByJobs(ctx context.Context, jobIDs []primitive.ObjectID) ([]model.Application, error) {
	if len(jobIDs) == 0 {
		return []model.Application{}, nil
	}
	return r.find(ctx, bson.M{"job": bson.M{"$in": jobIDs}})
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.ApplicationStatus) error {
	_, err := r.Coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": time.Now(),
	}})
	return err
}

func (r *ApplicationRepository) DeleteByJob(ctx context.Context, jobID primitive.ObjectID) error {
	_, err := r.Coll.DeleteMany(ctx, bson.M{"job": jobID})
	return err
}
