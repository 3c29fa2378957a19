package service

import (
	"context"
	"fmt"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/util"
	"learnhire_backend/pkg/logger"
	"learnhire_backend/pkg/monitoring"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ApplicationService struct {
	Applications ApplicationStore
	Jobs         JobStore
	Users        UserStore
	Notifier     *NotificationService
}

func NewApplicationService(apps ApplicationStore, jobs JobStore, users UserStore, notifier *NotificationService) *ApplicationService {
	return &ApplicationService{Applications: apps, Jobs: jobs, Users: users, Notifier: notifier}
}

func (s *ApplicationService) Apply(ctx context.Context, userID model.UserID, jobID primitive.ObjectID) (*model.Application, error) {
	job, err := s.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, util.NotFoundErr("Job")
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, util.NotFoundErr("User")
	}
	if job.CreatedBy == userID {
		return nil, util.NewValidationError("cannot apply to your own job")
	}

	app := &model.Application{Job: jobID, Applicant: userID, Status: model.ApplicationPending}
	if err := s.Applications.Create(ctx, app); err != nil {
		return nil, err
	}
	if err := s.Jobs.AddApplication(ctx, jobID, app.ID); err != nil {
		return nil, fmt.Errorf("link application to job: %w", err)
	}
	monitoring.ApplicationsSubmitted.Inc()
	return app, nil
}

// MyApplications 当前用户的申请，关联职位摘要
func (s *ApplicationService) MyApplications(ctx context.Context, userID model.UserID) ([]model.ApplicationView, error) {
	apps, err := s.Applications.FindByApplicant(ctx, userID)
	if err != nil {
		return nil, err
	}
	jobIDs := make([]primitive.ObjectID, 0, len(apps))
	for _, a := range apps {
		jobIDs = append(jobIDs, a.Job)
	}
	jobs, err := s.Jobs.FindByIDs(ctx, jobIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*model.Job, len(jobs))
	for i := range jobs {
		byID[jobs[i].ID] = &jobs[i]
	}

	views := make([]model.ApplicationView, 0, len(apps))
	for _, a := range apps {
		v := model.ApplicationView{ID: a.ID, Status: a.Status, Timestamps: a.Timestamps}
		if j, ok := byID[a.Job]; ok {
			sum := j.Summary()
			v.Job = &sum
		}
		views = append(views, v)
	}
	return views, nil
}

// Applicants 某个职位的申请人，仅发布者可见
func (s *ApplicationService) Applicants(ctx context.Context, actor model.UserID, jobID primitive.ObjectID) ([]model.ApplicationView, error) {
	job, err := s.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := CheckOwnership(job, actor, "Job"); err != nil {
		return nil, err
	}
	return s.applicantViews(ctx, []model.Job{*job})
}

// ApplicantsForOwner 发布者所有职位的申请
func (s *ApplicationService) ApplicantsForOwner(ctx context.Context, actor model.UserID) ([]model.ApplicationView, error) {
	jobs, err := s.Jobs.List(ctx, model.JobFilter{CreatedBy: actor})
	if err != nil {
		return nil, err
	}
	return s.applicantViews(ctx, jobs)
}

func (s *ApplicationService) applicantViews(ctx context.Context, jobs []model.Job) ([]model.ApplicationView, error) {
	jobIDs := make([]primitive.ObjectID, len(jobs))
	byJob := make(map[primitive.ObjectID]*model.Job, len(jobs))
	for i := range jobs {
		jobIDs[i] = jobs[i].ID
		byJob[jobs[i].ID] = &jobs[i]
	}
	apps, err := s.Applications.FindByJobs(ctx, jobIDs)
	if err != nil {
		return nil, err
	}

	userIDs := make([]model.UserID, 0, len(apps))
	for _, a := range apps {
		userIDs = append(userIDs, a.Applicant)
	}
	users, err := s.Users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	byUser := make(map[model.UserID]*model.User, len(users))
	for i := range users {
		byUser[users[i].ID] = &users[i]
	}

	views := make([]model.ApplicationView, 0, len(apps))
	for _, a := range apps {
		v := model.ApplicationView{ID: a.ID, Status: a.Status, Timestamps: a.Timestamps}
		if j, ok := byJob[a.Job]; ok {
			sum := j.Summary()
			v.Job = &sum
		}
		if u, ok := byUser[a.Applicant]; ok {
			sum := u.Summary()
			v.Applicant = &sum
			v.Resume = u.Resume
		}
		views = append(views, v)
	}
	return views, nil
}

// UpdateStatus 发布者接受/拒绝申请，并尽力通知申请人
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor model.UserID, appID primitive.ObjectID, raw string) (*model.Application, error) {
	if raw == "" {
		return nil, util.MissingFields("status")
	}
	status, ok := model.ParseApplicationStatus(raw)
	if !ok {
		return nil, util.NewValidationError(fmt.Sprintf("invalid status %q", raw))
	}
	app, err := s.Applications.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, util.NotFoundErr("Application")
	}
	job, err := s.Jobs.FindByID(ctx, app.Job)
	if err != nil {
		return nil, err
	}
	if err := CheckOwnership(job, actor, "Application"); err != nil {
		return nil, err
	}

	if app.Status == status {
		return app, nil
	}
	if err := s.Applications.UpdateStatus(ctx, appID, status); err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}
	app.Status = status

	if s.Notifier != nil {
		applicant, err := s.Users.FindByID(ctx, app.Applicant)
		if err != nil || applicant == nil {
			logger.Log.Warn("applicant lookup for notification failed", zap.String("applicant", app.Applicant.String()), zap.Error(err))
		} else {
			s.Notifier.ApplicationStatusChanged(ctx, applicant, job, status)
		}
	}
	return app, nil
}
