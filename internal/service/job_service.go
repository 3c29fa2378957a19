package service

import (
	"context"
	"fmt"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/util"
	"learnhire_backend/pkg/logger"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// JobInput 发布职位请求体（multipart 中的 jobData）
type JobInput struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Requirements    model.StringList `json:"requirements"`
	Salary          *float64         `json:"salary"`
	ExperienceLevel string           `json:"experienceLevel"`
	Location        string           `json:"location"`
	JobType         string           `json:"jobType"`
	Position        *int             `json:"position"`
	Company         string           `json:"company"`
	ApplyLink       string           `json:"applyLink"`
}

func (in *JobInput) toJob() (*model.Job, error) {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check("title", in.Title)
	check("description", in.Description)
	if len(in.Requirements) == 0 {
		missing = append(missing, "requirements")
	}
	if in.Salary == nil {
		missing = append(missing, "salary")
	}
	check("experienceLevel", in.ExperienceLevel)
	check("location", in.Location)
	check("jobType", in.JobType)
	if in.Position == nil {
		missing = append(missing, "position")
	}
	check("company", in.Company)
	if len(missing) > 0 {
		return nil, util.MissingFields(missing...)
	}

	jobType, ok := model.ParseJobType(in.JobType)
	if !ok {
		return nil, util.NewValidationError(fmt.Sprintf("invalid jobType %q", in.JobType))
	}
	job := &model.Job{
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Requirements:    in.Requirements,
		Salary:          *in.Salary,
		ExperienceLevel: in.ExperienceLevel,
		Location:        in.Location,
		JobType:         jobType,
		Position:        *in.Position,
		Company:         strings.TrimSpace(in.Company),
		ApplyLink:       in.ApplyLink,
		Source:          model.SourceEducator,
	}
	return job, validateJob(job)
}

func validateJob(job *model.Job) error {
	if job.Salary < 0 {
		return util.NewValidationError("salary must not be negative")
	}
	if job.Position < 1 {
		return util.NewValidationError("position must be at least 1")
	}
	return nil
}

type JobService struct {
	Jobs         JobStore
	Users        UserStore
	Applications ApplicationStore
	Storage      *StorageService
}

func NewJobService(jobs JobStore, users UserStore, applications ApplicationStore, storage *StorageService) *JobService {
	return &JobService{Jobs: jobs, Users: users, Applications: applications, Storage: storage}
}

func (s *JobService) Create(ctx context.Context, actor model.UserID, in JobInput, logo *util.Upload) (*model.Job, error) {
	job, err := in.toJob()
	if err != nil {
		return nil, err
	}
	job.CreatedBy = actor

	if logo != nil {
		url, err := s.Storage.Save(ctx, util.FolderLogos, logo)
		if err != nil {
			return nil, err
		}
		job.CompanyLogo = url
	}
	if err := s.Jobs.Create(ctx, job); err != nil {
		if job.CompanyLogo != "" {
			logger.Log.Warn("job insert failed, logo left in storage", zap.String("logo", job.CompanyLogo), zap.Error(err))
		}
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// withPosters 关联发布者展示名
func (s *JobService) withPosters(ctx context.Context, jobs []model.Job) ([]model.JobView, error) {
	ids := make([]model.UserID, 0, len(jobs))
	seen := make(map[model.UserID]bool)
	for _, j := range jobs {
		if j.CreatedBy != "" && !seen[j.CreatedBy] {
			seen[j.CreatedBy] = true
			ids = append(ids, j.CreatedBy)
		}
	}
	users, err := s.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[model.UserID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	views := make([]model.JobView, len(jobs))
	for i, j := range jobs {
		views[i] = model.JobView{Job: j, PosterName: names[j.CreatedBy]}
	}
	return views, nil
}

func (s *JobService) Get(ctx context.Context, id primitive.ObjectID) (*model.JobView, error) {
	job, err := s.Jobs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, util.NotFoundErr("Job")
	}
	views, err := s.withPosters(ctx, []model.Job{*job})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List 全部职位，按发布时间倒序，可按关键字过滤
func (s *JobService) List(ctx context.Context, keyword string) ([]model.JobView, error) {
	jobs, err := s.Jobs.List(ctx, model.JobFilter{Keyword: keyword})
	if err != nil {
		return nil, err
	}
	return s.withPosters(ctx, jobs)
}

func (s *JobService) ListByOwner(ctx context.Context, actor model.UserID) ([]model.Job, error) {
	return s.Jobs.List(ctx, model.JobFilter{CreatedBy: actor})
}

func (s *JobService) GetOwned(ctx context.Context, actor model.UserID, id primitive.ObjectID) (*model.Job, error) {
	job, err := s.Jobs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckOwnership(job, actor, "Job"); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *JobService) Update(ctx context.Context, actor model.UserID, id primitive.ObjectID, patch model.JobPatch, logo *util.Upload) (*model.Job, error) {
	job, err := s.GetOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, util.MissingFields("title")
	}
	if bad := patch.Apply(job); bad != "" {
		return nil, util.NewValidationError(fmt.Sprintf("invalid jobType %q", bad))
	}
	if err := validateJob(job); err != nil {
		return nil, err
	}

	oldLogo := ""
	if logo != nil {
		url, err := s.Storage.Save(ctx, util.FolderLogos, logo)
		if err != nil {
			return nil, err
		}
		oldLogo, job.CompanyLogo = job.CompanyLogo, url
	}
	if err := s.Jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	if oldLogo != "" {
		if err := s.Storage.DeleteByURL(ctx, oldLogo); err != nil {
			logger.Log.Warn("delete old logo failed", zap.String("url", oldLogo), zap.Error(err))
		}
	}
	return job, nil
}

// Delete 同时删除申请记录并从收藏中移除
func (s *JobService) Delete(ctx context.Context, actor model.UserID, id primitive.ObjectID) error {
	job, err := s.GetOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.Jobs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if err := s.Applications.DeleteByJob(ctx, id); err != nil {
		logger.Log.Warn("delete job applications failed", zap.String("job", id.Hex()), zap.Error(err))
	}
	if err := s.Users.RemoveSavedJob(ctx, id); err != nil {
		logger.Log.Warn("remove saved job failed", zap.String("job", id.Hex()), zap.Error(err))
	}
	if err := s.Storage.DeleteByURL(ctx, job.CompanyLogo); err != nil {
		logger.Log.Warn("delete logo failed", zap.String("url", job.CompanyLogo), zap.Error(err))
	}
	return nil
}

// ToggleSaved 收藏/取消收藏，返回操作后是否已收藏
func (s *JobService) ToggleSaved(ctx context.Context, userID model.UserID, jobID primitive.ObjectID) (bool, error) {
	job, err := s.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, util.NotFoundErr("Job")
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, util.NotFoundErr("User")
	}
	return s.Users.ToggleSavedJob(ctx, userID, jobID)
}

func (s *JobService) SavedJobs(ctx context.Context, userID model.UserID) ([]model.JobView, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, util.NotFoundErr("User")
	}
	jobs, err := s.Jobs.FindByIDs(ctx, user.SavedJobs)
	if err != nil {
		return nil, err
	}
	return s.withPosters(ctx, jobs)
}
