package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"learnhire_backend/internal/config"
	"learnhire_backend/internal/model"
	"learnhire_backend/pkg/logger"
	"learnhire_backend/pkg/monitoring"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// feedJob 外部职位源（startup-jobs-api）单条记录
type feedJob struct {
	ID        json.RawMessage `json:"id"`
	Title     string          `json:"title"`
	Org       string          `json:"organization"`
	OrgLogo   string          `json:"organization_logo"`
	URL       string          `json:"url"`
	Seniority string          `json:"seniority"`
	Locations []string        `json:"locations_derived"`
	Types     []string        `json:"employment_type"`
	Posted    string          `json:"date_posted"`
	SalaryRaw *struct {
		Value *struct {
			MinValue float64 `json:"minValue"`
		} `json:"value"`
	} `json:"salary_raw"`
}

func (f feedJob) toJob(now time.Time) *model.Job {
	job := &model.Job{
		Title:           f.Title,
		Description:     "No description available",
		Requirements:    model.StringList{},
		ExperienceLevel: firstNonEmpty(f.Seniority, "Not Specified"),
		Location:        "Remote",
		JobType:         model.FullTime,
		Position:        1,
		Company:         firstNonEmpty(f.Org, "Unknown Company"),
		CompanyLogo:     f.OrgLogo,
		ApplyLink:       f.URL,
		Source:          model.SourceFeed,
		ExternalID:      strings.Trim(string(f.ID), `"`),
	}
	if job.ExternalID == "" || job.ExternalID == "null" {
		job.ExternalID = f.URL
	}
	if len(f.Locations) > 0 && f.Locations[0] != "" {
		job.Location = f.Locations[0]
	}
	if len(f.Types) > 0 {
		if t, ok := model.ParseJobType(f.Types[0]); ok {
			job.JobType = t
		}
	}
	if f.SalaryRaw != nil && f.SalaryRaw.Value != nil {
		job.Salary = f.SalaryRaw.Value.MinValue
	}
	job.CreatedAt = now
	if t, err := time.Parse(time.RFC3339, f.Posted); err == nil {
		job.CreatedAt = t
	} else if t, err := time.Parse("2006-01-02T15:04:05", f.Posted); err == nil {
		job.CreatedAt = t
	}
	return job
}

func firstNonEmpty(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// JobFeedService 定时从外部职位源导入，按 externalId 去重
type JobFeedService struct {
	Jobs   JobStore
	client *resty.Client
	cfg    config.JobFeedConfig
	cron   *cron.Cron
	mu     sync.Mutex
}

func NewJobFeedService(jobs JobStore, cfg config.JobFeedConfig) *JobFeedService {
	client := resty.New().
		SetHeader("x-rapidapi-key", cfg.APIKey).
		SetHeader("x-rapidapi-host", cfg.Host).
		SetTimeout(30 * time.Second)
	return &JobFeedService{Jobs: jobs, client: client, cfg: cfg}
}

// ImportResult 一次导入的统计
type ImportResult struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
}

// Import 同一时刻只允许一次导入
func (s *JobFeedService) Import(ctx context.Context) (*ImportResult, error) {
	if s.cfg.URL == "" {
		return nil, errors.New("job feed url not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query, err := url.ParseQuery(s.cfg.Query)
	if err != nil {
		return nil, fmt.Errorf("job feed query: %w", err)
	}

	var items []feedJob
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		SetResult(&items).
		Get(s.cfg.URL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("job feed: status %d", resp.StatusCode())
	}

	now := time.Now()
	res := &ImportResult{Fetched: len(items)}
	for _, item := range items {
		if item.Title == "" || (len(item.ID) == 0 && item.URL == "") {
			continue
		}
		inserted, err := s.Jobs.InsertFromFeed(ctx, item.toJob(now))
		if err != nil {
			return res, fmt.Errorf("save feed job: %w", err)
		}
		if inserted {
			res.Inserted++
		}
	}
	monitoring.JobsImported.Add(float64(res.Inserted))
	logger.Log.Info("job feed imported", zap.Int("fetched", res.Fetched), zap.Int("inserted", res.Inserted))
	return res, nil
}

// Start 按配置的 cron 表达式定时导入
func (s *JobFeedService) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := s.Import(ctx); err != nil {
			logger.Log.Error("scheduled job feed import failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("job feed schedule %q: %w", s.cfg.Schedule, err)
	}
	s.cron.Start()
	logger.Log.Info("job feed scheduler started", zap.String("schedule", s.cfg.Schedule))
	return nil
}

func (s *JobFeedService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
