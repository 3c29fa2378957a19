package service

import (
	"encoding/json"
	"testing"
	"time"

	"learnhire_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedJobToJob(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	var full feedJob
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 1834,
		"title": "Platform Engineer",
		"organization": "Orbit",
		"organization_logo": "https://logo.test/orbit.png",
		"url": "https://jobs.test/1834",
		"seniority": "Mid-Senior level",
		"locations_derived": ["Berlin, Germany"],
		"employment_type": ["CONTRACTOR", "FULL_TIME"],
		"date_posted": "2025-05-20T08:30:00",
		"salary_raw": {"value": {"minValue": 70000}}
	}`), &full))

	job := full.toJob(now)
	assert.Equal(t, "1834", job.ExternalID)
	assert.Equal(t, model.SourceFeed, job.Source)
	assert.Equal(t, "Orbit", job.Company)
	assert.Equal(t, "Berlin, Germany", job.Location)
	assert.Equal(t, "Mid-Senior level", job.ExperienceLevel)
	assert.Equal(t, model.FullTime, job.JobType, "unknown employment types fall back to full-time")
	assert.Equal(t, 70000.0, job.Salary)
	assert.Equal(t, "https://jobs.test/1834", job.ApplyLink)
	assert.Equal(t, time.Date(2025, time.May, 20, 8, 30, 0, 0, time.UTC), job.CreatedAt)
	assert.Empty(t, job.CreatedBy)

	var sparse feedJob
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Intern","url":"https://jobs.test/x","employment_type":["INTERN"]}`), &sparse))
	job = sparse.toJob(now)
	assert.Equal(t, "https://jobs.test/x", job.ExternalID, "url identifies items without id")
	assert.Equal(t, "Unknown Company", job.Company)
	assert.Equal(t, "Remote", job.Location)
	assert.Equal(t, "Not Specified", job.ExperienceLevel)
	assert.Equal(t, model.Intern, job.JobType)
	assert.Equal(t, now, job.CreatedAt)
	assert.Equal(t, 1, job.Position)
}
