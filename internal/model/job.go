package model

import (
	"encoding/json"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JobType string

const (
	FullTime JobType = "full-time"
	PartTime JobType = "part-time"
	Contract JobType = "contract"
	Intern   JobType = "intern"
	Remote   JobType = "remote"
)

var jobTypes = []JobType{FullTime, PartTime, Contract, Intern, Remote}

// ParseJobType 大小写、下划线不敏感：FULL_TIME / Full Time / full-time
func ParseJobType(s string) (JobType, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	switch norm {
	case "fulltime":
		norm = string(FullTime)
	case "parttime":
		norm = string(PartTime)
	case "internship":
		norm = string(Intern)
	}
	for _, t := range jobTypes {
		if string(t) == norm {
			return t, true
		}
	}
	return "", false
}

type JobSource string

const (
	SourceEducator JobSource = "educator"
	SourceFeed     JobSource = "feed"
)

// StringList 兼容 "a,b,c" 与 ["a","b","c"] 两种输入
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = trimAll(arr)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*l = StringList{}
		return nil
	}
	*l = trimAll(strings.Split(s, ","))
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type Job struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Title           string               `bson:"title" json:"title"`
	Description     string               `bson:"description" json:"description"`
	Requirements    StringList           `bson:"requirements" json:"requirements"`
	Salary          float64              `bson:"salary" json:"salary"`
	ExperienceLevel string               `bson:"experienceLevel" json:"experienceLevel"`
	Location        string               `bson:"location" json:"location"`
	JobType         JobType              `bson:"jobType" json:"jobType"`
	Position        int                  `bson:"position" json:"position"`
	Company         string               `bson:"company" json:"company"`
	CompanyLogo     string               `bson:"companyLogo,omitempty" json:"companyLogo,omitempty"`
	ApplyLink       string               `bson:"applyLink,omitempty" json:"applyLink,omitempty"`
	CreatedBy       UserID               `bson:"created_by" json:"created_by"`
	Source          JobSource            `bson:"source" json:"source"`
	ExternalID      string               `bson:"externalId,omitempty" json:"-"`
	Applications    []primitive.ObjectID `bson:"applications" json:"applications"`
	Timestamps      `bson:",inline"`
}

func (j *Job) OwnerID() UserID {
	return j.CreatedBy
}

// JobFilter 职位列表查询条件
type JobFilter struct {
	CreatedBy UserID
	Keyword   string
}

// JobPatch 职位部分更新
type JobPatch struct {
	Title           *string     `json:"title"`
	Description     *string     `json:"description"`
	Requirements    *StringList `json:"requirements"`
	Salary          *float64    `json:"salary"`
	ExperienceLevel *string     `json:"experienceLevel"`
	Location        *string     `json:"location"`
	JobType         *string     `json:"jobType"`
	Position        *int        `json:"position"`
	Company         *string     `json:"company"`
	ApplyLink       *string     `json:"applyLink"`
}

// Apply 返回非法的 jobType（若有）
func (p JobPatch) Apply(j *Job) (invalidJobType string) {
	if p.Title != nil {
		j.Title = *p.Title
	}
	if p.Description != nil {
		j.Description = *p.Description
	}
	if p.Requirements != nil {
		j.Requirements = *p.Requirements
	}
	if p.Salary != nil {
		j.Salary = *p.Salary
	}
	if p.ExperienceLevel != nil {
		j.ExperienceLevel = *p.ExperienceLevel
	}
	if p.Location != nil {
		j.Location = *p.Location
	}
	if p.JobType != nil {
		t, ok := ParseJobType(*p.JobType)
		if !ok {
			return *p.JobType
		}
		j.JobType = t
	}
	if p.Position != nil {
		j.Position = *p.Position
	}
	if p.Company != nil {
		j.Company = *p.Company
	}
	if p.ApplyLink != nil {
		j.ApplyLink = *p.ApplyLink
	}
	return ""
}

// JobView 返回给前端的职位，附带发布者展示名
type JobView struct {
	Job
	PosterName string `json:"posterName,omitempty"`
}
