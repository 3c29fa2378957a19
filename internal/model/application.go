package model

import "go.mongodb.org/mongo-driver/bson/primitive"

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

func ParseApplicationStatus(s string) (ApplicationStatus, bool) {
	switch ApplicationStatus(s) {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected:
		return ApplicationStatus(s), true
	}
	return "", false
}

// Application (职位, 申请人) 唯一
type Application struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Job        primitive.ObjectID `bson:"job" json:"job"`
	Applicant  UserID             `bson:"applicant" json:"applicant"`
	Status     ApplicationStatus  `bson:"status" json:"status"`
	Timestamps `bson:",inline"`
}

// ApplicationView 关联职位与申请人后的展示结构
type ApplicationView struct {
	ID        primitive.ObjectID `json:"_id"`
	Status    ApplicationStatus  `json:"status"`
	Job       *JobSummary        `json:"job"`
	Applicant *UserSummary       `json:"applicant"`
	Resume    string             `json:"resume,omitempty"`
	Timestamps
}

type JobSummary struct {
	ID       primitive.ObjectID `json:"_id"`
	Title    string             `json:"title"`
	Company  string             `json:"company"`
	Location string             `json:"location"`
	JobType  JobType            `json:"jobType"`
}

func (j *Job) Summary() JobSummary {
	return JobSummary{ID: j.ID, Title: j.Title, Company: j.Company, Location: j.Location, JobType: j.JobType}
}
