package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// User 用户档案，_id 由身份提供方签发
type User struct {
	ID              UserID               `bson:"_id" json:"_id"`
	Name            string               `bson:"name" json:"name"`
	Email           string               `bson:"email" json:"email"`
	ImageURL        string               `bson:"imageUrl" json:"imageUrl"`
	EnrolledCourses []primitive.ObjectID `bson:"enrolledCourses" json:"enrolledCourses"`
	SavedJobs       []primitive.ObjectID `bson:"savedJobs" json:"savedJobs"`
	Resume          string               `bson:"resume" json:"resume"`
	Timestamps      `bson:",inline"`
}

func (u *User) IsEnrolled(courseID primitive.ObjectID) bool {
	return ContainsObjectID(u.EnrolledCourses, courseID)
}

func (u *User) HasSavedJob(jobID primitive.ObjectID) bool {
	return ContainsObjectID(u.SavedJobs, jobID)
}

// UserSummary 关联查询时返回的用户公开字段
type UserSummary struct {
	ID       UserID `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	ImageURL string `json:"imageUrl"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, ImageURL: u.ImageURL}
}
