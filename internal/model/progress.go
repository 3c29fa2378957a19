package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// CourseProgress 每个 (用户, 课程) 一条，记录已完成课时
type CourseProgress struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID           UserID             `bson:"userId" json:"userId"`
	CourseID         primitive.ObjectID `bson:"courseId" json:"courseId"`
	LectureCompleted []string           `bson:"lectureCompleted" json:"lectureCompleted"`
	Timestamps       `bson:",inline"`
}

func (p *CourseProgress) HasLecture(lectureID string) bool {
	for _, id := range p.LectureCompleted {
		if id == lectureID {
			return true
		}
	}
	return false
}

// CompletedIn 只统计仍属于课程的课时
func (p *CourseProgress) CompletedIn(content Chapters) int {
	if p == nil {
		return 0
	}
	ids := content.LectureIDs()
	n := 0
	seen := make(map[string]struct{}, len(p.LectureCompleted))
	for _, id := range p.LectureCompleted {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := ids[id]; ok {
			n++
		}
	}
	return n
}

// Eligibility 证书资格与完成度
type Eligibility struct {
	CanGetCertificate bool `json:"canGetCertificate"`
	Completed         int  `json:"completed"`
	Total             int  `json:"total"`
	Percentage        int  `json:"percentage"`
}

type CertificateLevel string

const (
	LevelBeginner     CertificateLevel = "Beginner"
	LevelIntermediate CertificateLevel = "Intermediate"
	LevelAdvanced     CertificateLevel = "Advanced"
)

// CertificateData 证书展示数据，按需生成不落库
type CertificateData struct {
	StudentName         string           `json:"studentName"`
	CourseName          string           `json:"courseName"`
	InstructorName      string           `json:"instructorName"`
	InstructorSignature string           `json:"instructorSignature,omitempty"`
	CourseDuration      string           `json:"courseDuration"`
	TotalDurationMins   int              `json:"totalDurationMinutes"`
	TotalLectures       int              `json:"totalLectures"`
	CompletedLectures   int              `json:"completedLectures"`
	CompletionDate      string           `json:"completionDate"`
	IssuedDate          string           `json:"issuedDate"`
	Level               CertificateLevel `json:"level"`
	CertificateID       string           `json:"certificateId"`
	VerificationURL     string           `json:"verificationUrl"`
}
