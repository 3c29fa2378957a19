package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/util"
	"learnhire_backend/pkg/logger"
	"learnhire_backend/pkg/monitoring"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	intermediateMinutes = 120
	advancedMinutes     = 300
)

type ProgressService struct {
	Courses       CourseStore
	Progress      ProgressStore
	Users         UserStore
	VerifyBaseURL string
	Now           func() time.Time
}

func NewProgressService(courses CourseStore, progress ProgressStore, users UserStore, verifyBaseURL string) *ProgressService {
	return &ProgressService{
		Courses:       courses,
		Progress:      progress,
		Users:         users,
		VerifyBaseURL: strings.TrimSuffix(verifyBaseURL, "/"),
		Now:           time.Now,
	}
}

// RecordLectureCompletion 记录课时完成，返回该课时是否此前已完成
func (s *ProgressService) RecordLectureCompletion(ctx context.Context, userID model.UserID, courseID primitive.ObjectID, lectureID string) (bool, error) {
	if lectureID == "" {
		return false, util.MissingFields("lectureId")
	}
	course, err := s.Courses.FindByID(ctx, courseID)
	if err != nil {
		return false, err
	}
	if course == nil {
		return false, util.NotFoundErr("Course")
	}
	if !course.HasStudent(userID) {
		return false, util.NewValidationError("user is not enrolled in this course")
	}
	if !course.CourseContent.HasLecture(lectureID) {
		return false, util.NewValidationError("lecture does not belong to this course")
	}

	added, err := s.Progress.AddLecture(ctx, userID, courseID, lectureID)
	if err != nil {
		return false, fmt.Errorf("record lecture completion: %w", err)
	}
	if added {
		monitoring.LecturesCompleted.Inc()
	}
	return !added, nil
}

// GetProgress 无记录时返回 nil
func (s *ProgressService) GetProgress(ctx context.Context, userID model.UserID, courseID primitive.ObjectID) (*model.CourseProgress, error) {
	return s.Progress.Find(ctx, userID, courseID)
}

// ComputeEligibility 课程或进度记录不存在时返回零值
func (s *ProgressService) ComputeEligibility(ctx context.Context, userID model.UserID, courseID primitive.ObjectID) (model.Eligibility, error) {
	course, progress, err := s.load(ctx, userID, courseID)
	if err != nil || course == nil || progress == nil {
		return model.Eligibility{}, err
	}
	return eligibility(course, progress), nil
}

func (s *ProgressService) load(ctx context.Context, userID model.UserID, courseID primitive.ObjectID) (*model.Course, *model.CourseProgress, error) {
	course, err := s.Courses.FindByID(ctx, courseID)
	if err != nil || course == nil {
		return nil, nil, err
	}
	progress, err := s.Progress.Find(ctx, userID, courseID)
	if err != nil {
		return nil, nil, err
	}
	return course, progress, nil
}

func eligibility(course *model.Course, progress *model.CourseProgress) model.Eligibility {
	total := course.CourseContent.TotalLectures()
	completed := progress.CompletedIn(course.CourseContent)
	e := model.Eligibility{
		CanGetCertificate: total > 0 && completed == total,
		Completed:         completed,
		Total:             total,
	}
	if total > 0 {
		e.Percentage = int(math.Round(float64(completed) / float64(total) * 100))
	}
	return e
}

// IssueCertificateData 生成证书展示数据，不落库
func (s *ProgressService) IssueCertificateData(ctx context.Context, userID model.UserID, courseID primitive.ObjectID) (*model.CertificateData, error) {
	course, progress, err := s.load(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil || progress == nil {
		return nil, util.ErrNotEligible
	}
	elig := eligibility(course, progress)
	if !elig.CanGetCertificate {
		return nil, util.ErrNotEligible
	}

	student, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, util.NotFoundErr("User")
	}

	instructorName, signature := "Unknown", ""
	educator, err := s.Users.FindByID(ctx, course.Educator)
	if err != nil {
		logger.Log.Warn("load course educator failed", zap.String("educator", course.Educator.String()), zap.Error(err))
	} else if educator != nil {
		instructorName, signature = educator.Name, educator.ImageURL
	}

	now := s.Now()
	minutes := course.CourseContent.TotalDuration()
	certID, err := newCertificateID(now, userID)
	if err != nil {
		return nil, err
	}

	monitoring.CertificatesIssued.Inc()
	return &model.CertificateData{
		StudentName:         student.Name,
		CourseName:          course.CourseTitle,
		InstructorName:      instructorName,
		InstructorSignature: signature,
		CourseDuration:      FormatDuration(minutes),
		TotalDurationMins:   minutes,
		TotalLectures:       elig.Total,
		CompletedLectures:   elig.Completed,
		CompletionDate:      progress.UpdatedAt.Format(util.CertificateFormat),
		IssuedDate:          now.Format(util.CertificateFormat),
		Level:               LevelFor(minutes),
		CertificateID:       certID,
		VerificationURL:     s.VerifyBaseURL + "/verify/" + certID,
	}, nil
}

// FormatDuration 分钟数格式化为 "2h 5m"，不足一小时为 "45m"
func FormatDuration(minutes int) string {
	h, m := minutes/60, minutes%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func LevelFor(minutes int) model.CertificateLevel {
	switch {
	case minutes > advancedMinutes:
		return model.LevelAdvanced
	case minutes > intermediateMinutes:
		return model.LevelIntermediate
	}
	return model.LevelBeginner
}

// newCertificateID CERT-<毫秒时间戳>-<用户ID后4位>-<随机串>
func newCertificateID(now time.Time, userID model.UserID) (string, error) {
	suffix := strings.ToUpper(string(userID))
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("CERT-%d-%s-%s", now.UnixMilli(), suffix, strings.ToUpper(hex.EncodeToString(buf))), nil
}
