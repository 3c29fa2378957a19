package service

import (
	"context"
	"learnhire_backend/internal/model"
	"time"
)

// EnrolledStudent 教师看板中的选课记录
type EnrolledStudent struct {
	CourseTitle  string             `json:"courseTitle"`
	Student      *model.UserSummary `json:"student"`
	PurchaseDate *time.Time         `json:"purchaseDate,omitempty"`
}

type Dashboard struct {
	TotalEarnings        float64           `json:"totalEarnings"`
	EnrolledStudentsData []EnrolledStudent `json:"enrolledStudentsData"`
	TotalCourses         int               `json:"totalCourses"`
}

type EducatorService struct {
	Courses   CourseStore
	Purchases PurchaseStore
	Users     UserStore
}

func NewEducatorService(courses CourseStore, purchases PurchaseStore, users UserStore) *EducatorService {
	return &EducatorService{Courses: courses, Purchases: purchases, Users: users}
}

func (s *EducatorService) ownCourses(ctx context.Context, educator model.UserID) ([]model.Course, []string, error) {
	courses, err := s.Courses.List(ctx, model.CourseFilter{Educator: educator})
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID.Hex()
	}
	return courses, ids, nil
}

func (s *EducatorService) summaries(ctx context.Context, ids []model.UserID) (map[model.UserID]*model.UserSummary, error) {
	users, err := s.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[model.UserID]*model.UserSummary, len(users))
	for i := range users {
		sum := users[i].Summary()
		sum.Email = ""
		out[users[i].ID] = &sum
	}
	return out, nil
}

// Dashboard 收入为自有课程已完成订单之和
func (s *EducatorService) Dashboard(ctx context.Context, educator model.UserID) (*Dashboard, error) {
	courses, ids, err := s.ownCourses(ctx, educator)
	if err != nil {
		return nil, err
	}
	total, err := s.Purchases.SumCompletedByCourses(ctx, ids)
	if err != nil {
		return nil, err
	}

	var studentIDs []model.UserID
	for _, c := range courses {
		studentIDs = append(studentIDs, c.EnrolledStudents...)
	}
	users, err := s.summaries(ctx, studentIDs)
	if err != nil {
		return nil, err
	}

	data := []EnrolledStudent{}
	for _, c := range courses {
		for _, sid := range c.EnrolledStudents {
			if u, ok := users[sid]; ok {
				data = append(data, EnrolledStudent{CourseTitle: c.CourseTitle, Student: u})
			}
		}
	}
	return &Dashboard{
		TotalEarnings:        total,
		EnrolledStudentsData: data,
		TotalCourses:         len(courses),
	}, nil
}

// EnrolledStudents 按已完成订单列出学生与购买时间
func (s *EducatorService) EnrolledStudents(ctx context.Context, educator model.UserID) ([]EnrolledStudent, error) {
	courses, ids, err := s.ownCourses(ctx, educator)
	if err != nil {
		return nil, err
	}
	purchases, err := s.Purchases.FindCompletedByCourses(ctx, ids)
	if err != nil {
		return nil, err
	}

	titles := make(map[string]string, len(courses))
	for _, c := range courses {
		titles[c.ID.Hex()] = c.CourseTitle
	}
	userIDs := make([]model.UserID, 0, len(purchases))
	for _, p := range purchases {
		userIDs = append(userIDs, p.UserID)
	}
	users, err := s.summaries(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]EnrolledStudent, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, EnrolledStudent{
			CourseTitle:  titles[p.CourseID],
			Student:      users[p.UserID],
			PurchaseDate: p.CompletedAt,
		})
	}
	return out, nil
}
