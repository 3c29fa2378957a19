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

// CourseInput 创建课程的请求体（multipart 中的 courseData）
type CourseInput struct {
	CourseTitle       string         `json:"courseTitle"`
	CourseDescription string         `json:"courseDescription"`
	CoursePrice       *float64       `json:"coursePrice"`
	Discount          int            `json:"discount"`
	IsPublished       *bool          `json:"isPublished"`
	CourseContent     model.Chapters `json:"courseContent"`
}

func (in *CourseInput) validate(hasThumbnail bool) error {
	var missing []string
	if strings.TrimSpace(in.CourseTitle) == "" {
		missing = append(missing, "courseTitle")
	}
	if strings.TrimSpace(in.CourseDescription) == "" {
		missing = append(missing, "courseDescription")
	}
	if in.CoursePrice == nil {
		missing = append(missing, "coursePrice")
	}
	if !hasThumbnail {
		missing = append(missing, "image")
	}
	if len(missing) > 0 {
		return util.MissingFields(missing...)
	}
	return validatePricing(*in.CoursePrice, in.Discount)
}

func validatePricing(price float64, discount int) error {
	if price < 0 {
		return util.NewValidationError("coursePrice must not be negative")
	}
	if discount < 0 || discount > 100 {
		return util.NewValidationError("discount must be between 0 and 100")
	}
	return nil
}

// normalizeContent 补齐章节/课时ID并校验课时ID唯一
func normalizeContent(content model.Chapters) error {
	seen := make(map[string]struct{})
	for i := range content {
		ch := &content[i]
		if ch.ChapterID == "" {
			ch.ChapterID = model.GenerateUUID()
		}
		for j := range ch.ChapterContent {
			lec := &ch.ChapterContent[j]
			if lec.LectureID == "" {
				lec.LectureID = model.GenerateUUID()
			}
			if lec.LectureDuration < 0 {
				return util.NewValidationError("lectureDuration must not be negative")
			}
			if _, dup := seen[lec.LectureID]; dup {
				return util.NewValidationError(fmt.Sprintf("duplicate lectureId %q", lec.LectureID))
			}
			seen[lec.LectureID] = struct{}{}
		}
	}
	return nil
}

type CourseService struct {
	Courses CourseStore
	Users   UserStore
	Storage *StorageService
}

func NewCourseService(courses CourseStore, users UserStore, storage *StorageService) *CourseService {
	return &CourseService{Courses: courses, Users: users, Storage: storage}
}

func (s *CourseService) Create(ctx context.Context, educator model.UserID, in CourseInput, thumbnail *util.Upload) (*model.Course, error) {
	if err := in.validate(thumbnail != nil); err != nil {
		return nil, err
	}
	if err := normalizeContent(in.CourseContent); err != nil {
		return nil, err
	}

	url, err := s.Storage.Save(ctx, util.FolderThumbnails, thumbnail)
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		CourseTitle:       strings.TrimSpace(in.CourseTitle),
		CourseDescription: in.CourseDescription,
		CoursePrice:       *in.CoursePrice,
		Discount:          in.Discount,
		CourseThumbnail:   url,
		IsPublished:       in.IsPublished == nil || *in.IsPublished,
		Educator:          educator,
		CourseContent:     in.CourseContent,
	}
	if course.CourseContent == nil {
		course.CourseContent = model.Chapters{}
	}
	if err := s.Courses.Create(ctx, course); err != nil {
		logger.Log.Warn("course insert failed, thumbnail left in storage", zap.String("thumbnail", url), zap.Error(err))
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

// GetPublic 课程详情，未发布或不存在均视为 NotFound
func (s *CourseService) GetPublic(ctx context.Context, id primitive.ObjectID) (*model.Course, error) {
	course, err := s.Courses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course == nil || !course.IsPublished {
		return nil, util.NotFoundErr("Course")
	}
	view := course.PublicView()
	return &view, nil
}

func (s *CourseService) ListPublished(ctx context.Context, keyword string) ([]model.Course, error) {
	courses, err := s.Courses.List(ctx, model.CourseFilter{Keyword: keyword, PublishedOnly: true})
	if err != nil {
		return nil, err
	}
	for i := range courses {
		courses[i] = courses[i].PublicView()
	}
	return courses, nil
}

func (s *CourseService) ListByEducator(ctx context.Context, educator model.UserID) ([]model.Course, error) {
	return s.Courses.List(ctx, model.CourseFilter{Educator: educator})
}

// GetOwned 教师编辑页使用，校验归属
func (s *CourseService) GetOwned(ctx context.Context, actor model.UserID, id primitive.ObjectID) (*model.Course, error) {
	course, err := s.Courses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckOwnership(course, actor, "Course"); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Update(ctx context.Context, actor model.UserID, id primitive.ObjectID, patch model.CoursePatch, thumbnail *util.Upload) (*model.Course, error) {
	course, err := s.GetOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if patch.CourseTitle != nil && strings.TrimSpace(*patch.CourseTitle) == "" {
		return nil, util.MissingFields("courseTitle")
	}
	patch.Apply(course)
	if err := validatePricing(course.CoursePrice, course.Discount); err != nil {
		return nil, err
	}
	if patch.CourseContent != nil {
		if err := normalizeContent(course.CourseContent); err != nil {
			return nil, err
		}
	}

	oldThumbnail := ""
	if thumbnail != nil {
		url, err := s.Storage.Save(ctx, util.FolderThumbnails, thumbnail)
		if err != nil {
			return nil, err
		}
		oldThumbnail, course.CourseThumbnail = course.CourseThumbnail, url
	}

	if err := s.Courses.Update(ctx, course); err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	if oldThumbnail != "" {
		if err := s.Storage.DeleteByURL(ctx, oldThumbnail); err != nil {
			logger.Log.Warn("delete old thumbnail failed", zap.String("url", oldThumbnail), zap.Error(err))
		}
	}
	return course, nil
}

// Delete 删除课程；购买流水与学习进度保留
func (s *CourseService) Delete(ctx context.Context, actor model.UserID, id primitive.ObjectID) error {
	course, err := s.GetOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.Courses.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if err := s.Storage.DeleteByURL(ctx, course.CourseThumbnail); err != nil {
		logger.Log.Warn("delete thumbnail failed", zap.String("url", course.CourseThumbnail), zap.Error(err))
	}
	return nil
}

// AddRating 仅已选课用户可评分，重复评分覆盖旧值
func (s *CourseService) AddRating(ctx context.Context, userID model.UserID, courseID primitive.ObjectID, rating int) error {
	if rating < 1 || rating > 5 {
		return util.NewValidationError("rating must be between 1 and 5")
	}
	course, err := s.Courses.FindByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return util.NotFoundErr("Course")
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return util.NotFoundErr("User")
	}
	if !user.IsEnrolled(courseID) {
		return util.NewValidationError("user has not purchased this course")
	}
	return s.Courses.UpsertRating(ctx, courseID, userID, rating)
}

// EnrolledCourses 用户已购课程（含完整课时地址）
func (s *CourseService) EnrolledCourses(ctx context.Context, userID model.UserID) ([]model.Course, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, util.NotFoundErr("User")
	}
	return s.Courses.FindByIDs(ctx, user.EnrolledCourses)
}
