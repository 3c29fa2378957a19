package service_test

import (
	"context"
	"errors"
	"testing"

	"learnhire_backend/internal/config"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/repository"
	"learnhire_backend/internal/service"
	"learnhire_backend/internal/testutil"
	"learnhire_backend/internal/util"
	"learnhire_backend/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

var testCtx = context.Background()

const (
	educatorID model.UserID = "user_educator01"
	studentID  model.UserID = "user_student0042"
	otherID    model.UserID = "user_other0007"
)

type fixture struct {
	users     *testutil.UserStore
	courses   *testutil.CourseStore
	progress  *testutil.ProgressStore
	jobs      *testutil.JobStore
	apps      *testutil.ApplicationStore
	files     *testutil.StorageProvider
	identity  *testutil.Identity
	gateway   *testutil.Gateway
	mailer    *testutil.Mailer
	purchases *repository.PurchaseRepository
	storage   *service.StorageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users: testutil.NewUserStore(
			&model.User{ID: educatorID, Name: "Ada Educator", Email: "ada@example.com"},
			&model.User{ID: studentID, Name: "Sam Student", Email: "sam@example.com"},
			&model.User{ID: otherID, Name: "Olive Other", Email: "olive@example.com"},
		),
		courses:  testutil.NewCourseStore(),
		progress: testutil.NewProgressStore(),
		jobs:     testutil.NewJobStore(),
		apps:     testutil.NewApplicationStore(),
		files:    testutil.NewStorageProvider(),
		identity: testutil.NewIdentity(),
		gateway:  &testutil.Gateway{},
		mailer:   &testutil.Mailer{},
	}
	f.storage = &service.StorageService{Provider: f.files}
	f.purchases = repository.NewPurchaseRepository(newLedger(t))
	return f
}

// newLedger 每个测试独立的内存 sqlite 流水库
func newLedger(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, false)
	require.NoError(t, err)
	return db
}

// sampleCourse 2 章，分别 3 节与 2 节，共 5 节 90 分钟
func sampleCourse(educator model.UserID) *model.Course {
	lecture := func(id string, mins int, preview bool) model.Lecture {
		return model.Lecture{
			LectureID:       id,
			LectureTitle:    "Lecture " + id,
			LectureDuration: mins,
			LectureURL:      "https://video.example.com/" + id,
			IsPreviewFree:   preview,
		}
	}
	return &model.Course{
		ID:                primitive.NewObjectID(),
		CourseTitle:       "Go for Backend Engineers",
		CourseDescription: "Services, storage and deployment",
		CoursePrice:       100,
		Discount:          20,
		IsPublished:       true,
		Educator:          educator,
		CourseContent: model.Chapters{
			{ChapterID: "ch1", ChapterOrder: 1, ChapterTitle: "Basics", ChapterContent: model.Lectures{
				lecture("l1", 20, true), lecture("l2", 20, false), lecture("l3", 20, false),
			}},
			{ChapterID: "ch2", ChapterOrder: 2, ChapterTitle: "Storage", ChapterContent: model.Lectures{
				lecture("l4", 15, false), lecture("l5", 15, false),
			}},
		},
	}
}

func (f *fixture) addCourse(t *testing.T, c *model.Course) *model.Course {
	t.Helper()
	require.NoError(t, f.courses.Create(testCtx, c))
	return c
}

// enroll 直接写入选课关系，绕过支付流程
func (f *fixture) enroll(t *testing.T, userID model.UserID, courseID primitive.ObjectID) {
	t.Helper()
	require.NoError(t, f.users.AddEnrolledCourse(testCtx, userID, courseID))
	require.NoError(t, f.courses.AddEnrolledStudent(testCtx, courseID, userID))
}

func isValidation(err error) bool {
	var verr *util.ValidationError
	return errors.As(err, &verr)
}

func isNotFound(err error) bool {
	return errors.Is(err, util.ErrNotFound)
}

func isForbidden(err error) bool {
	return errors.Is(err, util.ErrForbidden)
}
