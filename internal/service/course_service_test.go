package service_test

import (
	"bytes"
	"strings"
	"testing"

	"learnhire_backend/internal/model"
	"learnhire_backend/internal/service"
	"learnhire_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pngHeader 足以被识别为 image/png
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func imageUpload() *util.Upload {
	return &util.Upload{Name: "thumb.png", ContentType: "image/png", Size: int64(len(pngHeader)), Data: pngHeader}
}

func newCourseService(f *fixture) *service.CourseService {
	return service.NewCourseService(f.courses, f.users, f.storage)
}

func TestCourseCreate(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)

	in := service.CourseInput{
		CourseTitle:       "  Intro to Go  ",
		CourseDescription: "From zero to services",
		CoursePrice:       floatPtr(49.99),
		Discount:          10,
		CourseContent: model.Chapters{
			{ChapterTitle: "Start", ChapterContent: model.Lectures{
				{LectureTitle: "Hello", LectureDuration: 10},
				{LectureTitle: "Types", LectureDuration: 15},
			}},
		},
	}
	course, err := svc.Create(testCtx, educatorID, in, imageUpload())
	require.NoError(t, err)
	assert.Equal(t, "Intro to Go", course.CourseTitle)
	assert.True(t, course.IsPublished, "published by default")
	assert.Equal(t, educatorID, course.Educator)
	assert.True(t, strings.HasPrefix(course.CourseThumbnail, "/uploads/"+util.FolderThumbnails+"/"))
	assert.Equal(t, 1, f.files.Count())

	lectures := course.CourseContent[0].ChapterContent
	assert.NotEmpty(t, course.CourseContent[0].ChapterID)
	assert.NotEmpty(t, lectures[0].LectureID)
	assert.NotEqual(t, lectures[0].LectureID, lectures[1].LectureID)
}

func TestCourseCreate_Validation(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)

	_, err := svc.Create(testCtx, educatorID, service.CourseInput{CourseTitle: "No price"}, nil)
	var verr *util.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"courseDescription", "coursePrice", "image"}, verr.Missing)

	in := service.CourseInput{CourseTitle: "T", CourseDescription: "D", CoursePrice: floatPtr(10), Discount: 120}
	_, err = svc.Create(testCtx, educatorID, in, imageUpload())
	assert.True(t, isValidation(err), "discount above 100 is rejected")

	dup := service.CourseInput{
		CourseTitle: "T", CourseDescription: "D", CoursePrice: floatPtr(10),
		CourseContent: model.Chapters{{ChapterContent: model.Lectures{{LectureID: "x"}, {LectureID: "x"}}}},
	}
	_, err = svc.Create(testCtx, educatorID, dup, imageUpload())
	assert.True(t, isValidation(err), "duplicate lecture ids are rejected")
	assert.Equal(t, 0, f.files.Count())
}

func TestCourseGetPublic_HidesLockedLectures(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)
	course := f.addCourse(t, sampleCourse(educatorID))
	f.enroll(t, studentID, course.ID)

	public, err := svc.GetPublic(testCtx, course.ID)
	require.NoError(t, err)
	first := public.CourseContent[0].ChapterContent
	assert.NotEmpty(t, first[0].LectureURL, "preview lecture keeps its url")
	assert.Empty(t, first[1].LectureURL)
	assert.Empty(t, public.EnrolledStudents)

	draft := sampleCourse(educatorID)
	draft.IsPublished = false
	f.addCourse(t, draft)
	_, err = svc.GetPublic(testCtx, draft.ID)
	assert.True(t, isNotFound(err))
}

func TestCourseListPublished(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)
	f.addCourse(t, sampleCourse(educatorID))
	draft := sampleCourse(educatorID)
	draft.IsPublished = false
	draft.CourseTitle = "Draft course"
	f.addCourse(t, draft)

	list, err := svc.ListPublished(testCtx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].CourseContent[0].ChapterContent[1].LectureURL)

	list, err = svc.ListPublished(testCtx, "backend")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	own, err := svc.ListByEducator(testCtx, educatorID)
	require.NoError(t, err)
	assert.Len(t, own, 2)
}

func TestCourseUpdateAndDelete_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)
	course, err := svc.Create(testCtx, educatorID, service.CourseInput{
		CourseTitle: "T", CourseDescription: "D", CoursePrice: floatPtr(10),
	}, imageUpload())
	require.NoError(t, err)
	oldThumb := course.CourseThumbnail

	_, err = svc.Update(testCtx, otherID, course.ID, model.CoursePatch{CourseTitle: strPtr("Mine now")}, nil)
	assert.True(t, isForbidden(err))

	updated, err := svc.Update(testCtx, educatorID, course.ID, model.CoursePatch{CourseTitle: strPtr("Renamed")}, imageUpload())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.CourseTitle)
	assert.NotEqual(t, oldThumb, updated.CourseThumbnail)
	assert.Equal(t, 1, f.files.Count(), "old thumbnail removed")

	assert.True(t, isForbidden(svc.Delete(testCtx, otherID, course.ID)))
	require.NoError(t, svc.Delete(testCtx, educatorID, course.ID))
	assert.True(t, isNotFound(svc.Delete(testCtx, educatorID, course.ID)))
	assert.Equal(t, 0, f.files.Count())
}

func TestAddRating_LastWriteWins(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)
	course := f.addCourse(t, sampleCourse(educatorID))

	err := svc.AddRating(testCtx, studentID, course.ID, 4)
	assert.True(t, isValidation(err), "must be enrolled")

	f.enroll(t, studentID, course.ID)
	require.NoError(t, svc.AddRating(testCtx, studentID, course.ID, 4))
	require.NoError(t, svc.AddRating(testCtx, studentID, course.ID, 2))

	stored, err := f.courses.FindByID(testCtx, course.ID)
	require.NoError(t, err)
	require.Len(t, stored.CourseRatings, 1)
	assert.Equal(t, 2, stored.CourseRatings[0].Rating)

	assert.True(t, isValidation(svc.AddRating(testCtx, studentID, course.ID, 6)))
	assert.True(t, isNotFound(svc.AddRating(testCtx, studentID, primitive.NewObjectID(), 3)))
}

func TestEnrolledCourses(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)
	course := f.addCourse(t, sampleCourse(educatorID))
	f.addCourse(t, sampleCourse(educatorID))
	f.enroll(t, studentID, course.ID)

	list, err := svc.EnrolledCourses(testCtx, studentID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, course.ID, list[0].ID)
	assert.NotEmpty(t, list[0].CourseContent[0].ChapterContent[1].LectureURL, "enrolled view keeps lecture urls")
}

func TestStorageKeyFromURL(t *testing.T) {
	f := newFixture(t)
	url, err := f.storage.Save(testCtx, util.FolderResumes, &util.Upload{
		Name: "cv.pdf", ContentType: util.MimePDF, Data: []byte("%PDF-1.4"), Size: 8,
	})
	require.NoError(t, err)

	key, ok := f.storage.KeyFromURL(url)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.True(t, f.files.Has(key))

	_, ok = f.storage.KeyFromURL("https://elsewhere.example.com/a.png")
	assert.False(t, ok)
	assert.True(t, bytes.Equal([]byte("%PDF-1.4"), f.files.Files[key]))
}
