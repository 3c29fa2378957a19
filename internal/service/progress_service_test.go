package service_test

import (
	"regexp"
	"testing"
	"time"

	"learnhire_backend/internal/model"
	"learnhire_backend/internal/service"
	"learnhire_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newProgressService(f *fixture) *service.ProgressService {
	svc := service.NewProgressService(f.courses, f.progress, f.users, "https://learnhire.example.com/")
	svc.Now = func() time.Time { return time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestRecordLectureCompletion(t *testing.T) {
	f := newFixture(t)
	svc := newProgressService(f)
	course := f.addCourse(t, sampleCourse(educatorID))
	f.enroll(t, studentID, course.ID)

	already, err := svc.RecordLectureCompletion(testCtx, studentID, course.ID, "l4")
	require.NoError(t, err)
	assert.False(t, already)

	already, err = svc.RecordLectureCompletion(testCtx, studentID, course.ID, "l4")
	require.NoError(t, err)
	assert.True(t, already, "second completion of the same lecture is a no-op")

	p, err := svc.GetProgress(testCtx, studentID, course.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, []string{"l4"}, p.LectureCompleted)
}

func TestRecordLectureCompletion_Rejections(t *testing.T) {
	f := newFixture(t)
	svc := newProgressService(f)
	course := f.addCourse(t, sampleCourse(educatorID))
	f.enroll(t, studentID, course.ID)

	tests := []struct {
		name    string
		user    model.UserID
		course  primitive.ObjectID
		lecture string
		check   func(error) bool
	}{
		{"missing lecture id", studentID, course.ID, "", isValidation},
		{"unknown course", studentID, primitive.NewObjectID(), "l1", isNotFound},
		{"not enrolled", otherID, course.ID, "l1", isValidation},
		{"lecture outside course", studentID, course.ID, "l99", isValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordLectureCompletion(testCtx, tt.user, tt.course, tt.lecture)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}

	p, err := svc.GetProgress(testCtx, studentID, course.ID)
	require.NoError(t, err)
	assert.Nil(t, p, "rejected completions must not create a progress record")
}

func TestGetProgress_AbsentIsNotAnError(t *testing.T) {
	f := newFixture(t)
	svc := newProgressService(f)

	p, err := svc.GetProgress(testCtx, studentID, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestComputeEligibility(t *testing.T) {
	f := newFixture(t)
	svc := newProgressService(f)
	course := f.addCourse(t, sampleCourse(educatorID))
	f.enroll(t, studentID, course.ID)

	e, err := svc.ComputeEligibility(testCtx, studentID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Eligibility{}, e, "no progress record yet")

	for _, id := range []string{"l1", "l2", "l3"} {
		_, err := svc.RecordLectureCompletion(testCtx, studentID, course.ID, id)
		require.NoError(t, err)
	}
	e, err = svc.ComputeEligibility(testCtx, studentID, course.ID)
	require.NoError(t, err)
	assert.False(t, e.CanGetCertificate)
	assert.Equal(t, 3, e.Completed)
	assert.Equal(t, 60, e.Percentage)

	for _, id := range []string{"l4", "l5"} {
		_, err := svc.RecordLectureCompletion(testCtx, studentID, course.ID, id)
		require.NoError(t, err)
	}
	_, err = svc.RecordLectureCompletion(testCtx, studentID, course.ID, "l6")
	require.Error(t, err)

	e, err = svc.ComputeEligibility(testCtx, studentID, course.ID)
	require.NoError(t, err)
	assert.True(t, e.CanGetCertificate)
	assert.Equal(t, 5, e.Total)
	assert.Equal(t, 100, e.Percentage)
}

func TestComputeEligibility_EmptyCourseNeverEligible(t *testing.T) {
	f := newFixture(t)
	svc := newProgressService(f)
	c := sampleCourse(educatorID)
	c.CourseContent = model.Chapters{}
	course := f.addCourse(t, c)

	e, err := svc.ComputeEligibility(testCtx, studentID, course.ID)
	require.NoError(t, err)
	assert.False(t, e.CanGetCertificate)
	assert.Equal(t, 0, e.Total)
}

func TestComputeEligibility_RemovedLecturesDoNotCount(t *testing.T) {
	f := newFixture(t)
	svc := newProgressService(f)
	course := f.addCourse(t, sampleCourse(educatorID))
	f.enroll(t, studentID, course.ID)
	for _, id := range []string{"l1", "l2", "l3", "l4", "l5"} {
		_, err := svc.RecordLectureCompletion(testCtx, studentID, course.ID, id)
		require.NoError(t, err)
	}

	// 教师删掉第二章后新增一节未完成课时
	updated := *course
	updated.CourseContent = model.Chapters{course.CourseContent[0]}
	updated.CourseContent[0].ChapterContent = append(model.Lectures{}, course.CourseContent[0].ChapterContent...)
	updated.CourseContent[0].ChapterContent = append(updated.CourseContent[0].ChapterContent,
		model.Lecture{LectureID: "l7", LectureDuration: 5})
	require.NoError(t, f.courses.Update(testCtx, &updated))

	e, err := svc.ComputeEligibility(testCtx, studentID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, e.Completed)
	assert.Equal(t, 4, e.Total)
	assert.False(t, e.CanGetCertificate)
}

func TestIssueCertificateData(t *testing.T) {
	f := newFixture(t)
	svc := newProgressService(f)
	course := f.addCourse(t, sampleCourse(educatorID))
	f.enroll(t, studentID, course.ID)

	_, err := svc.IssueCertificateData(testCtx, studentID, course.ID)
	assert.ErrorIs(t, err, util.ErrNotEligible)

	for _, id := range []string{"l1", "l2", "l3", "l4", "l5"} {
		_, err := svc.RecordLectureCompletion(testCtx, studentID, course.ID, id)
		require.NoError(t, err)
	}

	data, err := svc.IssueCertificateData(testCtx, studentID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam Student", data.StudentName)
	assert.Equal(t, "Ada Educator", data.InstructorName)
	assert.Equal(t, course.CourseTitle, data.CourseName)
	assert.Equal(t, "1h 30m", data.CourseDuration)
	assert.Equal(t, 90, data.TotalDurationMins)
	assert.Equal(t, model.LevelBeginner, data.Level)
	assert.Equal(t, 5, data.TotalLectures)
	assert.Equal(t, 5, data.CompletedLectures)
	assert.Equal(t, "March 5, 2024", data.IssuedDate)
	assert.Regexp(t, regexp.MustCompile(`^CERT-\d+-0042-[0-9A-F]{6}$`), data.CertificateID)
	assert.Equal(t, "https://learnhire.example.com/verify/"+data.CertificateID, data.VerificationURL)

	again, err := svc.IssueCertificateData(testCtx, studentID, course.ID)
	require.NoError(t, err)
	assert.NotEqual(t, data.CertificateID, again.CertificateID, "each issuance gets a fresh id")
}

func TestIssueCertificateData_MissingEducator(t *testing.T) {
	f := newFixture(t)
	svc := newProgressService(f)
	course := f.addCourse(t, sampleCourse("user_gone"))
	f.enroll(t, studentID, course.ID)
	for _, id := range []string{"l1", "l2", "l3", "l4", "l5"} {
		_, err := svc.RecordLectureCompletion(testCtx, studentID, course.ID, id)
		require.NoError(t, err)
	}

	data, err := svc.IssueCertificateData(testCtx, studentID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", data.InstructorName)
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		minutes int
		want    model.CertificateLevel
	}{
		{0, model.LevelBeginner},
		{120, model.LevelBeginner},
		{121, model.LevelIntermediate},
		{300, model.LevelIntermediate},
		{301, model.LevelAdvanced},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, service.LevelFor(tt.minutes), "minutes=%d", tt.minutes)
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m", service.FormatDuration(0))
	assert.Equal(t, "45m", service.FormatDuration(45))
	assert.Equal(t, "1h 0m", service.FormatDuration(60))
	assert.Equal(t, "2h 5m", service.FormatDuration(125))
}
