package service_test

import (
	"errors"
	"testing"

	"learnhire_backend/internal/model"
	"learnhire_backend/internal/service"
	"learnhire_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(f *fixture) *service.UserService {
	return service.NewUserService(f.users, f.identity, f.storage)
}

func pdfUpload() *util.Upload {
	data := []byte("%PDF-1.4\n%fake resume\n")
	return &util.Upload{Name: "resume.pdf", ContentType: util.MimePDF, Size: int64(len(data)), Data: data}
}

func TestGetProfile_SyncsFromIdentityProvider(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	const newcomer model.UserID = "user_newcomer"
	f.identity.Remote[newcomer] = &model.User{ID: newcomer, Name: "New Comer", Email: "new@example.com"}

	user, err := svc.GetProfile(testCtx, newcomer)
	require.NoError(t, err)
	assert.Equal(t, "New Comer", user.Name)

	stored, err := f.users.FindByID(testCtx, newcomer)
	require.NoError(t, err)
	require.NotNil(t, stored, "profile persisted locally")

	_, err = svc.GetProfile(testCtx, "user_unknown")
	assert.True(t, isNotFound(err))

	f.identity.Err = errors.New("identity api down")
	_, err = svc.GetProfile(testCtx, "user_unknown")
	var perr *util.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "identity", perr.Provider)
}

func TestSyncAndRemoveIdentity(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)

	assert.True(t, isValidation(svc.SyncIdentity(testCtx, &model.User{Name: "No id"})))

	require.NoError(t, svc.SyncIdentity(testCtx, &model.User{ID: studentID, Name: "Samuel Student", Email: "sam@example.com"}))
	user, err := f.users.FindByID(testCtx, studentID)
	require.NoError(t, err)
	assert.Equal(t, "Samuel Student", user.Name)

	require.NoError(t, svc.RemoveIdentity(testCtx, studentID))
	user, err = f.users.FindByID(testCtx, studentID)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestPromoteToEducator(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)

	require.NoError(t, svc.PromoteToEducator(testCtx, studentID))
	assert.Equal(t, model.Educator, f.identity.Roles[studentID])

	f.identity.Err = errors.New("rate limited")
	err := svc.PromoteToEducator(testCtx, otherID)
	var perr *util.ProviderError
	assert.ErrorAs(t, err, &perr)
}

func TestResumeLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)

	_, err := svc.GetResume(testCtx, studentID)
	assert.True(t, isNotFound(err))
	assert.True(t, isNotFound(svc.DeleteResume(testCtx, studentID)))

	first, err := svc.UploadResume(testCtx, studentID, pdfUpload())
	require.NoError(t, err)
	second, err := svc.UploadResume(testCtx, studentID, pdfUpload())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, f.files.Count(), "replaced resume is removed from storage")

	url, err := svc.GetResume(testCtx, studentID)
	require.NoError(t, err)
	assert.Equal(t, second, url)

	require.NoError(t, svc.DeleteResume(testCtx, studentID))
	assert.Equal(t, 0, f.files.Count())
	_, err = svc.GetResume(testCtx, studentID)
	assert.True(t, isNotFound(err))
}

func TestUploadResume_Rejections(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)

	_, err := svc.UploadResume(testCtx, studentID, nil)
	assert.True(t, isValidation(err))

	_, err = svc.UploadResume(testCtx, studentID, imageUpload())
	assert.True(t, isValidation(err), "only PDF resumes are accepted")

	_, err = svc.UploadResume(testCtx, "user_ghost", pdfUpload())
	assert.True(t, isNotFound(err))
	assert.Equal(t, 0, f.files.Count())
}
