package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"learnhire_backend/internal/config"
	"learnhire_backend/internal/controller"
	"learnhire_backend/internal/middleware"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/repository"
	"learnhire_backend/internal/service"
	"learnhire_backend/internal/testutil"
	"learnhire_backend/internal/util"
	"learnhire_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	studentToken  = "student-token"
	educatorToken = "educator-token"
	otherToken    = "other-educator-token"

	studentID  model.UserID = "user_student0042"
	educatorID model.UserID = "user_educator01"
	otherID    model.UserID = "user_other0007"
)

type server struct {
	router   *gin.Engine
	users    *testutil.UserStore
	courses  *testutil.CourseStore
	jobs     *testutil.JobStore
	gateway  *testutil.Gateway
	ai       *testutil.Completer
	identity *testutil.Identity
	events   *identityEvents
}

// identityEvents 身份回调替身：签名头 svix-signature 等于 "ok" 即通过
type identityEvents struct {
	next *service.IdentityEvent
}

func (e *identityEvents) ParseWebhook(header http.Header, payload []byte) (*service.IdentityEvent, error) {
	if header.Get("svix-signature") != "ok" {
		return nil, util.NewValidationError("invalid webhook signature")
	}
	return e.next, nil
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.InitDB(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, false)
	require.NoError(t, err)

	s := &server{
		users: testutil.NewUserStore(
			&model.User{ID: studentID, Name: "Sam Student", Email: "sam@example.com"},
			&model.User{ID: educatorID, Name: "Ada Educator", Email: "ada@example.com"},
			&model.User{ID: otherID, Name: "Olive Other", Email: "olive@example.com"},
		),
		courses:  testutil.NewCourseStore(),
		jobs:     testutil.NewJobStore(),
		gateway:  &testutil.Gateway{},
		ai:       &testutil.Completer{Reply: "Hello *there*"},
		identity: testutil.NewIdentity(),
		events:   &identityEvents{},
	}
	s.identity.AddToken(studentToken, studentID, "")
	s.identity.AddToken(educatorToken, educatorID, model.Educator)
	s.identity.AddToken(otherToken, otherID, model.Educator)

	apps := testutil.NewApplicationStore()
	storage := &service.StorageService{Provider: testutil.NewStorageProvider()}
	purchases := repository.NewPurchaseRepository(db)

	userSvc := service.NewUserService(s.users, s.identity, storage)
	courseSvc := service.NewCourseService(s.courses, s.users, storage)
	progressSvc := service.NewProgressService(s.courses, testutil.NewProgressStore(), s.users, "https://learnhire.example.com")
	purchaseSvc := service.NewPurchaseService(purchases, s.courses, s.users, s.gateway, "usd")
	jobSvc := service.NewJobService(s.jobs, s.users, apps, storage)
	appSvc := service.NewApplicationService(apps, s.jobs, s.users, service.NewNotificationService(&testutil.Mailer{}))
	chatSvc := service.NewChatService(s.ai, service.NewMemoryChatHistory(20, time.Hour))

	uc := controller.NewUserController(userSvc, courseSvc, progressSvc, purchaseSvc, jobSvc)
	ec := controller.NewEducatorController(userSvc, courseSvc, service.NewEducatorService(s.courses, purchases, s.users), jobSvc, appSvc)
	cc := controller.NewChatController(chatSvc)
	wc := controller.NewWebhookController(purchaseSvc, s.events, userSvc)
	jc := controller.NewJobController(jobSvc, nil)

	r := gin.New()
	auth := middleware.AuthMiddleware(s.identity)
	educatorOnly := middleware.RoleMiddleware(model.Educator)

	r.POST("/stripe", wc.Stripe)
	r.POST("/clerk", wc.Clerk)
	api := r.Group("/api")
	api.GET("/job/get", jc.ListJobs)
	api.GET("/job/fetch-jobs", auth, educatorOnly, jc.FetchJobs)

	user := api.Group("/user", auth)
	user.GET("/data", uc.GetUserData)
	user.POST("/purchase", uc.PurchaseCourse)
	user.POST("/update-course-progress", uc.UpdateCourseProgress)
	user.POST("/can-get-certificate", uc.CanGetCertificate)
	user.POST("/savedjob", uc.SaveJob)

	educator := api.Group("/educator", auth)
	educator.GET("/update-role", ec.UpdateRole)
	educator.POST("/add-course", educatorOnly, ec.AddCourse)
	educator.POST("/add-job", educatorOnly, ec.AddJob)
	educator.DELETE("/job/:jobId", educatorOnly, ec.DeleteJob)

	chat := api.Group("/chatboat", middleware.TryAuthMiddleware(s.identity))
	chat.POST("/chat", cc.SendMessage)

	s.router = r
	return s
}

type response struct {
	Code int
	Body map[string]interface{}
}

func (s *server) do(t *testing.T, req *http.Request, token string) response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return response{Code: w.Code, Body: body}
}

func (s *server) postJSON(t *testing.T, path, token string, payload interface{}) response {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req, token)
}

func (s *server) get(t *testing.T, path, token string) response {
	t.Helper()
	return s.do(t, httptest.NewRequest(http.MethodGet, path, nil), token)
}

func (s *server) addCourse(t *testing.T) *model.Course {
	t.Helper()
	course := &model.Course{
		CourseTitle: "Go for Backend Engineers",
		CoursePrice: 100,
		Discount:    20,
		IsPublished: true,
		Educator:    educatorID,
		CourseContent: model.Chapters{{ChapterID: "ch1", ChapterContent: model.Lectures{
			{LectureID: "l1", LectureDuration: 30},
			{LectureID: "l2", LectureDuration: 30},
		}}},
	}
	require.NoError(t, s.courses.Create(context.Background(), course))
	return course
}

func (s *server) enroll(t *testing.T, userID model.UserID, courseID primitive.ObjectID) {
	t.Helper()
	require.NoError(t, s.users.AddEnrolledCourse(context.Background(), userID, courseID))
	require.NoError(t, s.courses.AddEnrolledStudent(context.Background(), courseID, userID))
}

func TestAuthMiddleware(t *testing.T) {
	s := newServer(t)

	res := s.get(t, "/api/user/data", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, false, res.Body["success"])
	assert.Equal(t, "Unauthorized", res.Body["message"])

	res = s.get(t, "/api/user/data", "forged")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = s.get(t, "/api/user/data?token="+studentToken, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, true, res.Body["success"])
	user := res.Body["user"].(map[string]interface{})
	assert.Equal(t, "Sam Student", user["name"])
}

func TestRoleMiddleware(t *testing.T) {
	s := newServer(t)

	res := s.postJSON(t, "/api/educator/add-job", studentToken, map[string]string{})
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Unauthorized Access", res.Body["message"])

	res = s.get(t, "/api/job/fetch-jobs", studentToken)
	assert.Equal(t, http.StatusForbidden, res.Code)

	// 未配置职位源时返回 503
	res = s.get(t, "/api/job/fetch-jobs", educatorToken)
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)

	res = s.get(t, "/api/educator/update-role", studentToken)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, model.Educator, s.identity.Roles[studentID])
}

func TestBindJSON_ReportsMissingFields(t *testing.T) {
	s := newServer(t)

	res := s.postJSON(t, "/api/user/update-course-progress", studentToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	msg := res.Body["message"].(string)
	assert.Contains(t, msg, "courseId")
	assert.Contains(t, msg, "lectureId")

	res = s.postJSON(t, "/api/user/update-course-progress", studentToken,
		map[string]string{"courseId": "not-an-id", "lectureId": "l1"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "invalid courseId", res.Body["message"])
}

func TestProgressEndpoints(t *testing.T) {
	s := newServer(t)
	course := s.addCourse(t)
	s.enroll(t, studentID, course.ID)
	body := map[string]string{"courseId": course.ID.Hex(), "lectureId": "l1"}

	res := s.postJSON(t, "/api/user/update-course-progress", studentToken, body)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Progress Updated", res.Body["message"])

	res = s.postJSON(t, "/api/user/update-course-progress", studentToken, body)
	assert.Equal(t, "Lecture Already Completed", res.Body["message"])

	res = s.postJSON(t, "/api/user/can-get-certificate", studentToken, map[string]string{"courseId": course.ID.Hex()})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, false, res.Body["canGetCertificate"])
	progress := res.Body["progress"].(map[string]interface{})
	assert.EqualValues(t, 1, progress["completed"])
	assert.EqualValues(t, 2, progress["total"])
	assert.EqualValues(t, 50, progress["percentage"])

	res = s.postJSON(t, "/api/user/update-course-progress", otherToken, body)
	assert.Equal(t, http.StatusBadRequest, res.Code, "not enrolled")
}

func TestPurchaseAndStripeWebhook(t *testing.T) {
	s := newServer(t)
	course := s.addCourse(t)

	b, _ := json.Marshal(map[string]string{"courseId": course.ID.Hex()})
	req := httptest.NewRequest(http.MethodPost, "/api/user/purchase", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://app.example.com")
	res := s.do(t, req, studentToken)
	require.Equal(t, http.StatusOK, res.Code)
	assert.NotEmpty(t, res.Body["session_url"])
	require.Len(t, s.gateway.Requests, 1)
	purchaseID := s.gateway.Requests[0].PurchaseID

	payload := testutil.PaymentPayload("evt_1", service.PaymentSessionCompleted, purchaseID)
	webhook := func(sig string) response {
		req := httptest.NewRequest(http.MethodPost, "/stripe", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", sig)
		return s.do(t, req, "")
	}

	res = webhook("forged")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	for i := 0; i < 2; i++ {
		res = webhook(testutil.ValidSignature)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, true, res.Body["received"])
	}
	user, err := s.users.FindByID(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{course.ID}, user.EnrolledCourses)

	res = s.postJSON(t, "/api/user/purchase", studentToken, map[string]string{"courseId": course.ID.Hex()})
	assert.Equal(t, http.StatusConflict, res.Code)
}

func TestClerkWebhook(t *testing.T) {
	s := newServer(t)
	clerk := func(sig string) response {
		req := httptest.NewRequest(http.MethodPost, "/clerk", strings.NewReader(`{}`))
		req.Header.Set("svix-signature", sig)
		return s.do(t, req, "")
	}

	s.events.next = &service.IdentityEvent{Type: "user.created", User: &model.User{ID: "user_new", Name: "New User"}}
	res := clerk("ok")
	require.Equal(t, http.StatusOK, res.Code)
	u, err := s.users.FindByID(context.Background(), "user_new")
	require.NoError(t, err)
	require.NotNil(t, u)

	s.events.next = &service.IdentityEvent{Type: "user.deleted", User: &model.User{ID: "user_new"}}
	res = clerk("ok")
	require.Equal(t, http.StatusOK, res.Code)
	u, err = s.users.FindByID(context.Background(), "user_new")
	require.NoError(t, err)
	assert.Nil(t, u)

	res = clerk("bad")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestAddCourse_Multipart(t *testing.T) {
	s := newServer(t)
	courseData := `{"courseTitle":"Docker","courseDescription":"Containers","coursePrice":30,
		"courseContent":[{"chapterTitle":"Intro","chapterContent":[{"lectureTitle":"Why","lectureDuration":12}]}]}`
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

	body, ct := multipartBody(t, map[string]string{"courseData": courseData}, "image", "thumb.png", png)
	req := httptest.NewRequest(http.MethodPost, "/api/educator/add-course", body)
	req.Header.Set("Content-Type", ct)
	res := s.do(t, req, educatorToken)
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	assert.Equal(t, "Course Added", res.Body["message"])
	course := res.Body["course"].(map[string]interface{})
	assert.Equal(t, string(educatorID), course["educator"])

	body, ct = multipartBody(t, map[string]string{"courseData": courseData}, "", "", nil)
	req = httptest.NewRequest(http.MethodPost, "/api/educator/add-course", body)
	req.Header.Set("Content-Type", ct)
	res = s.do(t, req, educatorToken)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body["message"], "image")

	body, ct = multipartBody(t, map[string]string{"courseData": courseData}, "image", "thumb.txt", []byte("plain text"))
	req = httptest.NewRequest(http.MethodPost, "/api/educator/add-course", body)
	req.Header.Set("Content-Type", ct)
	res = s.do(t, req, educatorToken)
	assert.Equal(t, http.StatusBadRequest, res.Code, "non-image thumbnails are rejected")
}

func TestDeleteJob_NonOwnerGetsForbidden(t *testing.T) {
	s := newServer(t)
	jobData := `{"title":"Backend Engineer","description":"APIs","requirements":"Go, SQL","salary":50000,
		"experienceLevel":"2 years","location":"Remote","jobType":"FULL_TIME","position":1,"company":"Acme"}`
	body, ct := multipartBody(t, map[string]string{"jobData": jobData}, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/educator/add-job", body)
	req.Header.Set("Content-Type", ct)
	res := s.do(t, req, educatorToken)
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	jobID := res.Body["job"].(map[string]interface{})["_id"].(string)

	res = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/educator/job/"+jobID, nil), otherToken)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Job not found or unauthorized", res.Body["message"])

	res = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/educator/job/"+jobID, nil), educatorToken)
	assert.Equal(t, http.StatusOK, res.Code)

	res = s.get(t, "/api/job/get", "")
	assert.Empty(t, res.Body["jobs"])
}

func TestChat_GuestAndUserSessions(t *testing.T) {
	s := newServer(t)

	res := s.postJSON(t, "/api/chatboat/chat", "", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusBadRequest, res.Code, "guests need a session header")

	b, _ := json.Marshal(map[string]string{"message": "hi"})
	req := httptest.NewRequest(http.MethodPost, "/api/chatboat/chat", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "browser-1")
	res = s.do(t, req, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Hello there", res.Body["message"])

	res = s.postJSON(t, "/api/chatboat/chat", studentToken, map[string]string{"message": "hi again"})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, s.ai.LastCall(), 2, "user session does not see guest history")
}
