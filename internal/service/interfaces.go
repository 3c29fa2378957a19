package service

import (
	"context"
	"io"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/util"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 存储层接口，查找不到时返回 nil, nil

type UserStore interface {
	FindByID(ctx context.Context, id model.UserID) (*model.User, error)
	FindByIDs(ctx context.Context, ids []model.UserID) ([]model.User, error)
	Upsert(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id model.UserID) error
	AddEnrolledCourse(ctx context.Context, userID model.UserID, courseID primitive.ObjectID) error
	ToggleSavedJob(ctx context.Context, userID model.UserID, jobID primitive.ObjectID) (bool, error)
	RemoveSavedJob(ctx context.Context, jobID primitive.ObjectID) error
	SetResume(ctx context.Context, userID model.UserID, url string) (string, error)
}

type CourseStore interface {
	Create(ctx context.Context, course *model.Course) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Course, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Course, error)
	List(ctx context.Context, f model.CourseFilter) ([]model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddEnrolledStudent(ctx context.Context, courseID primitive.ObjectID, userID model.UserID) error
	UpsertRating(ctx context.Context, courseID primitive.ObjectID, userID model.UserID, rating int) error
}

type ProgressStore interface {
	Find(ctx context.Context, userID model.UserID, courseID primitive.ObjectID) (*model.CourseProgress, error)
	AddLecture(ctx context.Context, userID model.UserID, courseID primitive.ObjectID, lectureID string) (bool, error)
}

type JobStore interface {
	Create(ctx context.Context, job *model.Job) error
	InsertFromFeed(ctx context.Context, job *model.Job) (bool, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Job, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Job, error)
	List(ctx context.Context, f model.JobFilter) ([]model.Job, error)
	Update(ctx context.Context, job *model.Job) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddApplication(ctx context.Context, jobID, applicationID primitive.ObjectID) error
}

type ApplicationStore interface {
	Create(ctx context.Context, app *model.Application) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Application, error)
	FindByApplicant(ctx context.Context, userID model.UserID) ([]model.Application, error)
	FindByJobs(ctx context.Context, jobIDs []primitive.ObjectID) ([]model.Application, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.ApplicationStatus) error
	DeleteByJob(ctx context.Context, jobID primitive.ObjectID) error
}

type PurchaseStore interface {
	Create(ctx context.Context, p *model.Purchase) error
	FindByID(ctx context.Context, id string) (*model.Purchase, error)
	SetSessionID(ctx context.Context, id, sessionID string) error
	MarkCompleted(ctx context.Context, id string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id string) (bool, error)
	FindCompletedByCourses(ctx context.Context, courseIDs []string) ([]model.Purchase, error)
	SumCompletedByCourses(ctx context.Context, courseIDs []string) (float64, error)
}

// 外部协作方

// StorageProvider 定义通用存储接口
type StorageProvider interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, filename string) error
	GetURL(filename string) string
}

// PaymentEventType 支付回调事件类型
type PaymentEventType string

const (
	PaymentSessionCompleted PaymentEventType = "checkout.session.completed"
	PaymentSessionExpired   PaymentEventType = "checkout.session.expired"
	PaymentIntentFailed     PaymentEventType = "payment_intent.payment_failed"
)

// PaymentEvent 已验签的支付回调
type PaymentEvent struct {
	ID         string
	Type       PaymentEventType
	PurchaseID string
}

type CheckoutRequest struct {
	PurchaseID  string
	CourseTitle string
	Amount      float64
	Currency    string
	Email       string
	SuccessURL  string
	CancelURL   string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseEvent(payload []byte, signature string) (*PaymentEvent, error)
}

// IdentityProvider 身份服务：令牌校验与角色写回
type IdentityProvider interface {
	VerifyToken(ctx context.Context, token string) (*util.Claims, error)
	SetRole(ctx context.Context, userID model.UserID, role model.UserRole) error
	FetchUser(ctx context.Context, userID model.UserID) (*model.User, error)
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompleter interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// ChatHistory 按会话隔离、有上限、可过期的对话记录
type ChatHistory interface {
	Load(ctx context.Context, sessionID string) ([]ChatMessage, error)
	Append(ctx context.Context, sessionID string, msgs ...ChatMessage) error
	Clear(ctx context.Context, sessionID string) error
}

type Mailer interface {
	Send(ctx context.Context, to, toName, subject, text, html string) error
}
