package service

import (
	"context"
	"fmt"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/util"
	"learnhire_backend/pkg/logger"
	"learnhire_backend/pkg/monitoring"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type PurchaseService struct {
	Purchases PurchaseStore
	Courses   CourseStore
	Users     UserStore
	Gateway   PaymentGateway
	Currency  string
	Now       func() time.Time
}

func NewPurchaseService(purchases PurchaseStore, courses CourseStore, users UserStore, gateway PaymentGateway, currency string) *PurchaseService {
	return &PurchaseService{
		Purchases: purchases,
		Courses:   courses,
		Users:     users,
		Gateway:   gateway,
		Currency:  currency,
		Now:       time.Now,
	}
}

// Checkout 创建待支付订单并返回支付页地址
func (s *PurchaseService) Checkout(ctx context.Context, userID model.UserID, courseID primitive.ObjectID, origin string) (string, error) {
	course, err := s.Courses.FindByID(ctx, courseID)
	if err != nil {
		return "", err
	}
	if course == nil || !course.IsPublished {
		return "", util.NotFoundErr("Course")
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", util.NotFoundErr("User")
	}
	if user.IsEnrolled(courseID) {
		return "", util.ConflictErr("Already enrolled in this course")
	}

	purchase := &model.Purchase{
		CourseID: courseID.Hex(),
		UserID:   userID,
		Amount:   course.EffectivePrice(),
		Currency: s.Currency,
		Status:   model.PurchasePending,
	}
	if err := s.Purchases.Create(ctx, purchase); err != nil {
		return "", fmt.Errorf("create purchase: %w", err)
	}

	origin = strings.TrimSuffix(origin, "/")
	session, err := s.Gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		PurchaseID:  purchase.ID,
		CourseTitle: course.CourseTitle,
		Amount:      purchase.Amount,
		Currency:    s.Currency,
		Email:       user.Email,
		SuccessURL:  origin + "/loading/my-enrollments",
		CancelURL:   origin + "/",
	})
	if err != nil {
		return "", util.WrapProvider("payment", err)
	}
	if err := s.Purchases.SetSessionID(ctx, purchase.ID, session.ID); err != nil {
		logger.Log.Warn("store payment session id failed", zap.String("purchase", purchase.ID), zap.Error(err))
	}
	return session.URL, nil
}

// HandleWebhook 验签后按事件类型迁移订单状态；未知事件忽略
func (s *PurchaseService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.Gateway.ParseEvent(payload, signature)
	if err != nil {
		monitoring.WebhookEvents.WithLabelValues("stripe", "unknown", "rejected").Inc()
		return util.NewValidationError("invalid webhook: " + err.Error())
	}

	switch event.Type {
	case PaymentSessionCompleted:
		err = s.CompletePurchase(ctx, event.PurchaseID)
	case PaymentSessionExpired, PaymentIntentFailed:
		err = s.FailPurchase(ctx, event.PurchaseID)
	default:
		logger.Log.Debug("ignoring payment event", zap.String("type", string(event.Type)))
		monitoring.WebhookEvents.WithLabelValues("stripe", string(event.Type), "ignored").Inc()
		return nil
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		logger.Log.Error("payment webhook failed",
			zap.String("event", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("purchase", event.PurchaseID),
			zap.Error(err))
	}
	monitoring.WebhookEvents.WithLabelValues("stripe", string(event.Type), outcome).Inc()
	return err
}

// CompletePurchase 幂等：已完成的订单直接返回
//
// 选课使用集合语义（$addToSet），先于状态迁移执行；两步之间失败时重投递会重新执行两步，
// 结果仍只有一条选课记录。
func (s *PurchaseService) CompletePurchase(ctx context.Context, purchaseID string) error {
	if purchaseID == "" {
		return util.MissingFields("purchaseId")
	}
	purchase, err := s.Purchases.FindByID(ctx, purchaseID)
	if err != nil {
		return err
	}
	if purchase == nil {
		return util.NotFoundErr("Purchase")
	}
	if purchase.IsCompleted() {
		return nil
	}

	courseID, err := primitive.ObjectIDFromHex(purchase.CourseID)
	if err != nil {
		return fmt.Errorf("purchase %s has invalid course id: %w", purchase.ID, err)
	}
	if err := s.Users.AddEnrolledCourse(ctx, purchase.UserID, courseID); err != nil {
		return fmt.Errorf("enroll user: %w", err)
	}
	if err := s.Courses.AddEnrolledStudent(ctx, courseID, purchase.UserID); err != nil {
		return fmt.Errorf("enroll student: %w", err)
	}

	changed, err := s.Purchases.MarkCompleted(ctx, purchase.ID, s.Now())
	if err != nil {
		return fmt.Errorf("complete purchase: %w", err)
	}
	if changed {
		monitoring.PurchasesCompleted.Inc()
		logger.Log.Info("purchase completed",
			zap.String("purchase", purchase.ID),
			zap.String("user", purchase.UserID.String()),
			zap.String("course", purchase.CourseID))
	}
	return nil
}

func (s *PurchaseService) FailPurchase(ctx context.Context, purchaseID string) error {
	if purchaseID == "" {
		return util.MissingFields("purchaseId")
	}
	purchase, err := s.Purchases.FindByID(ctx, purchaseID)
	if err != nil {
		return err
	}
	if purchase == nil {
		return util.NotFoundErr("Purchase")
	}
	_, err = s.Purchases.MarkFailed(ctx, purchase.ID)
	return err
}
