package repository

import (
	"context"
	"errors"
	"learnhire_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

// PurchaseRepository 购买流水，状态迁移均为条件更新
type PurchaseRepository struct {
	DB *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{DB: db}
}

func (r *PurchaseRepository) Create(ctx context.Context, p *model.Purchase) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *PurchaseRepository) FindByID(ctx context.Context, id string) (*model.Purchase, error) {
	var p model.Purchase
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PurchaseRepository) SetSessionID(ctx context.Context, id, sessionID string) error {
	return r.DB.WithContext(ctx).Model(&model.Purchase{}).
		Where("id = ?", id).
		Update("payment_session_id", sessionID).Error
}

// MarkCompleted 仅当尚未完成时更新，返回本次是否发生迁移
func (r *PurchaseRepository) MarkCompleted(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Purchase{}).
		Where("id = ? AND status <> ?", id, model.PurchaseCompleted).
		Updates(map[string]interface{}{
			"status":       model.PurchaseCompleted,
			"completed_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkFailed 只有 pending 可以失败
func (r *PurchaseRepository) MarkFailed(ctx context.Context, id string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Purchase{}).
		Where("id = ? AND status = ?", id, model.PurchasePending).
		Update("status", model.PurchaseFailed)
	return res.RowsAffected > 0, res.Error
}

func (r *PurchaseRepository) FindCompletedByCourses(ctx context.Context, courseIDs []string) ([]model.Purchase, error) {
	purchases := []model.Purchase{}
	if len(courseIDs) == 0 {
		return purchases, nil
	}
	err := r.DB.WithContext(ctx).
		Where("course_id IN ? AND status = ?", courseIDs, model.PurchaseCompleted).
		Order("completed_at DESC").
		Find(&purchases).Error
	return purchases, err
}

// SumCompletedByCourses 已完成订单总额
func (r *PurchaseRepository) SumCompletedByCourses(ctx context.Context, courseIDs []string) (float64, error) {
	if len(courseIDs) == 0 {
		return 0, nil
	}
	var total float64
	err := r.DB.WithContext(ctx).Model(&model.Purchase{}).
		Where("course_id IN ? AND status = ?", courseIDs, model.PurchaseCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
