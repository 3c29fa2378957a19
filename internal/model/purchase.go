package model

import (
	"time"

	"gorm.io/gorm"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
)

// Purchase 支付流水，存放在关系库
type Purchase struct {
	ID               string         `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	CourseID         string         `gorm:"type:varchar(24);index;not null" json:"courseId"`
	UserID           UserID         `gorm:"type:varchar(64);index;not null" json:"userId"`
	Amount           float64        `gorm:"not null" json:"amount"`
	Currency         string         `gorm:"type:varchar(8)" json:"currency"`
	Status           PurchaseStatus `gorm:"type:varchar(16);index;default:'pending'" json:"status"`
	PaymentSessionID string         `gorm:"type:varchar(255)" json:"paymentSessionId,omitempty"`
	CompletedAt      *time.Time     `json:"completedAt,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func (Purchase) TableName() string {
	return "purchases"
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = GenerateUUID()
	}
	if p.Status == "" {
		p.Status = PurchasePending
	}
	return
}

func (p *Purchase) IsCompleted() bool {
	return p.Status == PurchaseCompleted
}
