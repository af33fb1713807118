package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentAttempt is the history row written once a payment flow settles.
type PaymentAttempt struct {
	ID             string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	FlowID         string     `json:"flow_id" gorm:"type:varchar(64);index;not null"`
	IntentID       string     `json:"intent_id" gorm:"type:varchar(100);index"`
	Kind           string     `json:"kind" gorm:"type:varchar(20);not null"`
	IdempotencyKey string     `json:"idempotency_key" gorm:"type:varchar(64);uniqueIndex;not null"`
	AmountValue    string     `json:"amount_value" gorm:"type:numeric(18,2);not null"`
	Currency       string     `json:"currency" gorm:"type:varchar(3);not null"`
	Stage          string     `json:"stage" gorm:"type:varchar(20);not null;index"`
	Error          string     `json:"error" gorm:"type:text"`
	Details        JSONB      `json:"details"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	FinishedAt     *time.Time `json:"finished_at"`
}

func (PaymentAttempt) TableName() string {
	return "payment_attempts"
}

func (m *PaymentAttempt) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
