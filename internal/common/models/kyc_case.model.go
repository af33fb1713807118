package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KycCase records the decision the backend reached for a KYC submission.
type KycCase struct {
	ID             string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	CaseID         string     `json:"case_id" gorm:"type:varchar(100);uniqueIndex;not null"`
	SessionID      string     `json:"session_id" gorm:"type:varchar(64);index"`
	Status         string     `json:"status" gorm:"type:varchar(30);not null;index"`
	DecisionReason string     `json:"decision_reason" gorm:"type:text"`
	Checks         JSONB      `json:"checks"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	DecidedAt      *time.Time `json:"decided_at"`
}

func (KycCase) TableName() string {
	return "kyc_cases"
}

func (m *KycCase) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
