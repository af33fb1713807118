package types

import (
	"mobile-banking-core/internal/common/enum"
	"time"
)

// Queues the core publishes to and the history worker consumes.
const (
	QueuePaymentFinished = "payment.finished"
	QueueKycDecided      = "kyc.decided"
)

type PaymentFinishedEvent struct {
	FlowID         string                `json:"flowId"`
	IntentID       string                `json:"intentId,omitempty"`
	Kind           enum.PaymentKindEnum  `json:"kind"`
	Stage          enum.PaymentStageEnum `json:"stage"`
	IdempotencyKey string                `json:"idempotencyKey"`
	Amount         Money                 `json:"amount"`
	Error          string                `json:"error,omitempty"`
	StartedAt      time.Time             `json:"startedAt"`
	FinishedAt     time.Time             `json:"finishedAt"`
}

type KycDecidedEvent struct {
	SessionID      string                 `json:"sessionId"`
	CaseID         string                 `json:"caseId"`
	Status         enum.KycCaseStatusEnum `json:"status"`
	DecisionReason *string                `json:"decisionReason,omitempty"`
	Checks         any                    `json:"checks,omitempty"`
	DecidedAt      time.Time              `json:"decidedAt"`
}
