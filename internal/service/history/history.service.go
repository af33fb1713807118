package history

import (
	"context"
	"errors"
	"fmt"
	"mobile-banking-core/internal/common/models"
	types "mobile-banking-core/internal/common/type"
	database "mobile-banking-core/internal/pkg/db"
	"mobile-banking-core/internal/pkg/helper"
	"mobile-banking-core/internal/pkg/logger"
	"mobile-banking-core/internal/pkg/rabbitmq"
	"net/http"

	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"
)

// RecordPayment persists a payment.finished event.
func (s *Service) RecordPayment(ctx context.Context, msg *amqp.Delivery) error {
	event, err := rabbitmq.Decode[types.PaymentFinishedEvent](msg)
	if err != nil {
		logger.Error.Printf("dropping malformed %s message %s: %v", types.QueuePaymentFinished, msg.MessageId, err)
		return nil
	}
	if event.IdempotencyKey == "" {
		logger.Warning.Printf("dropping %s event for flow %s without idempotency key", types.QueuePaymentFinished, event.FlowID)
		return nil
	}

	finished := event.FinishedAt
	attempt := &models.PaymentAttempt{
		FlowID:         event.FlowID,
		IntentID:       event.IntentID,
		Kind:           event.Kind.ToString(),
		IdempotencyKey: event.IdempotencyKey,
		AmountValue:    event.Amount.Value.StringFixed(2),
		Currency:       event.Amount.Currency,
		Stage:          event.Stage.ToString(),
		Error:          event.Error,
		Details:        models.ToJSONB(event),
		FinishedAt:     &finished,
	}

	if err := s.rp.Payment.SaveAttempt(ctx, attempt); err != nil {
		return fmt.Errorf("save payment attempt %s: %w", event.IdempotencyKey, err)
	}
	logger.Info.Printf("payment attempt %s recorded as %s", event.IdempotencyKey, event.Stage)
	return nil
}

// RecordKycDecision persists a kyc.decided event.
func (s *Service) RecordKycDecision(ctx context.Context, msg *amqp.Delivery) error {
	event, err := rabbitmq.Decode[types.KycDecidedEvent](msg)
	if err != nil {
		logger.Error.Printf("dropping malformed %s message %s: %v", types.QueueKycDecided, msg.MessageId, err)
		return nil
	}
	if event.CaseID == "" {
		logger.Warning.Printf("dropping %s event for session %s without case id", types.QueueKycDecided, event.SessionID)
		return nil
	}

	decided := event.DecidedAt
	kycCase := &models.KycCase{
		CaseID:    event.CaseID,
		SessionID: event.SessionID,
		Status:    event.Status.ToString(),
		Checks:    models.ToJSONB(event.Checks),
		DecidedAt: &decided,
	}
	if event.DecisionReason != nil {
		kycCase.DecisionReason = *event.DecisionReason
	}

	if err := s.rp.Kyc.SaveCase(ctx, kycCase); err != nil {
		return fmt.Errorf("save kyc case %s: %w", event.CaseID, err)
	}
	logger.Info.Printf("kyc case %s recorded as %s", event.CaseID, event.Status)
	return nil
}

func (s *Service) PaymentAttempts(flowID string, direction string) *types.Response {
	attempts, err := s.rp.Payment.FindByFlowID(s.ctx, flowID, database.DirectionEnum(direction))
	if err != nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusInternalServerError,
			Message: "failed to load payment history",
			Error:   err,
		})
	}

	return helper.ParseResponse(&types.Response{
		Code: http.StatusOK,
		Data: attempts,
	})
}

// PaymentAttempt looks up one attempt by the idempotency key the flow sent.
func (s *Service) PaymentAttempt(idempotencyKey string) *types.Response {
	attempt, err := s.rp.Payment.FindByIdempotencyKey(s.ctx, idempotencyKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusNotFound,
			Message: "payment attempt not found",
		})
	}
	if err != nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusInternalServerError,
			Message: "failed to load payment attempt",
			Error:   err,
		})
	}

	return helper.ParseResponse(&types.Response{
		Code: http.StatusOK,
		Data: attempt,
	})
}

func (s *Service) KycCase(caseID string) *types.Response {
	kycCase, err := s.rp.Kyc.FindByCaseID(s.ctx, caseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusNotFound,
			Message: "kyc case not found",
		})
	}
	if err != nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusInternalServerError,
			Message: "failed to load kyc case",
			Error:   err,
		})
	}

	return helper.ParseResponse(&types.Response{
		Code: http.StatusOK,
		Data: kycCase,
	})
}
