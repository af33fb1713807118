package history

import (
	"context"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/repository"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Service struct {
	ctx context.Context
	rp  *repository.IRepository
}

type IService interface {
	RecordPayment(ctx context.Context, msg *amqp.Delivery) error
	RecordKycDecision(ctx context.Context, msg *amqp.Delivery) error
	PaymentAttempts(flowID string, direction string) *types.Response
	PaymentAttempt(idempotencyKey string) *types.Response
	KycCase(caseID string) *types.Response
}

func NewService(ctx context.Context, rp *repository.IRepository) IService {
	return &Service{
		ctx: ctx,
		rp:  rp,
	}
}
