package history

import (
	"context"
	"encoding/json"
	"errors"
	"mobile-banking-core/internal/common/enum"
	"mobile-banking-core/internal/common/models"
	types "mobile-banking-core/internal/common/type"
	database "mobile-banking-core/internal/pkg/db"
	"mobile-banking-core/internal/repository"
	"net/http"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakePaymentRepo struct {
	saved     []*models.PaymentAttempt
	saveErr   error
	direction database.DirectionEnum
}

func (r *fakePaymentRepo) SaveAttempt(_ context.Context, a *models.PaymentAttempt) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, a)
	return nil
}

func (r *fakePaymentRepo) FindByIdempotencyKey(_ context.Context, key string) (*models.PaymentAttempt, error) {
	for _, a := range r.saved {
		if a.IdempotencyKey == key {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) FindByFlowID(_ context.Context, flowID string, direction database.DirectionEnum) ([]models.PaymentAttempt, error) {
	r.direction = direction
	var out []models.PaymentAttempt
	for _, a := range r.saved {
		if a.FlowID == flowID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeKycRepo struct {
	cases map[string]*models.KycCase
}

func (r *fakeKycRepo) SaveCase(_ context.Context, c *models.KycCase) error {
	r.cases[c.CaseID] = c
	return nil
}

func (r *fakeKycRepo) FindByCaseID(_ context.Context, caseID string) (*models.KycCase, error) {
	c, ok := r.cases[caseID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func newTestService() (IService, *fakePaymentRepo, *fakeKycRepo) {
	payments := &fakePaymentRepo{}
	cases := &fakeKycRepo{cases: map[string]*models.KycCase{}}
	svc := NewService(context.Background(), &repository.IRepository{Payment: payments, Kyc: cases})
	return svc, payments, cases
}

func delivery(t *testing.T, v any) *amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return &amqp.Delivery{Body: body, MessageId: "msg_1"}
}

func TestRecordPayment(t *testing.T) {
	svc, payments, _ := newTestService()
	finished := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := svc.RecordPayment(context.Background(), delivery(t, types.PaymentFinishedEvent{
		FlowID:         "flow-1",
		IntentID:       "abc123",
		Kind:           enum.PAYMENT_KIND_RELOAD,
		Stage:          enum.STAGE_SUCCEEDED,
		IdempotencyKey: "idem_1",
		Amount:         types.Money{Value: decimal.RequireFromString("500"), Currency: "LKR"},
		FinishedAt:     finished,
	}))
	require.NoError(t, err)

	require.Len(t, payments.saved, 1)
	a := payments.saved[0]
	assert.Equal(t, "flow-1", a.FlowID)
	assert.Equal(t, "abc123", a.IntentID)
	assert.Equal(t, "reload", a.Kind)
	assert.Equal(t, "SUCCEEDED", a.Stage)
	assert.Equal(t, "500.00", a.AmountValue)
	assert.Equal(t, "LKR", a.Currency)
	require.NotNil(t, a.FinishedAt)
	assert.True(t, finished.Equal(*a.FinishedAt))
	assert.Contains(t, string(a.Details), `"idempotencyKey":"idem_1"`)
}

func TestRecordPaymentDropsUnusableMessages(t *testing.T) {
	svc, payments, _ := newTestService()

	assert.NoError(t, svc.RecordPayment(context.Background(), &amqp.Delivery{Body: []byte("{not json")}))
	assert.NoError(t, svc.RecordPayment(context.Background(), delivery(t, types.PaymentFinishedEvent{FlowID: "f"})))
	assert.Empty(t, payments.saved)
}

func TestRecordPaymentSurfacesRepositoryErrors(t *testing.T) {
	svc, payments, _ := newTestService()
	payments.saveErr = errors.New("db down")

	err := svc.RecordPayment(context.Background(), delivery(t, types.PaymentFinishedEvent{FlowID: "f", IdempotencyKey: "k"}))
	assert.ErrorContains(t, err, "db down")
}

func TestRecordKycDecisionAndLookup(t *testing.T) {
	svc, _, cases := newTestService()
	reason := "document expired"

	err := svc.RecordKycDecision(context.Background(), delivery(t, types.KycDecidedEvent{
		SessionID:      "s1",
		CaseID:         "case-9",
		Status:         enum.KYC_CASE_REJECTED,
		DecisionReason: &reason,
		Checks:         []map[string]any{{"type": "LIVENESS", "score": 0.4}},
		DecidedAt:      time.Now(),
	}))
	require.NoError(t, err)

	require.Contains(t, cases.cases, "case-9")
	assert.Equal(t, "REJECTED", cases.cases["case-9"].Status)
	assert.Equal(t, reason, cases.cases["case-9"].DecisionReason)
	assert.Contains(t, string(cases.cases["case-9"].Checks), "LIVENESS")

	res := svc.KycCase("case-9")
	assert.Equal(t, http.StatusOK, res.Code)

	res = svc.KycCase("missing")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestPaymentAttemptsPassesDirection(t *testing.T) {
	svc, payments, _ := newTestService()
	payments.saved = []*models.PaymentAttempt{{FlowID: "f1"}, {FlowID: "f2"}}

	res := svc.PaymentAttempts("f1", "asc")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Data, 1)
	assert.Equal(t, database.ASC, payments.direction)
}

func TestPaymentAttemptByIdempotencyKey(t *testing.T) {
	svc, _, _ := newTestService()

	require.NoError(t, svc.RecordPayment(context.Background(), delivery(t, types.PaymentFinishedEvent{
		FlowID:         "flow-7",
		Stage:          enum.STAGE_FAILED,
		IdempotencyKey: "idem_7",
		Amount:         types.Money{Value: decimal.RequireFromString("25"), Currency: "LKR"},
	})))

	res := svc.PaymentAttempt("idem_7")
	assert.Equal(t, http.StatusOK, res.Code)
	attempt, ok := res.Data.(*models.PaymentAttempt)
	require.True(t, ok)
	assert.Equal(t, "flow-7", attempt.FlowID)
	assert.Equal(t, "FAILED", attempt.Stage)

	res = svc.PaymentAttempt("idem_unknown")
	assert.Equal(t, http.StatusNotFound, res.Code)
}
