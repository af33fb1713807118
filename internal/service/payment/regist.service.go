package payment

import (
	"context"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/rabbitmq"
	"sync"
)

type Service struct {
	ctx             context.Context
	backend         Backend
	schedule        PollSchedule
	journal         KeyJournal
	snapshots       SnapshotStore
	publisher       rabbitmq.IPublisher
	defaultCurrency string

	mu    sync.RWMutex
	flows map[string]*Flow
}

type IService interface {
	CreateFlow() *types.Response
	GetFlow(id string) *types.Response
	StartQr(id string, req *QrPaymentRequest, a Attempt) *types.Response
	StartReload(id string, req *ReloadPaymentRequest, a Attempt) *types.Response
	StartBill(id string, req *BillPaymentRequest, a Attempt) *types.Response
	Retry(id string) *types.Response
	ConsumeAction(id string) *types.Response
	DeleteFlow(id string) *types.Response
	Close()
}

type Options struct {
	Backend         Backend
	Schedule        PollSchedule
	Journal         KeyJournal
	Snapshots       SnapshotStore
	Publisher       rabbitmq.IPublisher
	DefaultCurrency string
}

func NewService(ctx context.Context, opts Options) IService {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "LKR"
	}
	return &Service{
		ctx:             ctx,
		backend:         opts.Backend,
		schedule:        opts.Schedule,
		journal:         opts.Journal,
		snapshots:       opts.Snapshots,
		publisher:       opts.Publisher,
		defaultCurrency: opts.DefaultCurrency,
		flows:           map[string]*Flow{},
	}
}

// Request DTOs

type AmountRequest struct {
	Value    string `json:"value" binding:"required,money"`
	Currency string `json:"currency" binding:"omitempty,currency"`
}

type QrPaymentRequest struct {
	Amount     AmountRequest `json:"amount" binding:"required"`
	QrPayload  string        `json:"qrPayload" binding:"required"`
	MerchantID string        `json:"merchantId"`
}

type ReloadPaymentRequest struct {
	Amount   AmountRequest `json:"amount" binding:"required"`
	Msisdn   string        `json:"msisdn" binding:"required,msisdn"`
	Operator string        `json:"operator"`
}

type BillPaymentRequest struct {
	Amount        AmountRequest `json:"amount" binding:"required"`
	BillerCode    string        `json:"billerCode" binding:"required"`
	AccountNumber string        `json:"accountNumber" binding:"required"`
}

// FlowView is what the shell receives for a flow.
type FlowView struct {
	ID    string `json:"id"`
	State State  `json:"state"`
}
