package backend

import (
	"context"
	"errors"
	"fmt"
	"mobile-banking-core/internal/common/enum"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/helper"
	"net/http"
	"net/url"
)

// IdempotencyHeader lets the backend deduplicate retried creation calls.
const IdempotencyHeader = "Idempotency-Key"

// Intent is the server-owned payment intent snapshot.
type Intent struct {
	IntentID             string                `json:"intentId"`
	Status               enum.IntentStatusEnum `json:"status"`
	Amount               types.Money           `json:"amount"`
	Description          *string               `json:"description,omitempty"`
	ReturnURL            *string               `json:"returnUrl,omitempty"`
	ProviderClientSecret *string               `json:"providerClientSecret,omitempty"`
}

type QrPaymentRequest struct {
	Amount     types.Money `json:"amount"`
	QrPayload  string      `json:"qrPayload"`
	MerchantID string      `json:"merchantId,omitempty"`
}

type ReloadPaymentRequest struct {
	Amount   types.Money `json:"amount"`
	Msisdn   string      `json:"msisdn"`
	Operator string      `json:"operator,omitempty"`
}

type BillPaymentRequest struct {
	Amount        types.Money `json:"amount"`
	BillerCode    string      `json:"billerCode"`
	AccountNumber string      `json:"accountNumber"`
}

func (c *Client) createIntent(ctx context.Context, kind enum.PaymentKindEnum, idempotencyKey string, body any) (*Intent, error) {
	if idempotencyKey == "" {
		return nil, errors.New("idempotency key is required")
	}
	var out Intent
	err := c.do(ctx, call{
		method:  helper.POST,
		path:    "/payments/" + kind.ToString(),
		body:    body,
		headers: http.Header{IdempotencyHeader: []string{idempotencyKey}},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("create %s payment: %w", kind, err)
	}
	if out.IntentID == "" {
		return nil, fmt.Errorf("create %s payment: empty intent id", kind)
	}
	return &out, nil
}

func (c *Client) CreateQrPayment(ctx context.Context, idempotencyKey string, req QrPaymentRequest) (*Intent, error) {
	return c.createIntent(ctx, enum.PAYMENT_KIND_QR, idempotencyKey, req)
}

func (c *Client) CreateReloadPayment(ctx context.Context, idempotencyKey string, req ReloadPaymentRequest) (*Intent, error) {
	return c.createIntent(ctx, enum.PAYMENT_KIND_RELOAD, idempotencyKey, req)
}

func (c *Client) CreateBillPayment(ctx context.Context, idempotencyKey string, req BillPaymentRequest) (*Intent, error) {
	return c.createIntent(ctx, enum.PAYMENT_KIND_BILL, idempotencyKey, req)
}

func (c *Client) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	var out Intent
	if err := c.do(ctx, call{method: helper.GET, path: "/payments/" + url.PathEscape(intentID)}, &out); err != nil {
		return nil, fmt.Errorf("fetch payment %s: %w", intentID, err)
	}
	return &out, nil
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
