package payment

import (
	"mobile-banking-core/internal/common/enum"
	"mobile-banking-core/internal/pkg/backend"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, w *fakeWallet, snapshots SnapshotStore) IService {
	svc := NewService(t.Context(), Options{Backend: w, Snapshots: snapshots})
	t.Cleanup(svc.Close)
	return svc
}

func createFlow(t *testing.T, svc IService) string {
	res := svc.CreateFlow()
	require.Equal(t, http.StatusCreated, res.Code)
	view := res.Data.(FlowView)
	assert.Equal(t, enum.STAGE_IDLE, view.State.Stage)
	return view.ID
}

func TestService_StartReload(t *testing.T) {
	w := &fakeWallet{
		block:   make(chan struct{}),
		created: backend.Intent{IntentID: "abc123", Status: enum.INTENT_SUCCESS},
	}
	svc := newTestService(t, w, nil)
	id := createFlow(t, svc)
	req := &ReloadPaymentRequest{Amount: AmountRequest{Value: "500.00"}, Msisdn: "0771234567"}

	res := svc.StartReload(id, req, Attempt{IdempotencyKey: "k1"})
	require.Equal(t, http.StatusAccepted, res.Code)
	assert.Equal(t, enum.STAGE_CREATING, res.Data.(FlowView).State.Stage)

	res = svc.StartReload(id, req, Attempt{})
	assert.Equal(t, http.StatusConflict, res.Code)

	close(w.block)
	assert.Eventually(t, func() bool {
		return svc.GetFlow(id).Data.(FlowView).State.Stage == enum.STAGE_SUCCEEDED
	}, time2s, tick)

	require.NotNil(t, w.lastReload)
	assert.Equal(t, "LKR", w.lastReload.Amount.Currency)
	assert.Equal(t, "500.00", w.lastReload.Amount.Value.StringFixed(2))
	assert.Equal(t, []string{"k1"}, w.keys())
}

func TestService_InvalidAmountAndUnknownFlow(t *testing.T) {
	svc := newTestService(t, &fakeWallet{}, nil)
	id := createFlow(t, svc)

	res := svc.StartQr(id, &QrPaymentRequest{Amount: AmountRequest{Value: "abc"}, QrPayload: "qr"}, Attempt{})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = svc.StartBill(id, &BillPaymentRequest{Amount: AmountRequest{Value: "1", Currency: "XXXX"}, BillerCode: "b", AccountNumber: "a"}, Attempt{})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	assert.Equal(t, http.StatusNotFound, svc.GetFlow("nope").Code)
	assert.Equal(t, http.StatusNotFound, svc.Retry("nope").Code)
	assert.Equal(t, http.StatusNotFound, svc.DeleteFlow("nope").Code)
	assert.Equal(t, http.StatusNotFound, svc.ConsumeAction(id).Code)
	assert.Equal(t, http.StatusConflict, svc.Retry(id).Code)
}

func TestService_DeletedFlowReadableFromSnapshot(t *testing.T) {
	w := &fakeWallet{created: backend.Intent{IntentID: "i-9", Status: enum.INTENT_SUCCESS}}
	svc := newTestService(t, w, NewRedisSnapshotStore(newMemRedis()))
	id := createFlow(t, svc)

	res := svc.StartQr(id, &QrPaymentRequest{Amount: AmountRequest{Value: "12.5", Currency: "USD"}, QrPayload: "qr"}, Attempt{})
	require.Equal(t, http.StatusAccepted, res.Code)
	assert.Eventually(t, func() bool {
		return svc.GetFlow(id).Data.(FlowView).State.Stage == enum.STAGE_SUCCEEDED
	}, time2s, tick)

	require.Equal(t, http.StatusOK, svc.DeleteFlow(id).Code)

	res = svc.GetFlow(id)
	require.Equal(t, http.StatusOK, res.Code)
	state := res.Data.(FlowView).State
	assert.Equal(t, enum.STAGE_SUCCEEDED, state.Stage)
	assert.Equal(t, "i-9", *state.IntentID)
	assert.Equal(t, "USD", state.Amount.Currency)
}
