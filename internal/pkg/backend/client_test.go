package backend

import (
	"encoding/json"
	"io"
	"mobile-banking-core/internal/common/enum"
	types "mobile-banking-core/internal/common/type"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(&Config{BaseURL: srv.URL + "/", Token: "tok", RequestTimeout: 5})
}

func TestUploadAsset_SendsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/kyc/upload", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "DOC_FRONT", r.FormValue("type"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "front.jpg", hdr.Filename)
		assert.Equal(t, []byte{1, 2, 3}, body)

		_, _ = w.Write([]byte(`{"id":"asset-1"}`))
	})

	res, err := c.UploadAsset(t.Context(), enum.KYC_ASSET_DOC_FRONT, "front.jpg", "image/jpeg", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "asset-1", res.ID)
}

func TestUploadAsset_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"scanner offline"}`))
	})

	_, err := c.UploadAsset(t.Context(), enum.KYC_ASSET_SELFIE, "s.jpg", "image/jpeg", []byte{1})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "scanner offline", apiErr.Message)
}

func TestMyCase_NotFoundMeansNoCase(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	got, err := c.MyCase(t.Context())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSubmitAndChecks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/kyc/submit":
			var req SubmitRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, SubmitRequest{DocFrontID: "f", DocBackID: "b", SelfieID: "s", AddressID: "a", Consent: true}, req)
			_, _ = w.Write([]byte(`{"caseId":"case-9","status":"PENDING"}`))
		case "/kyc/cases/case-9/checks":
			_, _ = w.Write([]byte(`[{"type":"LIVENESS","score":0.91,"passed":true},{"type":"FACE_MATCH"}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	cs, err := c.Submit(t.Context(), SubmitRequest{DocFrontID: "f", DocBackID: "b", SelfieID: "s", AddressID: "a", Consent: true})
	require.NoError(t, err)
	assert.Equal(t, "case-9", cs.CaseID)
	assert.Equal(t, enum.KYC_CASE_PENDING, cs.Status)

	checks, err := c.Checks(t.Context(), cs.CaseID)
	require.NoError(t, err)
	require.Len(t, checks, 2)
	assert.InDelta(t, 0.91, *checks[0].Score, 1e-9)
	assert.Nil(t, checks[1].Score)
}

func TestCreateReloadPayment_SendsIdempotencyKeyAndAmount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments/reload", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get(IdempotencyHeader))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"value": "500.00", "currency": "LKR"}, body["amount"])
		assert.Equal(t, "0771234567", body["msisdn"])

		_, _ = w.Write([]byte(`{"intentId":"abc123","status":"PENDING","amount":{"value":"500.00","currency":"LKR"}}`))
	})

	amount, err := types.ParseMoney("500.00", "LKR")
	require.NoError(t, err)

	intent, err := c.CreateReloadPayment(t.Context(), "key-1", ReloadPaymentRequest{Amount: amount, Msisdn: "0771234567"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", intent.IntentID)
	assert.Equal(t, enum.INTENT_PENDING, intent.Status)
	assert.Equal(t, "500", intent.Amount.Value.String())
}

func TestCreatePayment_RequiresKey(t *testing.T) {
	c := NewClient(&Config{BaseURL: "http://127.0.0.1:1"})
	_, err := c.CreateBillPayment(t.Context(), "", BillPaymentRequest{})
	assert.Error(t, err)
}

func TestGetIntent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/abc123", r.URL.Path)
		_, _ = w.Write([]byte(`{"intentId":"abc123","status":"PROCESSING","amount":{"value":12.5,"currency":"LKR"},"returnUrl":"https://3ds.example/x"}`))
	})

	intent, err := c.GetIntent(t.Context(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, enum.INTENT_PROCESSING, intent.Status)
	require.NotNil(t, intent.ReturnURL)
	assert.Equal(t, "https://3ds.example/x", *intent.ReturnURL)
}

func TestErrorMessage_TruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("a", maxErrorMessage-1) + strings.Repeat("é", 10)
	msg := errorMessage([]byte(body))
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, strings.Repeat("a", maxErrorMessage-1), msg)

	body = strings.Repeat("é", 200)
	msg = errorMessage([]byte(body))
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, strings.Repeat("é", maxErrorMessage/2), msg)

	assert.Equal(t, "gateway down", errorMessage([]byte(`{"message":"gateway down"}`)))
}
