package validation

import (
	"mobile-banking-core/internal/common/enum"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reloadForm struct {
	Value    string               `json:"value" validate:"required,money"`
	Currency string               `json:"currency" validate:"omitempty,currency"`
	Msisdn   string               `json:"msisdn" validate:"required,msisdn"`
	Kind     enum.PaymentKindEnum `json:"kind" validate:"required,enum"`
}

func TestValidate(t *testing.T) {
	require.NoError(t, Setup())

	tests := []struct {
		name    string
		form    reloadForm
		wantErr string
	}{
		{name: "valid local number", form: reloadForm{Value: "500.00", Currency: "LKR", Msisdn: "0771234567", Kind: enum.PAYMENT_KIND_RELOAD}},
		{name: "valid e164", form: reloadForm{Value: "1", Msisdn: "+94 77 123 4567", Kind: enum.PAYMENT_KIND_RELOAD}},
		{name: "zero amount", form: reloadForm{Value: "0", Msisdn: "0771234567", Kind: enum.PAYMENT_KIND_QR}, wantErr: "value must be a positive amount"},
		{name: "three decimals", form: reloadForm{Value: "1.005", Msisdn: "0771234567", Kind: enum.PAYMENT_KIND_QR}, wantErr: "value must be a positive amount"},
		{name: "bad currency", form: reloadForm{Value: "1", Currency: "RUPEES", Msisdn: "0771234567", Kind: enum.PAYMENT_KIND_QR}, wantErr: "currency must be an ISO 4217"},
		{name: "bad msisdn", form: reloadForm{Value: "1", Msisdn: "12345", Kind: enum.PAYMENT_KIND_QR}, wantErr: "msisdn must be a valid mobile number"},
		{name: "bad kind", form: reloadForm{Value: "1", Msisdn: "0771234567", Kind: "wire"}, wantErr: "kind must be one of the allowed enum values"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.form)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
