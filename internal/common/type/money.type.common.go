package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Money is an amount in a given ISO 4217 currency.
type Money struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// ParseMoney builds a Money from a decimal string such as "500.00".
func ParseMoney(value, cur string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	unit, err := currency.ParseISO(cur)
	if err != nil {
		return Money{}, fmt.Errorf("invalid currency %q: %w", cur, err)
	}
	return Money{Value: d, Currency: unit.String()}, nil
}

// MarshalJSON always writes two decimals, e.g. {"value":"500.00","currency":"LKR"}.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	}{
		Value:    m.Value.StringFixed(2),
		Currency: m.Currency,
	})
}

// Display formats the amount for humans, e.g. "LKR 1,500.00".
func (m Money) Display() string {
	unit, err := currency.ParseISO(m.Currency)
	if err != nil {
		return m.Currency + " " + m.Value.StringFixed(2)
	}
	p := message.NewPrinter(language.English)
	f, _ := m.Value.Round(2).Float64()
	return p.Sprintf("%s %v", unit, number.Decimal(f, number.Scale(2)))
}
