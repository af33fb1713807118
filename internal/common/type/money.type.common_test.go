package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyDisplay(t *testing.T) {
	m, err := ParseMoney("1500", "LKR")
	require.NoError(t, err)
	assert.Equal(t, "LKR 1,500.00", m.Display())

	m, err = ParseMoney("0.5", "USD")
	require.NoError(t, err)
	assert.Equal(t, "USD 0.50", m.Display())
}

func TestParseMoneyRejectsBadInput(t *testing.T) {
	_, err := ParseMoney("abc", "LKR")
	assert.Error(t, err)

	_, err = ParseMoney("10", "LK")
	assert.Error(t, err)
}
