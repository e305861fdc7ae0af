package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithdrawalStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from WithdrawalStatus
		to   WithdrawalStatus
		want bool
	}{
		{WithdrawalStatusPending, WithdrawalStatusProcessing, true},
		{WithdrawalStatusPending, WithdrawalStatusRejected, true},
		{WithdrawalStatusPending, WithdrawalStatusCompleted, false},
		{WithdrawalStatusProcessing, WithdrawalStatusCompleted, true},
		{WithdrawalStatusApproved, WithdrawalStatusCompleted, true},
		{WithdrawalStatusCompleted, WithdrawalStatusRejected, false},
		{WithdrawalStatusRejected, WithdrawalStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestWithdrawalStatus_IsTerminal(t *testing.T) {
	assert.True(t, WithdrawalStatusCompleted.IsTerminal())
	assert.True(t, WithdrawalStatusRejected.IsTerminal())
	assert.False(t, WithdrawalStatusPending.IsTerminal())
	assert.False(t, WithdrawalStatusProcessing.IsTerminal())
}

func TestNewPaymentMethod(t *testing.T) {
	m, err := NewPaymentMethod("bank-transfer")
	assert.NoError(t, err)
	assert.Equal(t, PaymentMethodBankTransfer, m)

	_, err = NewPaymentMethod("")
	assert.Error(t, err)

	_, err = NewPaymentMethod("crypto")
	assert.Error(t, err)
}

func TestMoney_MinorUnits(t *testing.T) {
	tests := []struct {
		amount float64
		want   int64
	}{
		{100, 10000},
		{19.99, 1999},
		{0.1, 10},
		{1234.565, 123457},
	}

	for _, tt := range tests {
		m, err := NewMoney(tt.amount, "USD")
		assert.NoError(t, err)
		assert.Equal(t, tt.want, m.MinorUnits())
		assert.Equal(t, "usd", m.Currency)
	}

	_, err := NewMoney(-1, "usd")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(" 250.50 ")
	assert.NoError(t, err)
	assert.Equal(t, "250.5", d.String())

	_, err = ParseAmount("")
	assert.Error(t, err)

	_, err = ParseAmount("ten dollars")
	assert.Error(t, err)
}
