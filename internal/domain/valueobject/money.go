package valueobject

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
)

// Money: сумма в основной единице валюты (доллары, евро).
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func NewMoney(amount float64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "amount cannot be negative")
	}
	if currency == "" {
		currency = "usd"
	}
	return Money{Amount: decimal.NewFromFloat(amount), Currency: strings.ToLower(currency)}, nil
}

// MinorUnits переводит сумму в центы, которые ожидают платёжные API.
// Округление half-up: 19.999 -> 2000.
func (m Money) MinorUnits() int64 {
	return m.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", strings.ToUpper(m.Currency), m.Amount.StringFixed(2))
}

// ParseAmount разбирает строку суммы из формы вывода.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, apperror.New(apperror.ErrCodeValidation, "please enter a valid amount")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperror.New(apperror.ErrCodeValidation, "please enter a valid amount")
	}
	return d, nil
}
