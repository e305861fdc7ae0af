package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AdvanceStatusActive  = "active"
	AdvanceStatusRepaid  = "repaid"
	AdvanceStatusOverdue = "overdue"
)

// RoyaltyAdvance: аванс в счёт будущих роялти.
type RoyaltyAdvance struct {
	ID               uuid.UUID          `db:"id" json:"id"`
	UserID           uuid.UUID          `db:"user_id" json:"user_id"`
	Amount           float64            `db:"amount" json:"amount"`
	Currency         string             `db:"currency" json:"currency"`
	AdvanceDate      time.Time          `db:"advance_date" json:"advance_date"`
	RepaidAmount     float64            `db:"repaid_amount" json:"repaid_amount"`
	RemainingBalance float64            `db:"-" json:"remaining_balance"`
	RepaymentPercent float64            `db:"-" json:"repayment_percent"`
	Status           string             `db:"status" json:"status"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	Repayments       []RoyaltyRepayment `db:"-" json:"repayments"`
}

// RoyaltyRepayment: удержание из выплаты в счёт аванса. Записи только добавляются.
type RoyaltyRepayment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	AdvanceID   uuid.UUID `db:"advance_id" json:"advance_id"`
	Amount      float64   `db:"amount" json:"amount"`
	Date        time.Time `db:"repaid_at" json:"date"`
	PayoutID    *string   `db:"payout_id" json:"payout_id,omitempty"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
}

// Derive пересчитывает производные поля аванса.
func (a *RoyaltyAdvance) Derive() {
	a.RemainingBalance = a.Amount - a.RepaidAmount
	if a.Amount > 0 {
		a.RepaymentPercent = a.RepaidAmount / a.Amount * 100
	} else {
		a.RepaymentPercent = 0
	}
}
