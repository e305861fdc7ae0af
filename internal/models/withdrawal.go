package models

import (
	"time"

	"github.com/google/uuid"
)

// Withdrawal: заявка на вывод средств.
type Withdrawal struct {
	ID                      uuid.UUID `db:"id" json:"id"`
	UserID                  uuid.UUID `db:"user_id" json:"user_id"`
	Amount                  float64   `db:"amount" json:"amount"`
	PaymentMethod           string    `db:"payment_method" json:"payment_method"`
	AccountDetails          []byte    `db:"account_details" json:"-"`
	AccountHint             string    `db:"account_hint" json:"account_hint"`
	Status                  string    `db:"status" json:"status"`
	StripeExternalAccountID *string   `db:"stripe_external_account_id" json:"stripe_external_account_id"`
	StripePayoutID          *string   `db:"stripe_payout_id" json:"stripe_payout_id"`
	FailureReason           *string   `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}

// AccountDetails: реквизиты получателя; хранятся в зашифрованном виде.
type AccountDetails struct {
	RoutingNumber string `json:"routing_number,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	PaypalEmail   string `json:"paypal_email,omitempty"`
	Details       string `json:"details,omitempty"`
}

// NewWithdrawal: данные для атомарного резервирования суммы.
type NewWithdrawal struct {
	UserID         uuid.UUID
	Amount         float64
	PaymentMethod  string
	AccountDetails []byte
	AccountHint    string
}
