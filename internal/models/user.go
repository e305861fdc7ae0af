package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile: профиль артиста/лейбла с доступным к выводу балансом.
type UserProfile struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Email            string    `db:"email" json:"email"`
	DisplayName      *string   `db:"display_name" json:"display_name,omitempty"`
	AvailableBalance float64   `db:"available_balance" json:"available_balance"`
	Currency         string    `db:"currency" json:"currency"`
	StripeAccountID  *string   `db:"stripe_account_id" json:"-"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// HasPayoutAccount сообщает, подключён ли Stripe Connect аккаунт для автоматических выплат.
func (p *UserProfile) HasPayoutAccount() bool {
	return p.StripeAccountID != nil && *p.StripeAccountID != ""
}
