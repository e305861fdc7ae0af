package valueobject

import "github.com/soundvault/earnings-backend/internal/pkg/apperror"

type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusApproved   WithdrawalStatus = "approved"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusRejected   WithdrawalStatus = "rejected"
)

func (s WithdrawalStatus) IsValid() bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusProcessing, WithdrawalStatusApproved,
		WithdrawalStatusCompleted, WithdrawalStatusRejected:
		return true
	}
	return false
}

// IsTerminal: completed и rejected больше не меняются.
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusRejected
}

func (s WithdrawalStatus) CanTransitionTo(newStatus WithdrawalStatus) bool {
	transitions := map[WithdrawalStatus][]WithdrawalStatus{
		WithdrawalStatusPending:    {WithdrawalStatusProcessing, WithdrawalStatusApproved, WithdrawalStatusRejected},
		WithdrawalStatusProcessing: {WithdrawalStatusApproved, WithdrawalStatusCompleted, WithdrawalStatusRejected},
		WithdrawalStatusApproved:   {WithdrawalStatusCompleted, WithdrawalStatusRejected},
		WithdrawalStatusCompleted:  {},
		WithdrawalStatusRejected:   {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewWithdrawalStatus(status string) (WithdrawalStatus, error) {
	s := WithdrawalStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "invalid withdrawal status")
	}
	return s, nil
}

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank-transfer"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodOther        PaymentMethod = "other"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodPayPal, PaymentMethodCheck, PaymentMethodOther:
		return true
	}
	return false
}

func NewPaymentMethod(method string) (PaymentMethod, error) {
	if method == "" {
		return "", apperror.New(apperror.ErrCodeValidation, "please select a payment method")
	}
	m := PaymentMethod(method)
	if !m.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "unsupported payment method")
	}
	return m, nil
}

type AdvanceStatus string

const (
	AdvanceStatusActive  AdvanceStatus = "active"
	AdvanceStatusRepaid  AdvanceStatus = "repaid"
	AdvanceStatusOverdue AdvanceStatus = "overdue"
)

func (s AdvanceStatus) IsValid() bool {
	switch s {
	case AdvanceStatusActive, AdvanceStatusRepaid, AdvanceStatusOverdue:
		return true
	}
	return false
}
