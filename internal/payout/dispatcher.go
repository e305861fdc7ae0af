// Package payout отправляет выплаты процессору и сообщает явный исход.
package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/soundvault/earnings-backend/internal/domain/valueobject"
	"github.com/soundvault/earnings-backend/internal/models"
	"github.com/soundvault/earnings-backend/internal/providers"
	"github.com/soundvault/earnings-backend/internal/providers/stripe"
)

type OutcomeKind string

const (
	// OutcomeSucceeded: процессор принял выплату.
	OutcomeSucceeded OutcomeKind = "succeeded"
	// OutcomeDegradedToManual: автоматическая выплата не удалась по временной причине,
	// заявку обработают вручную.
	OutcomeDegradedToManual OutcomeKind = "degraded_to_manual"
	// OutcomeManual: способ выплаты не поддерживает автоматическую отправку.
	OutcomeManual OutcomeKind = "manual"
	// OutcomeRejected: процессор окончательно отклонил выплату.
	OutcomeRejected OutcomeKind = "rejected"
)

type Outcome struct {
	Kind              OutcomeKind
	PayoutID          string
	ExternalAccountID string
	Reason            string
}

// StripeClient: операции Stripe, нужные для банковского перевода.
type StripeClient interface {
	CreateExternalAccount(ctx context.Context, p stripe.ExternalAccountParams) (*providers.Response, error)
	CreatePayout(ctx context.Context, p stripe.PayoutParams) (*providers.Response, error)
}

type Request struct {
	WithdrawalID    uuid.UUID
	Method          valueobject.PaymentMethod
	Amount          decimal.Decimal
	StripeAccountID string
	HolderName      string
	Details         models.AccountDetails
}

type Dispatcher struct {
	stripe   StripeClient
	currency string
	timeout  time.Duration
	log      logrus.FieldLogger
}

// NewDispatcher создаёт диспетчер. stripe может быть nil: тогда банковские
// переводы уходят в ручную обработку.
func NewDispatcher(stripe StripeClient, currency string, timeout time.Duration, log logrus.FieldLogger) *Dispatcher {
	if currency == "" {
		currency = "usd"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{stripe: stripe, currency: currency, timeout: timeout, log: log}
}

// Dispatch пытается отправить выплату. Контекст отвязан от отмены клиента:
// сумма уже зарезервирована, и обрыв запроса не должен оставить выплату наполовину отправленной.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Outcome {
	if req.Method != valueobject.PaymentMethodBankTransfer {
		return Outcome{Kind: OutcomeManual}
	}

	log := d.log.WithFields(logrus.Fields{
		"withdrawal_id": req.WithdrawalID,
		"provider":      stripe.Provider,
	})

	if d.stripe == nil {
		log.Warn("payout processor is not configured, falling back to manual processing")
		return Outcome{Kind: OutcomeDegradedToManual, Reason: "payout processor is not configured"}
	}
	if req.StripeAccountID == "" {
		log.Warn("profile has no connected payout account, falling back to manual processing")
		return Outcome{Kind: OutcomeDegradedToManual, Reason: "no connected payout account"}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	key := req.WithdrawalID.String()

	resp, err := d.stripe.CreateExternalAccount(ctx, stripe.ExternalAccountParams{
		AccountID:         req.StripeAccountID,
		RoutingNumber:     req.Details.RoutingNumber,
		AccountNumber:     req.Details.AccountNumber,
		AccountHolderName: req.HolderName,
		Currency:          d.currency,
		IdempotencyKey:    key + "-external-account",
	})
	if err != nil {
		return d.failure(log, "create external account", err)
	}
	var account stripe.ExternalAccount
	if err := resp.Decode(&account); err != nil || account.ID == "" {
		log.WithError(err).Error("unexpected external account response")
		return Outcome{Kind: OutcomeDegradedToManual, Reason: "unexpected external account response"}
	}

	amount := valueobject.Money{Amount: req.Amount, Currency: d.currency}
	resp, err = d.stripe.CreatePayout(ctx, stripe.PayoutParams{
		AccountID:      req.StripeAccountID,
		Amount:         amount.MinorUnits(),
		Currency:       d.currency,
		Destination:    account.ID,
		Description:    fmt.Sprintf("Withdrawal %s", key),
		IdempotencyKey: key + "-payout",
	})
	if err != nil {
		out := d.failure(log, "create payout", err)
		out.ExternalAccountID = account.ID
		return out
	}
	var po stripe.Payout
	if err := resp.Decode(&po); err != nil || po.ID == "" {
		log.WithError(err).Error("unexpected payout response")
		return Outcome{Kind: OutcomeDegradedToManual, ExternalAccountID: account.ID, Reason: "unexpected payout response"}
	}

	log.WithField("payout_id", po.ID).Info("payout created")
	return Outcome{Kind: OutcomeSucceeded, PayoutID: po.ID, ExternalAccountID: account.ID}
}

func (d *Dispatcher) failure(log logrus.FieldLogger, step string, err error) Outcome {
	pErr, ok := providers.AsError(err)
	if ok && !pErr.Retryable() {
		log.WithFields(logrus.Fields{"step": step, "status_code": pErr.StatusCode}).
			Warn("payout rejected by processor")
		return Outcome{Kind: OutcomeRejected, Reason: stripe.ErrorMessage(pErr.Body)}
	}

	fields := logrus.Fields{"step": step}
	if ok {
		fields["status_code"] = pErr.StatusCode
	}
	log.WithFields(fields).WithError(err).Error("payout processor call failed, falling back to manual processing")
	return Outcome{Kind: OutcomeDegradedToManual, Reason: err.Error()}
}
