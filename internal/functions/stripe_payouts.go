package functions

import (
	"context"

	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
	"github.com/soundvault/earnings-backend/internal/providers"
	"github.com/soundvault/earnings-backend/internal/providers/stripe"
)

type StripeAPI interface {
	CreateExternalAccount(ctx context.Context, p stripe.ExternalAccountParams) (*providers.Response, error)
	CreatePayout(ctx context.Context, p stripe.PayoutParams) (*providers.Response, error)
	BalanceTransactions(ctx context.Context, p stripe.BalanceTransactionsParams) (*providers.Response, error)
}

// StripePayouts: функция "stripe-payouts".
type StripePayouts struct {
	client StripeAPI
}

func NewStripePayouts(client StripeAPI) *StripePayouts {
	return &StripePayouts{client: client}
}

func (f *StripePayouts) Name() string { return "stripe-payouts" }

func (f *StripePayouts) AdminOnly() bool { return true }

type stripePayload struct {
	AccountID         string `json:"account_id"`
	RoutingNumber     string `json:"routing_number"`
	AccountNumber     string `json:"account_number"`
	AccountHolderName string `json:"account_holder_name"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
	Destination       string `json:"destination"`
	Limit             int    `json:"limit"`
	Payout            string `json:"payout"`
	IdempotencyKey    string `json:"idempotency_key"`
}

func (f *StripePayouts) Invoke(ctx context.Context, call Call) (*providers.Response, error) {
	var p stripePayload
	if err := decode(call.Payload, &p); err != nil {
		return nil, err
	}

	switch call.Action {
	case "create_external_account":
		if err := required("account_id", p.AccountID, "routing_number", p.RoutingNumber, "account_number", p.AccountNumber); err != nil {
			return nil, err
		}
		return f.client.CreateExternalAccount(ctx, stripe.ExternalAccountParams{
			AccountID:         p.AccountID,
			RoutingNumber:     p.RoutingNumber,
			AccountNumber:     p.AccountNumber,
			AccountHolderName: p.AccountHolderName,
			Currency:          p.Currency,
			IdempotencyKey:    p.IdempotencyKey,
		})

	case "create_payout":
		if err := required("account_id", p.AccountID, "currency", p.Currency); err != nil {
			return nil, err
		}
		if p.Amount <= 0 {
			return nil, apperror.Validation("missing required field: amount")
		}
		return f.client.CreatePayout(ctx, stripe.PayoutParams{
			AccountID:      p.AccountID,
			Amount:         p.Amount,
			Currency:       p.Currency,
			Destination:    p.Destination,
			IdempotencyKey: p.IdempotencyKey,
		})

	case "get_balance_transactions":
		return f.client.BalanceTransactions(ctx, stripe.BalanceTransactionsParams{
			AccountID: p.AccountID,
			Limit:     p.Limit,
			Payout:    p.Payout,
		})
	}

	return nil, unknownAction(f.Name(), call.Action)
}
