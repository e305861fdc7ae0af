package functions

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
	"github.com/soundvault/earnings-backend/internal/providers"
	"github.com/soundvault/earnings-backend/internal/providers/trolley"
)

type TrolleyAPI interface {
	CreateRecipient(ctx context.Context, r trolley.Recipient) (*providers.Response, error)
	CreateBatch(ctx context.Context, payments []trolley.Payment) (*providers.Response, error)
	Payouts(ctx context.Context, recipientID string) (*providers.Response, error)
}

// Trolley: функция "trolley".
type Trolley struct {
	client TrolleyAPI
}

func NewTrolley(client TrolleyAPI) *Trolley {
	return &Trolley{client: client}
}

func (f *Trolley) Name() string { return "trolley" }

func (f *Trolley) AdminOnly() bool { return true }

type trolleyPayload struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Type        string `json:"type"`
	RecipientID string `json:"recipient_id"`
	Payments    []struct {
		RecipientID string          `json:"recipient_id"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		Memo        string          `json:"memo"`
	} `json:"payments"`
}

func (f *Trolley) Invoke(ctx context.Context, call Call) (*providers.Response, error) {
	var p trolleyPayload
	if err := decode(call.Payload, &p); err != nil {
		return nil, err
	}

	switch call.Action {
	case "create_recipient":
		if err := required("email", p.Email, "first_name", p.FirstName, "last_name", p.LastName); err != nil {
			return nil, err
		}
		recipientType := p.Type
		if recipientType == "" {
			recipientType = "individual"
		}
		return f.client.CreateRecipient(ctx, trolley.Recipient{
			Type:      recipientType,
			Email:     p.Email,
			FirstName: p.FirstName,
			LastName:  p.LastName,
		})

	case "create_batch":
		if len(p.Payments) == 0 {
			return nil, apperror.Validation("missing required field: payments")
		}
		payments := make([]trolley.Payment, len(p.Payments))
		for i, pm := range p.Payments {
			if err := required("payments.recipient_id", pm.RecipientID, "payments.currency", pm.Currency); err != nil {
				return nil, err
			}
			if !pm.Amount.IsPositive() {
				return nil, apperror.Validation("missing required field: payments.amount")
			}
			payments[i] = trolley.Payment{
				RecipientID: pm.RecipientID,
				Amount:      pm.Amount.StringFixed(2),
				Currency:    pm.Currency,
				Memo:        pm.Memo,
			}
		}
		return f.client.CreateBatch(ctx, payments)

	case "get_payouts":
		if err := required("recipient_id", p.RecipientID); err != nil {
			return nil, err
		}
		return f.client.Payouts(ctx, p.RecipientID)
	}

	return nil, unknownAction(f.Name(), call.Action)
}
