package functions

import (
	"context"

	"github.com/google/uuid"

	"github.com/soundvault/earnings-backend/internal/providers"
	"github.com/soundvault/earnings-backend/internal/service"
)

type LedgerReader interface {
	Ledger(ctx context.Context, userID uuid.UUID) (*service.Ledger, error)
}

// RoyaltyAdvances: функция "royalty-advances": сводка авансов вызывающего пользователя.
type RoyaltyAdvances struct {
	ledger LedgerReader
}

func NewRoyaltyAdvances(ledger LedgerReader) *RoyaltyAdvances {
	return &RoyaltyAdvances{ledger: ledger}
}

func (f *RoyaltyAdvances) Name() string { return "royalty-advances" }

func (f *RoyaltyAdvances) Invoke(ctx context.Context, call Call) (*providers.Response, error) {
	switch call.Action {
	case "", "list":
		ledger, err := f.ledger.Ledger(ctx, call.UserID)
		if err != nil {
			return nil, err
		}
		return jsonResponse(ledger)
	}
	return nil, unknownAction(f.Name(), call.Action)
}
