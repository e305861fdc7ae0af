package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/soundvault/earnings-backend/internal/models"
	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
	"github.com/soundvault/earnings-backend/internal/repository/common"
)

// RoyaltyRepository хранит авансы и историю их погашения.
type RoyaltyRepository struct {
	db *sqlx.DB
}

func NewRoyaltyRepository(db *sqlx.DB) *RoyaltyRepository {
	return &RoyaltyRepository{db: db}
}

// ListAdvances возвращает авансы пользователя (новые первыми) вместе с погашениями.
func (r *RoyaltyRepository) ListAdvances(ctx context.Context, userID uuid.UUID) ([]models.RoyaltyAdvance, error) {
	advances := []models.RoyaltyAdvance{}
	err := r.db.SelectContext(ctx, &advances, `
		SELECT id, user_id, amount, currency, advance_date, repaid_amount, status, created_at
		FROM royalty_advances
		WHERE user_id = $1
		ORDER BY advance_date DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("royalty repository: list advances %w", err)
	}
	if len(advances) == 0 {
		return advances, nil
	}

	ids := make([]uuid.UUID, len(advances))
	for i, a := range advances {
		ids[i] = a.ID
	}

	var repayments []models.RoyaltyRepayment
	err = r.db.SelectContext(ctx, &repayments, `
		SELECT id, advance_id, amount, repaid_at, payout_id, description, created_at
		FROM royalty_repayments
		WHERE advance_id = ANY($1)
		ORDER BY repaid_at DESC
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("royalty repository: list repayments %w", err)
	}

	byAdvance := make(map[uuid.UUID][]models.RoyaltyRepayment, len(advances))
	for _, rp := range repayments {
		byAdvance[rp.AdvanceID] = append(byAdvance[rp.AdvanceID], rp)
	}
	for i := range advances {
		advances[i].Repayments = byAdvance[advances[i].ID]
		if advances[i].Repayments == nil {
			advances[i].Repayments = []models.RoyaltyRepayment{}
		}
	}

	return advances, nil
}

// CreateAdvance выдаёт новый аванс.
func (r *RoyaltyRepository) CreateAdvance(ctx context.Context, userID uuid.UUID, amount float64, currency string, advanceDate time.Time) (*models.RoyaltyAdvance, error) {
	var a models.RoyaltyAdvance
	err := r.db.GetContext(ctx, &a, `
		INSERT INTO royalty_advances (user_id, amount, currency, advance_date, status)
		VALUES ($1, $2, $3, $4, 'active')
		RETURNING id, user_id, amount, currency, advance_date, repaid_amount, status, created_at
	`, userID, amount, currency, advanceDate)
	if err != nil {
		return nil, fmt.Errorf("royalty repository: create advance %w", err)
	}
	a.Repayments = []models.RoyaltyRepayment{}
	return &a, nil
}

// AddRepayment добавляет погашение и пересчитывает repaid_amount в одной транзакции.
// Погашение больше остатка отклоняется; при полном погашении аванс получает статус repaid.
func (r *RoyaltyRepository) AddRepayment(ctx context.Context, rp models.RoyaltyRepayment) (*models.RoyaltyAdvance, error) {
	var a models.RoyaltyAdvance

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &a, `
			SELECT id, user_id, amount, currency, advance_date, repaid_amount, status, created_at
			FROM royalty_advances WHERE id = $1 FOR UPDATE
		`, rp.AdvanceID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.ErrAdvanceNotFound
			}
			return fmt.Errorf("royalty repository: lock advance %w", err)
		}

		remaining := decimal.NewFromFloat(a.Amount).Sub(decimal.NewFromFloat(a.RepaidAmount))
		if decimal.NewFromFloat(rp.Amount).GreaterThan(remaining) {
			return apperror.Validation("repayment exceeds remaining balance of %s", remaining.StringFixed(2))
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO royalty_repayments (advance_id, amount, repaid_at, payout_id, description)
			VALUES ($1, $2, $3, $4, $5)
		`, rp.AdvanceID, rp.Amount, rp.Date, rp.PayoutID, rp.Description)
		if err != nil {
			return fmt.Errorf("royalty repository: insert repayment %w", err)
		}

		err = tx.GetContext(ctx, &a, `
			UPDATE royalty_advances
			SET repaid_amount = repaid_amount + $2,
			    status = CASE WHEN repaid_amount + $2 >= amount THEN 'repaid' ELSE status END
			WHERE id = $1
			RETURNING id, user_id, amount, currency, advance_date, repaid_amount, status, created_at
		`, rp.AdvanceID, rp.Amount)
		if err != nil {
			if common.IsCheckViolation(err) {
				return apperror.Validation("repayment exceeds remaining balance")
			}
			return fmt.Errorf("royalty repository: update advance %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &a, nil
}
