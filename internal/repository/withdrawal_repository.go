package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/soundvault/earnings-backend/internal/domain/valueobject"
	"github.com/soundvault/earnings-backend/internal/models"
	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
	"github.com/soundvault/earnings-backend/internal/repository/common"
)

type WithdrawalRepository struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Reserve атомарно проверяет баланс, списывает сумму и создаёт заявку в статусе pending.
// Строка профиля блокируется FOR UPDATE, поэтому параллельные заявки одного
// пользователя выполняются последовательно и не могут потратить баланс дважды.
func (r *WithdrawalRepository) Reserve(ctx context.Context, nw models.NewWithdrawal) (*models.Withdrawal, error) {
	var w models.Withdrawal

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var available float64
		err := tx.GetContext(ctx, &available, `SELECT available_balance FROM user_profiles WHERE id = $1 FOR UPDATE`, nw.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.ErrProfileNotFound
			}
			return fmt.Errorf("withdrawal repository: lock balance %w", err)
		}
		if decimal.NewFromFloat(available).LessThan(decimal.NewFromFloat(nw.Amount)) {
			return apperror.ErrInsufficientFunds
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE user_profiles SET available_balance = available_balance - $2, updated_at = NOW()
			WHERE id = $1
		`, nw.UserID, nw.Amount)
		if err != nil {
			return fmt.Errorf("withdrawal repository: debit balance %w", err)
		}

		err = tx.GetContext(ctx, &w, `
			INSERT INTO withdrawal_requests (user_id, amount, payment_method, account_details, account_hint, status)
			VALUES ($1, $2, $3, $4, $5, 'pending')
			RETURNING *
		`, nw.UserID, nw.Amount, nw.PaymentMethod, nw.AccountDetails, nw.AccountHint)
		if err != nil {
			return fmt.Errorf("withdrawal repository: insert %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &w, nil
}

// MarkProcessing фиксирует успешную отправку выплаты процессору.
func (r *WithdrawalRepository) MarkProcessing(ctx context.Context, id uuid.UUID, externalAccountID, payoutID string) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.GetContext(ctx, &w, `
		UPDATE withdrawal_requests
		SET status = 'processing', stripe_external_account_id = $2, stripe_payout_id = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, id, externalAccountID, payoutID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("withdrawal repository: mark processing %w", err)
	}
	return &w, nil
}

// UpdateStatus переводит заявку в новый статус. Переход в rejected возвращает
// сумму на баланс в той же транзакции.
func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status valueobject.WithdrawalStatus, reason *string) (*models.Withdrawal, error) {
	var w models.Withdrawal

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &w, `SELECT * FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.ErrWithdrawalNotFound
			}
			return fmt.Errorf("withdrawal repository: lock withdrawal %w", err)
		}

		current := valueobject.WithdrawalStatus(w.Status)
		if !current.CanTransitionTo(status) {
			return apperror.New(apperror.ErrCodeConflict,
				fmt.Sprintf("cannot move withdrawal from %s to %s", current, status))
		}

		err = tx.GetContext(ctx, &w, `
			UPDATE withdrawal_requests SET status = $2, failure_reason = COALESCE($3, failure_reason), updated_at = NOW()
			WHERE id = $1
			RETURNING *
		`, id, string(status), reason)
		if err != nil {
			return fmt.Errorf("withdrawal repository: update status %w", err)
		}

		if status == valueobject.WithdrawalStatusRejected {
			_, err = tx.ExecContext(ctx, `
				UPDATE user_profiles SET available_balance = available_balance + $2, updated_at = NOW()
				WHERE id = $1
			`, w.UserID, w.Amount)
			if err != nil {
				return fmt.Errorf("withdrawal repository: refund balance %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &w, nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	return common.GetByID[models.Withdrawal](ctx, r.db, "withdrawal_requests", id, apperror.ErrWithdrawalNotFound)
}

func (r *WithdrawalRepository) GetByPayoutID(ctx context.Context, payoutID string) (*models.Withdrawal, error) {
	return common.GetByField[models.Withdrawal](ctx, r.db, "withdrawal_requests", "stripe_payout_id", payoutID, apperror.ErrWithdrawalNotFound)
}

func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	withdrawals := []models.Withdrawal{}
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawal_requests WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list %w", err)
	}
	return withdrawals, nil
}
