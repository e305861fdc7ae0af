package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/soundvault/earnings-backend/internal/models"
	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
	"github.com/soundvault/earnings-backend/internal/repository/common"
)

// ProfileRepository читает профили пользователей. Баланс меняется только
// транзакциями WithdrawalRepository.
type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID возвращает профиль вместе с доступным балансом.
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	return common.GetByID[models.UserProfile](ctx, r.db, "user_profiles", id, apperror.ErrProfileNotFound)
}
