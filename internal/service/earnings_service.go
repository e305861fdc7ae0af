package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/soundvault/earnings-backend/internal/models"
)

const summaryWithdrawalsLimit = 10

type WithdrawalLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error)
}

type OutstandingAdvances interface {
	Outstanding(ctx context.Context, userID uuid.UUID) (float64, error)
}

// EarningsSummary: данные для страницы выплат.
type EarningsSummary struct {
	AvailableBalance       float64             `json:"available_balance"`
	Currency               string              `json:"currency"`
	PayoutAccountConnected bool                `json:"payout_account_connected"`
	RecentWithdrawals      []models.Withdrawal `json:"recent_withdrawals"`
	OutstandingAdvances    float64             `json:"outstanding_advances"`
}

type EarningsService struct {
	profiles    ProfileReader
	withdrawals WithdrawalLister
	advances    OutstandingAdvances
}

func NewEarningsService(profiles ProfileReader, withdrawals WithdrawalLister, advances OutstandingAdvances) *EarningsService {
	return &EarningsService{profiles: profiles, withdrawals: withdrawals, advances: advances}
}

// Balance возвращает профиль с доступным балансом.
func (s *EarningsService) Balance(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	return s.profiles.GetByID(ctx, userID)
}

// Summary собирает баланс, последние заявки и остаток по авансам параллельно.
func (s *EarningsService) Summary(ctx context.Context, userID uuid.UUID) (*EarningsSummary, error) {
	var (
		profile     *models.UserProfile
		withdrawals []models.Withdrawal
		outstanding float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.profiles.GetByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		withdrawals, err = s.withdrawals.ListByUser(gctx, userID, summaryWithdrawalsLimit, 0)
		return err
	})
	g.Go(func() error {
		var err error
		outstanding, err = s.advances.Outstanding(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &EarningsSummary{
		AvailableBalance:       profile.AvailableBalance,
		Currency:               profile.Currency,
		PayoutAccountConnected: profile.HasPayoutAccount(),
		RecentWithdrawals:      withdrawals,
		OutstandingAdvances:    outstanding,
	}, nil
}
