package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/soundvault/earnings-backend/internal/models"
)

type mockOutstanding struct {
	mock.Mock
}

func (m *mockOutstanding) Outstanding(ctx context.Context, userID uuid.UUID) (float64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Error(1)
}

func TestEarningsService_Summary(t *testing.T) {
	profiles := new(mockProfiles)
	store := new(mockWithdrawalStore)
	advances := new(mockOutstanding)
	svc := NewEarningsService(profiles, store, advances)
	userID := uuid.New()
	acct := "acct_1"

	profiles.On("GetByID", mock.Anything, userID).
		Return(&models.UserProfile{ID: userID, AvailableBalance: 420, Currency: "usd", StripeAccountID: &acct}, nil)
	store.On("ListByUser", mock.Anything, userID, summaryWithdrawalsLimit, 0).
		Return([]models.Withdrawal{{ID: uuid.New()}}, nil)
	advances.On("Outstanding", mock.Anything, userID).Return(1750.0, nil)

	sum, err := svc.Summary(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 420.0, sum.AvailableBalance)
	assert.True(t, sum.PayoutAccountConnected)
	assert.Len(t, sum.RecentWithdrawals, 1)
	assert.Equal(t, 1750.0, sum.OutstandingAdvances)
}

func TestEarningsService_SummaryFailsOnAnyError(t *testing.T) {
	profiles := new(mockProfiles)
	store := new(mockWithdrawalStore)
	advances := new(mockOutstanding)
	svc := NewEarningsService(profiles, store, advances)
	userID := uuid.New()

	profiles.On("GetByID", mock.Anything, userID).Return(&models.UserProfile{ID: userID}, nil)
	store.On("ListByUser", mock.Anything, userID, summaryWithdrawalsLimit, 0).Return([]models.Withdrawal{}, nil)
	advances.On("Outstanding", mock.Anything, userID).Return(0.0, errors.New("ledger unavailable"))

	_, err := svc.Summary(context.Background(), userID)
	assert.EqualError(t, err, "ledger unavailable")
}
