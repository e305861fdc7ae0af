package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/soundvault/earnings-backend/internal/models"
)

// StaticAdvanceSource отдаёт фиксированный набор авансов любому пользователю.
// Используется для демонстраций при ROYALTY_LEDGER_SOURCE=static.
type StaticAdvanceSource struct{}

func NewStaticAdvanceSource() *StaticAdvanceSource {
	return &StaticAdvanceSource{}
}

var staticNamespace = uuid.MustParse("2f0b5c1e-8d7a-4d7e-9a51-3c6f0e4b7a10")

func (StaticAdvanceSource) ListAdvances(_ context.Context, userID uuid.UUID) ([]models.RoyaltyAdvance, error) {
	id := func(name string) uuid.UUID {
		return uuid.NewSHA1(staticNamespace, []byte(userID.String()+"/"+name))
	}
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	first := models.RoyaltyAdvance{
		ID:           id("advance-1"),
		UserID:       userID,
		Amount:       5000,
		Currency:     "usd",
		AdvanceDate:  day(2025, time.January, 15),
		RepaidAmount: 3250,
		Status:       models.AdvanceStatusActive,
		CreatedAt:    day(2025, time.January, 15),
	}
	first.Repayments = []models.RoyaltyRepayment{
		{ID: id("repayment-1"), AdvanceID: first.ID, Amount: 1250, Date: day(2025, time.March, 1), Description: "Q1 streaming royalties"},
		{ID: id("repayment-2"), AdvanceID: first.ID, Amount: 1000, Date: day(2025, time.June, 1), Description: "Q2 streaming royalties"},
		{ID: id("repayment-3"), AdvanceID: first.ID, Amount: 1000, Date: day(2025, time.September, 1), Description: "Q3 streaming royalties"},
	}

	second := models.RoyaltyAdvance{
		ID:           id("advance-2"),
		UserID:       userID,
		Amount:       2000,
		Currency:     "usd",
		AdvanceDate:  day(2024, time.June, 1),
		RepaidAmount: 2000,
		Status:       models.AdvanceStatusRepaid,
		CreatedAt:    day(2024, time.June, 1),
	}
	second.Repayments = []models.RoyaltyRepayment{
		{ID: id("repayment-4"), AdvanceID: second.ID, Amount: 800, Date: day(2024, time.September, 1), Description: "Sync licensing"},
		{ID: id("repayment-5"), AdvanceID: second.ID, Amount: 1200, Date: day(2024, time.December, 1), Description: "Q4 streaming royalties"},
	}

	return []models.RoyaltyAdvance{first, second}, nil
}
