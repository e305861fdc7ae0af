package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/soundvault/earnings-backend/internal/models"
	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
)

// RecentRepaymentsLimit: сколько последних погашений показывается в сводке.
const RecentRepaymentsLimit = 10

// AdvanceSource: источник авансов: база данных или демонстрационные данные.
type AdvanceSource interface {
	ListAdvances(ctx context.Context, userID uuid.UUID) ([]models.RoyaltyAdvance, error)
}

type AdvanceWriter interface {
	CreateAdvance(ctx context.Context, userID uuid.UUID, amount float64, currency string, advanceDate time.Time) (*models.RoyaltyAdvance, error)
	AddRepayment(ctx context.Context, rp models.RoyaltyRepayment) (*models.RoyaltyAdvance, error)
}

// Ledger: сводка по авансам пользователя.
type Ledger struct {
	Advances         []models.RoyaltyAdvance   `json:"advances"`
	TotalAdvanced    float64                   `json:"total_advanced"`
	TotalRepaid      float64                   `json:"total_repaid"`
	TotalOutstanding float64                   `json:"total_outstanding"`
	RecentRepayments []models.RoyaltyRepayment `json:"recent_repayments"`
}

type AdvanceInput struct {
	UserID      uuid.UUID `json:"user_id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	AdvanceDate string    `json:"advance_date"`
}

type RepaymentInput struct {
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	PayoutID    *string `json:"payout_id"`
	Description string  `json:"description"`
}

type RoyaltyService struct {
	source AdvanceSource
	writer AdvanceWriter
	log    logrus.FieldLogger
}

// NewRoyaltyService создаёт сервис. writer == nil делает реестр доступным только для чтения.
func NewRoyaltyService(source AdvanceSource, writer AdvanceWriter, log logrus.FieldLogger) *RoyaltyService {
	return &RoyaltyService{source: source, writer: writer, log: log}
}

// Ledger возвращает авансы с производными полями, итоги и до десяти последних
// погашений по всем авансам, строго по убыванию даты.
func (s *RoyaltyService) Ledger(ctx context.Context, userID uuid.UUID) (*Ledger, error) {
	advances, err := s.source.ListAdvances(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		advanced = decimal.Zero
		repaid   = decimal.Zero
		all      []models.RoyaltyRepayment
	)
	for i := range advances {
		advances[i].Derive()
		advanced = advanced.Add(decimal.NewFromFloat(advances[i].Amount))
		repaid = repaid.Add(decimal.NewFromFloat(advances[i].RepaidAmount))
		all = append(all, advances[i].Repayments...)
	}

	ledger := &Ledger{
		Advances:         advances,
		RecentRepayments: RecentRepayments(all, RecentRepaymentsLimit),
	}
	ledger.TotalAdvanced, _ = advanced.Float64()
	ledger.TotalRepaid, _ = repaid.Float64()
	ledger.TotalOutstanding, _ = advanced.Sub(repaid).Float64()

	return ledger, nil
}

// Outstanding возвращает непогашенный остаток по всем авансам.
func (s *RoyaltyService) Outstanding(ctx context.Context, userID uuid.UUID) (float64, error) {
	ledger, err := s.Ledger(ctx, userID)
	if err != nil {
		return 0, err
	}
	return ledger.TotalOutstanding, nil
}

// RecentRepayments сортирует погашения по убыванию даты и оставляет не больше limit.
// При равных датах порядок фиксируется по id.
func RecentRepayments(repayments []models.RoyaltyRepayment, limit int) []models.RoyaltyRepayment {
	out := make([]models.RoyaltyRepayment, len(repayments))
	copy(out, repayments)

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RecordAdvance выдаёт аванс пользователю (только администратор).
func (s *RoyaltyService) RecordAdvance(ctx context.Context, in AdvanceInput) (*models.RoyaltyAdvance, error) {
	if s.writer == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "royalty ledger is read-only")
	}
	if in.UserID == uuid.Nil {
		return nil, apperror.Validation("user_id is required")
	}
	if in.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}
	date, err := parseLedgerDate(in.AdvanceDate)
	if err != nil {
		return nil, err
	}
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "usd"
	}

	amount, _ := decimal.NewFromFloat(in.Amount).Round(2).Float64()
	a, err := s.writer.CreateAdvance(ctx, in.UserID, amount, currency, date)
	if err != nil {
		return nil, err
	}
	a.Derive()

	s.log.WithFields(logrus.Fields{"advance_id": a.ID, "user_id": in.UserID, "amount": amount}).Info("royalty advance recorded")
	return a, nil
}

// RecordRepayment добавляет погашение аванса. Погашения только добавляются.
func (s *RoyaltyService) RecordRepayment(ctx context.Context, advanceID uuid.UUID, in RepaymentInput) (*models.RoyaltyAdvance, error) {
	if s.writer == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "royalty ledger is read-only")
	}
	if in.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}
	date, err := parseLedgerDate(in.Date)
	if err != nil {
		return nil, err
	}

	amount, _ := decimal.NewFromFloat(in.Amount).Round(2).Float64()
	a, err := s.writer.AddRepayment(ctx, models.RoyaltyRepayment{
		AdvanceID:   advanceID,
		Amount:      amount,
		Date:        date,
		PayoutID:    in.PayoutID,
		Description: strings.TrimSpace(in.Description),
	})
	if err != nil {
		return nil, err
	}
	a.Derive()

	s.log.WithFields(logrus.Fields{"advance_id": advanceID, "amount": amount, "status": a.Status}).Info("royalty repayment recorded")
	return a, nil
}

// parseLedgerDate принимает RFC 3339 или YYYY-MM-DD, для пустой строки берёт текущий момент.
func parseLedgerDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperror.Validation("invalid date %q, expected YYYY-MM-DD", raw)
}
