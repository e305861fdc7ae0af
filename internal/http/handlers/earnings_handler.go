package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soundvault/earnings-backend/internal/http/handlers/common"
	"github.com/soundvault/earnings-backend/internal/models"
	"github.com/soundvault/earnings-backend/internal/service"
)

type EarningsService interface {
	Balance(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	Summary(ctx context.Context, userID uuid.UUID) (*service.EarningsSummary, error)
}

type EarningsHandler struct {
	svc EarningsService
}

func NewEarningsHandler(s EarningsService) *EarningsHandler {
	return &EarningsHandler{svc: s}
}

// GetBalance GET /api/profile/balance
func (h *EarningsHandler) GetBalance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	profile, err := h.svc.Balance(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"available_balance":        profile.AvailableBalance,
		"currency":                 profile.Currency,
		"payout_account_connected": profile.HasPayoutAccount(),
	})
}

// GetSummary GET /api/earnings/summary
func (h *EarningsHandler) GetSummary(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
