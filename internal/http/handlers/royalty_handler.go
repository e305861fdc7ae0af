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

type RoyaltyService interface {
	Ledger(ctx context.Context, userID uuid.UUID) (*service.Ledger, error)
	RecordAdvance(ctx context.Context, in service.AdvanceInput) (*models.RoyaltyAdvance, error)
	RecordRepayment(ctx context.Context, advanceID uuid.UUID, in service.RepaymentInput) (*models.RoyaltyAdvance, error)
}

// RoyaltyHandler отдаёт реестр авансов и принимает записи от администраторов.
type RoyaltyHandler struct {
	svc RoyaltyService
}

func NewRoyaltyHandler(s RoyaltyService) *RoyaltyHandler {
	return &RoyaltyHandler{svc: s}
}

// GetLedger GET /api/royalty-advances
func (h *RoyaltyHandler) GetLedger(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	ledger, err := h.svc.Ledger(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ledger)
}

// CreateAdvance POST /api/admin/royalty-advances
func (h *RoyaltyHandler) CreateAdvance(c *gin.Context) {
	var in service.AdvanceInput
	if err := common.BindJSON(c, &in); err != nil {
		common.Fail(c, err)
		return
	}

	advance, err := h.svc.RecordAdvance(c.Request.Context(), in)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, advance)
}

// AddRepayment POST /api/admin/royalty-advances/:id/repayments
func (h *RoyaltyHandler) AddRepayment(c *gin.Context) {
	advanceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	var in service.RepaymentInput
	if err := common.BindJSON(c, &in); err != nil {
		common.Fail(c, err)
		return
	}

	advance, err := h.svc.RecordRepayment(c.Request.Context(), advanceID, in)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, advance)
}
