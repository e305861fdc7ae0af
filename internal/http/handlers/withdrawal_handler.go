package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soundvault/earnings-backend/internal/http/handlers/common"
	"github.com/soundvault/earnings-backend/internal/models"
	"github.com/soundvault/earnings-backend/internal/service"
	"github.com/soundvault/earnings-backend/internal/validation"
)

type WithdrawalService interface {
	Submit(ctx context.Context, userID uuid.UUID, form validation.WithdrawalForm) (*service.SubmitResult, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Withdrawal, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string) (*models.Withdrawal, error)
	GetForPayout(ctx context.Context, adminID, id uuid.UUID) (*service.PayoutView, error)
}

type WithdrawalHandler struct {
	svc WithdrawalService
}

func NewWithdrawalHandler(s WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{svc: s}
}

// CreateWithdrawal POST /api/withdrawals
// Для чека заявка не создаётся: ответ 200 с chat_requested=true.
func (h *WithdrawalHandler) CreateWithdrawal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	var form validation.WithdrawalForm
	if err := common.BindJSON(c, &form); err != nil {
		common.Fail(c, err)
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), userID, form)
	if err != nil {
		common.Fail(c, err)
		return
	}

	status := http.StatusCreated
	if result.ChatRequested {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// ListWithdrawals GET /api/withdrawals
func (h *WithdrawalHandler) ListWithdrawals(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	withdrawals, err := h.svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals, "limit": limit, "offset": offset})
}

// GetWithdrawal GET /api/withdrawals/:id
func (h *WithdrawalHandler) GetWithdrawal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	w, err := h.svc.Get(c.Request.Context(), userID, id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// GetForPayout GET /api/admin/withdrawals/:id
// Ответ содержит расшифрованные реквизиты получателя.
func (h *WithdrawalHandler) GetForPayout(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	view, err := h.svc.GetForPayout(c.Request.Context(), adminID, id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateStatus PUT /api/admin/withdrawals/:id/status
func (h *WithdrawalHandler) UpdateStatus(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	var req struct {
		Status string  `json:"status" binding:"required"`
		Reason *string `json:"reason"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	w, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status, req.Reason)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
