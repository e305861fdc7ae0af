package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundvault/earnings-backend/internal/functions"
	"github.com/soundvault/earnings-backend/internal/http/handlers/common"
	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
	"github.com/soundvault/earnings-backend/internal/providers"
)

const maxFunctionBody = 1 << 20

type FunctionInvoker interface {
	Invoke(ctx context.Context, name string, call functions.Call) (*providers.Response, error)
	Names() []string
}

// FunctionsHandler обслуживает RPC вызовы POST /api/functions/:name.
type FunctionsHandler struct {
	registry FunctionInvoker
}

func NewFunctionsHandler(registry FunctionInvoker) *FunctionsHandler {
	return &FunctionsHandler{registry: registry}
}

// Invoke читает action из JSON тела, остальные поля передаются функции целиком.
// Успешный ответ провайдера отдаётся клиенту с тем же статусом и телом.
func (h *FunctionsHandler) Invoke(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxFunctionBody))
	if err != nil {
		common.Fail(c, apperror.Validation("invalid request body"))
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	var envelope struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		common.Fail(c, apperror.Validation("invalid request body"))
		return
	}

	resp, err := h.registry.Invoke(c.Request.Context(), c.Param("name"), functions.Call{
		UserID:  userID,
		IsAdmin: common.IsAdmin(c),
		Action:  envelope.Action,
		Payload: body,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.Data(resp.StatusCode, "application/json", resp.Body)
}

// ListFunctions GET /api/functions
func (h *FunctionsHandler) ListFunctions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"functions": h.registry.Names()})
}
