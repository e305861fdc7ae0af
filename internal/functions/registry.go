// Package functions реализует RPC-функции вида "вызвать функцию по имени с JSON телом".
// Большинство функций пробрасывают запрос в сторонний API, подставляя учётные данные.
package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
	"github.com/soundvault/earnings-backend/internal/providers"
)

// Call: один вызов функции.
type Call struct {
	UserID  uuid.UUID
	IsAdmin bool
	Action  string
	Payload json.RawMessage
}

// Function: именованная функция с набором действий.
type Function interface {
	Name() string
	Invoke(ctx context.Context, call Call) (*providers.Response, error)
}

// adminOnly реализуют функции, которые двигают деньги от имени платформы.
type adminOnly interface {
	AdminOnly() bool
}

type Registry struct {
	fns map[string]Function
}

func NewRegistry(fns ...Function) *Registry {
	r := &Registry{fns: make(map[string]Function, len(fns))}
	for _, fn := range fns {
		r.Register(fn)
	}
	return r
}

func (r *Registry) Register(fn Function) {
	r.fns[fn.Name()] = fn
}

// Names возвращает зарегистрированные функции по алфавиту.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke находит функцию по имени и вызывает её.
func (r *Registry) Invoke(ctx context.Context, name string, call Call) (*providers.Response, error) {
	fn, ok := r.fns[name]
	if !ok {
		return nil, apperror.New(apperror.ErrCodeNotFound, fmt.Sprintf("function %q not found", name))
	}
	if a, ok := fn.(adminOnly); ok && a.AdminOnly() && !call.IsAdmin {
		return nil, apperror.ErrForbidden
	}
	return fn.Invoke(ctx, call)
}

func unknownAction(fn, action string) error {
	if action == "" {
		return apperror.Validation("missing required field: action")
	}
	return apperror.New(apperror.ErrCodeBadRequest, fmt.Sprintf("unknown action %q for function %s", action, fn))
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return apperror.Validation("invalid request body")
	}
	return nil
}

// required проверяет пары "имя поля, значение" и сообщает о первом пустом.
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return apperror.Validation("missing required field: %s", pairs[i])
		}
	}
	return nil
}

func jsonResponse(v any) (*providers.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("functions: marshal response: %w", err)
	}
	return &providers.Response{StatusCode: http.StatusOK, Body: body}, nil
}
