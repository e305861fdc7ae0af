// Package pica: passthrough к интеграциям через PICA.
package pica

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/soundvault/earnings-backend/internal/providers"
)

const (
	Provider       = "pica"
	DefaultBaseURL = "https://api.picaos.com"
)

type Client struct {
	rest *resty.Client
}

func New(baseURL, secretKey, connectionKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rest := providers.NewRestClient(baseURL, timeout, 0).
		SetHeader("x-pica-secret", secretKey).
		SetHeader("x-pica-connection-key", connectionKey)
	return &Client{rest: rest}
}

type ForwardRequest struct {
	ActionID string
	Method   string
	Path     string
	Data     json.RawMessage
}

// Forward отправляет запрос к API за PICA; action id выбирает операцию на стороне PICA.
func (c *Client) Forward(ctx context.Context, fr ForwardRequest) (*providers.Response, error) {
	method := strings.ToUpper(fr.Method)
	if method == "" {
		method = http.MethodGet
	}

	req := c.rest.R().
		SetContext(ctx).
		SetHeader("x-pica-action-id", fr.ActionID)
	if len(fr.Data) > 0 && method != http.MethodGet {
		req.SetHeader("Content-Type", "application/json").SetBody([]byte(fr.Data))
	}

	return providers.Execute(Provider, req, method, "/v1/passthrough/"+strings.TrimPrefix(fr.Path, "/"))
}
