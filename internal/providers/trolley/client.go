// Package trolley: клиент API массовых выплат Trolley (Basic auth).
package trolley

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/soundvault/earnings-backend/internal/providers"
)

const (
	Provider       = "trolley"
	DefaultBaseURL = "https://api.trolley.com"
)

type Client struct {
	rest *resty.Client
}

func New(baseURL, accessKey, secretKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rest := providers.NewRestClient(baseURL, timeout, 0).
		SetBasicAuth(accessKey, secretKey).
		SetHeader("Content-Type", "application/json")
	return &Client{rest: rest}
}

type Recipient struct {
	Type      string `json:"type"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (c *Client) CreateRecipient(ctx context.Context, r Recipient) (*providers.Response, error) {
	req := c.rest.R().SetContext(ctx).SetBody(r)
	return providers.Execute(Provider, req, http.MethodPost, "/v1/recipients")
}

type Payment struct {
	RecipientID string `json:"recipient_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Memo        string `json:"memo,omitempty"`
}

type batchPayment struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	SourceAmount   string `json:"sourceAmount"`
	SourceCurrency string `json:"sourceCurrency"`
	Memo           string `json:"memo,omitempty"`
}

// CreateBatch создаёт пакет выплат нескольким получателям.
func (c *Client) CreateBatch(ctx context.Context, payments []Payment) (*providers.Response, error) {
	body := struct {
		Payments []batchPayment `json:"payments"`
	}{Payments: make([]batchPayment, len(payments))}

	for i, p := range payments {
		bp := batchPayment{SourceAmount: p.Amount, SourceCurrency: p.Currency, Memo: p.Memo}
		bp.Recipient.ID = p.RecipientID
		body.Payments[i] = bp
	}

	req := c.rest.R().SetContext(ctx).SetBody(body)
	return providers.Execute(Provider, req, http.MethodPost, "/v1/batches")
}

// Payouts возвращает выплаты получателя.
func (c *Client) Payouts(ctx context.Context, recipientID string) (*providers.Response, error) {
	req := c.rest.R().SetContext(ctx).SetPathParam("recipient", recipientID)
	return providers.Execute(Provider, req, http.MethodGet, "/v1/recipients/{recipient}/payments")
}
