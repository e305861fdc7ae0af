// Package stripe: клиент Stripe Connect для внешних банковских счетов и выплат.
package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/soundvault/earnings-backend/internal/providers"
)

const (
	Provider       = "stripe"
	DefaultBaseURL = "https://api.stripe.com"
)

type Client struct {
	rest *resty.Client
}

// New создаёт клиент. Запросы повторяются при временных сбоях, поэтому каждый
// POST уходит с Idempotency-Key: переданным вызывающим кодом или сгенерированным.
func New(baseURL, secretKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rest := providers.NewRestClient(baseURL, timeout, 2).SetAuthToken(secretKey)
	return &Client{rest: rest}
}

type ExternalAccountParams struct {
	AccountID         string
	RoutingNumber     string
	AccountNumber     string
	AccountHolderName string
	Country           string
	Currency          string
	IdempotencyKey    string
}

// ExternalAccount: нужные поля ответа Stripe.
type ExternalAccount struct {
	ID    string `json:"id"`
	Last4 string `json:"last4"`
}

// CreateExternalAccount регистрирует банковский счёт получателя в подключённом аккаунте.
func (c *Client) CreateExternalAccount(ctx context.Context, p ExternalAccountParams) (*providers.Response, error) {
	country := p.Country
	if country == "" {
		country = "US"
	}
	currency := p.Currency
	if currency == "" {
		currency = "usd"
	}

	form := map[string]string{
		"external_account[object]":         "bank_account",
		"external_account[country]":        country,
		"external_account[currency]":       currency,
		"external_account[routing_number]": p.RoutingNumber,
		"external_account[account_number]": p.AccountNumber,
	}
	if p.AccountHolderName != "" {
		form["external_account[account_holder_name]"] = p.AccountHolderName
	}

	req := c.rest.R().
		SetContext(ctx).
		SetPathParam("account", p.AccountID).
		SetFormData(form)
	req.SetHeader("Idempotency-Key", idempotencyKey(p.IdempotencyKey))

	return providers.Execute(Provider, req, http.MethodPost, "/v1/accounts/{account}/external_accounts")
}

type PayoutParams struct {
	AccountID string
	// Amount в минимальных единицах валюты (центах).
	Amount         int64
	Currency       string
	Destination    string
	Description    string
	IdempotencyKey string
}

type Payout struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreatePayout создаёт выплату с баланса подключённого аккаунта на внешний счёт.
func (c *Client) CreatePayout(ctx context.Context, p PayoutParams) (*providers.Response, error) {
	form := map[string]string{
		"amount":   strconv.FormatInt(p.Amount, 10),
		"currency": p.Currency,
	}
	if p.Destination != "" {
		form["destination"] = p.Destination
	}
	if p.Description != "" {
		form["description"] = p.Description
	}

	req := c.rest.R().
		SetContext(ctx).
		SetFormData(form)
	if p.AccountID != "" {
		req.SetHeader("Stripe-Account", p.AccountID)
	}
	req.SetHeader("Idempotency-Key", idempotencyKey(p.IdempotencyKey))

	return providers.Execute(Provider, req, http.MethodPost, "/v1/payouts")
}

type BalanceTransactionsParams struct {
	AccountID string
	Limit     int
	Payout    string
}

// BalanceTransactions возвращает движения по балансу, опционально по одной выплате.
func (c *Client) BalanceTransactions(ctx context.Context, p BalanceTransactionsParams) (*providers.Response, error) {
	req := c.rest.R().SetContext(ctx)
	if p.AccountID != "" {
		req.SetHeader("Stripe-Account", p.AccountID)
	}
	if p.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(p.Limit))
	}
	if p.Payout != "" {
		req.SetQueryParam("payout", p.Payout)
	}

	return providers.Execute(Provider, req, http.MethodGet, "/v1/balance_transactions")
}

// idempotencyKey возвращает ключ вызывающего кода или новый. Повторы resty
// отправляют тот же запрос, так что ключ общий для всех попыток.
func idempotencyKey(key string) string {
	if key != "" {
		return key
	}
	return uuid.NewString()
}

// ErrorMessage достаёт error.message из тела ошибки Stripe; иначе возвращает тело как есть.
func ErrorMessage(body string) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return body
}
