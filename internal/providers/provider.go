// Package providers содержит общие части HTTP клиентов платёжных и сервисных API.
package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Error: неуспешный ответ стороннего API или сетевой сбой (StatusCode == 0).
type Error struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable сообщает, что сбой временный: сеть, 429 или 5xx.
// Остальные 4xx считаются окончательным отказом.
func (e *Error) Retryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// AsError извлекает *Error из цепочки.
func AsError(err error) (*Error, bool) {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}

// Response: ответ стороннего API без преобразований.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode разбирает тело ответа как JSON.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}

// NewRestClient создаёт resty клиент с базовым адресом и таймаутом.
// retries > 0 включает повтор при сетевых ошибках, 429 и 5xx; допустимо только
// для запросов с ключом идемпотентности.
func NewRestClient(baseURL string, timeout time.Duration, retries int) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	if retries > 0 {
		client.
			SetRetryCount(retries).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(3 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil || r == nil {
					return true
				}
				sc := r.StatusCode()
				return sc == http.StatusTooManyRequests || sc >= http.StatusInternalServerError
			})
	}

	return client
}

// Execute выполняет запрос и превращает не-2xx ответ в *Error.
func Execute(provider string, req *resty.Request, method, url string) (*Response, error) {
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, &Error{Provider: provider, Err: err}
	}

	out := &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}
	if !resp.IsSuccess() {
		return out, &Error{Provider: provider, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return out, nil
}
