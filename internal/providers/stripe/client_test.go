package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/soundvault/earnings-backend/internal/providers"
)

func TestClient_CreateExternalAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/acct_1/external_accounts", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "wd-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "bank_account", r.PostForm.Get("external_account[object]"))
		assert.Equal(t, "110000000", r.PostForm.Get("external_account[routing_number]"))
		assert.Equal(t, "000123456789", r.PostForm.Get("external_account[account_number]"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"ba_1","last4":"6789"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "sk_test", time.Second)
	resp, err := c.CreateExternalAccount(context.Background(), ExternalAccountParams{
		AccountID:      "acct_1",
		RoutingNumber:  "110000000",
		AccountNumber:  "000123456789",
		IdempotencyKey: "wd-1",
	})
	require.NoError(t, err)

	var ba ExternalAccount
	require.NoError(t, resp.Decode(&ba))
	assert.Equal(t, "ba_1", ba.ID)
}

func TestClient_CreatePayout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payouts", r.URL.Path)
		assert.Equal(t, "acct_1", r.Header.Get("Stripe-Account"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "12050", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "ba_1", r.PostForm.Get("destination"))
		fmt.Fprint(w, `{"id":"po_1","status":"pending"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "sk_test", time.Second)
	resp, err := c.CreatePayout(context.Background(), PayoutParams{
		AccountID: "acct_1", Amount: 12050, Currency: "usd", Destination: "ba_1",
	})
	require.NoError(t, err)

	var po Payout
	require.NoError(t, resp.Decode(&po))
	assert.Equal(t, "po_1", po.ID)
}

func TestClient_TerminalErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"invalid routing number"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "sk_test", time.Second)
	_, err := c.CreatePayout(context.Background(), PayoutParams{Amount: 100, Currency: "usd"})
	require.Error(t, err)

	pErr, ok := providers.AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, pErr.StatusCode)
	assert.False(t, pErr.Retryable())
	assert.Contains(t, pErr.Body, "invalid routing number")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "sk_test", time.Second)
	_, err := c.BalanceTransactions(context.Background(), BalanceTransactionsParams{Limit: 5})
	require.Error(t, err)

	pErr, ok := providers.AsError(err)
	require.True(t, ok)
	assert.True(t, pErr.Retryable())
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RetriedPayoutKeepsGeneratedKey(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		first := len(keys) == 1
		mu.Unlock()
		if first {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"id":"po_1","status":"pending"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "sk_test", time.Second)
	_, err := c.CreatePayout(context.Background(), PayoutParams{AccountID: "acct_1", Amount: 100, Currency: "usd"})
	require.NoError(t, err)

	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])

	_, err = c.CreatePayout(context.Background(), PayoutParams{AccountID: "acct_1", Amount: 100, Currency: "usd"})
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.NotEqual(t, keys[0], keys[2], "each payout gets its own key")
}

func signedHeader(payload []byte, secret string, at time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	}).Header
}

func TestParseEvent(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","type":"payout.failed","data":{"object":{"id":"po_1","status":"failed","failure_code":"account_closed"}}}`)
	header := signedHeader(payload, "whsec", time.Now())

	ev, err := ParseEvent(payload, header, "whsec")
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, "payout.failed", ev.Type)

	var obj PayoutObject
	require.NoError(t, json.Unmarshal(ev.Object, &obj))
	assert.Equal(t, "po_1", obj.ID)
	assert.Equal(t, "account_closed", obj.FailureCode)
}

func TestParseEvent_SignatureErrors(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","type":"payout.paid","data":{"object":{"id":"po_1"}}}`)

	tests := []struct {
		name   string
		header string
	}{
		{"wrong secret", signedHeader(payload, "other", time.Now())},
		{"expired", signedHeader(payload, "whsec", time.Now().Add(-10*time.Minute))},
		{"garbage header", "garbage"},
		{"missing header", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent(payload, tt.header, "whsec")
			require.Error(t, err)
			assert.True(t, IsSignatureError(err))
		})
	}
}

func TestParseEvent_InvalidBodyIsNotSignatureError(t *testing.T) {
	payload := []byte(`{"id":`)
	_, err := ParseEvent(payload, signedHeader(payload, "whsec", time.Now()), "whsec")
	require.Error(t, err)
	assert.False(t, IsSignatureError(err))
}
