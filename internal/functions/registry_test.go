package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
	"github.com/soundvault/earnings-backend/internal/providers"
	"github.com/soundvault/earnings-backend/internal/providers/pica"
	"github.com/soundvault/earnings-backend/internal/providers/stripe"
	"github.com/soundvault/earnings-backend/internal/providers/trolley"
	"github.com/soundvault/earnings-backend/internal/service"
)

func newTestRegistry(t *testing.T, handler http.HandlerFunc) *Registry {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log, _ := logtest.NewNullLogger()
	return NewRegistry(
		NewStripePayouts(stripe.New(srv.URL, "sk_test", time.Second)),
		NewTrolley(trolley.New(srv.URL, "access", "secret", time.Second)),
		NewPicaPassthrough(pica.New(srv.URL, "sk_pica", "conn", time.Second)),
		NewRoyaltyAdvances(service.NewRoyaltyService(service.NewStaticAdvanceSource(), nil, log)),
	)
}

func adminCall(action, payload string) Call {
	return Call{UserID: uuid.New(), IsAdmin: true, Action: action, Payload: json.RawMessage(payload)}
}

func TestRegistry_Names(t *testing.T) {
	r := newTestRegistry(t, nil)
	assert.Equal(t, []string{"pica-passthrough", "royalty-advances", "stripe-payouts", "trolley"}, r.Names())
}

func TestRegistry_UnknownFunction(t *testing.T) {
	r := newTestRegistry(t, nil)
	_, err := r.Invoke(context.Background(), "mastering", adminCall("run", `{}`))
	assert.True(t, apperror.IsNotFound(err))
}

func TestRegistry_UnknownAndMissingAction(t *testing.T) {
	r := newTestRegistry(t, nil)

	_, err := r.Invoke(context.Background(), "stripe-payouts", adminCall("refund", `{}`))
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)

	_, err = r.Invoke(context.Background(), "trolley", adminCall("", `{}`))
	assert.True(t, apperror.IsValidation(err))
}

func TestRegistry_MissingFields(t *testing.T) {
	r := newTestRegistry(t, nil)
	ctx := context.Background()

	tests := []struct {
		fn, action, payload, field string
	}{
		{"stripe-payouts", "create_external_account", `{"account_id":"acct_1","routing_number":"110000000"}`, "account_number"},
		{"stripe-payouts", "create_payout", `{"account_id":"acct_1","currency":"usd"}`, "amount"},
		{"trolley", "create_recipient", `{"email":"a@b.c","first_name":"Ada"}`, "last_name"},
		{"trolley", "create_batch", `{"payments":[]}`, "payments"},
		{"trolley", "get_payouts", `{}`, "recipient_id"},
		{"pica-passthrough", "", `{"path":"/payouts"}`, "action_id"},
	}

	for _, tt := range tests {
		t.Run(tt.fn+"/"+tt.action, func(t *testing.T) {
			_, err := r.Invoke(ctx, tt.fn, adminCall(tt.action, tt.payload))
			require.True(t, apperror.IsValidation(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestRegistry_MoneyMovingFunctionsRequireAdmin(t *testing.T) {
	r := newTestRegistry(t, nil)
	call := Call{UserID: uuid.New(), Action: "get_payouts", Payload: json.RawMessage(`{"recipient_id":"R-1"}`)}

	_, err := r.Invoke(context.Background(), "trolley", call)
	assert.True(t, apperror.IsForbidden(err))
}

func TestRegistry_ForwardsProviderResponse(t *testing.T) {
	r := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/v1/batches", req.URL.Path)
		var body map[string][]map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "25.50", body["payments"][0]["sourceAmount"])
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"ok":true,"batch":{"id":"B-1"}}`)
	})

	resp, err := r.Invoke(context.Background(), "trolley", adminCall("create_batch",
		`{"payments":[{"recipient_id":"R-1","amount":25.5,"currency":"USD"}]}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true,"batch":{"id":"B-1"}}`, string(resp.Body))
}

func TestRegistry_ProviderErrorKeepsRawBody(t *testing.T) {
	r := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"message":"insufficient funds in Stripe account"}}`)
	})

	_, err := r.Invoke(context.Background(), "stripe-payouts", adminCall("create_payout",
		`{"account_id":"acct_1","amount":1000,"currency":"usd"}`))
	pErr, ok := providers.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "stripe", pErr.Provider)
	assert.Contains(t, pErr.Body, "insufficient funds")
}

func TestRegistry_StripePayoutWithoutKeyIsSentOnce(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	r := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/v1/payouts", req.URL.Path)
		mu.Lock()
		keys = append(keys, req.Header.Get("Idempotency-Key"))
		first := len(keys) == 1
		mu.Unlock()
		if first {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"id":"po_1","status":"pending"}`)
	})

	resp, err := r.Invoke(context.Background(), "stripe-payouts", adminCall("create_payout",
		`{"account_id":"acct_1","amount":1000,"currency":"usd"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Повтор после 502 несёт тот же ключ, и Stripe не создаст вторую выплату.
	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])
}

func TestRegistry_RoyaltyAdvancesList(t *testing.T) {
	r := newTestRegistry(t, nil)

	resp, err := r.Invoke(context.Background(), "royalty-advances", Call{UserID: uuid.New(), Action: "list"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ledger service.Ledger
	require.NoError(t, resp.Decode(&ledger))
	assert.Len(t, ledger.Advances, 2)
	assert.LessOrEqual(t, len(ledger.RecentRepayments), service.RecentRepaymentsLimit)
}
