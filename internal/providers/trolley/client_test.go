package trolley

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundvault/earnings-backend/internal/providers"
)

func TestClient_UsesBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "access", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/v1/recipients", r.URL.Path)

		var body Recipient
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "artist@label.com", body.Email)
		assert.Equal(t, "individual", body.Type)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"ok":true,"recipient":{"id":"R-1"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "access", "secret", time.Second)
	resp, err := c.CreateRecipient(context.Background(), Recipient{
		Type: "individual", Email: "artist@label.com", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestClient_CreateBatchShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string][]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body["payments"], 1)
		p := body["payments"][0]
		assert.Equal(t, "R-1", p["recipient"].(map[string]any)["id"])
		assert.Equal(t, "25.00", p["sourceAmount"])
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "a", "s", time.Second)
	_, err := c.CreateBatch(context.Background(), []Payment{{RecipientID: "R-1", Amount: "25.00", Currency: "USD"}})
	require.NoError(t, err)
}

func TestClient_ErrorCarriesRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/recipients/R-9/payments", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"ok":false,"errors":[{"code":"not_found"}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "a", "s", time.Second)
	resp, err := c.Payouts(context.Background(), "R-9")
	require.Error(t, err)
	require.NotNil(t, resp)

	pErr, ok := providers.AsError(err)
	require.True(t, ok)
	assert.Equal(t, Provider, pErr.Provider)
	assert.Contains(t, pErr.Body, "not_found")
}
