package intercom

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

func TestClient_StartConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, apiVersion, r.Header.Get("Intercom-Version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Hi there", body["body"])
		from := body["from"].(map[string]any)
		assert.Equal(t, "user", from["type"])
		assert.Equal(t, "u-1", from["external_id"])

		fmt.Fprint(w, `{"id":"msg_1","conversation_id":"conv_1"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", time.Second)
	conv, err := c.StartConversation(context.Background(), Contact{ExternalID: "u-1"}, "Hi there")
	require.NoError(t, err)
	assert.Equal(t, "conv_1", conv.ConversationID)
}

func TestClient_StartConversationUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", time.Second)
	_, err := c.StartConversation(context.Background(), Contact{ExternalID: "u-1"}, "Hi")
	pErr, ok := providers.AsError(err)
	require.True(t, ok)
	assert.True(t, pErr.Retryable())
}
