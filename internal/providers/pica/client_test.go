package pica

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ForwardSetsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/passthrough/payouts", r.URL.Path)
		assert.Equal(t, "sk_pica", r.Header.Get("x-pica-secret"))
		assert.Equal(t, "conn_1", r.Header.Get("x-pica-connection-key"))
		assert.Equal(t, "act_42", r.Header.Get("x-pica-action-id"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"amount":10}`, string(body))
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"queued":true}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "sk_pica", "conn_1", time.Second)
	resp, err := c.Forward(context.Background(), ForwardRequest{
		ActionID: "act_42",
		Method:   "post",
		Path:     "/payouts",
		Data:     json.RawMessage(`{"amount":10}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"queued":true}`, string(resp.Body))
}
