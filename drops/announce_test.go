package drops

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crptomonkeys/greenwiz/lib"
)

func TestWebhookAnnouncer(t *testing.T) {
	var got webhookMessage
	status := http.StatusNoContent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	console := NewConsoleAnnouncer(&out, log.NewNopLogger())
	hook := NewWebhookAnnouncer(srv.URL, lib.NewHTTPClient(time.Second), console)

	require.NoError(t, hook.Announce(context.Background(), "#drops", "hello"))
	assert.Equal(t, webhookMessage{Content: "hello", Destination: "#drops"}, got)

	status = http.StatusTooManyRequests
	require.Error(t, hook.Announce(context.Background(), "#drops", "again"))

	require.NoError(t, hook.Deliver(context.Background(), Recipient{ID: "42", Name: "carol"}, "secret link"))
	assert.Equal(t, "--- message for carol (42) ---\nsecret link\n", out.String())
}
