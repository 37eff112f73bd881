package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/dedup-service/internal/domain"
)

func TestWebhookAdapterPostsPayload(t *testing.T) {
	var received webhookBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := NewWebhookAdapter(server.URL, time.Second, zap.NewNop())
	err := adapter.Send(context.Background(), Payload{
		Recipient: "ops-room",
		TicketKey: "TCK-AAAA1111",
		Subject:   "Your report has been resolved: signin page down",
		Body:      "fixed",
	})
	require.NoError(t, err)
	assert.Equal(t, "ops-room", received.Recipient)
	assert.Equal(t, "TCK-AAAA1111", received.TicketKey)
	assert.Equal(t, "fixed", received.Body)
}

func TestWebhookAdapterNon2xxIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := NewWebhookAdapter(server.URL, time.Second, zap.NewNop())
	err := adapter.Send(context.Background(), Payload{Recipient: "r"})
	assert.ErrorContains(t, err, "502")
}

func TestWebhookAdapterMissingEndpoint(t *testing.T) {
	adapter := NewWebhookAdapter("", time.Second, zap.NewNop())
	err := adapter.Send(context.Background(), Payload{Recipient: "r"})
	assert.ErrorContains(t, err, "not configured")
}

func TestAdapterSetResolve(t *testing.T) {
	set := NewAdapterSet()
	loopback := NewLoopbackAdapter(domain.ChannelChat, zap.NewNop())
	set.Register(domain.ChannelChat, loopback)

	adapter, err := set.Resolve(domain.ChannelChat)
	require.NoError(t, err)
	assert.Same(t, loopback, adapter)

	_, err = set.Resolve(domain.ChannelThreads)
	assert.ErrorContains(t, err, "no delivery adapter")
}
