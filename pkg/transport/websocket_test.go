package transport

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWebsocketPair(t *testing.T) (*WebsocketServer, *WebsocketClient) {
	t.Helper()

	server := NewWebsocketServer(DefaultWebsocketConfig(), nil)
	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)
	t.Cleanup(func() { server.Close() })

	wsURL := strings.Replace(httpServer.URL, "http://", "ws://", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := DialHost(ctx, wsURL, "http://child.test", DefaultWebsocketConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return server, client
}

func waitInbound(t *testing.T, ch <-chan Inbound) Inbound {
	t.Helper()

	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for inbound message")
		return Inbound{}
	}
}

func TestWebsocketChildToHost(t *testing.T) {
	server, client := setupWebsocketPair(t)

	received := make(chan Inbound, 1)
	require.NoError(t, server.Attach(func(msg Inbound) { received <- msg }))

	require.NoError(t, client.Host().Send(context.Background(), `{"type":"IFRAME-LOADED"}`))

	msg := waitInbound(t, received)
	assert.Equal(t, `{"type":"IFRAME-LOADED"}`, msg.Data)
	assert.Equal(t, "http://child.test", msg.Origin, "origin taken from the handshake header")
	assert.NotNil(t, msg.From)
}

func TestWebsocketHostToChild(t *testing.T) {
	server, client := setupWebsocketPair(t)

	upward := make(chan Inbound, 1)
	require.NoError(t, server.Attach(func(msg Inbound) { upward <- msg }))

	downward := make(chan Inbound, 1)
	require.NoError(t, client.Attach(func(msg Inbound) { downward <- msg }))

	// The host replies through the peer handle of the child's first message.
	require.NoError(t, client.Host().Send(context.Background(), `{"type":"IFRAME-LOADED"}`))
	peer := waitInbound(t, upward).From

	require.NoError(t, peer.Send(context.Background(), `{"type":"PING"}`))

	msg := waitInbound(t, downward)
	assert.Equal(t, `{"type":"PING"}`, msg.Data)
	assert.Equal(t, client.HostOrigin(), msg.Origin)
}

func TestWebsocketListenerSlot(t *testing.T) {
	server, client := setupWebsocketPair(t)

	require.NoError(t, server.Attach(func(Inbound) {}))
	assert.Error(t, server.Attach(func(Inbound) {}))
	server.Detach()
	assert.NoError(t, server.Attach(func(Inbound) {}))

	require.NoError(t, client.Attach(func(Inbound) {}))
	assert.Error(t, client.Attach(func(Inbound) {}))
	client.Detach()
	assert.NoError(t, client.Attach(func(Inbound) {}))
}

func TestDialHostInvalidURL(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultWebsocketConfig()

	_, err := DialHost(ctx, "http://not-a-ws-url.test", "http://child.test", cfg, nil)
	assert.Error(t, err, "scheme must be ws or wss")

	_, err = DialHost(ctx, "://bad", "http://child.test", cfg, nil)
	assert.Error(t, err)
}

func TestOriginFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "ws", url: "ws://host.test:8790/bus", want: "http://host.test:8790"},
		{name: "wss", url: "wss://host.test/bus", want: "https://host.test"},
		{name: "http", url: "http://host.test/bus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.url)
			require.NoError(t, err)

			got, err := originFromURL(u)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
