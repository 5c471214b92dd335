package bus

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framebus/framebus/pkg/transport"
	"github.com/framebus/framebus/pkg/types"
)

// stubSender records sent messages and can be made to fail
type stubSender struct {
	mu       sync.Mutex
	sent     []string
	failWith error
}

func (s *stubSender) Send(ctx context.Context, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.sent = append(s.sent, data)
	return nil
}

func (s *stubSender) sentMessages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

const trustedOrigin = "http://host.test"

func setupChild(t *testing.T) (*Child, *transport.MemoryEndpoint, *stubSender) {
	t.Helper()

	endpoint := transport.NewMemoryEndpoint()
	host := &stubSender{}

	child, err := NewChild(endpoint, host, trustedOrigin, nil)
	require.NoError(t, err)

	return child, endpoint, host
}

func TestNewChildValidation(t *testing.T) {
	endpoint := transport.NewMemoryEndpoint()
	host := &stubSender{}

	tests := []struct {
		name string
		run  func() error
	}{
		{
			name: "nil endpoint",
			run: func() error {
				_, err := NewChild(nil, host, trustedOrigin, nil)
				return err
			},
		},
		{
			name: "nil host sender",
			run: func() error {
				_, err := NewChild(endpoint, nil, trustedOrigin, nil)
				return err
			},
		},
		{
			name: "empty trusted origin",
			run: func() error {
				_, err := NewChild(endpoint, host, "", nil)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.run())
		})
	}
}

func TestNewChildAttachesListener(t *testing.T) {
	child, endpoint, _ := setupChild(t)
	defer child.Close()

	// The construction owns the endpoint's listener slot.
	assert.Error(t, endpoint.Attach(func(transport.Inbound) {}))
}

func TestRegisterMeInHost(t *testing.T) {
	child, _, host := setupChild(t)
	defer child.Close()

	require.NoError(t, child.RegisterMeInHost(context.Background()))

	sent := host.sentMessages()
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"type":"IFRAME-LOADED"}`, sent[0])
}

func TestSendToHost(t *testing.T) {
	child, _, host := setupChild(t)
	defer child.Close()

	action := types.NewActionWithPayload("SAVE", json.RawMessage(`{"doc":7}`))
	require.NoError(t, child.SendToHost(context.Background(), action))

	sent := host.sentMessages()
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"type":"SAVE","payload":{"doc":7}}`, sent[0])
}

func TestSendToHostFailure(t *testing.T) {
	child, _, host := setupChild(t)
	defer child.Close()

	host.failWith = types.NewError(types.ErrCodeSendFailed, "gone")

	err := child.SendToHost(context.Background(), types.NewAction("PING"))
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeSendFailed, types.GetErrorCode(err))
}

func TestSubscribeFanOutOrdering(t *testing.T) {
	child, endpoint, _ := setupChild(t)
	defer child.Close()

	var calls []string
	_, err := child.Subscribe("PING", func(types.Action) { calls = append(calls, "c1") })
	require.NoError(t, err)
	_, err = child.Subscribe("PING", func(types.Action) { calls = append(calls, "c2") })
	require.NoError(t, err)

	endpoint.Deliver(transport.Inbound{Data: `{"type":"PING"}`, Origin: trustedOrigin})

	assert.Equal(t, []string{"c1", "c2"}, calls, "callbacks run in registration order, each exactly once")
}

func TestSubscriptionCancellation(t *testing.T) {
	child, endpoint, _ := setupChild(t)
	defer child.Close()

	var calls []string
	cancel1, err := child.Subscribe("PING", func(types.Action) { calls = append(calls, "c1") })
	require.NoError(t, err)
	_, err = child.Subscribe("PING", func(types.Action) { calls = append(calls, "c2") })
	require.NoError(t, err)

	cancel1()
	endpoint.Deliver(transport.Inbound{Data: `{"type":"PING"}`, Origin: trustedOrigin})

	assert.Equal(t, []string{"c2"}, calls, "canceled callback excluded, sibling intact")

	// Canceling twice is harmless.
	cancel1()
}

func TestSubscriberReceivesDecodedAction(t *testing.T) {
	child, endpoint, _ := setupChild(t)
	defer child.Close()

	var got types.Action
	_, err := child.Subscribe("USER-UPDATED", func(a types.Action) { got = a })
	require.NoError(t, err)

	endpoint.Deliver(transport.Inbound{
		Data:   `{"type":"USER-UPDATED","payload":{"id":42}}`,
		Origin: trustedOrigin,
	})

	assert.Equal(t, types.ActionType("USER-UPDATED"), got.Type)
	assert.JSONEq(t, `{"id":42}`, string(got.Payload))
}

func TestOriginExclusion(t *testing.T) {
	child, endpoint, _ := setupChild(t)
	defer child.Close()

	invoked := false
	_, err := child.Subscribe("PING", func(types.Action) { invoked = true })
	require.NoError(t, err)

	endpoint.Deliver(transport.Inbound{Data: `{"type":"PING"}`, Origin: "http://evil.test"})

	assert.False(t, invoked, "untrusted origin must never reach subscribers")
}

func TestMalformedPayloadDropped(t *testing.T) {
	child, endpoint, _ := setupChild(t)
	defer child.Close()

	invoked := false
	_, err := child.Subscribe("PING", func(types.Action) { invoked = true })
	require.NoError(t, err)

	endpoint.Deliver(transport.Inbound{Data: "not json", Origin: trustedOrigin})

	assert.False(t, invoked)
}

func TestUnknownTypeSilentlyDropped(t *testing.T) {
	child, endpoint, _ := setupChild(t)
	defer child.Close()

	// No subscribers at all; must not panic.
	endpoint.Deliver(transport.Inbound{Data: `{"type":"NOBODY-HOME"}`, Origin: trustedOrigin})
}

func TestCloseStopsDispatch(t *testing.T) {
	child, endpoint, _ := setupChild(t)

	invoked := false
	_, err := child.Subscribe("PING", func(types.Action) { invoked = true })
	require.NoError(t, err)

	require.NoError(t, child.Close())

	endpoint.Deliver(transport.Inbound{Data: `{"type":"PING"}`, Origin: trustedOrigin})
	assert.False(t, invoked, "no dispatch after teardown")
}

func TestClosedChildOperations(t *testing.T) {
	child, _, _ := setupChild(t)
	require.NoError(t, child.Close())

	_, err := child.Subscribe("PING", func(types.Action) {})
	assert.Error(t, err)

	err = child.SendToHost(context.Background(), types.NewAction("PING"))
	assert.Error(t, err)

	assert.Error(t, child.Close(), "double close is an error")
}

func TestCloseFreesEndpoint(t *testing.T) {
	child, endpoint, _ := setupChild(t)
	require.NoError(t, child.Close())

	// A new bus instance can take over the endpoint after teardown.
	host := &stubSender{}
	next, err := NewChild(endpoint, host, trustedOrigin, nil)
	require.NoError(t, err)
	defer next.Close()
}
