package transport

import (
	"context"
	"sync"

	"github.com/framebus/framebus/pkg/types"
)

// MemoryEndpoint is a process-local endpoint used for tests and examples.
// Delivery is synchronous and preserves per-sender ordering.
type MemoryEndpoint struct {
	mu       sync.RWMutex
	listener Listener
}

// NewMemoryEndpoint creates an endpoint with no listener attached
func NewMemoryEndpoint() *MemoryEndpoint {
	return &MemoryEndpoint{}
}

// Attach implements Endpoint
func (e *MemoryEndpoint) Attach(listener Listener) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if listener == nil {
		return types.NewError(types.ErrCodeInvalid, "listener cannot be nil")
	}
	if e.listener != nil {
		return types.NewError(types.ErrCodeInvalid, "endpoint already has a listener")
	}

	e.listener = listener
	return nil
}

// Detach implements Endpoint
func (e *MemoryEndpoint) Detach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = nil
}

// Deliver hands one message to the attached listener. Messages arriving
// while no listener is attached are dropped, matching a document that has
// not registered its inbound handler yet.
func (e *MemoryEndpoint) Deliver(msg Inbound) {
	e.mu.RLock()
	listener := e.listener
	e.mu.RUnlock()

	if listener != nil {
		listener(msg)
	}
}

// memorySender delivers into a target endpoint, declaring a fixed origin
// and carrying a reply handle back to the originator.
type memorySender struct {
	target  *MemoryEndpoint
	origin  string
	replyTo Sender
}

// Send implements Sender
func (s *memorySender) Send(ctx context.Context, data string) error {
	if err := ctx.Err(); err != nil {
		return types.WrapError(types.ErrCodeSendFailed, "send canceled", err)
	}

	s.target.mu.RLock()
	listener := s.target.listener
	s.target.mu.RUnlock()

	if listener == nil {
		return types.NewError(types.ErrCodeSendFailed, "target is no longer addressable")
	}

	listener(Inbound{Data: data, Origin: s.origin, From: s.replyTo})
	return nil
}

// Connect wires a host endpoint and a child endpoint together and returns
// the pair of senders crossing between them. A host endpoint may be
// connected to any number of children; each child has exactly one host.
func Connect(host *MemoryEndpoint, hostOrigin string, child *MemoryEndpoint, childOrigin string) (toHost, toChild Sender) {
	up := &memorySender{target: host, origin: childOrigin}
	down := &memorySender{target: child, origin: hostOrigin}
	up.replyTo = down
	down.replyTo = up
	return up, down
}
