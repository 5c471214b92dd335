// Package transport defines the delivery boundary the bus is built on.
//
// The bus consumes exactly three things per inbound message: the raw
// payload string, the declared sender origin, and a handle usable to
// address a reply back to the sender. Everything below that line
// (sockets, framing, reconnects) belongs to the transport implementation.
package transport

import "context"

// Inbound is one delivered message as seen by the bus
type Inbound struct {
	// Data is the raw transport payload, a single string per message
	Data string

	// Origin is the declared origin of the sending context
	Origin string

	// From addresses a reply back to the sender. The bus never owns the
	// sender's lifecycle, only holds the handle for sending.
	From Sender
}

// Sender is an addressable reference to a peer's message-receiving endpoint
type Sender interface {
	// Send transmits one raw message to the peer. At most one
	// transmission per call; no retry on failure.
	Send(ctx context.Context, data string) error
}

// Listener receives inbound messages from the transport's delivery mechanism
type Listener func(msg Inbound)

// Endpoint is one attachable inbound message source. Each bus instance
// holds its own listener registration: construct = attach, teardown =
// detach, so multiple independent bus instances never interfere.
type Endpoint interface {
	// Attach registers the listener. An endpoint carries at most one
	// listener; attaching to an occupied endpoint is an error.
	Attach(listener Listener) error

	// Detach releases the listener registration. Messages arriving after
	// Detach returns are not delivered.
	Detach()
}
