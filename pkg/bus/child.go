// Package bus implements the two roles of the frame message bus.
//
// The child bus runs inside an embedded context, knows exactly one
// trusted host, and owns full per-type dispatch. The host bus is a thin
// multicast and registry primitive over any number of child peers. The
// asymmetry is intentional: the host leaves inbound dispatch policy to
// the embedding application.
package bus

import (
	"context"
	"sync"

	"github.com/framebus/framebus/internal/logger"
	"github.com/framebus/framebus/pkg/origin"
	"github.com/framebus/framebus/pkg/transport"
	"github.com/framebus/framebus/pkg/types"
	"github.com/framebus/framebus/pkg/wire"
)

// subscription is one callback registration under an action type
type subscription struct {
	id       types.ID
	callback types.Callback
}

// Child is the bus role of an embedded context. Construction attaches the
// inbound listener to the endpoint; Close releases it.
type Child struct {
	mu            sync.RWMutex
	endpoint      transport.Endpoint
	host          transport.Sender
	guard         origin.Trusted
	subscriptions map[types.ActionType][]*subscription
	logger        *logger.Logger
	closed        bool
}

// NewChild creates a child bus bound to its endpoint, host sender, and
// single trusted origin, all immutable for the bus's lifetime
func NewChild(endpoint transport.Endpoint, host transport.Sender, trustedOrigin string, log *logger.Logger) (*Child, error) {
	if endpoint == nil {
		return nil, types.NewError(types.ErrCodeInvalid, "endpoint cannot be nil")
	}
	if host == nil {
		return nil, types.NewError(types.ErrCodeInvalid, "host sender cannot be nil")
	}
	if log == nil {
		log = logger.Global()
	}

	guard, err := origin.NewTrusted(trustedOrigin)
	if err != nil {
		return nil, err
	}

	c := &Child{
		endpoint:      endpoint,
		host:          host,
		guard:         guard,
		subscriptions: make(map[types.ActionType][]*subscription),
		logger:        log.With("component", "child_bus"),
	}

	if err := endpoint.Attach(c.handleInbound); err != nil {
		return nil, types.WrapError(types.ErrCodeInternal, "failed to attach inbound listener", err)
	}

	c.logger.Debug("Child bus initialized", "trusted_origin", trustedOrigin)
	return c, nil
}

// RegisterMeInHost announces readiness to the host by sending the reserved
// ready action. Duplicate announcements are deduplicated on the host side.
func (c *Child) RegisterMeInHost(ctx context.Context) error {
	return c.SendToHost(ctx, types.NewAction(types.ActionTypeReady))
}

// SendToHost encodes the action and sends it to the trusted target only.
// At most one transmission per call; no retry on failure.
func (c *Child) SendToHost(ctx context.Context, action types.Action) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return types.NewError(types.ErrCodeUnavailable, "child bus is closed")
	}
	c.mu.RUnlock()

	data, err := wire.Encode(action)
	if err != nil {
		return err
	}

	if err := c.host.Send(ctx, data); err != nil {
		return types.WrapError(types.ErrCodeSendFailed, "failed to send to host", err)
	}

	c.logger.Debug("Action sent to host", "action_type", action.Type)
	return nil
}

// Subscribe registers a callback for an action type and returns its
// cancellation handle. Multiple subscriptions per type are allowed and
// dispatched in registration order; no past messages are replayed.
func (c *Child) Subscribe(actionType types.ActionType, callback types.Callback) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, types.NewError(types.ErrCodeUnavailable, "child bus is closed")
	}
	if actionType == "" {
		return nil, types.NewError(types.ErrCodeInvalid, "action type cannot be empty")
	}
	if callback == nil {
		return nil, types.NewError(types.ErrCodeInvalid, "callback cannot be nil")
	}

	sub := &subscription{
		id:       types.GenerateID(),
		callback: callback,
	}
	c.subscriptions[actionType] = append(c.subscriptions[actionType], sub)

	c.logger.Debug("Subscription created",
		"subscription_id", sub.id,
		"action_type", actionType)

	return func() { c.unsubscribe(actionType, sub.id) }, nil
}

// unsubscribe removes a single registration, leaving siblings for the
// same type intact
func (c *Child) unsubscribe(actionType types.ActionType, subID types.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	subs := c.subscriptions[actionType]
	for i, sub := range subs {
		if sub.id == subID {
			c.subscriptions[actionType] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(c.subscriptions[actionType]) == 0 {
		delete(c.subscriptions, actionType)
	}

	c.logger.Debug("Subscription removed",
		"subscription_id", subID,
		"action_type", actionType)
}

// handleInbound is the transport listener. Every failure path drops the
// message with a diagnostic; nothing on this path panics or propagates
// errors back into the transport.
func (c *Child) handleInbound(msg transport.Inbound) {
	if !c.guard.Allows(msg.Origin) {
		c.logger.Warn("Dropped message from untrusted origin",
			"origin", msg.Origin,
			"trusted_origin", c.guard.Origin())
		return
	}

	action, err := wire.Decode(msg.Data)
	if err != nil {
		c.logger.Error("Dropped undecodable message",
			"origin", msg.Origin,
			"error", err)
		return
	}

	// Snapshot the subscriber list so a cancellation racing this dispatch
	// is deterministic: cancel-before-dispatch excludes the callback,
	// cancel-during-dispatch does not affect the in-progress pass.
	c.mu.RLock()
	closed := c.closed
	subs := append([]*subscription(nil), c.subscriptions[action.Type]...)
	c.mu.RUnlock()

	if closed {
		return
	}

	if len(subs) == 0 {
		c.logger.Warn("No subscribers for action type", "action_type", action.Type)
		return
	}

	c.logger.Debug("Dispatching action",
		"action_type", action.Type,
		"subscriber_count", len(subs))

	for _, sub := range subs {
		sub.callback(action)
	}
}

// Close detaches the inbound listener so no further dispatch occurs
func (c *Child) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return types.NewError(types.ErrCodeInvalid, "child bus already closed")
	}
	c.closed = true
	c.subscriptions = make(map[types.ActionType][]*subscription)
	c.mu.Unlock()

	c.endpoint.Detach()

	c.logger.Debug("Child bus closed")
	return nil
}
