package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/framebus/framebus/internal/logger"
	"github.com/framebus/framebus/pkg/origin"
	"github.com/framebus/framebus/pkg/transport"
	"github.com/framebus/framebus/pkg/types"
	"github.com/framebus/framebus/pkg/wire"
)

// Host is the bus role of the parent context: an origin allow-list, a
// deduplicated registry of child peers, and a broadcast primitive. The
// host does not subscribe by type; inbound dispatch policy belongs to
// the embedding application, which matches the reserved ready type
// itself and hands the event to RegisterIframe.
type Host struct {
	mu     sync.RWMutex
	guard  origin.AllowList
	peers  map[transport.Sender]struct{}
	order  []transport.Sender // registration order, for stable broadcast
	logger *logger.Logger
}

// NewHost creates a host bus with an immutable origin allow-list
func NewHost(allowedOrigins []string, log *logger.Logger) (*Host, error) {
	if log == nil {
		log = logger.Global()
	}

	guard, err := origin.NewAllowList(allowedOrigins...)
	if err != nil {
		return nil, err
	}

	h := &Host{
		guard:  guard,
		peers:  make(map[transport.Sender]struct{}),
		logger: log.With("component", "host_bus"),
	}

	h.logger.Debug("Host bus initialized", "allowed_origins", guard.Size())
	return h, nil
}

// Allowed exposes the origin guard for the application's own inbound
// handling. It must be consulted before any decode or dispatch work.
func (h *Host) Allowed(msgOrigin string) bool {
	return h.guard.Allows(msgOrigin)
}

// RegisterIframe records the sender of a ready announcement as a peer.
// The caller has already matched the reserved ready type; the origin is
// re-checked here so a bypassed guard cannot grow the registry.
// Registering the same handle twice is a no-op, not a duplicate entry.
func (h *Host) RegisterIframe(msg transport.Inbound) error {
	if msg.From == nil {
		return types.NewError(types.ErrCodeInvalid, "event carries no sender handle")
	}

	if !h.guard.Allows(msg.Origin) {
		h.logger.Warn("Refused registration from untrusted origin", "origin", msg.Origin)
		return types.NewError(types.ErrCodeUntrustedOrigin,
			fmt.Sprintf("origin not in allow-list: %s", msg.Origin))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.peers[msg.From]; exists {
		h.logger.Debug("Peer already registered", "origin", msg.Origin)
		return nil
	}

	h.peers[msg.From] = struct{}{}
	h.order = append(h.order, msg.From)

	h.logger.Info("Peer registered",
		"origin", msg.Origin,
		"peer_count", len(h.order))
	return nil
}

// SendToRemote encodes the action once and sends it independently to
// every registered peer. A failure sending to one peer does not prevent
// delivery attempts to the others; failures are folded into a single
// partial-failure error so the caller learns delivery was not guaranteed.
func (h *Host) SendToRemote(ctx context.Context, action types.Action) error {
	data, err := wire.Encode(action)
	if err != nil {
		return err
	}

	h.mu.RLock()
	peers := append([]transport.Sender(nil), h.order...)
	h.mu.RUnlock()

	failed := 0
	for _, peer := range peers {
		if err := peer.Send(ctx, data); err != nil {
			failed++
			h.logger.Error("Failed to send to peer",
				"action_type", action.Type,
				"error", err)
		}
	}

	h.logger.Debug("Action broadcast",
		"action_type", action.Type,
		"peer_count", len(peers),
		"failed", failed)

	if failed > 0 {
		return types.NewError(types.ErrCodePartialFailure,
			fmt.Sprintf("failed to deliver to %d of %d peer(s)", failed, len(peers)))
	}
	return nil
}

// Peers returns the number of registered peers
func (h *Host) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.order)
}
