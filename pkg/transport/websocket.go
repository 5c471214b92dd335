package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/framebus/framebus/internal/logger"
	"github.com/framebus/framebus/pkg/types"
)

// WebsocketConfig contains tuning for the websocket transport
type WebsocketConfig struct {
	ReadLimit    int64
	WriteTimeout time.Duration
	PingInterval time.Duration
	SendBuffer   int
}

// DefaultWebsocketConfig returns the default websocket transport tuning
func DefaultWebsocketConfig() WebsocketConfig {
	return WebsocketConfig{
		ReadLimit:    1 << 20,
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
		SendBuffer:   256,
	}
}

// WebsocketServer is the host-side endpoint. Each upgraded connection is
// exposed to the bus as a Sender whose declared origin is taken from the
// handshake Origin header. Origin trust is decided by the bus's guard,
// not here, so the upgrader accepts all origins.
type WebsocketServer struct {
	mu       sync.RWMutex
	listener Listener
	peers    map[*wsPeer]struct{}
	closed   bool
	cfg      WebsocketConfig
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewWebsocketServer creates a host-side websocket endpoint
func NewWebsocketServer(cfg WebsocketConfig, log *logger.Logger) *WebsocketServer {
	if log == nil {
		log = logger.Global()
	}
	return &WebsocketServer{
		peers:  make(map[*wsPeer]struct{}),
		cfg:    cfg,
		logger: log.With("component", "ws_server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // trust is decided by the bus's origin guard
			},
		},
	}
}

// Attach implements Endpoint
func (s *WebsocketServer) Attach(listener Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if listener == nil {
		return types.NewError(types.ErrCodeInvalid, "listener cannot be nil")
	}
	if s.listener != nil {
		return types.NewError(types.ErrCodeInvalid, "endpoint already has a listener")
	}

	s.listener = listener
	return nil
}

// Detach implements Endpoint
func (s *WebsocketServer) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = nil
}

// ServeHTTP upgrades an incoming connection and starts its pumps
func (s *WebsocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Websocket upgrade failed", "error", err)
		return
	}

	peer := &wsPeer{
		conn:   conn,
		send:   make(chan string, s.cfg.SendBuffer),
		origin: r.Header.Get("Origin"),
		done:   make(chan struct{}),
		cfg:    s.cfg,
		logger: s.logger,
	}

	s.mu.Lock()
	s.peers[peer] = struct{}{}
	s.mu.Unlock()

	s.logger.Debug("Websocket client connected",
		"remote_addr", r.RemoteAddr,
		"origin", peer.origin)

	go peer.writePump()
	go s.readPump(peer)
}

// readPump reads messages from one peer and hands them to the listener
func (s *WebsocketServer) readPump(peer *wsPeer) {
	defer func() {
		s.mu.Lock()
		delete(s.peers, peer)
		s.mu.Unlock()
		peer.close()
		s.logger.Debug("Websocket client disconnected", "origin", peer.origin)
	}()

	pongWait := 2 * s.cfg.PingInterval
	peer.conn.SetReadLimit(s.cfg.ReadLimit)
	peer.conn.SetReadDeadline(time.Now().Add(pongWait))
	peer.conn.SetPongHandler(func(string) error {
		peer.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := peer.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		s.mu.RLock()
		listener := s.listener
		s.mu.RUnlock()

		if listener != nil {
			listener(Inbound{Data: string(data), Origin: peer.origin, From: peer})
		}
	}
}

// Close shuts down the server endpoint and all connected peers
func (s *WebsocketServer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.NewError(types.ErrCodeInvalid, "server already closed")
	}
	s.closed = true
	s.listener = nil
	peers := make([]*wsPeer, 0, len(s.peers))
	for p := range s.peers {
		peers = append(peers, p)
	}
	s.peers = make(map[*wsPeer]struct{})
	s.mu.Unlock()

	for _, p := range peers {
		p.close()
	}
	return nil
}

// wsPeer is one connected websocket client, usable by the bus as a Sender
type wsPeer struct {
	conn      *websocket.Conn
	send      chan string
	origin    string
	done      chan struct{}
	closeOnce sync.Once
	cfg       WebsocketConfig
	logger    *logger.Logger
}

// Send implements Sender
func (p *wsPeer) Send(ctx context.Context, data string) error {
	select {
	case p.send <- data:
		return nil
	case <-p.done:
		return types.NewError(types.ErrCodeSendFailed, "peer is no longer addressable")
	case <-ctx.Done():
		return types.WrapError(types.ErrCodeSendFailed, "send canceled", ctx.Err())
	}
}

// writePump serializes all writes to the connection
func (p *wsPeer) writePump() {
	ticker := time.NewTicker(p.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case message := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout))
			if err := p.conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
				p.close()
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				p.close()
				return
			}
		case <-p.done:
			p.conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout))
			p.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (p *wsPeer) close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

// WebsocketClient is the child-side endpoint: one dialed connection to the
// host, exposed as the child's single trusted Sender. The host's origin is
// derived from the dialed URL.
type WebsocketClient struct {
	mu         sync.RWMutex
	listener   Listener
	peer       *wsPeer
	hostOrigin string
	closed     bool
	logger     *logger.Logger
}

// DialHost connects to the host's websocket endpoint, declaring the given
// origin in the handshake
func DialHost(ctx context.Context, rawURL, declaredOrigin string, cfg WebsocketConfig, log *logger.Logger) (*WebsocketClient, error) {
	if log == nil {
		log = logger.Global()
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeInvalid, "invalid host URL", err)
	}

	hostOrigin, err := originFromURL(u)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Origin", declaredOrigin)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, header)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeSendFailed, "failed to dial host", err)
	}

	c := &WebsocketClient{
		hostOrigin: hostOrigin,
		logger:     log.With("component", "ws_client"),
	}
	c.peer = &wsPeer{
		conn:   conn,
		send:   make(chan string, cfg.SendBuffer),
		origin: hostOrigin,
		done:   make(chan struct{}),
		cfg:    cfg,
		logger: c.logger,
	}

	go c.peer.writePump()
	go c.readPump(cfg)

	c.logger.Debug("Connected to host", "url", rawURL, "host_origin", hostOrigin)
	return c, nil
}

// originFromURL maps a websocket URL to the origin of the document serving it
func originFromURL(u *url.URL) (string, error) {
	switch u.Scheme {
	case "ws":
		return "http://" + u.Host, nil
	case "wss":
		return "https://" + u.Host, nil
	default:
		return "", types.NewError(types.ErrCodeInvalid,
			fmt.Sprintf("unsupported scheme: %s (must be ws or wss)", u.Scheme))
	}
}

// Attach implements Endpoint
func (c *WebsocketClient) Attach(listener Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if listener == nil {
		return types.NewError(types.ErrCodeInvalid, "listener cannot be nil")
	}
	if c.listener != nil {
		return types.NewError(types.ErrCodeInvalid, "endpoint already has a listener")
	}

	c.listener = listener
	return nil
}

// Detach implements Endpoint
func (c *WebsocketClient) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = nil
}

// Host returns the sender addressing the host
func (c *WebsocketClient) Host() Sender {
	return c.peer
}

// HostOrigin returns the origin derived from the dialed URL, suitable as
// the child bus's trusted origin
func (c *WebsocketClient) HostOrigin() string {
	return c.hostOrigin
}

// readPump reads messages from the host and hands them to the listener
func (c *WebsocketClient) readPump(cfg WebsocketConfig) {
	defer c.peer.close()

	pongWait := 2 * cfg.PingInterval
	c.peer.conn.SetReadLimit(cfg.ReadLimit)
	c.peer.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.peer.conn.SetPongHandler(func(string) error {
		c.peer.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := c.peer.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		c.mu.RLock()
		listener := c.listener
		c.mu.RUnlock()

		if listener != nil {
			listener(Inbound{Data: string(data), Origin: c.hostOrigin, From: c.peer})
		}
	}
}

// Close shuts down the connection to the host
func (c *WebsocketClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return types.NewError(types.ErrCodeInvalid, "client already closed")
	}
	c.closed = true
	c.listener = nil
	c.mu.Unlock()

	c.peer.close()
	return nil
}
