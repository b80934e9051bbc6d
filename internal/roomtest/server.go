// Package roomtest provides a loopback room server speaking the room protocol, for tests and
// examples.
package roomtest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/roomlink"
	"github.com/luciancaetano/roomlink/internal/protocol"
)

// RateLimitConfig defines rate limiting configuration for peers
type RateLimitConfig struct {
	// MessagesPerSecond defines how many messages a peer can send per second
	MessagesPerSecond rate.Limit
	// Burst defines the maximum burst size (token bucket capacity)
	Burst int
	// Enabled determines if rate limiting is active
	Enabled bool
}

// DefaultRateLimitConfig allows 100 messages per second with a burst of 200.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MessagesPerSecond: 100,
		Burst:             200,
		Enabled:           true,
	}
}

// NoRateLimit returns a configuration with rate limiting disabled
func NoRateLimit() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled: false,
	}
}

// HandlerFunc handles one client message. Handlers run on the peer read goroutine, in frame
// order.
type HandlerFunc func(p *Peer, m protocol.ClientMessage)

// Config configures a loopback server.
type Config struct {
	RateLimitConfig *RateLimitConfig
	// OnConnect is called after the handshake, before the peer read loop starts.
	OnConnect func(p *Peer)
	// OnDisconnect is called once the peer is gone. voluntary is true when the client closed.
	OnDisconnect func(p *Peer, voluntary bool)
	Logger       *zap.Logger
}

// DefaultConfig returns a configuration with the default rate limit.
func DefaultConfig() Config {
	return Config{RateLimitConfig: DefaultRateLimitConfig()}
}

// Server is a loopback room server listening on a random local port.
type Server struct {
	cfg      Config
	logger   *zap.Logger
	srv      *httptest.Server
	upgrader websocket.Upgrader

	peers    sync.Map // map[string]*Peer
	handlers sync.Map // map[string]HandlerFunc
	accepted chan *Peer
}

// New starts a loopback server. Callers must Close it.
func New(cfg Config) *Server {
	if cfg.RateLimitConfig == nil {
		cfg.RateLimitConfig = DefaultRateLimitConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		accepted: make(chan *Peer, 16),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/"+roomlink.RoomPath, s.handleWebSocket)
	s.srv = httptest.NewServer(mux)
	return s
}

// URL returns the http base URL of the server, usable as a pusher URL.
func (s *Server) URL() string {
	return s.srv.URL
}

// Handle registers h for the client message kind, e.g. "queryMessage". Messages without a
// handler are queued in the peer inbox.
func (s *Server) Handle(kind string, h HandlerFunc) {
	s.handlers.Store(kind, h)
}

// Accept waits for the next peer to connect.
func (s *Server) Accept(ctx context.Context) (*Peer, error) {
	select {
	case p := <-s.accepted:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Peer returns a connected peer by id.
func (s *Server) Peer(id string) (*Peer, bool) {
	if p, ok := s.peers.Load(id); ok {
		return p.(*Peer), true
	}
	return nil, false
}

// Broadcast sends m to every connected peer.
func (s *Server) Broadcast(m protocol.ServerMessage) {
	s.peers.Range(func(_, value any) bool {
		_ = value.(*Peer).Send(m)
		return true
	})
}

// Close disconnects every peer and stops the server.
func (s *Server) Close() {
	s.peers.Range(func(_, value any) bool {
		_ = value.(*Peer).Close(websocket.CloseGoingAway, "server shutdown")
		return true
	})
	s.srv.Close()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	p := newPeer(conn, r.URL.Query(), s.cfg.RateLimitConfig, s.logger)
	s.peers.Store(p.ID(), p)

	go s.handlePeer(p)
}

func (s *Server) handlePeer(p *Peer) {
	defer func() {
		voluntary := p.closedByClient()
		if s.cfg.OnDisconnect != nil {
			s.cfg.OnDisconnect(p, voluntary)
		}
		s.peers.Delete(p.ID())
		_ = p.Close(websocket.CloseNormalClosure, "")
		close(p.inbox)
	}()

	if s.cfg.OnConnect != nil {
		s.cfg.OnConnect(p)
	}
	select {
	case s.accepted <- p:
	default:
		s.logger.Debug("accept queue full, peer not announced", zap.String("peer_id", p.ID()))
	}

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				p.setClosedByClient()
			}
			return
		}

		if p.limiter != nil && !p.limiter.Allow() {
			s.logger.Warn("rate limit exceeded", zap.String("peer_id", p.ID()))
			_ = p.Close(websocket.ClosePolicyViolation, "Rate limit exceeded")
			return
		}

		m, err := protocol.DecodeClient(data)
		if err != nil {
			_ = p.Close(websocket.CloseProtocolError, "invalid message format")
			return
		}
		if m == nil {
			continue
		}

		if h, ok := s.handlers.Load(protocol.ClientKind(m)); ok {
			h.(HandlerFunc)(p, m)
			continue
		}
		select {
		case p.inbox <- m:
		default:
			s.logger.Warn("peer inbox full, message dropped", zap.String("kind", protocol.ClientKind(m)))
		}
	}
}

// Peer is one client connected to the loopback server.
type Peer struct {
	id      string
	conn    *websocket.Conn
	params  url.Values
	limiter *rate.Limiter
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	sendCh chan []byte
	inbox  chan protocol.ClientMessage

	mu              sync.RWMutex
	closed          bool
	clientInitiated bool
}

func newPeer(conn *websocket.Conn, params url.Values, cfg *RateLimitConfig, logger *zap.Logger) *Peer {
	ctx, cancel := context.WithCancel(context.Background())

	var limiter *rate.Limiter
	if cfg != nil && cfg.Enabled {
		limiter = rate.NewLimiter(cfg.MessagesPerSecond, cfg.Burst)
	}

	p := &Peer{
		id:      uuid.New().String(),
		conn:    conn,
		params:  params,
		limiter: limiter,
		ctx:     ctx,
		cancel:  cancel,
		sendCh:  make(chan []byte, 256),
		inbox:   make(chan protocol.ClientMessage, 1024),
	}
	p.logger = logger.With(zap.String("peer_id", p.id))

	go p.writePump()
	return p
}

func (p *Peer) ID() string {
	return p.id
}

// Params returns the query parameters of the room URL the peer dialed.
func (p *Peer) Params() url.Values {
	return p.params
}

// Done is closed when the peer connection is closing.
func (p *Peer) Done() <-chan struct{} {
	return p.ctx.Done()
}

// Send encodes and queues a server message.
func (p *Peer) Send(m protocol.ServerMessage) error {
	data, err := protocol.EncodeServer(m)
	if err != nil {
		return fmt.Errorf("%w: %w", roomlink.ErrFailedToEncode, err)
	}
	return p.SendRaw(data)
}

// SendRaw queues a frame as is.
func (p *Peer) SendRaw(data []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return roomlink.ErrConnectionClosed
	}
	select {
	case p.sendCh <- data:
		return nil
	default:
		return roomlink.ErrSendBufferFull
	}
}

// Next returns the next client message that no handler consumed.
func (p *Peer) Next(ctx context.Context) (protocol.ClientMessage, error) {
	select {
	case m, ok := <-p.inbox:
		if !ok {
			return nil, roomlink.ErrConnectionClosed
		}
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes the connection with a close code and optional reason.
func (p *Peer) Close(code int, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.cancel()

	message := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(time.Second)
	_ = p.conn.WriteControl(websocket.CloseMessage, message, deadline)

	close(p.sendCh)
	return p.conn.Close()
}

// Kill drops the TCP connection without a close frame.
func (p *Peer) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.cancel()
	close(p.sendCh)
	return p.conn.UnderlyingConn().Close()
}

func (p *Peer) closedByClient() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clientInitiated
}

func (p *Peer) setClosedByClient() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.clientInitiated = true
	}
}

// writePump pumps messages from the send channel to the websocket connection
func (p *Peer) writePump() {
	for {
		select {
		case message, ok := <-p.sendCh:
			if !ok {
				return
			}
			_ = p.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := p.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				p.logger.Debug("write failed", zap.Error(err))
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}
