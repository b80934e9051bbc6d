// Package websocket is the transport of a room connection: a gorilla/websocket client socket with
// a buffered write pump and an idempotent close that remembers how the socket ended.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/luciancaetano/roomlink"
)

// ReadyState mirrors the ready state of a browser WebSocket.
type ReadyState int32

const (
	Connecting ReadyState = iota
	Open
	Closing
	Closed
)

func (s ReadyState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("ReadyState(%d)", int32(s))
	}
}

// CloseAbnormal is reported when the socket ended without a close frame.
const CloseAbnormal = websocket.CloseAbnormalClosure

// CloseStatus describes how a socket ended.
type CloseStatus struct {
	Code     int
	Reason   string
	WasClean bool
}

// Config tunes the socket. Zero fields take the DefaultConfig values.
type Config struct {
	// SendBuffer is the number of frames queued for the write pump before sends are dropped.
	SendBuffer       int
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
	// KeepAlive is the interval of transport-level pings. Negative disables them.
	KeepAlive time.Duration
	ReadLimit int64
	Header    http.Header
}

// DefaultConfig returns the default socket configuration.
func DefaultConfig() Config {
	return Config{
		SendBuffer:       256,
		WriteTimeout:     10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		KeepAlive:        54 * time.Second,
		ReadLimit:        10 * 1024 * 1024,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = d.KeepAlive
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = d.ReadLimit
	}
	return c
}

// Socket is a client WebSocket. Read must be called from a single goroutine; Send and Close are
// safe for concurrent use.
type Socket struct {
	id     string
	conn   *websocket.Conn
	cfg    Config
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	sendCh chan []byte

	state atomic.Int32

	mu     sync.RWMutex
	closed bool
	status *CloseStatus
}

// Dial opens a socket to url. The context bounds the handshake only.
func Dial(ctx context.Context, url string, cfg Config, logger *zap.Logger) (*Socket, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, cfg.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return newSocket(conn, cfg, logger), nil
}

func newSocket(conn *websocket.Conn, cfg Config, logger *zap.Logger) *Socket {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Socket{
		id:     uuid.New().String(),
		conn:   conn,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		sendCh: make(chan []byte, cfg.SendBuffer),
	}
	s.logger = logger.With(zap.String("socket_id", s.id))
	s.state.Store(int32(Open))

	conn.SetReadLimit(cfg.ReadLimit)
	conn.SetCloseHandler(func(code int, text string) error {
		s.recordStatus(CloseStatus{Code: code, Reason: text, WasClean: true})
		s.state.Store(int32(Closing))
		message := websocket.FormatCloseMessage(code, "")
		_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		return nil
	})

	go s.writePump()
	return s
}

// ID returns a unique identifier of the socket.
func (s *Socket) ID() string {
	return s.id
}

func (s *Socket) ReadyState() ReadyState {
	return ReadyState(s.state.Load())
}

// Send queues a binary frame. It never blocks: when the buffer is full the frame is dropped and
// ErrSendBufferFull is returned.
func (s *Socket) Send(data []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.ReadyState() != Open {
		return roomlink.ErrConnectionClosed
	}

	select {
	case s.sendCh <- data:
		return nil
	default:
		return roomlink.ErrSendBufferFull
	}
}

// Read blocks until the next binary frame arrives. Text frames are skipped. Once Read returns an
// error the socket is done and CloseStatus reports how it ended.
func (s *Socket) Read() ([]byte, error) {
	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			s.finish(err)
			return nil, err
		}
		if kind != websocket.BinaryMessage {
			s.logger.Debug("ignoring non binary frame", zap.Int("type", kind))
			continue
		}
		return data, nil
	}
}

// Close sends a close frame with code and reason and tears the socket down. Only the first call
// has an effect; later calls return nil.
func (s *Socket) Close(code int, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.status == nil {
		s.status = &CloseStatus{Code: code, Reason: reason, WasClean: code == websocket.CloseNormalClosure}
	}
	s.state.Store(int32(Closing))
	s.cancel()

	message := websocket.FormatCloseMessage(code, reason)
	if !validLocalCode(code) {
		message = websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	}
	deadline := time.Now().Add(time.Second)
	if err := s.conn.WriteControl(websocket.CloseMessage, message, deadline); err != nil &&
		!errors.Is(err, websocket.ErrCloseSent) {
		s.logger.Debug("failed to send close frame", zap.Error(err))
	}

	close(s.sendCh)
	return s.conn.Close()
}

// CloseStatus reports how the socket ended. The second result is false while the socket is open.
func (s *Socket) CloseStatus() (CloseStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status == nil {
		return CloseStatus{}, false
	}
	return *s.status, true
}

func (s *Socket) recordStatus(st CloseStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil {
		s.status = &st
	}
}

// finish records the end of the read side and releases the connection.
func (s *Socket) finish(err error) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		s.recordStatus(CloseStatus{Code: ce.Code, Reason: ce.Text, WasClean: ce.Code != CloseAbnormal})
	} else {
		s.recordStatus(CloseStatus{Code: CloseAbnormal, Reason: err.Error()})
	}
	_ = s.Close(websocket.CloseNormalClosure, "")
	s.state.Store(int32(Closed))
}

// writePump pumps frames from the send channel to the websocket connection
func (s *Socket) writePump() {
	var keepAlive <-chan time.Time
	if s.cfg.KeepAlive > 0 {
		ticker := time.NewTicker(s.cfg.KeepAlive)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case message, ok := <-s.sendCh:
			if !ok {
				return
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				s.logger.Debug("write failed", zap.Error(err))
				return
			}

		case <-keepAlive:
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}

// validLocalCode reports whether code may be put on the wire by a client.
func validLocalCode(code int) bool {
	switch code {
	case websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure, websocket.CloseTLSHandshake:
		return false
	}
	return code >= 1000
}
