// Package connection implements the room connection state machine: dialing, liveness, message
// dispatch, terminal states, and the outbound API.
package connection

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luciancaetano/roomlink"
	"github.com/luciancaetano/roomlink/internal/events"
	"github.com/luciancaetano/roomlink/internal/query"
	"github.com/luciancaetano/roomlink/internal/websocket"
)

var _ roomlink.RoomConnection = (*Connection)(nil)

// Connection is one session with a room server. A Connection is single use: once closed it
// cannot be opened again.
type Connection struct {
	id      string
	cfg     Config
	params  URLParams
	logger  *zap.Logger
	streams *events.Streams
	queries *query.Correlator
	stats   stats

	mu            sync.Mutex
	state         roomlink.State
	opened        bool
	socket        *websocket.Socket
	liveness      *time.Timer
	userID        *int32
	tags          []string
	userRoomToken string
	// closed latches the connection after a terminal room message or an explicit close.
	closed         bool
	onDisconnected []func()

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a connection. Subscribe to Streams before calling Open so no message is missed.
func New(cfg Config, params URLParams, logger *zap.Logger) *Connection {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = DefaultConfig(cfg.PusherURL).PingTimeout
	}

	id := uuid.New().String()
	logger = logger.With(zap.String("conn_id", id))

	c := &Connection{
		id:      id,
		cfg:     cfg,
		params:  params,
		logger:  logger,
		streams: events.NewStreams(logger),
		state:   roomlink.StateConnecting,
		done:    make(chan struct{}),
	}
	c.queries = query.NewCorrelator(c.sendQuery, logger)
	return c
}

// Open dials the room server and starts the read loop. A failed dial ends the connection: the
// failure is published on the ConnectionError stream and returned.
func (c *Connection) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.state == roomlink.StateClosed {
		c.mu.Unlock()
		return roomlink.ErrConnectionClosed
	}
	if c.opened {
		c.mu.Unlock()
		return roomlink.ErrAlreadyOpen
	}
	c.opened = true
	c.mu.Unlock()

	url, err := BuildRoomURL(c.cfg.PusherURL, c.params)
	if err != nil {
		c.handleClose(events.CloseEvent{Code: websocket.CloseAbnormal, Reason: err.Error()})
		return err
	}

	socket, err := websocket.Dial(ctx, url, c.cfg.Socket, c.logger)
	if err != nil {
		c.logger.Warn("failed to open socket", zap.Error(err))
		c.handleClose(events.CloseEvent{Code: websocket.CloseAbnormal, Reason: err.Error()})
		return err
	}

	c.mu.Lock()
	if c.closed {
		// Close was called while dialing.
		c.mu.Unlock()
		_ = socket.Close(roomlink.CloseNormalClosure, "")
		c.handleClose(events.CloseEvent{Code: roomlink.CloseNormalClosure, WasClean: true})
		return roomlink.ErrConnectionClosed
	}
	c.socket = socket
	c.state = roomlink.StateOpen
	c.liveness = time.AfterFunc(c.cfg.PingTimeout, c.onLivenessTimeout)
	c.mu.Unlock()

	c.logger.Info("socket has been opened", zap.String("socket_id", socket.ID()))

	go c.readLoop(socket)
	return nil
}

func (c *Connection) readLoop(socket *websocket.Socket) {
	for {
		data, err := socket.Read()
		if err != nil {
			break
		}
		c.handleFrame(data)
	}

	st, _ := socket.CloseStatus()
	c.handleClose(events.CloseEvent{Code: st.Code, Reason: st.Reason, WasClean: st.WasClean})
}

// resetLiveness restarts the liveness timer after a ping.
func (c *Connection) resetLiveness() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.liveness != nil && c.state != roomlink.StateClosed {
		c.liveness.Stop()
		c.liveness.Reset(c.cfg.PingTimeout)
	}
}

func (c *Connection) onLivenessTimeout() {
	c.logger.Warn("timeout detected server-side, is the connection down? closing connection",
		zap.Duration("ping_timeout", c.cfg.PingTimeout))
	c.closeSocket(roomlink.CloseLivenessTimeout, "liveness timeout")
}

// closeSocket closes the socket without latching. Close handling runs on the read goroutine.
func (c *Connection) closeSocket(code int, reason string) {
	c.mu.Lock()
	socket := c.socket
	if c.state != roomlink.StateClosed {
		c.state = roomlink.StateClosing
	}
	c.mu.Unlock()

	if socket != nil {
		_ = socket.Close(code, reason)
	}
}

// latch marks the connection closed for good and closes the socket normally.
func (c *Connection) latch() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.closeSocket(roomlink.CloseNormalClosure, "")
}

func (c *Connection) isLatched() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// handleClose tears the session down. It runs exactly once per connection.
func (c *Connection) handleClose(ev events.CloseEvent) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.liveness != nil {
			c.liveness.Stop()
		}
		c.state = roomlink.StateClosed
		joined := c.userID != nil
		latched := c.closed
		callbacks := slices.Clone(c.onDisconnected)
		c.mu.Unlock()

		c.logger.Info("socket has been closed",
			zap.Int("code", ev.Code), zap.String("reason", ev.Reason),
			zap.Bool("joined", joined), zap.Bool("latched", latched))

		// Before the join the caller is expected to retry.
		if !joined && !latched {
			c.streams.ConnectionError.Publish(ev)
		}

		c.queries.Close(fmt.Errorf("%w with code %d, reason: %q", roomlink.ErrDisconnected, ev.Code, ev.Reason))
		c.streams.CompleteAll()

		if joined && !latched && ev.Code != roomlink.CloseNormalClosure {
			for _, fn := range callbacks {
				fn()
			}
		}

		close(c.done)
	})
}

// ID returns the local identifier of this connection attempt.
func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) State() roomlink.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) UserID() (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID == nil {
		return 0, roomlink.ErrNotJoined
	}
	return *c.userID, nil
}

// Tags returns the tags granted to the user when joining.
func (c *Connection) Tags() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tags)
}

func (c *Connection) HasTag(tag string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.tags, tag)
}

func (c *Connection) IsAdmin() bool {
	return c.HasTag(roomlink.AdminTag)
}

func (c *Connection) UserRoomToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userRoomToken
}

func (c *Connection) Streams() *events.Streams {
	return c.streams
}

// OnServerDisconnected registers fn. Callbacks run once, on close, only for a joined session that
// the server dropped abnormally.
func (c *Connection) OnServerDisconnected(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnected = append(c.onDisconnected, fn)
}

func (c *Connection) Stats() roomlink.Stats {
	st := c.stats.snapshot()
	st.PendingQueries = c.queries.Pending()
	return st
}

// Done is closed once close handling has completed.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Close latches the connection and closes the socket normally. It does not wait for close
// handling; use Done for that.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed || c.state == roomlink.StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	socket := c.socket
	opened := c.opened
	if c.state != roomlink.StateClosed {
		c.state = roomlink.StateClosing
	}
	c.mu.Unlock()

	if socket != nil {
		return socket.Close(roomlink.CloseNormalClosure, "")
	}
	if !opened {
		c.handleClose(events.CloseEvent{Code: roomlink.CloseNormalClosure, WasClean: true})
	}
	// A dial in flight sees the latch and finishes the close itself.
	return nil
}
