// Package ws is the entry point for applications connecting to a room server.
package ws

import (
	"context"

	"go.uber.org/zap"

	"github.com/luciancaetano/roomlink"
	"github.com/luciancaetano/roomlink/internal/connection"
	"github.com/luciancaetano/roomlink/internal/logging"
	"github.com/luciancaetano/roomlink/internal/mirror"
)

type Config = connection.Config
type URLParams = connection.URLParams
type LoggerConfig = logging.Config
type Mirror = mirror.Mirror
type Frame = mirror.Frame
type Reporter = mirror.Reporter
type LocalMove = mirror.LocalMove

// New creates a room connection without dialing it. Subscribe to its streams, then call Open.
//
// Parameters:
//   - cfg: Connection configuration. Use DefaultConfig(pusherURL) and adjust as needed
//   - params: What the room URL carries: room, identity, avatar, position and viewport
//   - logger: Structured logger. nil discards logs
//
// Example:
//
//	conn := ws.New(ws.DefaultConfig("https://pusher.example.com"), params, logger)
//	conn.Streams().RoomJoined.Subscribe(func(ev ws.RoomJoined) {
//	    logger.Info("joined", zap.Int32("user_id", ev.UserID))
//	})
//	if err := conn.Open(ctx); err != nil {
//	    return err
//	}
func New(cfg Config, params URLParams, logger *zap.Logger) roomlink.RoomConnection {
	return connection.New(cfg, params, logger)
}

// Dial creates a room connection and opens it. Messages received before Dial returns are only
// seen by subscribers registered through New.
func Dial(ctx context.Context, cfg Config, params URLParams, logger *zap.Logger) (roomlink.RoomConnection, error) {
	conn := connection.New(cfg, params, logger)
	if err := conn.Open(ctx); err != nil {
		return nil, err
	}
	return conn, nil
}

// DefaultConfig returns the default configuration for the given pusher URL
func DefaultConfig(pusherURL string) Config {
	return connection.DefaultConfig(pusherURL)
}

// BuildRoomURL returns the WebSocket URL a connection dials.
func BuildRoomURL(pusherURL string, params URLParams) (string, error) {
	return connection.BuildRoomURL(pusherURL, params)
}

// NewMirror creates a mirror of the remote players. Attach it to the streams of a connection.
func NewMirror(logger *zap.Logger) *Mirror {
	return mirror.New(logger)
}

// NewReporter creates a throttled reporter of the local player position.
func NewReporter(conn roomlink.RoomConnection) *Reporter {
	return mirror.NewReporter(conn)
}

// DefaultLoggerConfig returns an info level console logger configuration
func DefaultLoggerConfig() LoggerConfig {
	return logging.DefaultConfig()
}

// NewLogger builds a zap logger writing to stderr or to a rolling file.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	return logging.New(cfg)
}

// SyncLogger flushes buffered log entries. Call it before the process exits.
func SyncLogger(logger *zap.Logger) {
	logging.Sync(logger)
}
