package connection

import (
	"time"

	"github.com/luciancaetano/roomlink/internal/websocket"
)

// Config holds the settings of a room connection.
type Config struct {
	// PusherURL is the http(s) or ws(s) base URL of the room server.
	PusherURL string

	// PingTimeout must exceed the server ping interval. A connection that receives no ping for
	// that long is considered dead and closed.
	PingTimeout time.Duration

	// IgnoreFollowRequests drops incoming follow requests instead of publishing them.
	IgnoreFollowRequests bool

	Socket websocket.Config
}

// DefaultConfig returns the default configuration for pusherURL.
func DefaultConfig(pusherURL string) Config {
	return Config{
		PusherURL:   pusherURL,
		PingTimeout: 100 * time.Second,
		Socket:      websocket.DefaultConfig(),
	}
}
