package mirror

import (
	"time"

	"github.com/luciancaetano/roomlink"
	"github.com/luciancaetano/roomlink/internal/interpolate"
	"github.com/luciancaetano/roomlink/internal/protocol"
)

// PositionSharer is the part of a room connection the reporter sends through.
type PositionSharer interface {
	SharePosition(pos roomlink.Point, direction protocol.Direction, moving bool, viewport roomlink.Viewport)
}

// LocalMove is one sample of the local player movement.
type LocalMove struct {
	Position  roomlink.Point
	Direction protocol.Direction
	Moving    bool
}

// Reporter throttles the local player position to the server broadcast rate.
type Reporter struct {
	conn PositionSharer

	last     LocalMove
	lastSent time.Duration
	sent     bool
}

func NewReporter(conn PositionSharer) *Reporter {
	return &Reporter{conn: conn}
}

// Push shares move unless it repeats the previous one, or the player keeps walking the same way
// and less than interpolate.PositionDelay passed since the last send. It reports whether the
// sample was sent.
func (r *Reporter) Push(move LocalMove, viewport roomlink.Viewport, now time.Duration) bool {
	if r.sent {
		if move == r.last {
			return false
		}
		if move.Moving && move.Direction == r.last.Direction && now-r.lastSent < interpolate.PositionDelay {
			return false
		}
	}

	r.conn.SharePosition(move.Position, move.Direction, move.Moving, viewport)
	r.last = move
	r.lastSent = now
	r.sent = true
	return true
}
