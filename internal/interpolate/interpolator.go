// Package interpolate turns the rate-limited position samples of remote players into continuous
// motion.
package interpolate

import (
	"time"

	"github.com/luciancaetano/roomlink/internal/protocol"
)

// PositionDelay is the interval at which the server broadcasts positions. A movement segment
// always ends PositionDelay after the tick it starts on.
const PositionDelay = 200 * time.Millisecond

// Position is an interpolated player position.
type Position struct {
	X         float64
	Y         float64
	Direction protocol.Direction
	Moving    bool
}

// Movement is a linear segment from Start at StartTick to End at EndTick.
type Movement struct {
	Start     Position
	StartTick time.Duration
	End       Position
	EndTick   time.Duration
}

// NewMovement builds the segment from the last rendered position to a new sample, ending
// PositionDelay after now.
func NewMovement(from Position, now time.Duration, to Position) Movement {
	return Movement{Start: from, StartTick: now, End: to, EndTick: now + PositionDelay}
}

// Finished reports whether the segment reached its end at tick.
func (m Movement) Finished(tick time.Duration) bool {
	return tick >= m.EndTick
}

// PositionAt returns the blended position at tick, clamped to the segment.
func (m Movement) PositionAt(tick time.Duration) Position {
	if m.Finished(tick) {
		return m.End
	}
	span := m.EndTick - m.StartTick
	ratio := 0.0
	if span > 0 {
		ratio = float64(tick-m.StartTick) / float64(span)
	}
	if ratio < 0 {
		ratio = 0
	}
	return Position{
		X:         m.Start.X + (m.End.X-m.Start.X)*ratio,
		Y:         m.Start.Y + (m.End.Y-m.Start.Y)*ratio,
		Direction: m.End.Direction,
		Moving:    true,
	}
}

// Interpolator tracks one movement segment per player. It is not safe for concurrent use.
type Interpolator struct {
	movements map[int32]Movement
}

func New() *Interpolator {
	return &Interpolator{movements: make(map[int32]Movement)}
}

// UpdatePlayerPosition replaces the segment of userID, even mid-interpolation.
func (i *Interpolator) UpdatePlayerPosition(userID int32, m Movement) {
	i.movements[userID] = m
}

// GetUpdatedPositions returns the position of every tracked player at tick. Settled segments
// keep reporting their end position until replaced or removed.
func (i *Interpolator) GetUpdatedPositions(tick time.Duration) map[int32]Position {
	out := make(map[int32]Position, len(i.movements))
	for id, m := range i.movements {
		out[id] = m.PositionAt(tick)
	}
	return out
}

// RemovePlayer stops tracking userID.
func (i *Interpolator) RemovePlayer(userID int32) {
	delete(i.movements, userID)
}

func (i *Interpolator) Len() int {
	return len(i.movements)
}
