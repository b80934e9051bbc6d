// Package mirror keeps a local picture of the remote players of a room, ready to render once per
// tick.
package mirror

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luciancaetano/roomlink/internal/events"
	"github.com/luciancaetano/roomlink/internal/interpolate"
	"github.com/luciancaetano/roomlink/internal/players"
	"github.com/luciancaetano/roomlink/internal/protocol"
)

// Frame is what changed since the previous tick, with the position to draw for every player.
type Frame struct {
	Tick      time.Duration
	Diff      players.Diff
	Positions map[int32]interpolate.Position
}

// Mirror feeds the remote player repository from the streams of a connection and turns its
// per-tick diff into interpolated frames.
//
// Stream callbacks may run on any goroutine. Tick must be called from a single goroutine.
type Mirror struct {
	logger *zap.Logger
	repo   *players.Repository
	interp *interpolate.Interpolator

	// rendered holds the positions returned by the previous tick
	rendered map[int32]interpolate.Position

	mu            sync.Mutex
	userID        *int32
	onOwnVariable func(events.Variable)
	subs          []*events.Subscription
}

func New(logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{
		logger:   logger,
		repo:     players.NewRepository(logger),
		interp:   interpolate.New(),
		rendered: make(map[int32]interpolate.Position),
	}
}

// OnOwnVariable registers the handler of variable updates addressed to the local user. Those
// updates never reach the repository.
func (m *Mirror) OnOwnVariable(fn func(events.Variable)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOwnVariable = fn
}

// Attach subscribes the mirror to s. A mirror follows one connection at a time; attaching again
// detaches from the previous streams and clears the repository.
func (m *Mirror) Attach(s *events.Streams) {
	m.Detach()
	m.repo.Reset()

	subs := []*events.Subscription{
		s.RoomJoined.Subscribe(func(ev events.RoomJoined) {
			m.mu.Lock()
			id := ev.UserID
			m.userID = &id
			m.mu.Unlock()
		}),
		s.UserJoined.Subscribe(m.repo.AddPlayer),
		s.UserMoved.Subscribe(m.repo.MovePlayer),
		s.PlayerDetailsUpdated.Subscribe(m.playerDetailsUpdated),
		s.UserLeft.Subscribe(func(msg *protocol.UserLeftMessage) {
			m.repo.RemovePlayer(msg.UserID)
		}),
	}

	m.mu.Lock()
	m.subs = subs
	m.mu.Unlock()
}

// Detach stops following the current streams. Records already received are kept.
func (m *Mirror) Detach() {
	m.mu.Lock()
	subs := m.subs
	m.subs = nil
	m.userID = nil
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

func (m *Mirror) playerDetailsUpdated(msg *protocol.PlayerDetailsUpdatedMessage) {
	m.mu.Lock()
	own := m.userID != nil && *m.userID == msg.UserID
	handler := m.onOwnVariable
	m.mu.Unlock()

	if !own {
		m.repo.UpdatePlayer(msg)
		return
	}
	if msg.Details == nil || msg.Details.SetVariable == nil {
		return
	}

	v := msg.Details.SetVariable
	value, err := protocol.UnserializeVariable(v.Value)
	if err != nil {
		m.logger.Error("unable to unserialize own variable", zap.String("name", v.Name), zap.Error(err))
	}
	if handler == nil {
		m.logger.Debug("own variable update without handler", zap.String("name", v.Name))
		return
	}
	handler(events.Variable{Name: v.Name, Value: value})
}

// Tick drains the repository and advances interpolation to now, the time elapsed on the
// caller's render clock.
func (m *Mirror) Tick(now time.Duration) Frame {
	d := m.repo.Drain()

	// removals first: an id can leave and join again within one tick
	for _, id := range d.Removed {
		m.interp.RemovePlayer(id)
		delete(m.rendered, id)
	}
	for _, p := range d.Added {
		pos := toPosition(p.Position)
		m.rendered[p.UserID] = pos
		m.interp.UpdatePlayerPosition(p.UserID, interpolate.Movement{
			Start: pos, StartTick: now, End: pos, EndTick: now,
		})
	}
	for _, mv := range d.Moved {
		to := toPosition(mv.Position)
		from, ok := m.rendered[mv.UserID]
		if !ok {
			from = to
		}
		m.interp.UpdatePlayerPosition(mv.UserID, interpolate.NewMovement(from, now, to))
	}

	positions := m.interp.GetUpdatedPositions(now)
	for id, pos := range positions {
		m.rendered[id] = pos
	}

	return Frame{Tick: now, Diff: d, Positions: positions}
}

// Player returns the record of a remote player.
func (m *Mirror) Player(userID int32) (players.RemotePlayer, bool) {
	return m.repo.Player(userID)
}

func (m *Mirror) Players() map[int32]players.RemotePlayer {
	return m.repo.Players()
}

func toPosition(p protocol.PositionMessage) interpolate.Position {
	return interpolate.Position{
		X:         float64(p.X),
		Y:         float64(p.Y),
		Direction: p.Direction,
		Moving:    p.Moving,
	}
}
