// Package players keeps the authoritative records of remote players and the changes applied to
// them since the last rendering tick.
package players

import (
	"maps"
	"slices"
	"sync"

	"github.com/luciancaetano/roomlink/internal/events"
	"github.com/luciancaetano/roomlink/internal/protocol"
	"go.uber.org/zap"
)

// RemotePlayer is the last known state of another user in the room.
type RemotePlayer struct {
	UserID             int32
	UserUUID           string
	UserJid            string
	Name               string
	CharacterLayers    []events.CharacterLayer
	VisitCardURL       string
	Position           protocol.PositionMessage
	Companion          string
	OutlineColor       *uint32
	AvailabilityStatus protocol.AvailabilityStatus
	ShowVoiceIndicator bool
	Variables          map[string]any
}

// Clone returns a deep copy of the mutable parts of p. Variable values are shared.
func (p *RemotePlayer) Clone() RemotePlayer {
	out := *p
	out.CharacterLayers = slices.Clone(p.CharacterLayers)
	if p.OutlineColor != nil {
		c := *p.OutlineColor
		out.OutlineColor = &c
	}
	out.Variables = maps.Clone(p.Variables)
	return out
}

// Changes flags the fields touched by detail updates within one tick.
type Changes struct {
	AvailabilityStatus bool
	OutlineColor       bool
	ShowVoiceIndicator bool
	Variables          bool
}

func (c Changes) Any() bool {
	return c.AvailabilityStatus || c.OutlineColor || c.ShowVoiceIndicator || c.Variables
}

func (c Changes) merge(o Changes) Changes {
	return Changes{
		AvailabilityStatus: c.AvailabilityStatus || o.AvailabilityStatus,
		OutlineColor:       c.OutlineColor || o.OutlineColor,
		ShowVoiceIndicator: c.ShowVoiceIndicator || o.ShowVoiceIndicator,
		Variables:          c.Variables || o.Variables,
	}
}

// Update is a player whose details changed during the tick.
type Update struct {
	Player  RemotePlayer
	Changed Changes
}

// Move is the latest position sample of a player received during the tick.
type Move struct {
	UserID   int32
	Position protocol.PositionMessage
}

// Diff holds everything that happened to remote players since the previous drain. Removed ids
// must be applied before Added ones: an id removed and joined again within one tick is in both.
type Diff struct {
	Added   []RemotePlayer
	Moved   []Move
	Updated []Update
	Removed []int32
}

func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Moved) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// orderedSet keeps ids in first-insertion order.
type orderedSet struct {
	ids   []int32
	index map[int32]struct{}
}

func (s *orderedSet) add(id int32) {
	if s.index == nil {
		s.index = make(map[int32]struct{})
	}
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *orderedSet) has(id int32) bool {
	_, ok := s.index[id]
	return ok
}

func (s *orderedSet) remove(id int32) {
	if _, ok := s.index[id]; !ok {
		return
	}
	delete(s.index, id)
	s.ids = slices.DeleteFunc(s.ids, func(v int32) bool { return v == id })
}

func (s *orderedSet) reset() {
	s.ids = nil
	s.index = nil
}

// Repository owns the remote player records. The connection read goroutine feeds it while the
// render loop drains it, so every method locks.
type Repository struct {
	logger *zap.Logger

	mu      sync.Mutex
	players map[int32]*RemotePlayer

	added   orderedSet
	moved   orderedSet
	updated orderedSet
	removed orderedSet

	moves   map[int32]protocol.PositionMessage
	changes map[int32]Changes
}

// NewRepository creates an empty repository.
func NewRepository(logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		logger:  logger,
		players: make(map[int32]*RemotePlayer),
		moves:   make(map[int32]protocol.PositionMessage),
		changes: make(map[int32]Changes),
	}
}

// AddPlayer inserts a player announced by a join. A duplicate join keeps the earlier record.
func (r *Repository) AddPlayer(ev events.UserJoined) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[ev.UserID]; ok {
		r.logger.Warn("got instructed to add a player that already exists", zap.Int32("user_id", ev.UserID))
		return
	}

	p := &RemotePlayer{
		UserID:             ev.UserID,
		UserUUID:           ev.UserUUID,
		UserJid:            ev.UserJid,
		Name:               ev.Name,
		CharacterLayers:    slices.Clone(ev.CharacterLayers),
		VisitCardURL:       ev.VisitCardURL,
		Position:           ev.Position,
		Companion:          ev.Companion,
		AvailabilityStatus: ev.AvailabilityStatus,
		Variables:          maps.Clone(ev.Variables),
	}
	if ev.OutlineColor != nil {
		c := *ev.OutlineColor
		p.OutlineColor = &c
	}
	if p.Variables == nil {
		p.Variables = make(map[string]any)
	}
	r.players[ev.UserID] = p
	r.added.add(ev.UserID)
}

// MovePlayer records a new position sample of an existing player.
func (r *Repository) MovePlayer(m *protocol.UserMovedMessage) {
	if m == nil || m.Position == nil {
		r.logger.Warn("move without position ignored")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[m.UserID]
	if !ok {
		r.logger.Warn("cannot move unknown player", zap.Int32("user_id", m.UserID))
		return
	}
	p.Position = *m.Position
	r.moves[m.UserID] = *m.Position
	r.moved.add(m.UserID)
}

// UpdatePlayer merges the fields a details update marks as changed.
func (r *Repository) UpdatePlayer(m *protocol.PlayerDetailsUpdatedMessage) {
	if m == nil || m.Details == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[m.UserID]
	if !ok {
		r.logger.Warn("cannot update details of unknown player", zap.Int32("user_id", m.UserID))
		return
	}

	d := m.Details
	var changed Changes
	if d.AvailabilityStatus != protocol.AvailabilityUnchanged {
		p.AvailabilityStatus = d.AvailabilityStatus
		changed.AvailabilityStatus = true
	}
	if d.RemoveOutlineColor {
		p.OutlineColor = nil
		changed.OutlineColor = true
	} else if d.OutlineColor != nil {
		c := *d.OutlineColor
		p.OutlineColor = &c
		changed.OutlineColor = true
	}
	if d.ShowVoiceIndicator != nil {
		p.ShowVoiceIndicator = *d.ShowVoiceIndicator
		changed.ShowVoiceIndicator = true
	}
	if v := d.SetVariable; v != nil {
		value, err := protocol.UnserializeVariable(v.Value)
		if err != nil {
			r.logger.Error("unable to unserialize player variable",
				zap.Int32("user_id", m.UserID), zap.String("name", v.Name), zap.Error(err))
		}
		p.Variables[v.Name] = value
		changed.Variables = true
	}

	if !changed.Any() {
		return
	}
	r.changes[m.UserID] = r.changes[m.UserID].merge(changed)
	r.updated.add(m.UserID)
}

// RemovePlayer deletes a player. A player added and removed within the same tick leaves no
// trace in the diff. Removing an unknown id is a no-op.
func (r *Repository) RemovePlayer(userID int32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[userID]; !ok {
		r.logger.Debug("remove of unknown player ignored", zap.Int32("user_id", userID))
		return
	}
	delete(r.players, userID)

	r.moved.remove(userID)
	delete(r.moves, userID)
	r.updated.remove(userID)
	delete(r.changes, userID)

	if r.added.has(userID) {
		r.added.remove(userID)
		return
	}
	r.removed.add(userID)
}

// Player returns a copy of the record of userID.
func (r *Repository) Player(userID int32) (RemotePlayer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[userID]
	if !ok {
		return RemotePlayer{}, false
	}
	return p.Clone(), true
}

// Players returns a copy of every record keyed by user id.
func (r *Repository) Players() map[int32]RemotePlayer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int32]RemotePlayer, len(r.players))
	for id, p := range r.players {
		out[id] = p.Clone()
	}
	return out
}

func (r *Repository) AddedPlayers() []RemotePlayer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addedLocked()
}

func (r *Repository) MovedPlayers() []Move {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.movedLocked()
}

func (r *Repository) UpdatedPlayers() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updatedLocked()
}

func (r *Repository) RemovedPlayers() []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.removed.ids)
}

// Reset clears the per-tick sets. Call it once per tick after consuming them, or use Drain.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

// Drain returns the per-tick diff and resets it atomically.
func (r *Repository) Drain() Diff {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := Diff{
		Added:   r.addedLocked(),
		Moved:   r.movedLocked(),
		Updated: r.updatedLocked(),
		Removed: slices.Clone(r.removed.ids),
	}
	r.resetLocked()
	return d
}

func (r *Repository) addedLocked() []RemotePlayer {
	out := make([]RemotePlayer, 0, len(r.added.ids))
	for _, id := range r.added.ids {
		out = append(out, r.players[id].Clone())
	}
	return out
}

func (r *Repository) movedLocked() []Move {
	out := make([]Move, 0, len(r.moved.ids))
	for _, id := range r.moved.ids {
		out = append(out, Move{UserID: id, Position: r.moves[id]})
	}
	return out
}

func (r *Repository) updatedLocked() []Update {
	out := make([]Update, 0, len(r.updated.ids))
	for _, id := range r.updated.ids {
		out = append(out, Update{Player: r.players[id].Clone(), Changed: r.changes[id]})
	}
	return out
}

func (r *Repository) resetLocked() {
	r.added.reset()
	r.moved.reset()
	r.updated.reset()
	r.removed.reset()
	clear(r.moves)
	clear(r.changes)
}
