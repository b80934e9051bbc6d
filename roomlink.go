package roomlink

import (
	"context"
	"fmt"
	"time"

	"github.com/luciancaetano/roomlink/internal/events"
	"github.com/luciancaetano/roomlink/internal/protocol"
)

// State is the lifecycle state of a room connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateJoined
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateJoined:
		return "joined"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Viewport is the visible rectangle of the local player, in map pixels.
type Viewport struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Point is a position in map pixels.
type Point struct {
	X float64
	Y float64
}

// FollowRole is the role of the local user in a follow group.
type FollowRole int

const (
	FollowRoleLeader FollowRole = iota
	FollowRoleFollower
)

// PlayerVariable is a variable attached to the local player.
type PlayerVariable struct {
	Key     string
	Value   any
	Public  bool
	TTL     time.Duration
	Scope   protocol.VariableScope
	Persist bool
}

// Stats is a point-in-time copy of the connection counters.
type Stats struct {
	FramesReceived  uint64
	FramesSent      uint64
	BytesReceived   uint64
	BytesSent       uint64
	DroppedSends    uint64
	DataErrors      uint64
	ProtocolErrors  uint64
	PingsReceived   uint64
	QueriesSent     uint64
	QueriesAnswered uint64
	// PendingQueries is the number of queries still awaiting an answer.
	PendingQueries  int
}

// RoomConnection is a client session with a room server.
//
// Outbound methods are fire-and-forget: a message sent while the socket is not open is dropped
// with a warning. Methods accepting arbitrary values only fail when the value cannot be encoded
// as JSON.
//
// Example usage:
//
//	conn := ws.New(cfg, params, logger)
//	conn.Streams().RoomJoined.Subscribe(func(ev ws.RoomJoined) {
//	    log.Printf("joined as %d", ev.UserID)
//	})
//	if err := conn.Open(ctx); err != nil {
//	    return err
//	}
//	conn.SharePosition(roomlink.Point{X: 100, Y: 200}, ws.DirectionDown, false, viewport)
type RoomConnection interface {
	// Open dials the room server and starts the read and write loops.
	Open(ctx context.Context) error

	// ID returns the local identifier of this connection attempt.
	ID() string

	State() State

	// UserID returns the user id assigned by the server, or ErrNotJoined before the room is joined.
	UserID() (int32, error)

	Tags() []string
	HasTag(tag string) bool
	IsAdmin() bool
	UserRoomToken() string

	// Streams returns the broadcast channels fed by incoming messages.
	Streams() *events.Streams

	// OnServerDisconnected registers a callback invoked when the server drops a joined session
	// abnormally. It is not invoked after a terminal room message or a normal close.
	OnServerDisconnected(fn func())

	SharePosition(pos Point, direction protocol.Direction, moving bool, viewport Viewport)
	SetViewport(viewport Viewport)

	EmitPlayerShowVoiceIndicator(show bool)
	EmitPlayerStatusChange(status protocol.AvailabilityStatus)
	// EmitPlayerOutlineColor sets the outline color, or removes it when color is nil.
	EmitPlayerOutlineColor(color *uint32)
	EmitPlayerSetVariable(v PlayerVariable) error

	EmitActionableEvent(itemID int32, event string, state, parameters any) error
	EmitSetVariableEvent(name string, value any) error
	EmitGlobalMessage(msgType, content string, broadcastToWorld bool)
	EmitReportPlayerMessage(reportedUserUUID, comment string)
	EmitEmoteEvent(emote string)
	EmitLockGroup(lock bool)

	EmitFollowRequest()
	EmitFollowConfirmation(leader int32)
	EmitFollowAbort(role FollowRole, leader int32)

	// EmitMapEditCommand sends a map editor command and returns its generated command id.
	EmitMapEditCommand(kind protocol.EditMapKind, data any) (string, error)

	SendWebRtcSignal(receiverID int32, signal any) error
	SendWebRtcScreenSharingSignal(receiverID int32, signal any) error

	EmitAskPosition(userIdentifier, playURI string)
	EmitAddSpaceFilter(filter protocol.SpaceFilterMessage)
	EmitUpdateSpaceFilter(filter protocol.SpaceFilterMessage)
	EmitRemoveSpaceFilter(filter protocol.SpaceFilterMessage)

	// QueryJitsiJwtToken asks the server for a Jitsi token. It blocks until the answer arrives,
	// the session closes or ctx ends.
	QueryJitsiJwtToken(ctx context.Context, jitsiRoom string) (*protocol.JitsiJwtAnswer, error)
	QueryBBBMeetingURL(ctx context.Context, meetingID, localMeetingID, meetingName string) (*protocol.JoinBBBMeetingAnswer, error)

	Stats() Stats

	// Done is closed once close handling has completed.
	Done() <-chan struct{}

	// Close closes the connection normally and latches it closed.
	Close() error
}
