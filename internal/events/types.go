package events

import "github.com/luciancaetano/roomlink/internal/protocol"

// CharacterLayer is one texture layer of a player avatar.
type CharacterLayer struct {
	Name string
	URL  string
}

type Application struct {
	Name   string
	Script string
}

// RoomJoined is the decoded room snapshot received when the server confirms the join.
type RoomJoined struct {
	UserID          int32
	Tags            []string
	UserRoomToken   string
	Items           map[int32]any
	Variables       map[string]any
	PlayerVariables map[string]any
	CharacterLayers []CharacterLayer
	// CommandsToApply is nil when the server has no map edit commands to replay.
	CommandsToApply     []*protocol.EditMapCommandMessage
	WebrtcUserName      string
	WebrtcPassword      string
	CanEdit             bool
	ActivatedInviteUser bool
	Applications        []Application
}

// UserJoined announces a remote user entering the local viewport.
type UserJoined struct {
	UserID             int32
	UserJid            string
	UserUUID           string
	Name               string
	CharacterLayers    []CharacterLayer
	VisitCardURL       string
	Position           protocol.PositionMessage
	AvailabilityStatus protocol.AvailabilityStatus
	// Companion is empty when the user has none.
	Companion string
	// OutlineColor is nil when the user has no outline.
	OutlineColor *uint32
	Variables    map[string]any
}

type GroupUpdate struct {
	GroupID   int32
	Position  protocol.PointMessage
	GroupSize int32
	Locked    bool
}

type ItemEvent struct {
	ItemID     int32
	Event      string
	State      any
	Parameters any
}

type Variable struct {
	Name  string
	Value any
}

// WebRtcSignal is a relayed signal with its decoded JSON body.
type WebRtcSignal struct {
	UserID         int32
	Signal         any
	WebrtcUser     string
	WebrtcPassword string
}

type WebRtcStart struct {
	UserID         int32
	Initiator      bool
	WebrtcUser     string
	WebrtcPassword string
}

// WorldFull reports a refused room. Message is empty for a plain world full and carries the
// server text for a rejected world connection.
type WorldFull struct {
	Message string
}

// AdminMessage is an admin notice or ban addressed to the local user.
type AdminMessage struct {
	Type    string
	Message string
	Ban     bool
}

// CloseEvent describes a socket close.
type CloseEvent struct {
	Code     int
	Reason   string
	WasClean bool
}
