package ws

import (
	"github.com/luciancaetano/roomlink/internal/events"
	"github.com/luciancaetano/roomlink/internal/interpolate"
	"github.com/luciancaetano/roomlink/internal/players"
	"github.com/luciancaetano/roomlink/internal/protocol"
)

// Stream events.
type (
	Streams        = events.Streams
	Subscription   = events.Subscription
	RoomJoined     = events.RoomJoined
	UserJoined     = events.UserJoined
	CharacterLayer = events.CharacterLayer
	GroupUpdate    = events.GroupUpdate
	ItemEvent      = events.ItemEvent
	Variable       = events.Variable
	WebRtcSignal   = events.WebRtcSignal
	WebRtcStart    = events.WebRtcStart
	WorldFull      = events.WorldFull
	AdminMessage   = events.AdminMessage
	CloseEvent     = events.CloseEvent
)

// Messages published as received.
type (
	PositionMessage             = protocol.PositionMessage
	UserMovedMessage            = protocol.UserMovedMessage
	UserLeftMessage             = protocol.UserLeftMessage
	GroupDeleteMessage          = protocol.GroupDeleteMessage
	GroupUsersUpdateMessage     = protocol.GroupUsersUpdateMessage
	EmoteEventMessage           = protocol.EmoteEventMessage
	PlayerDetailsUpdatedMessage = protocol.PlayerDetailsUpdatedMessage
	ErrorMessage                = protocol.ErrorMessage
	ErrorScreenMessage          = protocol.ErrorScreenMessage
	RefreshRoomMessage          = protocol.RefreshRoomMessage
	MoveToPositionMessage       = protocol.MoveToPositionMessage
	FollowRequestMessage        = protocol.FollowRequestMessage
	FollowConfirmationMessage   = protocol.FollowConfirmationMessage
	FollowAbortMessage          = protocol.FollowAbortMessage
	EditMapCommandMessage       = protocol.EditMapCommandMessage
	WebRtcDisconnectMessage     = protocol.WebRtcDisconnectMessage
	XmppSettingsMessage         = protocol.XmppSettingsMessage
	SpaceFilterMessage          = protocol.SpaceFilterMessage
	SpaceUserMessage            = protocol.SpaceUserMessage
	AddSpaceUserMessage         = protocol.AddSpaceUserMessage
	UpdateSpaceUserMessage      = protocol.UpdateSpaceUserMessage
	RemoveSpaceUserMessage      = protocol.RemoveSpaceUserMessage
	MucRoomDefinitionMessage    = protocol.MucRoomDefinitionMessage
	LeaveMucRoomMessage         = protocol.LeaveMucRoomMessage
	JitsiJwtAnswer              = protocol.JitsiJwtAnswer
	JoinBBBMeetingAnswer        = protocol.JoinBBBMeetingAnswer
)

type (
	Direction          = protocol.Direction
	AvailabilityStatus = protocol.AvailabilityStatus
	VariableScope      = protocol.VariableScope
	EditMapKind        = protocol.EditMapKind
)

const (
	DirectionUp    = protocol.DirectionUp
	DirectionRight = protocol.DirectionRight
	DirectionDown  = protocol.DirectionDown
	DirectionLeft  = protocol.DirectionLeft

	AvailabilityOnline               = protocol.AvailabilityOnline
	AvailabilitySilent               = protocol.AvailabilitySilent
	AvailabilityAway                 = protocol.AvailabilityAway
	AvailabilityJitsi                = protocol.AvailabilityJitsi
	AvailabilityBBB                  = protocol.AvailabilityBBB
	AvailabilityDenyProximityMeeting = protocol.AvailabilityDenyProximityMeeting
	AvailabilitySpeaker              = protocol.AvailabilitySpeaker
	AvailabilityBusy                 = protocol.AvailabilityBusy
	AvailabilityDoNotDisturb         = protocol.AvailabilityDoNotDisturb
	AvailabilityBackInAMoment        = protocol.AvailabilityBackInAMoment

	VariableScopeRoom  = protocol.VariableScopeRoom
	VariableScopeWorld = protocol.VariableScopeWorld

	EditMapModifyArea   = protocol.EditMapModifyArea
	EditMapCreateArea   = protocol.EditMapCreateArea
	EditMapDeleteArea   = protocol.EditMapDeleteArea
	EditMapModifyEntity = protocol.EditMapModifyEntity
	EditMapCreateEntity = protocol.EditMapCreateEntity
	EditMapDeleteEntity = protocol.EditMapDeleteEntity
)

// Mirror output.
type (
	RemotePlayer = players.RemotePlayer
	Diff         = players.Diff
	Position     = interpolate.Position
)

// PositionDelay is the server position broadcast interval.
const PositionDelay = interpolate.PositionDelay
