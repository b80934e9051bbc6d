package events

import (
	"sync"

	"github.com/luciancaetano/roomlink/internal/protocol"
	"go.uber.org/zap"
)

type completer interface {
	Complete() bool
	Name() string
}

// Streams is the set of broadcast channels of one room connection.
type Streams struct {
	ErrorMessage              *Channel[*protocol.ErrorMessage]
	ErrorScreen               *Channel[*protocol.ErrorScreenMessage]
	RoomJoined                *Channel[RoomJoined]
	WebRtcStart               *Channel[WebRtcStart]
	WebRtcSignal              *Channel[WebRtcSignal]
	WebRtcScreenSharingSignal *Channel[WebRtcSignal]
	WebRtcDisconnect          *Channel[*protocol.WebRtcDisconnectMessage]
	Teleport                  *Channel[string]
	WorldFull                 *Channel[WorldFull]
	WorldFullWarning          *Channel[struct{}]
	InvalidTexture            *Channel[struct{}]
	TokenExpired              *Channel[struct{}]
	UserMoved                 *Channel[*protocol.UserMovedMessage]
	GroupUpdate               *Channel[GroupUpdate]
	GroupUsersUpdate          *Channel[*protocol.GroupUsersUpdateMessage]
	GroupDelete               *Channel[*protocol.GroupDeleteMessage]
	UserJoined                *Channel[UserJoined]
	UserLeft                  *Channel[*protocol.UserLeftMessage]
	RefreshRoom               *Channel[*protocol.RefreshRoomMessage]
	ItemEvent                 *Channel[ItemEvent]
	EmoteEvent                *Channel[*protocol.EmoteEventMessage]
	Variable                  *Channel[Variable]
	PlayerDetailsUpdated      *Channel[*protocol.PlayerDetailsUpdatedMessage]
	EditMapCommand            *Channel[*protocol.EditMapCommandMessage]
	AdminMessage              *Channel[AdminMessage]
	FollowRequest             *Channel[*protocol.FollowRequestMessage]
	FollowConfirmation        *Channel[*protocol.FollowConfirmationMessage]
	FollowAbort               *Channel[*protocol.FollowAbortMessage]
	MoveToPosition            *Channel[*protocol.MoveToPositionMessage]
	ConnectionError           *Channel[CloseEvent]
	JoinMucRoom               *Channel[*protocol.MucRoomDefinitionMessage]
	LeaveMucRoom              *Channel[*protocol.LeaveMucRoomMessage]

	// Space user channels only carry users matched by a space filter the client registered.
	AddSpaceUser    *Channel[*protocol.AddSpaceUserMessage]
	UpdateSpaceUser *Channel[*protocol.UpdateSpaceUserMessage]
	RemoveSpaceUser *Channel[*protocol.RemoveSpaceUserMessage]

	// XmppSettings replays the latest settings to late subscribers.
	XmppSettings *Channel[*protocol.XmppSettingsMessage]

	all          []completer
	completeOnce sync.Once
}

// NewStreams creates every channel of a connection.
func NewStreams(logger *zap.Logger) *Streams {
	s := &Streams{}
	s.ErrorMessage = register(s, NewChannel[*protocol.ErrorMessage]("errorMessage", logger))
	s.ErrorScreen = register(s, NewChannel[*protocol.ErrorScreenMessage]("errorScreenMessage", logger))
	s.RoomJoined = register(s, NewChannel[RoomJoined]("roomJoinedMessage", logger))
	s.WebRtcStart = register(s, NewChannel[WebRtcStart]("webRtcStartMessage", logger))
	s.WebRtcSignal = register(s, NewChannel[WebRtcSignal]("webRtcSignalToClientMessage", logger))
	s.WebRtcScreenSharingSignal = register(s, NewChannel[WebRtcSignal]("webRtcScreenSharingSignalToClientMessage", logger))
	s.WebRtcDisconnect = register(s, NewChannel[*protocol.WebRtcDisconnectMessage]("webRtcDisconnectMessage", logger))
	s.Teleport = register(s, NewChannel[string]("teleportMessageMessage", logger))
	s.WorldFull = register(s, NewChannel[WorldFull]("worldFullMessage", logger))
	s.WorldFullWarning = register(s, NewChannel[struct{}]("worldFullWarningMessage", logger))
	s.InvalidTexture = register(s, NewChannel[struct{}]("invalidTextureMessage", logger))
	s.TokenExpired = register(s, NewChannel[struct{}]("tokenExpiredMessage", logger))
	s.UserMoved = register(s, NewChannel[*protocol.UserMovedMessage]("userMovedMessage", logger))
	s.GroupUpdate = register(s, NewChannel[GroupUpdate]("groupUpdateMessage", logger))
	s.GroupUsersUpdate = register(s, NewChannel[*protocol.GroupUsersUpdateMessage]("groupUsersUpdateMessage", logger))
	s.GroupDelete = register(s, NewChannel[*protocol.GroupDeleteMessage]("groupDeleteMessage", logger))
	s.UserJoined = register(s, NewChannel[UserJoined]("userJoinedMessage", logger))
	s.UserLeft = register(s, NewChannel[*protocol.UserLeftMessage]("userLeftMessage", logger))
	s.RefreshRoom = register(s, NewChannel[*protocol.RefreshRoomMessage]("refreshRoomMessage", logger))
	s.ItemEvent = register(s, NewChannel[ItemEvent]("itemEventMessage", logger))
	s.EmoteEvent = register(s, NewChannel[*protocol.EmoteEventMessage]("emoteEventMessage", logger))
	s.Variable = register(s, NewChannel[Variable]("variableMessage", logger))
	s.PlayerDetailsUpdated = register(s, NewChannel[*protocol.PlayerDetailsUpdatedMessage]("playerDetailsUpdatedMessage", logger))
	s.EditMapCommand = register(s, NewChannel[*protocol.EditMapCommandMessage]("editMapCommandMessage", logger))
	s.AdminMessage = register(s, NewChannel[AdminMessage]("adminMessage", logger))
	s.FollowRequest = register(s, NewChannel[*protocol.FollowRequestMessage]("followRequestMessage", logger))
	s.FollowConfirmation = register(s, NewChannel[*protocol.FollowConfirmationMessage]("followConfirmationMessage", logger))
	s.FollowAbort = register(s, NewChannel[*protocol.FollowAbortMessage]("followAbortMessage", logger))
	s.MoveToPosition = register(s, NewChannel[*protocol.MoveToPositionMessage]("moveToPositionMessage", logger))
	s.ConnectionError = register(s, NewChannel[CloseEvent]("connectionError", logger))
	s.JoinMucRoom = register(s, NewChannel[*protocol.MucRoomDefinitionMessage]("joinMucRoomMessage", logger))
	s.LeaveMucRoom = register(s, NewChannel[*protocol.LeaveMucRoomMessage]("leaveMucRoomMessage", logger))
	s.AddSpaceUser = register(s, NewChannel[*protocol.AddSpaceUserMessage]("addSpaceUserMessage", logger))
	s.UpdateSpaceUser = register(s, NewChannel[*protocol.UpdateSpaceUserMessage]("updateSpaceUserMessage", logger))
	s.RemoveSpaceUser = register(s, NewChannel[*protocol.RemoveSpaceUserMessage]("removeSpaceUserMessage", logger))
	s.XmppSettings = register(s, NewBehaviorChannel[*protocol.XmppSettingsMessage]("xmppSettingsMessage", logger))
	return s
}

func register[T any](s *Streams, c *Channel[T]) *Channel[T] {
	s.all = append(s.all, c)
	return c
}

// CompleteAll completes every channel. Only the first call has an effect; it reports whether
// this call performed the completion.
func (s *Streams) CompleteAll() bool {
	done := false
	s.completeOnce.Do(func() {
		for _, c := range s.all {
			c.Complete()
		}
		done = true
	})
	return done
}
