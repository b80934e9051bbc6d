package protocol

import (
	"errors"
	"fmt"
)

// ServerMessage is one variant of the server to client envelope.
type ServerMessage interface {
	message
	serverCase() caseNumber
}

// SubMessage is one entry of a BatchMessage.
type SubMessage interface {
	message
	subCase() caseNumber
}

const (
	serverBatch caseNumber = iota + 1
	serverRoomJoined
	serverWorldFull
	serverInvalidTexture
	serverTokenExpired
	serverWorldConnexion
	serverWebRtcSignal
	serverWebRtcScreenSharingSignal
	serverWebRtcStart
	serverWebRtcDisconnect
	serverTeleport
	serverGroupUsersUpdate
	serverSendUser
	serverBanUser
	serverWorldFullWarning
	serverRefreshRoom
	serverFollowRequest
	serverFollowConfirmation
	serverFollowAbort
	serverError
	serverErrorScreen
	serverMoveToPosition
	serverAnswer
	serverXmppSettings
)

const (
	subError caseNumber = iota + 1
	subUserJoined
	subUserLeft
	subUserMoved
	subGroupUpdate
	subGroupDelete
	subItemEvent
	subEmoteEvent
	subPlayerDetailsUpdated
	subVariable
	subPing
	subEditMapCommand
	subJoinMucRoom
	subLeaveMucRoom
	subAddSpaceUser
	subUpdateSpaceUser
	subRemoveSpaceUser
)

var serverCases = map[caseNumber]oneofCase[ServerMessage]{
	serverBatch:                     {"batchMessage", func() ServerMessage { return &BatchMessage{} }},
	serverRoomJoined:                {"roomJoinedMessage", func() ServerMessage { return &RoomJoinedMessage{} }},
	serverWorldFull:                 {"worldFullMessage", func() ServerMessage { return &WorldFullMessage{} }},
	serverInvalidTexture:            {"invalidTextureMessage", func() ServerMessage { return &InvalidTextureMessage{} }},
	serverTokenExpired:              {"tokenExpiredMessage", func() ServerMessage { return &TokenExpiredMessage{} }},
	serverWorldConnexion:            {"worldConnexionMessage", func() ServerMessage { return &WorldConnexionMessage{} }},
	serverWebRtcSignal:              {"webRtcSignalToClientMessage", func() ServerMessage { return &WebRtcSignalToClientMessage{} }},
	serverWebRtcScreenSharingSignal: {"webRtcScreenSharingSignalToClientMessage", func() ServerMessage { return &WebRtcScreenSharingSignalToClientMessage{} }},
	serverWebRtcStart:               {"webRtcStartMessage", func() ServerMessage { return &WebRtcStartMessage{} }},
	serverWebRtcDisconnect:          {"webRtcDisconnectMessage", func() ServerMessage { return &WebRtcDisconnectMessage{} }},
	serverTeleport:                  {"teleportMessageMessage", func() ServerMessage { return &TeleportMessageMessage{} }},
	serverGroupUsersUpdate:          {"groupUsersUpdateMessage", func() ServerMessage { return &GroupUsersUpdateMessage{} }},
	serverSendUser:                  {"sendUserMessage", func() ServerMessage { return &SendUserMessage{} }},
	serverBanUser:                   {"banUserMessage", func() ServerMessage { return &BanUserMessage{} }},
	serverWorldFullWarning:          {"worldFullWarningMessage", func() ServerMessage { return &WorldFullWarningMessage{} }},
	serverRefreshRoom:               {"refreshRoomMessage", func() ServerMessage { return &RefreshRoomMessage{} }},
	serverFollowRequest:             {"followRequestMessage", func() ServerMessage { return &FollowRequestMessage{} }},
	serverFollowConfirmation:        {"followConfirmationMessage", func() ServerMessage { return &FollowConfirmationMessage{} }},
	serverFollowAbort:               {"followAbortMessage", func() ServerMessage { return &FollowAbortMessage{} }},
	serverError:                     {"errorMessage", func() ServerMessage { return &ErrorMessage{} }},
	serverErrorScreen:               {"errorScreenMessage", func() ServerMessage { return &ErrorScreenMessage{} }},
	serverMoveToPosition:            {"moveToPositionMessage", func() ServerMessage { return &MoveToPositionMessage{} }},
	serverAnswer:                    {"answerMessage", func() ServerMessage { return &AnswerMessage{} }},
	serverXmppSettings:              {"xmppSettingsMessage", func() ServerMessage { return &XmppSettingsMessage{} }},
}

var subCases = map[caseNumber]oneofCase[SubMessage]{
	subError:                {"errorMessage", func() SubMessage { return &ErrorMessage{} }},
	subUserJoined:           {"userJoinedMessage", func() SubMessage { return &UserJoinedMessage{} }},
	subUserLeft:             {"userLeftMessage", func() SubMessage { return &UserLeftMessage{} }},
	subUserMoved:            {"userMovedMessage", func() SubMessage { return &UserMovedMessage{} }},
	subGroupUpdate:          {"groupUpdateMessage", func() SubMessage { return &GroupUpdateMessage{} }},
	subGroupDelete:          {"groupDeleteMessage", func() SubMessage { return &GroupDeleteMessage{} }},
	subItemEvent:            {"itemEventMessage", func() SubMessage { return &ItemEventMessage{} }},
	subEmoteEvent:           {"emoteEventMessage", func() SubMessage { return &EmoteEventMessage{} }},
	subPlayerDetailsUpdated: {"playerDetailsUpdatedMessage", func() SubMessage { return &PlayerDetailsUpdatedMessage{} }},
	subVariable:             {"variableMessage", func() SubMessage { return &VariableMessage{} }},
	subPing:                 {"pingMessage", func() SubMessage { return &PingMessage{} }},
	subEditMapCommand:       {"editMapCommandMessage", func() SubMessage { return &EditMapCommandMessage{} }},
	subJoinMucRoom:          {"joinMucRoomMessage", func() SubMessage { return &JoinMucRoomMessage{} }},
	subLeaveMucRoom:         {"leaveMucRoomMessage", func() SubMessage { return &LeaveMucRoomMessage{} }},
	subAddSpaceUser:         {"addSpaceUserMessage", func() SubMessage { return &AddSpaceUserMessage{} }},
	subUpdateSpaceUser:      {"updateSpaceUserMessage", func() SubMessage { return &UpdateSpaceUserMessage{} }},
	subRemoveSpaceUser:      {"removeSpaceUserMessage", func() SubMessage { return &RemoveSpaceUserMessage{} }},
}

// EncodeServer encodes a server to client envelope.
func EncodeServer(m ServerMessage) ([]byte, error) {
	if m == nil {
		return nil, errors.New("nil server message")
	}
	return encodeEnvelope(m.serverCase(), m)
}

// DecodeServer decodes a server to client envelope. It returns a nil message and no error when
// the envelope carries a variant this build does not know, so newer servers do not break older
// clients.
func DecodeServer(data []byte) (ServerMessage, error) {
	if len(data) > maxPayloadSize {
		return nil, &DecodeError{Envelope: "ServerToClientMessage", Err: errPayloadTooLarge}
	}
	m, err := decodeOneof(data, serverCases)
	if err != nil {
		return nil, &DecodeError{Envelope: "ServerToClientMessage", Err: err}
	}
	return m, nil
}

// ServerKind returns the wire name of a server message variant, e.g. "batchMessage".
func ServerKind(m ServerMessage) string {
	if m == nil {
		return ""
	}
	if c, ok := serverCases[m.serverCase()]; ok {
		return c.name
	}
	return fmt.Sprintf("server case %d", m.serverCase())
}

// SubKind returns the wire name of a batch entry variant.
func SubKind(m SubMessage) string {
	if m == nil {
		return ""
	}
	if c, ok := subCases[m.subCase()]; ok {
		return c.name
	}
	return fmt.Sprintf("sub case %d", m.subCase())
}

// ServerMessageVariants returns one zero value of every server envelope variant.
func ServerMessageVariants() []ServerMessage {
	out := make([]ServerMessage, 0, len(serverCases))
	for n := serverBatch; n <= serverXmppSettings; n++ {
		out = append(out, serverCases[n].new())
	}
	return out
}

// SubMessageVariants returns one zero value of every batch entry variant.
func SubMessageVariants() []SubMessage {
	out := make([]SubMessage, 0, len(subCases))
	for n := subError; n <= subRemoveSpaceUser; n++ {
		out = append(out, subCases[n].new())
	}
	return out
}

// BatchMessage groups logically simultaneous events. Entries must be applied in order.
type BatchMessage struct {
	Event   string
	Payload []SubMessage
}

func (*BatchMessage) serverCase() caseNumber { return serverBatch }

func (m *BatchMessage) appendTo(e *encoder) {
	e.string(1, m.Event)
	for _, sub := range m.Payload {
		entry := encoder{}
		entry.message(sub.subCase(), sub)
		e.buf = appendBytesField(e.buf, 2, entry.buf)
	}
}

func (m *BatchMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Event = f.string()
		case 2:
			sub, err := decodeOneof(f.bytes(), subCases)
			if err != nil {
				return err
			}
			// unknown entries are dropped, the rest of the batch still applies
			if sub != nil {
				m.Payload = append(m.Payload, sub)
			}
		}
		return nil
	})
}

type ItemStateMessage struct {
	ItemID    int32
	StateJSON string
}

func (m *ItemStateMessage) appendTo(e *encoder) {
	e.int32(1, m.ItemID)
	e.string(2, m.StateJSON)
}

func (m *ItemStateMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.ItemID = f.int32()
		case 2:
			m.StateJSON = f.string()
		}
		return nil
	})
}

type ApplicationMessage struct {
	Name   string
	Script string
}

func (m *ApplicationMessage) appendTo(e *encoder) {
	e.string(1, m.Name)
	e.string(2, m.Script)
}

func (m *ApplicationMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Name = f.string()
		case 2:
			m.Script = f.string()
		}
		return nil
	})
}

// RoomJoinedMessage confirms the join and carries the initial room snapshot.
type RoomJoinedMessage struct {
	Items               []*ItemStateMessage
	CurrentUserID       int32
	Tags                []string
	Variables           []*VariableMessage
	UserRoomToken       string
	CharacterLayers     []*CharacterLayerMessage
	ActivatedInviteUser *bool
	PlayerVariables     []*VariableMessage
	CanEdit             bool
	Applications        []*ApplicationMessage
	// EditMapCommands is nil when the server has nothing to replay.
	EditMapCommands []*EditMapCommandMessage
	WebrtcUserName  string
	WebrtcPassword  string
}

func (*RoomJoinedMessage) serverCase() caseNumber { return serverRoomJoined }

func (m *RoomJoinedMessage) appendTo(e *encoder) {
	for _, it := range m.Items {
		e.message(1, it)
	}
	e.int32(2, m.CurrentUserID)
	e.strings(3, m.Tags)
	for _, v := range m.Variables {
		e.message(4, v)
	}
	e.string(5, m.UserRoomToken)
	for _, l := range m.CharacterLayers {
		e.message(6, l)
	}
	e.optBool(7, m.ActivatedInviteUser)
	for _, v := range m.PlayerVariables {
		e.message(8, v)
	}
	e.bool(9, m.CanEdit)
	for _, a := range m.Applications {
		e.message(10, a)
	}
	if m.EditMapCommands != nil {
		cmds := encoder{}
		for _, c := range m.EditMapCommands {
			cmds.message(1, c)
		}
		e.buf = appendBytesField(e.buf, 11, cmds.buf)
	}
	e.string(12, m.WebrtcUserName)
	e.string(13, m.WebrtcPassword)
}

func (m *RoomJoinedMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			it := &ItemStateMessage{}
			if err := it.unmarshal(f.bytes()); err != nil {
				return err
			}
			m.Items = append(m.Items, it)
		case 2:
			m.CurrentUserID = f.int32()
		case 3:
			m.Tags = append(m.Tags, f.string())
		case 4:
			v := &VariableMessage{}
			if err := v.unmarshal(f.bytes()); err != nil {
				return err
			}
			m.Variables = append(m.Variables, v)
		case 5:
			m.UserRoomToken = f.string()
		case 6:
			l := &CharacterLayerMessage{}
			if err := l.unmarshal(f.bytes()); err != nil {
				return err
			}
			m.CharacterLayers = append(m.CharacterLayers, l)
		case 7:
			v := f.bool()
			m.ActivatedInviteUser = &v
		case 8:
			v := &VariableMessage{}
			if err := v.unmarshal(f.bytes()); err != nil {
				return err
			}
			m.PlayerVariables = append(m.PlayerVariables, v)
		case 9:
			m.CanEdit = f.bool()
		case 10:
			a := &ApplicationMessage{}
			if err := a.unmarshal(f.bytes()); err != nil {
				return err
			}
			m.Applications = append(m.Applications, a)
		case 11:
			cmds := []*EditMapCommandMessage{}
			err := eachField(f.bytes(), func(cf field) error {
				if cf.num != 1 {
					return nil
				}
				c := &EditMapCommandMessage{}
				if err := c.unmarshal(cf.bytes()); err != nil {
					return err
				}
				cmds = append(cmds, c)
				return nil
			})
			if err != nil {
				return err
			}
			m.EditMapCommands = cmds
		case 12:
			m.WebrtcUserName = f.string()
		case 13:
			m.WebrtcPassword = f.string()
		}
		return nil
	})
}

type WorldFullMessage struct{}

func (*WorldFullMessage) serverCase() caseNumber { return serverWorldFull }
func (*WorldFullMessage) appendTo(*encoder)      {}
func (*WorldFullMessage) unmarshal(b []byte) error {
	return eachField(b, func(field) error { return nil })
}

type InvalidTextureMessage struct{}

func (*InvalidTextureMessage) serverCase() caseNumber { return serverInvalidTexture }
func (*InvalidTextureMessage) appendTo(*encoder)      {}
func (*InvalidTextureMessage) unmarshal(b []byte) error {
	return eachField(b, func(field) error { return nil })
}

type TokenExpiredMessage struct{}

func (*TokenExpiredMessage) serverCase() caseNumber { return serverTokenExpired }
func (*TokenExpiredMessage) appendTo(*encoder)      {}
func (*TokenExpiredMessage) unmarshal(b []byte) error {
	return eachField(b, func(field) error { return nil })
}

type WorldFullWarningMessage struct{}

func (*WorldFullWarningMessage) serverCase() caseNumber { return serverWorldFullWarning }
func (*WorldFullWarningMessage) appendTo(*encoder)      {}
func (*WorldFullWarningMessage) unmarshal(b []byte) error {
	return eachField(b, func(field) error { return nil })
}

// WorldConnexionMessage rejects the connection to the world with a message for the user.
type WorldConnexionMessage struct {
	Message string
}

func (*WorldConnexionMessage) serverCase() caseNumber { return serverWorldConnexion }

func (m *WorldConnexionMessage) appendTo(e *encoder) {
	e.string(1, m.Message)
}

func (m *WorldConnexionMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.Message = f.string()
		}
		return nil
	})
}

// WebRtcSignalToClientMessage relays a signal from another user. Signal is a JSON document.
type WebRtcSignalToClientMessage struct {
	UserID         int32
	Signal         string
	WebrtcUserName string
	WebrtcPassword string
}

func (*WebRtcSignalToClientMessage) serverCase() caseNumber { return serverWebRtcSignal }

func (m *WebRtcSignalToClientMessage) appendTo(e *encoder) {
	appendSignal(e, m.UserID, m.Signal, m.WebrtcUserName, m.WebrtcPassword)
}

func (m *WebRtcSignalToClientMessage) unmarshal(b []byte) error {
	return unmarshalSignal(b, &m.UserID, &m.Signal, &m.WebrtcUserName, &m.WebrtcPassword)
}

type WebRtcScreenSharingSignalToClientMessage struct {
	UserID         int32
	Signal         string
	WebrtcUserName string
	WebrtcPassword string
}

func (*WebRtcScreenSharingSignalToClientMessage) serverCase() caseNumber {
	return serverWebRtcScreenSharingSignal
}

func (m *WebRtcScreenSharingSignalToClientMessage) appendTo(e *encoder) {
	appendSignal(e, m.UserID, m.Signal, m.WebrtcUserName, m.WebrtcPassword)
}

func (m *WebRtcScreenSharingSignalToClientMessage) unmarshal(b []byte) error {
	return unmarshalSignal(b, &m.UserID, &m.Signal, &m.WebrtcUserName, &m.WebrtcPassword)
}

func appendSignal(e *encoder, userID int32, signal, user, password string) {
	e.int32(1, userID)
	e.string(2, signal)
	e.string(3, user)
	e.string(4, password)
}

func unmarshalSignal(b []byte, userID *int32, signal, user, password *string) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			*userID = f.int32()
		case 2:
			*signal = f.string()
		case 3:
			*user = f.string()
		case 4:
			*password = f.string()
		}
		return nil
	})
}

type WebRtcStartMessage struct {
	UserID         int32
	Initiator      bool
	WebrtcUserName string
	WebrtcPassword string
}

func (*WebRtcStartMessage) serverCase() caseNumber { return serverWebRtcStart }

func (m *WebRtcStartMessage) appendTo(e *encoder) {
	e.int32(1, m.UserID)
	e.bool(2, m.Initiator)
	e.string(3, m.WebrtcUserName)
	e.string(4, m.WebrtcPassword)
}

func (m *WebRtcStartMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.UserID = f.int32()
		case 2:
			m.Initiator = f.bool()
		case 3:
			m.WebrtcUserName = f.string()
		case 4:
			m.WebrtcPassword = f.string()
		}
		return nil
	})
}

type WebRtcDisconnectMessage struct {
	UserID int32
}

func (*WebRtcDisconnectMessage) serverCase() caseNumber { return serverWebRtcDisconnect }

func (m *WebRtcDisconnectMessage) appendTo(e *encoder) {
	e.int32(1, m.UserID)
}

func (m *WebRtcDisconnectMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.UserID = f.int32()
		}
		return nil
	})
}

type TeleportMessageMessage struct {
	Map string
}

func (*TeleportMessageMessage) serverCase() caseNumber { return serverTeleport }

func (m *TeleportMessageMessage) appendTo(e *encoder) {
	e.string(1, m.Map)
}

func (m *TeleportMessageMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.Map = f.string()
		}
		return nil
	})
}

type GroupUsersUpdateMessage struct {
	GroupID int32
	UserIDs []int32
}

func (*GroupUsersUpdateMessage) serverCase() caseNumber { return serverGroupUsersUpdate }

func (m *GroupUsersUpdateMessage) appendTo(e *encoder) {
	e.int32(1, m.GroupID)
	e.int32s(2, m.UserIDs)
}

func (m *GroupUsersUpdateMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.GroupID = f.int32()
		case 2:
			ids, err := f.int32s()
			if err != nil {
				return err
			}
			m.UserIDs = append(m.UserIDs, ids...)
		}
		return nil
	})
}

// SendUserMessage is an admin message addressed to the user.
type SendUserMessage struct {
	Type    string
	Message string
}

func (*SendUserMessage) serverCase() caseNumber { return serverSendUser }

func (m *SendUserMessage) appendTo(e *encoder) {
	e.string(1, m.Type)
	e.string(2, m.Message)
}

func (m *SendUserMessage) unmarshal(b []byte) error {
	return unmarshalAdmin(b, &m.Type, &m.Message)
}

// BanUserMessage notifies the user of a ban.
type BanUserMessage struct {
	Type    string
	Message string
}

func (*BanUserMessage) serverCase() caseNumber { return serverBanUser }

func (m *BanUserMessage) appendTo(e *encoder) {
	e.string(1, m.Type)
	e.string(2, m.Message)
}

func (m *BanUserMessage) unmarshal(b []byte) error {
	return unmarshalAdmin(b, &m.Type, &m.Message)
}

func unmarshalAdmin(b []byte, typ, msg *string) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			*typ = f.string()
		case 2:
			*msg = f.string()
		}
		return nil
	})
}

type RefreshRoomMessage struct {
	RoomID        string
	VersionNumber int32
	Comment       string
	TimeToRefresh int32
}

func (*RefreshRoomMessage) serverCase() caseNumber { return serverRefreshRoom }

func (m *RefreshRoomMessage) appendTo(e *encoder) {
	e.string(1, m.RoomID)
	e.int32(2, m.VersionNumber)
	e.string(3, m.Comment)
	e.int32(4, m.TimeToRefresh)
}

func (m *RefreshRoomMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.RoomID = f.string()
		case 2:
			m.VersionNumber = f.int32()
		case 3:
			m.Comment = f.string()
		case 4:
			m.TimeToRefresh = f.int32()
		}
		return nil
	})
}

// ErrorScreenMessage asks the client to show a fatal error screen. Code "retry" keeps the session
// open; Type "redirect" with URLToRedirect asks for a redirection.
type ErrorScreenMessage struct {
	Type           string
	Code           string
	Title          string
	Subtitle       string
	Details        string
	Image          string
	URLToRedirect  string
	ButtonTitle    string
	TimeToRetry    int32
	CanRetryManual bool
}

func (*ErrorScreenMessage) serverCase() caseNumber { return serverErrorScreen }

func (m *ErrorScreenMessage) appendTo(e *encoder) {
	e.string(1, m.Type)
	e.string(2, m.Code)
	e.string(3, m.Title)
	e.string(4, m.Subtitle)
	e.string(5, m.Details)
	e.string(6, m.Image)
	e.string(7, m.URLToRedirect)
	e.string(8, m.ButtonTitle)
	e.int32(9, m.TimeToRetry)
	e.bool(10, m.CanRetryManual)
}

func (m *ErrorScreenMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Type = f.string()
		case 2:
			m.Code = f.string()
		case 3:
			m.Title = f.string()
		case 4:
			m.Subtitle = f.string()
		case 5:
			m.Details = f.string()
		case 6:
			m.Image = f.string()
		case 7:
			m.URLToRedirect = f.string()
		case 8:
			m.ButtonTitle = f.string()
		case 9:
			m.TimeToRetry = f.int32()
		case 10:
			m.CanRetryManual = f.bool()
		}
		return nil
	})
}

type MoveToPositionMessage struct {
	Position *PositionMessage
}

func (*MoveToPositionMessage) serverCase() caseNumber { return serverMoveToPosition }

func (m *MoveToPositionMessage) appendTo(e *encoder) {
	if m.Position != nil {
		e.message(1, m.Position)
	}
}

func (m *MoveToPositionMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.Position = &PositionMessage{}
			return m.Position.unmarshal(f.bytes())
		}
		return nil
	})
}

type XmppSettingsMessage struct {
	Jid        string
	Conference string
	Rooms      []string
}

func (*XmppSettingsMessage) serverCase() caseNumber { return serverXmppSettings }

func (m *XmppSettingsMessage) appendTo(e *encoder) {
	e.string(1, m.Jid)
	e.string(2, m.Conference)
	e.strings(3, m.Rooms)
}

func (m *XmppSettingsMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Jid = f.string()
		case 2:
			m.Conference = f.string()
		case 3:
			m.Rooms = append(m.Rooms, f.string())
		}
		return nil
	})
}

// UserJoinedMessage announces a remote user entering the viewport. Position is required.
type UserJoinedMessage struct {
	UserID             int32
	Name               string
	CharacterLayers    []*CharacterLayerMessage
	Position           *PositionMessage
	Companion          *CompanionMessage
	VisitCardURL       string
	UserUUID           string
	OutlineColor       uint32
	HasOutline         bool
	AvailabilityStatus AvailabilityStatus
	Variables          map[string]string
	UserJid            string
}

func (*UserJoinedMessage) subCase() caseNumber { return subUserJoined }

func (m *UserJoinedMessage) appendTo(e *encoder) {
	e.int32(1, m.UserID)
	e.string(2, m.Name)
	for _, l := range m.CharacterLayers {
		e.message(3, l)
	}
	if m.Position != nil {
		e.message(4, m.Position)
	}
	if m.Companion != nil {
		e.message(5, m.Companion)
	}
	e.string(6, m.VisitCardURL)
	e.string(7, m.UserUUID)
	e.uint32(8, m.OutlineColor)
	e.bool(9, m.HasOutline)
	e.int32(10, int32(m.AvailabilityStatus))
	e.stringMap(11, m.Variables)
	e.string(12, m.UserJid)
}

func (m *UserJoinedMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.UserID = f.int32()
		case 2:
			m.Name = f.string()
		case 3:
			l := &CharacterLayerMessage{}
			if err := l.unmarshal(f.bytes()); err != nil {
				return err
			}
			m.CharacterLayers = append(m.CharacterLayers, l)
		case 4:
			m.Position = &PositionMessage{}
			return m.Position.unmarshal(f.bytes())
		case 5:
			m.Companion = &CompanionMessage{}
			return m.Companion.unmarshal(f.bytes())
		case 6:
			m.VisitCardURL = f.string()
		case 7:
			m.UserUUID = f.string()
		case 8:
			m.OutlineColor = f.uint32()
		case 9:
			m.HasOutline = f.bool()
		case 10:
			m.AvailabilityStatus = AvailabilityStatus(f.int32())
		case 11:
			k, v, err := decodeStringMapEntry(f.bytes())
			if err != nil {
				return err
			}
			if m.Variables == nil {
				m.Variables = make(map[string]string)
			}
			m.Variables[k] = v
		case 12:
			m.UserJid = f.string()
		}
		return nil
	})
}

type UserLeftMessage struct {
	UserID int32
}

func (*UserLeftMessage) subCase() caseNumber { return subUserLeft }

func (m *UserLeftMessage) appendTo(e *encoder) {
	e.int32(1, m.UserID)
}

func (m *UserLeftMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.UserID = f.int32()
		}
		return nil
	})
}

// UserMovedMessage is a rate-limited position sample of a remote user. Position is required.
type UserMovedMessage struct {
	UserID   int32
	Position *PositionMessage
}

func (*UserMovedMessage) subCase() caseNumber { return subUserMoved }

func (m *UserMovedMessage) appendTo(e *encoder) {
	e.int32(1, m.UserID)
	if m.Position != nil {
		e.message(2, m.Position)
	}
}

func (m *UserMovedMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.UserID = f.int32()
		case 2:
			m.Position = &PositionMessage{}
			return m.Position.unmarshal(f.bytes())
		}
		return nil
	})
}

// GroupUpdateMessage creates or updates a discussion group bubble. Position is required.
type GroupUpdateMessage struct {
	GroupID   int32
	Position  *PointMessage
	GroupSize int32
	Locked    bool
}

func (*GroupUpdateMessage) subCase() caseNumber { return subGroupUpdate }

func (m *GroupUpdateMessage) appendTo(e *encoder) {
	e.int32(1, m.GroupID)
	if m.Position != nil {
		e.message(2, m.Position)
	}
	e.int32(3, m.GroupSize)
	e.bool(4, m.Locked)
}

func (m *GroupUpdateMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.GroupID = f.int32()
		case 2:
			m.Position = &PointMessage{}
			return m.Position.unmarshal(f.bytes())
		case 3:
			m.GroupSize = f.int32()
		case 4:
			m.Locked = f.bool()
		}
		return nil
	})
}

type GroupDeleteMessage struct {
	GroupID int32
}

func (*GroupDeleteMessage) subCase() caseNumber { return subGroupDelete }

func (m *GroupDeleteMessage) appendTo(e *encoder) {
	e.int32(1, m.GroupID)
}

func (m *GroupDeleteMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.GroupID = f.int32()
		}
		return nil
	})
}

type EmoteEventMessage struct {
	ActorUserID int32
	Emote       string
}

func (*EmoteEventMessage) subCase() caseNumber { return subEmoteEvent }

func (m *EmoteEventMessage) appendTo(e *encoder) {
	e.int32(1, m.ActorUserID)
	e.string(2, m.Emote)
}

func (m *EmoteEventMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.ActorUserID = f.int32()
		case 2:
			m.Emote = f.string()
		}
		return nil
	})
}

// PlayerDetailsUpdatedMessage broadcasts a partial details update of a user.
type PlayerDetailsUpdatedMessage struct {
	UserID  int32
	Details *SetPlayerDetailsMessage
}

func (*PlayerDetailsUpdatedMessage) subCase() caseNumber { return subPlayerDetailsUpdated }

func (m *PlayerDetailsUpdatedMessage) appendTo(e *encoder) {
	e.int32(1, m.UserID)
	if m.Details != nil {
		e.message(2, m.Details)
	}
}

func (m *PlayerDetailsUpdatedMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.UserID = f.int32()
		case 2:
			m.Details = &SetPlayerDetailsMessage{}
			return m.Details.unmarshal(f.bytes())
		}
		return nil
	})
}

// MucRoomDefinitionMessage describes a chat room the client should join.
type MucRoomDefinitionMessage struct {
	URL       string
	Name      string
	Subscribe bool
}

func (m *MucRoomDefinitionMessage) appendTo(e *encoder) {
	e.string(1, m.URL)
	e.string(2, m.Name)
	e.bool(3, m.Subscribe)
}

func (m *MucRoomDefinitionMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.URL = f.string()
		case 2:
			m.Name = f.string()
		case 3:
			m.Subscribe = f.bool()
		}
		return nil
	})
}

// JoinMucRoomMessage asks the client to join a chat room. Definition is required.
type JoinMucRoomMessage struct {
	Definition *MucRoomDefinitionMessage
}

func (*JoinMucRoomMessage) subCase() caseNumber { return subJoinMucRoom }

func (m *JoinMucRoomMessage) appendTo(e *encoder) {
	if m.Definition != nil {
		e.message(1, m.Definition)
	}
}

func (m *JoinMucRoomMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.Definition = &MucRoomDefinitionMessage{}
			return m.Definition.unmarshal(f.bytes())
		}
		return nil
	})
}

type LeaveMucRoomMessage struct {
	URL string
}

func (*LeaveMucRoomMessage) subCase() caseNumber { return subLeaveMucRoom }

func (m *LeaveMucRoomMessage) appendTo(e *encoder) {
	e.string(1, m.URL)
}

func (m *LeaveMucRoomMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.URL = f.string()
		}
		return nil
	})
}

// SpaceUserMessage is a member of a space as seen through a space filter.
type SpaceUserMessage struct {
	ID                 int32
	UUID               string
	Name               string
	PlayURI            string
	Color              string
	CharacterLayers    []*CharacterLayerMessage
	IsLogged           bool
	AvailabilityStatus AvailabilityStatus
	RoomName           string
	VisitCardURL       string
	Tags               []string
	CameraState        bool
	MicrophoneState    bool
	ScreenSharingState bool
}

func (m *SpaceUserMessage) appendTo(e *encoder) {
	e.int32(1, m.ID)
	e.string(2, m.UUID)
	e.string(3, m.Name)
	e.string(4, m.PlayURI)
	e.string(5, m.Color)
	for _, l := range m.CharacterLayers {
		e.message(6, l)
	}
	e.bool(7, m.IsLogged)
	e.int32(8, int32(m.AvailabilityStatus))
	e.string(9, m.RoomName)
	e.string(10, m.VisitCardURL)
	e.strings(11, m.Tags)
	e.bool(12, m.CameraState)
	e.bool(13, m.MicrophoneState)
	e.bool(14, m.ScreenSharingState)
}

func (m *SpaceUserMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = f.int32()
		case 2:
			m.UUID = f.string()
		case 3:
			m.Name = f.string()
		case 4:
			m.PlayURI = f.string()
		case 5:
			m.Color = f.string()
		case 6:
			l := &CharacterLayerMessage{}
			if err := l.unmarshal(f.bytes()); err != nil {
				return err
			}
			m.CharacterLayers = append(m.CharacterLayers, l)
		case 7:
			m.IsLogged = f.bool()
		case 8:
			m.AvailabilityStatus = AvailabilityStatus(f.int32())
		case 9:
			m.RoomName = f.string()
		case 10:
			m.VisitCardURL = f.string()
		case 11:
			m.Tags = append(m.Tags, f.string())
		case 12:
			m.CameraState = f.bool()
		case 13:
			m.MicrophoneState = f.bool()
		case 14:
			m.ScreenSharingState = f.bool()
		}
		return nil
	})
}

// AddSpaceUserMessage reports a user entering a filtered space. User is required.
type AddSpaceUserMessage struct {
	SpaceName  string
	User       *SpaceUserMessage
	FilterName string
}

func (*AddSpaceUserMessage) subCase() caseNumber { return subAddSpaceUser }

func (m *AddSpaceUserMessage) appendTo(e *encoder) {
	appendSpaceUser(e, m.SpaceName, m.User, m.FilterName)
}

func (m *AddSpaceUserMessage) unmarshal(b []byte) error {
	return unmarshalSpaceUser(b, &m.SpaceName, &m.User, &m.FilterName)
}

// UpdateSpaceUserMessage carries the new state of a user of a filtered space. User is required.
type UpdateSpaceUserMessage struct {
	SpaceName  string
	User       *SpaceUserMessage
	FilterName string
}

func (*UpdateSpaceUserMessage) subCase() caseNumber { return subUpdateSpaceUser }

func (m *UpdateSpaceUserMessage) appendTo(e *encoder) {
	appendSpaceUser(e, m.SpaceName, m.User, m.FilterName)
}

func (m *UpdateSpaceUserMessage) unmarshal(b []byte) error {
	return unmarshalSpaceUser(b, &m.SpaceName, &m.User, &m.FilterName)
}

func appendSpaceUser(e *encoder, space string, user *SpaceUserMessage, filter string) {
	e.string(1, space)
	if user != nil {
		e.message(2, user)
	}
	e.string(3, filter)
}

func unmarshalSpaceUser(b []byte, space *string, user **SpaceUserMessage, filter *string) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			*space = f.string()
		case 2:
			*user = &SpaceUserMessage{}
			return (*user).unmarshal(f.bytes())
		case 3:
			*filter = f.string()
		}
		return nil
	})
}

type RemoveSpaceUserMessage struct {
	SpaceName  string
	UserID     int32
	FilterName string
}

func (*RemoveSpaceUserMessage) subCase() caseNumber { return subRemoveSpaceUser }

func (m *RemoveSpaceUserMessage) appendTo(e *encoder) {
	e.string(1, m.SpaceName)
	e.int32(2, m.UserID)
	e.string(3, m.FilterName)
}

func (m *RemoveSpaceUserMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.SpaceName = f.string()
		case 2:
			m.UserID = f.int32()
		case 3:
			m.FilterName = f.string()
		}
		return nil
	})
}
