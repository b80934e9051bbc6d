package protocol

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

type caseNumber = protowire.Number

// ClientMessage is one variant of the client to server envelope.
type ClientMessage interface {
	message
	clientCase() caseNumber
}

const (
	clientUserMoves caseNumber = iota + 1
	clientViewport
	clientSetPlayerDetails
	clientItemEvent
	clientEmotePrompt
	clientFollowRequest
	clientFollowConfirmation
	clientFollowAbort
	clientLockGroupPrompt
	clientEditMapCommand
	clientWebRtcSignal
	clientWebRtcScreenSharingSignal
	clientReportPlayer
	clientPlayGlobal
	clientQuery
	clientAskPosition
	clientAddSpaceFilter
	clientUpdateSpaceFilter
	clientRemoveSpaceFilter
	clientPing
	clientVariable
)

var clientCases = map[caseNumber]oneofCase[ClientMessage]{
	clientUserMoves:                 {"userMovesMessage", func() ClientMessage { return &UserMovesMessage{} }},
	clientViewport:                  {"viewportMessage", func() ClientMessage { return &ViewportMessage{} }},
	clientSetPlayerDetails:          {"setPlayerDetailsMessage", func() ClientMessage { return &SetPlayerDetailsMessage{} }},
	clientItemEvent:                 {"itemEventMessage", func() ClientMessage { return &ItemEventMessage{} }},
	clientEmotePrompt:               {"emotePromptMessage", func() ClientMessage { return &EmotePromptMessage{} }},
	clientFollowRequest:             {"followRequestMessage", func() ClientMessage { return &FollowRequestMessage{} }},
	clientFollowConfirmation:        {"followConfirmationMessage", func() ClientMessage { return &FollowConfirmationMessage{} }},
	clientFollowAbort:               {"followAbortMessage", func() ClientMessage { return &FollowAbortMessage{} }},
	clientLockGroupPrompt:           {"lockGroupPromptMessage", func() ClientMessage { return &LockGroupPromptMessage{} }},
	clientEditMapCommand:            {"editMapCommandMessage", func() ClientMessage { return &EditMapCommandMessage{} }},
	clientWebRtcSignal:              {"webRtcSignalToServerMessage", func() ClientMessage { return &WebRtcSignalToServerMessage{} }},
	clientWebRtcScreenSharingSignal: {"webRtcScreenSharingSignalToServerMessage", func() ClientMessage { return &WebRtcScreenSharingSignalToServerMessage{} }},
	clientReportPlayer:              {"reportPlayerMessage", func() ClientMessage { return &ReportPlayerMessage{} }},
	clientPlayGlobal:                {"playGlobalMessage", func() ClientMessage { return &PlayGlobalMessage{} }},
	clientQuery:                     {"queryMessage", func() ClientMessage { return &QueryMessage{} }},
	clientAskPosition:               {"askPositionMessage", func() ClientMessage { return &AskPositionMessage{} }},
	clientAddSpaceFilter:            {"addSpaceFilterMessage", func() ClientMessage { return &AddSpaceFilterMessage{} }},
	clientUpdateSpaceFilter:         {"updateSpaceFilterMessage", func() ClientMessage { return &UpdateSpaceFilterMessage{} }},
	clientRemoveSpaceFilter:         {"removeSpaceFilterMessage", func() ClientMessage { return &RemoveSpaceFilterMessage{} }},
	clientPing:                      {"pingMessage", func() ClientMessage { return &PingMessage{} }},
	clientVariable:                  {"variableMessage", func() ClientMessage { return &VariableMessage{} }},
}

// EncodeClient encodes a client to server envelope.
func EncodeClient(m ClientMessage) ([]byte, error) {
	if m == nil {
		return nil, errors.New("nil client message")
	}
	return encodeEnvelope(m.clientCase(), m)
}

// DecodeClient decodes a client to server envelope. It returns a nil message and no error when the
// envelope carries a variant this build does not know.
func DecodeClient(data []byte) (ClientMessage, error) {
	if len(data) > maxPayloadSize {
		return nil, &DecodeError{Envelope: "ClientToServerMessage", Err: errPayloadTooLarge}
	}
	m, err := decodeOneof(data, clientCases)
	if err != nil {
		return nil, &DecodeError{Envelope: "ClientToServerMessage", Err: err}
	}
	return m, nil
}

// ClientKind returns the wire name of a client message variant, e.g. "userMovesMessage".
func ClientKind(m ClientMessage) string {
	if m == nil {
		return ""
	}
	if c, ok := clientCases[m.clientCase()]; ok {
		return c.name
	}
	return fmt.Sprintf("client case %d", m.clientCase())
}

// UserMovesMessage shares the local player's position together with its viewport.
type UserMovesMessage struct {
	Position *PositionMessage
	Viewport *ViewportMessage
}

func (*UserMovesMessage) clientCase() caseNumber { return clientUserMoves }

func (m *UserMovesMessage) appendTo(e *encoder) {
	if m.Position != nil {
		e.message(1, m.Position)
	}
	if m.Viewport != nil {
		e.message(2, m.Viewport)
	}
}

func (m *UserMovesMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Position = &PositionMessage{}
			return m.Position.unmarshal(f.bytes())
		case 2:
			m.Viewport = &ViewportMessage{}
			return m.Viewport.unmarshal(f.bytes())
		}
		return nil
	})
}

type EmotePromptMessage struct {
	Emote string
}

func (*EmotePromptMessage) clientCase() caseNumber { return clientEmotePrompt }

func (m *EmotePromptMessage) appendTo(e *encoder) {
	e.string(1, m.Emote)
}

func (m *EmotePromptMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.Emote = f.string()
		}
		return nil
	})
}

type LockGroupPromptMessage struct {
	Lock bool
}

func (*LockGroupPromptMessage) clientCase() caseNumber { return clientLockGroupPrompt }

func (m *LockGroupPromptMessage) appendTo(e *encoder) {
	e.bool(1, m.Lock)
}

func (m *LockGroupPromptMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.Lock = f.bool()
		}
		return nil
	})
}

// WebRtcSignalToServerMessage relays a WebRTC signal to another user. Signal is a JSON document.
type WebRtcSignalToServerMessage struct {
	ReceiverID int32
	Signal     string
}

func (*WebRtcSignalToServerMessage) clientCase() caseNumber { return clientWebRtcSignal }

func (m *WebRtcSignalToServerMessage) appendTo(e *encoder) {
	e.int32(1, m.ReceiverID)
	e.string(2, m.Signal)
}

func (m *WebRtcSignalToServerMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.ReceiverID = f.int32()
		case 2:
			m.Signal = f.string()
		}
		return nil
	})
}

type WebRtcScreenSharingSignalToServerMessage struct {
	ReceiverID int32
	Signal     string
}

func (*WebRtcScreenSharingSignalToServerMessage) clientCase() caseNumber {
	return clientWebRtcScreenSharingSignal
}

func (m *WebRtcScreenSharingSignalToServerMessage) appendTo(e *encoder) {
	e.int32(1, m.ReceiverID)
	e.string(2, m.Signal)
}

func (m *WebRtcScreenSharingSignalToServerMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.ReceiverID = f.int32()
		case 2:
			m.Signal = f.string()
		}
		return nil
	})
}

type ReportPlayerMessage struct {
	ReportedUserUUID string
	ReportComment    string
}

func (*ReportPlayerMessage) clientCase() caseNumber { return clientReportPlayer }

func (m *ReportPlayerMessage) appendTo(e *encoder) {
	e.string(1, m.ReportedUserUUID)
	e.string(2, m.ReportComment)
}

func (m *ReportPlayerMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.ReportedUserUUID = f.string()
		case 2:
			m.ReportComment = f.string()
		}
		return nil
	})
}

type PlayGlobalMessage struct {
	Type             string
	Content          string
	BroadcastToWorld bool
}

func (*PlayGlobalMessage) clientCase() caseNumber { return clientPlayGlobal }

func (m *PlayGlobalMessage) appendTo(e *encoder) {
	e.string(1, m.Type)
	e.string(2, m.Content)
	e.bool(3, m.BroadcastToWorld)
}

func (m *PlayGlobalMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Type = f.string()
		case 2:
			m.Content = f.string()
		case 3:
			m.BroadcastToWorld = f.bool()
		}
		return nil
	})
}

type AskPositionMessage struct {
	UserIdentifier string
	PlayURI        string
}

func (*AskPositionMessage) clientCase() caseNumber { return clientAskPosition }

func (m *AskPositionMessage) appendTo(e *encoder) {
	e.string(1, m.UserIdentifier)
	e.string(2, m.PlayURI)
}

func (m *AskPositionMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.UserIdentifier = f.string()
		case 2:
			m.PlayURI = f.string()
		}
		return nil
	})
}

// SpaceFilterMessage selects which users of a space the client wants to hear about.
type SpaceFilterMessage struct {
	FilterName string
	SpaceName  string
}

func (m *SpaceFilterMessage) appendTo(e *encoder) {
	e.string(1, m.FilterName)
	e.string(2, m.SpaceName)
}

func (m *SpaceFilterMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.FilterName = f.string()
		case 2:
			m.SpaceName = f.string()
		}
		return nil
	})
}

type AddSpaceFilterMessage struct {
	Filter *SpaceFilterMessage
}

func (*AddSpaceFilterMessage) clientCase() caseNumber { return clientAddSpaceFilter }

func (m *AddSpaceFilterMessage) appendTo(e *encoder) {
	if m.Filter != nil {
		e.message(1, m.Filter)
	}
}

func (m *AddSpaceFilterMessage) unmarshal(b []byte) error {
	return unmarshalFilter(b, &m.Filter)
}

type UpdateSpaceFilterMessage struct {
	Filter *SpaceFilterMessage
}

func (*UpdateSpaceFilterMessage) clientCase() caseNumber { return clientUpdateSpaceFilter }

func (m *UpdateSpaceFilterMessage) appendTo(e *encoder) {
	if m.Filter != nil {
		e.message(1, m.Filter)
	}
}

func (m *UpdateSpaceFilterMessage) unmarshal(b []byte) error {
	return unmarshalFilter(b, &m.Filter)
}

type RemoveSpaceFilterMessage struct {
	Filter *SpaceFilterMessage
}

func (*RemoveSpaceFilterMessage) clientCase() caseNumber { return clientRemoveSpaceFilter }

func (m *RemoveSpaceFilterMessage) appendTo(e *encoder) {
	if m.Filter != nil {
		e.message(1, m.Filter)
	}
}

func (m *RemoveSpaceFilterMessage) unmarshal(b []byte) error {
	return unmarshalFilter(b, &m.Filter)
}

func unmarshalFilter(b []byte, dst **SpaceFilterMessage) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			*dst = &SpaceFilterMessage{}
			return (*dst).unmarshal(f.bytes())
		}
		return nil
	})
}
