package protocol

import "fmt"

// Direction is the facing direction of a player.
type Direction int32

const (
	DirectionUp Direction = iota
	DirectionRight
	DirectionDown
	DirectionLeft
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionRight:
		return "right"
	case DirectionDown:
		return "down"
	case DirectionLeft:
		return "left"
	default:
		return fmt.Sprintf("Direction(%d)", int32(d))
	}
}

// AvailabilityStatus is the presence status of a player. The zero value means "unchanged"
// inside a details update.
type AvailabilityStatus int32

const (
	AvailabilityUnchanged AvailabilityStatus = iota
	AvailabilityOnline
	AvailabilitySilent
	AvailabilityAway
	AvailabilityJitsi
	AvailabilityBBB
	AvailabilityDenyProximityMeeting
	AvailabilitySpeaker
	AvailabilityBusy
	AvailabilityDoNotDisturb
	AvailabilityBackInAMoment
)

var availabilityNames = map[AvailabilityStatus]string{
	AvailabilityUnchanged:            "UNCHANGED",
	AvailabilityOnline:               "ONLINE",
	AvailabilitySilent:               "SILENT",
	AvailabilityAway:                 "AWAY",
	AvailabilityJitsi:                "JITSI",
	AvailabilityBBB:                  "BBB",
	AvailabilityDenyProximityMeeting: "DENY_PROXIMITY_MEETING",
	AvailabilitySpeaker:              "SPEAKER",
	AvailabilityBusy:                 "BUSY",
	AvailabilityDoNotDisturb:         "DO_NOT_DISTURB",
	AvailabilityBackInAMoment:        "BACK_IN_A_MOMENT",
}

func (s AvailabilityStatus) String() string {
	if name, ok := availabilityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AvailabilityStatus(%d)", int32(s))
}

// VariableScope tells the server where a player variable is stored.
type VariableScope int32

const (
	VariableScopeUnknown VariableScope = iota
	VariableScopeRoom
	VariableScopeWorld
)

// EditMapKind identifies the map editor operation carried by an EditMapCommandMessage.
type EditMapKind int32

const (
	EditMapUnknown EditMapKind = iota
	EditMapModifyArea
	EditMapCreateArea
	EditMapDeleteArea
	EditMapModifyEntity
	EditMapCreateEntity
	EditMapDeleteEntity
)

type PositionMessage struct {
	X         int32
	Y         int32
	Direction Direction
	Moving    bool
}

func (m *PositionMessage) appendTo(e *encoder) {
	e.int32(1, m.X)
	e.int32(2, m.Y)
	e.int32(3, int32(m.Direction))
	e.bool(4, m.Moving)
}

func (m *PositionMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.X = f.int32()
		case 2:
			m.Y = f.int32()
		case 3:
			m.Direction = Direction(f.int32())
		case 4:
			m.Moving = f.bool()
		}
		return nil
	})
}

type PointMessage struct {
	X int32
	Y int32
}

func (m *PointMessage) appendTo(e *encoder) {
	e.int32(1, m.X)
	e.int32(2, m.Y)
}

func (m *PointMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.X = f.int32()
		case 2:
			m.Y = f.int32()
		}
		return nil
	})
}

type ViewportMessage struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

func (*ViewportMessage) clientCase() caseNumber { return clientViewport }

func (m *ViewportMessage) appendTo(e *encoder) {
	e.int32(1, m.Left)
	e.int32(2, m.Top)
	e.int32(3, m.Right)
	e.int32(4, m.Bottom)
}

func (m *ViewportMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Left = f.int32()
		case 2:
			m.Top = f.int32()
		case 3:
			m.Right = f.int32()
		case 4:
			m.Bottom = f.int32()
		}
		return nil
	})
}

type CharacterLayerMessage struct {
	URL  string
	Name string
}

func (m *CharacterLayerMessage) appendTo(e *encoder) {
	e.string(1, m.URL)
	e.string(2, m.Name)
}

func (m *CharacterLayerMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.URL = f.string()
		case 2:
			m.Name = f.string()
		}
		return nil
	})
}

type CompanionMessage struct {
	Name string
}

func (m *CompanionMessage) appendTo(e *encoder) {
	e.string(1, m.Name)
}

func (m *CompanionMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.Name = f.string()
		}
		return nil
	})
}

// SetPlayerVariableMessage carries a player variable. Value is a JSON document.
type SetPlayerVariableMessage struct {
	Name    string
	Value   string
	Public  bool
	TTL     int32
	Scope   VariableScope
	Persist bool
}

func (m *SetPlayerVariableMessage) appendTo(e *encoder) {
	e.string(1, m.Name)
	e.string(2, m.Value)
	e.bool(3, m.Public)
	e.int32(4, m.TTL)
	e.int32(5, int32(m.Scope))
	e.bool(6, m.Persist)
}

func (m *SetPlayerVariableMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Name = f.string()
		case 2:
			m.Value = f.string()
		case 3:
			m.Public = f.bool()
		case 4:
			m.TTL = f.int32()
		case 5:
			m.Scope = VariableScope(f.int32())
		case 6:
			m.Persist = f.bool()
		}
		return nil
	})
}

// SetPlayerDetailsMessage is a partial update of the local player's details. Only the fields
// that are set are applied: nil pointers, AvailabilityUnchanged and a nil SetVariable mean
// "leave as is".
type SetPlayerDetailsMessage struct {
	OutlineColor       *uint32
	RemoveOutlineColor bool
	ShowVoiceIndicator *bool
	AvailabilityStatus AvailabilityStatus
	SetVariable        *SetPlayerVariableMessage
}

func (*SetPlayerDetailsMessage) clientCase() caseNumber { return clientSetPlayerDetails }

func (m *SetPlayerDetailsMessage) appendTo(e *encoder) {
	e.optUint32(1, m.OutlineColor)
	e.bool(2, m.RemoveOutlineColor)
	e.optBool(3, m.ShowVoiceIndicator)
	e.int32(4, int32(m.AvailabilityStatus))
	if m.SetVariable != nil {
		e.message(5, m.SetVariable)
	}
}

func (m *SetPlayerDetailsMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			v := f.uint32()
			m.OutlineColor = &v
		case 2:
			m.RemoveOutlineColor = f.bool()
		case 3:
			v := f.bool()
			m.ShowVoiceIndicator = &v
		case 4:
			m.AvailabilityStatus = AvailabilityStatus(f.int32())
		case 5:
			m.SetVariable = &SetPlayerVariableMessage{}
			return m.SetVariable.unmarshal(f.bytes())
		}
		return nil
	})
}

// VariableMessage sets (client) or broadcasts (server) a room variable. Value is a JSON document.
type VariableMessage struct {
	Name  string
	Value string
}

func (*VariableMessage) clientCase() caseNumber { return clientVariable }
func (*VariableMessage) subCase() caseNumber    { return subVariable }

func (m *VariableMessage) appendTo(e *encoder) {
	e.string(1, m.Name)
	e.string(2, m.Value)
}

func (m *VariableMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Name = f.string()
		case 2:
			m.Value = f.string()
		}
		return nil
	})
}

// ItemEventMessage is an actionable item event. StateJSON and ParametersJSON are JSON documents.
type ItemEventMessage struct {
	ItemID         int32
	Event          string
	StateJSON      string
	ParametersJSON string
}

func (*ItemEventMessage) clientCase() caseNumber { return clientItemEvent }
func (*ItemEventMessage) subCase() caseNumber    { return subItemEvent }

func (m *ItemEventMessage) appendTo(e *encoder) {
	e.int32(1, m.ItemID)
	e.string(2, m.Event)
	e.string(3, m.StateJSON)
	e.string(4, m.ParametersJSON)
}

func (m *ItemEventMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.ItemID = f.int32()
		case 2:
			m.Event = f.string()
		case 3:
			m.StateJSON = f.string()
		case 4:
			m.ParametersJSON = f.string()
		}
		return nil
	})
}

// EditMapCommandMessage wraps a map editor command. The command body is opaque to this package.
type EditMapCommandMessage struct {
	ID       string
	Kind     EditMapKind
	DataJSON string
}

func (*EditMapCommandMessage) clientCase() caseNumber { return clientEditMapCommand }
func (*EditMapCommandMessage) subCase() caseNumber    { return subEditMapCommand }

func (m *EditMapCommandMessage) appendTo(e *encoder) {
	e.string(1, m.ID)
	e.int32(2, int32(m.Kind))
	e.string(3, m.DataJSON)
}

func (m *EditMapCommandMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = f.string()
		case 2:
			m.Kind = EditMapKind(f.int32())
		case 3:
			m.DataJSON = f.string()
		}
		return nil
	})
}

type ErrorMessage struct {
	Message string
}

func (*ErrorMessage) serverCase() caseNumber { return serverError }
func (*ErrorMessage) subCase() caseNumber    { return subError }

func (m *ErrorMessage) appendTo(e *encoder) {
	e.string(1, m.Message)
}

func (m *ErrorMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.Message = f.string()
		}
		return nil
	})
}

// PingMessage is the liveness probe (server to client) and its acknowledgment (client to server).
type PingMessage struct{}

func (*PingMessage) clientCase() caseNumber { return clientPing }
func (*PingMessage) subCase() caseNumber    { return subPing }

func (*PingMessage) appendTo(*encoder)        {}
func (*PingMessage) unmarshal(b []byte) error { return eachField(b, func(field) error { return nil }) }

type FollowRequestMessage struct {
	Leader int32
}

func (*FollowRequestMessage) clientCase() caseNumber { return clientFollowRequest }
func (*FollowRequestMessage) serverCase() caseNumber { return serverFollowRequest }

func (m *FollowRequestMessage) appendTo(e *encoder) {
	e.int32(1, m.Leader)
}

func (m *FollowRequestMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.Leader = f.int32()
		}
		return nil
	})
}

type FollowConfirmationMessage struct {
	Leader   int32
	Follower int32
}

func (*FollowConfirmationMessage) clientCase() caseNumber { return clientFollowConfirmation }
func (*FollowConfirmationMessage) serverCase() caseNumber { return serverFollowConfirmation }

func (m *FollowConfirmationMessage) appendTo(e *encoder) {
	e.int32(1, m.Leader)
	e.int32(2, m.Follower)
}

func (m *FollowConfirmationMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Leader = f.int32()
		case 2:
			m.Follower = f.int32()
		}
		return nil
	})
}

type FollowAbortMessage struct {
	Leader   int32
	Follower int32
}

func (*FollowAbortMessage) clientCase() caseNumber { return clientFollowAbort }
func (*FollowAbortMessage) serverCase() caseNumber { return serverFollowAbort }

func (m *FollowAbortMessage) appendTo(e *encoder) {
	e.int32(1, m.Leader)
	e.int32(2, m.Follower)
}

func (m *FollowAbortMessage) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Leader = f.int32()
		case 2:
			m.Follower = f.int32()
		}
		return nil
	})
}
