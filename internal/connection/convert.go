package connection

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/luciancaetano/roomlink"
	"github.com/luciancaetano/roomlink/internal/events"
	"github.com/luciancaetano/roomlink/internal/protocol"
)

// unserialize decodes a JSON string field. Malformed JSON is a data error: it is logged and
// the value is unset.
func (c *Connection) unserialize(field, value string) any {
	v, err := protocol.UnserializeVariable(value)
	if err != nil {
		c.stats.dataErrors.Add(1)
		c.logger.Error("unable to unserialize value received from server",
			zap.String("field", field), zap.String("value", value), zap.Error(err))
		return nil
	}
	return v
}

func (c *Connection) variables(vars []*protocol.VariableMessage) map[string]any {
	out := make(map[string]any, len(vars))
	for _, v := range vars {
		if v != nil {
			out[v.Name] = c.unserialize(v.Name, v.Value)
		}
	}
	return out
}

func (c *Connection) toUserJoined(m *protocol.UserJoinedMessage) (events.UserJoined, error) {
	if m.Position == nil {
		return events.UserJoined{}, fmt.Errorf("%w: user joined message %d without position",
			roomlink.ErrProtocolViolation, m.UserID)
	}

	ev := events.UserJoined{
		UserID:             m.UserID,
		UserJid:            m.UserJid,
		UserUUID:           m.UserUUID,
		Name:               m.Name,
		CharacterLayers:    toCharacterLayers(m.CharacterLayers),
		VisitCardURL:       m.VisitCardURL,
		Position:           *m.Position,
		AvailabilityStatus: m.AvailabilityStatus,
		Variables:          make(map[string]any, len(m.Variables)),
	}
	if m.Companion != nil {
		ev.Companion = m.Companion.Name
	}
	if m.HasOutline {
		color := m.OutlineColor
		ev.OutlineColor = &color
	}
	for name, value := range m.Variables {
		ev.Variables[name] = c.unserialize(name, value)
	}
	return ev, nil
}

func toGroupUpdate(m *protocol.GroupUpdateMessage) (events.GroupUpdate, error) {
	if m.Position == nil {
		return events.GroupUpdate{}, fmt.Errorf("%w: group update message %d without position",
			roomlink.ErrProtocolViolation, m.GroupID)
	}
	return events.GroupUpdate{
		GroupID:   m.GroupID,
		Position:  *m.Position,
		GroupSize: m.GroupSize,
		Locked:    m.Locked,
	}, nil
}

func toCharacterLayers(layers []*protocol.CharacterLayerMessage) []events.CharacterLayer {
	out := make([]events.CharacterLayer, 0, len(layers))
	for _, l := range layers {
		if l != nil {
			out = append(out, events.CharacterLayer{Name: l.Name, URL: l.URL})
		}
	}
	return out
}

func toPosition(pos roomlink.Point, direction protocol.Direction, moving bool) *protocol.PositionMessage {
	return &protocol.PositionMessage{
		X:         floor32(pos.X),
		Y:         floor32(pos.Y),
		Direction: direction,
		Moving:    moving,
	}
}

func toViewport(v roomlink.Viewport) *protocol.ViewportMessage {
	return &protocol.ViewportMessage{
		Left:   floor32(v.Left),
		Top:    floor32(v.Top),
		Right:  floor32(v.Right),
		Bottom: floor32(v.Bottom),
	}
}
