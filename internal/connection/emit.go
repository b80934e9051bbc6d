package connection

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luciancaetano/roomlink"
	"github.com/luciancaetano/roomlink/internal/protocol"
	"github.com/luciancaetano/roomlink/internal/websocket"
)

// send encodes and queues m. Messages sent while the socket is not open are dropped with a
// warning.
func (c *Connection) send(m protocol.ClientMessage) {
	if err := c.trySend(m); err != nil {
		c.stats.droppedSends.Add(1)
		c.logger.Warn("trying to send a message to the server, but the connection is not open",
			zap.String("kind", protocol.ClientKind(m)), zap.Error(err))
	}
}

func (c *Connection) trySend(m protocol.ClientMessage) error {
	data, err := protocol.EncodeClient(m)
	if err != nil {
		return fmt.Errorf("%w: %w", roomlink.ErrFailedToEncode, err)
	}

	c.mu.Lock()
	socket := c.socket
	c.mu.Unlock()

	if socket == nil || socket.ReadyState() != websocket.Open {
		return roomlink.ErrConnectionClosed
	}
	if err := socket.Send(data); err != nil {
		return err
	}

	c.stats.framesSent.Add(1)
	c.stats.bytesSent.Add(uint64(len(data)))
	return nil
}

func (c *Connection) sendQuery(m *protocol.QueryMessage) error {
	if err := c.trySend(m); err != nil {
		c.stats.droppedSends.Add(1)
		return err
	}
	c.stats.queriesSent.Add(1)
	return nil
}

func (c *Connection) joinedUserID() (int32, bool) {
	id, err := c.UserID()
	return id, err == nil
}

// SharePosition sends the local player position with its viewport. Coordinates are floored.
func (c *Connection) SharePosition(pos roomlink.Point, direction protocol.Direction, moving bool, viewport roomlink.Viewport) {
	c.send(&protocol.UserMovesMessage{
		Position: toPosition(pos, direction, moving),
		Viewport: toViewport(viewport),
	})
}

func (c *Connection) SetViewport(viewport roomlink.Viewport) {
	c.send(toViewport(viewport))
}

func (c *Connection) EmitPlayerShowVoiceIndicator(show bool) {
	c.send(&protocol.SetPlayerDetailsMessage{ShowVoiceIndicator: &show})
}

func (c *Connection) EmitPlayerStatusChange(status protocol.AvailabilityStatus) {
	c.send(&protocol.SetPlayerDetailsMessage{AvailabilityStatus: status})
}

// EmitPlayerOutlineColor sets the outline color of the local player, or removes it when color
// is nil.
func (c *Connection) EmitPlayerOutlineColor(color *uint32) {
	if color == nil {
		c.send(&protocol.SetPlayerDetailsMessage{RemoveOutlineColor: true})
		return
	}
	value := *color
	c.send(&protocol.SetPlayerDetailsMessage{OutlineColor: &value})
}

// EmitPlayerSetVariable stores a variable on the local player. The scope must be the room or
// the world.
func (c *Connection) EmitPlayerSetVariable(v roomlink.PlayerVariable) error {
	switch v.Scope {
	case protocol.VariableScopeRoom, protocol.VariableScopeWorld:
	default:
		return fmt.Errorf("%w: %d", roomlink.ErrInvalidScope, v.Scope)
	}
	value, err := protocol.SerializeVariable(v.Value)
	if err != nil {
		return fmt.Errorf("%w: variable %q: %w", roomlink.ErrFailedToEncode, v.Key, err)
	}
	c.send(&protocol.SetPlayerDetailsMessage{
		SetVariable: &protocol.SetPlayerVariableMessage{
			Name:    v.Key,
			Value:   value,
			Public:  v.Public,
			TTL:     ttlSeconds(v.TTL),
			Scope:   v.Scope,
			Persist: v.Persist,
		},
	})
	return nil
}

func (c *Connection) EmitActionableEvent(itemID int32, event string, state, parameters any) error {
	stateJSON, err := protocol.SerializeVariable(state)
	if err != nil {
		return fmt.Errorf("%w: item %d state: %w", roomlink.ErrFailedToEncode, itemID, err)
	}
	parametersJSON, err := protocol.SerializeVariable(parameters)
	if err != nil {
		return fmt.Errorf("%w: item %d parameters: %w", roomlink.ErrFailedToEncode, itemID, err)
	}
	c.send(&protocol.ItemEventMessage{
		ItemID:         itemID,
		Event:          event,
		StateJSON:      stateJSON,
		ParametersJSON: parametersJSON,
	})
	return nil
}

func (c *Connection) EmitSetVariableEvent(name string, value any) error {
	serialized, err := protocol.SerializeVariable(value)
	if err != nil {
		return fmt.Errorf("%w: variable %q: %w", roomlink.ErrFailedToEncode, name, err)
	}
	c.send(&protocol.VariableMessage{Name: name, Value: serialized})
	return nil
}

func (c *Connection) EmitGlobalMessage(msgType, content string, broadcastToWorld bool) {
	c.send(&protocol.PlayGlobalMessage{Type: msgType, Content: content, BroadcastToWorld: broadcastToWorld})
}

func (c *Connection) EmitReportPlayerMessage(reportedUserUUID, comment string) {
	c.send(&protocol.ReportPlayerMessage{ReportedUserUUID: reportedUserUUID, ReportComment: comment})
}

func (c *Connection) EmitEmoteEvent(emote string) {
	c.send(&protocol.EmotePromptMessage{Emote: emote})
}

func (c *Connection) EmitLockGroup(lock bool) {
	c.send(&protocol.LockGroupPromptMessage{Lock: lock})
}

// EmitFollowRequest asks the players around to follow the local user. Skipped until joined.
func (c *Connection) EmitFollowRequest() {
	userID, ok := c.joinedUserID()
	if !ok {
		return
	}
	c.send(&protocol.FollowRequestMessage{Leader: userID})
}

// EmitFollowConfirmation accepts to follow leader. Skipped until joined.
func (c *Connection) EmitFollowConfirmation(leader int32) {
	userID, ok := c.joinedUserID()
	if !ok {
		return
	}
	c.send(&protocol.FollowConfirmationMessage{Leader: leader, Follower: userID})
}

// EmitFollowAbort ends a follow. A leader dissolves its whole group; a follower leaves leader.
func (c *Connection) EmitFollowAbort(role roomlink.FollowRole, leader int32) {
	userID, ok := c.joinedUserID()
	if !ok {
		return
	}
	if role == roomlink.FollowRoleLeader {
		c.send(&protocol.FollowAbortMessage{Leader: userID, Follower: 0})
		return
	}
	c.send(&protocol.FollowAbortMessage{Leader: leader, Follower: userID})
}

// EmitMapEditCommand sends a map editor command and returns its generated id.
func (c *Connection) EmitMapEditCommand(kind protocol.EditMapKind, data any) (string, error) {
	dataJSON, err := protocol.SerializeVariable(data)
	if err != nil {
		return "", fmt.Errorf("%w: map edit command: %w", roomlink.ErrFailedToEncode, err)
	}
	id := uuid.New().String()
	c.send(&protocol.EditMapCommandMessage{ID: id, Kind: kind, DataJSON: dataJSON})
	return id, nil
}

func (c *Connection) SendWebRtcSignal(receiverID int32, signal any) error {
	s, err := protocol.SerializeVariable(signal)
	if err != nil {
		return fmt.Errorf("%w: webrtc signal: %w", roomlink.ErrFailedToEncode, err)
	}
	c.send(&protocol.WebRtcSignalToServerMessage{ReceiverID: receiverID, Signal: s})
	return nil
}

func (c *Connection) SendWebRtcScreenSharingSignal(receiverID int32, signal any) error {
	s, err := protocol.SerializeVariable(signal)
	if err != nil {
		return fmt.Errorf("%w: screen sharing signal: %w", roomlink.ErrFailedToEncode, err)
	}
	c.send(&protocol.WebRtcScreenSharingSignalToServerMessage{ReceiverID: receiverID, Signal: s})
	return nil
}

func (c *Connection) EmitAskPosition(userIdentifier, playURI string) {
	c.send(&protocol.AskPositionMessage{UserIdentifier: userIdentifier, PlayURI: playURI})
}

func (c *Connection) EmitAddSpaceFilter(filter protocol.SpaceFilterMessage) {
	c.send(&protocol.AddSpaceFilterMessage{Filter: &filter})
}

func (c *Connection) EmitUpdateSpaceFilter(filter protocol.SpaceFilterMessage) {
	c.send(&protocol.UpdateSpaceFilterMessage{Filter: &filter})
}

func (c *Connection) EmitRemoveSpaceFilter(filter protocol.SpaceFilterMessage) {
	c.send(&protocol.RemoveSpaceFilterMessage{Filter: &filter})
}

// Query sends q and waits for its answer. It fails when the query cannot be sent, the server
// rejects it, the connection closes, or ctx ends.
func (c *Connection) Query(ctx context.Context, q protocol.Query) (protocol.Answer, error) {
	f, err := c.queries.Query(q)
	if err != nil {
		return nil, err
	}
	return f.Wait(ctx)
}

func (c *Connection) QueryJitsiJwtToken(ctx context.Context, jitsiRoom string) (*protocol.JitsiJwtAnswer, error) {
	a, err := c.Query(ctx, &protocol.JitsiJwtQuery{JitsiRoom: jitsiRoom})
	if err != nil {
		return nil, err
	}
	answer, ok := a.(*protocol.JitsiJwtAnswer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", roomlink.ErrUnexpectedAnswer, protocol.AnswerKind(a))
	}
	return answer, nil
}

func (c *Connection) QueryBBBMeetingURL(ctx context.Context, meetingID, localMeetingID, meetingName string) (*protocol.JoinBBBMeetingAnswer, error) {
	a, err := c.Query(ctx, &protocol.JoinBBBMeetingQuery{
		MeetingID:      meetingID,
		LocalMeetingID: localMeetingID,
		MeetingName:    meetingName,
	})
	if err != nil {
		return nil, err
	}
	answer, ok := a.(*protocol.JoinBBBMeetingAnswer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", roomlink.ErrUnexpectedAnswer, protocol.AnswerKind(a))
	}
	return answer, nil
}

// ttlSeconds converts a variable lifetime to whole seconds, saturating at the int32 range.
// Negative lifetimes mean no expiry.
func ttlSeconds(d time.Duration) int32 {
	secs := d / time.Second
	switch {
	case secs <= 0:
		return 0
	case secs >= math.MaxInt32:
		return math.MaxInt32
	}
	return int32(secs)
}
