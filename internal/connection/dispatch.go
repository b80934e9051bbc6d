package connection

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/luciancaetano/roomlink"
	"github.com/luciancaetano/roomlink/internal/events"
	"github.com/luciancaetano/roomlink/internal/protocol"
)

var errUnhandledMessage = errors.New("unhandled message")

// handleFrame decodes and dispatches one incoming frame. It runs on the read goroutine.
func (c *Connection) handleFrame(data []byte) {
	if c.isLatched() {
		return
	}

	c.stats.framesReceived.Add(1)
	c.stats.bytesReceived.Add(uint64(len(data)))

	m, err := protocol.DecodeServer(data)
	if err != nil {
		c.protocolViolation(fmt.Errorf("%w: %w", roomlink.ErrProtocolViolation, err))
		return
	}
	if m == nil {
		c.logger.Debug("ignoring message of unknown kind")
		return
	}

	if err := c.dispatch(m); err != nil {
		if errors.Is(err, errUnhandledMessage) {
			c.logger.Warn("no handler for message", zap.String("kind", protocol.ServerKind(m)))
			return
		}
		c.protocolViolation(err)
	}
}

// protocolViolation logs err and closes the connection with a protocol error code. The
// connection is not latched, so the caller may reconnect.
func (c *Connection) protocolViolation(err error) {
	c.stats.protocolErrors.Add(1)
	c.logger.Error("protocol violation, closing connection", zap.Error(err))
	c.closeSocket(roomlink.CloseProtocolError, "protocol violation")
}

func (c *Connection) dispatch(m protocol.ServerMessage) error {
	switch msg := m.(type) {
	case *protocol.BatchMessage:
		for _, sub := range msg.Payload {
			if err := c.dispatchSub(sub); err != nil {
				return err
			}
		}
	case *protocol.RoomJoinedMessage:
		c.handleRoomJoined(msg)
	case *protocol.WorldFullMessage:
		c.streams.WorldFull.Publish(events.WorldFull{})
		c.latch()
	case *protocol.InvalidTextureMessage:
		c.logger.Info("character texture is invalid for this world")
		c.streams.InvalidTexture.Publish(struct{}{})
		c.latch()
	case *protocol.TokenExpiredMessage:
		c.streams.TokenExpired.Publish(struct{}{})
		c.latch()
	case *protocol.WorldConnexionMessage:
		c.streams.WorldFull.Publish(events.WorldFull{Message: msg.Message})
		c.latch()
	case *protocol.WebRtcSignalToClientMessage:
		c.streams.WebRtcSignal.Publish(events.WebRtcSignal{
			UserID:         msg.UserID,
			Signal:         c.unserialize("signal", msg.Signal),
			WebrtcUser:     msg.WebrtcUserName,
			WebrtcPassword: msg.WebrtcPassword,
		})
	case *protocol.WebRtcScreenSharingSignalToClientMessage:
		c.streams.WebRtcScreenSharingSignal.Publish(events.WebRtcSignal{
			UserID:         msg.UserID,
			Signal:         c.unserialize("signal", msg.Signal),
			WebrtcUser:     msg.WebrtcUserName,
			WebrtcPassword: msg.WebrtcPassword,
		})
	case *protocol.WebRtcStartMessage:
		c.streams.WebRtcStart.Publish(events.WebRtcStart{
			UserID:         msg.UserID,
			Initiator:      msg.Initiator,
			WebrtcUser:     msg.WebrtcUserName,
			WebrtcPassword: msg.WebrtcPassword,
		})
	case *protocol.WebRtcDisconnectMessage:
		c.streams.WebRtcDisconnect.Publish(msg)
	case *protocol.TeleportMessageMessage:
		c.streams.Teleport.Publish(msg.Map)
	case *protocol.GroupUsersUpdateMessage:
		c.streams.GroupUsersUpdate.Publish(msg)
	case *protocol.SendUserMessage:
		c.streams.AdminMessage.Publish(events.AdminMessage{Type: msg.Type, Message: msg.Message})
	case *protocol.BanUserMessage:
		c.streams.AdminMessage.Publish(events.AdminMessage{Type: msg.Type, Message: msg.Message, Ban: true})
	case *protocol.WorldFullWarningMessage:
		c.streams.WorldFullWarning.Publish(struct{}{})
	case *protocol.RefreshRoomMessage:
		c.streams.RefreshRoom.Publish(msg)
	case *protocol.FollowRequestMessage:
		if c.cfg.IgnoreFollowRequests {
			c.logger.Debug("follow request ignored", zap.Int32("leader", msg.Leader))
			return nil
		}
		c.streams.FollowRequest.Publish(msg)
	case *protocol.FollowConfirmationMessage:
		c.streams.FollowConfirmation.Publish(msg)
	case *protocol.FollowAbortMessage:
		c.streams.FollowAbort.Publish(msg)
	case *protocol.ErrorMessage:
		c.streams.ErrorMessage.Publish(msg)
		c.logger.Error("an error occurred server side", zap.String("message", msg.Message))
	case *protocol.ErrorScreenMessage:
		c.streams.ErrorScreen.Publish(msg)
		c.logger.Error("an error screen was sent by the server",
			zap.String("type", msg.Type), zap.String("code", msg.Code), zap.String("title", msg.Title))
		if msg.Code != roomlink.ErrorScreenRetry {
			c.latch()
		}
	case *protocol.MoveToPositionMessage:
		c.streams.MoveToPosition.Publish(msg)
	case *protocol.AnswerMessage:
		if err := c.queries.Resolve(msg); err != nil {
			return fmt.Errorf("%w: %w", roomlink.ErrProtocolViolation, err)
		}
		c.stats.queriesAnswered.Add(1)
	case *protocol.XmppSettingsMessage:
		c.streams.XmppSettings.Publish(msg)
	default:
		return fmt.Errorf("%w: %T", errUnhandledMessage, m)
	}
	return nil
}

func (c *Connection) dispatchSub(m protocol.SubMessage) error {
	switch msg := m.(type) {
	case *protocol.ErrorMessage:
		c.streams.ErrorMessage.Publish(msg)
		c.logger.Error("an error occurred server side", zap.String("message", msg.Message))
	case *protocol.UserJoinedMessage:
		ev, err := c.toUserJoined(msg)
		if err != nil {
			return err
		}
		c.streams.UserJoined.Publish(ev)
	case *protocol.UserLeftMessage:
		c.streams.UserLeft.Publish(msg)
	case *protocol.UserMovedMessage:
		c.streams.UserMoved.Publish(msg)
	case *protocol.GroupUpdateMessage:
		ev, err := toGroupUpdate(msg)
		if err != nil {
			return err
		}
		c.streams.GroupUpdate.Publish(ev)
	case *protocol.GroupDeleteMessage:
		c.streams.GroupDelete.Publish(msg)
	case *protocol.ItemEventMessage:
		c.streams.ItemEvent.Publish(events.ItemEvent{
			ItemID:     msg.ItemID,
			Event:      msg.Event,
			State:      c.unserialize("state", msg.StateJSON),
			Parameters: c.unserialize("parameters", msg.ParametersJSON),
		})
	case *protocol.EmoteEventMessage:
		c.streams.EmoteEvent.Publish(msg)
	case *protocol.PlayerDetailsUpdatedMessage:
		c.streams.PlayerDetailsUpdated.Publish(msg)
	case *protocol.VariableMessage:
		c.streams.Variable.Publish(events.Variable{Name: msg.Name, Value: c.unserialize(msg.Name, msg.Value)})
	case *protocol.PingMessage:
		c.stats.pingsReceived.Add(1)
		c.resetLiveness()
		c.send(&protocol.PingMessage{})
	case *protocol.EditMapCommandMessage:
		c.streams.EditMapCommand.Publish(msg)
	case *protocol.JoinMucRoomMessage:
		if msg.Definition == nil {
			return fmt.Errorf("%w: join muc room message without room definition", roomlink.ErrProtocolViolation)
		}
		c.streams.JoinMucRoom.Publish(msg.Definition)
	case *protocol.LeaveMucRoomMessage:
		c.streams.LeaveMucRoom.Publish(msg)
	case *protocol.AddSpaceUserMessage:
		if msg.User == nil {
			return fmt.Errorf("%w: add space user message for %q without user", roomlink.ErrProtocolViolation, msg.SpaceName)
		}
		c.streams.AddSpaceUser.Publish(msg)
	case *protocol.UpdateSpaceUserMessage:
		if msg.User == nil {
			return fmt.Errorf("%w: update space user message for %q without user", roomlink.ErrProtocolViolation, msg.SpaceName)
		}
		c.streams.UpdateSpaceUser.Publish(msg)
	case *protocol.RemoveSpaceUserMessage:
		c.streams.RemoveSpaceUser.Publish(msg)
	default:
		return fmt.Errorf("%w: %T", errUnhandledMessage, m)
	}
	return nil
}

func (c *Connection) handleRoomJoined(m *protocol.RoomJoinedMessage) {
	ev := events.RoomJoined{
		UserID:              m.CurrentUserID,
		Tags:                append([]string(nil), m.Tags...),
		UserRoomToken:       m.UserRoomToken,
		Items:               make(map[int32]any, len(m.Items)),
		Variables:           c.variables(m.Variables),
		PlayerVariables:     c.variables(m.PlayerVariables),
		CharacterLayers:     toCharacterLayers(m.CharacterLayers),
		CommandsToApply:     m.EditMapCommands,
		WebrtcUserName:      m.WebrtcUserName,
		WebrtcPassword:      m.WebrtcPassword,
		CanEdit:             m.CanEdit,
		ActivatedInviteUser: true,
		Applications:        make([]events.Application, 0, len(m.Applications)),
	}
	for _, item := range m.Items {
		if item != nil {
			ev.Items[item.ItemID] = c.unserialize("item state", item.StateJSON)
		}
	}
	if m.ActivatedInviteUser != nil {
		ev.ActivatedInviteUser = *m.ActivatedInviteUser
	}
	for _, app := range m.Applications {
		if app != nil {
			ev.Applications = append(ev.Applications, events.Application{Name: app.Name, Script: app.Script})
		}
	}

	c.mu.Lock()
	userID := m.CurrentUserID
	c.userID = &userID
	c.tags = ev.Tags
	c.userRoomToken = m.UserRoomToken
	if c.state == roomlink.StateOpen {
		c.state = roomlink.StateJoined
	}
	c.mu.Unlock()

	c.logger.Info("room joined", zap.Int32("user_id", userID), zap.Strings("tags", ev.Tags))

	if !c.validCharacterLayers(m.CharacterLayers) {
		c.logger.Info("character texture is invalid for this world",
			zap.Int("requested", len(c.params.CharacterLayers)), zap.Int("received", len(m.CharacterLayers)))
		c.streams.InvalidTexture.Publish(struct{}{})
		c.latch()
		return
	}

	if c.isLatched() {
		c.closeSocket(roomlink.CloseNormalClosure, "")
		return
	}

	c.streams.RoomJoined.Publish(ev)
}

// validCharacterLayers reports whether the server resolved every requested layer to a texture.
func (c *Connection) validCharacterLayers(layers []*protocol.CharacterLayerMessage) bool {
	if len(layers) != len(c.params.CharacterLayers) {
		return false
	}
	for _, layer := range layers {
		if layer == nil || layer.URL == "" {
			return false
		}
	}
	return true
}
