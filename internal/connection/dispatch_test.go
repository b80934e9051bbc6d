package connection

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/luciancaetano/roomlink"
	"github.com/luciancaetano/roomlink/internal/events"
	"github.com/luciancaetano/roomlink/internal/protocol"
)

// detached returns a connection that was never opened. Dispatch works on it; sends are dropped.
func detached(t *testing.T, params URLParams) (*Connection, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return New(DefaultConfig("http://localhost"), params, zap.New(core)), logs
}

// TestDispatchHandlesEveryVariant tests that no known server message falls through the switch
func TestDispatchHandlesEveryVariant(t *testing.T) {
	t.Parallel()

	for _, m := range protocol.ServerMessageVariants() {
		c, _ := detached(t, URLParams{})
		if err := c.dispatch(m); errors.Is(err, errUnhandledMessage) {
			t.Errorf("%s is not dispatched", protocol.ServerKind(m))
		}
	}
	for _, m := range protocol.SubMessageVariants() {
		c, _ := detached(t, URLParams{})
		if err := c.dispatchSub(m); errors.Is(err, errUnhandledMessage) {
			t.Errorf("batch entry %s is not dispatched", protocol.SubKind(m))
		}
	}
}

func TestTerminalMessagesLatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		msg       protocol.ServerMessage
		wantLatch bool
	}{
		{name: "world full", msg: &protocol.WorldFullMessage{}, wantLatch: true},
		{name: "invalid texture", msg: &protocol.InvalidTextureMessage{}, wantLatch: true},
		{name: "token expired", msg: &protocol.TokenExpiredMessage{}, wantLatch: true},
		{name: "world connexion", msg: &protocol.WorldConnexionMessage{Message: "nope"}, wantLatch: true},
		{name: "error screen", msg: &protocol.ErrorScreenMessage{Code: "blocked"}, wantLatch: true},
		{name: "error screen retry", msg: &protocol.ErrorScreenMessage{Code: roomlink.ErrorScreenRetry}, wantLatch: false},
		{name: "refresh room", msg: &protocol.RefreshRoomMessage{}, wantLatch: false},
		{name: "error message", msg: &protocol.ErrorMessage{Message: "x"}, wantLatch: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, _ := detached(t, URLParams{})
			if err := c.dispatch(tt.msg); err != nil {
				t.Fatalf("dispatch() error = %v", err)
			}
			if got := c.isLatched(); got != tt.wantLatch {
				t.Errorf("latched = %v, want %v", got, tt.wantLatch)
			}
		})
	}
}

func TestWorldConnexionPublishesOnWorldFull(t *testing.T) {
	t.Parallel()

	c, _ := detached(t, URLParams{})
	var got []events.WorldFull
	c.Streams().WorldFull.Subscribe(func(ev events.WorldFull) { got = append(got, ev) })

	_ = c.dispatch(&protocol.WorldFullMessage{})
	_ = c.dispatch(&protocol.WorldConnexionMessage{Message: "room is locked"})

	if len(got) != 2 || got[0].Message != "" || got[1].Message != "room is locked" {
		t.Errorf("WorldFull events = %+v", got)
	}
}

func TestLatchedConnectionIgnoresFrames(t *testing.T) {
	t.Parallel()

	c, _ := detached(t, URLParams{})
	var moves int
	c.Streams().UserMoved.Subscribe(func(*protocol.UserMovedMessage) { moves++ })

	frame, err := protocol.EncodeServer(&protocol.BatchMessage{Payload: []protocol.SubMessage{
		&protocol.UserMovedMessage{UserID: 1, Position: &protocol.PositionMessage{}},
	}})
	if err != nil {
		t.Fatalf("EncodeServer() error = %v", err)
	}

	c.handleFrame(frame)
	_ = c.dispatch(&protocol.TokenExpiredMessage{})
	c.handleFrame(frame)

	if moves != 1 {
		t.Errorf("moves = %d, want 1", moves)
	}
	if got := c.Stats().FramesReceived; got != 1 {
		t.Errorf("FramesReceived = %d, want 1", got)
	}
}

func TestBatchDispatchOrder(t *testing.T) {
	t.Parallel()

	c, _ := detached(t, URLParams{})
	var order []string
	c.Streams().UserJoined.Subscribe(func(ev events.UserJoined) { order = append(order, "joined") })
	c.Streams().UserMoved.Subscribe(func(*protocol.UserMovedMessage) { order = append(order, "moved") })
	c.Streams().UserLeft.Subscribe(func(*protocol.UserLeftMessage) { order = append(order, "left") })

	err := c.dispatch(&protocol.BatchMessage{Payload: []protocol.SubMessage{
		&protocol.UserJoinedMessage{UserID: 5, Position: &protocol.PositionMessage{}},
		&protocol.UserMovedMessage{UserID: 5, Position: &protocol.PositionMessage{X: 10, Y: 10}},
		&protocol.UserLeftMessage{UserID: 5},
		&protocol.UserMovedMessage{UserID: 6},
	}})
	if err != nil {
		t.Fatalf("dispatch() error = %v", err)
	}

	want := []string{"joined", "moved", "left", "moved"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}
}

func TestProtocolViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  protocol.ServerMessage
		want error
	}{
		{
			name: "user joined without position",
			msg:  &protocol.BatchMessage{Payload: []protocol.SubMessage{&protocol.UserJoinedMessage{UserID: 1}}},
			want: roomlink.ErrProtocolViolation,
		},
		{
			name: "group update without position",
			msg:  &protocol.BatchMessage{Payload: []protocol.SubMessage{&protocol.GroupUpdateMessage{GroupID: 1}}},
			want: roomlink.ErrProtocolViolation,
		},
		{
			name: "join muc room without definition",
			msg:  &protocol.BatchMessage{Payload: []protocol.SubMessage{&protocol.JoinMucRoomMessage{}}},
			want: roomlink.ErrProtocolViolation,
		},
		{
			name: "add space user without user",
			msg:  &protocol.BatchMessage{Payload: []protocol.SubMessage{&protocol.AddSpaceUserMessage{SpaceName: "hall"}}},
			want: roomlink.ErrProtocolViolation,
		},
		{
			name: "update space user without user",
			msg:  &protocol.BatchMessage{Payload: []protocol.SubMessage{&protocol.UpdateSpaceUserMessage{SpaceName: "hall"}}},
			want: roomlink.ErrProtocolViolation,
		},
		{
			name: "answer for unknown query",
			msg:  &protocol.AnswerMessage{ID: 42, Answer: &protocol.JitsiJwtAnswer{}},
			want: roomlink.ErrUnknownQuery,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, _ := detached(t, URLParams{})
			err := c.dispatch(tt.msg)
			if !errors.Is(err, tt.want) || !errors.Is(err, roomlink.ErrProtocolViolation) {
				t.Errorf("dispatch() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestChatRoomMessages(t *testing.T) {
	t.Parallel()

	c, _ := detached(t, URLParams{})
	var joined []string
	var left []string
	c.Streams().JoinMucRoom.Subscribe(func(m *protocol.MucRoomDefinitionMessage) { joined = append(joined, m.Name) })
	c.Streams().LeaveMucRoom.Subscribe(func(m *protocol.LeaveMucRoomMessage) { left = append(left, m.URL) })

	err := c.dispatch(&protocol.BatchMessage{Payload: []protocol.SubMessage{
		&protocol.JoinMucRoomMessage{Definition: &protocol.MucRoomDefinitionMessage{URL: "muc://lobby", Name: "Lobby"}},
		&protocol.LeaveMucRoomMessage{URL: "muc://lobby"},
	}})
	if err != nil {
		t.Fatalf("dispatch() error = %v", err)
	}
	if len(joined) != 1 || joined[0] != "Lobby" {
		t.Errorf("joined = %v, want [Lobby]", joined)
	}
	if len(left) != 1 || left[0] != "muc://lobby" {
		t.Errorf("left = %v, want [muc://lobby]", left)
	}
}

func TestBatchStopsAtViolation(t *testing.T) {
	t.Parallel()

	c, _ := detached(t, URLParams{})
	var left int
	c.Streams().UserLeft.Subscribe(func(*protocol.UserLeftMessage) { left++ })

	_ = c.dispatch(&protocol.BatchMessage{Payload: []protocol.SubMessage{
		&protocol.UserLeftMessage{UserID: 1},
		&protocol.GroupUpdateMessage{GroupID: 1},
		&protocol.UserLeftMessage{UserID: 2},
	}})

	if left != 1 {
		t.Errorf("left events = %d, want 1", left)
	}
}

func TestUndecodableFrameIsViolation(t *testing.T) {
	t.Parallel()

	c, logs := detached(t, URLParams{})
	c.handleFrame([]byte{0x0a, 0xff})

	if got := c.Stats().ProtocolErrors; got != 1 {
		t.Errorf("ProtocolErrors = %d, want 1", got)
	}
	if logs.FilterMessage("protocol violation, closing connection").Len() != 1 {
		t.Error("violation not logged")
	}
}

func TestMalformedJSONIsDataError(t *testing.T) {
	t.Parallel()

	c, logs := detached(t, URLParams{})
	var got []events.Variable
	c.Streams().Variable.Subscribe(func(v events.Variable) { got = append(got, v) })
	var items []events.ItemEvent
	c.Streams().ItemEvent.Subscribe(func(ev events.ItemEvent) { items = append(items, ev) })

	err := c.dispatch(&protocol.BatchMessage{Payload: []protocol.SubMessage{
		&protocol.VariableMessage{Name: "broken", Value: "{"},
		&protocol.VariableMessage{Name: "ok", Value: `{"a":1}`},
		&protocol.ItemEventMessage{ItemID: 3, Event: "click", StateJSON: "nope", ParametersJSON: `[1]`},
	}})
	if err != nil {
		t.Fatalf("dispatch() error = %v", err)
	}

	if len(got) != 2 || got[0].Value != nil {
		t.Fatalf("variables = %+v", got)
	}
	if m, ok := got[1].Value.(map[string]any); !ok || m["a"] != float64(1) {
		t.Errorf("ok variable = %#v", got[1].Value)
	}
	if len(items) != 1 || items[0].State != nil || items[0].Parameters == nil {
		t.Errorf("item events = %+v", items)
	}
	if n := c.Stats().DataErrors; n != 2 {
		t.Errorf("DataErrors = %d, want 2", n)
	}
	if logs.FilterLevelExact(zapcore.ErrorLevel).Len() != 2 {
		t.Errorf("error logs = %d, want 2", logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	}
}

func TestUserJoinedConversion(t *testing.T) {
	t.Parallel()

	c, _ := detached(t, URLParams{})
	var got events.UserJoined
	c.Streams().UserJoined.Subscribe(func(ev events.UserJoined) { got = ev })

	err := c.dispatchSub(&protocol.UserJoinedMessage{
		UserID:          7,
		Name:            "bob",
		CharacterLayers: []*protocol.CharacterLayerMessage{{Name: "male1", URL: "/male1.png"}},
		Position:        &protocol.PositionMessage{X: 3, Y: 4, Direction: protocol.DirectionLeft},
		Companion:       &protocol.CompanionMessage{Name: "cat"},
		OutlineColor:    0xff0000,
		HasOutline:      true,
		Variables:       map[string]string{"score": "12"},
	})
	if err != nil {
		t.Fatalf("dispatchSub() error = %v", err)
	}

	if got.UserID != 7 || got.Name != "bob" || got.Companion != "cat" {
		t.Errorf("UserJoined = %+v", got)
	}
	if got.OutlineColor == nil || *got.OutlineColor != 0xff0000 {
		t.Errorf("OutlineColor = %v", got.OutlineColor)
	}
	if len(got.CharacterLayers) != 1 || got.CharacterLayers[0].URL != "/male1.png" {
		t.Errorf("CharacterLayers = %+v", got.CharacterLayers)
	}
	if got.Position.X != 3 || got.Position.Direction != protocol.DirectionLeft {
		t.Errorf("Position = %+v", got.Position)
	}
	if got.Variables["score"] != float64(12) {
		t.Errorf("Variables = %+v", got.Variables)
	}

	_ = c.dispatchSub(&protocol.UserJoinedMessage{UserID: 8, Position: &protocol.PositionMessage{}, OutlineColor: 5})
	if got.OutlineColor != nil || got.Companion != "" {
		t.Errorf("UserJoined without outline = %+v", got)
	}
}

func TestRoomJoined(t *testing.T) {
	t.Parallel()

	activated := false
	tests := []struct {
		name          string
		params        URLParams
		msg           *protocol.RoomJoinedMessage
		wantJoined    bool
		wantInvalid   bool
		wantActivated bool
	}{
		{
			name:   "valid layers",
			params: URLParams{CharacterLayers: []string{"male1"}},
			msg: &protocol.RoomJoinedMessage{
				CurrentUserID:   12,
				Tags:            []string{"admin", "member"},
				UserRoomToken:   "room-token",
				CharacterLayers: []*protocol.CharacterLayerMessage{{Name: "male1", URL: "/male1.png"}},
			},
			wantJoined:    true,
			wantActivated: true,
		},
		{
			name:   "invite user deactivated",
			params: URLParams{},
			msg: &protocol.RoomJoinedMessage{
				CurrentUserID:       12,
				ActivatedInviteUser: &activated,
			},
			wantJoined:    true,
			wantActivated: false,
		},
		{
			name:   "layer count mismatch",
			params: URLParams{CharacterLayers: []string{"male1", "hat"}},
			msg: &protocol.RoomJoinedMessage{
				CurrentUserID:   12,
				CharacterLayers: []*protocol.CharacterLayerMessage{{Name: "male1", URL: "/male1.png"}},
			},
			wantInvalid: true,
		},
		{
			name:   "layer without url",
			params: URLParams{CharacterLayers: []string{"male1"}},
			msg: &protocol.RoomJoinedMessage{
				CurrentUserID:   12,
				CharacterLayers: []*protocol.CharacterLayerMessage{{Name: "male1"}},
			},
			wantInvalid: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, _ := detached(t, tt.params)
			var joined []events.RoomJoined
			c.Streams().RoomJoined.Subscribe(func(ev events.RoomJoined) { joined = append(joined, ev) })
			invalid := 0
			c.Streams().InvalidTexture.Subscribe(func(struct{}) { invalid++ })

			if err := c.dispatch(tt.msg); err != nil {
				t.Fatalf("dispatch() error = %v", err)
			}

			if got := len(joined) == 1; got != tt.wantJoined {
				t.Fatalf("RoomJoined published = %v, want %v", got, tt.wantJoined)
			}
			if got := invalid == 1; got != tt.wantInvalid {
				t.Errorf("InvalidTexture published = %v, want %v", got, tt.wantInvalid)
			}
			if c.isLatched() != tt.wantInvalid {
				t.Errorf("latched = %v, want %v", c.isLatched(), tt.wantInvalid)
			}

			id, err := c.UserID()
			if err != nil || id != 12 {
				t.Errorf("UserID() = %d, %v, want 12", id, err)
			}
			if tt.wantJoined && joined[0].ActivatedInviteUser != tt.wantActivated {
				t.Errorf("ActivatedInviteUser = %v, want %v", joined[0].ActivatedInviteUser, tt.wantActivated)
			}
		})
	}
}

func TestRoomJoinedSnapshot(t *testing.T) {
	t.Parallel()

	c, _ := detached(t, URLParams{})
	var ev events.RoomJoined
	c.Streams().RoomJoined.Subscribe(func(e events.RoomJoined) { ev = e })

	_ = c.dispatch(&protocol.RoomJoinedMessage{
		CurrentUserID:   3,
		Tags:            []string{"admin"},
		Items:           []*protocol.ItemStateMessage{{ItemID: 1, StateJSON: `{"on":true}`}},
		Variables:       []*protocol.VariableMessage{{Name: "door", Value: `"open"`}},
		PlayerVariables: []*protocol.VariableMessage{{Name: "hp", Value: "3"}},
		Applications:    []*protocol.ApplicationMessage{{Name: "app", Script: "https://example.com/app.js"}},
		EditMapCommands: []*protocol.EditMapCommandMessage{{ID: "cmd-1"}},
		CanEdit:         true,
		WebrtcUserName:  "user",
		WebrtcPassword:  "pass",
	})

	if ev.Items[1].(map[string]any)["on"] != true {
		t.Errorf("Items = %+v", ev.Items)
	}
	if ev.Variables["door"] != "open" || ev.PlayerVariables["hp"] != float64(3) {
		t.Errorf("variables = %+v / %+v", ev.Variables, ev.PlayerVariables)
	}
	if len(ev.CommandsToApply) != 1 || ev.CommandsToApply[0].ID != "cmd-1" {
		t.Errorf("CommandsToApply = %+v", ev.CommandsToApply)
	}
	if len(ev.Applications) != 1 || !ev.CanEdit || ev.WebrtcUserName != "user" || ev.WebrtcPassword != "pass" {
		t.Errorf("RoomJoined = %+v", ev)
	}
	if !c.IsAdmin() || !c.HasTag("admin") || c.HasTag("member") {
		t.Errorf("tags = %v", c.Tags())
	}
	if c.State() != roomlink.StateConnecting {
		t.Errorf("State() = %v, a connection never opened is not joined", c.State())
	}
}

func TestFollowRequestsIgnored(t *testing.T) {
	t.Parallel()

	for _, ignore := range []bool{false, true} {
		cfg := DefaultConfig("http://localhost")
		cfg.IgnoreFollowRequests = ignore
		c := New(cfg, URLParams{}, nil)

		got := 0
		c.Streams().FollowRequest.Subscribe(func(*protocol.FollowRequestMessage) { got++ })
		_ = c.dispatch(&protocol.FollowRequestMessage{Leader: 4})

		if want := map[bool]int{false: 1, true: 0}[ignore]; got != want {
			t.Errorf("ignore=%v: follow requests = %d, want %d", ignore, got, want)
		}
	}
}

func TestAdminMessages(t *testing.T) {
	t.Parallel()

	c, _ := detached(t, URLParams{})
	var got []events.AdminMessage
	c.Streams().AdminMessage.Subscribe(func(m events.AdminMessage) { got = append(got, m) })

	_ = c.dispatch(&protocol.SendUserMessage{Type: "message", Message: "hello"})
	_ = c.dispatch(&protocol.BanUserMessage{Type: "banned", Message: "bye"})

	if len(got) != 2 || got[0].Ban || !got[1].Ban || got[1].Message != "bye" {
		t.Errorf("admin messages = %+v", got)
	}
}

func TestSendWhileNotOpenIsDropped(t *testing.T) {
	t.Parallel()

	c, logs := detached(t, URLParams{})
	c.SharePosition(roomlink.Point{X: 1, Y: 2}, protocol.DirectionDown, true, roomlink.Viewport{})
	c.EmitEmoteEvent("wave")

	if got := c.Stats().DroppedSends; got != 2 {
		t.Errorf("DroppedSends = %d, want 2", got)
	}
	if logs.FilterLevelExact(zapcore.WarnLevel).Len() != 2 {
		t.Errorf("warnings = %d, want 2", logs.FilterLevelExact(zapcore.WarnLevel).Len())
	}
}

func TestFollowEmitsNeedJoin(t *testing.T) {
	t.Parallel()

	c, _ := detached(t, URLParams{})
	c.EmitFollowRequest()
	c.EmitFollowConfirmation(3)
	c.EmitFollowAbort(roomlink.FollowRoleFollower, 3)

	if got := c.Stats().DroppedSends; got != 0 {
		t.Errorf("DroppedSends = %d, follow emits before join must be skipped", got)
	}
}

func TestEmitValidation(t *testing.T) {
	t.Parallel()

	c, _ := detached(t, URLParams{})

	err := c.EmitPlayerSetVariable(roomlink.PlayerVariable{Key: "k", Value: 1})
	if !errors.Is(err, roomlink.ErrInvalidScope) {
		t.Errorf("EmitPlayerSetVariable() error = %v, want %v", err, roomlink.ErrInvalidScope)
	}

	unencodable := make(chan int)
	if err := c.EmitSetVariableEvent("x", unencodable); !errors.Is(err, roomlink.ErrFailedToEncode) {
		t.Errorf("EmitSetVariableEvent() error = %v, want %v", err, roomlink.ErrFailedToEncode)
	}
	if err := c.EmitActionableEvent(1, "e", nil, unencodable); !errors.Is(err, roomlink.ErrFailedToEncode) {
		t.Errorf("EmitActionableEvent() error = %v, want %v", err, roomlink.ErrFailedToEncode)
	}
	if _, err := c.EmitMapEditCommand(protocol.EditMapCreateArea, unencodable); !errors.Is(err, roomlink.ErrFailedToEncode) {
		t.Errorf("EmitMapEditCommand() error = %v, want %v", err, roomlink.ErrFailedToEncode)
	}

	id, err := c.EmitMapEditCommand(protocol.EditMapDeleteArea, map[string]string{"id": "a"})
	if err != nil || id == "" {
		t.Errorf("EmitMapEditCommand() = %q, %v", id, err)
	}
}

func TestUserIDBeforeJoin(t *testing.T) {
	t.Parallel()

	c, _ := detached(t, URLParams{})
	if _, err := c.UserID(); !errors.Is(err, roomlink.ErrNotJoined) {
		t.Errorf("UserID() error = %v, want %v", err, roomlink.ErrNotJoined)
	}
}
