package protocol

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func uint32Ptr(v uint32) *uint32 { return &v }
func boolPtr(v bool) *bool       { return &v }

// TestClientRoundTrip encodes every client message kind and decodes it back.
func TestClientRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  ClientMessage
	}{
		{
			name: "user moves",
			msg: &UserMovesMessage{
				Position: &PositionMessage{X: 10, Y: -20, Direction: DirectionLeft, Moving: true},
				Viewport: &ViewportMessage{Left: -5, Top: 0, Right: 800, Bottom: 600},
			},
		},
		{name: "viewport", msg: &ViewportMessage{Left: 1, Top: 2, Right: 3, Bottom: 4}},
		{
			name: "details with zero outline color",
			msg:  &SetPlayerDetailsMessage{OutlineColor: uint32Ptr(0)},
		},
		{
			name: "details with voice indicator off",
			msg:  &SetPlayerDetailsMessage{ShowVoiceIndicator: boolPtr(false)},
		},
		{
			name: "details with variable",
			msg: &SetPlayerDetailsMessage{SetVariable: &SetPlayerVariableMessage{
				Name: "score", Value: "42", Public: true, TTL: 60, Scope: VariableScopeWorld, Persist: true,
			}},
		},
		{name: "item event", msg: &ItemEventMessage{ItemID: 3, Event: "toggle", StateJSON: `{"on":true}`, ParametersJSON: "{}"}},
		{name: "emote", msg: &EmotePromptMessage{Emote: "wave"}},
		{name: "follow request", msg: &FollowRequestMessage{Leader: 7}},
		{name: "follow confirmation", msg: &FollowConfirmationMessage{Leader: 7, Follower: 9}},
		{name: "follow abort", msg: &FollowAbortMessage{Leader: 7}},
		{name: "lock group", msg: &LockGroupPromptMessage{Lock: true}},
		{name: "edit map", msg: &EditMapCommandMessage{ID: "c1", Kind: EditMapDeleteArea, DataJSON: `{"id":"a"}`}},
		{name: "webrtc signal", msg: &WebRtcSignalToServerMessage{ReceiverID: 2, Signal: `{"sdp":"x"}`}},
		{name: "screen sharing signal", msg: &WebRtcScreenSharingSignalToServerMessage{ReceiverID: 2, Signal: "null"}},
		{name: "report", msg: &ReportPlayerMessage{ReportedUserUUID: "u-1", ReportComment: "spam"}},
		{name: "global message", msg: &PlayGlobalMessage{Type: "message", Content: "hi", BroadcastToWorld: true}},
		{name: "query", msg: &QueryMessage{ID: 4, Query: &JitsiJwtQuery{JitsiRoom: "room"}}},
		{name: "ask position", msg: &AskPositionMessage{UserIdentifier: "u-2", PlayURI: "/_/global/map.json"}},
		{name: "add space filter", msg: &AddSpaceFilterMessage{Filter: &SpaceFilterMessage{FilterName: "f", SpaceName: "s"}}},
		{name: "update space filter", msg: &UpdateSpaceFilterMessage{Filter: &SpaceFilterMessage{FilterName: "f"}}},
		{name: "remove space filter", msg: &RemoveSpaceFilterMessage{Filter: &SpaceFilterMessage{SpaceName: "s"}}},
		{name: "ping", msg: &PingMessage{}},
		{name: "variable", msg: &VariableMessage{Name: "door", Value: `"open"`}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := EncodeClient(tt.msg)
			if err != nil {
				t.Fatalf("EncodeClient() error = %v", err)
			}

			got, err := DecodeClient(data)
			if err != nil {
				t.Fatalf("DecodeClient() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.msg) {
				t.Errorf("DecodeClient() = %#v, want %#v", got, tt.msg)
			}
			if ClientKind(got) != ClientKind(tt.msg) {
				t.Errorf("ClientKind() = %q, want %q", ClientKind(got), ClientKind(tt.msg))
			}
		})
	}
}

func TestServerRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  ServerMessage
	}{
		{
			name: "batch keeps entry order",
			msg: &BatchMessage{Event: "", Payload: []SubMessage{
				&UserJoinedMessage{
					UserID:          5,
					Name:            "alice",
					CharacterLayers: []*CharacterLayerMessage{{URL: "http://x/a.png", Name: "a"}},
					Position:        &PositionMessage{X: 1, Y: 2},
					Companion:       &CompanionMessage{Name: "dog"},
					UserUUID:        "uuid-5",
					OutlineColor:    0xff00ff,
					HasOutline:      true,
					Variables:       map[string]string{"b": "2", "a": "1"},
				},
				&UserMovedMessage{UserID: 5, Position: &PositionMessage{X: 10, Y: 10, Moving: true}},
				&PingMessage{},
				&GroupUpdateMessage{GroupID: 1, Position: &PointMessage{X: 3, Y: 4}, GroupSize: 2, Locked: true},
				&GroupDeleteMessage{GroupID: 1},
				&UserLeftMessage{UserID: 5},
				&ErrorMessage{Message: "boom"},
			}},
		},
		{
			name: "room joined",
			msg: &RoomJoinedMessage{
				Items:               []*ItemStateMessage{{ItemID: 1, StateJSON: `{"on":false}`}},
				CurrentUserID:       12,
				Tags:                []string{"admin", "member"},
				Variables:           []*VariableMessage{{Name: "door", Value: `"open"`}},
				UserRoomToken:       "tok",
				CharacterLayers:     []*CharacterLayerMessage{{URL: "http://x/a.png", Name: "a"}},
				ActivatedInviteUser: boolPtr(false),
				CanEdit:             true,
				Applications:        []*ApplicationMessage{{Name: "app", Script: "https://x/app.js"}},
				EditMapCommands:     []*EditMapCommandMessage{},
				WebrtcUserName:      "u",
				WebrtcPassword:      "p",
			},
		},
		{
			name: "chat rooms and space users",
			msg: &BatchMessage{Payload: []SubMessage{
				&JoinMucRoomMessage{Definition: &MucRoomDefinitionMessage{URL: "muc://room", Name: "Lobby", Subscribe: true}},
				&AddSpaceUserMessage{
					SpaceName:  "world.hall",
					FilterName: "speakers",
					User: &SpaceUserMessage{
						ID:                 7,
						UUID:               "uuid-7",
						Name:               "bob",
						CharacterLayers:    []*CharacterLayerMessage{{URL: "http://x/b.png", Name: "b"}},
						IsLogged:           true,
						AvailabilityStatus: AvailabilitySpeaker,
						Tags:               []string{"member"},
						MicrophoneState:    true,
					},
				},
				&UpdateSpaceUserMessage{SpaceName: "world.hall", FilterName: "speakers", User: &SpaceUserMessage{ID: 7, CameraState: true}},
				&RemoveSpaceUserMessage{SpaceName: "world.hall", FilterName: "speakers", UserID: 7},
				&LeaveMucRoomMessage{URL: "muc://room"},
			}},
		},
		{name: "world full", msg: &WorldFullMessage{}},
		{name: "world connexion", msg: &WorldConnexionMessage{Message: "closed"}},
		{name: "error screen", msg: &ErrorScreenMessage{Type: "redirect", Code: "retry", URLToRedirect: "https://x", TimeToRetry: 10}},
		{name: "answer", msg: &AnswerMessage{ID: 3, Answer: &JitsiJwtAnswer{JWT: "jwt", URL: "https://meet"}}},
		{name: "answer error", msg: &AnswerMessage{ID: 0, Answer: &ErrorAnswer{Message: "denied"}}},
		{name: "group users", msg: &GroupUsersUpdateMessage{GroupID: 2, UserIDs: []int32{1, -2, 3}}},
		{name: "xmpp settings", msg: &XmppSettingsMessage{Jid: "me@x", Conference: "conf", Rooms: []string{"a"}}},
		{name: "move to position", msg: &MoveToPositionMessage{Position: &PositionMessage{X: 64, Y: 32}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := EncodeServer(tt.msg)
			if err != nil {
				t.Fatalf("EncodeServer() error = %v", err)
			}
			got, err := DecodeServer(data)
			if err != nil {
				t.Fatalf("DecodeServer() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.msg) {
				t.Errorf("DecodeServer() = %#v, want %#v", got, tt.msg)
			}
		})
	}
}

func TestDecodeServerUnknownCase(t *testing.T) {
	t.Parallel()

	var data []byte
	data = appendBytesField(data, 99, []byte{0x08, 0x01})

	got, err := DecodeServer(data)
	if err != nil {
		t.Fatalf("DecodeServer() error = %v", err)
	}
	if got != nil {
		t.Errorf("DecodeServer() = %#v, want nil", got)
	}

	got, err = DecodeServer(nil)
	if err != nil || got != nil {
		t.Errorf("DecodeServer(nil) = %#v, %v, want nil, nil", got, err)
	}
}

func TestBatchSkipsUnknownEntries(t *testing.T) {
	t.Parallel()

	unknown := appendBytesField(nil, 77, nil)
	left := encoder{}
	left.message(subUserLeft, &UserLeftMessage{UserID: 8})

	var batch []byte
	batch = appendBytesField(batch, 2, unknown)
	batch = appendBytesField(batch, 2, left.buf)
	data := appendBytesField(nil, serverBatch, batch)

	got, err := DecodeServer(data)
	if err != nil {
		t.Fatalf("DecodeServer() error = %v", err)
	}
	b, ok := got.(*BatchMessage)
	if !ok {
		t.Fatalf("DecodeServer() = %T, want *BatchMessage", got)
	}
	if len(b.Payload) != 1 {
		t.Fatalf("len(Payload) = %d, want 1", len(b.Payload))
	}
	if l, ok := b.Payload[0].(*UserLeftMessage); !ok || l.UserID != 8 {
		t.Errorf("Payload[0] = %#v, want user left 8", b.Payload[0])
	}
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	valid, err := EncodeServer(&WorldConnexionMessage{Message: "a long enough message"})
	if err != nil {
		t.Fatalf("EncodeServer() error = %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "truncated", data: valid[:len(valid)-3]},
		{name: "bad tag", data: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{name: "too large", data: make([]byte, maxPayloadSize+1)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeServer(tt.data)
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("DecodeServer() error = %v, want *DecodeError", err)
			}
			if decErr.Envelope != "ServerToClientMessage" {
				t.Errorf("Envelope = %q", decErr.Envelope)
			}
		})
	}
}

func TestDecodeWrongWireType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body []byte
	}{
		{
			// user id sent as a string
			name: "varint field as bytes",
			body: appendBytesField(nil, 2, []byte("12")),
		},
		{
			// user room token sent as a number
			name: "string field as varint",
			body: protowire.AppendVarint(protowire.AppendTag(nil, 5, protowire.VarintType), 1),
		},
		{
			name: "message field as varint",
			body: protowire.AppendVarint(protowire.AppendTag(nil, 6, protowire.VarintType), 1),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeServer(appendBytesField(nil, serverRoomJoined, tt.body))
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("DecodeServer() error = %v, want *DecodeError", err)
			}
			if !errors.Is(err, errWireType) {
				t.Errorf("DecodeServer() error = %v, want %v", err, errWireType)
			}
		})
	}

	// a variant sent as a number is not a message either
	data := protowire.AppendVarint(protowire.AppendTag(nil, serverWorldFull, protowire.VarintType), 1)
	if _, err := DecodeServer(data); !errors.Is(err, errWireType) {
		t.Errorf("DecodeServer() error = %v, want %v", err, errWireType)
	}
}

func TestEncodeTooLarge(t *testing.T) {
	t.Parallel()

	_, err := EncodeClient(&VariableMessage{Name: "blob", Value: strings.Repeat("x", maxPayloadSize)})
	if !errors.Is(err, errPayloadTooLarge) {
		t.Errorf("EncodeClient() error = %v, want %v", err, errPayloadTooLarge)
	}
}

func TestInt32sAcceptsPackedEncoding(t *testing.T) {
	t.Parallel()

	var packed []byte
	for _, v := range []int32{4, 5, 6} {
		packed = protowire.AppendVarint(packed, uint64(v))
	}
	body := protowire.AppendVarint(protowire.AppendTag(nil, 1, protowire.VarintType), 9)
	body = appendBytesField(body, 2, packed)

	var m GroupUsersUpdateMessage
	if err := m.unmarshal(body); err != nil {
		t.Fatalf("unmarshal() error = %v", err)
	}
	if m.GroupID != 9 || !reflect.DeepEqual(m.UserIDs, []int32{4, 5, 6}) {
		t.Errorf("got %+v", m)
	}
}

func TestKinds(t *testing.T) {
	t.Parallel()

	if got := ServerKind(&BatchMessage{}); got != "batchMessage" {
		t.Errorf("ServerKind() = %q", got)
	}
	if got := SubKind(&UserMovedMessage{}); got != "userMovedMessage" {
		t.Errorf("SubKind() = %q", got)
	}
	if got := ClientKind(&UserMovesMessage{}); got != "userMovesMessage" {
		t.Errorf("ClientKind() = %q", got)
	}
	if got := QueryKind(&JoinBBBMeetingQuery{}); got != "joinBBBMeetingQuery" {
		t.Errorf("QueryKind() = %q", got)
	}
	if got := AnswerKind(&ErrorAnswer{}); got != "error" {
		t.Errorf("AnswerKind() = %q", got)
	}
	if ServerKind(nil) != "" || SubKind(nil) != "" {
		t.Error("nil messages should have an empty kind")
	}
}

func TestVariants(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, m := range ServerMessageVariants() {
		seen[ServerKind(m)] = true
	}
	if len(seen) != len(serverCases) {
		t.Errorf("ServerMessageVariants() has %d distinct kinds, want %d", len(seen), len(serverCases))
	}

	seen = map[string]bool{}
	for _, m := range SubMessageVariants() {
		seen[SubKind(m)] = true
	}
	if len(seen) != len(subCases) {
		t.Errorf("SubMessageVariants() has %d distinct kinds, want %d", len(seen), len(subCases))
	}
}

func TestUnserializeVariable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    any
		wantErr bool
	}{
		{name: "empty is unset", input: "", want: nil},
		{name: "string", input: `"open"`, want: "open"},
		{name: "number", input: "42", want: float64(42)},
		{name: "object", input: `{"a":true}`, want: map[string]any{"a": true}},
		{name: "null", input: "null", want: nil},
		{name: "malformed", input: "{not json", want: nil, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := UnserializeVariable(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnserializeVariable() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UnserializeVariable() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestAPIVersionHash(t *testing.T) {
	t.Parallel()

	h := APIVersionHash()
	if len(h) != 16 {
		t.Errorf("len(APIVersionHash()) = %d, want 16", len(h))
	}
	if h != APIVersionHash() {
		t.Error("APIVersionHash() is not stable")
	}
}
