// Package roomlink is the client side of a virtual-world room server connection.
//
// It keeps one WebSocket session with a room server, encodes and decodes the binary room
// protocol, correlates queries with their answers, fans server messages out to independent
// subscribers, and reconciles remote players into a per-tick diff with smoothly interpolated
// positions.
//
// # Architecture
//
// Every frame carries one envelope encoded with the protobuf wire format. The server may
// coalesce simultaneous events into a batch envelope; batch entries are dispatched strictly in
// array order, so a join followed by a move of the same user in one frame is applied in that
// order.
//
// # Quick Start
//
//	import (
//	    "github.com/luciancaetano/roomlink/ws"
//	)
//
//	params := ws.URLParams{
//	    RoomID:          "https://play.example.com/_/global/maps/office.json",
//	    Name:            "bot",
//	    CharacterLayers: []string{"male1"},
//	}
//	conn, err := ws.Dial(ctx, ws.DefaultConfig("https://pusher.example.com"), params, logger)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	mirror := ws.NewMirror(logger)
//	mirror.Attach(conn.Streams())
//	start := time.Now()
//	for range ticker.C {
//	    frame := mirror.Tick(time.Since(start))
//	    render(frame)
//	}
//
// # Liveness
//
// The server sends a ping on its own interval. Every ping resets the liveness timer and is
// acknowledged at once. When no ping arrives within the liveness timeout (100s by default,
// longer than the server interval) the socket is closed and the session is torn down exactly once.
//
// # Closing
//
// Closing rejects every pending query, completes every stream exactly once and, for a joined
// session dropped abnormally, invokes the OnServerDisconnected callbacks. Before the room is
// joined a close is reported on the ConnectionError stream instead so the caller can retry.
// Terminal room messages (world full, invalid texture, token expired, error screens) latch the
// connection closed; no retry should follow them.
//
// # Important
//
//   - Subscriber callbacks run on the connection read goroutine; keep them short.
//   - The per-tick diff must be drained once per rendering tick.
//   - The interpolator is not safe for concurrent use; drive it from the render loop only.
package roomlink
