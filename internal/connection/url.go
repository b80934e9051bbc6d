package connection

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/luciancaetano/roomlink"
	"github.com/luciancaetano/roomlink/internal/protocol"
)

// URLParams are the query parameters of the room URL.
type URLParams struct {
	RoomID             string
	Token              string
	Name               string
	CharacterLayers    []string
	Position           roomlink.Point
	Viewport           roomlink.Viewport
	Companion          string
	AvailabilityStatus protocol.AvailabilityStatus
	LastCommandID      string
	// Version defaults to the protocol API version hash.
	Version string
}

// BuildRoomURL builds the WebSocket URL joining the room described by p.
func BuildRoomURL(pusherURL string, p URLParams) (string, error) {
	if pusherURL == "" {
		return "", errors.New("empty pusher URL")
	}
	base, err := url.Parse(pusherURL)
	if err != nil {
		return "", fmt.Errorf("invalid pusher URL: %w", err)
	}
	switch base.Scheme {
	case "http":
		base.Scheme = "ws"
	case "https":
		base.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid pusher URL scheme %q", base.Scheme)
	}

	u := base.String()
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	u += roomlink.RoomPath

	version := p.Version
	if version == "" {
		version = protocol.APIVersionHash()
	}

	var b strings.Builder
	b.WriteString(u)
	param := func(sep, key, value string) {
		b.WriteString(sep)
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(value)
	}

	param("?", "roomId", url.QueryEscape(p.RoomID))
	if p.Token != "" {
		param("&", "token", url.QueryEscape(p.Token))
	}
	param("&", "name", url.QueryEscape(p.Name))
	for _, layer := range p.CharacterLayers {
		param("&", "characterLayers", url.QueryEscape(layer))
	}
	param("&", "x", floorString(p.Position.X))
	param("&", "y", floorString(p.Position.Y))
	param("&", "top", floorString(p.Viewport.Top))
	param("&", "bottom", floorString(p.Viewport.Bottom))
	param("&", "left", floorString(p.Viewport.Left))
	param("&", "right", floorString(p.Viewport.Right))
	if p.Companion != "" {
		param("&", "companion", url.QueryEscape(p.Companion))
	}
	param("&", "availabilityStatus", strconv.Itoa(int(p.AvailabilityStatus)))
	if p.LastCommandID != "" {
		param("&", "lastCommandId", url.QueryEscape(p.LastCommandID))
	}
	param("&", "version", url.QueryEscape(version))

	return b.String(), nil
}

func floorString(v float64) string {
	return strconv.FormatInt(int64(floor32(v)), 10)
}

// floor32 truncates a map coordinate towards negative infinity. Values outside the int32 range
// saturate and NaN becomes 0.
func floor32(v float64) int32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(math.Floor(v))
}
