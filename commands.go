package roomlink

import "errors"

// Close codes used by the room connection.
const (
	CloseNormalClosure = 1000
	CloseProtocolError = 1002
	// CloseLivenessTimeout is recorded locally when no ping arrived within the liveness timeout.
	CloseLivenessTimeout = 4000
)

// Well-known values exchanged with the room server.
const (
	AdminTag            = "admin"
	ErrorScreenRetry    = "retry"
	ErrorScreenRedirect = "redirect"
	RoomPath            = "room"
)

// Connection errors
var (
	ErrConnectionClosed = errors.New("room connection is closed")
	ErrDisconnected     = errors.New("socket closed")
	ErrNotJoined        = errors.New("room not joined yet")
	ErrAlreadyOpen      = errors.New("room connection already opened")
	ErrFailedToEncode   = errors.New("failed to encode message")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Protocol errors
var (
	ErrProtocolViolation = errors.New("protocol violation")
	ErrUnknownQuery      = errors.New("got an answer to a query we have no track of")
	ErrMissingAnswer     = errors.New("invalid message received, answer missing")
	ErrUnexpectedAnswer  = errors.New("unexpected answer")
	ErrInvalidQueryKind  = errors.New("query types are supposed to be suffixed with Query")
	ErrInvalidScope      = errors.New("invalid player variable scope")
)
