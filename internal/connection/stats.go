package connection

import (
	"sync/atomic"

	"github.com/luciancaetano/roomlink"
)

// stats holds the connection counters.
type stats struct {
	framesReceived  atomic.Uint64
	framesSent      atomic.Uint64
	bytesReceived   atomic.Uint64
	bytesSent       atomic.Uint64
	droppedSends    atomic.Uint64
	dataErrors      atomic.Uint64
	protocolErrors  atomic.Uint64
	pingsReceived   atomic.Uint64
	queriesSent     atomic.Uint64
	queriesAnswered atomic.Uint64
}

func (s *stats) snapshot() roomlink.Stats {
	return roomlink.Stats{
		FramesReceived:  s.framesReceived.Load(),
		FramesSent:      s.framesSent.Load(),
		BytesReceived:   s.bytesReceived.Load(),
		BytesSent:       s.bytesSent.Load(),
		DroppedSends:    s.droppedSends.Load(),
		DataErrors:      s.dataErrors.Load(),
		ProtocolErrors:  s.protocolErrors.Load(),
		PingsReceived:   s.pingsReceived.Load(),
		QueriesSent:     s.queriesSent.Load(),
		QueriesAnswered: s.queriesAnswered.Load(),
	}
}
