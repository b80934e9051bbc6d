// Package query correlates queries sent over the room socket with their answers.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/luciancaetano/roomlink"
	"github.com/luciancaetano/roomlink/internal/protocol"
	"go.uber.org/zap"
)

const (
	querySuffix  = "Query"
	answerSuffix = "Answer"
)

// AnswerError is an application-level rejection carried by an error answer.
type AnswerError struct {
	QueryID uint32
	Message string
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("query %d rejected: %s", e.QueryID, e.Message)
}

// SendFunc transmits an encoded query message.
type SendFunc func(m *protocol.QueryMessage) error

// Future is the pending result of a query.
type Future struct {
	id         uint32
	kind       string
	answerKind string

	done   chan struct{}
	once   sync.Once
	answer protocol.Answer
	err    error
}

func newFuture(id uint32, kind, answerKind string) *Future {
	return &Future{id: id, kind: kind, answerKind: answerKind, done: make(chan struct{})}
}

func (f *Future) ID() uint32 { return f.id }

// Kind returns the query kind, e.g. "jitsiJwtQuery".
func (f *Future) Kind() string { return f.kind }

// Done is closed once the query is resolved or rejected.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the answer arrives, the query is rejected, or ctx ends. Giving up on ctx
// leaves the query pending.
func (f *Future) Wait(ctx context.Context) (protocol.Answer, error) {
	select {
	case <-f.done:
		return f.answer, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) complete(a protocol.Answer, err error) {
	f.once.Do(func() {
		f.answer, f.err = a, err
		close(f.done)
	})
}

// Correlator assigns correlation ids to queries and matches incoming answers to them.
type Correlator struct {
	send   SendFunc
	logger *zap.Logger

	mu       sync.Mutex
	nextID   uint32
	pending  map[uint32]*Future
	closed   bool
	closeErr error
}

// NewCorrelator creates a correlator sending queries through send.
func NewCorrelator(send SendFunc, logger *zap.Logger) *Correlator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Correlator{
		send:    send,
		logger:  logger,
		pending: make(map[uint32]*Future),
	}
}

func answerKindFor(kind string) (string, error) {
	if !strings.HasSuffix(kind, querySuffix) {
		return "", fmt.Errorf("%w: %q", roomlink.ErrInvalidQueryKind, kind)
	}
	return strings.TrimSuffix(kind, querySuffix) + answerSuffix, nil
}

// Query registers a pending entry for q under the next id and sends it. The pending entry
// exists before the message leaves, so an answer can never outrun its registration.
func (c *Correlator) Query(q protocol.Query) (*Future, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: nil query", roomlink.ErrInvalidQueryKind)
	}
	kind := protocol.QueryKind(q)
	answerKind, err := answerKindFor(kind)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		err := c.closeErr
		c.mu.Unlock()
		return nil, err
	}
	id := c.nextID
	c.nextID++
	f := newFuture(id, kind, answerKind)
	c.pending[id] = f
	c.mu.Unlock()

	c.logger.Debug("sending query", zap.Uint32("query_id", id), zap.String("kind", kind))

	if err := c.send(&protocol.QueryMessage{ID: id, Query: q}); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		f.complete(nil, err)
		return nil, err
	}
	return f, nil
}

// Resolve completes the pending query matching m. An answer for an unknown id, or without
// payload, is a protocol violation and is returned to the caller.
func (c *Correlator) Resolve(m *protocol.AnswerMessage) error {
	c.mu.Lock()
	f, ok := c.pending[m.ID]
	if ok {
		delete(c.pending, m.ID)
	}
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", roomlink.ErrUnknownQuery, m.ID)
	}

	if m.Answer == nil {
		err := fmt.Errorf("%w: query %d", roomlink.ErrMissingAnswer, m.ID)
		f.complete(nil, err)
		return err
	}

	if errAnswer, isErr := m.Answer.(*protocol.ErrorAnswer); isErr {
		f.complete(nil, &AnswerError{QueryID: m.ID, Message: errAnswer.Message})
		return nil
	}

	if kind := protocol.AnswerKind(m.Answer); kind != f.answerKind {
		f.complete(nil, fmt.Errorf("%w: got %s for %s", roomlink.ErrUnexpectedAnswer, kind, f.kind))
		return nil
	}

	f.complete(m.Answer, nil)
	return nil
}

// Close rejects every pending query with err and refuses new ones. Later calls are no-ops.
func (c *Correlator) Close(err error) {
	if err == nil {
		err = roomlink.ErrDisconnected
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.closeErr = err
	pending := c.pending
	c.pending = make(map[uint32]*Future)
	c.mu.Unlock()

	for id, f := range pending {
		c.logger.Debug("rejecting pending query", zap.Uint32("query_id", id), zap.Error(err))
		f.complete(nil, err)
	}
}

// Pending returns the number of queries awaiting an answer.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// IsDisconnect reports whether err comes from the session closing.
func IsDisconnect(err error) bool {
	return errors.Is(err, roomlink.ErrDisconnected)
}
