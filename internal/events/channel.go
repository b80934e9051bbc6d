// Package events fans decoded server messages out to independent subscribers.
package events

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Subscription detaches a subscriber from its channel.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Channel is a synchronous broadcast channel. Publish delivers to every current subscriber in
// subscription order on the caller's goroutine; nothing is buffered for late subscribers.
// A panicking subscriber is logged and does not prevent delivery to the others.
type Channel[T any] struct {
	name   string
	logger *zap.Logger

	mu        sync.RWMutex
	subs      []subscriber[T]
	nextID    uint64
	completed bool
	done      chan struct{}

	// behavior channels replay the latest value to new subscribers. order serializes a replay with
	// Publish so a subscriber never sees an older value after a newer one.
	behavior bool
	order    sync.Mutex
	last     T
	hasLast  bool
}

// NewChannel creates a broadcast channel. A nil logger discards panics silently.
func NewChannel[T any](name string, logger *zap.Logger) *Channel[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel[T]{
		name:   name,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// NewBehaviorChannel creates a channel that hands its latest value to every new subscriber.
// Subscribers of a behavior channel must not publish or subscribe to it from their callback.
func NewBehaviorChannel[T any](name string, logger *zap.Logger) *Channel[T] {
	c := NewChannel[T](name, logger)
	c.behavior = true
	return c
}

func (c *Channel[T]) Name() string { return c.name }

// Subscribe registers fn. Subscribing to a completed channel returns an inert subscription.
func (c *Channel[T]) Subscribe(fn func(T)) *Subscription {
	if c.behavior {
		c.order.Lock()
		defer c.order.Unlock()
	}

	c.mu.Lock()
	if c.completed || fn == nil {
		c.mu.Unlock()
		return &Subscription{}
	}
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	last, replay := c.last, c.behavior && c.hasLast
	c.mu.Unlock()

	if replay {
		c.deliver(subscriber[T]{id: id, fn: fn}, last)
	}

	return &Subscription{cancel: func() { c.remove(id) }}
}

func (c *Channel[T]) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.subs {
		if s.id == id {
			c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers v and returns the number of subscribers it was handed to.
// Publishing on a completed channel is a no-op.
func (c *Channel[T]) Publish(v T) int {
	if c.behavior {
		c.order.Lock()
		defer c.order.Unlock()
	}

	c.mu.Lock()
	if c.completed {
		c.mu.Unlock()
		return 0
	}
	if c.behavior {
		c.last, c.hasLast = v, true
	}
	subs := c.subs
	c.mu.Unlock()

	for _, s := range subs {
		c.deliver(s, v)
	}
	return len(subs)
}

func (c *Channel[T]) deliver(s subscriber[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("subscriber panicked",
				zap.String("channel", c.name),
				zap.Uint64("subscriber", s.id),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	s.fn(v)
}

// Complete ends the channel: subscribers are dropped and Done is closed. It returns false when
// the channel was already completed.
func (c *Channel[T]) Complete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.completed {
		return false
	}
	c.completed = true
	c.subs = nil
	close(c.done)
	return true
}

// Done is closed when the channel completes.
func (c *Channel[T]) Done() <-chan struct{} {
	return c.done
}

func (c *Channel[T]) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}
