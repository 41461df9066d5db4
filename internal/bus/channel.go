// Package bus implements the single-topic Channel and the two-topic
// PluginChannel that make up the core's pub/sub substrate. Both assume a
// single-task cooperative scheduler: publish walks subscribers synchronously
// on the calling goroutine, in subscription order, with no locking.
package bus

import (
	log "github.com/relaydaemon/ffwdd/internal/log"
)

// Subscription is the handle returned by Subscribe. Unsubscribe removes
// exactly that subscriber; it is idempotent and safe after the channel has
// been torn down.
type Subscription interface {
	Unsubscribe()
}

type subscriber[T any] struct {
	fn   func(T)
	live bool
}

type subscription[T any] struct {
	ch  *Channel[T]
	sub *subscriber[T]
}

func (s *subscription[T]) Unsubscribe() {
	s.sub.live = false
	s.ch.compact()
}

// Channel is a single-topic in-process pub/sub with synchronous fan-out and
// per-subscriber error isolation. It is not safe to call from more than one
// goroutine at a time; callers relying on the core's single-task model never
// need to.
type Channel[T any] struct {
	id   string
	log  log.Logger
	subs []*subscriber[T]
}

// NewChannel constructs a Channel with a stable identity used in log lines.
func NewChannel[T any](id string, logger log.Logger) *Channel[T] {
	return &Channel[T]{id: id, log: logger}
}

// ID returns the channel's construction-time identity.
func (c *Channel[T]) ID() string { return c.id }

// Subscribe appends fn to the subscriber list and returns a handle to remove
// it later.
func (c *Channel[T]) Subscribe(fn func(T)) Subscription {
	sub := &subscriber[T]{fn: fn, live: true}
	c.subs = append(c.subs, sub)
	return &subscription[T]{ch: c, sub: sub}
}

// Publish invokes every live subscriber synchronously, in subscription
// order, on the calling goroutine. A subscriber that panics is caught and
// logged as "<id>: Subscription failed"; remaining subscribers still
// receive the item. Publishing once every subscriber is gone is a no-op.
func (c *Channel[T]) Publish(item T) {
	for _, sub := range c.subs {
		if !sub.live {
			continue
		}
		c.invoke(sub, item)
	}
}

func (c *Channel[T]) invoke(sub *subscriber[T], item T) {
	defer func() {
		if r := recover(); r != nil {
			if c.log != nil {
				c.log.WithField("panic", r).Errorf("%s: Subscription failed", c.id)
			}
		}
	}()
	sub.fn(item)
}

// compact drops dead subscribers so a long-lived channel with heavy
// subscribe/unsubscribe churn doesn't leak slice capacity forever.
func (c *Channel[T]) compact() {
	live := c.subs[:0]
	for _, sub := range c.subs {
		if sub.live {
			live = append(live, sub)
		}
	}
	c.subs = live
}

// Close drops every subscriber; subsequent Publish calls become no-ops and
// any outstanding Subscription's Unsubscribe remains a safe no-op.
func (c *Channel[T]) Close() {
	c.subs = nil
}
