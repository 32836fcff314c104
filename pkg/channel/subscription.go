package channel

import (
	"sync"
	"sync/atomic"

	"github.com/lus/hidpp-go/pkg/wire"
)

// Subscription is a bounded stream of unsolicited device events. When the
// buffer overflows the oldest event is dropped so the channel's reader never
// blocks on a slow consumer.
type Subscription struct {
	c     *Channel
	match func(wire.Message) bool

	ch      chan wire.Message
	dropped atomic.Uint64
	once    sync.Once
}

// Subscribe returns a stream of events originating from the given device
// index and feature index (software ID 0 only, which is what distinguishes
// an event from a response). The stream's channel is closed when the
// subscription is cancelled or the channel closes.
func (c *Channel) Subscribe(deviceIndex, featureIndex uint8) *Subscription {
	return c.SubscribeFunc(func(msg wire.Message) bool {
		return msg.DeviceIndex == deviceIndex && msg.SubID == featureIndex && msg.SoftwareID() == 0
	})
}

// SubscribeFunc returns a stream of all events matching the predicate.
// Receiver notifications arrive with varying device indices, which is what
// a plain device/feature match cannot express.
func (c *Channel) SubscribeFunc(match func(wire.Message) bool) *Subscription {
	sub := &Subscription{
		c:     c,
		match: match,
		ch:    make(chan wire.Message, c.config.EventBuffer),
	}

	c.subsMu.Lock()
	if c.subs == nil {
		// Channel already closed, hand back a terminated stream.
		c.subsMu.Unlock()
		sub.close()
		return sub
	}
	c.subs[sub] = struct{}{}
	c.subsMu.Unlock()

	return sub
}

// Events returns the stream's channel.
func (s *Subscription) Events() <-chan wire.Message {
	return s.ch
}

// Dropped returns the number of events dropped due to buffer overflow.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Cancel removes the subscription and closes its stream.
func (s *Subscription) Cancel() {
	s.c.subsMu.Lock()
	if s.c.subs != nil {
		delete(s.c.subs, s)
	}
	s.close()
	s.c.subsMu.Unlock()
}

func (s *Subscription) close() {
	s.once.Do(func() {
		close(s.ch)
	})
}

// deliver enqueues an event, dropping the oldest one on overflow. Called
// from the reader with the subscription registered, so the stream cannot be
// closed concurrently.
func (s *Subscription) deliver(msg wire.Message) {
	for {
		select {
		case s.ch <- msg:
			return
		default:
		}

		select {
		case <-s.ch:
			s.dropped.Add(1)
		default:
		}
	}
}

// publish fans an event out to all matching subscriptions.
func (c *Channel) publish(msg wire.Message) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()

	for sub := range c.subs {
		if sub.match(msg) {
			sub.deliver(msg)
		}
	}
}
