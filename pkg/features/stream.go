package features

import (
	"errors"

	"github.com/lus/hidpp-go/pkg/channel"
	"github.com/lus/hidpp-go/pkg/wire"
)

// ErrUnsupportedResponse indicates a function returned data the wrapper
// cannot interpret.
var ErrUnsupportedResponse = errors.New("unsupported feature response")

// Stream is a typed view of a feature's broadcast events. Its channel closes
// when the stream is closed or the underlying HID++ channel closes.
type Stream[T any] struct {
	sub    *channel.Subscription
	events chan T
}

// newStream decodes a feature event subscription into typed events. decode
// returns false for events the stream does not carry.
func newStream[T any](sub *channel.Subscription, decode func(wire.Message) (T, bool)) *Stream[T] {
	s := &Stream[T]{
		sub:    sub,
		events: make(chan T, 16),
	}
	go func() {
		defer close(s.events)
		for msg := range sub.Events() {
			if event, ok := decode(msg); ok {
				s.events <- event
			}
		}
	}()
	return s
}

// Events returns the stream's channel.
func (s *Stream[T]) Events() <-chan T {
	return s.events
}

// Close cancels the stream.
func (s *Stream[T]) Close() {
	s.sub.Cancel()
}
