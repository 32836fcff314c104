package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/lus/hidpp-go/pkg/wire"
)

// DeviceError is a negative reply reported by the device itself, as opposed
// to a transport or correlation failure.
type DeviceError struct {
	Reply wire.ErrorReply
}

// Error returns a description including the protocol-level error code name.
func (e *DeviceError) Error() string {
	if e.Reply.V20 {
		return fmt.Sprintf("device error: %s (0x%02x)", wire.ErrorCode20(e.Reply.Code), e.Reply.Code)
	}
	return fmt.Sprintf("device error: %s (0x%02x)", wire.ErrorCode10(e.Reply.Code), e.Reply.Code)
}

// SetRotatingSoftwareID selects the default tagging policy: software IDs
// rotate 1 through 15 per request, skipping the event-reserved 0.
func (c *Channel) SetRotatingSoftwareID() {
	c.tagMu.Lock()
	defer c.tagMu.Unlock()
	c.rotating = true
}

// SetSoftwareID pins all requests to a single software ID. Requests whose
// correlation key is already in flight then queue behind it. Returns
// ErrInvalidSoftwareID for the event-reserved ID 0.
func (c *Channel) SetSoftwareID(id wire.U4) error {
	if id == 0 {
		return ErrInvalidSoftwareID
	}
	c.tagMu.Lock()
	defer c.tagMu.Unlock()
	c.rotating = false
	c.fixedTag = id
	return nil
}

// Request sends a HID++2.0 function call and waits for the matching
// response. Short or long framing is chosen from the parameter length. A
// negative reply is returned as *DeviceError.
func (c *Channel) Request(ctx context.Context, deviceIndex, featureIndex uint8, function wire.U4, params []byte) (wire.Message, error) {
	msg, err := wire.New(deviceIndex, featureIndex, function, 0, params)
	if err != nil {
		return wire.Message{}, err
	}

	key, tag, respCh, err := c.reserveTagged(ctx, deviceIndex, featureIndex, function)
	if err != nil {
		return wire.Message{}, err
	}
	defer c.release(key)

	return c.exchange(ctx, msg.WithTag(tag), respCh)
}

// RegisterRequest sends a HID++1.0 register access and waits for the
// confirmation. The sub ID selects the access (wire.SubIDSetRegister etc.)
// and the kind selects short or long framing. A negative reply is returned
// as *DeviceError.
func (c *Channel) RegisterRequest(ctx context.Context, deviceIndex, subID, address uint8, value []byte, kind wire.ReportKind) (wire.Message, error) {
	msg, err := wire.NewRegister(deviceIndex, subID, address, value, kind)
	if err != nil {
		return wire.Message{}, err
	}

	key := PendingKey{deviceIndex, subID, address}
	respCh, err := c.reserveKey(ctx, key)
	if err != nil {
		return wire.Message{}, err
	}
	defer c.release(key)

	return c.exchange(ctx, msg, respCh)
}

// exchange writes the request and waits for its response.
func (c *Channel) exchange(ctx context.Context, msg wire.Message, respCh chan wire.Message) (wire.Message, error) {
	if err := c.write(msg); err != nil {
		return wire.Message{}, err
	}

	timer := time.NewTimer(c.config.RequestTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return wire.Message{}, ctx.Err()
	case <-c.closed:
		return wire.Message{}, ErrChannelClosed
	case <-timer.C:
		return wire.Message{}, ErrRequestTimeout
	case resp := <-respCh:
		if reply, isErr := resp.AsError(); isErr {
			return wire.Message{}, &DeviceError{Reply: reply}
		}
		return resp, nil
	}
}

// reserveTagged picks a software ID whose correlation key is free and
// registers the pending request. Under the rotating policy a busy tag is
// skipped; under a fixed tag the caller queues until the key frees up.
func (c *Channel) reserveTagged(ctx context.Context, deviceIndex, featureIndex uint8, function wire.U4) (PendingKey, wire.U4, chan wire.Message, error) {
	c.tagMu.Lock()
	rotating := c.rotating
	fixed := c.fixedTag
	c.tagMu.Unlock()

	stop := context.AfterFunc(ctx, c.wakePending)
	defer stop()

	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	for {
		if c.isClosed() {
			return PendingKey{}, 0, nil, ErrChannelClosed
		}
		if err := ctx.Err(); err != nil {
			return PendingKey{}, 0, nil, err
		}

		if rotating {
			for i := 0; i < 15; i++ {
				tag := wire.U4FromLo(c.nextTag)
				c.nextTag++
				if c.nextTag > 15 {
					c.nextTag = 1
				}

				key := PendingKey{deviceIndex, featureIndex, wire.CombineNibbles(function, tag)}
				if _, busy := c.pending[key]; busy {
					continue
				}
				ch := make(chan wire.Message, 1)
				c.pending[key] = ch
				return key, tag, ch, nil
			}
		} else {
			key := PendingKey{deviceIndex, featureIndex, wire.CombineNibbles(function, fixed)}
			if _, busy := c.pending[key]; !busy {
				ch := make(chan wire.Message, 1)
				c.pending[key] = ch
				return key, fixed, ch, nil
			}
		}

		c.pendingCond.Wait()
	}
}

// reserveKey registers a pending request under a fixed key, queueing while
// the key is in flight.
func (c *Channel) reserveKey(ctx context.Context, key PendingKey) (chan wire.Message, error) {
	stop := context.AfterFunc(ctx, c.wakePending)
	defer stop()

	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	for {
		if c.isClosed() {
			return nil, ErrChannelClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, busy := c.pending[key]; !busy {
			ch := make(chan wire.Message, 1)
			c.pending[key] = ch
			return ch, nil
		}

		c.pendingCond.Wait()
	}
}

// wakePending wakes queued requesters so they can observe cancellation.
func (c *Channel) wakePending() {
	c.pendingMu.Lock()
	c.pendingCond.Broadcast()
	c.pendingMu.Unlock()
}

// release frees a correlation key. A response arriving afterwards is treated
// as unmatched.
func (c *Channel) release(key PendingKey) {
	c.pendingMu.Lock()
	if _, ok := c.pending[key]; ok {
		delete(c.pending, key)
		c.pendingCond.Broadcast()
	}
	c.pendingMu.Unlock()
}
