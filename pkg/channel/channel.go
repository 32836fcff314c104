package channel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lus/hidpp-go/pkg/hid"
	"github.com/lus/hidpp-go/pkg/log"
	"github.com/lus/hidpp-go/pkg/wire"
)

// Channel states.
type State int32

const (
	// StateEstablishing indicates the channel is probing HID++ support.
	StateEstablishing State = iota

	// StateReady indicates the channel accepts requests.
	StateReady

	// StateClosed indicates the channel is closed.
	StateClosed
)

// String returns the channel state name.
func (s State) String() string {
	switch s {
	case StateEstablishing:
		return "ESTABLISHING"
	case StateReady:
		return "READY"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Channel errors.
var (
	ErrNotSupported      = errors.New("transport does not speak HID++")
	ErrChannelClosed     = errors.New("channel closed")
	ErrRequestTimeout    = errors.New("request timed out")
	ErrInvalidSoftwareID = errors.New("software ID must be 1..15")
)

// Config configures a channel.
type Config struct {
	// ProbeTimeout bounds the establishment probe (default: 2s).
	ProbeTimeout time.Duration

	// RequestTimeout bounds a single request when the caller's context has
	// no earlier deadline (default: 5s).
	RequestTimeout time.Duration

	// EventBuffer is the per-subscription event buffer size (default: 16).
	EventBuffer int

	// Logger receives protocol capture events (default: NoopLogger).
	Logger log.Logger
}

// DefaultConfig returns the default channel configuration.
func DefaultConfig() Config {
	return Config{
		ProbeTimeout:   2 * time.Second,
		RequestTimeout: 5 * time.Second,
		EventBuffer:    16,
	}
}

// PendingKey identifies an in-flight request. Responses of both protocol
// generations carry these three bytes back, which is what makes the
// correlation uniform.
type PendingKey struct {
	DeviceIndex uint8
	SubID       uint8
	Address     uint8
}

// Channel is a HID++ channel over a raw report transport.
type Channel struct {
	id        string
	config    Config
	transport hid.ReportReadWriter
	logger    log.Logger

	state atomic.Int32

	// Pending requests awaiting responses. pendingCond is signalled
	// whenever a key frees up or the channel closes.
	pendingMu   sync.Mutex
	pendingCond *sync.Cond
	pending     map[PendingKey]chan wire.Message

	// Software ID tagging policy.
	tagMu    sync.Mutex
	rotating bool
	nextTag  uint8
	fixedTag wire.U4

	// Event subscriptions.
	subsMu sync.RWMutex
	subs   map[*Subscription]struct{}

	writeMu sync.Mutex

	malformed atomic.Uint64

	closeOnce sync.Once
	closed    chan struct{}
}

// Establish opens a channel over the transport and verifies that the far end
// speaks HID++. Transports that implement hid.Capabilities are trusted;
// otherwise the receiver index is pinged and any well-formed reply, a
// HID++1.0 error included, counts as proof. Returns ErrNotSupported when the
// probe goes unanswered, in which case the transport is closed.
func Establish(ctx context.Context, transport hid.ReportReadWriter, config Config) (*Channel, error) {
	if config.ProbeTimeout == 0 {
		config.ProbeTimeout = 2 * time.Second
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 5 * time.Second
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 16
	}
	logger := config.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}

	c := &Channel{
		id:        uuid.NewString(),
		config:    config,
		transport: transport,
		logger:    logger,
		rotating:  true,
		nextTag:   1,
		pending:   make(map[PendingKey]chan wire.Message),
		subs:      make(map[*Subscription]struct{}),
		closed:    make(chan struct{}),
	}
	c.pendingCond = sync.NewCond(&c.pendingMu)
	c.state.Store(int32(StateEstablishing))

	go c.readLoop()

	if err := c.probe(ctx); err != nil {
		c.closeWith(err)
		return nil, err
	}

	c.setState(StateReady, "probe succeeded")
	return c, nil
}

// probe verifies HID++ support.
func (c *Channel) probe(ctx context.Context) error {
	if caps, ok := c.transport.(hid.Capabilities); ok {
		if short, long, known := caps.SupportsHidpp(); known {
			if !short && !long {
				return ErrNotSupported
			}
			return nil
		}
	}

	// Active probe: ping the root feature of the receiver index. A HID++2.0
	// peer echoes the ping, a HID++1.0 one rejects sub ID 0x00. Both prove
	// the transport frames HID++ reports.
	probeCtx, cancel := context.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()

	_, err := c.Request(probeCtx, wire.ReceiverDeviceIndex, 0x00, 1, []byte{0, 0, probeMarker})
	var devErr *DeviceError
	switch {
	case err == nil, errors.As(err, &devErr):
		return nil
	case errors.Is(err, ErrRequestTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrNotSupported
	default:
		return err
	}
}

const probeMarker = 0xaa

// ID returns the channel's unique identifier.
func (c *Channel) ID() string {
	return c.id
}

// State returns the current channel state.
func (c *Channel) State() State {
	return State(c.state.Load())
}

// MalformedFrames returns the number of incoming reports that could not be
// decoded and were dropped.
func (c *Channel) MalformedFrames() uint64 {
	return c.malformed.Load()
}

// USBID returns the USB identity of the underlying interface, if the
// transport knows it.
func (c *Channel) USBID() (vendor, product uint16, ok bool) {
	info, ok := c.transport.(hid.DeviceInfo)
	if !ok {
		return 0, 0, false
	}
	return info.VendorID(), info.ProductID(), true
}

// Close closes the channel. All pending requests fail with ErrChannelClosed
// and all subscription streams terminate.
func (c *Channel) Close() error {
	c.closeWith(nil)
	return nil
}

func (c *Channel) closeWith(reason error) {
	c.closeOnce.Do(func() {
		old := c.State()
		c.state.Store(int32(StateClosed))

		reasonStr := ""
		if reason != nil {
			reasonStr = reason.Error()
		}
		c.logState(old, StateClosed, reasonStr)

		close(c.closed)
		c.transport.Close()

		// Wake requesters queued on busy keys.
		c.pendingMu.Lock()
		c.pendingCond.Broadcast()
		c.pendingMu.Unlock()

		c.subsMu.Lock()
		for sub := range c.subs {
			sub.close()
		}
		c.subs = nil
		c.subsMu.Unlock()
	})
}

func (c *Channel) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Channel) setState(newState State, reason string) {
	old := State(c.state.Swap(int32(newState)))
	if old != newState {
		c.logState(old, newState, reason)
	}
}

// readLoop reads and dispatches incoming reports until the transport fails.
func (c *Channel) readLoop() {
	buf := make([]byte, hid.MaxReportLength)
	for {
		n, err := c.transport.ReadReport(buf)
		if err != nil {
			if !c.isClosed() {
				c.logErr(log.LayerTransport, err, "read", nil)
				c.closeWith(err)
			}
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		c.logFrame(log.DirectionIn, data)

		msg, ok := wire.Parse(data)
		if !ok {
			c.malformed.Add(1)
			c.logErr(log.LayerWire, errMalformedFrame, "parse", nil)
			continue
		}

		c.dispatch(msg)
	}
}

var errMalformedFrame = errors.New("malformed report")

// dispatch routes a decoded message either to the pending request it answers
// or to the event path.
func (c *Channel) dispatch(msg wire.Message) {
	if reply, isErr := msg.AsError(); isErr {
		key := PendingKey{msg.DeviceIndex, reply.SubID, reply.Address}
		matched := c.deliver(key, msg)
		c.logMessage(log.DirectionIn, msg, matched)
		if !matched {
			code := int(reply.Code)
			c.logErr(log.LayerProtocol, errUnmatchedError, "dispatch", &code)
		}
		return
	}

	key := PendingKey{msg.DeviceIndex, msg.SubID, msg.Address}
	if c.deliver(key, msg) {
		c.logMessage(log.DirectionIn, msg, true)
		return
	}

	c.logMessage(log.DirectionIn, msg, false)
	if isEventMessage(msg) {
		c.publish(msg)
	}
	// Anything else is a late reply to an abandoned request and is dropped.
}

var errUnmatchedError = errors.New("error reply matched no pending request")

// isEventMessage reports whether an unmatched message is an unsolicited
// event rather than a stray reply. HID++1.0 notifications occupy sub IDs
// 0x40..0x7f, HID++2.0 events carry software ID 0, and register
// confirmations (0x80..) are never events.
func isEventMessage(msg wire.Message) bool {
	if msg.SubID >= 0x40 && msg.SubID <= 0x7f {
		return true
	}
	if msg.SubID >= wire.SubIDSetRegister {
		return false
	}
	return msg.SoftwareID() == 0
}

// deliver hands the message to the pending request for key, if any. The key
// is released, so a duplicate response will no longer match.
func (c *Channel) deliver(key PendingKey, msg wire.Message) bool {
	c.pendingMu.Lock()
	ch, ok := c.pending[key]
	if ok {
		delete(c.pending, key)
		c.pendingCond.Broadcast()
	}
	c.pendingMu.Unlock()

	if ok {
		ch <- msg
	}
	return ok
}

// write encodes and sends a message over the transport.
func (c *Channel) write(msg wire.Message) error {
	data := msg.Encode()

	c.writeMu.Lock()
	_, err := c.transport.WriteReport(data)
	c.writeMu.Unlock()

	if err != nil {
		c.logErr(log.LayerTransport, err, "write", nil)
		return err
	}
	c.logFrame(log.DirectionOut, data)
	c.logMessage(log.DirectionOut, msg, false)
	return nil
}

func (c *Channel) logFrame(dir log.Direction, data []byte) {
	c.logger.Log(log.Event{
		Timestamp: time.Now(),
		ChannelID: c.id,
		Direction: dir,
		Layer:     log.LayerTransport,
		Category:  log.CategoryMessage,
		Frame:     &log.FrameEvent{Size: len(data), Data: data},
	})
}

func (c *Channel) logMessage(dir log.Direction, msg wire.Message, matched bool) {
	c.logger.Log(log.Event{
		Timestamp: time.Now(),
		ChannelID: c.id,
		Direction: dir,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			Kind:        uint8(msg.Kind),
			DeviceIndex: msg.DeviceIndex,
			SubID:       msg.SubID,
			Address:     msg.Address,
			Matched:     matched,
		},
	})
}

func (c *Channel) logState(old, newState State, reason string) {
	c.logger.Log(log.Event{
		Timestamp: time.Now(),
		ChannelID: c.id,
		Direction: log.DirectionIn,
		Layer:     log.LayerProtocol,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: old.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})
}

func (c *Channel) logErr(layer log.Layer, err error, context string, code *int) {
	c.logger.Log(log.Event{
		Timestamp: time.Now(),
		ChannelID: c.id,
		Direction: log.DirectionIn,
		Layer:     layer,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: context,
			Code:    code,
		},
	})
}
