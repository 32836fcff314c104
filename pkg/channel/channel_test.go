package channel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/lus/hidpp-go/pkg/wire"
)

// fakeTransport is an in-memory report transport scripted by the tests.
type fakeTransport struct {
	in     chan []byte
	writes chan []byte

	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:     make(chan []byte, 64),
		writes: make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (t *fakeTransport) WriteReport(p []byte) (int, error) {
	select {
	case <-t.closed:
		return 0, io.EOF
	default:
	}
	data := make([]byte, len(p))
	copy(data, p)
	t.writes <- data
	return len(p), nil
}

func (t *fakeTransport) ReadReport(p []byte) (int, error) {
	select {
	case data := <-t.in:
		return copy(p, data), nil
	case <-t.closed:
		return 0, io.EOF
	}
}

func (t *fakeTransport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

func (t *fakeTransport) push(msg wire.Message) {
	t.in <- msg.Encode()
}

// respond runs a scripted responder until the transport closes.
func (t *fakeTransport) respond(script func(wire.Message) []wire.Message) {
	go func() {
		for {
			select {
			case data := <-t.writes:
				msg, ok := wire.Parse(data)
				if !ok {
					continue
				}
				for _, reply := range script(msg) {
					t.push(reply)
				}
			case <-t.closed:
				return
			}
		}
	}()
}

// declaredTransport pre-declares HID++ support so Establish skips the probe.
type declaredTransport struct {
	*fakeTransport
}

func (declaredTransport) SupportsHidpp() (short, long, ok bool) {
	return true, true, true
}

func echoReply(req wire.Message) wire.Message {
	resp, err := wire.New(req.DeviceIndex, req.FeatureIndex(), req.Function(), req.SoftwareID(), req.Payload())
	if err != nil {
		panic(err)
	}
	return resp
}

func errorReply20(req wire.Message, code wire.ErrorCode20) wire.Message {
	m := wire.Message{
		Kind:        wire.ReportShort,
		DeviceIndex: req.DeviceIndex,
		SubID:       wire.ErrorSubID20,
		Address:     req.SubID,
	}
	m.Params[0] = req.Address
	m.Params[1] = uint8(code)
	return m
}

func errorReply10(req wire.Message, code wire.ErrorCode10) wire.Message {
	m := wire.Message{
		Kind:        wire.ReportShort,
		DeviceIndex: req.DeviceIndex,
		SubID:       wire.ErrorSubID10,
		Address:     req.SubID,
	}
	m.Params[0] = req.Address
	m.Params[1] = uint8(code)
	return m
}

func event(deviceIndex, featureIndex uint8, function wire.U4, params []byte) wire.Message {
	msg, err := wire.New(deviceIndex, featureIndex, function, 0, params)
	if err != nil {
		panic(err)
	}
	return msg
}

func establish(t *testing.T, ft *fakeTransport, config Config) *Channel {
	t.Helper()
	c, err := Establish(context.Background(), declaredTransport{ft}, config)
	if err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestEstablish(t *testing.T) {
	t.Run("DeclaredSupport", func(t *testing.T) {
		ft := newFakeTransport()
		c := establish(t, ft, DefaultConfig())

		if c.State() != StateReady {
			t.Errorf("state: got %v, want %v", c.State(), StateReady)
		}
		if c.ID() == "" {
			t.Error("channel has no ID")
		}
	})

	t.Run("ProbeAnswered", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(func(req wire.Message) []wire.Message {
			return []wire.Message{echoReply(req)}
		})

		c, err := Establish(context.Background(), ft, DefaultConfig())
		if err != nil {
			t.Fatalf("Establish failed: %v", err)
		}
		defer c.Close()

		if c.State() != StateReady {
			t.Errorf("state: got %v, want %v", c.State(), StateReady)
		}
	})

	t.Run("ProbeRejectedByLegacyPeer", func(t *testing.T) {
		// A HID++1.0-only receiver rejects the root ping, which still
		// proves it frames HID++ reports.
		ft := newFakeTransport()
		ft.respond(func(req wire.Message) []wire.Message {
			return []wire.Message{errorReply10(req, wire.Err10InvalidSubID)}
		})

		c, err := Establish(context.Background(), ft, DefaultConfig())
		if err != nil {
			t.Fatalf("Establish failed: %v", err)
		}
		defer c.Close()
	})

	t.Run("NotSupported", func(t *testing.T) {
		ft := newFakeTransport()

		config := DefaultConfig()
		config.ProbeTimeout = 50 * time.Millisecond

		_, err := Establish(context.Background(), ft, config)
		if !errors.Is(err, ErrNotSupported) {
			t.Fatalf("got %v, want ErrNotSupported", err)
		}
		select {
		case <-ft.closed:
		default:
			t.Error("transport not closed after failed probe")
		}
	})
}

func TestRequest(t *testing.T) {
	t.Run("Response", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(func(req wire.Message) []wire.Message {
			return []wire.Message{echoReply(req)}
		})
		c := establish(t, ft, DefaultConfig())

		resp, err := c.Request(context.Background(), 1, 0x05, 2, []byte{0xde, 0xad, 0xbe})
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		payload := resp.Payload()
		if payload[0] != 0xde || payload[1] != 0xad || payload[2] != 0xbe {
			t.Errorf("payload: got % x", payload)
		}
	})

	t.Run("DeviceError", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(func(req wire.Message) []wire.Message {
			return []wire.Message{errorReply20(req, wire.Err20Busy)}
		})
		c := establish(t, ft, DefaultConfig())

		_, err := c.Request(context.Background(), 1, 0x05, 2, nil)
		var devErr *DeviceError
		if !errors.As(err, &devErr) {
			t.Fatalf("got %v, want *DeviceError", err)
		}
		if !devErr.Reply.V20 {
			t.Error("error reply not marked as HID++2.0")
		}
		if wire.ErrorCode20(devErr.Reply.Code) != wire.Err20Busy {
			t.Errorf("code: got 0x%02x, want BUSY", devErr.Reply.Code)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		ft := newFakeTransport()
		config := DefaultConfig()
		config.RequestTimeout = 50 * time.Millisecond
		c := establish(t, ft, config)

		_, err := c.Request(context.Background(), 1, 0x05, 2, nil)
		if !errors.Is(err, ErrRequestTimeout) {
			t.Fatalf("got %v, want ErrRequestTimeout", err)
		}
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		ft := newFakeTransport()
		c := establish(t, ft, DefaultConfig())

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := c.Request(ctx, 1, 0x05, 2, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	})
}

func TestAbandonedRequestReplyDiscarded(t *testing.T) {
	ft := newFakeTransport()
	c := establish(t, ft, DefaultConfig())

	// Catch everything the event path publishes, regardless of header.
	sub := c.SubscribeFunc(func(wire.Message) bool { return true })
	defer sub.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Request(ctx, 1, 0x05, 2, nil)
		done <- err
	}()

	var req wire.Message
	select {
	case data := <-ft.writes:
		msg, ok := wire.Parse(data)
		if !ok {
			t.Fatal("failed to parse written report")
		}
		req = msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the request")
	}

	// Abandon the request, then answer it anyway.
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	ft.push(echoReply(req))

	// A request round trip fences event dispatch, the reader is serial.
	fence := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), 1, 0x05, 2, nil)
		fence <- err
	}()
	select {
	case data := <-ft.writes:
		msg, ok := wire.Parse(data)
		if !ok {
			t.Fatal("failed to parse written report")
		}
		ft.push(echoReply(msg))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the fence request")
	}
	if err := <-fence; err != nil {
		t.Fatalf("fence request failed: %v", err)
	}

	select {
	case msg, ok := <-sub.Events():
		if ok {
			t.Fatalf("late reply surfaced as event: %+v", msg)
		}
		t.Fatal("subscription stream closed early")
	default:
	}
}

func TestSoftwareIDRotation(t *testing.T) {
	ft := newFakeTransport()

	var mu sync.Mutex
	var tags []uint8
	ft.respond(func(req wire.Message) []wire.Message {
		mu.Lock()
		tags = append(tags, uint8(req.SoftwareID()))
		mu.Unlock()
		return []wire.Message{echoReply(req)}
	})

	c := establish(t, ft, DefaultConfig())

	for i := 0; i < 16; i++ {
		if _, err := c.Request(context.Background(), 1, 0x05, 2, nil); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(tags) != 16 {
		t.Fatalf("got %d requests, want 16", len(tags))
	}
	for i := 0; i < 15; i++ {
		if want := uint8(i + 1); tags[i] != want {
			t.Errorf("tag %d: got %d, want %d", i, tags[i], want)
		}
	}
	// 16th request wraps back to 1, never touching the event-reserved 0.
	if tags[15] != 1 {
		t.Errorf("wrapped tag: got %d, want 1", tags[15])
	}
}

func TestConcurrentResponsesNotSwapped(t *testing.T) {
	ft := newFakeTransport()
	c := establish(t, ft, DefaultConfig())

	results := make(chan error, 2)
	request := func(marker byte) {
		resp, err := c.Request(context.Background(), 1, 0x05, 2, []byte{0, 0, marker})
		if err != nil {
			results <- err
			return
		}
		if got := resp.Payload()[2]; got != marker {
			results <- fmt.Errorf("marker: got 0x%02x, want 0x%02x", got, marker)
			return
		}
		results <- nil
	}

	go request(0xa1)
	go request(0xb2)

	// Collect both requests and answer them in reverse order.
	var reqs []wire.Message
	for len(reqs) < 2 {
		select {
		case data := <-ft.writes:
			msg, ok := wire.Parse(data)
			if !ok {
				t.Fatal("failed to parse written report")
			}
			reqs = append(reqs, msg)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for requests")
		}
	}
	ft.push(echoReply(reqs[1]))
	ft.push(echoReply(reqs[0]))

	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			t.Error(err)
		}
	}
}

func TestFixedSoftwareIDQueuesCollisions(t *testing.T) {
	ft := newFakeTransport()
	c := establish(t, ft, DefaultConfig())

	if err := c.SetSoftwareID(0); err == nil {
		t.Fatal("software ID 0 accepted")
	}
	if err := c.SetSoftwareID(5); err != nil {
		t.Fatalf("SetSoftwareID failed: %v", err)
	}

	results := make(chan error, 2)
	go func() {
		_, err := c.Request(context.Background(), 1, 0x05, 2, nil)
		results <- err
	}()

	// First request hits the wire.
	var first wire.Message
	select {
	case data := <-ft.writes:
		first, _ = wire.Parse(data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first request")
	}
	if first.SoftwareID() != 5 {
		t.Fatalf("software ID: got %d, want 5", first.SoftwareID())
	}

	// Second request shares the key and must queue behind the first.
	go func() {
		_, err := c.Request(context.Background(), 1, 0x05, 2, nil)
		results <- err
	}()

	select {
	case <-ft.writes:
		t.Fatal("second request sent while first still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	// Completing the first releases the key.
	ft.push(echoReply(first))
	if err := <-results; err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	var second wire.Message
	select {
	case data := <-ft.writes:
		second, _ = wire.Parse(data)
	case <-time.After(time.Second):
		t.Fatal("second request never sent")
	}
	ft.push(echoReply(second))
	if err := <-results; err != nil {
		t.Fatalf("second request failed: %v", err)
	}
}

func TestRegisterRequest(t *testing.T) {
	ft := newFakeTransport()
	ft.respond(func(req wire.Message) []wire.Message {
		if req.SubID != wire.SubIDGetRegister {
			return nil
		}
		resp, _ := wire.NewRegister(req.DeviceIndex, req.SubID, req.Address, []byte{0, 3, 0}, wire.ReportShort)
		return []wire.Message{resp}
	})
	c := establish(t, ft, DefaultConfig())

	resp, err := c.RegisterRequest(context.Background(), wire.ReceiverDeviceIndex, wire.SubIDGetRegister, 0x02, nil, wire.ReportShort)
	if err != nil {
		t.Fatalf("RegisterRequest failed: %v", err)
	}
	if resp.Params[1] != 3 {
		t.Errorf("register value: got %d, want 3", resp.Params[1])
	}
}

func TestCloseFailsAllPending(t *testing.T) {
	ft := newFakeTransport()
	c := establish(t, ft, DefaultConfig())

	const n = 3
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(fn wire.U4) {
			_, err := c.Request(context.Background(), 1, 0x05, fn, nil)
			results <- err
		}(wire.U4(i))
	}

	// Wait for all requests to hit the wire, then kill the channel.
	for i := 0; i < n; i++ {
		select {
		case <-ft.writes:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for requests")
		}
	}
	c.Close()

	for i := 0; i < n; i++ {
		if err := <-results; !errors.Is(err, ErrChannelClosed) {
			t.Errorf("got %v, want ErrChannelClosed", err)
		}
	}
	if c.State() != StateClosed {
		t.Errorf("state: got %v, want %v", c.State(), StateClosed)
	}
}

func TestTransportFailureClosesChannel(t *testing.T) {
	ft := newFakeTransport()
	c := establish(t, ft, DefaultConfig())

	sub := c.Subscribe(1, 0x05)
	ft.Close()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("got an event, want stream termination")
		}
	case <-time.After(time.Second):
		t.Fatal("stream did not terminate")
	}

	if _, err := c.Request(context.Background(), 1, 0x05, 2, nil); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("got %v, want ErrChannelClosed", err)
	}
}

func TestSubscribe(t *testing.T) {
	t.Run("DeliversMatchingEvents", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(func(req wire.Message) []wire.Message {
			return []wire.Message{echoReply(req)}
		})
		c := establish(t, ft, DefaultConfig())

		sub := c.Subscribe(1, 0x05)
		defer sub.Cancel()

		ft.push(event(1, 0x05, 0, []byte{1, 0, 0}))
		ft.push(event(1, 0x06, 0, []byte{2, 0, 0})) // other feature
		ft.push(event(2, 0x05, 0, []byte{3, 0, 0})) // other device
		ft.push(event(1, 0x05, 1, []byte{4, 0, 0}))

		// A request round trip fences event dispatch, the reader is serial.
		if _, err := c.Request(context.Background(), 1, 0x05, 2, nil); err != nil {
			t.Fatalf("fence request failed: %v", err)
		}

		var got []byte
	drain:
		for {
			select {
			case msg := <-sub.Events():
				got = append(got, msg.Payload()[0])
			default:
				break drain
			}
		}
		if len(got) != 2 || got[0] != 1 || got[1] != 4 {
			t.Errorf("events: got %v, want [1 4]", got)
		}
	})

	t.Run("DropOldestOnOverflow", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(func(req wire.Message) []wire.Message {
			return []wire.Message{echoReply(req)}
		})

		config := DefaultConfig()
		config.EventBuffer = 2
		c := establish(t, ft, config)

		sub := c.Subscribe(1, 0x05)
		defer sub.Cancel()

		for i := 1; i <= 5; i++ {
			ft.push(event(1, 0x05, 0, []byte{byte(i), 0, 0}))
		}
		if _, err := c.Request(context.Background(), 1, 0x05, 2, nil); err != nil {
			t.Fatalf("fence request failed: %v", err)
		}

		first := <-sub.Events()
		second := <-sub.Events()
		if first.Payload()[0] != 4 || second.Payload()[0] != 5 {
			t.Errorf("kept events: got [%d %d], want [4 5]", first.Payload()[0], second.Payload()[0])
		}
		if sub.Dropped() != 3 {
			t.Errorf("dropped: got %d, want 3", sub.Dropped())
		}
	})

	t.Run("PredicateMatchesAcrossDevices", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(func(req wire.Message) []wire.Message {
			return []wire.Message{echoReply(req)}
		})
		c := establish(t, ft, DefaultConfig())

		sub := c.SubscribeFunc(func(msg wire.Message) bool {
			return msg.SubID == wire.SubIDDeviceConnection
		})
		defer sub.Cancel()

		for dev := uint8(1); dev <= 3; dev++ {
			m, _ := wire.NewRegister(dev, wire.SubIDDeviceConnection, 0x02, []byte{0x41, 0, 0}, wire.ReportShort)
			ft.push(m)
		}
		if _, err := c.Request(context.Background(), 1, 0x05, 2, nil); err != nil {
			t.Fatalf("fence request failed: %v", err)
		}

		for want := uint8(1); want <= 3; want++ {
			msg := <-sub.Events()
			if msg.DeviceIndex != want {
				t.Errorf("device index: got %d, want %d", msg.DeviceIndex, want)
			}
		}
	})
}

func TestMalformedFramesCounted(t *testing.T) {
	ft := newFakeTransport()
	ft.respond(func(req wire.Message) []wire.Message {
		return []wire.Message{echoReply(req)}
	})
	c := establish(t, ft, DefaultConfig())

	ft.in <- []byte{0x99, 0x01, 0x02}                // unknown report ID
	ft.in <- []byte{0x10, 0x01, 0x02}                // short report, wrong length
	if _, err := c.Request(context.Background(), 1, 0x05, 2, nil); err != nil {
		t.Fatalf("fence request failed: %v", err)
	}

	if got := c.MalformedFrames(); got != 2 {
		t.Errorf("malformed frames: got %d, want 2", got)
	}
}
