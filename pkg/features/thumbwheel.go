package features

import (
	"context"
	"encoding/binary"

	"github.com/lus/hidpp-go/pkg/feature"
	"github.com/lus/hidpp-go/pkg/wire"
)

// IDThumbwheel is the Thumbwheel feature ID.
const IDThumbwheel feature.ID = 0x2150

// Thumbwheel function IDs.
const (
	fnThumbwheelInfo         = 0
	fnThumbwheelStatus       = 1
	fnThumbwheelSetReporting = 2
)

// ThumbwheelDirection determines which rotation direction maps to positive
// rotation values. The descriptors are relative to the device orientation.
type ThumbwheelDirection uint8

const (
	PositiveWhenLeftOrBack   ThumbwheelDirection = 0
	PositiveWhenRightOrFront ThumbwheelDirection = 1
)

// ThumbwheelReportingMode is how the thumbwheel reports its events.
type ThumbwheelReportingMode uint8

const (
	// ThumbwheelNative reports events only through the regular HID
	// reports.
	ThumbwheelNative ThumbwheelReportingMode = 0

	// ThumbwheelDiverted reports events through status update broadcasts
	// instead. Listen only delivers anything in this mode.
	ThumbwheelDiverted ThumbwheelReportingMode = 1
)

// ThumbwheelCapabilities lists the optional sensors of the thumbwheel.
type ThumbwheelCapabilities struct {
	// Timestamp reports whether ThumbwheelStatusUpdate.TimeElapsed
	// carries data.
	Timestamp bool

	// Touch reports whether the thumbwheel has a touch sensor.
	Touch bool

	// Proxy reports whether the thumbwheel has a proximity sensor.
	Proxy bool

	// SingleTap reports whether the thumbwheel detects single taps.
	SingleTap bool
}

// ThumbwheelInfo is the static description of the thumbwheel.
type ThumbwheelInfo struct {
	// NativeResolution is the number of ratchets per revolution in
	// native mode.
	NativeResolution uint16

	// DivertedResolution is the number of rotation increments per
	// revolution in diverted mode.
	DivertedResolution uint16

	// TimeUnit is the unit of ThumbwheelStatusUpdate.TimeElapsed in
	// microseconds, zero when timestamps are unsupported.
	TimeUnit uint16

	// DefaultDirection is the factory default rotation direction.
	DefaultDirection ThumbwheelDirection

	// Capabilities lists the optional sensors.
	Capabilities ThumbwheelCapabilities
}

// ThumbwheelStatus is the current configuration and sensor state.
type ThumbwheelStatus struct {
	// ReportingMode is the current reporting mode.
	ReportingMode ThumbwheelReportingMode

	// DirectionInverted reports whether the default direction is
	// inverted.
	DirectionInverted bool

	// Touch reports whether the user touches the thumbwheel.
	Touch bool

	// Proxy reports whether the user is close to the thumbwheel.
	Proxy bool
}

// ThumbwheelRotationStatus is the phase of a rotation gesture.
type ThumbwheelRotationStatus uint8

const (
	RotationInactive ThumbwheelRotationStatus = 0
	RotationStart    ThumbwheelRotationStatus = 1
	RotationActive   ThumbwheelRotationStatus = 2
	RotationStop     ThumbwheelRotationStatus = 3
)

// ThumbwheelStatusUpdate is a status update broadcast. Devices only send it
// in diverted reporting mode.
type ThumbwheelStatusUpdate struct {
	// Rotation is the rotation delta in relation to the resolution of
	// the active reporting mode.
	Rotation int16

	// TimeElapsed is the time since the last update in units of
	// ThumbwheelInfo.TimeUnit, zero when timestamps are unsupported.
	TimeElapsed uint16

	// RotationStatus is the phase of the rotation gesture.
	RotationStatus ThumbwheelRotationStatus

	// Touch, Proxy and SingleTap carry the sensor states, limited to
	// the sensors in ThumbwheelInfo.Capabilities.
	Touch     bool
	Proxy     bool
	SingleTap bool
}

// Thumbwheel is the Thumbwheel (0x2150) feature.
type Thumbwheel struct {
	feature.Access
}

// NewThumbwheel builds the wrapper around a resolved feature.
func NewThumbwheel(acc feature.Access) *Thumbwheel {
	return &Thumbwheel{Access: acc}
}

// Info retrieves the static thumbwheel description.
func (t *Thumbwheel) Info(ctx context.Context) (ThumbwheelInfo, error) {
	resp, err := t.Call(ctx, fnThumbwheelInfo, nil)
	if err != nil {
		return ThumbwheelInfo{}, err
	}

	payload := resp.ExtendPayload()
	return ThumbwheelInfo{
		NativeResolution:   binary.BigEndian.Uint16(payload[0:2]),
		DivertedResolution: binary.BigEndian.Uint16(payload[2:4]),
		TimeUnit:           binary.BigEndian.Uint16(payload[6:8]),
		DefaultDirection:   ThumbwheelDirection(payload[4] & 1),
		Capabilities: ThumbwheelCapabilities{
			Timestamp: payload[5]&(1<<0) != 0,
			Touch:     payload[5]&(1<<1) != 0,
			Proxy:     payload[5]&(1<<2) != 0,
			SingleTap: payload[5]&(1<<3) != 0,
		},
	}, nil
}

// Status retrieves the current configuration and sensor state.
func (t *Thumbwheel) Status(ctx context.Context) (ThumbwheelStatus, error) {
	resp, err := t.Call(ctx, fnThumbwheelStatus, nil)
	if err != nil {
		return ThumbwheelStatus{}, err
	}

	payload := resp.ExtendPayload()
	mode := ThumbwheelReportingMode(payload[0])
	if mode != ThumbwheelNative && mode != ThumbwheelDiverted {
		return ThumbwheelStatus{}, ErrUnsupportedResponse
	}
	return ThumbwheelStatus{
		ReportingMode:     mode,
		DirectionInverted: payload[1]&(1<<0) != 0,
		Touch:             payload[1]&(1<<1) != 0,
		Proxy:             payload[1]&(1<<2) != 0,
	}, nil
}

// SetReporting sets the reporting mode. With invertDirection set, rotation
// values run against the default direction.
func (t *Thumbwheel) SetReporting(ctx context.Context, mode ThumbwheelReportingMode, invertDirection bool) error {
	var invert uint8
	if invertDirection {
		invert = 1
	}
	_, err := t.Call(ctx, fnThumbwheelSetReporting, []byte{uint8(mode), invert, 0})
	return err
}

// Listen streams the thumbwheel's status update broadcasts.
func (t *Thumbwheel) Listen() *Stream[ThumbwheelStatusUpdate] {
	return newStream(t.Subscribe(), func(msg wire.Message) (ThumbwheelStatusUpdate, bool) {
		if msg.Function() != 0 {
			return ThumbwheelStatusUpdate{}, false
		}
		payload := msg.ExtendPayload()
		status := ThumbwheelRotationStatus(payload[4])
		if status > RotationStop {
			return ThumbwheelStatusUpdate{}, false
		}
		return ThumbwheelStatusUpdate{
			Rotation:       int16(binary.BigEndian.Uint16(payload[0:2])),
			TimeElapsed:    binary.BigEndian.Uint16(payload[2:4]),
			RotationStatus: status,
			Touch:          payload[5]&(1<<1) != 0,
			Proxy:          payload[5]&(1<<2) != 0,
			SingleTap:      payload[5]&(1<<3) != 0,
		}, true
	})
}
