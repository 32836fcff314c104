package features

import (
	"context"
	"encoding/binary"

	"github.com/lus/hidpp-go/pkg/feature"
	"github.com/lus/hidpp-go/pkg/wire"
)

// IDHiResWheel is the HiResWheel feature ID.
const IDHiResWheel feature.ID = 0x2121

// HiResWheel function IDs.
const (
	fnWheelCapabilities = 0
	fnWheelGetMode      = 1
	fnWheelSetMode      = 2
	fnWheelRatchet      = 3
)

// HiResWheel event function IDs.
const (
	evWheelMovement = 0
	evWheelRatchet  = 1
)

// WheelTarget is where wheel movement reports go.
type WheelTarget uint8

const (
	// WheelTargetHID reports movement through the regular HID mouse
	// reports.
	WheelTargetHID WheelTarget = 0

	// WheelTargetDiverted reports movement through wheel movement
	// broadcasts instead.
	WheelTargetDiverted WheelTarget = 1
)

// WheelResolution is the movement resolution of the wheel.
type WheelResolution uint8

const (
	WheelResolutionLow  WheelResolution = 0
	WheelResolutionHigh WheelResolution = 1
)

// WheelCapabilities describes the wheel hardware.
type WheelCapabilities struct {
	// Multiplier is the resolution multiplier in high resolution mode.
	Multiplier uint8

	// CanInvert reports whether the wheel direction can be inverted.
	CanInvert bool

	// HasRatchetSwitch reports whether ratchet switch broadcasts are
	// available.
	HasRatchetSwitch bool

	// RatchetsPerRotation is the number of ratchets in a full rotation.
	RatchetsPerRotation uint8

	// WheelDiameter is the wheel diameter in millimeters.
	WheelDiameter uint8
}

// HiResWheelMode is the current reporting configuration of the wheel.
type HiResWheelMode struct {
	// Target is where movement reports go.
	Target WheelTarget

	// Resolution is the current movement resolution.
	Resolution WheelResolution

	// Inverted reports whether the wheel direction is inverted.
	Inverted bool
}

// RatchetState is the state of the wheel ratchet.
type RatchetState uint8

const (
	RatchetFree    RatchetState = 0
	RatchetEngaged RatchetState = 1
)

// WheelMovement is a single wheel movement broadcast. Devices only send it
// while movement reporting is diverted.
type WheelMovement struct {
	// Resolution is the resolution the movement was measured in.
	Resolution WheelResolution

	// Periods is the number of sampling periods combined into this
	// report.
	Periods uint8

	// Delta is the accumulated movement, positive away from the user.
	Delta int16
}

// RatchetSwitch is a ratchet switch broadcast.
type RatchetSwitch struct {
	State RatchetState
}

// HiResWheel is the HiResWheel (0x2121) feature. It controls the resolution
// and the reporting path of the scroll wheel.
type HiResWheel struct {
	feature.Access
}

// NewHiResWheel builds the wrapper around a resolved feature.
func NewHiResWheel(acc feature.Access) *HiResWheel {
	return &HiResWheel{Access: acc}
}

// Capabilities retrieves the wheel hardware description.
func (h *HiResWheel) Capabilities(ctx context.Context) (WheelCapabilities, error) {
	resp, err := h.Call(ctx, fnWheelCapabilities, nil)
	if err != nil {
		return WheelCapabilities{}, err
	}

	payload := resp.ExtendPayload()
	return WheelCapabilities{
		Multiplier:          payload[0],
		CanInvert:           payload[1]&(1<<3) != 0,
		HasRatchetSwitch:    payload[1]&(1<<2) != 0,
		RatchetsPerRotation: payload[2],
		WheelDiameter:       payload[3],
	}, nil
}

// Mode retrieves the current reporting configuration.
func (h *HiResWheel) Mode(ctx context.Context) (HiResWheelMode, error) {
	resp, err := h.Call(ctx, fnWheelGetMode, nil)
	if err != nil {
		return HiResWheelMode{}, err
	}
	return decodeWheelMode(resp.ExtendPayload()[0]), nil
}

// SetMode writes the reporting configuration.
func (h *HiResWheel) SetMode(ctx context.Context, mode HiResWheelMode) error {
	var flags uint8
	if mode.Inverted {
		flags |= 1 << 2
	}
	if mode.Resolution == WheelResolutionHigh {
		flags |= 1 << 1
	}
	if mode.Target == WheelTargetDiverted {
		flags |= 1 << 0
	}
	_, err := h.Call(ctx, fnWheelSetMode, []byte{flags})
	return err
}

// Ratchet retrieves the current ratchet state.
func (h *HiResWheel) Ratchet(ctx context.Context) (RatchetState, error) {
	resp, err := h.Call(ctx, fnWheelRatchet, nil)
	if err != nil {
		return 0, err
	}
	return RatchetState(resp.ExtendPayload()[0] & 1), nil
}

// ListenMovement streams wheel movement broadcasts. The device only sends
// them while movement reporting is diverted.
func (h *HiResWheel) ListenMovement() *Stream[WheelMovement] {
	return newStream(h.Subscribe(), func(msg wire.Message) (WheelMovement, bool) {
		if msg.Function() != evWheelMovement {
			return WheelMovement{}, false
		}
		payload := msg.ExtendPayload()
		resolution := WheelResolutionLow
		if payload[0]&(1<<4) != 0 {
			resolution = WheelResolutionHigh
		}
		return WheelMovement{
			Resolution: resolution,
			Periods:    payload[0] & 0x0f,
			Delta:      int16(binary.BigEndian.Uint16(payload[1:3])),
		}, true
	})
}

// ListenRatchet streams ratchet switch broadcasts. Only devices with
// WheelCapabilities.HasRatchetSwitch send them.
func (h *HiResWheel) ListenRatchet() *Stream[RatchetSwitch] {
	return newStream(h.Subscribe(), func(msg wire.Message) (RatchetSwitch, bool) {
		if msg.Function() != evWheelRatchet {
			return RatchetSwitch{}, false
		}
		return RatchetSwitch{State: RatchetState(msg.ExtendPayload()[0] & 1)}, true
	})
}

func decodeWheelMode(flags uint8) HiResWheelMode {
	mode := HiResWheelMode{Target: WheelTargetHID, Resolution: WheelResolutionLow}
	if flags&(1<<2) != 0 {
		mode.Inverted = true
	}
	if flags&(1<<1) != 0 {
		mode.Resolution = WheelResolutionHigh
	}
	if flags&(1<<0) != 0 {
		mode.Target = WheelTargetDiverted
	}
	return mode
}
