package feature

import (
	"context"
	"errors"

	"github.com/lus/hidpp-go/pkg/channel"
)

// ErrPingMismatch is returned when a ping response does not echo the marker
// byte that was sent.
var ErrPingMismatch = errors.New("ping response echoed a different marker")

// Root function IDs.
const (
	fnRootGetFeature = 0
	fnRootPing       = 1
)

// ProtocolVersion is the version information a ping response carries.
type ProtocolVersion struct {
	// Number hints the host software whether it should support the device.
	// 2 targets Logitech SetPoint, 3 and up defer to TargetSoftware.
	Number uint8

	// TargetSoftware further identifies the intended host software when
	// Number >= 3, zero otherwise.
	TargetSoftware uint8
}

// Root is the feature every HID++2.0 device supports at table index 0. It
// resolves feature IDs to table indices and answers pings.
type Root struct {
	ch          *channel.Channel
	deviceIndex uint8
}

// NewRoot binds the root feature of the device at the given index.
func NewRoot(ch *channel.Channel, deviceIndex uint8) *Root {
	return &Root{ch: ch, deviceIndex: deviceIndex}
}

// ID returns IDRoot.
func (r *Root) ID() ID { return IDRoot }

// Index returns 0, the root feature's fixed table index.
func (r *Root) Index() uint8 { return 0 }

// GetFeature resolves a feature ID on the device. ok is false when the
// device does not support the feature; that is not an error. On devices
// supporting only root feature version 1 the reported version is always 0.
func (r *Root) GetFeature(ctx context.Context, id ID) (Info, bool, error) {
	resp, err := r.ch.Request(ctx, r.deviceIndex, 0, fnRootGetFeature, []byte{byte(id >> 8), byte(id), 0x00})
	if err != nil {
		return Info{}, false, err
	}

	payload := resp.ExtendPayload()
	if payload[0] == 0 {
		return Info{}, false, nil
	}

	return Info{
		ID:      id,
		Index:   payload[0],
		Type:    Type(payload[1]),
		Version: payload[2],
	}, true, nil
}

// Ping sends an arbitrary marker byte the device echoes back, proving the
// HID++2.0 path works, and returns the protocol version the response
// advertises. A response with a different marker is ErrPingMismatch.
func (r *Root) Ping(ctx context.Context, marker uint8) (ProtocolVersion, error) {
	resp, err := r.ch.Request(ctx, r.deviceIndex, 0, fnRootPing, []byte{0x00, 0x00, marker})
	if err != nil {
		return ProtocolVersion{}, err
	}

	payload := resp.ExtendPayload()
	if payload[2] != marker {
		return ProtocolVersion{}, ErrPingMismatch
	}

	return ProtocolVersion{
		Number:         payload[0],
		TargetSoftware: payload[1],
	}, nil
}
