package features

import (
	"bytes"
	"context"

	"github.com/lus/hidpp-go/pkg/feature"
	"github.com/lus/hidpp-go/pkg/wire"
)

// IDDeviceFriendlyName is the DeviceFriendlyName feature ID.
const IDDeviceFriendlyName feature.ID = 0x0007

// DeviceFriendlyName function IDs.
const (
	fnFriendlyNameLength       = 0
	fnFriendlyNameChunk        = 1
	fnDefaultFriendlyNameChunk = 2
)

// FriendlyNameLengths describes the current and the possible friendly name
// lengths of a device.
type FriendlyNameLengths struct {
	// Current is the length of the currently set friendly name.
	Current int

	// Maximum is the longest friendly name the device can store.
	Maximum int

	// Default is the length of the factory default friendly name.
	Default int
}

// DeviceFriendlyName is the DeviceFriendlyName (0x0007) feature. The
// friendly name is the host-visible name of a device, for example the name
// it advertises over Bluetooth.
type DeviceFriendlyName struct {
	feature.Access
}

// NewDeviceFriendlyName builds the wrapper around a resolved feature.
func NewDeviceFriendlyName(acc feature.Access) *DeviceFriendlyName {
	return &DeviceFriendlyName{Access: acc}
}

// Lengths retrieves the current, maximum and default friendly name lengths.
func (d *DeviceFriendlyName) Lengths(ctx context.Context) (FriendlyNameLengths, error) {
	resp, err := d.Call(ctx, fnFriendlyNameLength, nil)
	if err != nil {
		return FriendlyNameLengths{}, err
	}

	payload := resp.ExtendPayload()
	return FriendlyNameLengths{
		Current: int(payload[0]),
		Maximum: int(payload[1]),
		Default: int(payload[2]),
	}, nil
}

// Name retrieves the currently set friendly name.
func (d *DeviceFriendlyName) Name(ctx context.Context) (string, error) {
	lengths, err := d.Lengths(ctx)
	if err != nil {
		return "", err
	}
	return d.readName(ctx, fnFriendlyNameChunk, lengths.Current)
}

// DefaultName retrieves the factory default friendly name.
func (d *DeviceFriendlyName) DefaultName(ctx context.Context) (string, error) {
	lengths, err := d.Lengths(ctx)
	if err != nil {
		return "", err
	}
	return d.readName(ctx, fnDefaultFriendlyNameChunk, lengths.Default)
}

// readName stitches a friendly name together from its chunks. Each response
// carries the chunk offset in the first byte and up to 15 name bytes after
// it, NUL padded in the last chunk.
func (d *DeviceFriendlyName) readName(ctx context.Context, function wire.U4, length int) (string, error) {
	var buf bytes.Buffer
	buf.Grow(length)
	for buf.Len() < length {
		resp, err := d.Call(ctx, function, []byte{uint8(buf.Len())})
		if err != nil {
			return "", err
		}
		payload := resp.ExtendPayload()
		chunk := payload[1:]
		remaining := length - buf.Len()
		if remaining > len(chunk) {
			remaining = len(chunk)
		}
		buf.Write(chunk[:remaining])
	}
	name, _, _ := bytes.Cut(buf.Bytes(), []byte{0})
	return string(name), nil
}
