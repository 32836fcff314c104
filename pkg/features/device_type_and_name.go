package features

import (
	"bytes"
	"context"

	"github.com/lus/hidpp-go/pkg/feature"
)

// IDDeviceTypeAndName is the DeviceTypeAndName feature ID.
const IDDeviceTypeAndName feature.ID = 0x0005

// DeviceTypeAndName function IDs.
const (
	fnNameLength = 0
	fnNameChunk  = 1
	fnDeviceType = 2
)

// DeviceType is the broad category a device belongs to.
type DeviceType uint8

const (
	DeviceTypeKeyboard               DeviceType = 0
	DeviceTypeRemoteControl          DeviceType = 1
	DeviceTypeNumpad                 DeviceType = 2
	DeviceTypeMouse                  DeviceType = 3
	DeviceTypeTrackpad               DeviceType = 4
	DeviceTypeTrackball              DeviceType = 5
	DeviceTypePresenter              DeviceType = 6
	DeviceTypeReceiver               DeviceType = 7
	DeviceTypeHeadset                DeviceType = 8
	DeviceTypeWebcam                 DeviceType = 9
	DeviceTypeSteeringWheel          DeviceType = 10
	DeviceTypeJoystick               DeviceType = 11
	DeviceTypeGamepad                DeviceType = 12
	DeviceTypeDock                   DeviceType = 13
	DeviceTypeSpeaker                DeviceType = 14
	DeviceTypeMicrophone             DeviceType = 15
	DeviceTypeIlluminationLight      DeviceType = 16
	DeviceTypeProgrammableController DeviceType = 17
	DeviceTypeCarSimPedals           DeviceType = 18
	DeviceTypeAdapter                DeviceType = 19
)

// String returns the device type name.
func (t DeviceType) String() string {
	names := [...]string{
		"KEYBOARD", "REMOTE_CONTROL", "NUMPAD", "MOUSE", "TRACKPAD",
		"TRACKBALL", "PRESENTER", "RECEIVER", "HEADSET", "WEBCAM",
		"STEERING_WHEEL", "JOYSTICK", "GAMEPAD", "DOCK", "SPEAKER",
		"MICROPHONE", "ILLUMINATION_LIGHT", "PROGRAMMABLE_CONTROLLER",
		"CAR_SIM_PEDALS", "ADAPTER",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return "UNKNOWN"
}

// DeviceTypeAndName is the DeviceTypeAndName (0x0005) feature. It exposes
// the marketing name and the broad type of a device.
type DeviceTypeAndName struct {
	feature.Access
}

// NewDeviceTypeAndName builds the wrapper around a resolved feature.
func NewDeviceTypeAndName(acc feature.Access) *DeviceTypeAndName {
	return &DeviceTypeAndName{Access: acc}
}

// NameLength retrieves the length of the device name in bytes.
func (d *DeviceTypeAndName) NameLength(ctx context.Context) (int, error) {
	resp, err := d.Call(ctx, fnNameLength, nil)
	if err != nil {
		return 0, err
	}
	return int(resp.ExtendPayload()[0]), nil
}

// Name retrieves the full device name. The device hands the name out in
// chunks of at most 16 bytes, Name stitches them together.
func (d *DeviceTypeAndName) Name(ctx context.Context) (string, error) {
	length, err := d.NameLength(ctx)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.Grow(length)
	for buf.Len() < length {
		resp, err := d.Call(ctx, fnNameChunk, []byte{uint8(buf.Len())})
		if err != nil {
			return "", err
		}
		chunk := resp.ExtendPayload()
		remaining := length - buf.Len()
		if remaining > len(chunk) {
			remaining = len(chunk)
		}
		buf.Write(chunk[:remaining])
	}
	return buf.String(), nil
}

// Type retrieves the broad device type.
func (d *DeviceTypeAndName) Type(ctx context.Context) (DeviceType, error) {
	resp, err := d.Call(ctx, fnDeviceType, nil)
	if err != nil {
		return 0, err
	}
	typ := DeviceType(resp.ExtendPayload()[0])
	if typ > DeviceTypeAdapter {
		return 0, ErrUnsupportedResponse
	}
	return typ, nil
}
