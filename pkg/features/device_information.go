package features

import (
	"context"
	"encoding/binary"

	"github.com/lus/hidpp-go/pkg/feature"
	"github.com/lus/hidpp-go/pkg/wire"
)

// IDDeviceInformation is the DeviceInformation feature ID.
const IDDeviceInformation feature.ID = 0x0003

// DeviceInformation function IDs.
const (
	fnDeviceInfo   = 0
	fnFirmwareInfo = 1
	fnDeviceSerial = 2
)

// FirmwareEntityType is the kind of firmware entity an entry describes.
type FirmwareEntityType uint8

const (
	FirmwareEntityMain          FirmwareEntityType = 0
	FirmwareEntityDFU           FirmwareEntityType = 1
	FirmwareEntityHardware      FirmwareEntityType = 2
	FirmwareEntityTouchpad      FirmwareEntityType = 3
	FirmwareEntityOpticalSensor FirmwareEntityType = 4
	FirmwareEntitySoftDevice    FirmwareEntityType = 5
	FirmwareEntityRFCompanion   FirmwareEntityType = 6
	FirmwareEntityFactoryApp    FirmwareEntityType = 7
	FirmwareEntityRGBEffect     FirmwareEntityType = 8
	FirmwareEntityMotorDrive    FirmwareEntityType = 9
)

// TransportSupport lists the transports a device can talk over.
type TransportSupport struct {
	USB       bool
	EQuad     bool
	BTLE      bool
	Bluetooth bool
}

// DeviceInfo is the static description of a device.
type DeviceInfo struct {
	// EntityCount is the number of firmware entities the device carries.
	EntityCount int

	// UnitID identifies the individual unit. It is not guaranteed to be
	// globally unique.
	UnitID [4]byte

	// Transports lists the supported transports.
	Transports TransportSupport

	// ModelIDs are the model IDs per transport, most significant first.
	ModelIDs [3]uint16

	// ExtendedModelID disambiguates variants sharing a model ID.
	ExtendedModelID uint8

	// SerialNumberSupported reports whether SerialNumber carries data.
	SerialNumberSupported bool
}

// FirmwareInfo describes a single firmware entity.
type FirmwareInfo struct {
	// EntityType is the kind of entity.
	EntityType FirmwareEntityType

	// Prefix is the three character firmware name prefix.
	Prefix string

	// Number and Revision form the firmware version.
	Number   uint8
	Revision uint8

	// Build is the firmware build number.
	Build uint16

	// Active reports whether this entity currently runs.
	Active bool

	// TransportPID is the transport specific product ID, zero when the
	// entity has none.
	TransportPID uint16

	// Extra is entity specific extra data.
	Extra [5]byte
}

// DeviceInformation is the DeviceInformation (0x0003) feature.
type DeviceInformation struct {
	feature.Access
}

// NewDeviceInformation builds the wrapper around a resolved feature.
func NewDeviceInformation(acc feature.Access) *DeviceInformation {
	return &DeviceInformation{Access: acc}
}

// Info retrieves the static device description.
func (d *DeviceInformation) Info(ctx context.Context) (DeviceInfo, error) {
	resp, err := d.Call(ctx, fnDeviceInfo, nil)
	if err != nil {
		return DeviceInfo{}, err
	}

	payload := resp.ExtendPayload()
	info := DeviceInfo{
		EntityCount: int(payload[0]),
		Transports: TransportSupport{
			USB:       payload[6]&(1<<3) != 0,
			EQuad:     payload[6]&(1<<2) != 0,
			BTLE:      payload[6]&(1<<1) != 0,
			Bluetooth: payload[6]&(1<<0) != 0,
		},
		ExtendedModelID:       payload[13],
		SerialNumberSupported: payload[14]&(1<<0) != 0,
	}
	copy(info.UnitID[:], payload[1:5])
	for i := range info.ModelIDs {
		info.ModelIDs[i] = binary.BigEndian.Uint16(payload[7+2*i : 9+2*i])
	}
	return info, nil
}

// FirmwareInfo retrieves the description of a single firmware entity. The
// entity index runs from 0 to DeviceInfo.EntityCount-1.
func (d *DeviceInformation) FirmwareInfo(ctx context.Context, entity uint8) (FirmwareInfo, error) {
	resp, err := d.Call(ctx, fnFirmwareInfo, []byte{entity})
	if err != nil {
		return FirmwareInfo{}, err
	}

	payload := resp.ExtendPayload()
	number, err := wire.DecodeBCD8(payload[4])
	if err != nil {
		return FirmwareInfo{}, ErrUnsupportedResponse
	}
	revision, err := wire.DecodeBCD8(payload[5])
	if err != nil {
		return FirmwareInfo{}, ErrUnsupportedResponse
	}
	build, err := wire.DecodeBCD16(binary.BigEndian.Uint16(payload[6:8]))
	if err != nil {
		return FirmwareInfo{}, ErrUnsupportedResponse
	}

	info := FirmwareInfo{
		EntityType:   FirmwareEntityType(payload[0]),
		Prefix:       string(payload[1:4]),
		Number:       number,
		Revision:     revision,
		Build:        build,
		Active:       payload[8]&(1<<0) != 0,
		TransportPID: binary.BigEndian.Uint16(payload[9:11]),
	}
	copy(info.Extra[:], payload[11:16])
	return info, nil
}

// SerialNumber retrieves the serial number. Only valid when the device
// reports SerialNumberSupported.
func (d *DeviceInformation) SerialNumber(ctx context.Context) (string, error) {
	resp, err := d.Call(ctx, fnDeviceSerial, nil)
	if err != nil {
		return "", err
	}
	payload := resp.ExtendPayload()
	return string(payload[:12]), nil
}
