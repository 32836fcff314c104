package receiver

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/lus/hidpp-go/pkg/channel"
	"github.com/lus/hidpp-go/pkg/wire"
)

// Receiver errors.
var (
	// ErrNoReceiverFound indicates the channel's USB identity matches no
	// supported receiver family.
	ErrNoReceiverFound = errors.New("no supported receiver found")

	// ErrUnsupportedResponse indicates a register read returned data the
	// receiver implementation cannot interpret.
	ErrUnsupportedResponse = errors.New("unsupported register response")
)

// usbID is a USB vendor/product ID pair.
type usbID struct {
	vendor  uint16
	product uint16
}

// boltUSBIDs lists all known Bolt receiver identities.
var boltUSBIDs = []usbID{
	{0x046d, 0xc548},
}

// Bolt receiver registers.
const (
	// regConnections exposes the paired device count and, written with an
	// arrival trigger, replays connection notifications.
	regConnections = 0x02

	// regReceiverInfo multiplexes receiver and pairing information through
	// sub-registers selected by the first value byte.
	regReceiverInfo = 0xb5

	// regUniqueID exposes the receiver's unique ID.
	regUniqueID = 0xfb
)

// regReceiverInfo sub-registers. The low nibble selects the device index.
const (
	subRegPairingInfo = 0x50
	subRegCodename    = 0x60
)

// DeviceKind classifies a device paired with a Bolt receiver.
type DeviceKind uint8

const (
	KindUnknown   DeviceKind = 0x00
	KindKeyboard  DeviceKind = 0x01
	KindMouse     DeviceKind = 0x02
	KindNumpad    DeviceKind = 0x03
	KindPresenter DeviceKind = 0x04
	KindRemote    DeviceKind = 0x07
	KindTrackball DeviceKind = 0x08
	KindTouchpad  DeviceKind = 0x09
	KindTablet    DeviceKind = 0x0a
	KindGamepad   DeviceKind = 0x0b
	KindJoystick  DeviceKind = 0x0c
	KindHeadset   DeviceKind = 0x0d
)

// String returns the device kind name.
func (k DeviceKind) String() string {
	switch k {
	case KindKeyboard:
		return "KEYBOARD"
	case KindMouse:
		return "MOUSE"
	case KindNumpad:
		return "NUMPAD"
	case KindPresenter:
		return "PRESENTER"
	case KindRemote:
		return "REMOTE"
	case KindTrackball:
		return "TRACKBALL"
	case KindTouchpad:
		return "TOUCHPAD"
	case KindTablet:
		return "TABLET"
	case KindGamepad:
		return "GAMEPAD"
	case KindJoystick:
		return "JOYSTICK"
	case KindHeadset:
		return "HEADSET"
	default:
		return "UNKNOWN"
	}
}

// PairingInformation describes one persistent pairing slot.
type PairingInformation struct {
	// WirelessPID is the wireless product ID of the paired device.
	WirelessPID uint16

	// Kind is the paired device's kind.
	Kind DeviceKind

	// UnitID identifies the paired device unit.
	UnitID [4]byte
}

// BoltReceiver drives a Logi Bolt receiver over HID++1.0 registers.
type BoltReceiver struct {
	ch *channel.Channel

	// Serializes arrival trigger commands; one register write must be
	// acknowledged before the next is sent. The notification replay itself
	// is asynchronous.
	arrivalMu sync.Mutex
}

// Detect identifies the receiver on a channel by its USB identity. Channels
// whose transport does not expose a USB identity, or whose identity matches
// no supported family, return ErrNoReceiverFound.
func Detect(ch *channel.Channel) (*BoltReceiver, error) {
	vendor, product, ok := ch.USBID()
	if !ok {
		return nil, ErrNoReceiverFound
	}

	for _, id := range boltUSBIDs {
		if id.vendor == vendor && id.product == product {
			return &BoltReceiver{ch: ch}, nil
		}
	}
	return nil, ErrNoReceiverFound
}

// CountPairings returns the number of devices currently paired to the
// receiver. Pairings are persistent, the devices do not have to be online.
func (b *BoltReceiver) CountPairings(ctx context.Context) (int, error) {
	resp, err := b.ch.RegisterRequest(ctx, wire.ReceiverDeviceIndex, wire.SubIDGetRegister, regConnections, nil, wire.ReportShort)
	if err != nil {
		return 0, err
	}
	return int(resp.Params[1]), nil
}

// TriggerDeviceArrival makes the receiver replay a connection notification
// for every online paired device. Concurrent triggers are serialized.
func (b *BoltReceiver) TriggerDeviceArrival(ctx context.Context) error {
	b.arrivalMu.Lock()
	defer b.arrivalMu.Unlock()

	_, err := b.ch.RegisterRequest(ctx, wire.ReceiverDeviceIndex, wire.SubIDSetRegister, regConnections, []byte{0x02, 0x00, 0x00}, wire.ReportShort)
	return err
}

// UniqueID returns the receiver's unique ID as reported by the unique ID
// register. The last 8 bytes form a hex string matching what Logitech's
// software calls the udid.
func (b *BoltReceiver) UniqueID(ctx context.Context) (string, error) {
	resp, err := b.ch.RegisterRequest(ctx, wire.ReceiverDeviceIndex, wire.SubIDGetLongRegister, regUniqueID, nil, wire.ReportLong)
	if err != nil {
		return "", err
	}

	value := resp.Params[:]
	if !utf8.Valid(value) {
		return "", ErrUnsupportedResponse
	}
	return string(value), nil
}

// PairingInformation returns the pairing information of the pairing slot at
// the given index.
func (b *BoltReceiver) PairingInformation(ctx context.Context, deviceIndex wire.U4) (PairingInformation, error) {
	resp, err := b.ch.RegisterRequest(
		ctx,
		wire.ReceiverDeviceIndex,
		wire.SubIDGetLongRegister,
		regReceiverInfo,
		[]byte{subRegPairingInfo + deviceIndex.Lo(), 0x00, 0x00},
		wire.ReportLong,
	)
	if err != nil {
		return PairingInformation{}, err
	}

	// Byte 1 carries the device kind in the low nibble; the high nibble
	// flips while the device is offline.
	value := resp.Params
	info := PairingInformation{
		WirelessPID: binary.LittleEndian.Uint16(value[2:4]),
		Kind:        DeviceKind(value[1] & 0x0f),
	}
	copy(info.UnitID[:], value[4:8])
	return info, nil
}

// Codename returns the codename of the device paired at the given index.
// Names longer than 13 characters are truncated.
func (b *BoltReceiver) Codename(ctx context.Context, deviceIndex wire.U4) (string, error) {
	resp, err := b.ch.RegisterRequest(
		ctx,
		wire.ReceiverDeviceIndex,
		wire.SubIDGetLongRegister,
		regReceiverInfo,
		[]byte{subRegCodename + deviceIndex.Lo(), 0x01, 0x00},
		wire.ReportLong,
	)
	if err != nil {
		return "", err
	}

	value := resp.Params[:]
	end := int(value[2])
	if end < 3 || end > len(value) {
		return "", ErrUnsupportedResponse
	}
	name := value[3:end]
	if !utf8.Valid(name) {
		return "", ErrUnsupportedResponse
	}
	return string(name), nil
}
