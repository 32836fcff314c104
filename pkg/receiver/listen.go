package receiver

import (
	"encoding/binary"

	"github.com/lus/hidpp-go/pkg/channel"
	"github.com/lus/hidpp-go/pkg/wire"
)

// DeviceConnection is a decoded connection notification (sub ID 0x41). The
// receiver sends one when a paired device comes online and replays one per
// online device after an arrival trigger.
type DeviceConnection struct {
	// DeviceIndex is the channel index the device is reachable under.
	DeviceIndex uint8

	// Protocol is the raw wireless protocol type byte.
	Protocol uint8

	// Kind is the device kind.
	Kind DeviceKind

	// SoftwarePresent reports the software-present flag.
	SoftwarePresent bool

	// LinkEncrypted reports whether the wireless link is encrypted.
	LinkEncrypted bool

	// LinkEstablished is false while the device is announced but not yet
	// reachable.
	LinkEstablished bool

	// WirelessPID is the device's wireless product ID.
	WirelessPID uint16
}

// DeviceDisconnection is a decoded disconnection notification (sub ID 0x40).
type DeviceDisconnection struct {
	// DeviceIndex is the channel index the device was reachable under.
	DeviceIndex uint8

	// LinkDropped reports whether the notification marks a dropped wireless
	// link rather than any other disconnect reason.
	LinkDropped bool
}

// Listener is a pair of decoded notification streams. Both channels close
// when the listener is closed or the underlying channel closes.
type Listener struct {
	sub *channel.Subscription

	connections    chan DeviceConnection
	disconnections chan DeviceDisconnection
}

// Listen starts decoding connection and disconnection notifications. Every
// listener gets its own subscription, so N listeners observe N copies of
// each notification.
func (b *BoltReceiver) Listen() *Listener {
	sub := b.ch.SubscribeFunc(func(msg wire.Message) bool {
		return msg.SubID == wire.SubIDDeviceConnection || msg.SubID == wire.SubIDDeviceDisconnection
	})

	l := &Listener{
		sub:            sub,
		connections:    make(chan DeviceConnection, 16),
		disconnections: make(chan DeviceDisconnection, 16),
	}
	go l.decode()
	return l
}

// Connections returns the stream of connection notifications.
func (l *Listener) Connections() <-chan DeviceConnection {
	return l.connections
}

// Disconnections returns the stream of disconnection notifications.
func (l *Listener) Disconnections() <-chan DeviceDisconnection {
	return l.disconnections
}

// Close cancels the listener. The decode goroutine closes both streams.
func (l *Listener) Close() {
	l.sub.Cancel()
}

func (l *Listener) decode() {
	defer close(l.connections)
	defer close(l.disconnections)

	for msg := range l.sub.Events() {
		switch msg.SubID {
		case wire.SubIDDeviceConnection:
			l.connections <- DeviceConnection{
				DeviceIndex:     msg.DeviceIndex,
				Protocol:        msg.Address,
				Kind:            DeviceKind(msg.Params[0] & 0x0f),
				SoftwarePresent: msg.Params[0]&0x10 != 0,
				LinkEncrypted:   msg.Params[0]&0x20 != 0,
				LinkEstablished: msg.Params[0]&0x40 == 0,
				WirelessPID:     binary.LittleEndian.Uint16(msg.Params[1:3]),
			}
		case wire.SubIDDeviceDisconnection:
			l.disconnections <- DeviceDisconnection{
				DeviceIndex: msg.DeviceIndex,
				LinkDropped: msg.Address == 0x02,
			}
		}
	}
}
