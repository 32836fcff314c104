package features

import (
	"github.com/lus/hidpp-go/pkg/feature"
	"github.com/lus/hidpp-go/pkg/wire"
)

// IDWirelessDeviceStatus is the WirelessDeviceStatus feature ID.
const IDWirelessDeviceStatus feature.ID = 0x1d4b

// WirelessStatus is a device status as reported in a status broadcast.
type WirelessStatus uint8

const (
	WirelessStatusUnknown      WirelessStatus = 0x00
	WirelessStatusReconnection WirelessStatus = 0x01
)

// WirelessStatusRequest is a request the device expresses towards the host.
type WirelessStatusRequest uint8

const (
	WirelessRequestNone                   WirelessStatusRequest = 0x00
	WirelessRequestSoftwareReconfigNeeded WirelessStatusRequest = 0x01
)

// WirelessStatusReason is the reason for a status broadcast.
type WirelessStatusReason uint8

const (
	WirelessReasonUnknown              WirelessStatusReason = 0x00
	WirelessReasonPowerSwitchActivated WirelessStatusReason = 0x01
)

// WirelessStatusBroadcast is the broadcast a device sends when it
// (re)connects to the host. The broadcast is always enabled.
type WirelessStatusBroadcast struct {
	Status  WirelessStatus
	Request WirelessStatusRequest
	Reason  WirelessStatusReason
}

// WirelessDeviceStatus is the WirelessDeviceStatus (0x1d4b) feature. It has
// no functions, only the status broadcast.
type WirelessDeviceStatus struct {
	feature.Access
}

// NewWirelessDeviceStatus builds the wrapper around a resolved feature.
func NewWirelessDeviceStatus(acc feature.Access) *WirelessDeviceStatus {
	return &WirelessDeviceStatus{Access: acc}
}

// Listen streams the device's status broadcasts.
func (w *WirelessDeviceStatus) Listen() *Stream[WirelessStatusBroadcast] {
	return newStream(w.Subscribe(), func(msg wire.Message) (WirelessStatusBroadcast, bool) {
		if msg.Function() != 0 {
			return WirelessStatusBroadcast{}, false
		}

		payload := msg.ExtendPayload()
		if payload[0] > uint8(WirelessStatusReconnection) ||
			payload[1] > uint8(WirelessRequestSoftwareReconfigNeeded) ||
			payload[2] > uint8(WirelessReasonPowerSwitchActivated) {
			return WirelessStatusBroadcast{}, false
		}

		return WirelessStatusBroadcast{
			Status:  WirelessStatus(payload[0]),
			Request: WirelessStatusRequest(payload[1]),
			Reason:  WirelessStatusReason(payload[2]),
		}, true
	})
}
