package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ChannelID uniquely identifies the channel (UUID).
	ChannelID string `cbor:"2,keyasint"`

	// Direction indicates report flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Channel state
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of report flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming report.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing report.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the raw report layer.
	LayerTransport Layer = 0
	// LayerWire is the HID++ framing layer (decoded headers).
	LayerWire Layer = 1
	// LayerProtocol is the request/event correlation layer.
	LayerProtocol Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerProtocol:
		return "PROTOCOL"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message (request/response/event).
	CategoryMessage Category = 0
	// CategoryState indicates a channel state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw report bytes at the transport layer.
type FrameEvent struct {
	// Size is the report size in bytes, report ID included.
	Size int `cbor:"1,keyasint"`

	// Data is the raw report bytes. HID++ reports are at most 20 bytes, so
	// frames are never truncated.
	Data []byte `cbor:"2,keyasint,omitempty"`
}

// MessageEvent captures a decoded HID++ header at the wire layer.
type MessageEvent struct {
	// Kind distinguishes short/long framing (0 = short, 1 = long).
	Kind uint8 `cbor:"1,keyasint"`

	// DeviceIndex is the addressed device slot.
	DeviceIndex uint8 `cbor:"2,keyasint"`

	// SubID is the feature index (2.0) or sub ID (1.0).
	SubID uint8 `cbor:"3,keyasint"`

	// Address is the packed function/software-ID byte (2.0) or register
	// address (1.0).
	Address uint8 `cbor:"4,keyasint"`

	// Matched is true when an incoming message resolved a pending request.
	Matched bool `cbor:"5,keyasint,omitempty"`
}

// StateChangeEvent captures a channel lifecycle transition.
type StateChangeEvent struct {
	// OldState is the previous state name.
	OldState string `cbor:"1,keyasint"`

	// NewState is the new state name.
	NewState string `cbor:"2,keyasint"`

	// Reason describes why the transition happened (optional).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error text.
	Message string `cbor:"2,keyasint"`

	// Context describes what was being done (optional).
	Context string `cbor:"3,keyasint,omitempty"`

	// Code is the device-reported error code, when one exists.
	Code *int `cbor:"4,keyasint,omitempty"`
}
