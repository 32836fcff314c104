package wire

import (
	"fmt"

	"github.com/lus/hidpp-go/pkg/hid"
)

// ReceiverDeviceIndex is the device index conventionally reserved for the
// receiver's own address.
const ReceiverDeviceIndex = 0xff

// Parameter sizes determined by the report kind.
const (
	ShortParamLength = hid.ShortReportLength - 4
	LongParamLength  = hid.LongReportLength - 4
)

// ReportKind selects short or long framing for a message.
type ReportKind uint8

const (
	// ReportShort is a 7-byte report with 3 parameter bytes.
	ReportShort ReportKind = iota

	// ReportLong is a 20-byte report with 16 parameter bytes.
	ReportLong
)

// String returns the report kind name.
func (k ReportKind) String() string {
	switch k {
	case ReportShort:
		return "SHORT"
	case ReportLong:
		return "LONG"
	default:
		return "UNKNOWN"
	}
}

// ParamLength returns the exact parameter length of the kind.
func (k ReportKind) ParamLength() int {
	if k == ReportLong {
		return LongParamLength
	}
	return ShortParamLength
}

// ReportLength returns the total report length of the kind, ID included.
func (k ReportKind) ReportLength() int {
	if k == ReportLong {
		return hid.LongReportLength
	}
	return hid.ShortReportLength
}

// Message is one parsed HID++ report.
//
// The header bytes are version-agnostic: SubID is the feature index under
// HID++2.0 and the sub ID under HID++1.0; Address is the packed
// function/software-ID byte under 2.0 and the register address under 1.0.
type Message struct {
	// Kind selects short or long framing. The parameter length is exactly
	// determined by it.
	Kind ReportKind

	// DeviceIndex addresses one device slot on the channel.
	DeviceIndex uint8

	// SubID is the byte at offset 2 (feature index / sub ID).
	SubID uint8

	// Address is the byte at offset 3 (function|swID / register address).
	Address uint8

	// Params holds the parameter bytes. Only the first 3 are meaningful for
	// short messages; the rest must be zero.
	Params [LongParamLength]byte
}

// New builds a HID++2.0 message. params longer than the short parameter
// length force long framing; params must not exceed 16 bytes.
func New(deviceIndex, featureIndex uint8, function, softwareID U4, params []byte) (Message, error) {
	if len(params) > LongParamLength {
		return Message{}, fmt.Errorf("parameter length %d exceeds long report capacity", len(params))
	}

	kind := ReportShort
	if len(params) > ShortParamLength {
		kind = ReportLong
	}

	msg := Message{
		Kind:        kind,
		DeviceIndex: deviceIndex,
		SubID:       featureIndex,
		Address:     CombineNibbles(function, softwareID),
	}
	copy(msg.Params[:], params)
	return msg, nil
}

// NewRegister builds a HID++1.0 register-access message (sub ID 0x80-0x83).
// The value occupies the parameter bytes after the register address.
func NewRegister(deviceIndex, subID, address uint8, value []byte, kind ReportKind) (Message, error) {
	if len(value) > kind.ParamLength() {
		return Message{}, fmt.Errorf("register value length %d exceeds %s report capacity", len(value), kind)
	}

	msg := Message{
		Kind:        kind,
		DeviceIndex: deviceIndex,
		SubID:       subID,
		Address:     address,
	}
	copy(msg.Params[:], value)
	return msg, nil
}

// FeatureIndex returns the HID++2.0 view of SubID.
func (m Message) FeatureIndex() uint8 {
	return m.SubID
}

// Function returns the HID++2.0 function ID (high nibble of Address).
func (m Message) Function() U4 {
	return U4FromHi(m.Address)
}

// SoftwareID returns the HID++2.0 software ID (low nibble of Address).
func (m Message) SoftwareID() U4 {
	return U4FromLo(m.Address)
}

// Payload returns the parameter bytes meaningful for the message's kind.
// The returned slice aliases the message; callers must not retain it across
// mutation.
func (m *Message) Payload() []byte {
	return m.Params[:m.Kind.ParamLength()]
}

// WithTag returns a copy of the message with the software ID nibble replaced.
func (m Message) WithTag(softwareID U4) Message {
	m.Address = CombineNibbles(m.Function(), softwareID)
	return m
}

// Parse reads one HID++ report from raw bytes. It returns false if the
// buffer is not a complete short or long HID++ report.
func Parse(data []byte) (Message, bool) {
	if len(data) == 0 {
		return Message{}, false
	}

	var kind ReportKind
	switch data[0] {
	case hid.ShortReportID:
		if len(data) != hid.ShortReportLength {
			return Message{}, false
		}
		kind = ReportShort
	case hid.LongReportID:
		if len(data) != hid.LongReportLength {
			return Message{}, false
		}
		kind = ReportLong
	default:
		return Message{}, false
	}

	msg := Message{
		Kind:        kind,
		DeviceIndex: data[1],
		SubID:       data[2],
		Address:     data[3],
	}
	copy(msg.Params[:], data[4:])
	return msg, true
}

// Encode writes the message in its raw report form, report ID included.
func (m Message) Encode() []byte {
	buf := make([]byte, m.Kind.ReportLength())
	if m.Kind == ReportLong {
		buf[0] = hid.LongReportID
	} else {
		buf[0] = hid.ShortReportID
	}
	buf[1] = m.DeviceIndex
	buf[2] = m.SubID
	buf[3] = m.Address
	copy(buf[4:], m.Params[:m.Kind.ParamLength()])
	return buf
}

// ExtendPayload returns the parameters widened to the long parameter length,
// zero-filled for short messages. Feature decoders index into the result
// without caring about the original framing.
func (m Message) ExtendPayload() [LongParamLength]byte {
	return m.Params
}

// String renders the header for diagnostics.
func (m Message) String() string {
	return fmt.Sprintf("%s dev=%#02x sub=%#02x addr=%#02x", m.Kind, m.DeviceIndex, m.SubID, m.Address)
}
