package wire

// Reserved sub IDs that mark negative replies.
const (
	// ErrorSubID20 marks a HID++2.0 error reply. The original feature index
	// moves to the address byte, followed by the packed function/software-ID
	// byte and the error code in the parameters.
	ErrorSubID20 = 0xff

	// ErrorSubID10 marks a HID++1.0 error reply. The original sub ID moves
	// to the address byte, followed by the original register address and the
	// error code in the parameters.
	ErrorSubID10 = 0x8f
)

// HID++1.0 register-access sub IDs.
const (
	SubIDSetRegister     = 0x80
	SubIDGetRegister     = 0x81
	SubIDSetLongRegister = 0x82
	SubIDGetLongRegister = 0x83
)

// HID++1.0 notification sub IDs relevant to receivers.
const (
	SubIDDeviceDisconnection = 0x40
	SubIDDeviceConnection    = 0x41
)

// ErrorCode20 is a HID++2.0 protocol error code.
type ErrorCode20 uint8

const (
	Err20NoError             ErrorCode20 = 0x00
	Err20Unknown             ErrorCode20 = 0x01
	Err20InvalidArgument     ErrorCode20 = 0x02
	Err20OutOfRange          ErrorCode20 = 0x03
	Err20HardwareError       ErrorCode20 = 0x04
	Err20Internal            ErrorCode20 = 0x05
	Err20InvalidFeatureIndex ErrorCode20 = 0x06
	Err20InvalidFunctionID   ErrorCode20 = 0x07
	Err20Busy                ErrorCode20 = 0x08
	Err20Unsupported         ErrorCode20 = 0x09
)

// String returns the error code name.
func (c ErrorCode20) String() string {
	switch c {
	case Err20NoError:
		return "NO_ERROR"
	case Err20Unknown:
		return "UNKNOWN"
	case Err20InvalidArgument:
		return "INVALID_ARGUMENT"
	case Err20OutOfRange:
		return "OUT_OF_RANGE"
	case Err20HardwareError:
		return "HARDWARE_ERROR"
	case Err20Internal:
		return "INTERNAL"
	case Err20InvalidFeatureIndex:
		return "INVALID_FEATURE_INDEX"
	case Err20InvalidFunctionID:
		return "INVALID_FUNCTION_ID"
	case Err20Busy:
		return "BUSY"
	case Err20Unsupported:
		return "UNSUPPORTED"
	default:
		return "RESERVED"
	}
}

// ErrorCode10 is a HID++1.0 protocol error code.
type ErrorCode10 uint8

const (
	Err10Success            ErrorCode10 = 0x00
	Err10InvalidSubID       ErrorCode10 = 0x01
	Err10InvalidAddress     ErrorCode10 = 0x02
	Err10InvalidValue       ErrorCode10 = 0x03
	Err10ConnectFail        ErrorCode10 = 0x04
	Err10TooManyDevices     ErrorCode10 = 0x05
	Err10AlreadyExists      ErrorCode10 = 0x06
	Err10Busy               ErrorCode10 = 0x07
	Err10UnknownDevice      ErrorCode10 = 0x08
	Err10ResourceError      ErrorCode10 = 0x09
	Err10RequestUnavailable ErrorCode10 = 0x0a
	Err10InvalidParamValue  ErrorCode10 = 0x0b
	Err10WrongPinCode       ErrorCode10 = 0x0c
)

// String returns the error code name.
func (c ErrorCode10) String() string {
	switch c {
	case Err10Success:
		return "SUCCESS"
	case Err10InvalidSubID:
		return "INVALID_SUB_ID"
	case Err10InvalidAddress:
		return "INVALID_ADDRESS"
	case Err10InvalidValue:
		return "INVALID_VALUE"
	case Err10ConnectFail:
		return "CONNECT_FAIL"
	case Err10TooManyDevices:
		return "TOO_MANY_DEVICES"
	case Err10AlreadyExists:
		return "ALREADY_EXISTS"
	case Err10Busy:
		return "BUSY"
	case Err10UnknownDevice:
		return "UNKNOWN_DEVICE"
	case Err10ResourceError:
		return "RESOURCE_ERROR"
	case Err10RequestUnavailable:
		return "REQUEST_UNAVAILABLE"
	case Err10InvalidParamValue:
		return "INVALID_PARAM_VALUE"
	case Err10WrongPinCode:
		return "WRONG_PIN_CODE"
	default:
		return "RESERVED"
	}
}

// ErrorReply is a decoded negative reply of either protocol generation.
// SubID and Address are the header bytes of the request the device rejected,
// so together with the device index they reconstruct the request key.
type ErrorReply struct {
	// V20 is true for HID++2.0 error replies, false for HID++1.0 ones.
	V20 bool

	// SubID is the rejected request's sub ID (feature index under 2.0).
	SubID uint8

	// Address is the rejected request's address byte (function|swID under 2.0).
	Address uint8

	// Code is the raw device-reported error code. Interpret it through
	// ErrorCode20 or ErrorCode10 depending on V20.
	Code uint8
}

// AsError decodes the message as a negative reply. ok is false if the
// message is not an error reply.
func (m Message) AsError() (ErrorReply, bool) {
	switch m.SubID {
	case ErrorSubID20:
		return ErrorReply{
			V20:     true,
			SubID:   m.Address,
			Address: m.Params[0],
			Code:    m.Params[1],
		}, true
	case ErrorSubID10:
		// 1.0 errors are always short according to the specification.
		if m.Kind != ReportShort {
			return ErrorReply{}, false
		}
		return ErrorReply{
			SubID:   m.Address,
			Address: m.Params[0],
			Code:    m.Params[1],
		}, true
	default:
		return ErrorReply{}, false
	}
}
