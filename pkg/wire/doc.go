// Package wire defines the binary wire format shared by all HID++ versions.
//
// HID++ messages travel in fixed-size HID reports: short (7 bytes, report ID
// 0x10) or long (20 bytes, report ID 0x11). Every report starts with the same
// header:
//
//	offset 0: report ID (selects short/long framing)
//	offset 1: device index (0xFF addresses the receiver itself)
//	offset 2: feature index (HID++2.0) or sub ID (HID++1.0)
//	offset 3: function ID | software ID nibbles (2.0) or register address (1.0)
//	offset 4: parameters, 3 bytes (short) or 16 bytes (long)
//
// The package is deliberately version-agnostic: Message carries the raw
// header bytes and exposes HID++2.0 nibble accessors on top. Negative
// replies of both protocol generations decode through AsError.
//
// # Absence vs failure
//
// Parsing never panics and never guesses: a buffer that is not a well-formed
// HID++ report yields (Message{}, false). Callers at the channel layer drop
// such frames and keep reading.
package wire
