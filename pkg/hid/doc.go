// Package hid defines the raw HID transport contract the HID++ engine is
// built on.
//
// The engine does not open devices itself. Applications bring their own
// report I/O (hidapi bindings, hidraw, a simulator) and hand it to
// channel.Establish as a ReportReadWriter. Whether a given transport
// actually speaks HID++ is determined at establishment time, not here.
//
// Optional capabilities (device identity, pre-declared HID++ support) are
// modeled as separate interfaces the transport may additionally implement.
// Code that needs one checks for its presence instead of requiring a
// concrete type.
package hid
