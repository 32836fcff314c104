// Package receiver implements HID++ wireless receivers.
//
// Receivers sit at the reserved device index 0xff and speak HID++1.0
// register accesses rather than the HID++2.0 capability framework. Detect
// identifies the receiver family by its USB vendor/product ID; currently the
// Logi Bolt family is supported.
//
// Paired devices announce themselves with connection notifications, either
// spontaneously or for all online devices after TriggerDeviceArrival. Listen
// decodes these notifications into typed event streams.
package receiver
