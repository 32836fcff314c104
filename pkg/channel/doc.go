// Package channel implements the HID++ channel layer.
//
// A Channel wraps a raw report transport (pkg/hid) and multiplexes
// request/response exchanges and unsolicited device events over it. A single
// background goroutine reads incoming reports, decodes them (pkg/wire) and
// routes each one either to the pending request it answers or to the event
// subscriptions that match it.
//
// Requests are correlated by a composite key of device index, sub ID and
// address byte. Under HID++2.0 the address byte carries a 4-bit software ID
// tag that the channel assigns per request, so several requests to the same
// function can be in flight at once. HID++1.0 register accesses are
// correlated by the register address instead and need no tag.
//
// Event delivery never blocks the reader: subscription buffers are bounded
// and overflow drops the oldest event, counted per subscription.
package channel
