package hid

// Report sizes and IDs fixed by the HID++ specification.
const (
	// ShortReportID tags 7-byte HID++ reports.
	ShortReportID = 0x10

	// ShortReportLength is the total length of a short report, report ID
	// included.
	ShortReportLength = 7

	// LongReportID tags 20-byte HID++ reports.
	LongReportID = 0x11

	// LongReportLength is the total length of a long report, report ID
	// included.
	LongReportLength = 20

	// MaxReportLength is the size of the buffer incoming reports are read
	// into. Only HID++ reports matter here, so this equals LongReportLength.
	MaxReportLength = LongReportLength
)

// ReportReadWriter is the raw transport a channel is established over.
// Implementations must support concurrent use of WriteReport and ReadReport
// from different goroutines.
type ReportReadWriter interface {
	// WriteReport sends one complete report, report ID included.
	// It returns the number of bytes written.
	WriteReport(p []byte) (int, error)

	// ReadReport blocks until the next report is available and copies it
	// into p, report ID included. If p is too small for the whole report,
	// the remainder is discarded and must not be returned by a later call.
	// It returns the number of bytes read.
	ReadReport(p []byte) (int, error)

	// Close terminates the transport. A blocked ReadReport must return
	// with an error after Close.
	Close() error
}

// DeviceInfo is optionally implemented by transports that know the USB
// identity of the interface they wrap. Receiver detection relies on it.
type DeviceInfo interface {
	VendorID() uint16
	ProductID() uint16
}

// Capabilities is optionally implemented by transports that already know
// whether the underlying HID interface accepts short and/or long HID++
// reports (for example by having parsed the report descriptor). When
// present, channel establishment skips its active probe.
type Capabilities interface {
	// SupportsHidpp reports short/long HID++ support. ok is false when the
	// transport cannot tell, in which case the channel probes actively.
	SupportsHidpp() (short, long, ok bool)
}
