// Package log provides structured protocol logging for the HID++ engine.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (transport, wire, protocol). It
// is separate from operational logging (slog) - protocol capture provides a
// complete machine-readable trace of HID++ traffic for debugging and
// analysis.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	opts.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	opts.Logger, _ = log.NewFileLogger("/var/log/hidpp/channel.hlog")
//
//	// Both: use MultiLogger
//	opts.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: raw report bytes (FrameEvent)
//   - Wire: decoded HID++ headers (MessageEvent)
//   - Protocol: channel state changes (StateChangeEvent)
//
// Errors at any layer have a dedicated event type.
//
// # File Format
//
// Log files use CBOR encoding with .hlog extension. The hidpp-log CLI tool
// provides viewing and filtering capabilities.
package log
