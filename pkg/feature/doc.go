// Package feature implements the HID++2.0 capability framework.
//
// Every HID++2.0 device exposes a table of features, each identified by a
// stable 16-bit ID and addressed at runtime through its table index. The
// Root feature (0x0000) resolves IDs to indices and the FeatureSet feature
// (0x0001) enumerates the table.
//
// Typed wrappers for concrete features live in pkg/features. A Registry maps
// feature IDs to their constructors; it is built once and never consulted to
// decide whether a device has a feature, only to pick the wrapper for one it
// does have.
package feature
