// Package features provides typed wrappers for well-known HID++2.0
// features.
//
// Each wrapper binds one feature of one device and translates its functions
// into typed calls and its broadcast events into typed streams. Wrappers are
// usually obtained through device.Get with the registry DefaultRegistry
// returns; constructing them directly from a feature.Access works just as
// well.
//
// Feature versions are backwards compatible under the same ID, so every
// wrapper here implements the feature's base version and works on any later
// one.
package features
