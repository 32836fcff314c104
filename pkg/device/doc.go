// Package device models a single peripheral reachable over a HID++ channel.
//
// Initialize pings the device to verify it is present and speaks HID++2.0,
// then exposes the capability framework: feature enumeration through the
// FeatureSet feature and lazy, cached typed wrappers resolved through the
// root feature and a registry (pkg/feature, pkg/features).
//
// Receivers are not devices; they live in pkg/receiver.
package device
