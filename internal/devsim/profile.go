package devsim

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Profile describes a simulated receiver and its paired devices.
type Profile struct {
	// VendorID and ProductID form the USB identity of the receiver.
	VendorID  uint16 `yaml:"vendorId"`
	ProductID uint16 `yaml:"productId"`

	// UniqueID is the 16 byte unique ID register value. Shorter values
	// are zero padded.
	UniqueID string `yaml:"uniqueId"`

	// Devices lists the paired devices by pairing slot.
	Devices []DeviceProfile `yaml:"devices"`
}

// DeviceProfile describes one paired device.
type DeviceProfile struct {
	// Index is the pairing slot, 1 based.
	Index uint8 `yaml:"index"`

	// Codename is the short device name stored in the receiver.
	Codename string `yaml:"codename"`

	// WirelessPID is the wireless product ID.
	WirelessPID uint16 `yaml:"wirelessPid"`

	// Kind is the raw device kind byte.
	Kind uint8 `yaml:"kind"`

	// UnitID identifies the device unit, zero padded.
	UnitID [4]byte `yaml:"-"`

	// Legacy marks a device that only speaks HID++1.0. It rejects every
	// request with an INVALID_SUB_ID error.
	Legacy bool `yaml:"legacy"`

	// ProtocolVersion and TargetSoftware form the root ping reply.
	ProtocolVersion uint8 `yaml:"protocolVersion"`
	TargetSoftware  uint8 `yaml:"targetSoftware"`

	// Features lists the feature table entries after the two mandatory
	// ones (Root and FeatureSet).
	Features []FeatureProfile `yaml:"features"`

	// Battery configures the UnifiedBattery feature. The feature only
	// answers when 0x1004 appears in Features.
	Battery *BatteryProfile `yaml:"battery"`
}

// FeatureProfile is one feature table entry.
type FeatureProfile struct {
	ID      uint16 `yaml:"id"`
	Version uint8  `yaml:"version"`
	Hidden  bool   `yaml:"hidden"`
}

// BatteryProfile is the state the UnifiedBattery feature reports.
type BatteryProfile struct {
	// Percentage is the current charge in percent.
	Percentage uint8 `yaml:"percentage"`

	// Level is the approximate charge level bit (one of the four level
	// bits).
	Level uint8 `yaml:"level"`

	// Status is the raw charging status byte.
	Status uint8 `yaml:"status"`

	// Rechargeable and PercentageSupported fill the capability reply.
	Rechargeable        bool `yaml:"rechargeable"`
	PercentageSupported bool `yaml:"percentageSupported"`

	// ReportedLevels is the OR of all level bits the device reports.
	ReportedLevels uint8 `yaml:"reportedLevels"`
}

// LoadProfile parses a YAML profile.
func LoadProfile(r io.Reader) (Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("parsing profile: %w", err)
	}

	for i, dev := range profile.Devices {
		if dev.Index == 0 {
			return Profile{}, fmt.Errorf("device %d: pairing slots are 1 based", i)
		}
	}
	return profile, nil
}
