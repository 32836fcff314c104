package device_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lus/hidpp-go/internal/devsim"
	"github.com/lus/hidpp-go/pkg/channel"
	"github.com/lus/hidpp-go/pkg/device"
	"github.com/lus/hidpp-go/pkg/feature"
	"github.com/lus/hidpp-go/pkg/features"
)

func testProfile() devsim.Profile {
	return devsim.Profile{
		VendorID:  0x046d,
		ProductID: 0xc548,
		Devices: []devsim.DeviceProfile{
			{
				Index:           1,
				Codename:        "Klaw",
				WirelessPID:     0x4d2b,
				Kind:            2,
				ProtocolVersion: 4,
				TargetSoftware:  5,
				Features: []devsim.FeatureProfile{
					{ID: 0x1004, Version: 3},
					{ID: 0x0005, Version: 1},
				},
				Battery: &devsim.BatteryProfile{
					Percentage:          80,
					Level:               1 << 2,
					Status:              0,
					Rechargeable:        true,
					PercentageSupported: true,
					ReportedLevels:      0x0f,
				},
			},
			{
				Index:       2,
				Codename:    "OldBoard",
				WirelessPID: 0x1234,
				Kind:        1,
				Legacy:      true,
			},
		},
	}
}

func establish(t *testing.T) *channel.Channel {
	t.Helper()

	sim := devsim.New(testProfile())
	ch, err := channel.Establish(context.Background(), sim, channel.DefaultConfig())
	if err != nil {
		t.Fatalf("establishing channel: %v", err)
	}
	t.Cleanup(func() { ch.Close() })
	return ch
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestInitialize(t *testing.T) {
	t.Run("Responding", func(t *testing.T) {
		ch := establish(t)

		dev, err := device.Initialize(testCtx(t), ch, 1, device.DefaultConfig())
		if err != nil {
			t.Fatalf("initializing device: %v", err)
		}
		if dev.Index() != 1 {
			t.Errorf("got index %d, want 1", dev.Index())
		}
		version := dev.ProtocolVersion()
		if version.Number != 4 || version.TargetSoftware != 5 {
			t.Errorf("unexpected protocol version: %+v", version)
		}
	})

	t.Run("LegacyDevice", func(t *testing.T) {
		ch := establish(t)

		_, err := device.Initialize(testCtx(t), ch, 2, device.DefaultConfig())
		if !errors.Is(err, device.ErrUnsupportedProtocol) {
			t.Fatalf("got %v, want ErrUnsupportedProtocol", err)
		}
	})

	t.Run("UnknownIndex", func(t *testing.T) {
		ch := establish(t)

		_, err := device.Initialize(testCtx(t), ch, 5, device.DefaultConfig())
		if !errors.Is(err, device.ErrDeviceNotResponding) {
			t.Fatalf("got %v, want ErrDeviceNotResponding", err)
		}
	})
}

func TestEnumerateFeatures(t *testing.T) {
	ch := establish(t)

	dev, err := device.Initialize(testCtx(t), ch, 1, device.DefaultConfig())
	if err != nil {
		t.Fatalf("initializing device: %v", err)
	}

	infos, err := dev.EnumerateFeatures(testCtx(t))
	if err != nil {
		t.Fatalf("enumerating features: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("got %d features, want 3", len(infos))
	}
	if infos[0].ID != feature.IDFeatureSet {
		t.Errorf("first entry is %#04x, want FeatureSet", uint16(infos[0].ID))
	}
	if infos[1].ID != 0x1004 || infos[1].Index != 2 {
		t.Errorf("unexpected second entry: %+v", infos[1])
	}
}

func TestFeature(t *testing.T) {
	ch := establish(t)

	dev, err := device.Initialize(testCtx(t), ch, 1, device.DefaultConfig())
	if err != nil {
		t.Fatalf("initializing device: %v", err)
	}

	t.Run("ConstructedOnce", func(t *testing.T) {
		first, ok, err := dev.Feature(testCtx(t), 0x1004)
		if err != nil || !ok {
			t.Fatalf("resolving feature: ok=%v err=%v", ok, err)
		}
		second, ok, err := dev.Feature(testCtx(t), 0x1004)
		if err != nil || !ok {
			t.Fatalf("resolving feature again: ok=%v err=%v", ok, err)
		}
		if first != second {
			t.Error("second lookup built a new wrapper")
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, ok, err := dev.Feature(testCtx(t), 0x2150)
		if err != nil {
			t.Fatalf("resolving feature: %v", err)
		}
		if ok {
			t.Error("unsupported feature resolved")
		}
	})

	t.Run("Unregistered", func(t *testing.T) {
		// 0x0005 is on the device but absent from an empty registry.
		empty, err := device.Initialize(testCtx(t), ch, 1, device.Config{
			Registry: feature.NewRegistry(nil),
		})
		if err != nil {
			t.Fatalf("initializing device: %v", err)
		}
		_, ok, err := empty.Feature(testCtx(t), 0x0005)
		if err != nil {
			t.Fatalf("resolving feature: %v", err)
		}
		if ok {
			t.Error("unregistered feature resolved")
		}
	})
}

func TestGet(t *testing.T) {
	ch := establish(t)

	dev, err := device.Initialize(testCtx(t), ch, 1, device.DefaultConfig())
	if err != nil {
		t.Fatalf("initializing device: %v", err)
	}

	battery, ok, err := device.Get[*features.UnifiedBattery](testCtx(t), dev, features.IDUnifiedBattery)
	if err != nil || !ok {
		t.Fatalf("resolving battery: ok=%v err=%v", ok, err)
	}

	caps, err := battery.Capabilities(testCtx(t))
	if err != nil {
		t.Fatalf("reading capabilities: %v", err)
	}
	if !caps.Rechargeable || !caps.Percentage {
		t.Errorf("unexpected capabilities: %+v", caps)
	}

	// Asking for the wrong concrete type is absence, not an error.
	_, ok, err = device.Get[*features.SmartShift](testCtx(t), dev, features.IDUnifiedBattery)
	if err != nil {
		t.Fatalf("resolving with wrong type: %v", err)
	}
	if ok {
		t.Error("type assertion unexpectedly succeeded")
	}
}
