package hidpp_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lus/hidpp-go/internal/devsim"
	"github.com/lus/hidpp-go/pkg/channel"
	"github.com/lus/hidpp-go/pkg/device"
	"github.com/lus/hidpp-go/pkg/feature"
	"github.com/lus/hidpp-go/pkg/features"
	"github.com/lus/hidpp-go/pkg/log"
	"github.com/lus/hidpp-go/pkg/receiver"
)

func e2eProfile() devsim.Profile {
	return devsim.Profile{
		VendorID:  0x046d,
		ProductID: 0xc548,
		UniqueID:  "0123456789abcdef",
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
					{ID: 0x1d4b, Version: 0},
				},
				Battery: &devsim.BatteryProfile{
					Percentage:          55,
					Level:               uint8(features.BatteryLevelGood),
					Status:              uint8(features.BatteryDischarging),
					Rechargeable:        true,
					PercentageSupported: true,
					ReportedLevels:      0x0f,
				},
			},
			{
				Index:           2,
				Codename:        "Plank",
				WirelessPID:     0x4099,
				Kind:            1,
				ProtocolVersion: 4,
				TargetSoftware:  5,
				Features: []devsim.FeatureProfile{
					{ID: 0x1004, Version: 2},
				},
				Battery: &devsim.BatteryProfile{
					Percentage:     100,
					Level:          uint8(features.BatteryLevelFull),
					Status:         uint8(features.BatteryFull),
					Rechargeable:   false,
					ReportedLevels: 0x0f,
				},
			},
			{
				Index:       3,
				Codename:    "Relic",
				WirelessPID: 0x1017,
				Kind:        2,
				Legacy:      true,
			},
		},
	}
}

// TestE2E_ReceiverScenario walks the full stack: establish a channel over
// the simulated receiver, trigger a device arrival, initialize the announced
// devices, enumerate their features and read the battery through the typed
// wrapper, with a protocol capture running on the side.
func TestE2E_ReceiverScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	capturePath := filepath.Join(t.TempDir(), "capture.hlog")
	fileLogger, err := log.NewFileLogger(capturePath)
	if err != nil {
		t.Fatalf("Failed to create capture logger: %v", err)
	}

	sim := devsim.New(e2eProfile())
	config := channel.DefaultConfig()
	config.Logger = fileLogger

	ch, err := channel.Establish(ctx, sim, config)
	if err != nil {
		t.Fatalf("Failed to establish channel: %v", err)
	}
	defer ch.Close()

	bolt, err := receiver.Detect(ch)
	if err != nil {
		t.Fatalf("Failed to detect receiver: %v", err)
	}

	if id, err := bolt.UniqueID(ctx); err != nil || id != "0123456789abcdef" {
		t.Fatalf("Unexpected unique ID %q (err: %v)", id, err)
	}

	count, err := bolt.CountPairings(ctx)
	if err != nil {
		t.Fatalf("Failed to count pairings: %v", err)
	}
	if count != 3 {
		t.Fatalf("Got %d pairings, want 3", count)
	}

	// Arrival burst: one connection notification per paired device.
	listener := bolt.Listen()
	defer listener.Close()

	if err := bolt.TriggerDeviceArrival(ctx); err != nil {
		t.Fatalf("Failed to trigger device arrival: %v", err)
	}

	announced := make([]receiver.DeviceConnection, 0, 3)
	for len(announced) < 3 {
		select {
		case conn := <-listener.Connections():
			announced = append(announced, conn)
		case <-ctx.Done():
			t.Fatalf("Timed out after %d connection notifications", len(announced))
		}
	}

	// Initialize every announced device. The legacy device exists but
	// cannot be driven through the capability framework.
	devices := make(map[uint8]*device.Device)
	for _, conn := range announced {
		dev, err := device.Initialize(ctx, ch, conn.DeviceIndex, device.DefaultConfig())
		if errors.Is(err, device.ErrUnsupportedProtocol) {
			if conn.DeviceIndex != 3 {
				t.Errorf("Device %d unexpectedly rejected as HID++1.0", conn.DeviceIndex)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Failed to initialize device %d: %v", conn.DeviceIndex, err)
		}
		devices[conn.DeviceIndex] = dev
	}
	if len(devices) != 2 {
		t.Fatalf("Initialized %d devices, want 2", len(devices))
	}

	// Enumerate the first device's table.
	infos, err := devices[1].EnumerateFeatures(ctx)
	if err != nil {
		t.Fatalf("Failed to enumerate features: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("Got %d features, want 3", len(infos))
	}
	for _, info := range infos {
		if _, ok := feature.Name(info.ID); !ok && info.ID != feature.IDFeatureSet {
			t.Errorf("Feature %#04x has no catalog name", uint16(info.ID))
		}
	}

	// Typed access plus a battery broadcast.
	battery, ok, err := device.Get[*features.UnifiedBattery](ctx, devices[1], features.IDUnifiedBattery)
	if err != nil || !ok {
		t.Fatalf("Failed to resolve battery feature: ok=%v err=%v", ok, err)
	}

	info, err := battery.Info(ctx)
	if err != nil {
		t.Fatalf("Failed to read battery info: %v", err)
	}
	if info.Percentage != 55 || info.Level != features.BatteryLevelGood {
		t.Errorf("Unexpected battery info: %+v", info)
	}

	stream := battery.Listen()
	defer stream.Close()

	err = sim.Emit(1, 0x1004, 0, []byte{20, uint8(features.BatteryLevelLow), uint8(features.BatteryDischarging)})
	if err != nil {
		t.Fatalf("Failed to emit battery broadcast: %v", err)
	}

	select {
	case update := <-stream.Events():
		if update.Percentage != 20 || update.Level != features.BatteryLevelLow {
			t.Errorf("Unexpected battery broadcast: %+v", update)
		}
	case <-ctx.Done():
		t.Fatal("Timed out waiting for the battery broadcast")
	}

	// The second device stays independent: its battery differs.
	battery2, ok, err := device.Get[*features.UnifiedBattery](ctx, devices[2], features.IDUnifiedBattery)
	if err != nil || !ok {
		t.Fatalf("Failed to resolve second battery feature: ok=%v err=%v", ok, err)
	}
	info2, err := battery2.Info(ctx)
	if err != nil {
		t.Fatalf("Failed to read second battery info: %v", err)
	}
	if info2.Percentage != 100 || info2.Status != features.BatteryFull {
		t.Errorf("Unexpected second battery info: %+v", info2)
	}

	// The capture must be a readable .hlog with traffic in both directions.
	ch.Close()
	if err := fileLogger.Close(); err != nil {
		t.Fatalf("Failed to close capture logger: %v", err)
	}

	reader, err := log.NewReader(capturePath)
	if err != nil {
		t.Fatalf("Failed to open capture: %v", err)
	}
	defer reader.Close()

	directions := make(map[log.Direction]int)
	for {
		event, err := reader.Next()
		if err != nil {
			break
		}
		directions[event.Direction]++
	}
	if directions[log.DirectionIn] == 0 || directions[log.DirectionOut] == 0 {
		t.Errorf("Capture misses a direction: %v", directions)
	}
}

// TestE2E_ChannelTeardown verifies that closing the transport mid-session
// fails pending work and terminates streams.
func TestE2E_ChannelTeardown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sim := devsim.New(e2eProfile())
	ch, err := channel.Establish(ctx, sim, channel.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to establish channel: %v", err)
	}

	bolt, err := receiver.Detect(ch)
	if err != nil {
		t.Fatalf("Failed to detect receiver: %v", err)
	}
	listener := bolt.Listen()

	sim.Close()

	select {
	case _, ok := <-listener.Connections():
		if ok {
			t.Error("Expected the connection stream to close")
		}
	case <-ctx.Done():
		t.Fatal("Timed out waiting for the stream to close")
	}

	if ch.State() != channel.StateClosed {
		t.Errorf("Channel state is %v, want CLOSED", ch.State())
	}
}
