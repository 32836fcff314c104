package features

import (
	"context"

	"github.com/lus/hidpp-go/pkg/feature"
	"github.com/lus/hidpp-go/pkg/wire"
)

// IDUnifiedBattery is the UnifiedBattery feature ID.
const IDUnifiedBattery feature.ID = 0x1004

// UnifiedBattery function IDs.
const (
	fnBatteryCapabilities = 0
	fnBatteryStatus       = 1
)

// BatteryLevel is an approximate battery charge level. The values are the
// bits the capability bitfield uses, so a set of levels is a plain OR.
type BatteryLevel uint8

const (
	BatteryLevelCritical BatteryLevel = 1 << 0
	BatteryLevelLow      BatteryLevel = 1 << 1
	BatteryLevelGood     BatteryLevel = 1 << 2
	BatteryLevelFull     BatteryLevel = 1 << 3
)

// String returns the battery level name.
func (l BatteryLevel) String() string {
	switch l {
	case BatteryLevelCritical:
		return "CRITICAL"
	case BatteryLevelLow:
		return "LOW"
	case BatteryLevelGood:
		return "GOOD"
	case BatteryLevelFull:
		return "FULL"
	default:
		return "UNKNOWN"
	}
}

// BatteryStatus is the charging status of the battery.
type BatteryStatus uint8

const (
	BatteryDischarging  BatteryStatus = 0
	BatteryCharging     BatteryStatus = 1
	BatteryChargingSlow BatteryStatus = 2
	BatteryFull         BatteryStatus = 3
	BatteryError        BatteryStatus = 4
)

// String returns the battery status name.
func (s BatteryStatus) String() string {
	switch s {
	case BatteryDischarging:
		return "DISCHARGING"
	case BatteryCharging:
		return "CHARGING"
	case BatteryChargingSlow:
		return "CHARGING_SLOW"
	case BatteryFull:
		return "FULL"
	case BatteryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// BatteryCapabilities describes the feature and the battery itself.
type BatteryCapabilities struct {
	// ReportedLevels is the OR of all BatteryLevel values the device
	// reports.
	ReportedLevels BatteryLevel

	// Rechargeable reports whether the battery is rechargeable.
	Rechargeable bool

	// Percentage reports whether BatteryInfo.Percentage carries data.
	Percentage bool
}

// BatteryInfo is the current state of the battery. The device broadcasts it
// on every change and reports it on demand through Info.
type BatteryInfo struct {
	// Percentage is the current charge in percent, zero when the device
	// does not support percentage reporting.
	Percentage uint8

	// Level is the approximate charge level, limited to the levels in
	// BatteryCapabilities.ReportedLevels.
	Level BatteryLevel

	// Status is the charging status.
	Status BatteryStatus
}

// UnifiedBattery is the UnifiedBattery (0x1004) feature.
type UnifiedBattery struct {
	feature.Access
}

// NewUnifiedBattery builds the wrapper around a resolved feature.
func NewUnifiedBattery(acc feature.Access) *UnifiedBattery {
	return &UnifiedBattery{Access: acc}
}

// Capabilities retrieves the capabilities of the feature and the battery.
func (u *UnifiedBattery) Capabilities(ctx context.Context) (BatteryCapabilities, error) {
	resp, err := u.Call(ctx, fnBatteryCapabilities, nil)
	if err != nil {
		return BatteryCapabilities{}, err
	}

	payload := resp.ExtendPayload()
	return BatteryCapabilities{
		ReportedLevels: BatteryLevel(payload[0]) & (BatteryLevelCritical | BatteryLevelLow | BatteryLevelGood | BatteryLevelFull),
		Rechargeable:   payload[1]&(1<<0) != 0,
		Percentage:     payload[1]&(1<<1) != 0,
	}, nil
}

// Info retrieves the current battery state.
func (u *UnifiedBattery) Info(ctx context.Context) (BatteryInfo, error) {
	resp, err := u.Call(ctx, fnBatteryStatus, nil)
	if err != nil {
		return BatteryInfo{}, err
	}
	info, ok := decodeBatteryInfo(resp.ExtendPayload())
	if !ok {
		return BatteryInfo{}, ErrUnsupportedResponse
	}
	return info, nil
}

// Listen streams the device's battery state broadcasts.
func (u *UnifiedBattery) Listen() *Stream[BatteryInfo] {
	return newStream(u.Subscribe(), func(msg wire.Message) (BatteryInfo, bool) {
		if msg.Function() != 0 {
			return BatteryInfo{}, false
		}
		return decodeBatteryInfo(msg.ExtendPayload())
	})
}

func decodeBatteryInfo(payload [wire.LongParamLength]byte) (BatteryInfo, bool) {
	level := BatteryLevel(payload[1])
	switch level {
	case BatteryLevelCritical, BatteryLevelLow, BatteryLevelGood, BatteryLevelFull:
	default:
		return BatteryInfo{}, false
	}
	status := BatteryStatus(payload[2])
	if status > BatteryError {
		return BatteryInfo{}, false
	}

	return BatteryInfo{
		Percentage: payload[0],
		Level:      level,
		Status:     status,
	}, true
}
