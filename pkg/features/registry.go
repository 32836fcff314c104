package features

import "github.com/lus/hidpp-go/pkg/feature"

// DefaultRegistry builds a registry with all wrappers this package ships.
func DefaultRegistry() *feature.Registry {
	return feature.NewRegistry(map[feature.ID]feature.Constructor{
		IDDeviceInformation: func(acc feature.Access) feature.Feature {
			return NewDeviceInformation(acc)
		},
		IDDeviceTypeAndName: func(acc feature.Access) feature.Feature {
			return NewDeviceTypeAndName(acc)
		},
		IDDeviceFriendlyName: func(acc feature.Access) feature.Feature {
			return NewDeviceFriendlyName(acc)
		},
		IDUnifiedBattery: func(acc feature.Access) feature.Feature {
			return NewUnifiedBattery(acc)
		},
		IDWirelessDeviceStatus: func(acc feature.Access) feature.Feature {
			return NewWirelessDeviceStatus(acc)
		},
		IDSmartShift: func(acc feature.Access) feature.Feature {
			return NewSmartShift(acc)
		},
		IDHiResWheel: func(acc feature.Access) feature.Feature {
			return NewHiResWheel(acc)
		},
		IDThumbwheel: func(acc feature.Access) feature.Feature {
			return NewThumbwheel(acc)
		},
	})
}
