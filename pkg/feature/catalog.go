package feature

// catalog maps feature IDs to the names found in Logitech's documentation,
// lightly normalized.
var catalog = map[ID]string{
	0x0000: "Root",
	0x0001: "FeatureSet",
	0x0002: "FeatureInfo",
	0x0003: "DeviceInformation",
	0x0004: "UnitId",
	0x0005: "DeviceTypeAndName",
	0x0006: "DeviceGroups",
	0x0007: "DeviceFriendlyName",
	0x0008: "KeepAlive",
	0x0020: "ConfigChange",
	0x0021: "UniqueRandomId",
	0x0030: "TargetSoftware",
	0x0080: "WirelessSignalStrength",
	0x00c0: "DfuControlLegacy",
	0x00c1: "DfuControlUnsigned",
	0x00c2: "DfuControlSigned",
	0x00c3: "DfuControl",
	0x00d0: "Dfu",
	0x1000: "BatteryStatus",
	0x1001: "BatteryVoltage",
	0x1004: "UnifiedBattery",
	0x1010: "ChargingControl",
	0x1300: "LedControl",
	0x1800: "GenericTest",
	0x1802: "DeviceReset",
	0x1805: "OobState",
	0x1806: "ConfigDeviceProps",
	0x1814: "ChangeHost",
	0x1815: "HostsInfo",
	0x1981: "Backlight1",
	0x1982: "Backlight2",
	0x1983: "Backlight3",
	0x1990: "Illumination",
	0x1a00: "PresenterControl",
	0x1a01: "Sensor3D",
	0x1b00: "ReprogControls",
	0x1b01: "ReprogControls2",
	0x1b02: "ReprogControls3",
	0x1b03: "ReprogControls4",
	0x1b04: "ReprogControls5",
	0x1bc0: "ReportHidUsages",
	0x1c00: "PersistentRemappableAction",
	0x1d4b: "WirelessDeviceStatus",
	0x1df0: "RemainingPairings",
	0x1f1f: "FirmwareProperties",
	0x1f20: "AdcMeasurement",
	0x2001: "SwapLeftRightButton",
	0x2005: "ButtonSwapCancel",
	0x2006: "PointerAxesOrientation",
	0x2100: "VerticalScrolling",
	0x2110: "SmartShiftWheel",
	0x2111: "SmartShiftWheelEnhanced",
	0x2120: "HighResolutionScrolling",
	0x2121: "HiResWheel",
	0x2130: "RatchetWheel",
	0x2150: "Thumbwheel",
	0x2200: "MousePointer",
	0x2201: "AdjustableDpi",
	0x2202: "ExtendedAdjustableDpi",
	0x2205: "PointerMotionScaling",
	0x2230: "SensorAngleSnapping",
	0x2240: "SurfaceTuning",
	0x2250: "XyStats",
	0x2251: "WheelStats",
	0x2400: "HybridTrackingEngine",
	0x40a0: "FnInversion",
	0x40a2: "FnInversionWithDefaultState",
	0x40a3: "FnInversionForMultiHostDevices",
	0x4100: "Encryption",
	0x4220: "LockKeyState",
	0x4301: "SolarKeyboardDashboard",
	0x4520: "KeyboardLayout",
	0x4521: "DisableKeys",
	0x4522: "DisableKeysByUsage",
	0x4530: "DualPlatform",
	0x4531: "MultiPlatform",
	0x4540: "KeyboardInternationalLayouts",
	0x4600: "Crown",
	0x6010: "TouchpadFwItems",
	0x6011: "TouchpadSwItems",
	0x6012: "TouchpadWin8FwItems",
	0x6020: "TapEnable",
	0x6021: "TapEnableExtended",
	0x6030: "CursorBallistic",
	0x6040: "TouchpadResolutionDivider",
	0x6100: "TouchpadRawXy",
	0x6110: "TouchMouseRawTouchPoints",
	0x6120: "BtTouchMouseSettings",
	0x6500: "Gestures1",
	0x6501: "Gestures2",
	0x8010: "GamingGKeys",
	0x8020: "GamingMKeys",
	0x8030: "MacroRecord",
	0x8040: "BrightnessControl",
	0x8060: "AdjustableReportRate",
	0x8061: "ExtendedAdjustableReportRate",
	0x8070: "ColorLedEffects",
	0x8071: "RgbEffects",
	0x8080: "PerKeyLighting",
	0x8081: "PerKeyLighting2",
	0x8090: "ModeStatus",
	0x8100: "OnboardProfiles",
	0x8110: "MouseButtonFilter",
	0x8111: "LatencyMonitoring",
	0x8120: "GamingAttachments",
	0x8123: "ForceFeedback",
	0x8300: "Sidetone",
	0x8310: "Equalizer",
	0x8320: "HeadsetOut",
}

// Name returns the documented name of a feature ID. ok is false for IDs not
// in the catalog.
func Name(id ID) (string, bool) {
	name, ok := catalog[id]
	return name, ok
}

// Names returns a copy of the catalog, keyed by feature ID.
func Names() map[ID]string {
	names := make(map[ID]string, len(catalog))
	for id, name := range catalog {
		names[id] = name
	}
	return names
}
