package wire

import "fmt"

// DecodeBCD8 converts a packed-BCD byte (two decimal digits) to its numeric
// value. Firmware versions in DeviceInformation replies use this encoding.
func DecodeBCD8(bcd uint8) (uint8, error) {
	hi := U4FromHi(bcd).Lo()
	lo := U4FromLo(bcd).Lo()
	if hi > 9 || lo > 9 {
		return 0, fmt.Errorf("invalid packed BCD byte %#02x", bcd)
	}
	return hi*10 + lo, nil
}

// DecodeBCD16 converts a packed-BCD word (four decimal digits) to its
// numeric value.
func DecodeBCD16(bcd uint16) (uint16, error) {
	hi, err := DecodeBCD8(uint8(bcd >> 8))
	if err != nil {
		return 0, err
	}
	lo, err := DecodeBCD8(uint8(bcd & 0xff))
	if err != nil {
		return 0, err
	}
	return uint16(hi)*100 + uint16(lo), nil
}
