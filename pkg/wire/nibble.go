package wire

// U4 is an unsigned 4-bit value (nibble) stored in a byte.
// Constructors mask their input, so a U4 is always in range 0-15.
type U4 uint8

// U4FromLo builds a nibble from the 4 low bits of a byte.
func U4FromLo(raw uint8) U4 {
	return U4(raw & 0x0f)
}

// U4FromHi builds a nibble from the 4 high bits of a byte.
func U4FromHi(raw uint8) U4 {
	return U4(raw >> 4)
}

// Lo returns a byte with the nibble in the 4 low bits.
func (n U4) Lo() uint8 {
	return uint8(n) & 0x0f
}

// Hi returns a byte with the nibble in the 4 high bits.
func (n U4) Hi() uint8 {
	return (uint8(n) & 0x0f) << 4
}

// CombineNibbles packs two nibbles into one byte, hi in the 4 high bits and
// lo in the 4 low bits.
func CombineNibbles(hi, lo U4) uint8 {
	return hi.Hi() | lo.Lo()
}
