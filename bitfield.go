package xmaskit

// States decodes a command byte, bit i becomes pin i.
func States(b byte) (states [NumPins]bool) {
	for i := range states {
		states[i] = b&(1<<i) != 0
	}
	return
}

// Bitfield encodes pin states into a command byte.
func Bitfield(states [NumPins]bool) (b byte) {
	for i := NumPins - 1; i >= 0; i-- {
		b <<= 1
		if states[i] {
			b |= 1
		}
	}
	return
}
