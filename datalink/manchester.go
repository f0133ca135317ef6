package datalink

// ManchesterDecode decodes outBits dibits from in into out, flagging invalid
// dibits (00 and 11) in errors. A dibit of 01 is a one, 10 is a zero. Every
// array is addressed MSB-first. On an invalid dibit the value bit in out is
// not touched.
func ManchesterDecode(in []byte, out []byte, errors []byte, outBits int) {
	for n := 0; n < outBits; n++ {
		symbol := (in[n>>2] >> (((n & 3) ^ 3) << 1)) & 3
		index := n >> 3
		mask := byte(1) << ((n & 7) ^ 7)

		switch symbol {
		case 0b01:
			out[index] |= mask
			errors[index] &^= mask
		case 0b10:
			out[index] &^= mask
			errors[index] &^= mask
		default:
			errors[index] |= mask
		}
	}
}

// ManchesterEncode is the inverse of ManchesterDecode for valid data: each of
// the first bitCount bits of in becomes a dibit in out.
func ManchesterEncode(in []byte, out []byte, bitCount int) {
	for n := 0; n < bitCount; n++ {
		symbol := byte(0b10)
		if (in[n>>3]>>((n&7)^7))&1 != 0 {
			symbol = 0b01
		}
		shift := ((n & 3) ^ 3) << 1
		out[n>>2] = out[n>>2]&^(3<<shift) | symbol<<shift
	}
}
