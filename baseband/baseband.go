package baseband

import "math"

// BlockSize is the number of complex samples delivered per completed buffer.
const BlockSize = 2048

type ComplexS8 struct {
	I int8
	Q int8
}

type ComplexS16 struct {
	I int16
	Q int16
}

// SaturateS16 clamps v into the int16 range.
func SaturateS16(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// SaturateF32 rounds v to the nearest integer and clamps it into the int16 range.
func SaturateF32(v float32) int16 {
	if v >= math.MaxInt16 {
		return math.MaxInt16
	}
	if v <= math.MinInt16 {
		return math.MinInt16
	}
	return int16(math.Round(float64(v)))
}

// FromInterleaved fills dst from interleaved signed 8 bit I/Q bytes and
// returns the number of complex samples written.
func FromInterleaved(dst []ComplexS8, raw []byte) int {
	n := min(len(dst), len(raw)/2)
	for i := 0; i < n; i++ {
		dst[i].I = int8(raw[2*i])
		dst[i].Q = int8(raw[2*i+1])
	}
	return n
}

// FromInterleavedS8 is FromInterleaved for buffers that are already typed as int8,
// which is how SoapySDR hands out CS8 streams.
func FromInterleavedS8(dst []ComplexS8, raw []int8) int {
	n := min(len(dst), len(raw)/2)
	for i := 0; i < n; i++ {
		dst[i].I = raw[2*i]
		dst[i].Q = raw[2*i+1]
	}
	return n
}

// AudioBlockSize is the number of mono audio samples each block produces
// at the 48kHz audio rate.
const AudioBlockSize = 32
