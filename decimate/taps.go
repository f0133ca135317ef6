package decimate

import (
	"math"

	"github.com/racerxdl/segdsp/dsp"
	"gonum.org/v1/gonum/floats"
)

// TapsLowPass156_198 is a 64 tap audio low pass for 96kHz in: <15kHz
// (0.156fs) pass, >19kHz (0.198fs) stop. Taps sum to ~2^16, so run it
// with a shift of 16 for unity gain.
var TapsLowPass156_198 = []int16{
	-27, 166, 104, -36, -174, -129, 109, 287,
	148, -232, -430, -130, 427, 597, 49, -716,
	-778, 137, 1131, 957, -493, -1740, -1121, 1167,
	2733, 1252, -2633, -4899, -1336, 8210, 18660, 23254,
	18660, 8210, -1336, -4899, -2633, 1252, 2733, 1167,
	-1121, -1740, -493, 957, 1131, 137, -778, -716,
	49, 597, 427, -130, -430, -232, 148, 287,
	109, -129, -174, -36, 104, 166, -27, 0,
}

// TapsShift is the shift that gives DesignLowPass taps unity DC gain.
const TapsShift = 15

// DesignLowPass builds a windowed-sinc low pass with segdsp and quantizes it
// to Q15 with a DC gain of exactly one.
func DesignLowPass(sampleRate, cutoff, transitionWidth float64) []int16 {
	return quantizeTaps(dsp.MakeLowPass(1, sampleRate, cutoff, transitionWidth))
}

func quantizeTaps(taps []float32) []int16 {
	f := make([]float64, len(taps))
	for i, t := range taps {
		f[i] = float64(t)
	}
	floats.Scale(float64(int(1)<<TapsShift)/floats.Sum(f), f)

	q := make([]int16, len(f))
	for i, v := range f {
		q[i] = int16(max(math.MinInt16, min(math.MaxInt16, math.Round(v))))
	}
	return q
}
