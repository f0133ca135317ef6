package demod

import (
	"math"

	"github.com/jrwynneiii/portarx/baseband"
)

// FMDemodulator is a quadrature discriminator: the phase step between
// consecutive samples, scaled so the design deviation maps to full scale.
type FMDemodulator struct {
	prev  baseband.ComplexS16
	scale float32
}

func NewFMDemodulator(sampleRate float32, deviation float32) *FMDemodulator {
	return &FMDemodulator{
		scale: sampleRate / (2 * math.Pi * deviation) * 32768,
	}
}

// Execute writes one int16 frequency sample per complex input and returns the count.
func (d *FMDemodulator) Execute(src []baseband.ComplexS16, dst []int16) int {
	for n, s := range src {
		// s * conj(prev)
		re := int64(s.I)*int64(d.prev.I) + int64(s.Q)*int64(d.prev.Q)
		im := int64(s.Q)*int64(d.prev.I) - int64(s.I)*int64(d.prev.Q)
		angle := float32(math.Atan2(float64(im), float64(re)))
		dst[n] = baseband.SaturateF32(angle * d.scale)
		d.prev = s
	}
	return len(src)
}

// AMDemodulate writes the magnitude of each sample to dst.
func AMDemodulate(src []baseband.ComplexS16, dst []float32) int {
	for n, s := range src {
		i := float64(s.I)
		q := float64(s.Q)
		dst[n] = float32(math.Sqrt(i*i + q*q))
	}
	return len(src)
}
