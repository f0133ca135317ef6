package demod

import (
	"math"

	"github.com/jrwynneiii/portarx/baseband"
)

// Tone correlator taps, applied at even offsets around the center sample.
const (
	fskTapOuter  = -3
	fskTapInner  = 19
	fskTapCenter = 32
)

// FSKDiscriminator compares energy in the upper and lower tone of a 2-FSK
// signal sampled at four samples per symbol-pair. Each group of four input
// samples yields two soft decisions, positive for the upper tone.
type FSKDiscriminator struct {
	z [10]baseband.ComplexS16
}

// Execute consumes len(src) (a multiple of 4) samples and writes len(src)/2
// soft symbols to dst.
func (d *FSKDiscriminator) Execute(src []baseband.ComplexS16, dst []float32) int {
	out := 0
	for k := 0; k+3 < len(src); k += 4 {
		copy(d.z[0:6], d.z[4:10])
		copy(d.z[6:10], src[k:k+4])
		z := &d.z

		i0 := int32(z[0].I)*fskTapOuter - int32(z[2].I)*fskTapInner + int32(z[4].I)*fskTapInner - int32(z[6].I)*fskTapOuter
		q0 := int32(z[0].Q)*fskTapOuter - int32(z[2].Q)*fskTapInner + int32(z[4].Q)*fskTapInner - int32(z[6].Q)*fskTapOuter
		i1 := -int32(z[2].I)*fskTapOuter + int32(z[4].I)*fskTapInner - int32(z[6].I)*fskTapInner + int32(z[8].I)*fskTapOuter
		q1 := -int32(z[2].Q)*fskTapOuter + int32(z[4].Q)*fskTapInner - int32(z[6].Q)*fskTapInner + int32(z[8].Q)*fskTapOuter

		dst[out] = toneDifference(i0, q0, z[3])
		dst[out+1] = -toneDifference(i1, q1, z[5])
		out += 2
	}
	return out
}

// toneDifference rotates the center sample by +-90 degrees to complete the
// upper and lower tone correlators and returns |upper| - |lower|.
func toneDifference(i, q int32, center baseband.ComplexS16) float32 {
	ci := int32(center.I) * fskTapCenter
	cq := int32(center.Q) * fskTapCenter
	hi, hq := (i-cq)/64, (q+ci)/64
	li, lq := (i+cq)/64, (q-ci)/64
	return magnitude(hi, hq) - magnitude(li, lq)
}

func magnitude(i, q int32) float32 {
	fi := float64(i)
	fq := float64(q)
	return float32(math.Sqrt(fi*fi + fq*fq))
}
