package decimate

import "github.com/jrwynneiii/portarx/baseband"

// TranslateFs4CIC3 shifts the spectrum down by a quarter of the sample rate
// and then decimates by two with a 3rd order CIC (taps 1,3,3,1, gain 8).
// The shift multiplies by the repeating sequence 1, -j, -1, +j, which only
// swaps and negates I and Q, so a signal sitting at +fs/4 lands on DC.
type TranslateFs4CIC3 struct {
	z0 complexS32
	z1 complexS32
}

type complexS32 struct {
	i int32
	q int32
}

// Execute decimates src into dst and returns the number of outputs (len(src)/2).
// len(src) is expected to be a multiple of 4; a trailing remainder is dropped.
// Each output is right shifted by shift before saturating to int16.
func (d *TranslateFs4CIC3) Execute(src []baseband.ComplexS8, dst []baseband.ComplexS16, shift uint) int {
	n := len(src) / 4 * 4
	out := 0
	for k := 0; k < n; k += 4 {
		// x * 1, x * -j, x * -1, x * +j
		a := complexS32{int32(src[k].I), int32(src[k].Q)}
		b := complexS32{int32(src[k+1].Q), -int32(src[k+1].I)}
		c := complexS32{-int32(src[k+2].I), -int32(src[k+2].Q)}
		e := complexS32{-int32(src[k+3].Q), int32(src[k+3].I)}

		dst[out] = cic3(d.z0, d.z1, a, b, shift)
		dst[out+1] = cic3(a, b, c, e, shift)
		d.z0, d.z1 = c, e
		out += 2
	}
	return out
}

func cic3(z0, z1, a, b complexS32, shift uint) baseband.ComplexS16 {
	return baseband.ComplexS16{
		I: baseband.SaturateS16((z0.i + 3*z1.i + 3*a.i + b.i) >> shift),
		Q: baseband.SaturateS16((z0.q + 3*z1.q + 3*a.q + b.q) >> shift),
	}
}

// CIC3Decim2 is a complex 3rd order CIC decimate-by-2 with a gain of 8.
// dst may be the same slice as src.
type CIC3Decim2 struct {
	z0 complexS32
	z1 complexS32
}

func (d *CIC3Decim2) Execute(src []baseband.ComplexS16, dst []baseband.ComplexS16, shift uint) int {
	n := len(src) / 2
	for k := 0; k < n; k++ {
		a := complexS32{int32(src[2*k].I), int32(src[2*k].Q)}
		b := complexS32{int32(src[2*k+1].I), int32(src[2*k+1].Q)}
		dst[k] = cic3(d.z0, d.z1, a, b, shift)
		d.z0, d.z1 = a, b
	}
	return n
}

// CIC4Decim2Real is a real 4th order CIC decimate-by-2 (taps 1,4,6,4,1, gain 16).
// dst may be the same slice as src.
type CIC4Decim2Real struct {
	z0 int32
	z1 int32
	z2 int32
}

func (d *CIC4Decim2Real) Execute(src []int16, dst []int16, shift uint) int {
	n := len(src) / 2
	for k := 0; k < n; k++ {
		a := int32(src[2*k])
		b := int32(src[2*k+1])
		dst[k] = baseband.SaturateS16((d.z0 + 4*d.z1 + 6*d.z2 + 4*a + b) >> shift)
		d.z0, d.z1, d.z2 = d.z2, a, b
	}
	return n
}
