package decimate

import (
	"testing"

	"github.com/jrwynneiii/portarx/baseband"
	"github.com/stretchr/testify/assert"
)

func tone(n int, amplitude int8, positive bool) []baseband.ComplexS8 {
	// e^(+-j*pi*n/2) only takes the values 1, +-j, -1, -+j.
	seq := []baseband.ComplexS8{{I: amplitude, Q: 0}, {I: 0, Q: amplitude}, {I: -amplitude, Q: 0}, {I: 0, Q: -amplitude}}
	if !positive {
		seq[1], seq[3] = seq[3], seq[1]
	}
	out := make([]baseband.ComplexS8, n)
	for i := range out {
		out[i] = seq[i%4]
	}
	return out
}

func TestTranslateFs4CIC3_PositiveQuarterRateToDC(t *testing.T) {
	var d TranslateFs4CIC3
	dst := make([]baseband.ComplexS16, 32)

	n := d.Execute(tone(64, 100, true), dst, 0)

	assert.Equal(t, 32, n)
	assert.Equal(t, baseband.ComplexS16{I: 400, Q: 0}, dst[0])
	for _, s := range dst[1:] {
		assert.Equal(t, baseband.ComplexS16{I: 800, Q: 0}, s)
	}
}

func TestTranslateFs4CIC3_NegativeQuarterRateRejected(t *testing.T) {
	var d TranslateFs4CIC3
	dst := make([]baseband.ComplexS16, 32)

	d.Execute(tone(64, 100, false), dst, 0)

	assert.Equal(t, baseband.ComplexS16{I: 200, Q: 0}, dst[0])
	for _, s := range dst[1:] {
		assert.Equal(t, baseband.ComplexS16{}, s)
	}
}

func TestTranslateFs4CIC3_StateSpansBlocks(t *testing.T) {
	in := make([]baseband.ComplexS8, 256)
	for i := range in {
		in[i] = baseband.ComplexS8{I: int8(i*7 - 100), Q: int8(50 - i*3)}
	}

	var whole, split TranslateFs4CIC3
	want := make([]baseband.ComplexS16, 128)
	whole.Execute(in, want, 1)

	got := make([]baseband.ComplexS16, 128)
	split.Execute(in[:128], got[:64], 1)
	split.Execute(in[128:], got[64:], 1)

	assert.Equal(t, want, got)
}

func TestCIC3Decim2_GainAndShift(t *testing.T) {
	var d CIC3Decim2
	buf := make([]baseband.ComplexS16, 16)
	for i := range buf {
		buf[i] = baseband.ComplexS16{I: 1000, Q: -1000}
	}

	// In place, with the stage gain of 8 removed.
	n := d.Execute(buf, buf, 3)

	assert.Equal(t, 8, n)
	assert.Equal(t, baseband.ComplexS16{I: 500, Q: -500}, buf[0])
	for _, s := range buf[1:n] {
		assert.Equal(t, baseband.ComplexS16{I: 1000, Q: -1000}, s)
	}
}

func TestCIC3Decim2_Saturates(t *testing.T) {
	var d CIC3Decim2
	buf := make([]baseband.ComplexS16, 8)
	for i := range buf {
		buf[i] = baseband.ComplexS16{I: 30000, Q: -30000}
	}
	d.Execute(buf, buf, 0)

	assert.Equal(t, int16(32767), buf[3].I)
	assert.Equal(t, int16(-32768), buf[3].Q)
}

func TestCIC4Decim2Real(t *testing.T) {
	var d CIC4Decim2Real
	buf := []int16{100, 100, 100, 100, 100, 100, 100, 100}

	n := d.Execute(buf, buf, 4)

	assert.Equal(t, 4, n)
	// The first two outputs still see zeroed history.
	assert.Equal(t, []int16{31, 93, 100, 100}, buf[:n])
}
