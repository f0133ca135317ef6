package demod

import (
	"math"
	"testing"

	"github.com/jrwynneiii/portarx/baseband"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rotating(n int, amplitude float64, step float64) []baseband.ComplexS16 {
	out := make([]baseband.ComplexS16, n)
	for i := range out {
		out[i] = baseband.ComplexS16{
			I: int16(math.Round(amplitude * math.Cos(step*float64(i)))),
			Q: int16(math.Round(amplitude * math.Sin(step*float64(i)))),
		}
	}
	return out
}

func TestFMDemodulator_Deviation(t *testing.T) {
	// An eighth of the sample rate against a deviation of a quarter of it is half scale.
	d := NewFMDemodulator(48000, 12000)
	dst := make([]int16, 64)

	d.Execute(rotating(64, 8000, math.Pi/4), dst)
	for _, v := range dst[1:] {
		assert.InDelta(t, 16384, v, 100)
	}

	d = NewFMDemodulator(48000, 12000)
	d.Execute(rotating(64, 8000, -math.Pi/4), dst)
	for _, v := range dst[1:] {
		assert.InDelta(t, -16384, v, 100)
	}
}

func TestFMDemodulator_SaturatesAndKeepsState(t *testing.T) {
	d := NewFMDemodulator(48000, 1000)
	in := rotating(16, 8000, math.Pi/4)
	dst := make([]int16, 8)

	d.Execute(in[:8], dst)
	d.Execute(in[8:], dst)

	// Block boundary does not reset the previous sample.
	assert.Equal(t, int16(math.MaxInt16), dst[0])
}

func TestAMDemodulate(t *testing.T) {
	dst := make([]float32, 2)
	n := AMDemodulate([]baseband.ComplexS16{{I: 3, Q: 4}, {I: -600, Q: 800}}, dst)

	assert.Equal(t, 2, n)
	assert.Equal(t, []float32{5, 1000}, dst)
}

func TestEnvelope_ConvergesFromAnyStart(t *testing.T) {
	for _, start := range []float32{0, 0.01, 10} {
		e := NewEnvelope(0.08, 0.01)
		e.SetLevel(start)

		var out float32
		for i := 0; i < 5000; i++ {
			out = e.Execute(0.5)
		}
		assert.InDelta(t, 0.5, e.Level(), 1e-4, "start %v", start)
		assert.InDelta(t, 1.0, out, 1e-3, "start %v", start)
	}
}

func TestEnvelope_AsymmetricRates(t *testing.T) {
	e := NewEnvelope(0.5, 0.01)
	e.SetLevel(1)

	e.Execute(2)
	assert.InDelta(t, 1.5, e.Level(), 1e-6)

	e.Execute(0)
	assert.InDelta(t, 1.485, e.Level(), 1e-6)
}

func TestIntegrator_ConstantInput(t *testing.T) {
	for _, length := range []int{1, 7, 23, 32} {
		g, err := NewIntegrator(length)
		require.NoError(t, err)

		var out baseband.ComplexS16
		for i := 0; i < length; i++ {
			out = g.Execute(baseband.ComplexS16{I: 900, Q: -300})
		}
		assert.Equal(t, baseband.ComplexS16{I: 900, Q: -300}, out, "length %d", length)

		// Steady state holds once the window wraps.
		out = g.Execute(baseband.ComplexS16{I: 900, Q: -300})
		assert.Equal(t, baseband.ComplexS16{I: 900, Q: -300}, out, "length %d", length)
	}
}

func TestIntegrator_WindowSlides(t *testing.T) {
	g, err := NewIntegrator(2)
	require.NoError(t, err)

	assert.Equal(t, int16(50), g.Execute(baseband.ComplexS16{I: 100}).I)
	assert.Equal(t, int16(150), g.Execute(baseband.ComplexS16{I: 200}).I)
	assert.Equal(t, int16(100), g.Execute(baseband.ComplexS16{I: 0}).I)
}

func TestNewIntegrator_Length(t *testing.T) {
	_, err := NewIntegrator(MaxIntegratorLength + 1)
	assert.ErrorIs(t, err, ErrIntegratorLength)
	_, err = NewIntegrator(0)
	assert.ErrorIs(t, err, ErrIntegratorLength)
}

func TestFSKDiscriminator_Tones(t *testing.T) {
	cases := []struct {
		name string
		step float64
		want float32
	}{
		{"upper", math.Pi / 2, 1000},
		{"lower", -math.Pi / 2, -1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var d FSKDiscriminator
			dst := make([]float32, 8)

			n := d.Execute(rotating(16, 1000, tc.step), dst)

			assert.Equal(t, 8, n)
			// The first two groups still see zeroed history.
			for _, v := range dst[4:] {
				assert.InDelta(t, tc.want, v, 1)
			}
		})
	}
}

func TestDCBlocker(t *testing.T) {
	b := NewDCBlocker(0.995)
	buf := make([]int16, 4096)
	for i := range buf {
		buf[i] = 1000
	}
	b.Execute(buf)

	assert.Equal(t, int16(1000), buf[0])
	assert.InDelta(t, 0, buf[len(buf)-1], 1)
}
