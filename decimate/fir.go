package decimate

import (
	"fmt"

	"github.com/jrwynneiii/portarx/baseband"
)

// FIRDecim is a fixed-point complex FIR filter that keeps every factor-th output.
// History is held twice over so each output is one contiguous dot product.
type FIRDecim struct {
	taps    []int32
	histI   []int32
	histQ   []int32
	pos     int
	factor  int
	counter int
}

func reverseTaps(taps []int16) []int32 {
	r := make([]int32, len(taps))
	for i, t := range taps {
		r[len(taps)-1-i] = int32(t)
	}
	return r
}

func NewFIRDecim(taps []int16, factor int) (*FIRDecim, error) {
	if len(taps) == 0 || factor < 1 {
		return nil, fmt.Errorf("invalid FIR decimator: %d taps, factor %d", len(taps), factor)
	}
	return &FIRDecim{
		taps:   reverseTaps(taps),
		histI:  make([]int32, 2*len(taps)),
		histQ:  make([]int32, 2*len(taps)),
		factor: factor,
	}, nil
}

// Execute filters src into dst, producing len(src)/factor outputs scaled down
// by shift. dst may be the same slice as src.
func (f *FIRDecim) Execute(src []baseband.ComplexS16, dst []baseband.ComplexS16, shift uint) int {
	n := len(f.taps)
	out := 0
	for _, s := range src {
		f.histI[f.pos], f.histI[f.pos+n] = int32(s.I), int32(s.I)
		f.histQ[f.pos], f.histQ[f.pos+n] = int32(s.Q), int32(s.Q)
		f.pos++
		if f.pos == n {
			f.pos = 0
		}

		f.counter++
		if f.counter < f.factor {
			continue
		}
		f.counter = 0

		wi := f.histI[f.pos : f.pos+n]
		wq := f.histQ[f.pos : f.pos+n]
		var accI, accQ int64
		for k, t := range f.taps {
			accI += int64(t) * int64(wi[k])
			accQ += int64(t) * int64(wq[k])
		}
		dst[out] = baseband.ComplexS16{
			I: baseband.SaturateS16(int32(clamp64(accI >> shift))),
			Q: baseband.SaturateS16(int32(clamp64(accQ >> shift))),
		}
		out++
	}
	return out
}

// FIRDecimReal is the real valued counterpart of FIRDecim.
type FIRDecimReal struct {
	taps    []int32
	hist    []int32
	pos     int
	factor  int
	counter int
}

func NewFIRDecimReal(taps []int16, factor int) (*FIRDecimReal, error) {
	if len(taps) == 0 || factor < 1 {
		return nil, fmt.Errorf("invalid FIR decimator: %d taps, factor %d", len(taps), factor)
	}
	return &FIRDecimReal{
		taps:   reverseTaps(taps),
		hist:   make([]int32, 2*len(taps)),
		factor: factor,
	}, nil
}

func (f *FIRDecimReal) Execute(src []int16, dst []int16, shift uint) int {
	n := len(f.taps)
	out := 0
	for _, s := range src {
		f.hist[f.pos], f.hist[f.pos+n] = int32(s), int32(s)
		f.pos++
		if f.pos == n {
			f.pos = 0
		}

		f.counter++
		if f.counter < f.factor {
			continue
		}
		f.counter = 0

		w := f.hist[f.pos : f.pos+n]
		var acc int64
		for k, t := range f.taps {
			acc += int64(t) * int64(w[k])
		}
		dst[out] = baseband.SaturateS16(int32(clamp64(acc >> shift)))
		out++
	}
	return out
}

func clamp64(v int64) int64 {
	const limit = 1 << 31
	if v >= limit {
		return limit - 1
	}
	if v < -limit {
		return -limit
	}
	return v
}
