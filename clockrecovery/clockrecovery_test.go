package clockrecovery

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplesPerSymbol = 8

// synthesize builds a raised-cosine pulse train with symbol k centered on
// sample firstCenter + k*samplesPerSymbol. Centers are ISI free.
func synthesize(symbols []float32, firstCenter int) []float32 {
	out := make([]float32, len(symbols)*samplesPerSymbol)
	for k, s := range symbols {
		center := firstCenter + k*samplesPerSymbol
		for n := center - samplesPerSymbol + 1; n < center+samplesPerSymbol; n++ {
			if n < 0 || n >= len(out) {
				continue
			}
			t := float64(n-center) / samplesPerSymbol
			out[n] += s * float32(0.5*(1+math.Cos(math.Pi*t)))
		}
	}
	return out
}

// randomSymbols starts with a short alternating run so the detector sees
// transitions while its history is still filling.
func randomSymbols(n int) []float32 {
	rng := rand.New(rand.NewSource(1))
	symbols := make([]float32, n)
	for i := range symbols {
		switch {
		case i < 4:
			symbols[i] = float32(1 - 2*(i&1))
		case rng.Intn(2) == 0:
			symbols[i] = -1
		default:
			symbols[i] = 1
		}
	}
	return symbols
}

func TestNew_Increment(t *testing.T) {
	c := New(9600, 19200, nil)
	assert.Equal(t, uint32(1<<31), c.Increment())

	c = New(8192, 192000, nil)
	assert.Equal(t, uint32(183251936), c.Increment())
}

func TestClockRecovery_ZeroTimingError(t *testing.T) {
	symbols := randomSymbols(400)
	// With an increment of 2^29 the centers fire on samples 7, 15, 23, ...
	stream := synthesize(symbols, 7)

	var recovered []float32
	c := New(1, samplesPerSymbol, nil)
	c.handler = func(v float32) {
		recovered = append(recovered, v)
	}
	require.Equal(t, uint32(1<<29), c.Increment())

	c.ExecuteBlock(stream)

	require.Len(t, recovered, len(symbols))
	assert.InDelta(t, 0, c.ErrorFiltered(), 1e-6)
	assert.Equal(t, int32(0), c.Adjustment())
	for k := 2; k < len(symbols); k++ {
		assert.Equal(t, symbols[k] > 0, recovered[k] >= 0, "symbol %d", k)
	}
}

func TestClockRecovery_EarlyBias(t *testing.T) {
	symbols := randomSymbols(400)
	// Centers two samples after the initial sampling instant: a quarter
	// symbol early.
	stream := synthesize(symbols, 9)

	var recovered []float32
	var adjustments []int32
	c := New(1, samplesPerSymbol, nil)
	c.handler = func(v float32) {
		recovered = append(recovered, v)
	}

	for _, v := range stream {
		before := len(recovered)
		c.Execute(v)
		if len(recovered) != before {
			adjustments = append(adjustments, c.Adjustment())
		}
	}

	// Sampling slides later as the loop corrects, so the final center can
	// fall past the end of the stream.
	require.GreaterOrEqual(t, len(adjustments), len(symbols)-1)

	negative := 0
	for k, adj := range adjustments {
		// The first two symbols are the history filling up from zero.
		if k >= 2 {
			assert.LessOrEqual(t, adj, int32(0), "symbol %d", k)
		}
		if k < 100 && adj < 0 {
			negative++
		}
	}
	assert.Greater(t, negative, 90)

	for k := 2; k < len(recovered); k++ {
		assert.Equal(t, symbols[k] > 0, recovered[k] >= 0, "symbol %d", k)
	}
}

// settledAfter is the first index from which every recovered center is
// within tolerance of the transmitted symbol.
func settledAfter(symbols, recovered []float32, tolerance float64) int {
	settled := len(recovered)
	for k := len(recovered) - 1; k >= 0; k-- {
		if k >= len(symbols) || math.Abs(float64(recovered[k]-symbols[k])) >= tolerance {
			break
		}
		settled = k
	}
	return settled
}

func TestNewWithLoopGain_PullsInFaster(t *testing.T) {
	symbols := randomSymbols(400)
	// Three samples early, close to the midpoint between centers.
	stream := synthesize(symbols, 10)

	run := func(c *ClockRecovery) int {
		var recovered []float32
		c.handler = func(v float32) {
			recovered = append(recovered, v)
		}
		c.ExecuteBlock(stream)
		return settledAfter(symbols, recovered, 0.02)
	}

	slow := New(1, samplesPerSymbol, nil)
	fast := NewWithLoopGain(1, samplesPerSymbol, 1.0/8, nil)
	assert.Equal(t, float32(DefaultLoopGain), slow.LoopGain())
	assert.Equal(t, float32(1.0/8), fast.LoopGain())

	assert.Greater(t, run(slow), 96)
	assert.Less(t, run(fast), 48)
}
