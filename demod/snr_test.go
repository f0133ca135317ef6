package demod

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSNREstimator_NoiseFree(t *testing.T) {
	s := NewSNREstimator(0.01)
	for i := 0; i < 2000; i++ {
		s.Update(float32(1 - 2*(i&1)))
	}
	assert.Greater(t, s.SNR(), 60.0)
}

func TestSNREstimator_Noisy(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := NewSNREstimator(0.001)

	const sigma = 0.3
	for i := 0; i < 50000; i++ {
		symbol := 1.0
		if rng.Intn(2) == 0 {
			symbol = -1.0
		}
		s.Update(float32(symbol + sigma*rng.NormFloat64()))
	}

	want := 10 * math.Log10(1/(sigma*sigma))
	assert.InDelta(t, want, s.SNR(), 2)
}

func TestSNREstimator_Empty(t *testing.T) {
	s := NewSNREstimator(0.01)
	assert.Equal(t, 0.0, s.SNR())
}
