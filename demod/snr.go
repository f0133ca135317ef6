package demod

import "math"

// SNREstimator tracks a running M2M4 estimate over real valued soft symbols.
//
// Based on the moment estimator in:
// D. R. Pauluzzi and N. C. Beaulieu, "A comparison of SNR
// estimation techniques for the AWGN channel," IEEE
// Trans. Communications, Vol. 48, No. 10, pp. 1681-1691, 2000.
//
// For a real signal in real Gaussian noise M4 = S^2 + 6SN + 3N^2, so
// S = sqrt((3*M2^2 - M4)/2).
type SNREstimator struct {
	Y1     float64
	Y2     float64
	Alpha  float64
	Beta   float64
	Signal float64
	Noise  float64
}

func NewSNREstimator(alpha float64) *SNREstimator {
	return &SNREstimator{
		Alpha: alpha,
		Beta:  1.0 - alpha,
	}
}

// Update folds one symbol into the running moments.
func (s *SNREstimator) Update(symbol float32) {
	p := float64(symbol) * float64(symbol)
	s.Y1 = s.Alpha*p + s.Beta*s.Y1
	s.Y2 = s.Alpha*p*p + s.Beta*s.Y2
}

// SNR returns the current estimate in dB, floored at zero.
func (s *SNREstimator) SNR() float64 {
	if math.IsNaN(s.Y1) {
		s.Y1 = 0
	}
	if math.IsNaN(s.Y2) {
		s.Y2 = 0
	}

	radicand := (3.0*s.Y1*s.Y1 - s.Y2) / 2.0
	if radicand <= 0 {
		s.Signal = 0
		s.Noise = s.Y1
		return 0
	}
	s.Signal = math.Sqrt(radicand)
	s.Noise = s.Y1 - s.Signal
	if s.Noise <= 0 {
		// Noise free within the precision of the running moments.
		return 99
	}
	return max(0, 10.0*math.Log10(s.Signal/s.Noise))
}
