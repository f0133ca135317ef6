package demod

import "github.com/jrwynneiii/portarx/baseband"

// DCBlocker is a one pole high pass: y[n] = x[n] - x[n-1] + alpha*y[n-1].
type DCBlocker struct {
	alpha float32
	x1    float32
	y1    float32
}

func NewDCBlocker(alpha float32) *DCBlocker {
	return &DCBlocker{alpha: alpha}
}

// Execute filters samples in place.
func (b *DCBlocker) Execute(samples []int16) {
	for n, s := range samples {
		x := float32(s)
		y := x - b.x1 + b.alpha*b.y1
		b.x1 = x
		b.y1 = y
		samples[n] = baseband.SaturateF32(y)
	}
}
