package demod

// AGC is a feed forward gain loop that pulls the magnitude of its output
// towards reference. The gain never leaves [0, maxGain].
type AGC struct {
	Rate      float32
	Reference float32
	Gain      float32
	MaxGain   float32
}

func NewAGC(rate, reference, gain, maxGain float32) *AGC {
	return &AGC{
		Rate:      rate,
		Reference: reference,
		Gain:      gain,
		MaxGain:   maxGain,
	}
}

func (a *AGC) Execute(in float32) float32 {
	out := in * a.Gain
	mag := out
	if mag < 0 {
		mag = -mag
	}
	a.Gain += a.Rate * (a.Reference - mag)
	if a.Gain < 0 {
		a.Gain = 0
	} else if a.MaxGain > 0 && a.Gain > a.MaxGain {
		a.Gain = a.MaxGain
	}
	return out
}

// Work applies the loop to a block in place.
func (a *AGC) Work(samples []float32) {
	for i, s := range samples {
		samples[i] = a.Execute(s)
	}
}
