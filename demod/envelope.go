package demod

const envelopeMinimum = 0.000001

// Envelope follows signal magnitude with separate rise and fall rates and
// normalizes each input against it, giving roughly -1 for "off" and +1 for
// "on" in an ASK stream.
type Envelope struct {
	riseFactor float32
	fallFactor float32
	envelope   float32
}

func NewEnvelope(riseFactor, fallFactor float32) *Envelope {
	return &Envelope{
		riseFactor: riseFactor,
		fallFactor: fallFactor,
		envelope:   envelopeMinimum,
	}
}

func (e *Envelope) Execute(magnitude float32) float32 {
	if magnitude > e.envelope {
		e.envelope = e.envelope*(1-e.riseFactor) + magnitude*e.riseFactor
	} else {
		e.envelope = e.envelope*(1-e.fallFactor) + magnitude*e.fallFactor
	}
	return 2*magnitude/(e.envelope+envelopeMinimum) - 1
}

func (e *Envelope) Level() float32 {
	return e.envelope
}

func (e *Envelope) SetLevel(level float32) {
	e.envelope = max(level, envelopeMinimum)
}
