package clockrecovery

import "math"

// SymbolHandler receives the shaped sample taken at each estimated symbol center.
type SymbolHandler func(value float32)

// ClockRecovery is a phase accumulator symbol synchronizer. The accumulator
// wraps once per symbol; its top bit going 1->0 marks a symbol center and
// 0->1 marks the boundary halfway between centers. Only the phase is ever
// corrected, the nominal increment stays fixed.
type ClockRecovery struct {
	phase         uint32
	increment     uint32
	adjustment    int32
	t0            float32
	t1            float32
	t2            float32
	errorFiltered float32
	loopGain      float32
	handler       SymbolHandler
}

// DefaultLoopGain scales the filtered timing error, in fractions of the
// increment, into the per-sample phase correction.
const DefaultLoopGain = 1.0 / 200

// New returns a synchronizer for symbolRate symbols per second in a stream of
// sampleRate samples per second.
func New(symbolRate float32, sampleRate float32, handler SymbolHandler) *ClockRecovery {
	return NewWithLoopGain(symbolRate, sampleRate, DefaultLoopGain, handler)
}

// NewWithLoopGain is New with a different loop gain. A larger gain pulls in
// within a shorter preamble and lets more jitter through.
func NewWithLoopGain(symbolRate float32, sampleRate float32, loopGain float32, handler SymbolHandler) *ClockRecovery {
	return &ClockRecovery{
		increment: uint32(math.Round(float64(uint64(1)<<32) * float64(symbolRate/sampleRate))),
		loopGain:  loopGain,
		handler:   handler,
	}
}

func (c *ClockRecovery) Execute(in float32) {
	last := c.phase
	c.phase += c.increment + uint32(c.adjustment)

	zeroCrossing := last>>31 == 1 && c.phase>>31 == 0
	halfCrossing := last>>31 == 0 && c.phase>>31 == 1

	if zeroCrossing || halfCrossing {
		c.t2 = c.t1
		c.t1 = c.t0
		c.t0 = in
	}

	if zeroCrossing {
		if c.handler != nil {
			c.handler(c.t0)
		}

		// Positive error means the centers are being sampled late, so the
		// phase is pushed forward; negative (early) holds it back.
		err := (c.t0 - c.t2) * c.t1
		c.errorFiltered = 0.75*c.errorFiltered + 0.25*err
		c.adjustment = int32(float32(c.increment) * c.errorFiltered * c.loopGain)
	}
}

// ExecuteBlock runs Execute over every sample in in.
func (c *ClockRecovery) ExecuteBlock(in []float32) {
	for _, v := range in {
		c.Execute(v)
	}
}

func (c *ClockRecovery) Increment() uint32 {
	return c.increment
}

func (c *ClockRecovery) Adjustment() int32 {
	return c.adjustment
}

func (c *ClockRecovery) LoopGain() float32 {
	return c.loopGain
}

func (c *ClockRecovery) ErrorFiltered() float32 {
	return c.errorFiltered
}
