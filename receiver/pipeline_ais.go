package receiver

import (
	"time"

	"github.com/jrwynneiii/portarx/baseband"
	"github.com/jrwynneiii/portarx/clockrecovery"
	"github.com/jrwynneiii/portarx/decimate"
	"github.com/jrwynneiii/portarx/demod"
)

const (
	aisChannelRate  = 153600
	aisSampleRate   = 38400
	aisSymbolRate   = 9600
	aisDeviation    = 2400
	aisAccessCode   = 0b010101010101010101010101111110
	aisCodeLength   = 30
	aisMaxDistance  = 0
	aisPayloadBits  = 256
	aisCutoffHz     = 7200
	aisTransitionHz = 4900
)

// ais receives 9600 baud GMSK as FM with NRZI line coding. The access code
// is the tail of the training sequence plus the HDLC start flag. The
// discriminator runs at four samples per symbol: at two, every phase step is
// exactly half a turn and any negative correction drops a crossing.
type ais struct {
	cascade   *cicCascade
	channel   *decimate.FIRDecim
	fm        *demod.FMDemodulator
	clock     *clockrecovery.ClockRecovery
	framer    *framer
	lastLevel uint8
	frequency []int16
}

func newAISPipeline(sinks Sinks) (*ais, error) {
	channel, err := decimate.NewFIRDecim(
		decimate.DesignLowPass(aisChannelRate, aisCutoffHz, aisTransitionHz),
		aisChannelRate/aisSampleRate,
	)
	if err != nil {
		return nil, err
	}
	f, err := newFramer(aisAccessCode, aisCodeLength, aisMaxDistance, aisPayloadBits, sinks.Payload)
	if err != nil {
		return nil, err
	}
	p := &ais{
		cascade:   newCICCascade(),
		channel:   channel,
		fm:        demod.NewFMDemodulator(aisSampleRate, aisDeviation),
		framer:    f,
		frequency: make([]int16, baseband.BlockSize/64),
	}
	p.clock = clockrecovery.New(aisSymbolRate, aisSampleRate, p.symbol)
	return p, nil
}

// symbol undoes NRZI: no level change is a one.
func (p *ais) symbol(value float32) {
	p.framer.symbol(value)
	level := slice(value)
	bit := ^(level ^ p.lastLevel) & 1
	p.lastLevel = level
	p.framer.bit(bit)
}

func (p *ais) Process(block []baseband.ComplexS8, ts *Timestamps) {
	ts.Start = time.Now()
	samples := p.cascade.execute(block)
	ts.DecimateEnd = time.Now()

	n := p.channel.Execute(samples, samples, decimate.TapsShift)
	ts.ChannelFilterEnd = time.Now()

	n = p.fm.Execute(samples[:n], p.frequency)
	for _, f := range p.frequency[:n] {
		p.clock.Execute(float32(f) / 32768)
	}
	ts.DemodulateEnd = time.Now()
	ts.AudioEnd = ts.DemodulateEnd
}

func (p *ais) Level() float32 {
	return p.cascade.meter.level
}

func (p *ais) Quality() float64 {
	return p.framer.snr.SNR()
}
