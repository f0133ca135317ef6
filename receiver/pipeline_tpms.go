package receiver

import (
	"math"
	"time"

	"github.com/jrwynneiii/portarx/baseband"
	"github.com/jrwynneiii/portarx/clockrecovery"
	"github.com/jrwynneiii/portarx/demod"
)

const (
	tpmsASKSampleRate  = 192000
	tpmsASKSymbolRate  = 8192
	tpmsASKAccessCode  = 0b01010101010101010101010101011110
	tpmsASKCodeLength  = 32
	tpmsASKMaxDistance = 2
	tpmsASKPayloadBits = 74
	tpmsASKLoopGain    = 1.0 / 8

	tpmsFSKSampleRate  = 76800
	tpmsFSKSymbolRate  = 19200
	tpmsFSKAccessCode  = 0b01010101010101010101010101010110
	tpmsFSKCodeLength  = 32
	tpmsFSKMaxDistance = 2
	tpmsFSKPayloadBits = 160
	tpmsFSKFullScale   = 32768
)

// tpmsASK receives on/off keyed Manchester tyre pressure sensors at 8192
// baud. The symbol clock runs on the envelope normalized magnitude, limited
// to [-1, 1] so the first chip after a long gap cannot swamp the timing
// error. The preamble is short, so the loop runs with a wide gain.
type tpmsASK struct {
	cascade    *cicCascade
	integrator *demod.Integrator
	envelope   *demod.Envelope
	clock      *clockrecovery.ClockRecovery
	framer     *framer
	magnitude  []float32
	audio      []int16
	sink       AudioSink
}

func newTPMSASKPipeline(sinks Sinks) (*tpmsASK, error) {
	integrator, err := demod.NewIntegrator(int(math.Round(float64(tpmsASKSampleRate) / tpmsASKSymbolRate)))
	if err != nil {
		return nil, err
	}
	f, err := newFramer(tpmsASKAccessCode, tpmsASKCodeLength, tpmsASKMaxDistance, tpmsASKPayloadBits, sinks.Payload)
	if err != nil {
		return nil, err
	}
	p := &tpmsASK{
		cascade:    newCICCascade(),
		integrator: integrator,
		envelope:   demod.NewEnvelope(0.08, 0.01),
		framer:     f,
		magnitude:  make([]float32, baseband.BlockSize/16),
		audio:      make([]int16, baseband.AudioBlockSize),
		sink:       sinks.Audio,
	}
	p.clock = clockrecovery.NewWithLoopGain(tpmsASKSymbolRate, tpmsASKSampleRate, tpmsASKLoopGain, p.symbol)
	return p, nil
}

func (p *tpmsASK) symbol(value float32) {
	p.framer.symbol(value)
	p.framer.bit(slice(value))
}

func (p *tpmsASK) Process(block []baseband.ComplexS8, ts *Timestamps) {
	ts.Start = time.Now()
	samples := p.cascade.execute(block)
	ts.DecimateEnd = time.Now()

	for i, s := range samples {
		samples[i] = p.integrator.Execute(s)
	}
	ts.ChannelFilterEnd = time.Now()

	n := demod.AMDemodulate(samples, p.magnitude)
	for _, m := range p.magnitude[:n] {
		p.clock.Execute(max(-1, min(1, p.envelope.Execute(m))))
	}
	ts.DemodulateEnd = time.Now()

	step := n / len(p.audio)
	for i := range p.audio {
		p.audio[i] = baseband.SaturateF32(p.magnitude[i*step])
	}
	p.sink.CopyToAudioOutput(p.audio)
	ts.AudioEnd = time.Now()
}

func (p *tpmsASK) Level() float32 {
	return p.cascade.meter.level
}

func (p *tpmsASK) Quality() float64 {
	return p.framer.snr.SNR()
}

// tpmsFSK receives 2-FSK tyre pressure sensors at 19200 baud. Soft symbols
// are scaled to full scale before the AGC.
type tpmsFSK struct {
	cascade       *cicCascade
	discriminator demod.FSKDiscriminator
	agc           *demod.AGC
	clock         *clockrecovery.ClockRecovery
	framer        *framer
	soft          []float32
	audio         []int16
	sink          AudioSink
}

func newTPMSFSKPipeline(sinks Sinks) (*tpmsFSK, error) {
	f, err := newFramer(tpmsFSKAccessCode, tpmsFSKCodeLength, tpmsFSKMaxDistance, tpmsFSKPayloadBits, sinks.Payload)
	if err != nil {
		return nil, err
	}
	p := &tpmsFSK{
		cascade: newCICCascade(),
		agc:     demod.NewAGC(0.001, 1, 1, 100),
		framer:  f,
		soft:    make([]float32, baseband.BlockSize/32),
		audio:   make([]int16, baseband.AudioBlockSize),
		sink:    sinks.Audio,
	}
	p.clock = clockrecovery.New(tpmsFSKSymbolRate, tpmsFSKSampleRate, p.symbol)
	return p, nil
}

func (p *tpmsFSK) symbol(value float32) {
	p.framer.symbol(value)
	p.framer.bit(slice(value))
}

func (p *tpmsFSK) Process(block []baseband.ComplexS8, ts *Timestamps) {
	ts.Start = time.Now()
	samples := p.cascade.execute(block)
	ts.DecimateEnd = time.Now()
	ts.ChannelFilterEnd = ts.DecimateEnd

	n := p.discriminator.Execute(samples, p.soft)
	for i := range p.audio {
		p.audio[i] = baseband.SaturateF32(p.soft[2*i])
	}
	for _, v := range p.soft[:n] {
		p.clock.Execute(p.agc.Execute(v / tpmsFSKFullScale))
	}
	ts.DemodulateEnd = time.Now()

	p.sink.CopyToAudioOutput(p.audio)
	ts.AudioEnd = time.Now()
}

func (p *tpmsFSK) Level() float32 {
	return p.cascade.meter.level
}

func (p *tpmsFSK) Quality() float64 {
	return p.framer.snr.SNR()
}
