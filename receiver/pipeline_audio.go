package receiver

import (
	"time"

	"github.com/jrwynneiii/portarx/baseband"
	"github.com/jrwynneiii/portarx/decimate"
	"github.com/jrwynneiii/portarx/demod"
)

const (
	narrowChannelRate = 192000
	audioRate         = 48000

	nbfmCutoff     = 8000
	nbfmTransition = 6000
	nbfmDeviation  = 5000

	amCutoff     = 5000
	amTransition = 4000
	amDCAlpha    = 0.995

	wbfmRate      = 768000
	wbfmDeviation = 75000
)

// nbfm is 12.5kHz channel FM voice.
type nbfm struct {
	cascade *cicCascade
	channel *decimate.FIRDecim
	fm      *demod.FMDemodulator
	audio   []int16
	sink    AudioSink
}

func newNBFMPipeline(sinks Sinks) (*nbfm, error) {
	channel, err := decimate.NewFIRDecim(
		decimate.DesignLowPass(narrowChannelRate, nbfmCutoff, nbfmTransition),
		narrowChannelRate/audioRate,
	)
	if err != nil {
		return nil, err
	}
	return &nbfm{
		cascade: newCICCascade(),
		channel: channel,
		fm:      demod.NewFMDemodulator(audioRate, nbfmDeviation),
		audio:   make([]int16, baseband.AudioBlockSize),
		sink:    sinks.Audio,
	}, nil
}

func (p *nbfm) Process(block []baseband.ComplexS8, ts *Timestamps) {
	ts.Start = time.Now()
	samples := p.cascade.execute(block)
	ts.DecimateEnd = time.Now()

	n := p.channel.Execute(samples, samples, decimate.TapsShift)
	ts.ChannelFilterEnd = time.Now()

	p.fm.Execute(samples[:n], p.audio)
	ts.DemodulateEnd = time.Now()

	p.sink.CopyToAudioOutput(p.audio)
	ts.AudioEnd = time.Now()
}

func (p *nbfm) Level() float32 {
	return p.cascade.meter.level
}

func (p *nbfm) Quality() float64 {
	return 0
}

// am is envelope detected AM with the carrier removed by a DC blocker.
type am struct {
	cascade   *cicCascade
	channel   *decimate.FIRDecim
	dc        *demod.DCBlocker
	magnitude []float32
	audio     []int16
	sink      AudioSink
}

func newAMPipeline(sinks Sinks) (*am, error) {
	channel, err := decimate.NewFIRDecim(
		decimate.DesignLowPass(narrowChannelRate, amCutoff, amTransition),
		narrowChannelRate/audioRate,
	)
	if err != nil {
		return nil, err
	}
	return &am{
		cascade:   newCICCascade(),
		channel:   channel,
		dc:        demod.NewDCBlocker(amDCAlpha),
		magnitude: make([]float32, baseband.AudioBlockSize),
		audio:     make([]int16, baseband.AudioBlockSize),
		sink:      sinks.Audio,
	}, nil
}

func (p *am) Process(block []baseband.ComplexS8, ts *Timestamps) {
	ts.Start = time.Now()
	samples := p.cascade.execute(block)
	ts.DecimateEnd = time.Now()

	n := p.channel.Execute(samples, samples, decimate.TapsShift)
	ts.ChannelFilterEnd = time.Now()

	n = demod.AMDemodulate(samples[:n], p.magnitude)
	for i, m := range p.magnitude[:n] {
		p.audio[i] = baseband.SaturateF32(m)
	}
	p.dc.Execute(p.audio)
	ts.DemodulateEnd = time.Now()

	p.sink.CopyToAudioOutput(p.audio)
	ts.AudioEnd = time.Now()
}

func (p *am) Level() float32 {
	return p.cascade.meter.level
}

func (p *am) Quality() float64 {
	return 0
}

// wbfm is broadcast FM, demodulated at 768kHz and brought down to audio with
// three real CIC4 halvings and a final low pass.
type wbfm struct {
	stage1    decimate.TranslateFs4CIC3
	stage2    decimate.CIC3Decim2
	audioCIC  [3]decimate.CIC4Decim2Real
	audioLPF  *decimate.FIRDecimReal
	fm        *demod.FMDemodulator
	work      []baseband.ComplexS16
	frequency []int16
	meter     levelMeter
	sink      AudioSink
}

func newWBFMPipeline(sinks Sinks) (*wbfm, error) {
	lpf, err := decimate.NewFIRDecimReal(decimate.TapsLowPass156_198, 2)
	if err != nil {
		return nil, err
	}
	return &wbfm{
		audioLPF:  lpf,
		fm:        demod.NewFMDemodulator(wbfmRate, wbfmDeviation),
		work:      make([]baseband.ComplexS16, baseband.BlockSize/2),
		frequency: make([]int16, baseband.BlockSize/4),
		sink:      sinks.Audio,
	}, nil
}

func (p *wbfm) Process(block []baseband.ComplexS8, ts *Timestamps) {
	ts.Start = time.Now()
	n := p.stage1.Execute(block, p.work, 0)
	n = p.stage2.Execute(p.work[:n], p.work, 0)
	p.meter.measure(p.work[:n])
	ts.DecimateEnd = time.Now()
	ts.ChannelFilterEnd = ts.DecimateEnd

	n = p.fm.Execute(p.work[:n], p.frequency)
	ts.DemodulateEnd = time.Now()

	for i := range p.audioCIC {
		n = p.audioCIC[i].Execute(p.frequency[:n], p.frequency, 4)
	}
	n = p.audioLPF.Execute(p.frequency[:n], p.frequency, 16)
	p.sink.CopyToAudioOutput(p.frequency[:n])
	ts.AudioEnd = time.Now()
}

func (p *wbfm) Level() float32 {
	return p.meter.level
}

func (p *wbfm) Quality() float64 {
	return 0
}
