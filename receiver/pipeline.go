package receiver

import (
	"fmt"
	"math"
	"time"

	"github.com/jrwynneiii/portarx/baseband"
	"github.com/jrwynneiii/portarx/datalink"
	"github.com/jrwynneiii/portarx/decimate"
	"github.com/jrwynneiii/portarx/demod"
)

// Timestamps records when each stage of one block finished.
type Timestamps struct {
	Start            time.Time
	DecimateEnd      time.Time
	ChannelFilterEnd time.Time
	DemodulateEnd    time.Time
	AudioEnd         time.Time
}

// AudioSink accepts blocks of baseband.AudioBlockSize samples at 48kHz.
type AudioSink interface {
	CopyToAudioOutput(samples []int16)
}

type discardAudio struct{}

func (discardAudio) CopyToAudioOutput([]int16) {}

// Sinks are the outputs a pipeline writes to.
type Sinks struct {
	Payload datalink.PayloadHandler
	Audio   AudioSink
}

func (s Sinks) withDefaults() Sinks {
	if s.Payload == nil {
		s.Payload = func([]byte, int) {}
	}
	if s.Audio == nil {
		s.Audio = discardAudio{}
	}
	return s
}

// Pipeline turns one block of baseband.BlockSize samples into audio and/or
// packets.
type Pipeline interface {
	Process(block []baseband.ComplexS8, ts *Timestamps)
	// Level is the smoothed mean magnitude after the first decimation chain.
	Level() float32
	// Quality is the SNR of the recovered symbols in dB, zero for audio modes.
	Quality() float64
}

func newPipeline(c Configuration, sinks Sinks) (Pipeline, error) {
	sinks = sinks.withDefaults()
	switch c.Mode {
	case ModeAM:
		return newAMPipeline(sinks)
	case ModeNBFM:
		return newNBFMPipeline(sinks)
	case ModeWBFM:
		return newWBFMPipeline(sinks)
	case ModeTPMSASK:
		return newTPMSASKPipeline(sinks)
	case ModeTPMSFSK:
		return newTPMSFSKPipeline(sinks)
	case ModeAIS:
		return newAISPipeline(sinks)
	}
	return nil, fmt.Errorf("no pipeline for mode %d", c.Mode)
}

// levelMeter holds peaks and decays by 1/16 per block.
type levelMeter struct {
	level float32
}

func (m *levelMeter) measure(samples []baseband.ComplexS16) {
	if len(samples) == 0 {
		return
	}
	var sum float64
	for _, s := range samples {
		i := float64(s.I)
		q := float64(s.Q)
		sum += math.Sqrt(i*i + q*q)
	}
	mean := float32(sum / float64(len(samples)))
	if mean > m.level {
		m.level = mean
	} else {
		m.level = m.level*15/16 + mean/16
	}
}

// cicCascade is the shared front end: an fs/4 translating CIC3 followed by
// three more CIC3 halvings, 16x in total.
type cicCascade struct {
	stage1 decimate.TranslateFs4CIC3
	stage2 decimate.CIC3Decim2
	stage3 decimate.CIC3Decim2
	stage4 decimate.CIC3Decim2
	work   []baseband.ComplexS16
	meter  levelMeter
}

func newCICCascade() *cicCascade {
	return &cicCascade{work: make([]baseband.ComplexS16, baseband.BlockSize/2)}
}

// execute returns baseband.BlockSize/16 samples. The slice is reused on the
// next call.
func (c *cicCascade) execute(block []baseband.ComplexS8) []baseband.ComplexS16 {
	n := c.stage1.Execute(block, c.work, 0)
	n = c.stage2.Execute(c.work[:n], c.work, 1)
	n = c.stage3.Execute(c.work[:n], c.work, 3)
	n = c.stage4.Execute(c.work[:n], c.work, 0)
	out := c.work[:n]
	c.meter.measure(out)
	return out
}

// framer runs recovered bits through the access code correlator and the
// packet builder, and tracks symbol quality.
type framer struct {
	correlator *datalink.AccessCodeCorrelator
	builder    *datalink.PacketBuilder
	snr        *demod.SNREstimator
}

func newFramer(code uint64, length, maxDistance, payloadBits int, handler datalink.PayloadHandler) (*framer, error) {
	correlator, err := datalink.NewAccessCodeCorrelator(code, length, maxDistance)
	if err != nil {
		return nil, err
	}
	builder, err := datalink.NewPacketBuilder(payloadBits, handler)
	if err != nil {
		return nil, err
	}
	return &framer{
		correlator: correlator,
		builder:    builder,
		snr:        demod.NewSNREstimator(0.001),
	}, nil
}

func (f *framer) symbol(value float32) {
	f.snr.Update(value)
}

func (f *framer) bit(bit uint8) {
	found := f.correlator.Execute(bit)
	f.builder.Execute(bit, found)
}

func slice(value float32) uint8 {
	if value >= 0 {
		return 1
	}
	return 0
}
