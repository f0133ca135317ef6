package receiver

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/portarx/baseband"
)

// GainStage names one of the front end gain controls.
type GainStage int

const (
	GainRF GainStage = iota
	GainIF
	GainBB
)

func (g GainStage) String() string {
	switch g {
	case GainRF:
		return "rf"
	case GainIF:
		return "if"
	case GainBB:
		return "bb"
	}
	return "unknown"
}

// Device is the radio front end. StartStream fills buffers from its own
// goroutine until StopStream returns.
type Device interface {
	StartStream(ctx context.Context, buffers *baseband.DoubleBuffer) error
	StopStream() error
	SetFrequency(hz int64) error
	SetSampleRate(hz uint32) error
	SetBandwidth(hz uint32) error
	SetDecimation(factor uint32) error
	SetGain(stage GainStage, db int) error
}

// AudioOutput is the audio sink plus the controls the receiver drives.
type AudioOutput interface {
	AudioSink
	Mute()
	Unmute()
	// SetGain clamps db to the supported range and returns what was applied.
	SetGain(db int) int
}

const (
	DefaultFrequency = 162550000
	DefaultIFGain    = 32
	DefaultBBGain    = 32

	// RFAmpGainDB is the gain of the switchable RF amplifier.
	RFAmpGainDB = 14
	// IFGainStep and BBGainStep are the step sizes SetIFGain and SetBBGain accept.
	IFGainStep = 8
	BBGainStep = 2

	maxIFGain      = 40
	maxBBGain      = 62
	minAudioGainDB = -74
	maxAudioGainDB = 6
)

// DeviceState owns the front end settings and the active pipeline. It is
// only touched from the receiver goroutine.
type DeviceState struct {
	TunedHz     int64
	RFGainDB    int
	IFGainDB    int
	BBGainDB    int
	AudioGainDB int

	configurationIndex int
	configured         bool
	device             Device
	audio              AudioOutput
	buffers            *baseband.DoubleBuffer
	queue              *PayloadQueue
	pipeline           Pipeline
	streamCtx          context.Context
}

func NewDeviceState(device Device, audio AudioOutput, buffers *baseband.DoubleBuffer, queue *PayloadQueue) *DeviceState {
	return &DeviceState{
		TunedHz:   DefaultFrequency,
		IFGainDB:  DefaultIFGain,
		BBGainDB:  DefaultBBGain,
		device:    device,
		audio:     audio,
		buffers:   buffers,
		queue:     queue,
		streamCtx: context.Background(),
	}
}

func (s *DeviceState) sinks(mode Mode) Sinks {
	var sinks Sinks
	if s.audio != nil {
		sinks.Audio = s.audio
	}
	if s.queue != nil {
		sinks.Payload = func(payload []byte, bits int) {
			p := Packet{Mode: mode, Bits: bits, Received: time.Now()}
			copy(p.Data[:], payload)
			s.queue.Push(p)
		}
	}
	return sinks
}

// Configuration returns the active table entry.
func (s *DeviceState) Configuration() Configuration {
	return Configurations[s.configurationIndex]
}

func (s *DeviceState) ConfigurationIndex() int {
	return s.configurationIndex
}

func (s *DeviceState) Pipeline() Pipeline {
	return s.pipeline
}

// SetRxMode stops the stream, reconfigures the front end for the selected
// configuration, builds its pipeline and restarts. Out of range indices are
// ignored.
func (s *DeviceState) SetRxMode(index int) bool {
	if index < 0 || index >= len(Configurations) {
		log.Warnf("[receiver] Ignoring unknown mode index %d", index)
		return false
	}
	next := Configurations[index]
	previous := s.Configuration()

	if s.audio != nil {
		s.audio.Mute()
	}
	if err := s.device.StopStream(); err != nil {
		log.Errorf("[receiver] Could not stop stream: %s", err.Error())
	}
	s.buffers.Reset()

	s.configurationIndex = index
	if !s.configured || next.TuningOffset != previous.TuningOffset {
		if err := s.device.SetFrequency(s.TunedHz + next.TuningOffset); err != nil {
			log.Errorf("[receiver] Could not retune to %d Hz: %s", s.TunedHz, err.Error())
		}
	}
	s.configured = true

	if err := s.device.SetSampleRate(next.SampleRate); err != nil {
		log.Errorf("[receiver] Could not set sample rate %d: %s", next.SampleRate, err.Error())
	}
	if err := s.device.SetBandwidth(next.Bandwidth); err != nil {
		log.Errorf("[receiver] Could not set bandwidth %d: %s", next.Bandwidth, err.Error())
	}
	if err := s.device.SetDecimation(next.Decimation); err != nil {
		log.Errorf("[receiver] Could not set decimation %d: %s", next.Decimation, err.Error())
	}
	s.applyGains()

	pipeline, err := newPipeline(next, s.sinks(next.Mode))
	if err != nil {
		log.Errorf("[receiver] Could not build %s pipeline: %s", next.Name, err.Error())
		s.pipeline = nil
		return false
	}
	s.pipeline = pipeline

	if err := s.device.StartStream(s.streamCtx, s.buffers); err != nil {
		log.Errorf("[receiver] Could not start stream: %s", err.Error())
		return false
	}
	if s.audio != nil && next.EnableAudio {
		s.audio.Unmute()
	}
	log.Infof("[receiver] Mode %s at %d Hz", next.Name, s.TunedHz)
	return true
}

func (s *DeviceState) applyGains() {
	gains := [...]int{GainRF: s.RFGainDB, GainIF: s.IFGainDB, GainBB: s.BBGainDB}
	for stage, db := range gains {
		if err := s.device.SetGain(GainStage(stage), db); err != nil {
			log.Errorf("[receiver] Could not set %s gain to %d dB: %s", GainStage(stage), db, err.Error())
		}
	}
}

// SetFrequency tunes so that hz lands where the active pipeline expects it.
func (s *DeviceState) SetFrequency(hz int64) bool {
	if err := s.device.SetFrequency(hz + s.Configuration().TuningOffset); err != nil {
		log.Errorf("[receiver] Could not tune to %d Hz: %s", hz, err.Error())
		return false
	}
	s.TunedHz = hz
	return true
}

// SetRFGain switches the RF amplifier; anything below its gain turns it off.
func (s *DeviceState) SetRFGain(db int) bool {
	if db >= RFAmpGainDB {
		db = RFAmpGainDB
	} else {
		db = 0
	}
	return s.setGain(GainRF, db, &s.RFGainDB)
}

// SetIFGain accepts 0 to 40 dB in 8 dB steps.
func (s *DeviceState) SetIFGain(db int) bool {
	if db < 0 || db > maxIFGain || db%IFGainStep != 0 {
		return false
	}
	return s.setGain(GainIF, db, &s.IFGainDB)
}

// SetBBGain accepts 0 to 62 dB in 2 dB steps.
func (s *DeviceState) SetBBGain(db int) bool {
	if db < 0 || db > maxBBGain || db%BBGainStep != 0 {
		return false
	}
	return s.setGain(GainBB, db, &s.BBGainDB)
}

func (s *DeviceState) setGain(stage GainStage, db int, current *int) bool {
	if err := s.device.SetGain(stage, db); err != nil {
		log.Errorf("[receiver] Could not set %s gain to %d dB: %s", stage, db, err.Error())
		return false
	}
	*current = db
	return true
}

// SetAudioGain clamps to -74..+6 dB.
func (s *DeviceState) SetAudioGain(db int) {
	db = min(max(db, minAudioGainDB), maxAudioGainDB)
	if s.audio != nil {
		db = s.audio.SetGain(db)
	}
	s.AudioGainDB = db
}

// Stop halts the stream and mutes audio.
func (s *DeviceState) Stop() {
	if s.audio != nil {
		s.audio.Mute()
	}
	if err := s.device.StopStream(); err != nil {
		log.Errorf("[receiver] Could not stop stream: %s", err.Error())
	}
	s.buffers.Reset()
}
