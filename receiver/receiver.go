package receiver

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/portarx/baseband"
)

// BlockObserver is told how long each pipeline stage took for one block.
type BlockObserver interface {
	ObserveBlock(ts Timestamps, blockPeriod time.Duration, level float32, quality float64)
}

// Metrics hands out a BlockObserver per mode.
type Metrics interface {
	ForMode(name string) BlockObserver
}

type commandKind int

const (
	cmdSetRxMode commandKind = iota
	cmdSetFrequency
	cmdSetRFGain
	cmdSetIFGain
	cmdSetBBGain
	cmdSetAudioGain
)

type command struct {
	kind  commandKind
	value int64
}

// Status is a snapshot of the receiver for display.
type Status struct {
	Mode            string
	ModeIndex       int
	TunedHz         int64
	RFGainDB        int
	IFGainDB        int
	BBGainDB        int
	AudioGainDB     int
	Level           float32
	Quality         float64
	Load            float64
	Blocks          uint64
	Overruns        uint64
	DroppedPayloads uint64
}

// Receiver runs the pipeline for whichever mode is selected. Run owns the
// device state; every other method is safe to call from any goroutine.
type Receiver struct {
	state    *DeviceState
	buffers  *baseband.DoubleBuffer
	queue    *PayloadQueue
	metrics  Metrics
	observer BlockObserver
	commands chan command
	done     chan struct{}

	modeIndex atomic.Int64
	tunedHz   atomic.Int64
	rfGain    atomic.Int64
	ifGain    atomic.Int64
	bbGain    atomic.Int64
	audioGain atomic.Int64
	level     atomic.Uint32
	quality   atomic.Uint64
	load      atomic.Uint64
	blocks    atomic.Uint64
}

// New builds a receiver. audio, queue and metrics may be nil.
func New(device Device, audio AudioOutput, queue *PayloadQueue, metrics Metrics) *Receiver {
	buffers := baseband.NewDoubleBuffer(baseband.BlockSize)
	r := &Receiver{
		buffers:  buffers,
		queue:    queue,
		metrics:  metrics,
		commands: make(chan command, 8),
		done:     make(chan struct{}),
	}
	r.state = NewDeviceState(device, audio, buffers, queue)
	r.publish()
	return r
}

// Buffers is the double buffer the device fills.
func (r *Receiver) Buffers() *baseband.DoubleBuffer {
	return r.buffers
}

// Run selects mode, then processes blocks and commands until ctx is done.
func (r *Receiver) Run(ctx context.Context, mode int) error {
	defer close(r.done)
	r.state.streamCtx = ctx
	r.handle(command{kind: cmdSetRxMode, value: int64(mode)})
	defer r.state.Stop()

	var ts Timestamps
	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-r.commands:
			r.handle(c)
		case i := <-r.buffers.Ready():
			r.process(r.buffers.Block(i), &ts)
			r.buffers.Release(i)
		}
	}
}

func (r *Receiver) process(block []baseband.ComplexS8, ts *Timestamps) {
	pipeline := r.state.Pipeline()
	if pipeline == nil {
		return
	}
	pipeline.Process(block, ts)
	r.blocks.Add(1)

	level := pipeline.Level()
	quality := pipeline.Quality()
	r.level.Store(math.Float32bits(level))
	r.quality.Store(math.Float64bits(quality))

	rate := r.state.Configuration().BasebandRate()
	period := time.Duration(float64(baseband.BlockSize) / float64(rate) * float64(time.Second))
	r.load.Store(math.Float64bits(ts.AudioEnd.Sub(ts.Start).Seconds() / period.Seconds()))
	if r.observer != nil {
		r.observer.ObserveBlock(*ts, period, level, quality)
	}
}

func (r *Receiver) handle(c command) {
	switch c.kind {
	case cmdSetRxMode:
		if r.state.SetRxMode(int(c.value)) && r.metrics != nil {
			r.observer = r.metrics.ForMode(r.state.Configuration().Name)
		}
	case cmdSetFrequency:
		r.state.SetFrequency(c.value)
	case cmdSetRFGain:
		r.state.SetRFGain(int(c.value))
	case cmdSetIFGain:
		r.state.SetIFGain(int(c.value))
	case cmdSetBBGain:
		r.state.SetBBGain(int(c.value))
	case cmdSetAudioGain:
		r.state.SetAudioGain(int(c.value))
	}
	r.publish()
}

func (r *Receiver) publish() {
	r.modeIndex.Store(int64(r.state.ConfigurationIndex()))
	r.tunedHz.Store(r.state.TunedHz)
	r.rfGain.Store(int64(r.state.RFGainDB))
	r.ifGain.Store(int64(r.state.IFGainDB))
	r.bbGain.Store(int64(r.state.BBGainDB))
	r.audioGain.Store(int64(r.state.AudioGainDB))
}

func (r *Receiver) send(c command) {
	select {
	case r.commands <- c:
	case <-r.done:
		log.Debugf("[receiver] Dropping command %d, receiver stopped", c.kind)
	}
}

func (r *Receiver) SetRxMode(index int) {
	r.send(command{kind: cmdSetRxMode, value: int64(index)})
}

func (r *Receiver) SetFrequency(hz int64) {
	r.send(command{kind: cmdSetFrequency, value: hz})
}

func (r *Receiver) SetRFGain(db int) {
	r.send(command{kind: cmdSetRFGain, value: int64(db)})
}

func (r *Receiver) SetIFGain(db int) {
	r.send(command{kind: cmdSetIFGain, value: int64(db)})
}

func (r *Receiver) SetBBGain(db int) {
	r.send(command{kind: cmdSetBBGain, value: int64(db)})
}

func (r *Receiver) SetAudioGain(db int) {
	r.send(command{kind: cmdSetAudioGain, value: int64(db)})
}

func (r *Receiver) Status() Status {
	index := int(r.modeIndex.Load())
	s := Status{
		Mode:        Configurations[index].Name,
		ModeIndex:   index,
		TunedHz:     r.tunedHz.Load(),
		RFGainDB:    int(r.rfGain.Load()),
		IFGainDB:    int(r.ifGain.Load()),
		BBGainDB:    int(r.bbGain.Load()),
		AudioGainDB: int(r.audioGain.Load()),
		Level:       math.Float32frombits(r.level.Load()),
		Quality:     math.Float64frombits(r.quality.Load()),
		Load:        math.Float64frombits(r.load.Load()),
		Blocks:      r.blocks.Load(),
		Overruns:    r.buffers.Overruns(),
	}
	if r.queue != nil {
		s.DroppedPayloads = r.queue.Dropped()
	}
	return s
}
