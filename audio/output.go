package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/portarx/baseband"
)

const (
	SampleRate = 48000

	MinGainDB = -74
	MaxGainDB = 6

	// DefaultDepth buffers about 40ms.
	DefaultDepth = 64
)

// Output queues fixed size blocks from the receiver for a pull based player.
// Chunks cycle between a free and a ready channel so the receiver never
// blocks; when the player falls behind new blocks are dropped.
type Output struct {
	chunks [][]int16
	free   chan int
	ready  chan int

	// player side
	current int
	pos     int

	muted     atomic.Bool
	gain      atomic.Uint32
	dropped   atomic.Uint64
	underruns atomic.Uint64

	raw    io.Writer
	rawBuf []byte
}

func NewOutput(depth int) *Output {
	if depth < 2 {
		depth = 2
	}
	o := &Output{
		chunks:  make([][]int16, depth),
		free:    make(chan int, depth),
		ready:   make(chan int, depth),
		current: -1,
		rawBuf:  make([]byte, 2*baseband.AudioBlockSize),
	}
	for i := range o.chunks {
		o.chunks[i] = make([]int16, baseband.AudioBlockSize)
		o.free <- i
	}
	o.gain.Store(math.Float32bits(1))
	o.muted.Store(true)
	return o
}

// Tee also writes every unmuted block to w as signed 16 bit little endian.
func (o *Output) Tee(w io.Writer) {
	o.raw = w
}

// CopyToAudioOutput queues one block. Anything that is not exactly
// baseband.AudioBlockSize samples is ignored.
func (o *Output) CopyToAudioOutput(samples []int16) {
	if len(samples) != baseband.AudioBlockSize || o.muted.Load() {
		return
	}

	var index int
	select {
	case index = <-o.free:
	default:
		o.dropped.Add(1)
		return
	}

	gain := math.Float32frombits(o.gain.Load())
	chunk := o.chunks[index]
	for i, s := range samples {
		chunk[i] = baseband.SaturateF32(float32(s) * gain)
	}

	if o.raw != nil {
		for i, s := range chunk {
			binary.LittleEndian.PutUint16(o.rawBuf[2*i:], uint16(s))
		}
		if _, err := o.raw.Write(o.rawBuf); err != nil {
			log.Errorf("[audio] Raw output failed, disabling: %s", err.Error())
			o.raw = nil
		}
	}
	o.ready <- index
}

// Read fills out with queued audio and pads with silence on underrun.
// Only one goroutine may call Read.
func (o *Output) Read(out []int16) {
	n := 0
	for n < len(out) {
		if o.current < 0 {
			select {
			case o.current = <-o.ready:
				o.pos = 0
			default:
				clear(out[n:])
				o.underruns.Add(1)
				return
			}
		}
		copied := copy(out[n:], o.chunks[o.current][o.pos:])
		n += copied
		o.pos += copied
		if o.pos == len(o.chunks[o.current]) {
			o.free <- o.current
			o.current = -1
		}
	}
}

// Mute stops accepting blocks and discards what is queued.
func (o *Output) Mute() {
	o.muted.Store(true)
	for {
		select {
		case i := <-o.ready:
			o.free <- i
		default:
			return
		}
	}
}

func (o *Output) Unmute() {
	o.muted.Store(false)
}

func (o *Output) Muted() bool {
	return o.muted.Load()
}

// SetGain sets the volume in dB, clamped to MinGainDB..MaxGainDB, and
// returns the value applied.
func (o *Output) SetGain(db int) int {
	db = min(max(db, MinGainDB), MaxGainDB)
	o.gain.Store(math.Float32bits(float32(math.Pow(10, float64(db)/20))))
	return db
}

func (o *Output) Dropped() uint64 {
	return o.dropped.Load()
}

func (o *Output) Underruns() uint64 {
	return o.underruns.Load()
}
