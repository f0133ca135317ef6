package radio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/portarx/baseband"
	"github.com/jrwynneiii/portarx/config"
	"github.com/jrwynneiii/portarx/receiver"

	"hz.tools/rfcap"
	"hz.tools/sdr"
	"hz.tools/sdr/stream"
)

// blockReader fills a block of samples, returning io.EOF once the capture
// runs dry.
type blockReader interface {
	ReadBlock(block []baseband.ComplexS8) error
	Close() error
}

// rawReader reads headerless interleaved signed 8 bit IQ, the format
// hackrf_transfer writes.
type rawReader struct {
	f   *os.File
	buf []byte
}

func (r *rawReader) ReadBlock(block []baseband.ComplexS8) error {
	if cap(r.buf) < 2*len(block) {
		r.buf = make([]byte, 2*len(block))
	}
	if _, err := io.ReadFull(r.f, r.buf[:2*len(block)]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return io.EOF
		}
		return err
	}
	baseband.FromInterleaved(block, r.buf)
	return nil
}

func (r *rawReader) Close() error {
	return r.f.Close()
}

// rfcapReader reads an rfcap capture of any sample format, converted to I8.
type rfcapReader struct {
	f      *os.File
	reader sdr.Reader
	buf    sdr.SamplesI8
}

func (r *rfcapReader) ReadBlock(block []baseband.ComplexS8) error {
	if len(r.buf) < len(block) {
		r.buf = make(sdr.SamplesI8, len(block))
	}
	n, err := sdr.ReadFull(r.reader, r.buf[:len(block)])
	if err != nil {
		return err
	}
	if n < len(block) {
		return io.EOF
	}
	for i, s := range r.buf[:n] {
		block[i] = baseband.ComplexS8{I: s[0], Q: s[1]}
	}
	return nil
}

func (r *rfcapReader) Close() error {
	return r.f.Close()
}

func openCapture(path string) (blockReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".rfcap") {
		return &rawReader{f: f}, nil
	}
	reader, header, err := rfcap.Reader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not read rfcap header: %w", err)
	}
	log.Debugf("[radio] rfcap header: %+v", header)
	if reader, err = stream.ConvertReader(reader, sdr.SampleFormatI8); err != nil {
		f.Close()
		return nil, err
	}
	return &rfcapReader{f: f, reader: reader}, nil
}

// File replays a capture as if it came from a radio. Tuning and gain
// requests are recorded but have no effect on the samples.
type File struct {
	Path       string
	Loop       bool
	Realtime   bool
	SampleRate uint32
	Decimation uint32
	Frequency  int64
	Gains      [3]int

	reader blockReader
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	err    error
}

func NewFile(conf config.RadioConf) *File {
	return &File{
		Path:       conf.File,
		Loop:       conf.Loop,
		Realtime:   conf.Realtime,
		Decimation: 1,
	}
}

func (f *File) SetFrequency(hz int64) error {
	f.Frequency = hz
	return nil
}

func (f *File) SetSampleRate(hz uint32) error {
	f.SampleRate = hz
	return nil
}

func (f *File) SetBandwidth(uint32) error {
	return nil
}

func (f *File) SetDecimation(factor uint32) error {
	if factor == 0 {
		return fmt.Errorf("invalid decimation %d", factor)
	}
	f.Decimation = factor
	return nil
}

func (f *File) SetGain(stage receiver.GainStage, db int) error {
	f.Gains[stage] = db
	return nil
}

// blockPeriod is how long one block lasts at the configured rate.
func (f *File) blockPeriod() time.Duration {
	rate := f.SampleRate / f.Decimation
	if rate == 0 {
		return 0
	}
	return time.Duration(float64(baseband.BlockSize) / float64(rate) * float64(time.Second))
}

func (f *File) StartStream(ctx context.Context, buffers *baseband.DoubleBuffer) error {
	if f.reader == nil {
		reader, err := openCapture(f.Path)
		if err != nil {
			return err
		}
		f.reader = reader
	}
	f.stop = make(chan struct{})
	f.wg.Add(1)
	go f.run(ctx, buffers, f.stop)
	return nil
}

func (f *File) run(ctx context.Context, buffers *baseband.DoubleBuffer, stop chan struct{}) {
	defer f.wg.Done()

	var tick <-chan time.Time
	if period := f.blockPeriod(); f.Realtime && period > 0 {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			default:
			}
		}

		index := buffers.Fill()
		err := f.reader.ReadBlock(buffers.Block(index))
		if errors.Is(err, io.EOF) && f.Loop {
			log.Debugf("[radio] Rewinding %s", f.Path)
			f.reader.Close()
			f.reader, err = openCapture(f.Path)
			if err == nil {
				err = f.reader.ReadBlock(buffers.Block(index))
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Errorf("[radio] Reading %s: %s", f.Path, err.Error())
			}
			f.setErr(err)
			if index != baseband.Scratch {
				buffers.Release(index)
			}
			return
		}
		buffers.Commit(index)
	}
}

func (f *File) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Err returns why the stream ended on its own, io.EOF at the end of a
// capture that does not loop.
func (f *File) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *File) StopStream() error {
	if f.stop == nil {
		return nil
	}
	close(f.stop)
	f.wg.Wait()
	f.stop = nil
	return nil
}

func (f *File) Close() error {
	f.StopStream()
	if f.reader == nil {
		return nil
	}
	err := f.reader.Close()
	f.reader = nil
	return err
}
