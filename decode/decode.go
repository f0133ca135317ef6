package decode

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/portarx/receiver"
)

// Message is a framed packet and whatever could be decoded from it.
type Message struct {
	Mode     receiver.Mode
	Received time.Time
	Bits     int
	TPMS     *TPMSReading
	TPMSFSK  *TPMSFSKReading
	AIS      *AISMessage
	Err      error
}

func (m Message) String() string {
	var body string
	switch {
	case m.TPMS != nil:
		body = m.TPMS.String()
	case m.TPMSFSK != nil:
		body = m.TPMSFSK.String()
	case m.AIS != nil:
		body = m.AIS.String()
	}
	if m.Err != nil {
		body = fmt.Sprintf("%s [%s]", body, m.Err.Error())
	}
	return fmt.Sprintf("%s %-8s %s", m.Received.Format("15:04:05"), m.Mode, body)
}

// Result is the metrics label for the outcome of a decode.
func (m Message) Result() string {
	switch {
	case m.Err == nil:
		return "ok"
	case errors.Is(m.Err, ErrManchester):
		return "manchester"
	case errors.Is(m.Err, ErrFCS):
		return "fcs"
	default:
		return "framing"
	}
}

// Decode interprets p according to the mode that framed it.
func Decode(p receiver.Packet) Message {
	m := Message{Mode: p.Mode, Received: p.Received, Bits: p.Bits}
	switch p.Mode {
	case receiver.ModeTPMSASK:
		r, err := DecodeTPMSASK(p.Payload())
		m.TPMS, m.Err = &r, err
	case receiver.ModeTPMSFSK:
		r, err := DecodeTPMSFSK(p.Payload())
		m.TPMSFSK, m.Err = &r, err
	case receiver.ModeAIS:
		msg, err := DecodeAIS(p.Payload(), p.Bits)
		m.AIS, m.Err = &msg, err
	default:
		m.Err = fmt.Errorf("no decoder for %s", p.Mode)
	}
	return m
}

// PacketCounter is told the outcome of every decode.
type PacketCounter interface {
	Packet(mode, result string)
}

// Stats are the decoder's running totals.
type Stats struct {
	TotalPacketsProcessed int
	RxPacketsPerMode      map[string]int
	DroppedPacketsPerMode map[string]int
	Recent                []Message
}

// Decoder drains the receiver's payload queue.
type Decoder struct {
	PacketsInput <-chan receiver.Packet
	counter      PacketCounter
	history      int

	mu                    sync.Mutex
	totalPacketsProcessed int
	rxPacketsPerMode      map[string]int
	droppedPacketsPerMode map[string]int
	recent                []Message
}

// New keeps the last history messages for display. counter may be nil.
func New(input <-chan receiver.Packet, history int, counter PacketCounter) *Decoder {
	return &Decoder{
		PacketsInput:          input,
		counter:               counter,
		history:               history,
		rxPacketsPerMode:      make(map[string]int),
		droppedPacketsPerMode: make(map[string]int),
	}
}

func (d *Decoder) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-d.PacketsInput:
			d.handle(Decode(p))
		}
	}
}

func (d *Decoder) handle(m Message) {
	mode := m.Mode.String()
	if m.Err != nil {
		log.Debugf("[decode] Rejected %s packet: %s", mode, m.Err.Error())
	} else {
		log.Infof("[decode] %s", m)
	}

	d.mu.Lock()
	d.totalPacketsProcessed++
	if m.Err != nil {
		d.droppedPacketsPerMode[mode]++
	} else {
		d.rxPacketsPerMode[mode]++
	}
	d.recent = append(d.recent, m)
	if len(d.recent) > d.history {
		d.recent = d.recent[len(d.recent)-d.history:]
	}
	d.mu.Unlock()

	if d.counter != nil {
		d.counter.Packet(mode, m.Result())
	}
}

// Stats returns a copy of the counters and recent messages, newest last.
func (d *Decoder) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := Stats{
		TotalPacketsProcessed: d.totalPacketsProcessed,
		RxPacketsPerMode:      make(map[string]int, len(d.rxPacketsPerMode)),
		DroppedPacketsPerMode: make(map[string]int, len(d.droppedPacketsPerMode)),
		Recent:                append([]Message(nil), d.recent...),
	}
	for k, v := range d.rxPacketsPerMode {
		s.RxPacketsPerMode[k] = v
	}
	for k, v := range d.droppedPacketsPerMode {
		s.DroppedPacketsPerMode[k] = v
	}
	return s
}
