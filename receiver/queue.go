package receiver

import (
	"sync/atomic"
	"time"

	"github.com/jrwynneiii/portarx/datalink"
)

// Packet is one framed payload, MSB first.
type Packet struct {
	Mode     Mode
	Bits     int
	Data     [datalink.PayloadCapacity / 8]byte
	Received time.Time
}

// Payload returns the bytes that carry Bits.
func (p Packet) Payload() []byte {
	return p.Data[:(p.Bits+7)/8]
}

// PayloadQueue carries packets from the receiver goroutine to consumers.
// Push never blocks; packets that do not fit are counted and dropped.
type PayloadQueue struct {
	packets chan Packet
	dropped atomic.Uint64
}

func NewPayloadQueue(capacity int) *PayloadQueue {
	return &PayloadQueue{packets: make(chan Packet, capacity)}
}

func (q *PayloadQueue) Push(p Packet) bool {
	select {
	case q.packets <- p:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

func (q *PayloadQueue) Packets() <-chan Packet {
	return q.packets
}

func (q *PayloadQueue) Dropped() uint64 {
	return q.dropped.Load()
}
