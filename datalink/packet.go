package datalink

import (
	"errors"
	"fmt"
)

// PayloadCapacity is the largest payload, in bits, a PacketBuilder can hold.
const PayloadCapacity = 256

var ErrPayloadTooLong = fmt.Errorf("payload length exceeds %d bits", PayloadCapacity)
var ErrPayloadEmpty = errors.New("payload length must be positive")

type State int

const (
	StateSearching State = iota
	StateReceiving
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateReceiving:
		return "receiving"
	}
	return "unknown"
}

// PayloadHandler receives a completed payload. The slice is only valid for
// the duration of the call.
type PayloadHandler func(payload []byte, bits int)

type PacketBuilder struct {
	state         State
	bitsReceived  int
	payloadLength int
	payload       [PayloadCapacity / 8]byte
	handler       PayloadHandler
}

func NewPacketBuilder(payloadLength int, handler PayloadHandler) (*PacketBuilder, error) {
	if payloadLength <= 0 {
		return nil, ErrPayloadEmpty
	}
	if payloadLength > PayloadCapacity {
		return nil, fmt.Errorf("%w: got %d", ErrPayloadTooLong, payloadLength)
	}
	return &PacketBuilder{
		state:         StateSearching,
		payloadLength: payloadLength,
		handler:       handler,
	}, nil
}

func (p *PacketBuilder) State() State {
	return p.state
}

func (p *PacketBuilder) BitsReceived() int {
	return p.bitsReceived
}

// Execute feeds one demodulated bit. While searching, bit is discarded and only
// accessCodeFound matters. While receiving, accessCodeFound is ignored.
func (p *PacketBuilder) Execute(bit uint8, accessCodeFound bool) {
	switch p.state {
	case StateSearching:
		if accessCodeFound {
			p.state = StateReceiving
			p.bitsReceived = 0
		}

	case StateReceiving:
		byteIndex := p.bitsReceived >> 3
		mask := byte(1) << ((p.bitsReceived & 7) ^ 7)
		if bit&1 != 0 {
			p.payload[byteIndex] |= mask
		} else {
			p.payload[byteIndex] &^= mask
		}
		p.bitsReceived++

		if p.bitsReceived == p.payloadLength {
			if p.handler != nil {
				p.handler(p.payload[:(p.payloadLength+7)/8], p.bitsReceived)
			}
			p.state = StateSearching
		}

	default:
		p.state = StateSearching
	}
}
