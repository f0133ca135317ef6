package decode

import (
	"errors"
	"fmt"

	"github.com/jrwynneiii/portarx/datalink"
)

var (
	ErrHDLCAbort     = errors.New("seven ones in a row")
	ErrNoClosingFlag = errors.New("no closing flag")
	ErrFrameAlign    = errors.New("frame is not a whole number of octets")
	ErrFrameShort    = errors.New("frame too short")
	ErrFCS           = errors.New("frame check sequence mismatch")
)

// minAISFrame is the smallest frame that holds a type and MMSI plus the FCS.
const minAISFrame = 5 + 2

// AISMessage carries the fields every AIS message starts with.
type AISMessage struct {
	Type   uint8
	Repeat uint8
	MMSI   uint32
	// Data is the message without the FCS.
	Data []byte
}

func (m AISMessage) String() string {
	return fmt.Sprintf("type %2d mmsi %09d (%d bytes)", m.Type, m.MMSI, len(m.Data))
}

// unstuff reads an HDLC frame that follows an opening flag, dropping stuffed
// zeros and stopping at the closing flag. Octets are sent LSB first.
func unstuff(payload []byte, bitCount int) ([]byte, error) {
	var pattern, octet byte
	n := 0
	frame := make([]byte, 0, bitCount/8)
	r := datalink.NewBitReader(payload)
	for range bitCount {
		bit := r.Read()
		pattern >>= 1
		if bit == 1 {
			pattern |= 0x80
		}

		switch {
		case pattern == 0x7e:
			// The first seven bits of the flag went into octet.
			if n != 7 {
				return nil, ErrFrameAlign
			}
			return frame, nil
		case pattern == 0xfe:
			return nil, ErrHDLCAbort
		case pattern&0xfc == 0x7c:
			// stuffed zero
		default:
			octet >>= 1
			if bit == 1 {
				octet |= 0x80
			}
			n++
			if n == 8 {
				frame = append(frame, octet)
				n = 0
			}
		}
	}
	return nil, ErrNoClosingFlag
}

// fcs is the HDLC frame check sequence, CRC-16/X.25.
func fcs(data []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range data {
		crc ^= uint16(b)
		for range 8 {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return ^crc
}

// field reads length bits starting at bit start, MSB first.
func field(data []byte, start, length int) uint32 {
	return uint32(datalink.Extract(data, start, length))
}

// DecodeAIS recovers the HDLC frame from the bits after the start flag,
// checks its FCS and reads the message header.
func DecodeAIS(payload []byte, bitCount int) (AISMessage, error) {
	frame, err := unstuff(payload, bitCount)
	if err != nil {
		return AISMessage{}, err
	}
	if len(frame) < minAISFrame {
		return AISMessage{}, ErrFrameShort
	}
	data := frame[:len(frame)-2]
	got := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
	if want := fcs(data); got != want {
		return AISMessage{Data: data}, fmt.Errorf("%w: got %04x, want %04x", ErrFCS, got, want)
	}
	return AISMessage{
		Type:   uint8(field(data, 0, 6)),
		Repeat: uint8(field(data, 6, 2)),
		MMSI:   field(data, 8, 30),
		Data:   data,
	}, nil
}
