package decode

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/jrwynneiii/portarx/datalink"
)

var ErrManchester = errors.New("invalid manchester symbols")

const (
	tpmsASKBits = 37
	tpmsFSKBits = 80
)

// TPMSReading is one decoded OOK tyre pressure transmission.
type TPMSReading struct {
	Flags    uint8
	ID       uint32
	Pressure uint8
	Flags2   uint8
	// BitErrors counts invalid Manchester dibits.
	BitErrors int
}

func (r TPMSReading) String() string {
	return fmt.Sprintf("%03b %8d %3d %02b", r.Flags, r.ID, r.Pressure, r.Flags2)
}

// TPMSFSKReading is one FSK tyre pressure transmission. Values holds the
// byte pair picked by the header; Known is false for unrecognised headers.
type TPMSFSKReading struct {
	Bytes     [10]byte
	Values    [2]uint8
	Known     bool
	BitErrors int
}

func (r TPMSFSKReading) String() string {
	if !r.Known {
		return fmt.Sprintf("%x", r.Bytes)
	}
	return fmt.Sprintf("%x %03d %03d", r.Bytes, r.Values[0], r.Values[1])
}

func countErrors(errs []byte) int {
	n := 0
	for _, e := range errs {
		n += bits.OnesCount8(e)
	}
	return n
}

// DecodeTPMSASK unpacks the 37 data bits of an OOK sensor: three flag bits,
// a 24 bit ID, an 8 bit pressure and two more flags.
func DecodeTPMSASK(payload []byte) (TPMSReading, error) {
	var value, errs [5]byte
	datalink.ManchesterDecode(payload, value[:], errs[:], tpmsASKBits)

	r := TPMSReading{
		Flags:     value[0] >> 5,
		ID:        (((uint32(value[0]&0x1f)<<8|uint32(value[1]))<<8|uint32(value[2]))<<3 | uint32(value[3]>>5)),
		Pressure:  (value[3]&0x1f)<<3 | value[4]>>5,
		Flags2:    (value[4] >> 3) & 0b11,
		BitErrors: countErrors(errs[:]),
	}
	if r.BitErrors > 0 {
		return r, ErrManchester
	}
	return r, nil
}

// DecodeTPMSFSK Manchester decodes the 80 bit FSK payload and picks the
// byte pair that carries readings for the recognised headers.
func DecodeTPMSFSK(payload []byte) (TPMSFSKReading, error) {
	var value, errs [10]byte
	datalink.ManchesterDecode(payload, value[:], errs[:], tpmsFSKBits)

	r := TPMSFSKReading{
		Bytes:     value,
		BitErrors: countErrors(errs[:]),
		Known:     true,
	}
	switch {
	case value[0]>>5 == 0b001:
		r.Values = [2]uint8{value[6], value[7]}
	case value[0]>>6 == 0b01:
		r.Values = [2]uint8{value[5], value[6]}
	case value[0]>>3 == 0b11001:
		r.Values = [2]uint8{value[4], value[5]}
	case value[0]>>3 == 0b11110:
		r.Values = [2]uint8{value[5], value[6]}
	default:
		r.Known = false
	}
	if r.BitErrors > 0 {
		return r, ErrManchester
	}
	return r, nil
}
