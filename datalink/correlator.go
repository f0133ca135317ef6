package datalink

import (
	"errors"
	"math/bits"
)

var ErrCodeLength = errors.New("access code length must be between 1 and 64 bits")

// AccessCodeCorrelator declares frame sync when the most recent bits are
// within a Hamming distance of the access code. It never resets its history
// after a match; the packet builder gates repeated matches.
type AccessCodeCorrelator struct {
	history     uint64
	code        uint64
	mask        uint64
	maxDistance int
}

func NewAccessCodeCorrelator(code uint64, length int, maxDistance int) (*AccessCodeCorrelator, error) {
	if length <= 0 || length > 64 {
		return nil, ErrCodeLength
	}
	mask := ^uint64(0)
	if length < 64 {
		mask = (uint64(1) << length) - 1
	}
	return &AccessCodeCorrelator{
		code:        code & mask,
		mask:        mask,
		maxDistance: maxDistance,
	}, nil
}

// Execute shifts bit into the history and reports whether the history matches.
func (c *AccessCodeCorrelator) Execute(bit uint8) bool {
	c.history = (c.history << 1) | uint64(bit&1)
	return c.Distance() <= c.maxDistance
}

// Distance is the Hamming distance between the masked history and the code.
func (c *AccessCodeCorrelator) Distance() int {
	return bits.OnesCount64((c.history ^ c.code) & c.mask)
}
