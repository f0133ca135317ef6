package datalink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestBitHistory_Match(t *testing.T) {
	var h BitHistory
	for _, b := range []uint8{1, 1, 0, 1, 0} {
		h.Push(b)
	}
	assert.True(t, h.Match(0b1010, 4))
	assert.True(t, h.Match(0b11010, 5))
	assert.False(t, h.Match(0b0101, 4))
}

func TestBitWriter_PartialByte(t *testing.T) {
	buf := make([]byte, 2)
	w := NewBitWriter(buf)
	for _, b := range []uint8{1, 0, 1, 0, 1, 0, 1, 0, 1, 1, 0} {
		w.Push(b)
	}
	w.Close()

	assert.Equal(t, 11, w.Size())
	assert.Equal(t, []byte{0xaa, 0b11000000}, w.Bytes())
	assert.Equal(t, uint64(0b110), Extract(buf, 8, 3))
}

func TestBitWriter_ReaderRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.SliceOfN(rapid.Uint8Range(0, 1), 1, 256).Draw(t, "bits")

		buf := make([]byte, 32)
		w := NewBitWriter(buf)
		for _, b := range in {
			w.Push(b)
		}
		w.Close()

		r := NewBitReader(w.Bytes())
		for i, b := range in {
			assert.Equal(t, b, r.Read(), "bit %d", i)
		}
	})
}

func TestExtract(t *testing.T) {
	buf := []byte{0x12, 0x34, 0x56}
	assert.Equal(t, uint64(0x123456), Extract(buf, 0, 24))
	assert.Equal(t, uint64(0x3), Extract(buf, 8, 4))
	assert.Equal(t, uint64(0x45), Extract(buf, 12, 8))
}
