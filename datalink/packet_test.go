package datalink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	calls   int
	payload []byte
	bits    int
}

func (c *capture) handle(payload []byte, bits int) {
	c.calls++
	c.payload = append([]byte(nil), payload...)
	c.bits = bits
}

func TestNewPacketBuilder_Limits(t *testing.T) {
	_, err := NewPacketBuilder(PayloadCapacity+1, nil)
	assert.ErrorIs(t, err, ErrPayloadTooLong)

	_, err = NewPacketBuilder(0, nil)
	assert.ErrorIs(t, err, ErrPayloadEmpty)

	p, err := NewPacketBuilder(PayloadCapacity, nil)
	require.NoError(t, err)
	assert.Equal(t, StateSearching, p.State())
}

func TestPacketBuilder_HandlerCalledOnce(t *testing.T) {
	var got capture
	p, err := NewPacketBuilder(12, got.handle)
	require.NoError(t, err)

	// Bits before sync are dropped.
	p.Execute(1, false)
	p.Execute(1, false)
	assert.Equal(t, StateSearching, p.State())

	p.Execute(0, true)
	assert.Equal(t, StateReceiving, p.State())

	bitsIn := []uint8{1, 0, 1, 1, 0, 0, 1, 0, 1, 1, 1, 1}
	for _, b := range bitsIn {
		// Mid-payload matches must not restart the packet.
		p.Execute(b, true)
	}

	assert.Equal(t, 1, got.calls)
	assert.Equal(t, 12, got.bits)
	assert.Equal(t, []byte{0b10110010, 0b11110000}, got.payload)
	assert.Equal(t, StateSearching, p.State())
}

func TestPacketBuilder_ShortPayloadNeverDelivered(t *testing.T) {
	var got capture
	p, err := NewPacketBuilder(74, got.handle)
	require.NoError(t, err)

	p.Execute(0, true)
	for i := 0; i < 73; i++ {
		p.Execute(uint8(i&1), false)
	}

	assert.Equal(t, 0, got.calls)
	assert.Equal(t, 73, p.BitsReceived())
	assert.Equal(t, StateReceiving, p.State())
}

func TestPacketBuilder_Repeats(t *testing.T) {
	var got capture
	p, err := NewPacketBuilder(8, got.handle)
	require.NoError(t, err)

	for packet := 0; packet < 3; packet++ {
		p.Execute(0, true)
		for i := 7; i >= 0; i-- {
			p.Execute(uint8(packet>>i)&1, false)
		}
		assert.Equal(t, []byte{byte(packet)}, got.payload)
	}
	assert.Equal(t, 3, got.calls)
}
