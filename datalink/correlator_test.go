package datalink

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const tpmsAccessCode = 0b01010101010101010101010101011110

func feedCode(c *AccessCodeCorrelator, code uint64, length int) bool {
	var matched bool
	for i := length - 1; i >= 0; i-- {
		matched = c.Execute(uint8(code>>i) & 1)
	}
	return matched
}

func TestNewAccessCodeCorrelator_Length(t *testing.T) {
	_, err := NewAccessCodeCorrelator(0, 0, 0)
	assert.ErrorIs(t, err, ErrCodeLength)

	_, err = NewAccessCodeCorrelator(0, 65, 0)
	assert.ErrorIs(t, err, ErrCodeLength)

	c, err := NewAccessCodeCorrelator(^uint64(0), 64, 0)
	require.NoError(t, err)
	assert.True(t, feedCode(c, ^uint64(0), 64))
}

func TestAccessCodeCorrelator_Flips(t *testing.T) {
	const tolerance = 2
	cases := []struct {
		name    string
		flips   []int
		matched bool
	}{
		{"exact", nil, true},
		{"one flip", []int{5}, true},
		{"at tolerance", []int{0, 31}, true},
		{"tolerance plus one", []int{3, 17, 30}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewAccessCodeCorrelator(tpmsAccessCode, 32, tolerance)
			require.NoError(t, err)

			code := uint64(tpmsAccessCode)
			for _, f := range tc.flips {
				code ^= 1 << f
			}
			assert.Equal(t, tc.matched, feedCode(c, code, 32))
			assert.Equal(t, len(tc.flips), c.Distance())
		})
	}
}

func TestAccessCodeCorrelator_IgnoresBitsOutsideMask(t *testing.T) {
	c, err := NewAccessCodeCorrelator(0b1011, 4, 0)
	require.NoError(t, err)

	// Older bits shifted past the code length must not count.
	feedCode(c, 0b1111_0000, 8)
	assert.True(t, feedCode(c, 0b1011, 4))
}

func TestAccessCodeCorrelator_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(1, 64).Draw(t, "length")
		tolerance := rapid.IntRange(0, 4).Draw(t, "tolerance")
		code := rapid.Uint64().Draw(t, "code")
		stream := rapid.SliceOfN(rapid.Uint8Range(0, 1), 1, 200).Draw(t, "stream")

		c, err := NewAccessCodeCorrelator(code, length, tolerance)
		require.NoError(t, err)

		mask := ^uint64(0)
		if length < 64 {
			mask = (uint64(1) << length) - 1
		}

		var history uint64
		for _, bit := range stream {
			history = history<<1 | uint64(bit)
			want := bits.OnesCount64((history^code)&mask) <= tolerance
			assert.Equal(t, want, c.Execute(bit))
		}
	})
}
