package baseband

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaturateS16(t *testing.T) {
	assert.Equal(t, int16(math.MaxInt16), SaturateS16(40000))
	assert.Equal(t, int16(math.MinInt16), SaturateS16(-40000))
	assert.Equal(t, int16(-12), SaturateS16(-12))
}

func TestSaturateF32(t *testing.T) {
	assert.Equal(t, int16(math.MaxInt16), SaturateF32(1e9))
	assert.Equal(t, int16(math.MinInt16), SaturateF32(-1e9))
	assert.Equal(t, int16(3), SaturateF32(2.6))
}

func TestFromInterleaved(t *testing.T) {
	dst := make([]ComplexS8, 4)
	n := FromInterleaved(dst, []byte{0x01, 0xff, 0x80, 0x7f, 0x05})

	assert.Equal(t, 2, n)
	assert.Equal(t, ComplexS8{1, -1}, dst[0])
	assert.Equal(t, ComplexS8{-128, 127}, dst[1])

	n = FromInterleavedS8(dst, []int8{3, 4, 5, 6})
	assert.Equal(t, 2, n)
	assert.Equal(t, ComplexS8{5, 6}, dst[1])
}
