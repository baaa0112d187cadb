package memory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFatPointer(t *testing.T) {
	tests := []struct {
		name   string
		offset uint32
		length uint32
		want   uint64
	}{
		{
			name:   "typical values",
			offset: 0x12345678,
			length: 0xABCDEF00,
			want:   uint64(0x12345678)<<32 | 0xABCDEF00,
		},
		{
			name: "null descriptor",
			want: 0,
		},
		{
			name:   "max offset",
			offset: math.MaxUint32,
			length: 1,
			want:   uint64(math.MaxUint32)<<32 | 1,
		},
		{
			name:   "max length",
			offset: 1,
			length: math.MaxUint32,
			want:   1<<32 | uint64(math.MaxUint32),
		},
		{
			name:   "zero offset with length",
			offset: 0,
			length: 16,
			want:   16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewFatPointer(tt.offset, tt.length)
			assert.Equal(t, tt.want, uint64(p), "packed value mismatch")
			assert.Equal(t, tt.offset, p.Offset(), "offset mismatch")
			assert.Equal(t, tt.length, p.Length(), "length mismatch")
		})
	}
}

func TestFatPointer_RoundTripSweep(t *testing.T) {
	values := []uint32{0, 1, 2, 255, 256, 65535, 65536, 1 << 24, math.MaxUint32 - 1, math.MaxUint32}
	for _, o := range values {
		for _, n := range values {
			p := NewFatPointer(o, n)
			require.Equal(t, o, p.Offset())
			require.Equal(t, n, p.Length())
		}
	}
}

func TestFatPointer_BitwiseEquality(t *testing.T) {
	assert.Equal(t, NewFatPointer(8, 3), NewFatPointer(8, 3))
	assert.NotEqual(t, NewFatPointer(8, 3), NewFatPointer(3, 8))
}

func TestFatPointerFor(t *testing.T) {
	p, err := FatPointerFor(64, 10)
	require.NoError(t, err)
	assert.Equal(t, NewFatPointer(64, 10), p)

	_, err = FatPointerFor(64, int(MaxLength)+1)
	require.ErrorIs(t, err, ErrPayloadTooLarge)

	_, err = FatPointerFor(64, -1)
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestFatPointer_IsNullAndString(t *testing.T) {
	assert.True(t, FatPointer(0).IsNull())
	assert.False(t, NewFatPointer(0, 1).IsNull())
	assert.Equal(t, "0x10+4", NewFatPointer(16, 4).String())
}
