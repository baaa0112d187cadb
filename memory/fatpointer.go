// Package memory implements the descriptor and allocator for every buffer that crosses
// the guest/host boundary.
//
// A FatPointer packs the offset of a buffer in shared linear memory into its high 32
// bits and the buffer length into its low 32 bits. Buffers handed to the host through an
// Arena are leaked: the guest never frees them, because it cannot know when the host has
// finished reading. Reclaiming that memory is left to the host, which discards and
// recreates guest instances.
package memory

import (
	"errors"
	"fmt"
	"math"
)

// MaxLength is the largest buffer a FatPointer can describe.
const MaxLength = math.MaxUint32

var (
	// ErrPayloadTooLarge reports a buffer whose length does not fit the fat pointer width.
	ErrPayloadTooLarge = errors.New("memory: payload length exceeds fat pointer width")

	// ErrOutOfMemory reports an allocation the arena could not satisfy.
	ErrOutOfMemory = errors.New("memory: allocation failed")
)

// FatPointer is the only descriptor used for data crossing the boundary.
// High 32 bits: offset into linear memory. Low 32 bits: length in bytes.
type FatPointer uint64

// NewFatPointer packs an offset and a length.
func NewFatPointer(offset, length uint32) FatPointer {
	return FatPointer(uint64(offset)<<32 | uint64(length))
}

// FatPointerFor packs an offset with a length given as an int, rejecting lengths the
// descriptor cannot represent.
func FatPointerFor(offset uint32, n int) (FatPointer, error) {
	if n < 0 || uint64(n) > MaxLength {
		return 0, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, n)
	}
	return NewFatPointer(offset, uint32(n)), nil
}

// Offset returns the location of the buffer in linear memory.
func (p FatPointer) Offset() uint32 {
	return uint32(p >> 32)
}

// Length returns the size of the buffer in bytes.
func (p FatPointer) Length() uint32 {
	return uint32(p)
}

// IsNull reports whether p describes no buffer at all.
func (p FatPointer) IsNull() bool {
	return p == 0
}

func (p FatPointer) String() string {
	return fmt.Sprintf("%#x+%d", p.Offset(), p.Length())
}
