// Package region implements the fixed-layout header that describes a buffer
// living in guest linear memory.
//
// A region header is three little-endian uint32 words laid out back to back:
//
//	offset   | capacity | length
//	[0:4]    | [4:8]    | [8:12]
//
// The codec performs no bounds validation against guest memory. Callers that
// read headers out of untrusted memory must check bounds themselves.
package region

import "encoding/binary"

// Size is the encoded size of a Region header in bytes.
const Size = 12

const (
	offsetField   = 0
	capacityField = 4
	lengthField   = 8
)

// Region describes a buffer in guest memory. An Offset of 0 is the null region
// and must never be dereferenced.
type Region struct {
	Offset   uint32
	Capacity uint32
	Length   uint32
}

// IsNull reports whether the region points at the reserved null offset.
func (r Region) IsNull() bool {
	return r.Offset == 0
}

// Fits reports whether n bytes can be stored in the region without exceeding
// its capacity.
func (r Region) Fits(n uint32) bool {
	return n <= r.Capacity
}

// End returns the first byte past the valid data, as a uint64 so that
// attacker-controlled headers cannot wrap around.
func (r Region) End() uint64 {
	return uint64(r.Offset) + uint64(r.Length)
}

// Decode reads a header from the first Size bytes of b. It panics if b is
// shorter than Size.
func Decode(b []byte) Region {
	_ = b[Size-1]
	return Region{
		Offset:   binary.LittleEndian.Uint32(b[offsetField:]),
		Capacity: binary.LittleEndian.Uint32(b[capacityField:]),
		Length:   binary.LittleEndian.Uint32(b[lengthField:]),
	}
}

// Encode returns the wire form of r.
func Encode(r Region) []byte {
	b := make([]byte, Size)
	Put(b, r)
	return b
}

// Put writes the wire form of r into the first Size bytes of b.
func Put(b []byte, r Region) {
	_ = b[Size-1]
	binary.LittleEndian.PutUint32(b[offsetField:], r.Offset)
	binary.LittleEndian.PutUint32(b[capacityField:], r.Capacity)
	binary.LittleEndian.PutUint32(b[lengthField:], r.Length)
}

// LengthOffset returns the address of the length word of the header stored at
// ptr. It is the only field the host is allowed to update.
func LengthOffset(ptr uint32) uint32 {
	return ptr + lengthField
}

// EncodeLength returns the wire form of a length word.
func EncodeLength(length uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, length)
	return b
}
