package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	raw := []byte{
		0x10, 0x00, 0x00, 0x00, // offset
		0x00, 0x01, 0x00, 0x00, // capacity
		0x05, 0x00, 0x00, 0x00, // length
		0xff, 0xff, // trailing bytes are ignored
	}
	r := Decode(raw)
	assert.Equal(t, Region{Offset: 16, Capacity: 256, Length: 5}, r)
	assert.False(t, r.IsNull())
	assert.Equal(t, uint64(21), r.End())
}

func TestEncodeIsLittleEndian(t *testing.T) {
	b := Encode(Region{Offset: 0x04030201, Capacity: 0x08070605, Length: 0x0c0b0a09})
	require.Len(t, b, Size)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, b)
}

func TestEncodeDecode(t *testing.T) {
	cases := map[string]Region{
		"null":     {},
		"empty":    {Offset: 8, Capacity: 0, Length: 0},
		"full":     {Offset: 1024, Capacity: 64, Length: 64},
		"max":      {Offset: ^uint32(0), Capacity: ^uint32(0), Length: ^uint32(0)},
		"unfilled": {Offset: 77, Capacity: 100, Length: 3},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, r, Decode(Encode(r)))
		})
	}
}

func TestEncodeLengthTouchesOnlyLengthWord(t *testing.T) {
	mem := Encode(Region{Offset: 40, Capacity: 10, Length: 0})
	off := LengthOffset(0)
	copy(mem[off:], EncodeLength(7))

	r := Decode(mem)
	assert.Equal(t, uint32(40), r.Offset)
	assert.Equal(t, uint32(10), r.Capacity)
	assert.Equal(t, uint32(7), r.Length)
}

func TestFits(t *testing.T) {
	r := Region{Offset: 1, Capacity: 4}
	assert.True(t, r.Fits(0))
	assert.True(t, r.Fits(4))
	assert.False(t, r.Fits(5))
}

func TestEndDoesNotWrap(t *testing.T) {
	r := Region{Offset: ^uint32(0), Length: 2}
	assert.Equal(t, uint64(^uint32(0))+2, r.End())
}
