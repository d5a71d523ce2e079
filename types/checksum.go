package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// ChecksumLen is the length of a checksum in bytes.
const ChecksumLen = 32

// Checksum identifies a compressed module as the SHA-256 hash of the bytes
// the caller submitted. It keys the compiled-module cache.
type Checksum [ChecksumLen]byte

// ChecksumOf hashes code.
func ChecksumOf(code []byte) Checksum {
	return sha256.Sum256(code)
}

// NewChecksum creates a new Checksum from a byte slice.
func NewChecksum(b []byte) (Checksum, error) {
	var cs Checksum
	if len(b) != ChecksumLen {
		return cs, errors.Newf("got %d bytes for checksum, want %d", len(b), ChecksumLen)
	}
	copy(cs[:], b)
	return cs, nil
}

// ParseChecksum decodes a hex string.
func ParseChecksum(s string) (Checksum, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return Checksum{}, errors.Wrap(err, "checksum is not hex")
	}
	return NewChecksum(data)
}

func (cs Checksum) String() string {
	return hex.EncodeToString(cs[:])
}

// Bytes returns the checksum as a byte slice.
func (cs Checksum) Bytes() []byte {
	return cs[:]
}

// MarshalJSON encodes the checksum as a hex string.
func (cs Checksum) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.String())
}

func (cs *Checksum) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return err
	}
	parsed, err := ParseChecksum(s)
	if err != nil {
		return err
	}
	*cs = parsed
	return nil
}
