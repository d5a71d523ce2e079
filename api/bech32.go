// Package api provides address and query capabilities that hosts can hand
// to the VM, plus mocks for tests.
package api

import (
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/cockroachdb/errors"

	"github.com/CosmWasm/wasm2vm/types"
)

// MaxCanonicalLength bounds canonical addresses accepted by the bech32 API.
const MaxCanonicalLength = 64

var (
	// ErrWrongPrefix is returned when a human address uses another chain's prefix.
	ErrWrongPrefix = errors.New("address has wrong bech32 prefix")
	// ErrInvalidCanonical is returned for empty or oversized canonical addresses.
	ErrInvalidCanonical = errors.New("invalid canonical address length")
)

// NewBech32API returns a GoAPI that maps canonical addresses to bech32
// strings with the given human readable prefix.
func NewBech32API(prefix string) types.GoAPI {
	return types.GoAPI{
		CanonicalizeAddress: func(human string) ([]byte, error) {
			hrp, data, err := bech32.DecodeToBase256(human)
			if err != nil {
				return nil, errors.Wrapf(err, "decoding %q", human)
			}
			if hrp != prefix {
				return nil, errors.Wrapf(ErrWrongPrefix, "got %q, want %q", hrp, prefix)
			}
			if err := checkCanonical(data); err != nil {
				return nil, err
			}
			return data, nil
		},
		HumanizeAddress: func(canonical []byte) (string, error) {
			if err := checkCanonical(canonical); err != nil {
				return "", err
			}
			human, err := bech32.EncodeFromBase256(prefix, canonical)
			if err != nil {
				return "", errors.Wrap(err, "encoding address")
			}
			return human, nil
		},
	}
}

func checkCanonical(b []byte) error {
	if len(b) == 0 || len(b) > MaxCanonicalLength {
		return errors.Wrapf(ErrInvalidCanonical, "%d bytes", len(b))
	}
	return nil
}
