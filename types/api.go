package types

import "github.com/cockroachdb/errors"

type (
	// HumanizeAddressFunc is a type for functions that convert a canonical address (bytes)
	// to a human readable address (typically bech32).
	HumanizeAddressFunc func([]byte) (string, error)
	// CanonicalizeAddressFunc is a type for functions that convert a human readable address (typically bech32)
	// to a canonical address (bytes).
	CanonicalizeAddressFunc func(string) ([]byte, error)
)

// GoAPI is the address capability exposed to guests.
type GoAPI struct {
	HumanizeAddress     HumanizeAddressFunc
	CanonicalizeAddress CanonicalizeAddressFunc
}

// KVStore is the storage capability exposed to guests. Get returns nil for
// absent keys. Backends are assumed not to fail.
type KVStore interface {
	Get(key []byte) []byte
	Set(key, value []byte)
	Delete(key []byte)
}

// Querier answers chain queries issued by guests.
type Querier interface {
	Query(request []byte) ([]byte, error)
}

// ErrQueryUnsupported is returned by NoQuerier.
var ErrQueryUnsupported = errors.New("chain queries are not supported by this host")

// NoQuerier rejects every query. It is the default when no querier is wired.
type NoQuerier struct{}

var _ Querier = NoQuerier{}

func (NoQuerier) Query([]byte) ([]byte, error) {
	return nil, ErrQueryUnsupported
}
