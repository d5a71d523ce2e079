package db

import (
	dbm "github.com/cometbft/cometbft-db"
	"github.com/cockroachdb/errors"

	"github.com/CosmWasm/wasm2vm/types"
)

// DBStore exposes a namespace of a cometbft-db database as a KVStore. Every
// guest key is stored under prefix, so guests may use empty keys.
//
// The KVStore capability has no error channel. Backend failures panic; inside
// a host function that aborts the current invocation.
type DBStore struct {
	db     dbm.DB
	prefix []byte
}

var _ types.KVStore = (*DBStore)(nil)

// NewDBStore wraps db. prefix must not be empty.
func NewDBStore(db dbm.DB, prefix []byte) (*DBStore, error) {
	if len(prefix) == 0 {
		return nil, errors.New("db store prefix must not be empty")
	}
	return &DBStore{db: db, prefix: append([]byte{}, prefix...)}, nil
}

// OpenDB opens a database of the given backend ("goleveldb", "memdb") in dir.
func OpenDB(name, backend, dir string) (dbm.DB, error) {
	db, err := dbm.NewDB(name, dbm.BackendType(backend), dir)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database %q in %s", backend, name, dir)
	}
	return db, nil
}

func (s *DBStore) key(key []byte) []byte {
	k := make([]byte, 0, len(s.prefix)+len(key))
	k = append(k, s.prefix...)
	return append(k, key...)
}

func (s *DBStore) Get(key []byte) []byte {
	v, err := s.db.Get(s.key(key))
	if err != nil {
		panic(errors.Wrap(err, "db get"))
	}
	return v
}

func (s *DBStore) Set(key, value []byte) {
	if value == nil {
		value = []byte{}
	}
	if err := s.db.Set(s.key(key), value); err != nil {
		panic(errors.Wrap(err, "db set"))
	}
}

func (s *DBStore) Delete(key []byte) {
	if err := s.db.Delete(s.key(key)); err != nil {
		panic(errors.Wrap(err, "db delete"))
	}
}

// Each calls fn for every pair in the namespace, in ascending key order, with
// the prefix stripped.
func (s *DBStore) Each(fn func(key, value []byte) bool) error {
	it, err := s.db.Iterator(s.prefix, prefixEnd(s.prefix))
	if err != nil {
		return errors.Wrap(err, "db iterator")
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		if !fn(it.Key()[len(s.prefix):], it.Value()) {
			break
		}
	}
	return it.Error()
}

// prefixEnd returns the exclusive upper bound of keys starting with prefix,
// or nil if there is none.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
