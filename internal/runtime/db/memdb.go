package db

import (
	"bytes"

	"github.com/google/btree"

	"github.com/CosmWasm/wasm2vm/types"
)

const bTreeDegree = 32

// item is a btree.Item with byte slices as keys and values
type item struct {
	key   []byte
	value []byte
}

// Less implements btree.Item.
func (i item) Less(other btree.Item) bool {
	return bytes.Compare(i.key, other.(item).key) == -1
}

// newKey creates a new key item.
func newKey(key []byte) item {
	return item{key: key}
}

// MemDB is an in-memory KVStore ordered by key. It is not safe for concurrent
// use on its own; wrap it in a Store when sharing.
type MemDB struct {
	btree *btree.BTree
}

var _ types.KVStore = (*MemDB)(nil)

// NewMemDB creates a new in-memory database.
func NewMemDB() *MemDB {
	return &MemDB{btree: btree.New(bTreeDegree)}
}

// Get returns a copy of the stored value, or nil if key is absent. A stored
// empty value is returned as a non-nil empty slice.
func (db *MemDB) Get(key []byte) []byte {
	i := db.btree.Get(newKey(key))
	if i == nil {
		return nil
	}
	return append([]byte{}, i.(item).value...)
}

func (db *MemDB) Set(key, value []byte) {
	db.btree.ReplaceOrInsert(item{
		key:   append([]byte{}, key...),
		value: append([]byte{}, value...),
	})
}

func (db *MemDB) Delete(key []byte) {
	db.btree.Delete(newKey(key))
}

// Len returns the number of stored keys.
func (db *MemDB) Len() int {
	return db.btree.Len()
}

// Each calls fn for every pair in ascending key order until fn returns false.
func (db *MemDB) Each(fn func(key, value []byte) bool) {
	db.btree.Ascend(func(i btree.Item) bool {
		it := i.(item)
		return fn(it.key, it.value)
	})
}
