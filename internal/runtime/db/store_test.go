package db

import (
	"sync"
	"testing"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/wasm2vm/types"
)

func testKVStore(t *testing.T, store types.KVStore) {
	t.Helper()

	assert.Nil(t, store.Get([]byte("missing")))

	store.Set([]byte("foo"), []byte("bar"))
	assert.Equal(t, []byte("bar"), store.Get([]byte("foo")))

	store.Set([]byte("foo"), []byte("baz"))
	assert.Equal(t, []byte("baz"), store.Get([]byte("foo")))

	// empty values are present, not absent
	store.Set([]byte("empty"), []byte{})
	got := store.Get([]byte("empty"))
	assert.NotNil(t, got)
	assert.Empty(t, got)

	store.Delete([]byte("foo"))
	assert.Nil(t, store.Get([]byte("foo")))

	// deleting an absent key is a no-op
	store.Delete([]byte("never-set"))
}

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	testKVStore(t, db)
	assert.Equal(t, 1, db.Len())
}

func TestMemDBCopiesBuffers(t *testing.T) {
	db := NewMemDB()
	key, value := []byte("k"), []byte("v")
	db.Set(key, value)
	key[0], value[0] = 'x', 'x'
	assert.Equal(t, []byte("v"), db.Get([]byte("k")))

	got := db.Get([]byte("k"))
	got[0] = 'y'
	assert.Equal(t, []byte("v"), db.Get([]byte("k")))
}

func TestMemDBEachIsOrdered(t *testing.T) {
	db := NewMemDB()
	for _, k := range []string{"c", "a", "b"} {
		db.Set([]byte(k), []byte(k+k))
	}
	var keys []string
	db.Each(func(k, v []byte) bool {
		keys = append(keys, string(k))
		assert.Equal(t, string(k)+string(k), string(v))
		return true
	})
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestDBStore(t *testing.T) {
	backing := dbm.NewMemDB()
	store, err := NewDBStore(backing, []byte("contract/"))
	require.NoError(t, err)
	testKVStore(t, store)

	// empty guest keys are namespaced
	store.Set([]byte{}, []byte("root"))
	assert.Equal(t, []byte("root"), store.Get(nil))

	raw, err := backing.Get([]byte("contract/empty"))
	require.NoError(t, err)
	assert.NotNil(t, raw)
}

func TestDBStoreNamespacesAreIsolated(t *testing.T) {
	backing := dbm.NewMemDB()
	a, err := NewDBStore(backing, []byte("a/"))
	require.NoError(t, err)
	b, err := NewDBStore(backing, []byte("b/"))
	require.NoError(t, err)

	a.Set([]byte("k"), []byte("1"))
	b.Set([]byte("k"), []byte("2"))
	a.Set([]byte("z"), []byte("3"))

	assert.Equal(t, []byte("1"), a.Get([]byte("k")))
	assert.Equal(t, []byte("2"), b.Get([]byte("k")))

	var keys []string
	require.NoError(t, a.Each(func(k, _ []byte) bool {
		keys = append(keys, string(k))
		return true
	}))
	assert.Equal(t, []string{"k", "z"}, keys)
}

func TestDBStoreRejectsEmptyPrefix(t *testing.T) {
	_, err := NewDBStore(dbm.NewMemDB(), nil)
	require.Error(t, err)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("b"), prefixEnd([]byte("a")))
	assert.Equal(t, []byte{0x01}, prefixEnd([]byte{0x00, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff, 0xff}))
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := Synchronized(NewMemDB())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := []byte{byte(i)}
			for j := 0; j < 100; j++ {
				store.Set(key, []byte{byte(j)})
				_ = store.Get(key)
			}
			store.Delete(key)
		}(i)
	}
	wg.Wait()
	for i := 0; i < 8; i++ {
		assert.Nil(t, store.Get([]byte{byte(i)}))
	}
}
