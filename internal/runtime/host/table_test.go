package host

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/wasm2vm/internal/region"
	"github.com/CosmWasm/wasm2vm/internal/runtime/db"
	"github.com/CosmWasm/wasm2vm/internal/runtime/hosterr"
	"github.com/CosmWasm/wasm2vm/internal/runtime/memory/testguest"
	"github.com/CosmWasm/wasm2vm/types"
)

// upperAPI canonicalizes by upper-casing and humanizes by lower-casing.
var upperAPI = types.GoAPI{
	CanonicalizeAddress: func(human string) ([]byte, error) {
		if human == "" {
			return nil, errors.New("empty address")
		}
		return []byte(strings.ToUpper(human)), nil
	},
	HumanizeAddress: func(canonical []byte) (string, error) {
		if len(canonical) == 0 {
			return "", errors.New("empty address")
		}
		return strings.ToLower(string(canonical)), nil
	},
}

type fixture struct {
	table *Table
	env   *Environment
	store *db.MemDB
	guest *testguest.Guest
	log   *bytes.Buffer
}

func newFixture(op types.Operation, querier types.Querier) *fixture {
	var log bytes.Buffer
	store := db.NewMemDB()
	return &fixture{
		table: NewTable(true),
		env:   NewEnvironment(op, store, upperAPI, querier, zerolog.New(&log)),
		store: store,
		guest: testguest.New(4096),
		log:   &log,
	}
}

func (f *fixture) invoke(index uint32, args ...uint32) ([]uint64, error) {
	raw := make([]uint64, len(args))
	for i, a := range args {
		raw[i] = uint64(a)
	}
	return f.table.Invoke(context.Background(), f.env, f.guest, index, raw)
}

func TestFromIndex(t *testing.T) {
	tests := []struct {
		index uint32
		debug bool
		want  Function
	}{
		{0, false, ReadStorage},
		{1, false, WriteStorage},
		{2, false, RemoveStorage},
		{3, false, CanonicalizeAddress},
		{4, false, HumanizeAddress},
		{5, true, Unknown},
		{6, false, QueryChain},
		{7, true, Unknown},
		{254, true, DebugPrint},
		{254, false, Unknown},
		{255, true, Unknown},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FromIndex(tc.index, tc.debug), "index %d debug %v", tc.index, tc.debug)
	}
}

func TestImportsMatchIndexes(t *testing.T) {
	for _, imp := range Imports(true) {
		assert.Equal(t, imp.Function, FromIndex(imp.Index, true), imp.Name)
		assert.Equal(t, imp.Name, imp.Function.String())
	}
	for _, imp := range Imports(false) {
		assert.NotEqual(t, DebugPrint, imp.Function)
	}
	assert.Len(t, Imports(true), 7)
	assert.Len(t, Imports(false), 6)
}

func TestReadStorage(t *testing.T) {
	f := newFixture(types.OperationQuery, nil)
	f.store.Set([]byte("present"), []byte("value"))

	out, err := f.invoke(readDBIndex, f.guest.Put([]byte("absent")))
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, out)

	out, err = f.invoke(readDBIndex, f.guest.Put([]byte("present")))
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotZero(t, out[0])
	assert.Equal(t, []byte("value"), f.guest.Bytes(uint32(out[0])))
}

func TestReadStorageEmptyValueIsNotAbsent(t *testing.T) {
	f := newFixture(types.OperationHandle, nil)
	f.store.Set([]byte("k"), []byte{})

	out, err := f.invoke(readDBIndex, f.guest.Put([]byte("k")))
	require.NoError(t, err)
	require.NotZero(t, out[0])
	assert.Empty(t, f.guest.Bytes(uint32(out[0])))
}

func TestReadStorageMalformedKey(t *testing.T) {
	f := newFixture(types.OperationHandle, nil)
	null := f.guest.PutRegion(region.Region{})

	_, err := f.invoke(readDBIndex, null)
	require.Error(t, err)
	assert.Equal(t, hosterr.MemoryReadError, hosterr.KindOf(err))
}

func TestReadStorageAllocationFailure(t *testing.T) {
	f := newFixture(types.OperationHandle, nil)
	f.store.Set([]byte("big"), make([]byte, 8192))

	_, err := f.invoke(readDBIndex, f.guest.Put([]byte("big")))
	require.Error(t, err)
	assert.Equal(t, hosterr.MemoryAllocationError, hosterr.KindOf(err))
}

func TestWritesAreGatedByOperation(t *testing.T) {
	tests := []struct {
		op      types.Operation
		allowed bool
	}{
		{types.OperationHandle, true},
		{types.OperationVerify, true},
		{types.OperationQuery, false},
	}
	for _, tc := range tests {
		t.Run(tc.op.String(), func(t *testing.T) {
			f := newFixture(tc.op, nil)
			f.store.Set([]byte("old"), []byte("1"))

			_, err := f.invoke(writeDBIndex, f.guest.Put([]byte("new")), f.guest.Put([]byte("2")))
			_, rmErr := f.invoke(removeDBIndex, f.guest.Put([]byte("old")))

			if tc.allowed {
				require.NoError(t, err)
				require.NoError(t, rmErr)
				assert.Equal(t, []byte("2"), f.store.Get([]byte("new")))
				assert.Nil(t, f.store.Get([]byte("old")))
				return
			}
			require.Error(t, err)
			require.Error(t, rmErr)
			assert.Equal(t, hosterr.UnauthorizedWrite, hosterr.KindOf(err))
			assert.Equal(t, hosterr.UnauthorizedWrite, hosterr.KindOf(rmErr))
			assert.Nil(t, f.store.Get([]byte("new")))
			assert.Equal(t, []byte("1"), f.store.Get([]byte("old")))
		})
	}
}

func TestWriteRejectedBeforeReadingMemory(t *testing.T) {
	f := newFixture(types.OperationQuery, nil)
	// Pointers past the end of memory would be a MemoryReadError if dereferenced.
	_, err := f.invoke(writeDBIndex, 1<<20, 1<<20)
	assert.Equal(t, hosterr.UnauthorizedWrite, hosterr.KindOf(err))
}

func TestWriteStorageMalformedValue(t *testing.T) {
	f := newFixture(types.OperationHandle, nil)
	_, err := f.invoke(writeDBIndex, f.guest.Put([]byte("k")), f.guest.PutRegion(region.Region{}))
	require.Error(t, err)
	assert.Equal(t, hosterr.MemoryReadError, hosterr.KindOf(err))
	assert.Nil(t, f.store.Get([]byte("k")))
}

func TestCanonicalizeAddress(t *testing.T) {
	f := newFixture(types.OperationHandle, nil)
	dest, err := f.guest.Call(context.Background(), "allocate", 64)
	require.NoError(t, err)

	out, err := f.invoke(canonicalizeAddressIndex, f.guest.Put([]byte("secret1abc")), uint32(dest[0]))
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, out)
	assert.Equal(t, []byte("SECRET1ABC"), f.guest.Bytes(uint32(dest[0])))
	assert.Equal(t, uint32(64), f.guest.Region(uint32(dest[0])).Capacity)
}

func TestCanonicalizeAddressInvalidUTF8(t *testing.T) {
	f := newFixture(types.OperationHandle, nil)
	dest, err := f.guest.Call(context.Background(), "allocate", 64)
	require.NoError(t, err)
	before := f.guest.Region(uint32(dest[0]))

	out, err := f.invoke(canonicalizeAddressIndex, f.guest.Put([]byte{0xff, 0xfe, 0xfd}), uint32(dest[0]))
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotZero(t, out[0])
	assert.NotEqual(t, dest[0], out[0])
	assert.Equal(t, InvalidUTF8Message, string(f.guest.Bytes(uint32(out[0]))))
	assert.Equal(t, before, f.guest.Region(uint32(dest[0])), "destination must be untouched")
}

func TestCanonicalizeAddressFailures(t *testing.T) {
	t.Run("capability error", func(t *testing.T) {
		f := newFixture(types.OperationHandle, nil)
		dest, _ := f.guest.Call(context.Background(), "allocate", 64)
		_, err := f.invoke(canonicalizeAddressIndex, f.guest.Put(nil), uint32(dest[0]))
		assert.Equal(t, hosterr.Panic, hosterr.KindOf(err))
	})
	t.Run("destination too small", func(t *testing.T) {
		f := newFixture(types.OperationHandle, nil)
		dest, _ := f.guest.Call(context.Background(), "allocate", 2)
		_, err := f.invoke(canonicalizeAddressIndex, f.guest.Put([]byte("secret1abc")), uint32(dest[0]))
		assert.Equal(t, hosterr.MemoryWriteError, hosterr.KindOf(err))
	})
	t.Run("no capability", func(t *testing.T) {
		f := newFixture(types.OperationHandle, nil)
		f.env.API = types.GoAPI{}
		dest, _ := f.guest.Call(context.Background(), "allocate", 64)
		_, err := f.invoke(canonicalizeAddressIndex, f.guest.Put([]byte("a")), uint32(dest[0]))
		assert.Equal(t, hosterr.Panic, hosterr.KindOf(err))
		assert.True(t, errors.Is(err, ErrMissingCapability))
	})
}

func TestHumanizeAddress(t *testing.T) {
	f := newFixture(types.OperationQuery, nil)
	dest, err := f.guest.Call(context.Background(), "allocate", 32)
	require.NoError(t, err)

	out, err := f.invoke(humanizeAddressIndex, f.guest.Put([]byte("SECRET1XYZ")), uint32(dest[0]))
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, out)
	assert.Equal(t, []byte("secret1xyz"), f.guest.Bytes(uint32(dest[0])))

	_, err = f.invoke(humanizeAddressIndex, f.guest.Put(nil), uint32(dest[0]))
	assert.Equal(t, hosterr.Panic, hosterr.KindOf(err))
}

type echoQuerier struct{}

func (echoQuerier) Query(request []byte) ([]byte, error) {
	return append([]byte("echo:"), request...), nil
}

func TestQueryChain(t *testing.T) {
	t.Run("unsupported", func(t *testing.T) {
		f := newFixture(types.OperationQuery, nil)
		_, err := f.invoke(queryChainIndex, f.guest.Put([]byte(`{"bank":{}}`)))
		require.Error(t, err)
		assert.Equal(t, hosterr.Panic, hosterr.KindOf(err))
		assert.True(t, errors.Is(err, types.ErrQueryUnsupported))
	})
	t.Run("forwarded", func(t *testing.T) {
		f := newFixture(types.OperationQuery, echoQuerier{})
		out, err := f.invoke(queryChainIndex, f.guest.Put([]byte("req")))
		require.NoError(t, err)
		assert.Equal(t, []byte("echo:req"), f.guest.Bytes(uint32(out[0])))
	})
}

func TestDebugPrint(t *testing.T) {
	f := newFixture(types.OperationHandle, nil)
	_, err := f.invoke(debugPrintIndex, f.guest.Put([]byte("hello from guest")))
	require.NoError(t, err)
	assert.Contains(t, f.log.String(), "hello from guest")

	_, err = f.invoke(debugPrintIndex, f.guest.Put([]byte{0xc3, 0x28}))
	assert.Equal(t, hosterr.Panic, hosterr.KindOf(err))
}

func TestDebugPrintDisabled(t *testing.T) {
	f := newFixture(types.OperationHandle, nil)
	f.table = NewTable(false)
	_, err := f.invoke(debugPrintIndex, f.guest.Put([]byte("hello")))
	assert.Equal(t, hosterr.NonExistentImportFunction, hosterr.KindOf(err))
	assert.NotContains(t, f.log.String(), `"message":"hello"`)
}

func TestUnknownIndex(t *testing.T) {
	f := newFixture(types.OperationHandle, nil)
	for _, index := range []uint32{5, 7, 100, 253} {
		_, err := f.invoke(index)
		require.Error(t, err)
		assert.Equal(t, hosterr.NonExistentImportFunction, hosterr.KindOf(err))
	}
}

func TestMissingArguments(t *testing.T) {
	f := newFixture(types.OperationHandle, nil)
	_, err := f.invoke(writeDBIndex, f.guest.Put([]byte("k")))
	assert.Equal(t, hosterr.Panic, hosterr.KindOf(err))
}

func TestEnvironmentContext(t *testing.T) {
	_, ok := EnvironmentFrom(context.Background())
	assert.False(t, ok)

	env := NewEnvironment(types.OperationQuery, db.NewMemDB(), types.GoAPI{}, nil, zerolog.Nop())
	got, ok := EnvironmentFrom(WithEnvironment(context.Background(), env))
	require.True(t, ok)
	assert.Same(t, env, got)
	assert.IsType(t, types.NoQuerier{}, got.Querier)
}
