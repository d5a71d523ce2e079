package gofuzz

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/wasm2vm"
	"github.com/CosmWasm/wasm2vm/api"
	"github.com/CosmWasm/wasm2vm/internal/runtime/db"
	"github.com/CosmWasm/wasm2vm/internal/testmodules"
	"github.com/CosmWasm/wasm2vm/types"
)

// FuzzQuery stores arbitrary bytes as the state the storage contract answers
// queries with. Decoding must never escape the error taxonomy.
func FuzzQuery(f *testing.F) {
	f.Add([]byte(`{"Ok":"aGVsbG8="}`))
	f.Add([]byte(`{"Err":{"not_found":{"kind":"State"}}}`))
	f.Add([]byte(`{"Ok":"","Err":{}}`))
	f.Add([]byte(`{}`))
	vm := newVM(f)
	code := wasm2vm.WasmCode(testmodules.Code(f, testmodules.Storage))

	f.Fuzz(func(t *testing.T, state []byte) {
		store := db.NewMemDB()
		store.Set([]byte(testmodules.StateKey), state)

		raw, err := vm.QueryRaw(t.Context(), code, []byte(`{}`), store, api.NewMockAPI(), nil)
		require.NoError(t, err)
		require.Equal(t, state, raw)

		_, err = vm.Query(t.Context(), code, []byte(`{}`), store, api.NewMockAPI(), nil)
		requireContained(t, err)
	})
}

// FuzzHandle passes arbitrary messages through the echo contract, which
// returns them as its handle result.
func FuzzHandle(f *testing.F) {
	f.Add([]byte(`{"Ok":{"messages":[],"log":[]}}`))
	f.Add([]byte(`{"Err":{"unauthorized":{}}}`))
	f.Add([]byte(`{"Ok":{"messages":[{"bank":{}}]}}`))
	f.Add([]byte{})
	vm := newVM(f)
	code := wasm2vm.WasmCode(testmodules.Code(f, testmodules.Echo))

	f.Fuzz(func(t *testing.T, msg []byte) {
		store := db.NewMemDB()
		res, err := vm.HandleRaw(t.Context(), code, []byte(`{}`), msg, store, api.NewMockAPI(), types.NoQuerier{})
		require.NoError(t, err)
		require.Equal(t, msg, res)

		_, err = vm.Handle(t.Context(), code, types.Env{}, msg, store, api.NewMockAPI(), types.NoQuerier{})
		requireContained(t, err)
	})
}
