//go:build !wasip1

package guest

import (
	"github.com/CosmWasm/wasm2vm/api"
	"github.com/CosmWasm/wasm2vm/internal/runtime/db"
)

// MockAPI converts addresses with api.MockCanonicalAddress and api.MockHumanAddress.
type MockAPI struct{}

var _ API = MockAPI{}

func (MockAPI) CanonicalAddress(human string) ([]byte, error) {
	return api.MockCanonicalAddress(human)
}

func (MockAPI) HumanAddress(canonical []byte) (string, error) {
	return api.MockHumanAddress(canonical)
}

// MockDeps returns in-memory capabilities for unit testing contract callbacks
// without a host.
func MockDeps() (Deps, *db.MemDB, *api.MockQuerier) {
	store := db.NewMemDB()
	querier := api.NewMockQuerier()
	return Deps{Storage: store, API: MockAPI{}, Querier: querier}, store, querier
}
