package gofuzz

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/wasm2vm"
	"github.com/CosmWasm/wasm2vm/types"
)

const testingTimeout = 250 * time.Millisecond

func newVM(tb testing.TB) *wasm2vm.VM {
	tb.Helper()
	config := types.DefaultVMConfig()
	config.WasmLimits.ExecutionTimeout = testingTimeout
	vm, err := wasm2vm.NewVM(config, zerolog.Nop())
	require.NoError(tb, err)
	tb.Cleanup(vm.Cleanup)
	return vm
}

// requireContained fails unless err is nil, a guest error or a host VMError.
func requireContained(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		return
	}
	var stdErr *types.StdError
	var vmErr *types.VMError
	if !errors.As(err, &stdErr) && !errors.As(err, &vmErr) {
		t.Fatalf("unexpected error type %T: %v", err, err)
	}
}
