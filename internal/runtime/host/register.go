package host

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/CosmWasm/wasm2vm/internal/runtime/hosterr"
	"github.com/CosmWasm/wasm2vm/internal/runtime/memory"
)

// ModuleName is the import module guests link host functions from.
const ModuleName = "env"

// Register defines and instantiates the host module in r. It is instantiated
// once per runtime; each call finds its Environment in the context passed to
// the guest export.
func Register(ctx context.Context, r wazero.Runtime, table *Table) (api.Module, error) {
	builder := r.NewHostModuleBuilder(ModuleName)
	for _, imp := range table.Imports() {
		index := imp.Index
		params := len(imp.Params)
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				table.invokeFromGuest(ctx, mod, index, params, stack)
			}), imp.Params, imp.Results).
			WithName(imp.Name).
			Export(imp.Name)
	}
	return builder.Instantiate(ctx)
}

// invokeFromGuest adapts Invoke to the wazero calling convention. Failures
// panic with the *hosterr.Error; wazero turns the panic into a trap and the
// error comes back wrapped from the guest export's Call.
func (t *Table) invokeFromGuest(ctx context.Context, mod api.Module, index uint32, params int, stack []uint64) {
	env, ok := EnvironmentFrom(ctx)
	if !ok {
		panic(hosterr.New(hosterr.HostMisbehavior, "host function called without an environment"))
	}
	args := make([]uint64, params)
	copy(args, stack[:params])
	out, err := t.Invoke(ctx, env, memory.NewModuleGuest(mod), index, args)
	if err != nil {
		panic(err)
	}
	copy(stack, out)
}
