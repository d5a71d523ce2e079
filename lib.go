// Package wasm2vm runs sandboxed Wasm2 contracts. Compressed bytecode is
// loaded, linked against a fixed set of host functions and invoked through
// its handle and query entry points.
package wasm2vm

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/CosmWasm/wasm2vm/internal/runtime/host"
	"github.com/CosmWasm/wasm2vm/internal/runtime/hosterr"
	"github.com/CosmWasm/wasm2vm/internal/runtime/wasm"
	"github.com/CosmWasm/wasm2vm/types"
)

// WasmCode is an alias for gzip compressed module bytecode.
type WasmCode []byte

// Checksum identifies a WasmCode by its sha256 hash.
type Checksum = types.Checksum

// KVStore is a reference to the storage of one contract.
type KVStore = types.KVStore

// GoAPI converts between human and canonical addresses.
type GoAPI = types.GoAPI

// Querier lets contracts make read-only queries to the chain.
type Querier = types.Querier

// CreateChecksum returns the checksum of code.
func CreateChecksum(code WasmCode) Checksum {
	return types.ChecksumOf(code)
}

// VM is the main entry point to this library. It is safe for concurrent use;
// every call gets its own module instance.
type VM struct {
	engine *wasm.Engine
	logger zerolog.Logger
}

// NewVM creates a VM with its own runtime and compiled-module cache.
func NewVM(config types.VMConfig, logger zerolog.Logger) (*VM, error) {
	engine, err := wasm.NewEngine(context.Background(), config, logger)
	if err != nil {
		return nil, hosterr.Collapse(err)
	}
	return &VM{engine: engine, logger: logger}, nil
}

// Cleanup releases the runtime and every cached module.
func (vm *VM) Cleanup() {
	if err := vm.engine.Close(context.Background()); err != nil {
		vm.logger.Warn().Err(err).Msg("closing runtime")
	}
}

// Checksum returns the checksum code is cached under.
func (vm *VM) Checksum(code WasmCode) Checksum {
	return CreateChecksum(code)
}

// Compile decompresses, parses and caches code without running it.
func (vm *VM) Compile(ctx context.Context, code WasmCode) (Checksum, error) {
	m, err := vm.engine.Load(ctx, code)
	if err != nil {
		return Checksum{}, hosterr.Collapse(err)
	}
	vm.engine.Release(ctx, m)
	return m.Checksum(), nil
}

// AnalyzeCode reports static facts about code.
func (vm *VM) AnalyzeCode(code WasmCode) (*types.AnalysisReport, error) {
	report, err := vm.engine.Analyze(code)
	if err != nil {
		return nil, hosterr.Collapse(err)
	}
	return report, nil
}

// GetMetrics reports compiled-module cache statistics.
func (vm *VM) GetMetrics() types.Metrics {
	return vm.engine.Metrics()
}

// Handle serializes env, calls the contract's handle entry point with msg
// and decodes the result envelope. An error reported by the contract is
// returned as *types.StdError; every other failure is a *types.VMError.
func (vm *VM) Handle(
	ctx context.Context,
	code WasmCode,
	env types.Env,
	msg []byte,
	store KVStore,
	goapi GoAPI,
	querier Querier,
) (*types.HandleResponse, error) {
	envBin, err := json.Marshal(env)
	if err != nil {
		return nil, hosterr.Collapse(err)
	}
	data, err := vm.HandleRaw(ctx, code, envBin, msg, store, goapi, querier)
	if err != nil {
		return nil, err
	}
	return parseResult(types.ParseHandleResult(data))
}

// Query calls the contract's query entry point with msg and decodes the
// result envelope. Storage is read-only for the duration of the call.
func (vm *VM) Query(
	ctx context.Context,
	code WasmCode,
	msg []byte,
	store KVStore,
	goapi GoAPI,
	querier Querier,
) ([]byte, error) {
	data, err := vm.QueryRaw(ctx, code, msg, store, goapi, querier)
	if err != nil {
		return nil, err
	}
	return parseResult(types.ParseQueryResult(data))
}

// HandleRaw calls handle with serialized env and msg and returns the bytes
// the contract produced, without interpreting them.
func (vm *VM) HandleRaw(
	ctx context.Context,
	code WasmCode,
	env []byte,
	msg []byte,
	store KVStore,
	goapi GoAPI,
	querier Querier,
) ([]byte, error) {
	inst, err := vm.instantiate(ctx, code, types.OperationHandle, store, goapi, querier)
	if err != nil {
		return nil, err
	}
	defer inst.Close(ctx)

	data, err := inst.HandleBytes(ctx, env, msg)
	if err != nil {
		return nil, hosterr.Collapse(err)
	}
	return data, nil
}

// QueryRaw calls query with a serialized msg and returns the bytes the
// contract produced, without interpreting them.
func (vm *VM) QueryRaw(
	ctx context.Context,
	code WasmCode,
	msg []byte,
	store KVStore,
	goapi GoAPI,
	querier Querier,
) ([]byte, error) {
	inst, err := vm.instantiate(ctx, code, types.OperationQuery, store, goapi, querier)
	if err != nil {
		return nil, err
	}
	defer inst.Close(ctx)

	data, err := inst.QueryBytes(ctx, msg)
	if err != nil {
		return nil, hosterr.Collapse(err)
	}
	return data, nil
}

func (vm *VM) instantiate(
	ctx context.Context,
	code WasmCode,
	op types.Operation,
	store KVStore,
	goapi GoAPI,
	querier Querier,
) (*wasm.Instance, error) {
	m, err := vm.engine.Load(ctx, code)
	if err != nil {
		return nil, hosterr.Collapse(err)
	}
	defer vm.engine.Release(ctx, m)
	logger := vm.logger.With().Stringer("checksum", m.Checksum()).Logger()
	env := host.NewEnvironment(op, store, goapi, querier, logger)
	inst, err := vm.engine.Instantiate(ctx, m, env)
	if err != nil {
		return nil, hosterr.Collapse(err)
	}
	return inst, nil
}

// parseResult keeps contract-reported errors and collapses decoding failures.
func parseResult[T any](res T, err error) (T, error) {
	if err == nil {
		return res, nil
	}
	if stdErr, ok := err.(*types.StdError); ok {
		return res, stdErr
	}
	return res, hosterr.Collapse(err)
}
