// Package wasm runs guest modules on wazero: it decompresses and parses
// bytecode, caches compiled modules, instantiates them against the host
// function table and calls their entry points.
package wasm

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	wasmbin "github.com/wippyai/wasm-runtime/wasm"

	"github.com/CosmWasm/wasm2vm/internal/runtime/host"
	"github.com/CosmWasm/wasm2vm/internal/runtime/hosterr"
	"github.com/CosmWasm/wasm2vm/internal/runtime/memory"
	"github.com/CosmWasm/wasm2vm/types"
)

var (
	// ErrStartSection is returned when instantiating a module that declares a start function.
	ErrStartSection = errors.New("module must not declare a start function")
	// ErrMissingMarker is returned when the interface version marker is required but not exported.
	ErrMissingMarker = errors.New("module does not export " + MarkerExport)
)

// Engine owns a wazero runtime with the host module instantiated in it, and
// a cache of compiled modules keyed by checksum. It is safe for concurrent
// use; every instance it creates belongs to a single invocation.
type Engine struct {
	runtime wazero.Runtime
	table   *host.Table
	config  types.VMConfig
	logger  zerolog.Logger

	// compileMu serializes cache misses so a checksum is compiled once.
	compileMu sync.Mutex
	// mu guards cache membership and module reference counts. A module
	// evicted while referenced moves to retired and is closed on its last
	// Release.
	mu      sync.Mutex
	cache   *lru.Cache[types.Checksum, *Module]
	retired map[types.Checksum]*Module
	// open counts modules per bytecode hash. wazero shares compiled code
	// between identical bytecode, so it is closed with the last of them.
	open   map[types.Checksum]int
	hits   atomic.Uint32
	misses atomic.Uint32
}

// NewEngine creates the runtime and links the host module into it.
func NewEngine(ctx context.Context, config types.VMConfig, logger zerolog.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid vm config")
	}
	rc := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(config.WasmLimits.MemoryLimitPages()).
		WithCloseOnContextDone(true)
	r := wazero.NewRuntimeWithConfig(ctx, rc)

	e := &Engine{
		runtime: r,
		table:   host.NewTable(config.DebugPrint),
		config:  config,
		logger:  logger.With().Str("component", "engine").Logger(),
		retired: map[types.Checksum]*Module{},
		open:    map[types.Checksum]int{},
	}
	cache, err := lru.NewWithEvict[types.Checksum, *Module](config.Cache.MemoryCacheSize, e.evict)
	if err != nil {
		_ = r.Close(ctx)
		return nil, errors.Wrap(err, "creating module cache")
	}
	e.cache = cache

	if config.EnableWASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
			_ = r.Close(ctx)
			return nil, errors.Wrap(err, "instantiating wasi")
		}
	}
	if _, err := host.Register(ctx, r, e.table); err != nil {
		_ = r.Close(ctx)
		return nil, errors.Wrap(err, "instantiating host module")
	}
	e.logger.Info().
		Stringer("memory_limit", config.WasmLimits.InstanceMemoryLimit).
		Dur("timeout", config.WasmLimits.ExecutionTimeout).
		Bool("debug_print", config.DebugPrint).
		Bool("wasi", config.EnableWASI).
		Msg("wazero runtime initialized")
	return e, nil
}

// Decompress inflates compressed code under the configured size limit.
func (e *Engine) Decompress(code []byte) ([]byte, error) {
	bytecode, err := Decompress(code, e.config.WasmLimits.MaxCodeSize.Bytes())
	if err != nil {
		return nil, err
	}
	e.logger.Debug().Int("compressed", len(code)).Int("bytes", len(bytecode)).Msg("decompressed module")
	return bytecode, nil
}

// Parse validates bytecode structurally and compiles it.
func (e *Engine) Parse(ctx context.Context, checksum types.Checksum, bytecode []byte) (*Module, error) {
	info, err := wasmbin.ParseModule(bytecode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse module")
	}
	compiled, err := e.runtime.CompileModule(ctx, bytecode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile module")
	}
	e.logger.Debug().Stringer("checksum", checksum).Msg("parsed module")
	return &Module{
		checksum: checksum,
		codeID:   types.ChecksumOf(bytecode),
		codeSize: len(bytecode),
		info:     info,
		compiled: compiled,
	}, nil
}

// Load returns the compiled module for compressed code, decompressing and
// parsing it on a cache miss. The module is referenced until the caller
// hands it to Release, so eviction cannot close it in between.
func (e *Engine) Load(ctx context.Context, code []byte) (*Module, error) {
	checksum := types.ChecksumOf(code)
	if m := e.acquire(checksum); m != nil {
		e.hits.Add(1)
		return m, nil
	}

	e.compileMu.Lock()
	defer e.compileMu.Unlock()
	if m := e.acquire(checksum); m != nil {
		e.hits.Add(1)
		return m, nil
	}
	e.misses.Add(1)

	bytecode, err := e.Decompress(code)
	if err != nil {
		return nil, err
	}
	m, err := e.Parse(ctx, checksum, bytecode)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.open[m.codeID]++
	m.refs++
	e.cache.Add(checksum, m)
	return m, nil
}

// Release drops a reference taken by Load.
func (e *Engine) Release(ctx context.Context, m *Module) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m.refs--
	if m.refs == 0 && m.evicted {
		delete(e.retired, m.checksum)
		e.closeLocked(ctx, m)
	}
}

func (e *Engine) acquire(checksum types.Checksum) *Module {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acquireLocked(checksum)
}

// acquireLocked references a cached or retired module. A retired module is
// put back into the cache rather than compiled a second time.
func (e *Engine) acquireLocked(checksum types.Checksum) *Module {
	if m, ok := e.cache.Get(checksum); ok {
		m.refs++
		return m
	}
	m, ok := e.retired[checksum]
	if !ok {
		return nil
	}
	delete(e.retired, checksum)
	m.evicted = false
	m.refs++
	e.cache.Add(checksum, m)
	return m
}

// evict runs with mu held, from cache.Add or cache.Purge.
func (e *Engine) evict(checksum types.Checksum, m *Module) {
	m.evicted = true
	if m.refs > 0 {
		e.logger.Debug().Stringer("checksum", checksum).Int("refs", m.refs).Msg("retiring referenced module")
		e.retired[checksum] = m
		return
	}
	e.logger.Debug().Stringer("checksum", checksum).Msg("evicting compiled module")
	e.closeLocked(context.Background(), m)
}

func (e *Engine) closeLocked(ctx context.Context, m *Module) {
	e.open[m.codeID]--
	if e.open[m.codeID] > 0 {
		return
	}
	delete(e.open, m.codeID)
	m.close(ctx)
}

// Analyze decompresses and parses code without compiling it.
func (e *Engine) Analyze(code []byte) (*types.AnalysisReport, error) {
	bytecode, err := e.Decompress(code)
	if err != nil {
		return nil, err
	}
	info, err := wasmbin.ParseModule(bytecode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse module")
	}
	return Analyze(info, len(bytecode), types.ChecksumOf(code), e.config), nil
}

// Instantiate links m against the host table for one invocation. m must be
// referenced by Load until Instantiate returns. Modules
// declaring a start function are rejected before any guest code runs, and
// wazero's implicit _start is disabled.
func (e *Engine) Instantiate(ctx context.Context, m *Module, env *host.Environment) (*Instance, error) {
	if m.HasStart() {
		return nil, ErrStartSection
	}
	if e.config.RequireMarker && !m.HasExport(MarkerExport) {
		return nil, ErrMissingMarker
	}
	if report := Analyze(m.info, m.codeSize, m.checksum, e.config); len(report.UnknownImports) > 0 {
		return nil, hosterr.Newf(hosterr.NonExistentImportFunction, "module imports %s", report.UnknownImports[0])
	}

	inst := &Instance{
		env:     env,
		timeout: e.config.WasmLimits.ExecutionTimeout,
		logger:  env.Logger,
	}
	callCtx, cancel := inst.callContext(ctx)
	defer cancel()

	modConfig := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions()
	mod, err := e.runtime.InstantiateModule(callCtx, m.compiled, modConfig)
	if err != nil {
		return nil, errors.Wrap(err, "module instantiation failed")
	}
	inst.module = mod
	inst.mem = memory.NewAccessor(memory.NewModuleGuest(mod), env.Logger)

	if e.config.EnableWASI && m.HasExport(initializeExport) {
		if _, err := mod.ExportedFunction(initializeExport).Call(callCtx); err != nil {
			inst.Close(ctx)
			return nil, inst.classify(callCtx, err, "calling "+initializeExport)
		}
	}
	return inst, nil
}

// Metrics reports cache statistics.
func (e *Engine) Metrics() types.Metrics {
	return types.Metrics{
		HitsMemoryCache:     e.hits.Load(),
		Misses:              e.misses.Load(),
		ElementsMemoryCache: uint64(e.cache.Len()),
	}
}

// Close releases the runtime and every compiled module.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.cache.Purge()
	e.mu.Unlock()
	return e.runtime.Close(ctx)
}
