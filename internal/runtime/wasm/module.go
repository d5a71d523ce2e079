package wasm

import (
	"context"

	"github.com/tetratelabs/wazero"
	wasmbin "github.com/wippyai/wasm-runtime/wasm"

	"github.com/CosmWasm/wasm2vm/internal/runtime/host"
	"github.com/CosmWasm/wasm2vm/types"
)

// Exports the engine looks for.
const (
	HandleExport     = "handle"
	QueryExport      = "query"
	MarkerExport     = "wasm2_vm_version_1"
	initializeExport = "_initialize"
	wasiModuleName   = "wasi_snapshot_preview1"
)

// Module is a parsed and compiled module. It may be instantiated any number
// of times.
type Module struct {
	checksum types.Checksum
	// codeID hashes the decompressed bytecode
	codeID   types.Checksum
	codeSize int
	info     *wasmbin.Module
	compiled wazero.CompiledModule

	// guarded by Engine.mu
	refs    int
	evicted bool
}

// Checksum identifies the compressed code the module was loaded from.
func (m *Module) Checksum() types.Checksum {
	return m.checksum
}

// HasStart reports whether the module declares a start function.
func (m *Module) HasStart() bool {
	return m.info.Start != nil
}

// Exports returns the names of exported functions in declaration order.
func (m *Module) Exports() []string {
	return functionExports(m.info)
}

// HasExport reports whether a function with this name is exported.
func (m *Module) HasExport(name string) bool {
	for _, e := range m.info.Exports {
		if e.Kind == wasmbin.KindFunc && e.Name == name {
			return true
		}
	}
	return false
}

func (m *Module) close(ctx context.Context) {
	_ = m.compiled.Close(ctx)
}

func functionExports(info *wasmbin.Module) []string {
	var out []string
	for _, e := range info.Exports {
		if e.Kind == wasmbin.KindFunc {
			out = append(out, e.Name)
		}
	}
	return out
}

// Analyze reports static facts about parsed bytecode. Imports that neither
// the host table nor, when enabled, WASI provide are listed as unknown.
func Analyze(info *wasmbin.Module, codeSize int, checksum types.Checksum, config types.VMConfig) *types.AnalysisReport {
	known := map[string]bool{}
	for _, imp := range host.Imports(config.DebugPrint) {
		known[imp.Name] = true
	}

	report := &types.AnalysisReport{
		Checksum:       checksum,
		CodeSize:       uint64(codeSize),
		Exports:        functionExports(info),
		Imports:        []types.Import{},
		UnknownImports: []types.Import{},
		EntryPoints:    []string{},
		HasStart:       info.Start != nil,
	}
	for _, imp := range info.Imports {
		if imp.Desc.Kind != wasmbin.KindFunc {
			continue
		}
		ti := types.Import{Module: imp.Module, Name: imp.Name}
		report.Imports = append(report.Imports, ti)
		switch {
		case imp.Module == host.ModuleName && known[imp.Name]:
		case imp.Module == wasiModuleName && config.EnableWASI:
		default:
			report.UnknownImports = append(report.UnknownImports, ti)
		}
	}
	for _, name := range report.Exports {
		switch name {
		case MarkerExport:
			report.HasMarker = true
		case HandleExport, QueryExport:
			report.EntryPoints = append(report.EntryPoints, name)
		}
	}
	return report
}
