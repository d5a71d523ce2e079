package memory

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/tetratelabs/wazero/api"
)

// Guest is the view of an instantiated module the host needs: its exported
// functions and its linear memory. It is satisfied by ModuleGuest for wazero
// instances and by in-memory fakes in tests.
type Guest interface {
	// HasExport reports whether the guest exports a function with this name.
	HasExport(name string) bool
	// Call invokes an exported function. Guest code runs during the call and
	// may call back into the host.
	Call(ctx context.Context, name string, params ...uint64) ([]uint64, error)
	// Read returns byteCount bytes at offset, or false if out of range.
	// The returned slice may alias guest memory.
	Read(offset, byteCount uint32) ([]byte, bool)
	// Write copies data to offset, returning false if out of range.
	Write(offset uint32, data []byte) bool
	// Size returns the current size of linear memory in bytes.
	Size() uint32
}

// ModuleGuest adapts a wazero module instance to Guest.
type ModuleGuest struct {
	mod api.Module
}

var _ Guest = (*ModuleGuest)(nil)

// NewModuleGuest wraps mod.
func NewModuleGuest(mod api.Module) *ModuleGuest {
	return &ModuleGuest{mod: mod}
}

func (g *ModuleGuest) HasExport(name string) bool {
	return g.mod.ExportedFunction(name) != nil
}

// Call looks the export up on every call. Instances may be reentered from
// host functions, so no function handle is cached between calls.
func (g *ModuleGuest) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn := g.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.Wrapf(ErrMissingExport, "%q", name)
	}
	return fn.Call(ctx, params...)
}

func (g *ModuleGuest) Read(offset, byteCount uint32) ([]byte, bool) {
	mem := g.mod.Memory()
	if mem == nil {
		return nil, false
	}
	return mem.Read(offset, byteCount)
}

func (g *ModuleGuest) Write(offset uint32, data []byte) bool {
	mem := g.mod.Memory()
	if mem == nil {
		return false
	}
	return mem.Write(offset, data)
}

func (g *ModuleGuest) Size() uint32 {
	mem := g.mod.Memory()
	if mem == nil {
		return 0
	}
	return mem.Size()
}
