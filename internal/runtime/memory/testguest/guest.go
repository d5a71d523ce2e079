// Package testguest provides an in-memory memory.Guest for tests. Its memory
// is a plain byte slice and its allocate export is a bump allocator laying out
// a region header followed by the region's bytes.
package testguest

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/CosmWasm/wasm2vm/internal/region"
	"github.com/CosmWasm/wasm2vm/internal/runtime/memory"
)

// ExportFunc implements a fake guest export.
type ExportFunc func(ctx context.Context, params []uint64) ([]uint64, error)

// Guest is a fake guest instance.
type Guest struct {
	Mem     []byte
	exports map[string]ExportFunc
	next    uint32

	// Allocations counts calls to the allocate export.
	Allocations int
	// Allocated sums the capacities handed out by allocate.
	Allocated uint64
}

var _ memory.Guest = (*Guest)(nil)

// New returns a guest with size bytes of memory and working allocate and
// deallocate exports. Address 0 is never handed out.
func New(size uint32) *Guest {
	g := &Guest{
		Mem:     make([]byte, size),
		exports: map[string]ExportFunc{},
		next:    8,
	}
	g.exports[memory.AllocateExport] = func(_ context.Context, params []uint64) ([]uint64, error) {
		return []uint64{uint64(g.alloc(uint32(params[0])))}, nil
	}
	g.exports["deallocate"] = func(context.Context, []uint64) ([]uint64, error) {
		return nil, nil
	}
	return g
}

func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}

// alloc reserves a header and capacity bytes, returning 0 when memory is
// exhausted.
func (g *Guest) alloc(capacity uint32) uint32 {
	header := uint64(g.next)
	data := header + region.Size
	end := data + uint64(capacity)
	if end > uint64(len(g.Mem)) {
		return 0
	}
	region.Put(g.Mem[header:], region.Region{Offset: uint32(data), Capacity: capacity})
	g.next = uint32(align4(end))
	g.Allocations++
	g.Allocated += uint64(capacity)
	return uint32(header)
}

// SetExport installs or replaces an export.
func (g *Guest) SetExport(name string, fn ExportFunc) {
	g.exports[name] = fn
}

// RemoveExport deletes an export.
func (g *Guest) RemoveExport(name string) {
	delete(g.exports, name)
}

// Put allocates a region holding data without going through the host and
// returns its header pointer.
func (g *Guest) Put(data []byte) uint32 {
	ptr := g.alloc(uint32(len(data)))
	if ptr == 0 {
		panic("testguest: out of memory")
	}
	r := g.Region(ptr)
	copy(g.Mem[r.Offset:], data)
	r.Length = uint32(len(data))
	region.Put(g.Mem[ptr:], r)
	return ptr
}

// PutRegion writes a raw header at a fresh location and returns its pointer.
// It lets tests build malformed or hostile headers.
func (g *Guest) PutRegion(r region.Region) uint32 {
	ptr := g.next
	region.Put(g.Mem[ptr:], r)
	g.next = uint32(align4(uint64(ptr) + region.Size))
	return ptr
}

// Region decodes the header at ptr.
func (g *Guest) Region(ptr uint32) region.Region {
	return region.Decode(g.Mem[ptr:])
}

// Bytes returns the valid bytes of the region at ptr.
func (g *Guest) Bytes(ptr uint32) []byte {
	r := g.Region(ptr)
	return g.Mem[r.Offset : r.Offset+r.Length]
}

func (g *Guest) HasExport(name string) bool {
	_, ok := g.exports[name]
	return ok
}

func (g *Guest) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn, ok := g.exports[name]
	if !ok {
		return nil, errors.Wrapf(memory.ErrMissingExport, "%q", name)
	}
	return fn(ctx, params)
}

func (g *Guest) Read(offset, byteCount uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(byteCount)
	if end > uint64(len(g.Mem)) {
		return nil, false
	}
	return g.Mem[offset:end], true
}

func (g *Guest) Write(offset uint32, data []byte) bool {
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(g.Mem)) {
		return false
	}
	copy(g.Mem[offset:], data)
	return true
}

func (g *Guest) Size() uint32 {
	return uint32(len(g.Mem))
}
