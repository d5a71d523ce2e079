package memory

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/CosmWasm/wasm2vm/internal/region"
	"github.com/CosmWasm/wasm2vm/internal/runtime/hosterr"
)

// AllocateExport is the guest export that reserves a new region.
const AllocateExport = "allocate"

// Accessor performs every read and write the host makes against guest linear
// memory, and is the only caller of the guest's allocate export.
//
// It keeps no state between calls: bounds are re-read from the guest on every
// access because guest code may grow memory whenever it runs.
type Accessor struct {
	guest  Guest
	logger zerolog.Logger
}

// NewAccessor returns an accessor over guest.
func NewAccessor(guest Guest, logger zerolog.Logger) *Accessor {
	return &Accessor{guest: guest, logger: logger}
}

// Guest returns the underlying guest.
func (a *Accessor) Guest() Guest {
	return a.guest
}

// read copies byteCount bytes at offset out of guest memory.
func (a *Accessor) read(offset, byteCount uint32) ([]byte, error) {
	if uint64(offset)+uint64(byteCount) > uint64(a.guest.Size()) {
		return nil, errors.Wrapf(ErrOutOfBounds, "read of %d bytes at %d (memory size %d)", byteCount, offset, a.guest.Size())
	}
	view, ok := a.guest.Read(offset, byteCount)
	if !ok {
		return nil, errors.Wrapf(ErrOutOfBounds, "read of %d bytes at %d", byteCount, offset)
	}
	// The view aliases guest memory, which later guest calls may overwrite.
	out := make([]byte, len(view))
	copy(out, view)
	return out, nil
}

func (a *Accessor) write(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(a.guest.Size()) {
		return errors.Wrapf(ErrOutOfBounds, "write of %d bytes at %d (memory size %d)", len(data), offset, a.guest.Size())
	}
	if !a.guest.Write(offset, data) {
		return errors.Wrapf(ErrOutOfBounds, "write of %d bytes at %d", len(data), offset)
	}
	return nil
}

// fail logs the low-level cause and converts it to a taxonomy kind.
func (a *Accessor) fail(kind hosterr.Kind, cause error, msg string) error {
	a.logger.Debug().Err(cause).Stringer("kind", kind).Msg(msg)
	return hosterr.Wrap(kind, cause, msg)
}

// ReadRegion decodes the region header stored at ptr.
func (a *Accessor) ReadRegion(ptr uint32) (region.Region, error) {
	raw, err := a.read(ptr, region.Size)
	if err != nil {
		return region.Region{}, err
	}
	return region.Decode(raw), nil
}

// ExtractVector returns a copy of the bytes described by the region at ptr.
// Only the guest memory size bounds the region length.
func (a *Accessor) ExtractVector(ptr uint32) ([]byte, error) {
	r, err := a.ReadRegion(ptr)
	if err != nil {
		return nil, a.fail(hosterr.MemoryReadError, err, "failed to read region header")
	}
	if r.IsNull() {
		return nil, a.fail(hosterr.MemoryReadError, ErrNullRegion, "refusing to read from null region")
	}
	if end := r.End(); end > uint64(a.guest.Size()) {
		err := errors.Wrapf(ErrOutOfBounds, "region data ends at %d (memory size %d)", end, a.guest.Size())
		return nil, a.fail(hosterr.MemoryReadError, err, "region exceeds guest memory")
	}
	data, err := a.read(r.Offset, r.Length)
	if err != nil {
		return nil, a.fail(hosterr.MemoryReadError, err, "failed to read region data")
	}
	return data, nil
}

// Allocate asks the guest for a region of byteCount bytes and returns a
// pointer to its header. Guest code runs during this call.
func (a *Accessor) Allocate(ctx context.Context, byteCount uint32) (uint32, error) {
	results, err := a.guest.Call(ctx, AllocateExport, uint64(byteCount))
	if err != nil {
		return 0, a.fail(hosterr.MemoryAllocationError, err, "guest allocate failed")
	}
	if len(results) != 1 || results[0] > math.MaxUint32 {
		return 0, a.fail(hosterr.MemoryAllocationError,
			errors.Newf("allocate returned %v", results), "guest allocate returned a non-pointer value")
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return 0, a.fail(hosterr.MemoryAllocationError, ErrNullAllocation, "guest allocate returned null")
	}
	return ptr, nil
}

// WriteToAllocatedMemory copies data into the region at ptr and sets its
// length. The region's offset and capacity are never changed, and data larger
// than the capacity is rejected before anything is written.
func (a *Accessor) WriteToAllocatedMemory(data []byte, ptr uint32) (uint32, error) {
	r, err := a.ReadRegion(ptr)
	if err != nil {
		return 0, a.fail(hosterr.MemoryWriteError, err, "failed to read destination region header")
	}
	if r.IsNull() {
		return 0, a.fail(hosterr.MemoryWriteError, ErrNullRegion, "refusing to write to null region")
	}
	if uint64(len(data)) > uint64(r.Capacity) {
		return 0, a.fail(hosterr.MemoryWriteError,
			errors.Wrapf(ErrRegionTooSmall, "need %d bytes, capacity %d", len(data), r.Capacity),
			"data does not fit destination region")
	}
	if err := a.write(r.Offset, data); err != nil {
		return 0, a.fail(hosterr.MemoryWriteError, err, "failed to write region data")
	}
	if err := a.write(region.LengthOffset(ptr), region.EncodeLength(uint32(len(data)))); err != nil {
		return 0, a.fail(hosterr.MemoryWriteError, err, "failed to update region length")
	}
	return ptr, nil
}

// WriteToMemory allocates a fresh region sized for data and fills it. It is
// how every host-produced buffer is handed to the guest.
func (a *Accessor) WriteToMemory(ctx context.Context, data []byte) (uint32, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return 0, a.fail(hosterr.MemoryAllocationError,
			errors.Newf("buffer of %d bytes", len(data)), "buffer too large for guest memory")
	}
	ptr, err := a.Allocate(ctx, uint32(len(data)))
	if err != nil {
		return 0, err
	}
	return a.WriteToAllocatedMemory(data, ptr)
}
