//go:build wasip1

package guest

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/CosmWasm/wasm2vm/internal/region"
)

// linearHeap allocates regions from the Go heap inside linear memory. Every
// live region keeps its header and data slices in pinned so the collector
// cannot reclaim memory the host still points at.
type linearHeap struct {
	mu     sync.Mutex
	pinned map[uint32][2][]byte
}

var heap = &linearHeap{pinned: map[uint32][2][]byte{}}

func addr(b []byte) uint32 {
	//nolint:gosec // G103: linear memory addresses are 32 bit
	return uint32(uintptr(unsafe.Pointer(unsafe.SliceData(b))))
}

func view(offset, n uint32) []byte {
	//nolint:gosec // G103: valid unsafe.Pointer use for linear memory access
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(offset))), n)
}

func (h *linearHeap) Allocate(size uint32) uint32 {
	// data always has a backing array so its address is never 0
	data := make([]byte, size, size+1)
	header := make([]byte, region.Size)
	region.Put(header, region.Region{Offset: addr(data), Capacity: size})
	ptr := addr(header)

	h.mu.Lock()
	h.pinned[ptr] = [2][]byte{header, data}
	h.mu.Unlock()
	return ptr
}

func (h *linearHeap) Deallocate(ptr uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.pinned[ptr]; !ok {
		panic(fmt.Sprintf("deallocate of unknown region %d", ptr))
	}
	delete(h.pinned, ptr)
}

func (h *linearHeap) Region(ptr uint32) region.Region {
	if ptr == 0 {
		panic("null region pointer")
	}
	return region.Decode(view(ptr, region.Size))
}

func (h *linearHeap) Read(r region.Region) []byte {
	if r.IsNull() {
		panic("read of null region")
	}
	return append([]byte{}, view(r.Offset, r.Length)...)
}

func (h *linearHeap) Write(ptr uint32, data []byte) {
	r := h.Region(ptr)
	if !r.Fits(uint32(len(data))) {
		panic(fmt.Sprintf("%d bytes exceed region capacity %d", len(data), r.Capacity))
	}
	copy(view(r.Offset, r.Capacity), data)
	copy(view(region.LengthOffset(ptr), 4), region.EncodeLength(uint32(len(data))))
}
