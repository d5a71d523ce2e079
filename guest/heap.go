// Package guest is the contract side of the Wasm2 protocol. Built for
// GOOS=wasip1 it exports allocate, deallocate and the interface marker,
// imports the env host functions, and turns a contract's typed handle and
// query callbacks into region-in, region-out entry points.
//
// The protocol logic is written against the Heap and Imports interfaces so
// it also runs natively in tests.
package guest

import (
	"fmt"
	"sync"

	"github.com/CosmWasm/wasm2vm/internal/region"
)

// Heap owns the regions handed between guest and host.
type Heap interface {
	// Allocate reserves size bytes and returns a pointer to a region header
	// with that capacity and length 0.
	Allocate(size uint32) uint32
	// Deallocate releases a region returned by Allocate.
	Deallocate(ptr uint32)
	// Region decodes the header at ptr.
	Region(ptr uint32) region.Region
	// Read returns a copy of the bytes a region describes. The copy is never
	// nil, so an empty region stays distinct from a null pointer.
	Read(r region.Region) []byte
	// Write fills the region at ptr with data and sets its length.
	Write(ptr uint32, data []byte)
}

// Consume copies out the region at ptr and releases it. A null pointer yields
// nil and an empty region a non-nil empty slice.
func Consume(h Heap, ptr uint32) []byte {
	if ptr == 0 {
		return nil
	}
	data := h.Read(h.Region(ptr))
	h.Deallocate(ptr)
	return data
}

// Release hands data to the host in a new region and returns its pointer.
func Release(h Heap, data []byte) uint32 {
	ptr := h.Allocate(uint32(len(data)))
	h.Write(ptr, data)
	return ptr
}

// SliceHeap is a Heap over a growable byte slice. Pointers are offsets into
// the slice; offset 0 is never handed out.
type SliceHeap struct {
	mu   sync.Mutex
	mem  []byte
	live map[uint32]struct{}
}

var _ Heap = (*SliceHeap)(nil)

// NewSliceHeap returns an empty SliceHeap.
func NewSliceHeap() *SliceHeap {
	return &SliceHeap{mem: make([]byte, 8), live: map[uint32]struct{}{}}
}

func (h *SliceHeap) Allocate(size uint32) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	ptr := uint32((len(h.mem) + 7) &^ 7)
	h.grow(uint64(ptr) + region.Size + uint64(size))
	region.Put(h.mem[ptr:], region.Region{Offset: ptr + region.Size, Capacity: size})
	h.live[ptr] = struct{}{}
	return ptr
}

func (h *SliceHeap) grow(n uint64) {
	if uint64(len(h.mem)) < n {
		h.mem = append(h.mem, make([]byte, n-uint64(len(h.mem)))...)
	}
}

func (h *SliceHeap) Deallocate(ptr uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.live[ptr]; !ok {
		panic(fmt.Sprintf("deallocate of unknown region %d", ptr))
	}
	delete(h.live, ptr)
}

func (h *SliceHeap) Region(ptr uint32) region.Region {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ptr == 0 || uint64(ptr)+region.Size > uint64(len(h.mem)) {
		panic(fmt.Sprintf("region header %d out of bounds", ptr))
	}
	return region.Decode(h.mem[ptr : ptr+region.Size])
}

func (h *SliceHeap) Read(r region.Region) []byte {
	data, ok := h.Load(r.Offset, r.Length)
	if !ok || r.IsNull() {
		panic(fmt.Sprintf("region %+v out of bounds", r))
	}
	return data
}

func (h *SliceHeap) Write(ptr uint32, data []byte) {
	r := h.Region(ptr)
	if !r.Fits(uint32(len(data))) {
		panic(fmt.Sprintf("%d bytes exceed region capacity %d", len(data), r.Capacity))
	}
	h.Store(r.Offset, data)
	h.Store(region.LengthOffset(ptr), region.EncodeLength(uint32(len(data))))
}

// Load copies n bytes at offset. It reports false when out of bounds.
func (h *SliceHeap) Load(offset, n uint32) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if uint64(offset)+uint64(n) > uint64(len(h.mem)) {
		return nil, false
	}
	return append([]byte{}, h.mem[offset:offset+n]...), true
}

// Store copies data to offset. It reports false when out of bounds.
func (h *SliceHeap) Store(offset uint32, data []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if uint64(offset)+uint64(len(data)) > uint64(len(h.mem)) {
		return false
	}
	copy(h.mem[offset:], data)
	return true
}

// Size is the current extent of the heap in bytes.
func (h *SliceHeap) Size() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return uint32(len(h.mem))
}

// Live counts regions allocated and not yet released.
func (h *SliceHeap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}
