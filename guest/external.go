package guest

import (
	"github.com/cockroachdb/errors"

	"github.com/CosmWasm/wasm2vm/types"
)

// Imports are the env host functions, taking and returning region pointers.
type Imports interface {
	DBRead(key uint32) uint32
	DBWrite(key, value uint32)
	DBRemove(key uint32)
	CanonicalizeAddress(human, canonical uint32) uint32
	HumanizeAddress(canonical, human uint32) uint32
	QueryChain(request uint32) uint32
}

// Destination capacities for address conversion.
const (
	CanonicalAddressCapacity = 64
	HumanAddressCapacity     = 256
)

// API converts between human and canonical addresses.
type API interface {
	CanonicalAddress(human string) ([]byte, error)
	HumanAddress(canonical []byte) (string, error)
}

// Deps are the capabilities a contract callback receives.
type Deps struct {
	Storage types.KVStore
	API     API
	Querier types.Querier
}

// ExternalStorage reaches contract storage through db_read, db_write and db_remove.
type ExternalStorage struct {
	heap    Heap
	imports Imports
}

var _ types.KVStore = ExternalStorage{}

func (s ExternalStorage) Get(key []byte) []byte {
	k := Release(s.heap, key)
	defer s.heap.Deallocate(k)
	return Consume(s.heap, s.imports.DBRead(k))
}

func (s ExternalStorage) Set(key, value []byte) {
	k := Release(s.heap, key)
	defer s.heap.Deallocate(k)
	v := Release(s.heap, value)
	defer s.heap.Deallocate(v)
	s.imports.DBWrite(k, v)
}

func (s ExternalStorage) Delete(key []byte) {
	k := Release(s.heap, key)
	defer s.heap.Deallocate(k)
	s.imports.DBRemove(k)
}

// ExternalAPI converts addresses through canonicalize_address and
// humanize_address. A non-zero result points at an error message.
type ExternalAPI struct {
	heap    Heap
	imports Imports
}

var _ API = ExternalAPI{}

func (a ExternalAPI) CanonicalAddress(human string) ([]byte, error) {
	h := Release(a.heap, []byte(human))
	defer a.heap.Deallocate(h)
	dst := a.heap.Allocate(CanonicalAddressCapacity)
	if res := a.imports.CanonicalizeAddress(h, dst); res != 0 {
		a.heap.Deallocate(dst)
		return nil, errors.Newf("canonicalize_address: %s", Consume(a.heap, res))
	}
	return Consume(a.heap, dst), nil
}

func (a ExternalAPI) HumanAddress(canonical []byte) (string, error) {
	c := Release(a.heap, canonical)
	defer a.heap.Deallocate(c)
	dst := a.heap.Allocate(HumanAddressCapacity)
	if res := a.imports.HumanizeAddress(c, dst); res != 0 {
		a.heap.Deallocate(dst)
		return "", errors.Newf("humanize_address: %s", Consume(a.heap, res))
	}
	return string(Consume(a.heap, dst)), nil
}

// ExternalQuerier forwards requests through query_chain.
type ExternalQuerier struct {
	heap    Heap
	imports Imports
}

var _ types.Querier = ExternalQuerier{}

func (q ExternalQuerier) Query(request []byte) ([]byte, error) {
	r := Release(q.heap, request)
	defer q.heap.Deallocate(r)
	return Consume(q.heap, q.imports.QueryChain(r)), nil
}

// NewExternalDeps wires every capability to imports.
func NewExternalDeps(heap Heap, imports Imports) Deps {
	return Deps{
		Storage: ExternalStorage{heap: heap, imports: imports},
		API:     ExternalAPI{heap: heap, imports: imports},
		Querier: ExternalQuerier{heap: heap, imports: imports},
	}
}

// Print hands msg to a debug_print style import.
func Print(heap Heap, printFn func(msg uint32), msg string) {
	m := Release(heap, []byte(msg))
	defer heap.Deallocate(m)
	printFn(m)
}
