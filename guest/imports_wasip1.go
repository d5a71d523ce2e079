//go:build wasip1

package guest

//go:wasmimport env db_read
func dbRead(key uint32) uint32

//go:wasmimport env db_write
func dbWrite(key, value uint32)

//go:wasmimport env db_remove
func dbRemove(key uint32)

//go:wasmimport env canonicalize_address
func canonicalizeAddress(human, canonical uint32) uint32

//go:wasmimport env humanize_address
func humanizeAddress(canonical, human uint32) uint32

//go:wasmimport env query_chain
func queryChain(request uint32) uint32

// debug_print is only referenced from DebugPrint, so contracts that never
// call it do not import it.
//
//go:wasmimport env debug_print
func debugPrint(msg uint32)

// envImports calls the host functions linked from the env module.
type envImports struct{}

var _ Imports = envImports{}

func (envImports) DBRead(key uint32) uint32         { return dbRead(key) }
func (envImports) DBWrite(key, value uint32)        { dbWrite(key, value) }
func (envImports) DBRemove(key uint32)              { dbRemove(key) }
func (envImports) QueryChain(request uint32) uint32 { return queryChain(request) }

func (envImports) HumanizeAddress(canonical, human uint32) uint32 {
	return humanizeAddress(canonical, human)
}

func (envImports) CanonicalizeAddress(human, canonical uint32) uint32 {
	return canonicalizeAddress(human, canonical)
}
