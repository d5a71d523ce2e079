package host

import (
	"github.com/tetratelabs/wazero/api"
)

// Function identifies a host function callable by guests.
type Function uint8

const (
	Unknown Function = iota
	ReadStorage
	WriteStorage
	RemoveStorage
	CanonicalizeAddress
	HumanizeAddress
	QueryChain
	DebugPrint
)

// Wire indexes of the host functions. Index 5 is unassigned.
const (
	readDBIndex              uint32 = 0
	writeDBIndex             uint32 = 1
	removeDBIndex            uint32 = 2
	canonicalizeAddressIndex uint32 = 3
	humanizeAddressIndex     uint32 = 4
	queryChainIndex          uint32 = 6
	debugPrintIndex          uint32 = 254
)

// FromIndex decodes a wire index. DebugPrint only decodes when debug printing
// is enabled; otherwise index 254 is Unknown like any other unassigned index.
func FromIndex(index uint32, debugPrint bool) Function {
	switch index {
	case readDBIndex:
		return ReadStorage
	case writeDBIndex:
		return WriteStorage
	case removeDBIndex:
		return RemoveStorage
	case canonicalizeAddressIndex:
		return CanonicalizeAddress
	case humanizeAddressIndex:
		return HumanizeAddress
	case queryChainIndex:
		return QueryChain
	case debugPrintIndex:
		if debugPrint {
			return DebugPrint
		}
	}
	return Unknown
}

// Import describes how a host function is exposed to guests.
type Import struct {
	Function Function
	Index    uint32
	Name     string
	Params   []api.ValueType
	Results  []api.ValueType
}

var (
	i32   = api.ValueTypeI32
	i32x1 = []api.ValueType{i32}
	i32x2 = []api.ValueType{i32, i32}
)

var imports = []Import{
	{ReadStorage, readDBIndex, "db_read", i32x1, i32x1},
	{WriteStorage, writeDBIndex, "db_write", i32x2, nil},
	{RemoveStorage, removeDBIndex, "db_remove", i32x1, nil},
	{CanonicalizeAddress, canonicalizeAddressIndex, "canonicalize_address", i32x2, i32x1},
	{HumanizeAddress, humanizeAddressIndex, "humanize_address", i32x2, i32x1},
	{QueryChain, queryChainIndex, "query_chain", i32x1, i32x1},
	{DebugPrint, debugPrintIndex, "debug_print", i32x1, nil},
}

// Imports lists the host functions a guest may import from ModuleName.
func Imports(debugPrint bool) []Import {
	out := make([]Import, 0, len(imports))
	for _, imp := range imports {
		if imp.Function == DebugPrint && !debugPrint {
			continue
		}
		out = append(out, imp)
	}
	return out
}

func (f Function) String() string {
	for _, imp := range imports {
		if imp.Function == f {
			return imp.Name
		}
	}
	return "unknown"
}
