package types

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shamaton/msgpack/v2"
)

// Uint64 is a wrapper for uint64, but it is marshalled to and from JSON as a string
type Uint64 uint64

func (u Uint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

func (u *Uint64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cannot unmarshal %s into Uint64, expected string-encoded integer", data)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("cannot unmarshal %s into Uint64, failed to parse integer", data)
	}
	*u = Uint64(v)
	return nil
}

// HumanAddress is a printable (typically bech32 encoded) address string. Just use it as a label for developers.
type HumanAddress = string

// CanonicalAddress uses standard base64 encoding, just use it as a label for developers
type CanonicalAddress = []byte

// Coin is a string representation of the sdk.Coin type (more portable than sdk.Int)
type Coin struct {
	Denom  string `json:"denom"`  // type, eg. "ATOM"
	Amount string `json:"amount"` // string encoing of decimal value, eg. "12.3456"
}

func NewCoin(amount uint64, denom string) Coin {
	return Coin{
		Denom:  denom,
		Amount: strconv.FormatUint(amount, 10),
	}
}

// Array is a wrapper around a slice that ensures that we get "[]" JSON for nil values.
// When unmarshalling, we get an empty slice for "[]" and "null".
//
// Guests decode into non-optional vectors, where `null` is rejected.
type Array[C any] []C

// MarshalJSON ensures that we get "[]" for nil arrays
func (a Array[C]) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return []byte("[]"), nil
	}
	var raw []C = a
	return json.Marshal(raw)
}

// UnmarshalJSON ensures that we get an empty slice for "[]" and "null"
func (a *Array[C]) UnmarshalJSON(data []byte) error {
	var raw []C
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	// make sure we deserialize [] back to empty slice
	if len(raw) == 0 {
		raw = []C{}
	}
	*a = raw
	return nil
}

// Import names an imported function as "module.name".
type Import struct {
	Module string `json:"module" msgpack:"module"`
	Name   string `json:"name" msgpack:"name"`
}

func (i Import) String() string {
	return i.Module + "." + i.Name
}

// AnalysisReport contains static analysis info of a module.
// This type is returned by VM.AnalyzeCode().
type AnalysisReport struct {
	Checksum Checksum `json:"checksum" msgpack:"checksum"`
	// Size of the decompressed bytecode in bytes
	CodeSize uint64 `json:"code_size" msgpack:"code_size"`
	// Exported function names, in declaration order
	Exports []string `json:"exports" msgpack:"exports"`
	Imports []Import `json:"imports" msgpack:"imports"`
	// Imports from the env module that the host does not provide
	UnknownImports []Import `json:"unknown_imports" msgpack:"unknown_imports"`
	// HasStart is set for modules declaring a start function. Such modules are never instantiated.
	HasStart bool `json:"has_start" msgpack:"has_start"`
	// HasMarker is set when the module exports the interface version marker.
	HasMarker bool `json:"has_marker" msgpack:"has_marker"`
	// EntryPoints lists which of "handle" and "query" are exported.
	EntryPoints []string `json:"entry_points" msgpack:"entry_points"`
}

// MarshalMessagePack encodes the report as a msgpack map.
func (r *AnalysisReport) MarshalMessagePack() ([]byte, error) {
	return msgpack.Marshal(r)
}

// UnmarshalMessagePack decodes a report produced by MarshalMessagePack.
func (r *AnalysisReport) UnmarshalMessagePack(data []byte) error {
	return msgpack.Unmarshal(data, r)
}

// Metrics reports compiled-module cache statistics.
type Metrics struct {
	HitsMemoryCache uint32 `json:"hits_memory_cache"`
	Misses          uint32 `json:"misses"`
	// ElementsMemoryCache is the number of compiled modules currently held.
	ElementsMemoryCache uint64 `json:"elements_memory_cache"`
}
