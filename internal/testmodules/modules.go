// Package testmodules holds small guest modules written in WAT for engine
// and VM tests, and compiles them into the gzip container the engine loads.
package testmodules

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wippyai/wasm-runtime/wat"

	"github.com/CosmWasm/wasm2vm/internal/runtime/wasm"
)

// HandleResponse is the body the storage contract returns from handle.
const HandleResponse = `{"Ok":{"messages":[],"log":[{"key":"action","value":"store"}]}}`

// StateKey is the storage key the storage contract writes to.
const StateKey = "state"

// allocator is a bump allocator placing a 12 byte region header right before
// its data. deallocate is a no-op. $region writes a header for static data.
const allocator = `
  (memory (export "memory") 2)
  (global $heap (mut i32) (i32.const 1024))
  (func $allocate (export "allocate") (param $size i32) (result i32)
    (local $ptr i32)
    (local.set $ptr (global.get $heap))
    (i32.store (local.get $ptr) (i32.add (local.get $ptr) (i32.const 12)))
    (i32.store (i32.add (local.get $ptr) (i32.const 4)) (local.get $size))
    (i32.store (i32.add (local.get $ptr) (i32.const 8)) (i32.const 0))
    (global.set $heap (i32.add (i32.add (local.get $ptr) (i32.const 12)) (local.get $size)))
    (local.get $ptr))
  (func (export "deallocate") (param i32))
  (func $region (param $hdr i32) (param $off i32) (param $len i32) (result i32)
    (i32.store (local.get $hdr) (local.get $off))
    (i32.store (i32.add (local.get $hdr) (i32.const 4)) (local.get $len))
    (i32.store (i32.add (local.get $hdr) (i32.const 8)) (local.get $len))
    (local.get $hdr))
  (data (i32.const 48) "state")
  (data (i32.const 256) "{\"Ok\":{\"messages\":[],\"log\":[{\"key\":\"action\",\"value\":\"store\"}]}}")
`

// Storage is a contract whose handle stores the message under StateKey and
// returns HandleResponse, and whose query returns the stored value.
const Storage = `(module
  (import "env" "db_read" (func $db_read (param i32) (result i32)))
  (import "env" "db_write" (func $db_write (param i32 i32)))
` + allocator + `
  (func (export "wasm2_vm_version_1"))
  (func (export "handle") (param $env i32) (param $msg i32) (result i32)
    (call $db_write (call $region (i32.const 32) (i32.const 48) (i32.const 5)) (local.get $msg))
    (call $region (i32.const 16) (i32.const 256) (i32.const 63)))
  (func (export "query") (param $msg i32) (result i32)
    (call $db_read (call $region (i32.const 32) (i32.const 48) (i32.const 5))))
)`

// MutatingQuery removes StateKey from query.
const MutatingQuery = `(module
  (import "env" "db_remove" (func $db_remove (param i32)))
` + allocator + `
  (func (export "query") (param $msg i32) (result i32)
    (call $db_remove (call $region (i32.const 32) (i32.const 48) (i32.const 5)))
    (call $region (i32.const 16) (i32.const 256) (i32.const 63)))
)`

// Echo returns its message from both entry points.
const Echo = `(module
` + allocator + `
  (func (export "handle") (param $env i32) (param $msg i32) (result i32)
    (local.get $msg))
  (func (export "query") (param $msg i32) (result i32)
    (local.get $msg))
)`

// WithStart declares a start function that would write to memory.
const WithStart = `(module
` + allocator + `
  (func $init (i32.store (i32.const 0) (i32.const 1)))
  (start $init)
  (func (export "query") (param $msg i32) (result i32)
    (local.get $msg))
)`

// Loop never returns from handle.
const Loop = `(module
` + allocator + `
  (func (export "handle") (param i32 i32) (result i32)
    (loop $l (br $l))
    (i32.const 0))
)`

// WrongResult returns an i64 from query.
const WrongResult = `(module
` + allocator + `
  (func (export "query") (param i32) (result i64)
    (i64.const 7))
)`

// Trap executes unreachable in handle.
const Trap = `(module
` + allocator + `
  (func (export "handle") (param i32 i32) (result i32)
    (unreachable))
)`

// UnknownImport imports a host function the table does not provide.
const UnknownImport = `(module
  (import "env" "db_scan" (func $db_scan (param i32) (result i32)))
` + allocator + `
  (func (export "query") (param $msg i32) (result i32)
    (call $db_scan (local.get $msg)))
)`

// NullAllocator exports an allocate that always returns 0.
const NullAllocator = `(module
  (memory (export "memory") 1)
  (func (export "allocate") (param i32) (result i32)
    (i32.const 0))
  (func (export "query") (param $msg i32) (result i32)
    (local.get $msg))
)`

// Bytecode compiles WAT source to module bytecode.
func Bytecode(tb testing.TB, src string) []byte {
	tb.Helper()
	bytecode, err := wat.Compile(src)
	require.NoError(tb, err)
	return bytecode
}

// Code compiles WAT source and wraps it in the gzip container.
func Code(tb testing.TB, src string) []byte {
	tb.Helper()
	code, err := wasm.Compress(Bytecode(tb, src))
	require.NoError(tb, err)
	return code
}
