//go:build wasip1

package guest

//go:wasmexport allocate
func allocate(size uint32) uint32 {
	return heap.Allocate(size)
}

//go:wasmexport deallocate
func deallocate(ptr uint32) {
	heap.Deallocate(ptr)
}

// interfaceVersion marks the module as speaking this protocol version.
//
//go:wasmexport wasm2_vm_version_1
func interfaceVersion() {}

// ExternalDeps returns capabilities backed by the host.
func ExternalDeps() Deps {
	return NewExternalDeps(heap, envImports{})
}

// DebugPrint logs msg on the host. The module only links when the host
// enables debug output.
func DebugPrint(msg string) {
	Print(heap, debugPrint, msg)
}

// DoHandle runs fn for a handle export:
//
//	//go:wasmexport handle
//	func handle(env, msg uint32) uint32 { return guest.DoHandle(execute, env, msg) }
func DoHandle[M any](fn HandleFunc[M], envPtr, msgPtr uint32) uint32 {
	return DispatchHandle(heap, ExternalDeps(), fn, envPtr, msgPtr)
}

// DoQuery runs fn for a query export.
func DoQuery[M any](fn QueryFunc[M], msgPtr uint32) uint32 {
	return DispatchQuery(heap, ExternalDeps(), fn, msgPtr)
}
