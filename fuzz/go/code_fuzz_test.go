package gofuzz

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/wasm2vm/internal/runtime/wasm"
	"github.com/CosmWasm/wasm2vm/internal/testmodules"
)

func FuzzDecompress(f *testing.F) {
	f.Add(testmodules.Code(f, testmodules.Echo))
	f.Add([]byte{0x1f, 0x8b})
	f.Add([]byte("\x00asm\x01\x00\x00\x00"))

	f.Fuzz(func(t *testing.T, code []byte) {
		const limit = 1 << 16
		out, err := wasm.Decompress(code, limit)
		if err != nil {
			return
		}
		require.LessOrEqual(t, len(out), limit)

		again, err := wasm.Compress(out)
		require.NoError(t, err)
		roundTrip, err := wasm.Decompress(again, limit)
		require.NoError(t, err)
		require.True(t, bytes.Equal(out, roundTrip))
	})
}

// FuzzCompile feeds arbitrary module bytecode through compilation. Anything
// that is not a valid module must be rejected with an error.
func FuzzCompile(f *testing.F) {
	f.Add(testmodules.Bytecode(f, testmodules.Storage))
	f.Add(testmodules.Bytecode(f, testmodules.WithStart))
	f.Add([]byte("\x00asm\x01\x00\x00\x00"))
	vm := newVM(f)

	f.Fuzz(func(t *testing.T, bytecode []byte) {
		code, err := wasm.Compress(bytecode)
		require.NoError(t, err)

		checksum, err := vm.Compile(t.Context(), code)
		requireContained(t, err)
		if err == nil {
			require.Equal(t, vm.Checksum(code), checksum)
		}
		_, err = vm.AnalyzeCode(code)
		requireContained(t, err)
	})
}
