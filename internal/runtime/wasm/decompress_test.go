package wasm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/wasm2vm/internal/runtime/wasm"
)

func TestDecompress(t *testing.T) {
	payload := bytes.Repeat([]byte("\x00asm"), 100)
	code, err := wasm.Compress(payload)
	require.NoError(t, err)

	specs := map[string]struct {
		input   []byte
		limit   uint32
		want    []byte
		wantErr string
	}{
		"round trip":     {input: code, limit: 400, want: payload},
		"exact limit":    {input: code, limit: uint32(len(payload)), want: payload},
		"over limit":     {input: code, limit: uint32(len(payload)) - 1, wantErr: "exceeds size limit"},
		"raw bytecode":   {input: payload, limit: 400, wantErr: "gzip"},
		"empty":          {input: nil, limit: 400, wantErr: "gzip"},
		"truncated gzip": {input: code[:len(code)/2], limit: 400, wantErr: "failed to decompress"},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			got, err := wasm.Decompress(spec.input, spec.limit)
			if spec.wantErr != "" {
				assert.ErrorContains(t, err, spec.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, spec.want, got)
		})
	}
}

func TestDecompressTooLargeIsTyped(t *testing.T) {
	code, err := wasm.Compress(make([]byte, 1024))
	require.NoError(t, err)
	_, err = wasm.Decompress(code, 10)
	assert.ErrorIs(t, err, wasm.ErrCodeTooLarge)
}
