package hosterr

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/wasm2vm/types"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "UnauthorizedWrite", UnauthorizedWrite.String())
	assert.Equal(t, "NonExistentImportFunction", NonExistentImportFunction.String())
	assert.Equal(t, "Kind(200)", Kind(200).String())
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("out of bounds")
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"bare", &Error{Kind: Panic}, "Panic"},
		{"msg", New(MemoryReadError, "null region"), "MemoryReadError: null region"},
		{"cause", &Error{Kind: MemoryWriteError, Cause: cause}, "MemoryWriteError: out of bounds"},
		{"both", Wrap(MemoryAllocationError, cause, "allocate"), "MemoryAllocationError: allocate: out of bounds"},
		{"formatted", Newf(OutOfGas, "after %dms", 5), "OutOfGas: after 5ms"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := New(UnauthorizedWrite, "db_write during query")
	wrapped := fmt.Errorf("wasm error: %w", errors.Wrap(base, "handle"))

	assert.Equal(t, UnauthorizedWrite, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, UnauthorizedWrite))
	assert.False(t, IsKind(wrapped, MemoryWriteError))
	assert.True(t, stderrors.Is(wrapped, New(UnauthorizedWrite, "")))
	assert.False(t, stderrors.Is(wrapped, New(Panic, "")))
}

func TestUntypedErrorsArePanics(t *testing.T) {
	err := errors.New("unreachable executed")
	assert.Equal(t, Panic, KindOf(err))

	he := From(err, "calling handle")
	require.NotNil(t, he)
	assert.Equal(t, Panic, he.Kind)
	assert.ErrorIs(t, he, err)

	assert.Nil(t, From(nil, "ignored"))

	typed := New(MemoryReadError, "x")
	assert.Same(t, typed, From(fmt.Errorf("ctx: %w", typed), "ignored"))
}

func TestCollapse(t *testing.T) {
	assert.NoError(t, Collapse(nil))

	err := Collapse(errors.Wrap(New(UnauthorizedWrite, "db_write during query"), "calling query"))
	var vmErr *types.VMError
	require.True(t, errors.As(err, &vmErr))
	assert.Equal(t, "calling query: UnauthorizedWrite: db_write during query", vmErr.Msg)
	assert.False(t, IsKind(err, UnauthorizedWrite))

	same := &types.VMError{Msg: "already flat"}
	assert.Same(t, same, Collapse(fmt.Errorf("wrapped: %w", same)))
}
