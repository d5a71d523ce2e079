// Package hosterr defines the closed set of failure kinds shared by the guest
// memory accessor, the host function table and the engine.
package hosterr

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/CosmWasm/wasm2vm/types"
)

// Kind classifies a sandbox failure.
type Kind uint8

const (
	HostMisbehavior Kind = iota
	OutOfGas
	Panic

	EncryptionError
	DecryptionError
	SerializationError
	DeserializationError
	// Base32Error is an unexpected failure while processing base32 data.
	Base32Error

	MemoryAllocationError
	MemoryReadError
	MemoryWriteError
	// UnauthorizedWrite means the guest tried to mutate storage during a query.
	UnauthorizedWrite

	NonExistentImportFunction
)

var kindNames = [...]string{
	HostMisbehavior:           "HostMisbehavior",
	OutOfGas:                  "OutOfGas",
	Panic:                     "Panic",
	EncryptionError:           "EncryptionError",
	DecryptionError:           "DecryptionError",
	SerializationError:        "SerializationError",
	DeserializationError:      "DeserializationError",
	Base32Error:               "Base32Error",
	MemoryAllocationError:     "MemoryAllocationError",
	MemoryReadError:           "MemoryReadError",
	MemoryWriteError:          "MemoryWriteError",
	UnauthorizedWrite:         "UnauthorizedWrite",
	NonExistentImportFunction: "NonExistentImportFunction",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Error is a failure of a single kind. Cause keeps the low-level error that
// triggered it for diagnostics; it never changes the kind.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so callers can test with
// errors.Is(err, hosterr.New(hosterr.UnauthorizedWrite, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New returns an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf returns an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind that records cause.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// KindOf extracts the kind carried by err. Errors that carry no kind are
// reported as Panic, the catch-all for interpreter failures.
func KindOf(err error) Kind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return Panic
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var he *Error
	return errors.As(err, &he) && he.Kind == kind
}

// From converts an arbitrary error into an *Error. Errors that already carry a
// kind are returned unchanged, anything else becomes a Panic.
func From(err error, msg string) *Error {
	if err == nil {
		return nil
	}
	var he *Error
	if errors.As(err, &he) {
		return he
	}
	return Wrap(Panic, err, msg)
}

// Collapse flattens err into the single error type returned across the VM
// boundary. The kind survives only as part of the message.
func Collapse(err error) error {
	if err == nil {
		return nil
	}
	var vmErr *types.VMError
	if errors.As(err, &vmErr) {
		return vmErr
	}
	return &types.VMError{Msg: err.Error()}
}
