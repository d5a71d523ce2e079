package types

import (
	"fmt"
)

// StdError is the error a guest reports inside a result envelope.
// Exactly one of the fields should be set.
type StdError struct {
	GenericErr    *MsgErr       `json:"generic_err,omitempty"`
	InvalidBase64 *MsgErr       `json:"invalid_base64,omitempty"`
	InvalidUtf8   *MsgErr       `json:"invalid_utf8,omitempty"`
	NotFound      *NotFoundErr  `json:"not_found,omitempty"`
	NullPointer   *struct{}     `json:"null_pointer,omitempty"`
	ParseErr      *ParseErr     `json:"parse_err,omitempty"`
	SerializeErr  *SerializeErr `json:"serialize_err,omitempty"`
	Unauthorized  *struct{}     `json:"unauthorized,omitempty"`
	Underflow     *UnderflowErr `json:"underflow,omitempty"`
}

var _ error = (*StdError)(nil)

func (a *StdError) Error() string {
	if a == nil {
		return "(nil)"
	}
	switch {
	case a.GenericErr != nil:
		return "Generic error: " + a.GenericErr.Msg
	case a.InvalidBase64 != nil:
		return "Invalid Base64 string: " + a.InvalidBase64.Msg
	case a.InvalidUtf8 != nil:
		return "Cannot decode UTF8 bytes into string: " + a.InvalidUtf8.Msg
	case a.NotFound != nil:
		return a.NotFound.Kind + " not found"
	case a.NullPointer != nil:
		return "Received null pointer, refuse to use"
	case a.ParseErr != nil:
		return fmt.Sprintf("Error parsing into type %s: %s", a.ParseErr.Target, a.ParseErr.Msg)
	case a.SerializeErr != nil:
		return fmt.Sprintf("Error serializing type %s: %s", a.SerializeErr.Source, a.SerializeErr.Msg)
	case a.Unauthorized != nil:
		return "Unauthorized"
	case a.Underflow != nil:
		return fmt.Sprintf("Cannot subtract %s from %s", a.Underflow.Subtrahend, a.Underflow.Minuend)
	default:
		return "unknown error variant"
	}
}

type NotFoundErr struct {
	Kind string `json:"kind,omitempty"`
}

type ParseErr struct {
	Target string `json:"target,omitempty"`
	Msg    string `json:"msg,omitempty"`
}

type SerializeErr struct {
	Source string `json:"source,omitempty"`
	Msg    string `json:"msg,omitempty"`
}

// MsgErr is a generic type for errors that only have Msg field
type MsgErr struct {
	Msg string `json:"msg,omitempty"`
}

type UnderflowErr struct {
	Minuend    string `json:"minuend,omitempty"`
	Subtrahend string `json:"subtrahend,omitempty"`
}

// GenericError builds a StdError carrying only a message.
func GenericError(msg string) *StdError {
	return &StdError{GenericErr: &MsgErr{Msg: msg}}
}

// ParseError builds the error a guest reports when input does not decode into target.
func ParseError(target, msg string) *StdError {
	return &StdError{ParseErr: &ParseErr{Target: target, Msg: msg}}
}

// SerializeError builds the error a guest reports when output cannot be encoded.
func SerializeError(source, msg string) *StdError {
	return &StdError{SerializeErr: &SerializeErr{Source: source, Msg: msg}}
}

// UnauthorizedError builds an Unauthorized StdError.
func UnauthorizedError() *StdError {
	return &StdError{Unauthorized: &struct{}{}}
}

// NotFoundError builds a NotFound StdError for kind.
func NotFoundError(kind string) *StdError {
	return &StdError{NotFound: &NotFoundErr{Kind: kind}}
}

// VMError is the only error type returned across the VM boundary. Failures
// inside the sandbox are flattened into it and carry just a message.
type VMError struct {
	Msg string
}

var _ error = (*VMError)(nil)

func (e *VMError) Error() string {
	return e.Msg
}
