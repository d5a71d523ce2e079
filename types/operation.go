package types

import "fmt"

// Operation is the permission mode of a single invocation.
type Operation uint8

const (
	OperationHandle Operation = iota
	OperationQuery
	// OperationVerify has the same permissions as OperationHandle.
	OperationVerify
)

func (o Operation) String() string {
	switch o {
	case OperationHandle:
		return "handle"
	case OperationQuery:
		return "query"
	case OperationVerify:
		return "verify"
	default:
		return fmt.Sprintf("Operation(%d)", uint8(o))
	}
}

// ReadOnly reports whether storage mutations are forbidden.
func (o Operation) ReadOnly() bool {
	return o == OperationQuery
}
