package guest

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/CosmWasm/wasm2vm/types"
)

// HandleFunc is a contract's typed handle callback.
type HandleFunc[M any] func(deps Deps, env types.Env, msg M) (*types.HandleResponse, error)

// QueryFunc is a contract's typed query callback. It returns the raw query answer.
type QueryFunc[M any] func(deps Deps, msg M) ([]byte, error)

// DispatchHandle consumes the env and msg regions, runs fn and returns a new
// region holding the serialized types.HandleResult. Decoding failures and
// errors from fn are reported inside the envelope.
func DispatchHandle[M any](heap Heap, deps Deps, fn HandleFunc[M], envPtr, msgPtr uint32) uint32 {
	envBin := Consume(heap, envPtr)
	msgBin := Consume(heap, msgPtr)

	var res types.HandleResult
	var env types.Env
	var msg M
	if err := json.Unmarshal(envBin, &env); err != nil {
		res.Err = types.ParseError(typeName[types.Env](), err.Error())
	} else if err := json.Unmarshal(msgBin, &msg); err != nil {
		res.Err = types.ParseError(typeName[M](), err.Error())
	} else {
		resp, err := fn(deps, env, msg)
		if err != nil {
			res.Err = toStdError(err)
		} else {
			if resp == nil {
				resp = &types.HandleResponse{}
			}
			res.Ok = resp
		}
	}
	return Release(heap, marshalResult(res))
}

// DispatchQuery consumes the msg region, runs fn and returns a new region
// holding the serialized types.QueryResult.
func DispatchQuery[M any](heap Heap, deps Deps, fn QueryFunc[M], msgPtr uint32) uint32 {
	msgBin := Consume(heap, msgPtr)

	var res types.QueryResult
	var msg M
	if err := json.Unmarshal(msgBin, &msg); err != nil {
		res.Err = types.ParseError(typeName[M](), err.Error())
	} else {
		data, err := fn(deps, msg)
		if err != nil {
			res.Err = toStdError(err)
		} else {
			res.Ok = data
		}
	}
	return Release(heap, marshalResult(res))
}

func typeName[T any]() string {
	var target T
	return fmt.Sprintf("%T", target)
}

func toStdError(err error) *types.StdError {
	var stdErr *types.StdError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return types.GenericError(err.Error())
}

func marshalResult(res interface{}) []byte {
	out, err := json.Marshal(res)
	if err != nil {
		out, _ = json.Marshal(types.HandleResult{Err: types.SerializeError("result", err.Error())})
	}
	return out
}
