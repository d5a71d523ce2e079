package wasm

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"

	"github.com/CosmWasm/wasm2vm/internal/runtime/host"
	"github.com/CosmWasm/wasm2vm/internal/runtime/hosterr"
	"github.com/CosmWasm/wasm2vm/internal/runtime/memory"
)

// Instance is one instantiation of a Module, bound to the Environment of a
// single invocation. It is not safe for concurrent use.
type Instance struct {
	module  api.Module
	env     *host.Environment
	mem     *memory.Accessor
	timeout time.Duration
	logger  zerolog.Logger
}

// callContext attaches the environment for host functions and the execution
// deadline. wazero closes the module when the deadline passes.
func (i *Instance) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = host.WithEnvironment(ctx, i.env)
	if i.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, i.timeout)
}

// WriteToMemory hands data to the guest in a freshly allocated region.
func (i *Instance) WriteToMemory(ctx context.Context, data []byte) (uint32, error) {
	ctx, cancel := i.callContext(ctx)
	defer cancel()
	ptr, err := i.mem.WriteToMemory(ctx, data)
	if err != nil {
		return 0, i.classify(ctx, err, "writing to guest memory")
	}
	return ptr, nil
}

// ExtractVector copies out the contents of the region at ptr.
func (i *Instance) ExtractVector(ptr uint32) ([]byte, error) {
	return i.mem.ExtractVector(ptr)
}

// Handle calls the handle export with pointers to the serialized
// environment and message, and returns the pointer to its result.
func (i *Instance) Handle(ctx context.Context, envPtr, msgPtr uint32) (uint32, error) {
	return i.invoke(ctx, HandleExport, uint64(envPtr), uint64(msgPtr))
}

// Query calls the query export with a pointer to the serialized message.
func (i *Instance) Query(ctx context.Context, msgPtr uint32) (uint32, error) {
	return i.invoke(ctx, QueryExport, uint64(msgPtr))
}

// HandleBytes writes env and msg into guest memory, calls handle and returns
// the bytes of the result region.
func (i *Instance) HandleBytes(ctx context.Context, env, msg []byte) ([]byte, error) {
	envPtr, err := i.WriteToMemory(ctx, env)
	if err != nil {
		return nil, err
	}
	msgPtr, err := i.WriteToMemory(ctx, msg)
	if err != nil {
		return nil, err
	}
	resPtr, err := i.Handle(ctx, envPtr, msgPtr)
	if err != nil {
		return nil, err
	}
	return i.ExtractVector(resPtr)
}

// QueryBytes writes msg into guest memory, calls query and returns the bytes
// of the result region.
func (i *Instance) QueryBytes(ctx context.Context, msg []byte) ([]byte, error) {
	msgPtr, err := i.WriteToMemory(ctx, msg)
	if err != nil {
		return nil, err
	}
	resPtr, err := i.Query(ctx, msgPtr)
	if err != nil {
		return nil, err
	}
	return i.ExtractVector(resPtr)
}

// invoke calls an export that must return exactly one i32, the pointer to
// its result region. Host functions may run any number of times before it
// returns.
func (i *Instance) invoke(ctx context.Context, name string, params ...uint64) (uint32, error) {
	fn := i.module.ExportedFunction(name)
	if fn == nil {
		return 0, hosterr.Newf(hosterr.Panic, "module does not export %q", name)
	}
	def := fn.Definition()
	if rt := def.ResultTypes(); len(rt) != 1 || rt[0] != api.ValueTypeI32 {
		return 0, hosterr.Newf(hosterr.Panic, "%s must return a single i32, got %v", name, valueTypeNames(rt))
	}
	if len(def.ParamTypes()) != len(params) {
		return 0, hosterr.Newf(hosterr.Panic, "%s takes %d params, want %d", name, len(def.ParamTypes()), len(params))
	}

	ctx, cancel := i.callContext(ctx)
	defer cancel()
	i.logger.Debug().Str("export", name).Msg("calling guest")
	results, err := fn.Call(ctx, params...)
	if err != nil {
		return 0, i.classify(ctx, err, "calling "+name)
	}
	if len(results) != 1 {
		return 0, hosterr.Newf(hosterr.Panic, "%s returned %d values", name, len(results))
	}
	return api.DecodeU32(results[0]), nil
}

// classify maps an error from a guest call to a single kind. Deadline and
// cancellation surface as OutOfGas, failures raised by host functions keep
// their kind, and anything else the guest did is a Panic.
func (i *Instance) classify(ctx context.Context, err error, msg string) error {
	var exit *sys.ExitError
	switch {
	case ctx.Err() != nil:
		err = hosterr.Wrap(hosterr.OutOfGas, err, "execution limit reached")
	case errors.As(err, &exit) && (exit.ExitCode() == sys.ExitCodeDeadlineExceeded || exit.ExitCode() == sys.ExitCodeContextCanceled):
		err = hosterr.Wrap(hosterr.OutOfGas, err, "execution limit reached")
	default:
		err = hosterr.From(err, msg)
	}
	i.logger.Debug().Err(err).Str("step", msg).Msg("guest call failed")
	return err
}

// Close releases the instance's memory.
func (i *Instance) Close(ctx context.Context) {
	if i.module != nil {
		_ = i.module.Close(ctx)
	}
}

func valueTypeNames(types []api.ValueType) []string {
	out := make([]string, len(types))
	for n, t := range types {
		out[n] = api.ValueTypeName(t)
	}
	return out
}
