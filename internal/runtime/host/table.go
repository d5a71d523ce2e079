package host

import (
	"context"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/CosmWasm/wasm2vm/internal/runtime/hosterr"
	"github.com/CosmWasm/wasm2vm/internal/runtime/memory"
)

// InvalidUTF8Message is written back to the guest by canonicalize_address
// when the human address is not valid UTF-8.
const InvalidUTF8Message = "input is not valid UTF-8"

// ErrMissingCapability is returned when the environment lacks a capability a
// guest asked for.
var ErrMissingCapability = errors.New("capability not configured")

// Table dispatches guest calls to host functions.
type Table struct {
	debugPrint bool
}

// NewTable returns a table. debug_print is only dispatched when debugPrint is set.
func NewTable(debugPrint bool) *Table {
	return &Table{debugPrint: debugPrint}
}

// Imports lists the host functions this table serves.
func (t *Table) Imports() []Import {
	return Imports(t.debugPrint)
}

// call holds the state of one host function call. Nothing in it survives the
// call, and handlers re-read guest memory after every reentrant allocate.
type call struct {
	env  *Environment
	mem  *memory.Accessor
	args []uint64
}

func (c *call) arg(i int) (uint32, error) {
	if i >= len(c.args) {
		return 0, hosterr.Newf(hosterr.Panic, "missing argument %d", i)
	}
	return uint32(c.args[i]), nil
}

func (c *call) args2() (uint32, uint32, error) {
	a, err := c.arg(0)
	if err != nil {
		return 0, 0, err
	}
	b, err := c.arg(1)
	return a, b, err
}

func result(v uint32) []uint64 {
	return []uint64{uint64(v)}
}

// Invoke runs the host function with the given wire index. Results are the
// raw i32 values to return to the guest. Failures are always *hosterr.Error.
func (t *Table) Invoke(ctx context.Context, env *Environment, guest memory.Guest, index uint32, args []uint64) ([]uint64, error) {
	fn := FromIndex(index, t.debugPrint)
	c := &call{env: env, mem: memory.NewAccessor(guest, env.Logger), args: args}
	env.Logger.Trace().Stringer("function", fn).Uint32("index", index).Msg("host call")

	var (
		out []uint64
		err error
	)
	switch fn {
	case ReadStorage:
		out, err = c.readStorage(ctx)
	case WriteStorage:
		err = c.writeStorage()
	case RemoveStorage:
		err = c.removeStorage()
	case CanonicalizeAddress:
		out, err = c.canonicalizeAddress(ctx)
	case HumanizeAddress:
		out, err = c.humanizeAddress()
	case QueryChain:
		out, err = c.queryChain(ctx)
	case DebugPrint:
		err = c.debugPrint()
	case Unknown:
		err = hosterr.Newf(hosterr.NonExistentImportFunction, "no host function at index %d", index)
	}
	if err != nil {
		he := hosterr.From(err, fn.String())
		env.Logger.Debug().Err(he).Stringer("function", fn).Msg("host function failed")
		return nil, he
	}
	return out, nil
}

// readStorage returns 0 for an absent key, otherwise a fresh region holding
// the value.
func (c *call) readStorage(ctx context.Context) ([]uint64, error) {
	keyPtr, err := c.arg(0)
	if err != nil {
		return nil, err
	}
	key, err := c.mem.ExtractVector(keyPtr)
	if err != nil {
		return nil, err
	}
	value := c.env.Store.Get(key)
	if value == nil {
		return result(0), nil
	}
	ptr, err := c.mem.WriteToMemory(ctx, value)
	if err != nil {
		return nil, err
	}
	return result(ptr), nil
}

func (c *call) checkWritable(name string) error {
	if c.env.Operation.ReadOnly() {
		return hosterr.Newf(hosterr.UnauthorizedWrite, "%s during %s", name, c.env.Operation)
	}
	return nil
}

func (c *call) writeStorage() error {
	if err := c.checkWritable("db_write"); err != nil {
		return err
	}
	keyPtr, valuePtr, err := c.args2()
	if err != nil {
		return err
	}
	key, err := c.mem.ExtractVector(keyPtr)
	if err != nil {
		return err
	}
	value, err := c.mem.ExtractVector(valuePtr)
	if err != nil {
		return err
	}
	c.env.Store.Set(key, value)
	return nil
}

func (c *call) removeStorage() error {
	if err := c.checkWritable("db_remove"); err != nil {
		return err
	}
	keyPtr, err := c.arg(0)
	if err != nil {
		return err
	}
	key, err := c.mem.ExtractVector(keyPtr)
	if err != nil {
		return err
	}
	c.env.Store.Delete(key)
	return nil
}

// canonicalizeAddress returns 0 after writing the canonical address into the
// destination region. Input that is not UTF-8 does not fail the call: the
// result is instead a fresh region holding InvalidUTF8Message.
func (c *call) canonicalizeAddress(ctx context.Context) ([]uint64, error) {
	humanPtr, canonicalPtr, err := c.args2()
	if err != nil {
		return nil, err
	}
	human, err := c.mem.ExtractVector(humanPtr)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(human) {
		ptr, err := c.mem.WriteToMemory(ctx, []byte(InvalidUTF8Message))
		if err != nil {
			return nil, err
		}
		return result(ptr), nil
	}
	if c.env.API.CanonicalizeAddress == nil {
		return nil, hosterr.Wrap(hosterr.Panic, ErrMissingCapability, "canonicalize_address")
	}
	canonical, err := c.env.API.CanonicalizeAddress(string(human))
	if err != nil {
		return nil, hosterr.Wrap(hosterr.Panic, err, "canonicalize_address")
	}
	if _, err := c.mem.WriteToAllocatedMemory(canonical, canonicalPtr); err != nil {
		return nil, err
	}
	return result(0), nil
}

// humanizeAddress returns 0 after writing the human address into the
// destination region.
func (c *call) humanizeAddress() ([]uint64, error) {
	canonicalPtr, humanPtr, err := c.args2()
	if err != nil {
		return nil, err
	}
	canonical, err := c.mem.ExtractVector(canonicalPtr)
	if err != nil {
		return nil, err
	}
	if c.env.API.HumanizeAddress == nil {
		return nil, hosterr.Wrap(hosterr.Panic, ErrMissingCapability, "humanize_address")
	}
	human, err := c.env.API.HumanizeAddress(canonical)
	if err != nil {
		return nil, hosterr.Wrap(hosterr.Panic, err, "humanize_address")
	}
	if _, err := c.mem.WriteToAllocatedMemory([]byte(human), humanPtr); err != nil {
		return nil, err
	}
	return result(0), nil
}

// queryChain forwards the request to the querier. A querier failure,
// including an unsupported querier, aborts the invocation.
func (c *call) queryChain(ctx context.Context) ([]uint64, error) {
	reqPtr, err := c.arg(0)
	if err != nil {
		return nil, err
	}
	request, err := c.mem.ExtractVector(reqPtr)
	if err != nil {
		return nil, err
	}
	response, err := c.env.Querier.Query(request)
	if err != nil {
		return nil, hosterr.Wrap(hosterr.Panic, err, "query_chain")
	}
	if response == nil {
		return result(0), nil
	}
	ptr, err := c.mem.WriteToMemory(ctx, response)
	if err != nil {
		return nil, err
	}
	return result(ptr), nil
}

func (c *call) debugPrint() error {
	msgPtr, err := c.arg(0)
	if err != nil {
		return err
	}
	msg, err := c.mem.ExtractVector(msgPtr)
	if err != nil {
		return err
	}
	if !utf8.Valid(msg) {
		return hosterr.New(hosterr.Panic, "debug_print message is not valid UTF-8")
	}
	c.env.Logger.Info().Str("component", "guest").Msg(string(msg))
	return nil
}
