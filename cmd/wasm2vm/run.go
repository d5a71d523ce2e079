package main

import (
	"encoding/json"
	"fmt"
	"os"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"

	"github.com/CosmWasm/wasm2vm"
	"github.com/CosmWasm/wasm2vm/api"
	"github.com/CosmWasm/wasm2vm/internal/runtime/db"
	"github.com/CosmWasm/wasm2vm/types"
)

var (
	msgFlag = &cli.StringFlag{
		Name:     "msg",
		Usage:    "JSON message passed to the entry point",
		Required: true,
	}
	envFlag = &cli.StringFlag{
		Name:  "env",
		Usage: "JSON execution environment, defaults to an empty one",
	}
	dbDirFlag = &cli.PathFlag{
		Name:  "db-dir",
		Usage: "directory of persistent contract state; state is kept in memory when unset",
	}
	dbBackendFlag = &cli.StringFlag{
		Name:  "db-backend",
		Usage: "cometbft-db backend for --db-dir",
		Value: string(dbm.GoLevelDBBackend),
	}
	prefixFlag = &cli.StringFlag{
		Name:  "bech32-prefix",
		Usage: "human readable part of contract addresses",
		Value: "wasm",
	}
	rawFlag = &cli.BoolFlag{
		Name:  "raw",
		Usage: "print the bytes the contract returned without decoding the result envelope",
	}

	runFlags = []cli.Flag{msgFlag, dbDirFlag, dbBackendFlag, prefixFlag, rawFlag}

	runCommand = &cli.Command{
		Name:  "run",
		Usage: "Invoke a contract entry point",
		Subcommands: []*cli.Command{
			{
				Name:      "handle",
				Usage:     "Call handle with an environment and a message",
				ArgsUsage: "<code.wasm.gz>",
				Flags:     append([]cli.Flag{envFlag}, runFlags...),
				Action:    runHandle,
			},
			{
				Name:      "query",
				Usage:     "Call query with a message; contract state is read-only",
				ArgsUsage: "<code.wasm.gz>",
				Flags:     runFlags,
				Action:    runQuery,
			},
		},
	}
)

// session is what one CLI invocation needs to call a contract.
type session struct {
	vm    *wasm2vm.VM
	code  wasm2vm.WasmCode
	store types.KVStore
	goapi types.GoAPI
	close func()
}

func openSession(c *cli.Context) (*session, error) {
	if c.NArg() != 1 {
		return nil, errors.New("expected exactly one code file")
	}
	code, err := os.ReadFile(c.Args().First())
	if err != nil {
		return nil, errors.Wrap(err, "reading code")
	}
	logger, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	config, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	vm, err := wasm2vm.NewVM(config, logger)
	if err != nil {
		return nil, err
	}

	// state is namespaced by the code checksum
	checksum := vm.Checksum(code)
	var backing dbm.DB
	if dir := c.Path(dbDirFlag.Name); dir != "" {
		backing, err = db.OpenDB("state", c.String(dbBackendFlag.Name), dir)
		if err != nil {
			vm.Cleanup()
			return nil, err
		}
	} else {
		backing = dbm.NewMemDB()
	}
	store, err := db.NewDBStore(backing, checksum.Bytes())
	if err != nil {
		vm.Cleanup()
		_ = backing.Close()
		return nil, err
	}

	return &session{
		vm:    vm,
		code:  code,
		store: db.Synchronized(store),
		goapi: api.NewBech32API(c.String(prefixFlag.Name)),
		close: func() {
			vm.Cleanup()
			_ = backing.Close()
		},
	}, nil
}

func runHandle(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	envBin := []byte(c.String(envFlag.Name))
	if len(envBin) == 0 {
		envBin, err = json.Marshal(types.Env{})
		if err != nil {
			return err
		}
	}
	msg := []byte(c.String(msgFlag.Name))

	if c.Bool(rawFlag.Name) {
		out, err := s.vm.HandleRaw(c.Context, s.code, envBin, msg, s.store, s.goapi, nil)
		if err != nil {
			return err
		}
		return printRaw(c, out)
	}
	var env types.Env
	if err := json.Unmarshal(envBin, &env); err != nil {
		return errors.Wrap(err, "--env")
	}
	res, err := s.vm.Handle(c.Context, s.code, env, msg, s.store, s.goapi, nil)
	if err != nil {
		return err
	}
	return printJSON(c, res)
}

func runQuery(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	msg := []byte(c.String(msgFlag.Name))
	if c.Bool(rawFlag.Name) {
		out, err := s.vm.QueryRaw(c.Context, s.code, msg, s.store, s.goapi, nil)
		if err != nil {
			return err
		}
		return printRaw(c, out)
	}
	out, err := s.vm.Query(c.Context, s.code, msg, s.store, s.goapi, nil)
	if err != nil {
		return err
	}
	return printRaw(c, out)
}

func printRaw(c *cli.Context, data []byte) error {
	_, err := fmt.Fprintln(c.App.Writer, string(data))
	return err
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
