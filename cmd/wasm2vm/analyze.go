package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"

	"github.com/CosmWasm/wasm2vm"
	"github.com/CosmWasm/wasm2vm/internal/runtime/wasm"
	"github.com/CosmWasm/wasm2vm/types"
)

var (
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "report encoding: json or msgpack",
		Value: "json",
	}
	outFlag = &cli.PathFlag{
		Name:  "out",
		Usage: "output file, stdout when unset",
	}

	analyzeCommand = &cli.Command{
		Name:      "analyze",
		Usage:     "Report exports, imports and entry points of a contract",
		ArgsUsage: "<code.wasm.gz>",
		Flags:     []cli.Flag{formatFlag, outFlag},
		Action:    analyze,
	}
	checksumCommand = &cli.Command{
		Name:      "checksum",
		Usage:     "Print the checksum a contract is cached under",
		ArgsUsage: "<code.wasm.gz>",
		Action:    checksum,
	}
	compressCommand = &cli.Command{
		Name:      "compress",
		Usage:     "Wrap raw module bytecode in the gzip container contracts are loaded from",
		ArgsUsage: "<module.wasm>",
		Flags:     []cli.Flag{outFlag},
		Action:    compress,
	}
)

func readArg(c *cli.Context) ([]byte, error) {
	if c.NArg() != 1 {
		return nil, errors.New("expected exactly one file argument")
	}
	data, err := os.ReadFile(c.Args().First())
	return data, errors.Wrap(err, "reading input")
}

func writeOut(c *cli.Context, data []byte) error {
	if path := c.Path(outFlag.Name); path != "" {
		return os.WriteFile(path, data, 0o644)
	}
	_, err := c.App.Writer.Write(data)
	return err
}

func analyze(c *cli.Context) error {
	code, err := readArg(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	config, err := loadConfig(c)
	if err != nil {
		return err
	}
	vm, err := wasm2vm.NewVM(config, logger)
	if err != nil {
		return err
	}
	defer vm.Cleanup()

	report, err := vm.AnalyzeCode(code)
	if err != nil {
		return err
	}
	return encodeReport(c, report)
}

func encodeReport(c *cli.Context, report *types.AnalysisReport) error {
	switch format := c.String(formatFlag.Name); format {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		return writeOut(c, append(data, '\n'))
	case "msgpack":
		data, err := report.MarshalMessagePack()
		if err != nil {
			return err
		}
		return writeOut(c, data)
	default:
		return errors.Newf("unknown format %q (use json or msgpack)", format)
	}
}

func checksum(c *cli.Context) error {
	code, err := readArg(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, wasm2vm.CreateChecksum(code))
	return err
}

func compress(c *cli.Context) error {
	bytecode, err := readArg(c)
	if err != nil {
		return err
	}
	code, err := wasm.Compress(bytecode)
	if err != nil {
		return err
	}
	return writeOut(c, code)
}
