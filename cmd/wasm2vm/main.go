// Command wasm2vm runs Wasm2 contracts from the command line.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.PathFlag{
		Name:    "config",
		Usage:   "YAML file with VM configuration",
		EnvVars: []string{"WASM2VM_CONFIG"},
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "one of trace, debug, info, warn, error",
		Value: "info",
	}
	debugPrintFlag = &cli.BoolFlag{
		Name:  "debug-print",
		Usage: "let contracts log through debug_print",
	}
	wasiFlag = &cli.BoolFlag{
		Name:  "wasi",
		Usage: "link wasi_snapshot_preview1, needed by contracts built with GOOS=wasip1",
	}
	timeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "execution limit per entry point call, overrides the config file",
	}
	maxCodeSizeFlag = &cli.StringFlag{
		Name:  "max-code-size",
		Usage: "decompressed bytecode limit such as 32MiB, overrides the config file",
	}
	memoryLimitFlag = &cli.StringFlag{
		Name:  "memory-limit",
		Usage: "linear memory limit per instance such as 32MiB, overrides the config file",
	}
)

var app = &cli.App{
	Name:  "wasm2vm",
	Usage: "load, inspect and run Wasm2 contracts",
	Flags: []cli.Flag{
		configFlag,
		logLevelFlag,
		debugPrintFlag,
		wasiFlag,
		timeoutFlag,
		memoryLimitFlag,
		maxCodeSizeFlag,
	},
	Commands: []*cli.Command{
		runCommand,
		analyzeCommand,
		checksumCommand,
		compressCommand,
	},
}

func newLogger(c *cli.Context) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(c.String(logLevelFlag.Name))
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
