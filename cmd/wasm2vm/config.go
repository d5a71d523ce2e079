package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/CosmWasm/wasm2vm/types"
)

// readConfig decodes a YAML config file over the defaults.
func readConfig(path string) (types.VMConfig, error) {
	config := types.DefaultVMConfig()
	if path == "" {
		return config, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return config, errors.Wrapf(err, "parsing config %s", path)
	}
	return config, nil
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(c *cli.Context) (types.VMConfig, error) {
	config, err := readConfig(c.Path(configFlag.Name))
	if err != nil {
		return config, err
	}
	if c.IsSet(debugPrintFlag.Name) {
		config.DebugPrint = c.Bool(debugPrintFlag.Name)
	}
	if c.IsSet(wasiFlag.Name) {
		config.EnableWASI = c.Bool(wasiFlag.Name)
	}
	if c.IsSet(timeoutFlag.Name) {
		config.WasmLimits.ExecutionTimeout = c.Duration(timeoutFlag.Name)
	}
	if c.IsSet(memoryLimitFlag.Name) {
		size, err := types.ParseSize(c.String(memoryLimitFlag.Name))
		if err != nil {
			return config, errors.Wrap(err, "--memory-limit")
		}
		config.WasmLimits.InstanceMemoryLimit = size
	}
	if c.IsSet(maxCodeSizeFlag.Name) {
		size, err := types.ParseSize(c.String(maxCodeSizeFlag.Name))
		if err != nil {
			return config, errors.Wrap(err, "--max-code-size")
		}
		config.WasmLimits.MaxCodeSize = size
	}
	return config, config.Validate()
}
