package types

import (
	"encoding/json"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// VMConfig defines the configuration for the VM.
type VMConfig struct {
	WasmLimits WasmLimits   `json:"wasm_limits" yaml:"wasm_limits"`
	Cache      CacheOptions `json:"cache" yaml:"cache"`
	// DebugPrint makes debug_print importable by guests.
	DebugPrint bool `json:"debug_print" yaml:"debug_print"`
	// EnableWASI links wasi_snapshot_preview1 so that guests built with
	// GOOS=wasip1 can be instantiated.
	EnableWASI bool `json:"enable_wasi" yaml:"enable_wasi"`
	// RequireMarker rejects modules that do not export the interface version marker.
	RequireMarker bool `json:"require_marker" yaml:"require_marker"`
}

type WasmLimits struct {
	// InstanceMemoryLimit caps the linear memory of one instance.
	InstanceMemoryLimit Size `json:"instance_memory_limit" yaml:"instance_memory_limit"`
	// MaxCodeSize caps decompressed bytecode.
	MaxCodeSize Size `json:"max_code_size" yaml:"max_code_size"`
	// ExecutionTimeout bounds a single entry point call. Exceeding it is reported as out of gas.
	// Zero disables the limit.
	ExecutionTimeout time.Duration `json:"execution_timeout" yaml:"execution_timeout"`
}

type CacheOptions struct {
	// MemoryCacheSize is the number of compiled modules kept in memory.
	MemoryCacheSize int `json:"memory_cache_size" yaml:"memory_cache_size"`
}

const (
	defaultInstanceMemoryLimit = 32 * 1024 * 1024
	defaultMaxCodeSize         = 3 * 1024 * 1024
	defaultExecutionTimeout    = 5 * time.Second
	defaultMemoryCacheSize     = 100
)

// DefaultVMConfig returns the configuration used when none is supplied.
func DefaultVMConfig() VMConfig {
	return VMConfig{
		WasmLimits: WasmLimits{
			InstanceMemoryLimit: NewSize(defaultInstanceMemoryLimit),
			MaxCodeSize:         NewSize(defaultMaxCodeSize),
			ExecutionTimeout:    defaultExecutionTimeout,
		},
		Cache: CacheOptions{
			MemoryCacheSize: defaultMemoryCacheSize,
		},
	}
}

// Validate checks that limits are usable.
func (c VMConfig) Validate() error {
	if c.WasmLimits.InstanceMemoryLimit.Bytes() < wasmPageSize {
		return errors.Newf("instance memory limit %s is below one page", c.WasmLimits.InstanceMemoryLimit)
	}
	if c.WasmLimits.MaxCodeSize.Bytes() == 0 {
		return errors.New("max code size must be positive")
	}
	if c.WasmLimits.ExecutionTimeout < 0 {
		return errors.New("execution timeout must not be negative")
	}
	if c.Cache.MemoryCacheSize <= 0 {
		return errors.New("memory cache size must be positive")
	}
	return nil
}

const wasmPageSize = 65536

// MemoryLimitPages converts the instance memory limit to Wasm pages.
func (l WasmLimits) MemoryLimitPages() uint32 {
	return l.InstanceMemoryLimit.Bytes() / wasmPageSize
}

// Size is a byte count. It is marshalled as a plain integer and accepts
// human readable strings such as "32MiB" when unmarshalling.
type Size struct{ uint32 }

func NewSize(v uint32) Size {
	return Size{v}
}

func NewSizeKibi(v uint32) Size {
	return Size{v * 1024}
}

func NewSizeMebi(v uint32) Size {
	return Size{v * 1024 * 1024}
}

// Bytes returns the size in bytes.
func (s Size) Bytes() uint32 {
	return s.uint32
}

func (s Size) String() string {
	return humanize.IBytes(uint64(s.uint32))
}

// ParseSize parses "1048576", "1MiB", "64 KB" and similar.
func ParseSize(s string) (Size, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return Size{}, errors.Wrapf(err, "invalid size %q", s)
	}
	if n > math.MaxUint32 {
		return Size{}, errors.Newf("size %q exceeds 4GiB", s)
	}
	return Size{uint32(n)}, nil
}

func (s Size) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.uint32)
}

func (s *Size) UnmarshalJSON(data []byte) error {
	var n uint32
	if err := json.Unmarshal(data, &n); err == nil {
		s.uint32 = n
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.Newf("cannot unmarshal %s into Size", data)
	}
	parsed, err := ParseSize(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Size) MarshalYAML() (interface{}, error) {
	return s.uint32, nil
}

func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Newf("line %d: size must be a scalar", value.Line)
	}
	parsed, err := ParseSize(value.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d", value.Line)
	}
	*s = parsed
	return nil
}
