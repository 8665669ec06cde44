package latency

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sarchlab/procsim/insts"
)

// ErrInvalidConfig is wrapped by every TimingConfig validation error.
var ErrInvalidConfig = errors.New("invalid timing config")

// TimingConfig holds the fixed execution latency of each opcode class.
type TimingConfig struct {
	// Class0Latency is the execution latency of class-0 instructions.
	// Default: 1 cycle.
	Class0Latency uint64 `json:"class0_latency"`

	// Class1Latency is the execution latency of class-1 instructions.
	// Default: 1 cycle.
	Class1Latency uint64 `json:"class1_latency"`

	// Class2Latency is the execution latency of class-2 instructions.
	// Default: 1 cycle.
	Class2Latency uint64 `json:"class2_latency"`
}

// DefaultTimingConfig returns a TimingConfig where every class completes in
// a single cycle.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		Class0Latency: 1,
		Class1Latency: 1,
		Class2Latency: 1,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.Class0Latency == 0 {
		return fmt.Errorf("%w: class0_latency must be > 0", ErrInvalidConfig)
	}
	if c.Class1Latency == 0 {
		return fmt.Errorf("%w: class1_latency must be > 0", ErrInvalidConfig)
	}
	if c.Class2Latency == 0 {
		return fmt.Errorf("%w: class2_latency must be > 0", ErrInvalidConfig)
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	return &TimingConfig{
		Class0Latency: c.Class0Latency,
		Class1Latency: c.Class1Latency,
		Class2Latency: c.Class2Latency,
	}
}

// forClass returns the configured latency of an opcode class.
func (c *TimingConfig) forClass(class insts.OpClass) uint64 {
	switch class {
	case insts.OpClass0:
		return c.Class0Latency
	case insts.OpClass2:
		return c.Class2Latency
	default:
		return c.Class1Latency
	}
}
