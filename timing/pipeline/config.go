package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sarchlab/procsim/insts"
)

// ErrInvalidConfig is wrapped by every machine configuration error.
var ErrInvalidConfig = errors.New("invalid pipeline config")

// Config describes the machine widths and functional-unit counts.
type Config struct {
	// ROBWidth is the maximum number of instructions retired per cycle (R).
	ROBWidth int `json:"rob_width"`

	// FU0Count is the number of class-0 functional units (K0).
	FU0Count int `json:"fu0_count"`

	// FU1Count is the number of class-1 functional units (K1).
	FU1Count int `json:"fu1_count"`

	// FU2Count is the number of class-2 functional units (K2).
	FU2Count int `json:"fu2_count"`

	// FetchWidth is the number of instructions fetched per cycle (F).
	FetchWidth int `json:"fetch_width"`
}

// DefaultConfig returns the default machine: R=8, K0=1, K1=2, K2=3, F=4.
func DefaultConfig() *Config {
	return &Config{
		ROBWidth:   8,
		FU0Count:   1,
		FU1Count:   2,
		FU2Count:   3,
		FetchWidth: 4,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize pipeline config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write pipeline config file: %w", err)
	}

	return nil
}

// Validate checks that every width and unit count is at least 1.
func (c *Config) Validate() error {
	if c.ROBWidth < 1 {
		return fmt.Errorf("%w: rob_width must be >= 1, got %d", ErrInvalidConfig, c.ROBWidth)
	}
	if c.FU0Count < 1 {
		return fmt.Errorf("%w: fu0_count must be >= 1, got %d", ErrInvalidConfig, c.FU0Count)
	}
	if c.FU1Count < 1 {
		return fmt.Errorf("%w: fu1_count must be >= 1, got %d", ErrInvalidConfig, c.FU1Count)
	}
	if c.FU2Count < 1 {
		return fmt.Errorf("%w: fu2_count must be >= 1, got %d", ErrInvalidConfig, c.FU2Count)
	}
	if c.FetchWidth < 1 {
		return fmt.Errorf("%w: fetch_width must be >= 1, got %d", ErrInvalidConfig, c.FetchWidth)
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// FUCount returns the number of functional units of an opcode class.
func (c *Config) FUCount(class insts.OpClass) int {
	switch class {
	case insts.OpClass0:
		return c.FU0Count
	case insts.OpClass1:
		return c.FU1Count
	case insts.OpClass2:
		return c.FU2Count
	default:
		return 0
	}
}

// TotalFUs returns K0+K1+K2.
func (c *Config) TotalFUs() int {
	return c.FU0Count + c.FU1Count + c.FU2Count
}

// SchedulingQueueCapacity returns the reservation-station size, 2×(K0+K1+K2).
func (c *Config) SchedulingQueueCapacity() int {
	return 2 * c.TotalFUs()
}
