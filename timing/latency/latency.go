// Package latency provides per-opcode-class execution latencies for the
// timing simulator.
//
// Every class has a fixed latency; the values can be configured via
// TimingConfig.
package latency

import (
	"github.com/sarchlab/procsim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given
// instruction. Instructions of an invalid class take the default class's
// latency.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	op := inst.Op
	if !op.Valid() {
		op = insts.DefaultOpClass
	}

	return t.ClassLatency(op)
}

// ClassLatency returns the execution latency of an opcode class.
func (t *Table) ClassLatency(class insts.OpClass) uint64 {
	return t.config.forClass(class)
}

// MaxLatency returns the longest latency of any class.
func (t *Table) MaxLatency() uint64 {
	longest := uint64(0)
	for c := insts.OpClass(0); c < insts.NumOpClasses; c++ {
		if l := t.ClassLatency(c); l > longest {
			longest = l
		}
	}
	return longest
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
