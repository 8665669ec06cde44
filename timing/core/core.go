// Package core provides the event-driven CPU core model.
// It wraps the pipeline as an akita ticking component so it can be driven
// by an akita simulation engine.
package core

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/procsim/timing/pipeline"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Issued is the number of instructions fired to a functional unit.
	Issued uint64
	// Malformed is the number of instructions normalized at fetch.
	Malformed uint64
	// SimTime is the engine time when the core went idle.
	SimTime sim.VTimeInSec
}

// Core is a pipeline driven by an akita engine. Each engine tick runs one
// pipeline cycle. The core stops scheduling ticks once the pipeline has
// drained.
type Core struct {
	*sim.TickingComponent

	// Pipeline is the underlying out-of-order pipeline.
	Pipeline *pipeline.Pipeline

	engine sim.Engine
}

// NewCore creates a core ticking at freq on the given engine.
func NewCore(
	name string,
	engine sim.Engine,
	freq sim.Freq,
	pipe *pipeline.Pipeline,
) *Core {
	c := &Core{
		Pipeline: pipe,
		engine:   engine,
	}
	c.TickingComponent = sim.NewTickingComponent(name, engine, freq, c)

	return c
}

// NewStandaloneCore creates a core on a private serial engine at 1 GHz.
func NewStandaloneCore(name string, pipe *pipeline.Pipeline) *Core {
	return NewCore(name, sim.NewSerialEngine(), 1*sim.GHz, pipe)
}

// Tick runs one pipeline cycle. It returns false when there is nothing
// left to simulate, which stops the engine from scheduling more ticks.
func (c *Core) Tick() bool {
	if c.Pipeline.Done() {
		return false
	}

	c.Pipeline.Tick()

	return true
}

// Start schedules the first tick.
func (c *Core) Start() {
	c.TickLater()
}

// Run starts the core and runs the engine until no events remain.
func (c *Core) Run() (Stats, error) {
	c.Start()

	if err := c.engine.Run(); err != nil {
		return c.Stats(), fmt.Errorf("core %s: %w", c.Name(), err)
	}

	return c.Stats(), nil
}

// Done returns true once the pipeline has drained.
func (c *Core) Done() bool {
	return c.Pipeline.Done()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	pipeStats := c.Pipeline.Stats()
	return Stats{
		Cycles:       pipeStats.Cycles,
		Instructions: pipeStats.Instructions,
		Issued:       pipeStats.Issued,
		Malformed:    pipeStats.Malformed,
		SimTime:      c.engine.CurrentTime(),
	}
}

// Reset clears all core state and attaches a new instruction source.
func (c *Core) Reset(source pipeline.InstructionSource) {
	c.Pipeline.Reset(source)
}
