// Package pipeline provides the cycle-level out-of-order pipeline model.
//
// Each cycle runs five stages over instructions drawn from an
// InstructionSource: Fetch, Dispatch, Schedule (reservation-station
// admission and issue), Execute, and State-Update (retire and broadcast).
package pipeline

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/procsim/insts"
	"github.com/sarchlab/procsim/timing/latency"
)

// InstructionSource supplies decoded instructions in program order.
type InstructionSource interface {
	// Next returns the next instruction, or false once the source is
	// exhausted.
	Next() (insts.Instruction, bool)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithLatencyTable sets the per-class execution latencies.
func WithLatencyTable(table *latency.Table) PipelineOption {
	return func(p *Pipeline) {
		p.latencyTable = table
	}
}

// WithLogger sets the logger used for per-event debug tracing.
func WithLogger(logger *logrus.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// stageStep binds a stage to the method that runs it.
type stageStep struct {
	stage Stage
	run   func()
}

// Pipeline is the simulator context. It owns the record arena, the
// pipeline registers, the RAT, and the functional-unit pools.
type Pipeline struct {
	config       *Config
	latencyTable *latency.Table
	logger       *logrus.Logger

	source      InstructionSource
	moreToFetch bool

	arena   recordArena
	rat     *RegisterAliasTable
	fuPools [insts.NumOpClasses]*FUPool

	// Pipeline registers
	fetchBuffer   *tagBuffer
	dispatchQueue *tagBuffer
	schedQueue    *schedulingQueue
	doneQueue     doneQueue

	order []stageStep

	cycle       uint64
	stats       Statistics
	retireOrder []uint64
	candidates  []uint64
}

// NewPipeline creates a pipeline for the given machine and source. The
// configuration is validated before anything else happens.
func NewPipeline(
	config *Config,
	source InstructionSource,
	opts ...PipelineOption,
) (*Pipeline, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		config: config.Clone(),
		rat:    NewRegisterAliasTable(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.latencyTable == nil {
		p.latencyTable = latency.NewTable()
	}
	if err := p.latencyTable.Config().Validate(); err != nil {
		return nil, fmt.Errorf("pipeline latency table: %w", err)
	}
	if p.logger == nil {
		p.logger = logrus.New()
	}

	for c := insts.OpClass(0); c < insts.NumOpClasses; c++ {
		p.fuPools[c] = NewFUPool(c, p.config.FUCount(c), p.latencyTable.ClassLatency(c))
	}

	p.fetchBuffer = newTagBuffer("FetchBuffer", p.config.FetchWidth)
	p.dispatchQueue = newTagBuffer("DispatchQueue", unboundedCapacity)
	p.schedQueue = newSchedulingQueue(p.config.SchedulingQueueCapacity())
	p.order = p.stageOrder()

	p.Reset(source)

	return p, nil
}

// stageOrder is the fixed intra-cycle stage sequence. State-Update runs
// first so its broadcast is visible to the issue check of Schedule in the
// same cycle. Schedule admits from the Dispatch-queue before Dispatch
// refills it, and Dispatch drains the Fetch-buffer before Fetch refills it,
// so every instruction spends at least one cycle in each hand-off register.
func (p *Pipeline) stageOrder() []stageStep {
	return []stageStep{
		{StageStateUpdate, p.stateUpdate},
		{StageExecute, p.execute},
		{StageSchedule, p.schedule},
		{StageDispatch, p.dispatch},
		{StageFetch, p.fetch},
	}
}

// StageOrder returns the stages in the order Tick runs them.
func (p *Pipeline) StageOrder() []Stage {
	stages := make([]Stage, len(p.order))
	for i, step := range p.order {
		stages[i] = step.stage
	}
	return stages
}

// Reset clears all simulation state and attaches a new source. The
// configuration is kept.
func (p *Pipeline) Reset(source InstructionSource) {
	p.source = source
	p.moreToFetch = source != nil

	p.arena.reset()
	p.rat.Reset()
	for _, pool := range p.fuPools {
		pool.reset()
	}

	p.fetchBuffer.clear()
	p.dispatchQueue.clear()
	p.schedQueue.clear()
	p.doneQueue.clear()

	p.cycle = 0
	p.stats = Statistics{}
	p.retireOrder = nil
}

// Tick simulates one cycle.
func (p *Pipeline) Tick() {
	p.cycle++

	for _, step := range p.order {
		step.run()
	}

	size := uint64(p.dispatchQueue.len())
	p.stats.DispatchQueueSum += size
	if size > p.stats.MaxDispatchQueue {
		p.stats.MaxDispatchQueue = size
	}
	p.stats.Cycles = p.cycle
}

// Done returns true once the source is exhausted and every pipeline
// register is empty.
func (p *Pipeline) Done() bool {
	return !p.moreToFetch &&
		p.fetchBuffer.len() == 0 &&
		p.dispatchQueue.len() == 0 &&
		p.schedQueue.len() == 0 &&
		p.doneQueue.len() == 0
}

// Run simulates until Done and returns the final statistics.
func (p *Pipeline) Run() Statistics {
	for !p.Done() {
		p.Tick()
	}
	return p.stats
}

// RunCycles simulates at most the given number of cycles. It returns true
// if work remains.
func (p *Pipeline) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !p.Done(); i++ {
		p.Tick()
	}
	return !p.Done()
}

// Cycle returns the number of the last simulated cycle.
func (p *Pipeline) Cycle() uint64 {
	return p.cycle
}

// Stats returns the statistics gathered so far.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Config returns a copy of the machine configuration.
func (p *Pipeline) Config() *Config {
	return p.config.Clone()
}

// Timeline returns one entry per fetched instruction, in tag order.
func (p *Pipeline) Timeline() []TimelineEntry {
	entries := make([]TimelineEntry, p.arena.len())
	for i, rec := range p.arena.records {
		entries[i] = TimelineEntry{Tag: rec.Tag, Cycles: rec.Timestamps}
	}
	return entries
}

// Record returns a copy of the record with the given tag.
func (p *Pipeline) Record(tag uint64) (Record, bool) {
	rec := p.arena.get(tag)
	if rec == nil {
		return Record{}, false
	}
	return *rec, true
}

// RetireOrder returns the tags in the order they left the Done-queue.
func (p *Pipeline) RetireOrder() []uint64 {
	return append([]uint64(nil), p.retireOrder...)
}

// RATEntry returns the pending producer of a register.
func (p *Pipeline) RATEntry(reg insts.Reg) (tag uint64, ready bool) {
	return p.rat.Lookup(reg)
}

// FUFree returns the idle units of a class.
func (p *Pipeline) FUFree(class insts.OpClass) int {
	return p.fuPools[class].Free()
}

// FUCapacity returns the unit count of a class.
func (p *Pipeline) FUCapacity(class insts.OpClass) int {
	return p.fuPools[class].Capacity()
}

// FetchBufferLen returns the Fetch-buffer occupancy.
func (p *Pipeline) FetchBufferLen() int {
	return p.fetchBuffer.len()
}

// DispatchQueueLen returns the Dispatch-queue occupancy.
func (p *Pipeline) DispatchQueueLen() int {
	return p.dispatchQueue.len()
}

// SchedulingQueueLen returns the reservation-station occupancy.
func (p *Pipeline) SchedulingQueueLen() int {
	return p.schedQueue.len()
}

// SchedulingQueueCapacity returns the reservation-station size.
func (p *Pipeline) SchedulingQueueCapacity() int {
	return p.schedQueue.capacity
}

// DoneQueueLen returns the number of finished, unretired instructions.
func (p *Pipeline) DoneQueueLen() int {
	return p.doneQueue.len()
}

func (p *Pipeline) logEvent(msg string, rec *Record) {
	if !p.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	p.logger.WithFields(logrus.Fields{
		"cycle": p.cycle,
		"tag":   rec.Tag,
		"class": rec.Inst.Op.String(),
	}).Debug(msg)
}
