package pipeline

import (
	"fmt"

	"github.com/sarchlab/procsim/insts"
)

// Stage identifies one of the five pipeline stages.
type Stage int

// Pipeline stages in program-flow order.
const (
	StageFetch Stage = iota
	StageDispatch
	StageSchedule
	StageExecute
	StageStateUpdate
	NumStages
)

var stageNames = [NumStages]string{"FETCH", "DISP", "SCHED", "EXEC", "STATE"}

// String returns the short column name of the stage.
func (s Stage) String() string {
	if s < 0 || s >= NumStages {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Record is the per-instruction state carried through the pipeline.
type Record struct {
	// Tag is the program-order key, assigned at fetch starting from 1.
	Tag uint64

	// Inst is the normalized instruction.
	Inst insts.Instruction

	// SrcReady tells whether each source operand is available.
	SrcReady [2]bool

	// SrcTag is the producer tag each not-ready operand waits for.
	SrcTag [2]uint64

	// RemainingLatency counts down the execute cycles. 0 means not issued
	// yet, or finished.
	RemainingLatency uint64

	// Timestamps holds the cycle at which each stage was reached. 0 means
	// not reached.
	Timestamps [NumStages]uint64

	// CompletedAt is the cycle execution finished and the record entered
	// the Done-queue.
	CompletedAt uint64
}

// stamp records the cycle a stage was reached. A timestamp is written once.
func (r *Record) stamp(stage Stage, cycle uint64) {
	if r.Timestamps[stage] != 0 {
		panic(fmt.Sprintf("tag %d: %s already stamped at cycle %d",
			r.Tag, stage, r.Timestamps[stage]))
	}
	r.Timestamps[stage] = cycle
}

// Ready returns true if both source operands are available.
func (r Record) Ready() bool {
	return r.SrcReady[0] && r.SrcReady[1]
}

// Issued returns true once the instruction has acquired a functional unit.
func (r Record) Issued() bool {
	return r.Timestamps[StageExecute] != 0
}

// Retired returns true once the instruction has passed State-Update.
func (r Record) Retired() bool {
	return r.Timestamps[StageStateUpdate] != 0
}

// recordArena owns every Record, indexed by tag. Pipeline registers hold
// tags, never records.
type recordArena struct {
	records []*Record
}

func (a *recordArena) alloc(inst insts.Instruction) *Record {
	rec := &Record{
		Tag:  uint64(len(a.records)) + 1,
		Inst: inst,
	}
	a.records = append(a.records, rec)
	return rec
}

func (a *recordArena) get(tag uint64) *Record {
	if tag == 0 || tag > uint64(len(a.records)) {
		return nil
	}
	return a.records[tag-1]
}

func (a *recordArena) len() int {
	return len(a.records)
}

func (a *recordArena) reset() {
	a.records = nil
}
