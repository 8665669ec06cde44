package pipeline

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Fetched is the number of instructions fetched.
	Fetched uint64
	// Issued is the number of instructions that acquired a functional unit.
	Issued uint64
	// DispatchQueueSum accumulates the Dispatch-queue size sampled at the
	// end of every cycle.
	DispatchQueueSum uint64
	// MaxDispatchQueue is the largest end-of-cycle Dispatch-queue size.
	MaxDispatchQueue uint64
	// Malformed is the number of fetched instructions that needed
	// normalization.
	Malformed uint64
}

// AvgRetiredPerCycle returns instructions retired per cycle (IPC).
func (s Statistics) AvgRetiredPerCycle() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Instructions) / float64(s.Cycles)
}

// IPC is an alias for AvgRetiredPerCycle.
func (s Statistics) IPC() float64 {
	return s.AvgRetiredPerCycle()
}

// AvgIssuedPerCycle returns instructions issued (fired) per cycle.
func (s Statistics) AvgIssuedPerCycle() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Issued) / float64(s.Cycles)
}

// AvgDispatchQueue returns the mean end-of-cycle Dispatch-queue size.
func (s Statistics) AvgDispatchQueue() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.DispatchQueueSum) / float64(s.Cycles)
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// TimelineEntry is the per-instruction output record.
type TimelineEntry struct {
	Tag    uint64
	Cycles [NumStages]uint64
}
