package pipeline

import "slices"

// fetch pulls up to FetchWidth instructions from the source into the
// Fetch-buffer.
func (p *Pipeline) fetch() {
	if !p.moreToFetch {
		return
	}

	for i := 0; i < p.config.FetchWidth; i++ {
		inst, ok := p.source.Next()
		if !ok {
			p.moreToFetch = false
			return
		}

		normalized, changed := inst.Normalize()
		rec := p.arena.alloc(normalized)
		if changed {
			p.stats.Malformed++
			p.logEvent("normalized malformed instruction", rec)
		}

		rec.stamp(StageFetch, p.cycle)
		p.fetchBuffer.push(rec.Tag)
		p.stats.Fetched++
		p.logEvent("fetch", rec)
	}
}

// dispatch moves the whole Fetch-buffer into the Dispatch-queue.
func (p *Pipeline) dispatch() {
	for p.fetchBuffer.len() > 0 {
		rec := p.arena.get(p.fetchBuffer.pop())
		rec.stamp(StageDispatch, p.cycle)
		p.dispatchQueue.push(rec.Tag)
	}
}

// schedule admits instructions into the reservation station, then fires
// every ready one that can get a functional unit.
func (p *Pipeline) schedule() {
	p.admit()
	p.issue()
}

// admit renames sources against the RAT and claims the destination, in
// Dispatch-queue order, while the reservation station has room.
func (p *Pipeline) admit() {
	for !p.schedQueue.full() && p.dispatchQueue.len() > 0 {
		rec := p.arena.get(p.dispatchQueue.pop())

		// Sources are resolved before the destination is claimed so an
		// instruction never waits on itself.
		for s, src := range rec.Inst.Src {
			tag, ready := p.rat.Lookup(src)
			rec.SrcReady[s] = ready
			rec.SrcTag[s] = tag
		}
		p.rat.SetProducer(rec.Inst.Dest, rec.Tag)

		p.schedQueue.push(rec.Tag)
		rec.stamp(StageSchedule, p.cycle)
		p.logEvent("schedule", rec)
	}
}

// issue fires ready instructions oldest first.
func (p *Pipeline) issue() {
	p.candidates = p.candidates[:0]
	for _, tag := range p.schedQueue.tags {
		rec := p.arena.get(tag)
		if !rec.Issued() && rec.RemainingLatency == 0 && rec.Ready() {
			p.candidates = append(p.candidates, tag)
		}
	}
	slices.Sort(p.candidates)

	for _, tag := range p.candidates {
		rec := p.arena.get(tag)
		pool := p.fuPools[rec.Inst.Op]
		if !pool.TryAcquire() {
			continue
		}

		rec.RemainingLatency = pool.Latency()
		rec.stamp(StageExecute, p.cycle)
		p.stats.Issued++
		p.logEvent("issue", rec)
	}
}

// execute advances every issued instruction by one cycle. Finished ones
// leave the reservation station for the Done-queue while still holding
// their functional unit.
func (p *Pipeline) execute() {
	p.schedQueue.removeIf(func(tag uint64) bool {
		rec := p.arena.get(tag)
		if rec.RemainingLatency == 0 {
			return false
		}

		rec.RemainingLatency--
		if rec.RemainingLatency > 0 {
			return false
		}

		rec.CompletedAt = p.cycle
		p.doneQueue.push(tag)
		p.logEvent("complete", rec)
		return true
	})
}

// stateUpdate retires up to ROBWidth finished instructions, lowest tag
// first, releasing units and waking dependents.
func (p *Pipeline) stateUpdate() {
	for _, tag := range p.doneQueue.popOldest(p.config.ROBWidth) {
		rec := p.arena.get(tag)

		rec.stamp(StageStateUpdate, p.cycle)
		p.fuPools[rec.Inst.Op].Release()
		p.rat.ClearIfProducer(rec.Inst.Dest, tag)
		p.broadcast(tag)

		p.retireOrder = append(p.retireOrder, tag)
		p.stats.Instructions++
		p.logEvent("retire", rec)
	}
}

// broadcast marks every operand waiting on producer as ready.
func (p *Pipeline) broadcast(producer uint64) {
	for _, tag := range p.schedQueue.tags {
		rec := p.arena.get(tag)
		for s := range rec.SrcReady {
			if !rec.SrcReady[s] && rec.SrcTag[s] == producer {
				rec.SrcReady[s] = true
				rec.SrcTag[s] = 0
			}
		}
	}
}
