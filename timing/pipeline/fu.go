package pipeline

import (
	"fmt"

	"github.com/sarchlab/procsim/insts"
)

// FUPool is a counted pool of identical functional units serving one
// opcode class.
type FUPool struct {
	class    insts.OpClass
	capacity int
	free     int
	latency  uint64
}

// NewFUPool creates a pool with every unit free.
func NewFUPool(class insts.OpClass, capacity int, latency uint64) *FUPool {
	return &FUPool{
		class:    class,
		capacity: capacity,
		free:     capacity,
		latency:  latency,
	}
}

// TryAcquire takes a unit if one is free.
func (p *FUPool) TryAcquire() bool {
	if p.free == 0 {
		return false
	}
	p.free--
	return true
}

// Release returns a unit to the pool.
func (p *FUPool) Release() {
	if p.free == p.capacity {
		panic(fmt.Sprintf("%s pool: release with all %d units free", p.class, p.capacity))
	}
	p.free++
}

// Class returns the opcode class served by the pool.
func (p *FUPool) Class() insts.OpClass { return p.class }

// Capacity returns the number of units in the pool.
func (p *FUPool) Capacity() int { return p.capacity }

// Free returns the number of idle units.
func (p *FUPool) Free() int { return p.free }

// Busy returns the number of units held by in-flight instructions.
func (p *FUPool) Busy() int { return p.capacity - p.free }

// Latency returns the execution latency of the class.
func (p *FUPool) Latency() uint64 { return p.latency }

func (p *FUPool) reset() {
	p.free = p.capacity
}
