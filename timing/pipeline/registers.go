package pipeline

import (
	"math"
	"slices"

	"github.com/sarchlab/akita/v4/sim"
)

// unboundedCapacity stands in for an infinite buffer.
const unboundedCapacity = math.MaxInt32

// tagBuffer is a FIFO pipeline register holding instruction tags.
type tagBuffer struct {
	buf sim.Buffer
}

func newTagBuffer(name string, capacity int) *tagBuffer {
	return &tagBuffer{buf: sim.NewBuffer(name, capacity)}
}

func (b *tagBuffer) push(tag uint64) {
	b.buf.Push(tag)
}

func (b *tagBuffer) pop() uint64 {
	return b.buf.Pop().(uint64)
}

func (b *tagBuffer) len() int {
	return b.buf.Size()
}

func (b *tagBuffer) clear() {
	b.buf.Clear()
}

// schedulingQueue is the reservation station. Tags stay in program order:
// admission appends in tag order and removal keeps relative order.
type schedulingQueue struct {
	tags     []uint64
	capacity int
}

func newSchedulingQueue(capacity int) *schedulingQueue {
	return &schedulingQueue{
		tags:     make([]uint64, 0, capacity),
		capacity: capacity,
	}
}

func (q *schedulingQueue) full() bool {
	return len(q.tags) >= q.capacity
}

func (q *schedulingQueue) len() int {
	return len(q.tags)
}

func (q *schedulingQueue) push(tag uint64) {
	if q.full() {
		panic("scheduling queue overflow")
	}
	q.tags = append(q.tags, tag)
}

// removeIf drops every tag for which drop returns true, preserving order.
func (q *schedulingQueue) removeIf(drop func(tag uint64) bool) {
	q.tags = slices.DeleteFunc(q.tags, drop)
}

func (q *schedulingQueue) clear() {
	q.tags = q.tags[:0]
}

// doneQueue holds finished instructions waiting for State-Update.
type doneQueue struct {
	tags []uint64
}

func (q *doneQueue) push(tag uint64) {
	q.tags = append(q.tags, tag)
}

func (q *doneQueue) len() int {
	return len(q.tags)
}

// popOldest removes and returns up to n of the lowest tags, ascending.
func (q *doneQueue) popOldest(n int) []uint64 {
	slices.Sort(q.tags)

	if n > len(q.tags) {
		n = len(q.tags)
	}

	out := make([]uint64, n)
	copy(out, q.tags[:n])
	q.tags = append(q.tags[:0], q.tags[n:]...)

	return out
}

func (q *doneQueue) clear() {
	q.tags = q.tags[:0]
}
