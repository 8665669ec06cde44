package pipeline

import "github.com/sarchlab/procsim/insts"

// RegisterAliasTable maps each architectural register to the tag of the
// youngest dispatched instruction that will write it. Tag 0 means no writer
// is pending and the register is ready.
type RegisterAliasTable struct {
	producers [insts.NumArchRegs]uint64
}

// NewRegisterAliasTable creates a table with every register ready.
func NewRegisterAliasTable() *RegisterAliasTable {
	return &RegisterAliasTable{}
}

// Lookup returns the pending producer of reg. Operands that name no
// register are always ready.
func (t *RegisterAliasTable) Lookup(reg insts.Reg) (tag uint64, ready bool) {
	if !reg.Valid() {
		return 0, true
	}

	tag = t.producers[reg]
	return tag, tag == 0
}

// SetProducer makes tag the producer of reg, replacing any older writer.
func (t *RegisterAliasTable) SetProducer(reg insts.Reg, tag uint64) {
	if !reg.Valid() {
		return
	}
	t.producers[reg] = tag
}

// ClearIfProducer marks reg ready if tag is still its producer. It returns
// false when a younger writer has taken the register over.
func (t *RegisterAliasTable) ClearIfProducer(reg insts.Reg, tag uint64) bool {
	if !reg.Valid() || t.producers[reg] != tag {
		return false
	}

	t.producers[reg] = 0
	return true
}

// Pending returns the number of registers with an in-flight writer.
func (t *RegisterAliasTable) Pending() int {
	n := 0
	for _, tag := range t.producers {
		if tag != 0 {
			n++
		}
	}
	return n
}

// Reset marks every register ready.
func (t *RegisterAliasTable) Reset() {
	t.producers = [insts.NumArchRegs]uint64{}
}
