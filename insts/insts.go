// Package insts provides the decoded micro-operation model consumed by the
// timing simulator.
//
// Instructions are abstract: each carries an opcode class that selects a
// functional-unit pool, up to two source registers, and at most one
// destination register. No binary encoding is involved.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode("ab120024 1 3 -1 7")
//	fmt.Printf("Op: %v, Dest: %v, Src: %v\n", inst.Op, inst.Dest, inst.Src)
package insts

import "fmt"

// NumArchRegs is the number of architectural registers a trace can name.
const NumArchRegs = 128

// Reg is an architectural register index.
type Reg int

// NoReg marks an operand slot that names no register.
const NoReg Reg = -1

// Valid returns true if the register names an architectural register.
func (r Reg) Valid() bool {
	return r >= 0 && r < NumArchRegs
}

// String returns the register in rN form, or "-" for NoReg.
func (r Reg) String() string {
	if !r.Valid() {
		return "-"
	}
	return fmt.Sprintf("r%d", int(r))
}

// OpClass selects the functional-unit pool and execution latency of an
// instruction.
type OpClass int

// Opcode classes.
const (
	OpClass0 OpClass = iota
	OpClass1
	OpClass2
)

// NumOpClasses is the number of distinct opcode classes.
const NumOpClasses = 3

// DefaultOpClass is the class an out-of-range opcode is mapped onto. Traces
// use op -1 for instructions that run on the class-1 units.
const DefaultOpClass = OpClass1

// Valid returns true if the class is one of the modeled classes.
func (c OpClass) Valid() bool {
	return c >= 0 && c < NumOpClasses
}

// String returns a short name for the class.
func (c OpClass) String() string {
	if !c.Valid() {
		return fmt.Sprintf("k?(%d)", int(c))
	}
	return fmt.Sprintf("k%d", int(c))
}

// Instruction is one decoded micro-operation from a trace.
type Instruction struct {
	Address uint64  // Program counter, informational only
	Op      OpClass // Functional-unit class
	Src     [2]Reg  // Source registers, NoReg if unused
	Dest    Reg     // Destination register, NoReg if none
}

// NewInstruction builds an instruction with no operands of the given class.
func NewInstruction(op OpClass) Instruction {
	return Instruction{
		Op:   op,
		Src:  [2]Reg{NoReg, NoReg},
		Dest: NoReg,
	}
}

// HasDest returns true if the instruction writes a register.
func (i Instruction) HasDest() bool {
	return i.Dest.Valid()
}

// Normalize maps every out-of-domain field onto its documented default:
// invalid opcode classes become DefaultOpClass and invalid register indices
// become NoReg. The second return value reports whether anything changed.
func (i Instruction) Normalize() (Instruction, bool) {
	changed := false

	if !i.Op.Valid() {
		i.Op = DefaultOpClass
		changed = true
	}

	for s := range i.Src {
		if i.Src[s] != NoReg && !i.Src[s].Valid() {
			i.Src[s] = NoReg
			changed = true
		}
	}

	if i.Dest != NoReg && !i.Dest.Valid() {
		i.Dest = NoReg
		changed = true
	}

	return i, changed
}
