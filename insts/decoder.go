// Package insts provides the decoded micro-operation model consumed by the
// timing simulator.
package insts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedRecord is returned when a trace record cannot be parsed.
var ErrMalformedRecord = errors.New("malformed trace record")

// numFields is the field count of a trace record:
// address, op class, dest, src1, src2.
const numFields = 5

// Decoder decodes textual trace records into instructions.
//
// A record is one line of whitespace-separated fields:
//
//	<hex address> <op class> <dest> <src1> <src2>
//
// Register fields use -1 for "no register". Values that parse but fall
// outside the modeled domain are kept as-is; Instruction.Normalize maps them
// onto defaults.
type Decoder struct{}

// NewDecoder creates a new trace record decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// IsSkippable returns true for blank lines and # comments.
func (d *Decoder) IsSkippable(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

// Decode parses a single trace record.
func (d *Decoder) Decode(line string) (Instruction, error) {
	fields := strings.Fields(line)
	if len(fields) != numFields {
		return Instruction{}, fmt.Errorf("%w: expected %d fields, got %d",
			ErrMalformedRecord, numFields, len(fields))
	}

	addr, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "0x"), 16, 64)
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: bad address %q", ErrMalformedRecord, fields[0])
	}

	values := make([]int, numFields-1)
	for i, f := range fields[1:] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Instruction{}, fmt.Errorf("%w: bad field %q", ErrMalformedRecord, f)
		}
		values[i] = v
	}

	return Instruction{
		Address: addr,
		Op:      OpClass(values[0]),
		Dest:    Reg(values[1]),
		Src:     [2]Reg{Reg(values[2]), Reg(values[3])},
	}, nil
}

// Encode formats an instruction as a trace record. Decode(Encode(i))
// returns i for every instruction with in-range register fields.
func (d *Decoder) Encode(inst Instruction) string {
	return fmt.Sprintf("%x %d %d %d %d",
		inst.Address, int(inst.Op), int(inst.Dest), int(inst.Src[0]), int(inst.Src[1]))
}
