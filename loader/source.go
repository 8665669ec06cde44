package loader

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sarchlab/procsim/insts"
)

// Reader streams instructions from a textual trace. It stops at the end of
// the input or at the first record it cannot decode; Err reports the latter.
type Reader struct {
	scanner *bufio.Scanner
	decoder *insts.Decoder
	line    int
	err     error
	done    bool
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
		decoder: insts.NewDecoder(),
	}
}

// Next returns the next instruction, or false once the trace is exhausted.
func (r *Reader) Next() (insts.Instruction, bool) {
	if r.done {
		return insts.Instruction{}, false
	}

	for r.scanner.Scan() {
		r.line++
		text := r.scanner.Text()
		if r.decoder.IsSkippable(text) {
			continue
		}

		inst, err := r.decoder.Decode(text)
		if err != nil {
			r.err = fmt.Errorf("line %d: %w", r.line, err)
			r.done = true
			return insts.Instruction{}, false
		}

		return inst, true
	}

	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("line %d: %w", r.line, err)
	}
	r.done = true

	return insts.Instruction{}, false
}

// Err returns the error that ended the stream early, if any.
func (r *Reader) Err() error {
	return r.err
}

// Line returns the number of input lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// SliceSource yields instructions from an in-memory slice.
type SliceSource struct {
	instructions []insts.Instruction
	next         int
}

// NewSliceSource creates a source over instructions. The slice is not copied.
func NewSliceSource(instructions []insts.Instruction) *SliceSource {
	return &SliceSource{instructions: instructions}
}

// Next returns the next instruction, or false once the slice is exhausted.
func (s *SliceSource) Next() (insts.Instruction, bool) {
	if s.next >= len(s.instructions) {
		return insts.Instruction{}, false
	}

	inst := s.instructions[s.next]
	s.next++
	return inst, true
}

// Remaining returns how many instructions have not been handed out yet.
func (s *SliceSource) Remaining() int {
	return len(s.instructions) - s.next
}

// Rewind restarts the source from the first instruction.
func (s *SliceSource) Rewind() {
	s.next = 0
}
