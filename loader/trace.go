// Package loader provides instruction-trace loading for the timing simulator.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/procsim/insts"
)

// Trace is a fully loaded instruction trace.
type Trace struct {
	// Path is the file the trace was read from, if any.
	Path string
	// Instructions holds the decoded instructions in program order.
	Instructions []insts.Instruction
}

// Len returns the number of instructions in the trace.
func (t *Trace) Len() int {
	return len(t.Instructions)
}

// Source returns a fresh instruction source over the trace.
func (t *Trace) Source() *SliceSource {
	return NewSliceSource(t.Instructions)
}

// Load reads a whole trace file into memory.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	trace, err := ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace %s: %w", path, err)
	}

	trace.Path = path
	return trace, nil
}

// ReadAll decodes every record from r.
func ReadAll(r io.Reader) (*Trace, error) {
	reader := NewReader(r)
	trace := &Trace{}

	for {
		inst, ok := reader.Next()
		if !ok {
			break
		}
		trace.Instructions = append(trace.Instructions, inst)
	}

	if err := reader.Err(); err != nil {
		return nil, err
	}

	return trace, nil
}

// Write encodes instructions as trace records, one per line.
func Write(w io.Writer, instructions []insts.Instruction) error {
	decoder := insts.NewDecoder()
	bw := bufio.NewWriter(w)

	for _, inst := range instructions {
		if _, err := fmt.Fprintln(bw, decoder.Encode(inst)); err != nil {
			return fmt.Errorf("failed to write trace record: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace: %w", err)
	}

	return nil
}

// Save writes instructions to a trace file.
func Save(path string, instructions []insts.Instruction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}

	if err := Write(f, instructions); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
