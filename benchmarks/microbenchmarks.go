// Package benchmarks provides synthetic traces, a benchmark harness, and
// parameter sweeps for the procsim pipeline.
package benchmarks

import (
	"math/rand"

	"github.com/sarchlab/procsim/insts"
)

// DefaultLength is the instruction count of each standard microbenchmark.
const DefaultLength = 200

// GetMicrobenchmarks returns the standard set of synthetic traces. Each
// benchmark stresses one part of the machine.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		independentStream(),
		dependencyChain(),
		fuContention(),
		rsPressure(),
		wawRename(),
		randomMix(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		independentStream(),
		dependencyChain(),
		randomMix(),
	}
}

// 1. Independent Stream - no dependencies, classes rotate
func independentStream() Benchmark {
	return Benchmark{
		Name:        "independent_stream",
		Description: "independent instructions rotating over all classes - measures peak throughput",
		Trace:       IndependentTrace(DefaultLength),
	}
}

// 2. Dependency Chain - every instruction reads the previous result
func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "each instruction reads the previous result - measures wake-up latency",
		Trace:       ChainTrace(DefaultLength),
	}
}

// 3. FU Contention - every instruction is class 0
func fuContention() Benchmark {
	return Benchmark{
		Name:        "fu_contention",
		Description: "independent class-0 instructions - measures class-0 unit pressure",
		Trace:       ContentionTrace(DefaultLength, insts.OpClass0),
	}
}

// 4. RS Pressure - long-latency producer with many waiting consumers
func rsPressure() Benchmark {
	return Benchmark{
		Name:        "rs_pressure",
		Description: "bursts of consumers behind one producer - fills the reservation station",
		Trace:       PressureTrace(DefaultLength, 16),
	}
}

// 5. WAW Rename - every instruction writes the same register
func wawRename() Benchmark {
	return Benchmark{
		Name:        "waw_rename",
		Description: "back-to-back writes to one register - exercises RAT takeover",
		Trace:       WAWTrace(DefaultLength),
	}
}

// 6. Random Mix - seeded random classes and registers
func randomMix() Benchmark {
	return Benchmark{
		Name:        "random_mix",
		Description: "seeded random classes over 16 registers - a general workload",
		Trace:       RandomTrace(1, DefaultLength, 16),
	}
}

func address(i int) uint64 {
	return uint64(0x400000 + 4*i)
}

// IndependentTrace builds n instructions with no register dependencies.
func IndependentTrace(n int) []insts.Instruction {
	trace := make([]insts.Instruction, n)
	for i := range trace {
		trace[i] = insts.Instruction{
			Address: address(i),
			Op:      insts.OpClass(i % insts.NumOpClasses),
			Dest:    insts.Reg(i % insts.NumArchRegs),
			Src:     [2]insts.Reg{insts.NoReg, insts.NoReg},
		}
	}
	return trace
}

// ChainTrace builds n instructions where each reads the previous one's
// destination.
func ChainTrace(n int) []insts.Instruction {
	trace := make([]insts.Instruction, n)
	for i := range trace {
		src := insts.NoReg
		if i > 0 {
			src = trace[i-1].Dest
		}
		trace[i] = insts.Instruction{
			Address: address(i),
			Op:      insts.OpClass(i % insts.NumOpClasses),
			Dest:    insts.Reg(i%2 + 1),
			Src:     [2]insts.Reg{src, insts.NoReg},
		}
	}
	return trace
}

// ContentionTrace builds n independent instructions of a single class.
func ContentionTrace(n int, class insts.OpClass) []insts.Instruction {
	trace := IndependentTrace(n)
	for i := range trace {
		trace[i].Op = class
	}
	return trace
}

// PressureTrace builds groups of one class-2 producer followed by
// burst-1 consumers of its result.
func PressureTrace(n, burst int) []insts.Instruction {
	if burst < 2 {
		burst = 2
	}

	trace := make([]insts.Instruction, n)
	for i := range trace {
		group := i / burst
		producer := insts.Reg(group % 8)

		if i%burst == 0 {
			trace[i] = insts.Instruction{
				Address: address(i),
				Op:      insts.OpClass2,
				Dest:    producer,
				Src:     [2]insts.Reg{insts.NoReg, insts.NoReg},
			}
			continue
		}

		trace[i] = insts.Instruction{
			Address: address(i),
			Op:      insts.OpClass(i % 2),
			Dest:    insts.Reg(16 + i%32),
			Src:     [2]insts.Reg{producer, insts.NoReg},
		}
	}
	return trace
}

// WAWTrace builds n instructions that all write register 1. Every fourth
// one also reads it.
func WAWTrace(n int) []insts.Instruction {
	trace := make([]insts.Instruction, n)
	for i := range trace {
		src := insts.NoReg
		if i%4 == 3 {
			src = 1
		}
		trace[i] = insts.Instruction{
			Address: address(i),
			Op:      insts.OpClass(i % insts.NumOpClasses),
			Dest:    1,
			Src:     [2]insts.Reg{src, insts.NoReg},
		}
	}
	return trace
}

// RandomTrace builds a reproducible trace of n instructions over the first
// regs registers. About one operand in five names no register.
func RandomTrace(seed int64, n, regs int) []insts.Instruction {
	if regs < 1 || regs > insts.NumArchRegs {
		regs = insts.NumArchRegs
	}

	rng := rand.New(rand.NewSource(seed))
	reg := func() insts.Reg {
		if rng.Intn(5) == 0 {
			return insts.NoReg
		}
		return insts.Reg(rng.Intn(regs))
	}

	trace := make([]insts.Instruction, n)
	for i := range trace {
		trace[i] = insts.Instruction{
			Address: address(i),
			Op:      insts.OpClass(rng.Intn(insts.NumOpClasses)),
			Dest:    reg(),
			Src:     [2]insts.Reg{reg(), reg()},
		}
	}
	return trace
}
