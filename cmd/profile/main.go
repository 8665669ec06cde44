// Package main provides a profiling wrapper for procsim to identify performance bottlenecks.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/procsim/benchmarks"
	"github.com/sarchlab/procsim/insts"
	"github.com/sarchlab/procsim/loader"
	"github.com/sarchlab/procsim/timing/core"
	"github.com/sarchlab/procsim/timing/pipeline"
)

var (
	useEngine  = flag.Bool("engine", false, "Drive the pipeline from an akita event engine")
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	synthetic  = flag.Int("synthetic", 1000000, "length of the random trace used when no trace file is given")
	repeat     = flag.Int("repeat", 1, "number of times to replay the trace")
)

func main() {
	flag.Parse()

	log := logrus.New()

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.WithError(err).Fatal("cannot create CPU profile")
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			log.WithError(err).Fatal("cannot start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	var trace []insts.Instruction
	if flag.NArg() > 0 {
		loaded, err := loader.Load(flag.Arg(0))
		if err != nil {
			log.WithError(err).Fatal("cannot load trace")
		}
		trace = loaded.Instructions
		fmt.Printf("Loaded: %s\n", loaded.Path)
	} else {
		trace = benchmarks.RandomTrace(1, *synthetic, 32)
		fmt.Printf("Synthetic trace: %d instructions\n", len(trace))
	}

	start := time.Now()

	// Set timeout
	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	var total pipeline.Statistics
	for i := 0; i < *repeat; i++ {
		stats, err := runOnce(trace)
		if err != nil {
			log.WithError(err).Fatal("simulation failed")
		}
		total.Cycles += stats.Cycles
		total.Instructions += stats.Instructions
	}

	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.WithError(err).Fatal("cannot create memory profile")
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			log.WithError(err).Error("cannot write memory profile")
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Instructions simulated: %d\n", total.Instructions)
	fmt.Printf("Cycles simulated: %d\n", total.Cycles)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if total.Instructions > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(total.Instructions)/elapsed.Seconds())
		fmt.Printf("Cycles/second: %.0f\n", float64(total.Cycles)/elapsed.Seconds())
	}
}

// runOnce simulates the trace on the default machine.
func runOnce(trace []insts.Instruction) (pipeline.Statistics, error) {
	pipe, err := pipeline.NewPipeline(pipeline.DefaultConfig(), loader.NewSliceSource(trace))
	if err != nil {
		return pipeline.Statistics{}, err
	}

	if !*useEngine {
		return pipe.Run(), nil
	}

	c := core.NewStandaloneCore("Core", pipe)
	if _, err := c.Run(); err != nil {
		return pipeline.Statistics{}, err
	}
	return pipe.Stats(), nil
}
