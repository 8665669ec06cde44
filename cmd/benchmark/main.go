// Command benchmark runs the procsim benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags] [trace]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output results as a JSON report
//	-config     Machine configuration JSON file
//	-latency    Latency configuration JSON file
//	-sweep      Sweep K0, K1, K2, R and F instead of running one machine
//	-threshold  Fraction of the best IPC a minimal configuration must reach
//
// Example:
//
//	# Run the synthetic benchmarks on the default machine
//	go run ./cmd/benchmark
//
//	# Find the cheapest machine per fetch width for a trace
//	go run ./cmd/benchmark -sweep gcc.trace
//
// Without a trace, the sweep runs over the random-mix benchmark.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/procsim/benchmarks"
	"github.com/sarchlab/procsim/insts"
	"github.com/sarchlab/procsim/loader"
	"github.com/sarchlab/procsim/timing/latency"
	"github.com/sarchlab/procsim/timing/pipeline"
)

func main() {
	// Parse flags
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as a JSON report")
	configPath := flag.String("config", "", "Path to machine configuration JSON file")
	latencyPath := flag.String("latency", "", "Path to latency configuration JSON file")
	sweep := flag.Bool("sweep", false, "Sweep the machine parameters")
	threshold := flag.Float64("threshold", benchmarks.DefaultIPCThreshold,
		"Fraction of the best IPC a minimal configuration must reach")
	workers := flag.Int("workers", 0, "Concurrent sweep simulations (0 = one per CPU)")
	dumpConfig := flag.Bool("dump-config", false, "Print the effective configuration")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	// Configure harness
	config := benchmarks.DefaultConfig()
	config.Output = os.Stdout
	config.Logger = logger
	config.Verbose = *verbose

	if *configPath != "" {
		machine, err := pipeline.LoadConfig(*configPath)
		if err != nil {
			logger.WithError(err).Fatal("cannot load machine configuration")
		}
		config.Machine = machine
	}
	if *latencyPath != "" {
		timing, err := latency.LoadConfig(*latencyPath)
		if err != nil {
			logger.WithError(err).Fatal("cannot load latency configuration")
		}
		config.Timing = timing
	}

	if *dumpConfig {
		pp.Fprintln(os.Stderr, config.Machine, config.Timing)
	}

	var trace *loader.Trace
	if flag.NArg() > 0 {
		var err error
		trace, err = loader.Load(flag.Arg(0))
		if err != nil {
			logger.WithError(err).Fatal("cannot load trace")
		}
	}

	if *sweep {
		runSweep(logger, trace, config.Timing, *threshold, *workers)
		return
	}

	// Create harness and add benchmarks
	harness := benchmarks.NewHarness(config)
	if trace != nil {
		harness.AddBenchmark(benchmarks.Benchmark{
			Name:        trace.Path,
			Description: "trace file",
			Trace:       trace.Instructions,
		})
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	// Run benchmarks
	results, err := harness.RunAll()
	if err != nil {
		logger.WithError(err).Fatal("benchmark run failed")
	}

	// Output results
	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			logger.WithError(err).Fatal("cannot write JSON report")
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)

		fmt.Println("=== Summary ===")
		fmt.Println("")
		fmt.Println("Expected characteristics:")
		fmt.Println("- independent_stream: bounded by the class-0 units, highest IPC")
		fmt.Println("- dependency_chain: about one instruction every two cycles")
		fmt.Println("- fu_contention: bounded by the class-0 units, Dispatch-queue grows")
		fmt.Println("- rs_pressure: consumers wait on each producer's broadcast")
		fmt.Println("- waw_rename: RAT takeover by the youngest writer")
		fmt.Println("- random_mix: balanced characteristics")
	}
}

func runSweep(
	logger *logrus.Logger,
	trace *loader.Trace,
	timing *latency.TimingConfig,
	threshold float64,
	workers int,
) {
	name := "random_mix"
	instructions := benchmarks.RandomTrace(1, benchmarks.DefaultLength, 16)
	if trace != nil {
		name = trace.Path
		instructions = trace.Instructions
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	space := benchmarks.DefaultSweepSpace()
	logger.WithFields(logrus.Fields{
		"trace":   name,
		"configs": space.Size(),
	}).Info("starting sweep")

	points, err := benchmarks.Sweep(ctx, instructions, space, benchmarks.SweepOptions{
		Timing:  timing,
		Workers: workers,
	})
	if err != nil {
		logger.WithError(err).Fatal("sweep failed")
	}

	printSweep(name, instructions, points, threshold)
}

func printSweep(
	name string,
	instructions []insts.Instruction,
	points []benchmarks.SweepPoint,
	threshold float64,
) {
	fmt.Printf("Sweep: %s (%d instructions, %d configurations)\n",
		name, len(instructions), len(points))
	fmt.Println("k0,k1,k2,r,f,cycles,ipc")
	for _, p := range points {
		c := p.Config
		fmt.Printf("%d,%d,%d,%d,%d,%d,%.3f\n",
			c.FU0Count, c.FU1Count, c.FU2Count, c.ROBWidth, c.FetchWidth,
			p.Stats.Cycles, p.IPC())
	}

	fmt.Printf("\nMinimal hardware per fetch rate (>= %.0f%% of max IPC):\n", threshold*100)
	for _, rec := range benchmarks.MinimalConfig(points, threshold) {
		c := rec.Point.Config
		fmt.Printf("F=%d:\n", rec.FetchWidth)
		fmt.Printf("  Max IPC = %.3f\n", rec.MaxIPC)
		fmt.Printf("  Chosen config: k0=%d, k1=%d, k2=%d, R=%d (cost=%d) -> IPC=%.3f\n",
			c.FU0Count, c.FU1Count, c.FU2Count, c.ROBWidth, rec.Point.Cost(), rec.Point.IPC())
	}
}
