// Package main provides the entry point for procsim.
// procsim is a cycle-level out-of-order superscalar pipeline simulator
// driven by instruction traces.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/procsim/loader"
	"github.com/sarchlab/procsim/timing/core"
	"github.com/sarchlab/procsim/timing/latency"
	"github.com/sarchlab/procsim/timing/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	flags *flag.FlagSet

	robWidth   int
	fu0Count   int
	fu1Count   int
	fu2Count   int
	fetchWidth int

	configPath  string
	latencyPath string
	logLevel    string
	dumpConfig  bool
	noTimeline  bool
	useEngine   bool
	verbose     bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	defaults := pipeline.DefaultConfig()
	o := &options{flags: flag.NewFlagSet("procsim", flag.ContinueOnError)}
	fs := o.flags
	fs.SetOutput(stderr)

	fs.IntVar(&o.robWidth, "r", defaults.ROBWidth, "Instructions retired per cycle (R)")
	fs.IntVar(&o.fu0Count, "j", defaults.FU0Count, "Number of class-0 functional units (K0)")
	fs.IntVar(&o.fu1Count, "k", defaults.FU1Count, "Number of class-1 functional units (K1)")
	fs.IntVar(&o.fu2Count, "l", defaults.FU2Count, "Number of class-2 functional units (K2)")
	fs.IntVar(&o.fetchWidth, "f", defaults.FetchWidth, "Instructions fetched per cycle (F)")
	fs.StringVar(&o.configPath, "config", "", "Path to machine configuration JSON file")
	fs.StringVar(&o.latencyPath, "latency", "", "Path to latency configuration JSON file")
	fs.StringVar(&o.logLevel, "log-level", "warning", "Log level (panic, fatal, error, warning, info, debug, trace)")
	fs.BoolVar(&o.dumpConfig, "dump-config", false, "Print the effective configuration before running")
	fs.BoolVar(&o.noTimeline, "no-timeline", false, "Skip the per-instruction timeline table")
	fs.BoolVar(&o.useEngine, "engine", false, "Drive the pipeline from an akita event engine")
	fs.BoolVar(&o.verbose, "v", false, "Verbose output")

	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: procsim [options] [trace]\n")
		_, _ = fmt.Fprintf(stderr, "\nReads the trace from stdin when no file is given.\n")
		_, _ = fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return nil, fmt.Errorf("expected at most one trace file, got %d", fs.NArg())
	}

	return o, nil
}

// machine loads the machine file, if any, then applies the width and unit
// flags given on the command line.
func (o *options) machine() (*pipeline.Config, error) {
	config := pipeline.DefaultConfig()
	if o.configPath != "" {
		var err error
		config, err = pipeline.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
	}

	o.flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "r":
			config.ROBWidth = o.robWidth
		case "j":
			config.FU0Count = o.fu0Count
		case "k":
			config.FU1Count = o.fu1Count
		case "l":
			config.FU2Count = o.fu2Count
		case "f":
			config.FetchWidth = o.fetchWidth
		}
	})

	return config, config.Validate()
}

func (o *options) timing() (*latency.TimingConfig, error) {
	if o.latencyPath == "" {
		return latency.DefaultTimingConfig(), nil
	}
	return latency.LoadConfig(o.latencyPath)
}

func (o *options) logger(stderr io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(level)
	return logger, nil
}

// run executes the command line and returns the exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := o.logger(stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	config, err := o.machine()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error in machine configuration: %v\n", err)
		return 1
	}

	timingConfig, err := o.timing()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error loading latency config: %v\n", err)
		return 1
	}

	if o.dumpConfig {
		printer := pp.New()
		printer.SetColoringEnabled(false)
		printer.SetOutput(stderr)
		printer.Println(config)
		printer.Println(timingConfig)
	}

	input := stdin
	tracePath := "<stdin>"
	if o.flags.NArg() == 1 {
		tracePath = o.flags.Arg(0)
		f, err := os.Open(tracePath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error opening trace: %v\n", err)
			return 1
		}
		defer func() { _ = f.Close() }()
		input = f
	}

	reader := loader.NewReader(input)
	pipe, err := pipeline.NewPipeline(config, reader,
		pipeline.WithLatencyTable(latency.NewTableWithConfig(timingConfig)),
		pipeline.WithLogger(logger),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if o.verbose {
		_, _ = fmt.Fprintf(stdout, "Trace: %s\n", tracePath)
		_, _ = fmt.Fprintf(stdout, "Machine: R=%d K0=%d K1=%d K2=%d F=%d\n",
			config.ROBWidth, config.FU0Count, config.FU1Count, config.FU2Count, config.FetchWidth)
		_, _ = fmt.Fprintf(stdout, "Latency: class0=%d class1=%d class2=%d\n\n",
			timingConfig.Class0Latency, timingConfig.Class1Latency, timingConfig.Class2Latency)
	}

	var stats pipeline.Statistics
	if o.useEngine {
		c := core.NewStandaloneCore("Core", pipe)
		if _, err := c.Run(); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		stats = pipe.Stats()
	} else {
		stats = pipe.Run()
	}

	if err := reader.Err(); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error reading trace %s: %v\n", tracePath, err)
		return 1
	}

	if !o.noTimeline {
		printTimeline(stdout, pipe.Timeline())
		_, _ = fmt.Fprintln(stdout)
	}
	printStats(stdout, stats)

	return 0
}

// printTimeline writes one row per instruction with the cycle each stage
// was reached.
func printTimeline(w io.Writer, entries []pipeline.TimelineEntry) {
	_, _ = fmt.Fprint(w, "INST")
	for s := pipeline.Stage(0); s < pipeline.NumStages; s++ {
		_, _ = fmt.Fprintf(w, "\t%s", s)
	}
	_, _ = fmt.Fprintln(w)

	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%d", e.Tag)
		for _, cycle := range e.Cycles {
			_, _ = fmt.Fprintf(w, "\t%d", cycle)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func printStats(w io.Writer, stats pipeline.Statistics) {
	_, _ = fmt.Fprintln(w, "Processor stats:")
	_, _ = fmt.Fprintf(w, "Total instructions retired: %d\n", stats.Instructions)
	_, _ = fmt.Fprintf(w, "Total run time (cycles): %d\n", stats.Cycles)
	_, _ = fmt.Fprintf(w, "Avg inst retired per cycle: %f\n", stats.AvgRetiredPerCycle())
	_, _ = fmt.Fprintf(w, "Avg inst fired per cycle: %f\n", stats.AvgIssuedPerCycle())
	_, _ = fmt.Fprintf(w, "Avg dispatch queue size: %f\n", stats.AvgDispatchQueue())
	_, _ = fmt.Fprintf(w, "Max dispatch queue size: %d\n", stats.MaxDispatchQueue)
	if stats.Malformed > 0 {
		_, _ = fmt.Fprintf(w, "Malformed instructions normalized: %d\n", stats.Malformed)
	}
}
