package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/procsim/insts"
	"github.com/sarchlab/procsim/loader"
	"github.com/sarchlab/procsim/timing/latency"
	"github.com/sarchlab/procsim/timing/pipeline"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// InstructionsIssued is the number of instructions fired to a unit
	InstructionsIssued uint64 `json:"instructions_issued"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// IPC is instructions retired per cycle
	IPC float64 `json:"ipc"`

	// AvgIssuedPerCycle is instructions fired per cycle
	AvgIssuedPerCycle float64 `json:"avg_issued_per_cycle"`

	// AvgDispatchQueue is the mean end-of-cycle Dispatch-queue size
	AvgDispatchQueue float64 `json:"avg_dispatch_queue"`

	// MaxDispatchQueue is the largest end-of-cycle Dispatch-queue size
	MaxDispatchQueue uint64 `json:"max_dispatch_queue"`

	// Malformed is the number of instructions normalized at fetch
	Malformed uint64 `json:"malformed,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark trace.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Trace is the instruction stream in program order
	Trace []insts.Instruction
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Machine is the pipeline configuration every benchmark runs on
	Machine *pipeline.Config

	// Timing holds the per-class execution latencies
	Timing *latency.TimingConfig

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives per-benchmark progress and, at debug level, pipeline
	// events
	Logger *logrus.Logger

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Machine: pipeline.DefaultConfig(),
		Timing:  latency.DefaultTimingConfig(),
		Output:  os.Stdout,
		Verbose: false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Machine == nil {
		config.Machine = pipeline.DefaultConfig()
	}
	if config.Timing == nil {
		config.Timing = latency.DefaultTimingConfig()
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results. It stops at the
// first benchmark that cannot be set up.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result, err := h.runBenchmark(bench)
		if err != nil {
			return results, fmt.Errorf("benchmark %s: %w", bench.Name, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) (BenchmarkResult, error) {
	pipe, err := pipeline.NewPipeline(
		h.config.Machine,
		loader.NewSliceSource(bench.Trace),
		pipeline.WithLatencyTable(latency.NewTableWithConfig(h.config.Timing)),
		pipeline.WithLogger(h.config.Logger),
	)
	if err != nil {
		return BenchmarkResult{}, err
	}

	// Run simulation and measure time
	start := time.Now()
	stats := pipe.Run()
	wallTime := time.Since(start)

	if h.config.Verbose {
		h.config.Logger.WithFields(logrus.Fields{
			"benchmark": bench.Name,
			"cycles":    stats.Cycles,
			"ipc":       stats.IPC(),
		}).Info("benchmark finished")
	}

	return resultFromStats(bench, stats, wallTime), nil
}

func resultFromStats(
	bench Benchmark,
	stats pipeline.Statistics,
	wallTime time.Duration,
) BenchmarkResult {
	return BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Instructions,
		InstructionsIssued:  stats.Issued,
		CPI:                 stats.CPI(),
		IPC:                 stats.IPC(),
		AvgIssuedPerCycle:   stats.AvgIssuedPerCycle(),
		AvgDispatchQueue:    stats.AvgDispatchQueue(),
		MaxDispatchQueue:    stats.MaxDispatchQueue,
		Malformed:           stats.Malformed,
		WallTime:            wallTime,
	}
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	m := h.config.Machine
	_, _ = fmt.Fprintln(h.config.Output, "=== procsim Benchmark Results ===")
	_, _ = fmt.Fprintf(h.config.Output, "Machine: R=%d K0=%d K1=%d K2=%d F=%d\n",
		m.ROBWidth, m.FU0Count, m.FU1Count, m.FU2Count, m.FetchWidth)
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  IPC:                  %.3f\n", r.IPC)
		_, _ = fmt.Fprintf(h.config.Output, "  Issued per Cycle:     %.3f\n", r.AvgIssuedPerCycle)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Dispatch Queue ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Average Size:         %.3f\n", r.AvgDispatchQueue)
		_, _ = fmt.Fprintf(h.config.Output, "  Max Size:             %d\n", r.MaxDispatchQueue)
		if r.Malformed > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Malformed:            %d\n", r.Malformed)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,issued,cpi,ipc,issued_per_cycle,avg_dispatch,max_dispatch,malformed")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%.3f,%.3f,%.3f,%.3f,%d,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.InstructionsIssued,
			r.CPI,
			r.IPC,
			r.AvgIssuedPerCycle,
			r.AvgDispatchQueue,
			r.MaxDispatchQueue,
			r.Malformed,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the simulator
	Version string `json:"version"`

	// Machine is the pipeline configuration used
	Machine pipeline.Config `json:"machine"`

	// Timing is the latency configuration used
	Timing latency.TimingConfig `json:"timing"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Version is reported in JSON benchmark reports.
const Version = "0.1.0"

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalCycles, totalInstructions uint64
	var totalWallTime time.Duration
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.InstructionsRetired
		totalWallTime += r.WallTime
	}

	avgCPI := float64(0)
	if totalInstructions > 0 {
		avgCPI = float64(totalCycles) / float64(totalInstructions)
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Machine:   *h.config.Machine,
			Timing:    *h.config.Timing,
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			AverageCPI:        avgCPI,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
