package benchmarks

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/procsim/insts"
	"github.com/sarchlab/procsim/loader"
	"github.com/sarchlab/procsim/timing/latency"
	"github.com/sarchlab/procsim/timing/pipeline"
)

// DefaultIPCThreshold is the fraction of the best IPC a minimal
// configuration has to reach.
const DefaultIPCThreshold = 0.95

// SweepSpace lists the values tried for each machine parameter. Every
// combination is simulated.
type SweepSpace struct {
	FU0Counts   []int `json:"fu0_counts"`
	FU1Counts   []int `json:"fu1_counts"`
	FU2Counts   []int `json:"fu2_counts"`
	ROBWidths   []int `json:"rob_widths"`
	FetchWidths []int `json:"fetch_widths"`
}

// DefaultSweepSpace returns K0, K1, K2 in {1, 2}, R in {1, 2, 4, 8} and
// F in {4, 8}.
func DefaultSweepSpace() SweepSpace {
	return SweepSpace{
		FU0Counts:   []int{1, 2},
		FU1Counts:   []int{1, 2},
		FU2Counts:   []int{1, 2},
		ROBWidths:   []int{1, 2, 4, 8},
		FetchWidths: []int{4, 8},
	}
}

// Size returns the number of configurations in the space.
func (s SweepSpace) Size() int {
	return len(s.FU0Counts) * len(s.FU1Counts) * len(s.FU2Counts) *
		len(s.ROBWidths) * len(s.FetchWidths)
}

// Configs enumerates the space with the fetch width varying fastest.
func (s SweepSpace) Configs() []*pipeline.Config {
	configs := make([]*pipeline.Config, 0, s.Size())
	for _, k0 := range s.FU0Counts {
		for _, k1 := range s.FU1Counts {
			for _, k2 := range s.FU2Counts {
				for _, r := range s.ROBWidths {
					for _, f := range s.FetchWidths {
						configs = append(configs, &pipeline.Config{
							ROBWidth:   r,
							FU0Count:   k0,
							FU1Count:   k1,
							FU2Count:   k2,
							FetchWidth: f,
						})
					}
				}
			}
		}
	}
	return configs
}

// SweepPoint is the outcome of one configuration.
type SweepPoint struct {
	Config pipeline.Config     `json:"config"`
	Stats  pipeline.Statistics `json:"stats"`
}

// IPC returns the instructions retired per cycle of the point.
func (p SweepPoint) IPC() float64 {
	return p.Stats.IPC()
}

// Cost returns the hardware budget K0+K1+K2+R.
func (p SweepPoint) Cost() int {
	return p.Config.TotalFUs() + p.Config.ROBWidth
}

// SweepOptions tunes a sweep.
type SweepOptions struct {
	// Timing holds the per-class latencies. Nil means the defaults.
	Timing *latency.TimingConfig

	// Workers bounds the number of concurrent simulations. Zero or less
	// means one per CPU.
	Workers int
}

// Sweep simulates the trace on every configuration of the space. Points
// come back in Configs order. The first configuration error cancels the
// remaining runs.
func Sweep(
	ctx context.Context,
	trace []insts.Instruction,
	space SweepSpace,
	opts SweepOptions,
) ([]SweepPoint, error) {
	timing := opts.Timing
	if timing == nil {
		timing = latency.DefaultTimingConfig()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	configs := space.Configs()
	points := make([]SweepPoint, len(configs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, config := range configs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			pipe, err := pipeline.NewPipeline(
				config,
				loader.NewSliceSource(trace),
				pipeline.WithLatencyTable(latency.NewTableWithConfig(timing)),
			)
			if err != nil {
				return fmt.Errorf("sweep point %d: %w", i, err)
			}

			points[i] = SweepPoint{Config: *config, Stats: pipe.Run()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return points, nil
}

// Recommendation is the cheapest configuration for one fetch width that
// reaches the IPC threshold.
type Recommendation struct {
	FetchWidth int        `json:"fetch_width"`
	MaxIPC     float64    `json:"max_ipc"`
	Point      SweepPoint `json:"point"`
}

// MinimalConfig picks, for every fetch width in points, the configuration
// with the lowest K0+K1+K2+R whose IPC is at least threshold times the
// best IPC at that width. Ties go to the lower R, then the lower K0, K1,
// K2. Recommendations are ordered by fetch width.
func MinimalConfig(points []SweepPoint, threshold float64) []Recommendation {
	byWidth := map[int][]SweepPoint{}
	for _, p := range points {
		byWidth[p.Config.FetchWidth] = append(byWidth[p.Config.FetchWidth], p)
	}

	widths := make([]int, 0, len(byWidth))
	for f := range byWidth {
		widths = append(widths, f)
	}
	slices.Sort(widths)

	recs := make([]Recommendation, 0, len(widths))
	for _, f := range widths {
		group := byWidth[f]

		best := 0.0
		for _, p := range group {
			best = max(best, p.IPC())
		}

		candidates := slices.DeleteFunc(slices.Clone(group), func(p SweepPoint) bool {
			return p.IPC() < threshold*best
		})
		if len(candidates) == 0 {
			candidates = slices.Clone(group)
		}
		slices.SortStableFunc(candidates, compareBudget)

		recs = append(recs, Recommendation{
			FetchWidth: f,
			MaxIPC:     best,
			Point:      candidates[0],
		})
	}

	return recs
}

func compareBudget(a, b SweepPoint) int {
	keys := func(p SweepPoint) [5]int {
		c := p.Config
		return [5]int{p.Cost(), c.ROBWidth, c.FU0Count, c.FU1Count, c.FU2Count}
	}

	ka, kb := keys(a), keys(b)
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] - kb[i]
		}
	}
	return 0
}
