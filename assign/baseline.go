package assign

import (
	"context"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultBaselineRuns is the default number of reference runs.
const DefaultBaselineRuns = 10

// BaselineRun records one reference random-swap run.
type BaselineRun struct {
	Seed           int64
	InitialScore   float64
	FinalScore     float64
	Improvement    float64
	Duration       time.Duration
	IterationsUsed int
}

// BaselineResult is the statistical distribution of N reference runs, used to
// rank other algorithms' results.
type BaselineResult struct {
	Runs   []BaselineRun
	Mean   float64
	Median float64
	StdDev float64 // population σ
	Min    float64
	Max    float64
}

// RunBaseline executes the random-swap reference algorithm numRuns times on
// the same starting snapshot. Seeds are taken from the seeds list when given,
// otherwise sequentially from baseSeed.
func RunBaseline(ctx context.Context, start *School, cfg *Config, baseSeed int64, numRuns int, seeds []int64, sink *ProgressSink) (*BaselineResult, error) {
	if numRuns <= 0 {
		numRuns = DefaultBaselineRuns
	}
	if len(seeds) > 0 {
		numRuns = len(seeds)
	}

	res := &BaselineResult{Runs: make([]BaselineRun, 0, numRuns)}
	algo := &RandomSwap{}
	for n := 0; n < numRuns; n++ {
		if err := ctx.Err(); err != nil {
			break
		}
		seed := baseSeed + int64(n)
		if len(seeds) > 0 {
			seed = seeds[n]
		}
		rng := NewPartitionedRNG(NewRunKey(seed)).ForSubsystem(SubsystemBaselineRun(n))
		run, err := algo.Run(ctx, start, rng, cfg, sink)
		if err != nil {
			return nil, &RunError{Algorithm: AlgorithmRandomSwap, Reason: err.Error()}
		}
		res.Runs = append(res.Runs, BaselineRun{
			Seed:           seed,
			InitialScore:   run.InitialScore,
			FinalScore:     run.BestScore,
			Improvement:    run.Improvement(),
			Duration:       run.Elapsed,
			IterationsUsed: run.IterationsUsed,
		})
	}
	if len(res.Runs) == 0 {
		return nil, &RunError{Algorithm: AlgorithmRandomSwap, Reason: "no baseline run completed"}
	}

	finals := res.finalScores()
	sort.Float64s(finals)
	res.Mean = stat.Mean(finals, nil)
	res.StdDev = stat.PopStdDev(finals, nil)
	res.Min = finals[0]
	res.Max = finals[len(finals)-1]
	res.Median = stat.Quantile(0.5, stat.Empirical, finals, nil)
	return res, nil
}

func (r *BaselineResult) finalScores() []float64 {
	out := make([]float64, len(r.Runs))
	for i, run := range r.Runs {
		out[i] = run.FinalScore
	}
	return out
}

// PercentileRank reports where a score sits in the baseline distribution:
// the percentage of runs it beats, counting ties as half.
func (r *BaselineResult) PercentileRank(score float64) float64 {
	if len(r.Runs) == 0 {
		return 0
	}
	below, equal := 0, 0
	for _, run := range r.Runs {
		switch {
		case run.FinalScore < score:
			below++
		case run.FinalScore == score:
			equal++
		}
	}
	return 100 * (float64(below) + float64(equal)/2) / float64(len(r.Runs))
}
