package assign

import (
	"context"
	"math"
	"math/rand"
)

// Annealing is a simulated-annealing optimizer with an exponential cooling
// schedule and optional reheating. The best-ever snapshot is tracked
// independently of the walking state.
type Annealing struct{}

// Name implements Algorithm.
func (a *Annealing) Name() string { return AlgorithmAnnealing }

// Run implements Algorithm.
func (a *Annealing) Run(ctx context.Context, start *School, rng *rand.Rand, cfg *Config, sink *ProgressSink) (*RunResult, error) {
	checker := NewChecker(cfg)
	rs, initial := newRunState(a.Name(), start, cfg)
	res := rs.result

	saCfg := cfg.Optimization.Algorithms.Annealing
	maxSteps := cfg.Optimization.MaxIterations
	maxAttempts := cfg.Optimization.Algorithms.RandomSwap.MaxSwapAttempts

	cur := start.Clone()
	curScore := initial
	temp := saCfg.InitialTemperature
	noImprove := 0

	sink.Start(maxSteps, initial)
	for step := 0; step < maxSteps; step++ {
		if rs.halt(ctx) {
			break
		}

		next, ok := a.propose(cur, cfg, checker, rng, maxAttempts, sink, res, curScore)
		if !ok {
			res.Stuck = true
			break
		}
		nextScore := Score(next, cfg).Final
		delta := nextScore - curScore

		if delta >= 0 || rng.Float64() < math.Exp(delta/temp) {
			cur, curScore = next, nextScore
			res.IterationsUsed++
			if curScore > res.BestScore {
				res.Best, res.BestScore = cur.Clone(), curScore
				noImprove = 0
			} else {
				noImprove++
			}
			sink.Accepted(res.IterationsUsed, curScore, res.BestScore, map[string]float64{"temperature": temp})
		} else {
			noImprove++
		}

		temp *= saCfg.CoolingRate
		if temp < saCfg.MinTemperature {
			temp = saCfg.MinTemperature
		}
		if saCfg.ReheatThreshold > 0 && noImprove >= saCfg.ReheatThreshold && temp < saCfg.InitialTemperature/10 {
			temp = saCfg.InitialTemperature / 2
			noImprove = 0
		}
	}

	sink.End(res.IterationsUsed, curScore, res.BestScore)
	return rs.finish(cfg), nil
}

// propose draws a random legal swap or single move, retrying rejected
// proposals up to maxAttempts times.
func (a *Annealing) propose(cur *School, cfg *Config, checker *Checker, rng *rand.Rand, maxAttempts int, sink *ProgressSink, res *RunResult, curScore float64) (*School, bool) {
	k := cur.NumClasses()
	if k < 2 {
		return nil, false
	}
	for attempts := 0; attempts < maxAttempts; attempts++ {
		sink.Proposal(res.IterationsUsed, curScore, res.BestScore, nil)
		ca := rng.Intn(k)
		cb := rng.Intn(k - 1)
		if cb >= ca {
			cb++
		}
		si := pickUnlocked(cur, cfg, ca, rng)
		if si < 0 {
			continue
		}
		if rng.Intn(2) == 0 {
			// Single move into cb.
			if checker.moveAllowed(cur, si, cb) {
				next := cur.Clone()
				next.place(si, cb)
				return next, true
			}
			continue
		}
		pi := pickUnlocked(cur, cfg, cb, rng)
		if pi < 0 || !checker.swapAllowed(cur, si, pi) {
			continue
		}
		next := cur.Clone()
		next.swapPlaces(si, pi)
		return next, true
	}
	return nil, false
}
