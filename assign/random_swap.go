package assign

import (
	"context"
	"math/rand"
)

// RandomSwap is the reference baseline optimizer: propose uniformly random
// cross-class swaps, keep a swap only when it improves the best score (or
// matches it with accept_neutral_moves on).
type RandomSwap struct{}

// Name implements Algorithm.
func (a *RandomSwap) Name() string { return AlgorithmRandomSwap }

// Run implements Algorithm.
func (a *RandomSwap) Run(ctx context.Context, start *School, rng *rand.Rand, cfg *Config, sink *ProgressSink) (*RunResult, error) {
	if start.NumClasses() < 2 {
		rs, initial := newRunState(a.Name(), start, cfg)
		sink.Start(0, initial)
		sink.End(0, initial, initial)
		return rs.finish(cfg), nil
	}

	checker := NewChecker(cfg)
	rs, initial := newRunState(a.Name(), start, cfg)
	res := rs.result

	maxIter := cfg.Optimization.MaxIterations
	maxAttempts := cfg.Optimization.Algorithms.RandomSwap.MaxSwapAttempts
	earlyStop := cfg.Optimization.EarlyStopThreshold
	acceptNeutral := cfg.Optimization.AcceptNeutralMoves

	cur := start.Clone()
	curScore := initial
	nonImproving := 0

	sink.Start(maxIter, initial)
	for res.IterationsUsed < maxIter {
		if rs.halt(ctx) {
			break
		}

		// Find a constraint-legal swap; failed proposals do not consume
		// iterations.
		ai, bi := -1, -1
		found := false
		for attempts := 0; attempts < maxAttempts; attempts++ {
			ca := rng.Intn(cur.NumClasses())
			cb := rng.Intn(cur.NumClasses() - 1)
			if cb >= ca {
				cb++
			}
			ai = pickUnlocked(cur, cfg, ca, rng)
			bi = pickUnlocked(cur, cfg, cb, rng)
			sink.Proposal(res.IterationsUsed, curScore, res.BestScore, nil)
			if ai >= 0 && bi >= 0 && checker.swapAllowed(cur, ai, bi) {
				found = true
				break
			}
		}
		if !found {
			res.Stuck = true
			break
		}

		next := cur.Clone()
		next.swapPlaces(ai, bi)
		res.IterationsUsed++
		nextScore := Score(next, cfg).Final

		if nextScore > res.BestScore {
			cur, curScore = next, nextScore
			res.Best, res.BestScore = next.Clone(), nextScore
			nonImproving = 0
		} else {
			if acceptNeutral && nextScore == res.BestScore {
				cur, curScore = next, nextScore
			}
			nonImproving++
		}
		sink.Accepted(res.IterationsUsed, curScore, res.BestScore, nil)

		if earlyStop > 0 && nonImproving >= earlyStop {
			res.EarlyStopped = true
			break
		}
	}

	sink.End(res.IterationsUsed, curScore, res.BestScore)
	return rs.finish(cfg), nil
}
