package assign

import (
	"context"
	"math/rand"
	"sort"
)

// LocalSearch is a deterministic greedy optimizer: each pass enumerates
// students in stable id order and applies, per student, the legal move or
// swap with the highest positive score delta.
type LocalSearch struct{}

// Name implements Algorithm.
func (a *LocalSearch) Name() string { return AlgorithmLocalSearch }

// candidate is one legal improving step considered for a student. Ties are
// broken by smaller target class id, then smaller partner id; a plain move
// sorts before any swap into the same class.
type candidate struct {
	delta     float64
	targetCls string
	partnerID string
	partner   int // -1 for a plain move
	target    int
}

func betterCandidate(a, b *candidate) bool {
	if a.delta != b.delta {
		return a.delta > b.delta
	}
	if a.targetCls != b.targetCls {
		return a.targetCls < b.targetCls
	}
	return a.partnerID < b.partnerID
}

// Run implements Algorithm.
func (a *LocalSearch) Run(ctx context.Context, start *School, rng *rand.Rand, cfg *Config, sink *ProgressSink) (*RunResult, error) {
	_ = rng // fully deterministic

	checker := NewChecker(cfg)
	rs, initial := newRunState(a.Name(), start, cfg)
	res := rs.result

	lsCfg := cfg.Optimization.Algorithms.LocalSearch
	cur := start.Clone()
	curScore := initial

	order := make([]int, cur.NumStudents())
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(x, y int) bool {
		return cur.students[order[x]].ID < cur.students[order[y]].ID
	})

	sink.Start(lsCfg.MaxPasses, initial)
	for pass := 0; pass < lsCfg.MaxPasses; pass++ {
		passStart := curScore
		improved := false

		for _, si := range order {
			if rs.halt(ctx) {
				goto done
			}
			if cfg.Constraints.RespectForceConstraints && cur.students[si].ForceLocked() {
				continue
			}

			var best *candidate
			for ti := range cur.classIDs {
				if ti == cur.classOf[si] {
					continue
				}
				// Plain move.
				if checker.moveAllowed(cur, si, ti) {
					trial := cur.Clone()
					trial.place(si, ti)
					sink.Proposal(res.IterationsUsed, curScore, res.BestScore, nil)
					c := &candidate{
						delta:     Score(trial, cfg).Final - curScore,
						targetCls: cur.classIDs[ti],
						partner:   -1,
						target:    ti,
					}
					if c.delta > 0 && (best == nil || betterCandidate(c, best)) {
						best = c
					}
				}
				// Swaps with each partner in that class.
				for _, pi := range cur.members[ti] {
					if !checker.swapAllowed(cur, si, pi) {
						continue
					}
					trial := cur.Clone()
					trial.swapPlaces(si, pi)
					sink.Proposal(res.IterationsUsed, curScore, res.BestScore, nil)
					c := &candidate{
						delta:     Score(trial, cfg).Final - curScore,
						targetCls: cur.classIDs[ti],
						partnerID: cur.students[pi].ID,
						partner:   pi,
						target:    ti,
					}
					if c.delta > 0 && (best == nil || betterCandidate(c, best)) {
						best = c
					}
				}
			}

			if best == nil {
				continue
			}
			if best.partner < 0 {
				cur.place(si, best.target)
			} else {
				cur.swapPlaces(si, best.partner)
			}
			curScore += best.delta
			res.IterationsUsed++
			improved = true
			if curScore > res.BestScore {
				res.Best, res.BestScore = cur.Clone(), curScore
			}
			sink.Accepted(res.IterationsUsed, curScore, res.BestScore, map[string]float64{"pass": float64(pass)})
		}

		if !improved {
			res.EarlyStopped = true
			break
		}
		if curScore-passStart < lsCfg.MinImprovement {
			res.EarlyStopped = true
			break
		}
	}

done:
	// Drift from the incremental deltas is not carried into the result:
	// re-score the best snapshot.
	res.BestScore = Score(res.Best, cfg).Final
	sink.End(res.IterationsUsed, curScore, res.BestScore)
	return rs.finish(cfg), nil
}
