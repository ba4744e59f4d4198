package assign

import (
	"context"
	"math/rand"
	"sort"
)

// Evolutionary is a population optimizer: tournament selection, uniform
// per-student crossover with constraint repair, swap mutation, and elitism.
type Evolutionary struct{}

// Name implements Algorithm.
func (a *Evolutionary) Name() string { return AlgorithmEvolutionary }

type individual struct {
	snap  *School
	score float64
}

// Run implements Algorithm.
func (a *Evolutionary) Run(ctx context.Context, start *School, rng *rand.Rand, cfg *Config, sink *ProgressSink) (*RunResult, error) {
	checker := NewChecker(cfg)
	rs, initial := newRunState(a.Name(), start, cfg)
	res := rs.result

	evCfg := cfg.Optimization.Algorithms.Evolutionary
	popSize := evCfg.PopulationSize

	pop := make([]individual, popSize)
	pop[0] = individual{snap: start.Clone(), score: initial}
	for i := 1; i < popSize; i++ {
		snap := start.Clone()
		a.mutate(snap, cfg, checker, rng, 1+rng.Intn(3))
		pop[i] = individual{snap: snap, score: Score(snap, cfg).Final}
	}
	a.sortPop(pop)
	if pop[0].score > res.BestScore {
		res.Best, res.BestScore = pop[0].snap.Clone(), pop[0].score
	}

	stagnation := 0
	sink.Start(evCfg.Generations, initial)
	for gen := 0; gen < evCfg.Generations; gen++ {
		if rs.halt(ctx) {
			break
		}

		next := make([]individual, 0, popSize)
		for e := 0; e < evCfg.EliteSize && e < popSize; e++ {
			next = append(next, individual{snap: pop[e].snap.Clone(), score: pop[e].score})
		}
		for len(next) < popSize {
			pa := a.tournament(pop, evCfg.TournamentSize, rng)
			pb := a.tournament(pop, evCfg.TournamentSize, rng)

			var child *School
			if rng.Float64() < evCfg.CrossoverRate {
				child = a.crossover(pa.snap, pb.snap, cfg, checker, rng)
			}
			if child == nil {
				child = pa.snap.Clone()
			}
			if rng.Float64() < evCfg.MutationRate {
				a.mutate(child, cfg, checker, rng, 1+rng.Intn(2))
			}
			next = append(next, individual{snap: child, score: Score(child, cfg).Final})
		}
		pop = next
		a.sortPop(pop)

		res.IterationsUsed++
		if pop[0].score > res.BestScore {
			res.Best, res.BestScore = pop[0].snap.Clone(), pop[0].score
			stagnation = 0
		} else {
			stagnation++
		}
		sink.Accepted(res.IterationsUsed, pop[0].score, res.BestScore, map[string]float64{"generation": float64(gen)})

		if evCfg.StagnationLimit > 0 && stagnation >= evCfg.StagnationLimit {
			res.EarlyStopped = true
			break
		}
	}

	sink.End(res.IterationsUsed, res.BestScore, res.BestScore)
	return rs.finish(cfg), nil
}

// sortPop orders a population by descending fitness, stable so equal scores
// keep their generation order and runs stay reproducible.
func (a *Evolutionary) sortPop(pop []individual) {
	sort.SliceStable(pop, func(i, j int) bool { return pop[i].score > pop[j].score })
}

// tournament picks the fittest of k uniform draws; exact score ties are
// broken uniformly at random.
func (a *Evolutionary) tournament(pop []individual, k int, rng *rand.Rand) *individual {
	best := &pop[rng.Intn(len(pop))]
	ties := 1
	for i := 1; i < k; i++ {
		cand := &pop[rng.Intn(len(pop))]
		switch {
		case cand.score > best.score:
			best, ties = cand, 1
		case cand.score == best.score:
			ties++
			if rng.Intn(ties) == 0 {
				best = cand
			}
		}
	}
	return best
}

// mutate applies up to n random legal swaps in place.
func (a *Evolutionary) mutate(snap *School, cfg *Config, checker *Checker, rng *rand.Rand, n int) {
	k := snap.NumClasses()
	if k < 2 {
		return
	}
	maxAttempts := cfg.Optimization.Algorithms.RandomSwap.MaxSwapAttempts
	for done := 0; done < n; done++ {
		applied := false
		for attempts := 0; attempts < maxAttempts; attempts++ {
			ca := rng.Intn(k)
			cb := rng.Intn(k - 1)
			if cb >= ca {
				cb++
			}
			ai := pickUnlocked(snap, cfg, ca, rng)
			bi := pickUnlocked(snap, cfg, cb, rng)
			if ai >= 0 && bi >= 0 && checker.swapAllowed(snap, ai, bi) {
				snap.swapPlaces(ai, bi)
				applied = true
				break
			}
		}
		if !applied {
			return
		}
	}
}

// crossover builds a child inheriting each student's class uniformly from one
// parent, then repairs force locks, capacity overflow, and minimum-friends.
// Returns nil when no feasible child could be produced.
func (a *Evolutionary) crossover(pa, pb *School, cfg *Config, checker *Checker, rng *rand.Rand) *School {
	child := pa.Clone()
	for si := range child.classOf {
		if rng.Intn(2) == 1 {
			if ci := pb.classOf[si]; ci != child.classOf[si] {
				child.place(si, ci)
			}
		}
	}

	// Repair pass 1: reinstate force locks.
	if cfg.Constraints.RespectForceConstraints {
		for si := range child.students {
			fc := child.students[si].ForceClass
			if fc == "" {
				continue
			}
			ti, ok := child.classIdx[fc]
			if !ok {
				return nil
			}
			if child.classOf[si] != ti {
				child.place(si, ti)
			}
		}
		for _, tag := range child.GroupTags() {
			mem := child.groups[tag]
			ti := a.groupHomeClass(child, mem)
			for _, si := range mem {
				if child.classOf[si] != ti {
					child.place(si, ti)
				}
			}
		}
	}

	// Repair pass 2: drain classes above max_class_size.
	if max := cfg.ClassConfig.MaxClassSize; max > 0 {
		if !a.drainOverflow(child, cfg, checker, max) {
			return nil
		}
	}

	// Repair pass 3: resettle students short of required friends.
	if !a.repairMinFriends(child, cfg, checker) {
		return nil
	}
	return child
}

// groupHomeClass picks the class holding the most group members, preferring a
// member's force_class and breaking ties toward the smaller class index.
func (a *Evolutionary) groupHomeClass(s *School, mem []int) int {
	for _, si := range mem {
		if fc := s.students[si].ForceClass; fc != "" {
			if ti, ok := s.classIdx[fc]; ok {
				return ti
			}
		}
	}
	counts := make(map[int]int, len(mem))
	for _, si := range mem {
		if ci := s.classOf[si]; ci != unassignedClass {
			counts[ci]++
		}
	}
	best, bestCount := 0, -1
	for ci := 0; ci < s.NumClasses(); ci++ {
		if c := counts[ci]; c > bestCount {
			best, bestCount = ci, c
		}
	}
	return best
}

// drainOverflow moves students out of over-capacity classes, each into the
// legal class with the smallest score penalty. Force-locked students do not
// move; reports false when an overflow cannot be resolved.
func (a *Evolutionary) drainOverflow(s *School, cfg *Config, checker *Checker, max int) bool {
	respect := cfg.Constraints.RespectForceConstraints
	for ci := range s.classIDs {
		for s.agg[ci].size > max {
			moved := false
			mem := s.members[ci]
			for k := len(mem) - 1; k >= 0; k-- {
				si := mem[k]
				if respect && s.students[si].ForceLocked() {
					continue
				}
				bestTarget, bestScore := -1, 0.0
				for ti := range s.classIDs {
					if ti == ci || s.agg[ti].size >= max {
						continue
					}
					if !checker.moveAllowed(s, si, ti) {
						continue
					}
					trial := s.Clone()
					trial.place(si, ti)
					sc := Score(trial, cfg).Final
					if bestTarget < 0 || sc > bestScore {
						bestTarget, bestScore = ti, sc
					}
				}
				if bestTarget >= 0 {
					s.place(si, bestTarget)
					moved = true
					break
				}
			}
			if !moved {
				return false
			}
		}
	}
	return true
}

// repairMinFriends relocates students short of their required friends to any
// class where the constraint holds for everyone affected. Reports false when
// violations remain.
func (a *Evolutionary) repairMinFriends(s *School, cfg *Config, checker *Checker) bool {
	for round := 0; round < 3; round++ {
		short := checker.MinFriendsShortfall(s)
		if len(short) == 0 {
			return true
		}
		ids := make([]string, 0, len(short))
		for id := range short {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		progress := false
		for _, id := range ids {
			si := s.indexOf[id]
			if cfg.Constraints.RespectForceConstraints && s.students[si].ForceLocked() {
				continue
			}
			for ti := range s.classIDs {
				if ti == s.classOf[si] {
					continue
				}
				if checker.moveAllowed(s, si, ti) {
					s.place(si, ti)
					progress = true
					break
				}
			}
		}
		if !progress {
			return false
		}
	}
	return len(checker.MinFriendsShortfall(s)) == 0
}
