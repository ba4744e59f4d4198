package assign

import (
	"fmt"
	"math/rand"
	"sort"
)

// InitStrategy names a starting-assignment strategy.
type InitStrategy string

const (
	InitRandom           InitStrategy = "random"
	InitBalanced         InitStrategy = "balanced"
	InitAcademicBalanced InitStrategy = "academic_balanced"
	InitConstraintAware  InitStrategy = "constraint_aware"
)

// Marginal-cost heuristic weights for the constraint_aware strategy.
const (
	initConflictWeight = 2.0
	initFriendWeight   = 1.0
)

// ParseInitStrategy validates a strategy name.
func ParseInitStrategy(name string) (InitStrategy, bool) {
	switch InitStrategy(name) {
	case InitRandom, InitBalanced, InitAcademicBalanced, InitConstraintAware:
		return InitStrategy(name), true
	case "":
		return InitConstraintAware, true
	}
	return "", false
}

// Initializer produces a fully assigned snapshot satisfying every hard
// constraint, or fails with constraint.infeasible_initialization.
type Initializer struct {
	cfg      *Config
	strategy InitStrategy
}

// NewInitializer builds an initializer for one strategy.
func NewInitializer(cfg *Config, strategy InitStrategy) *Initializer {
	if strategy == "" {
		strategy = InitConstraintAware
	}
	return &Initializer{cfg: cfg, strategy: strategy}
}

// Initialize returns a new fully assigned snapshot. Existing assignments in
// the input are discarded; force locks and groups are honored first, then the
// strategy distributes the rest.
func (in *Initializer) Initialize(s *School, rng *rand.Rand) (*School, error) {
	out := s.Clone()

	// Ensure classes exist: keep the input's classes, or create 1..K.
	if out.NumClasses() == 0 {
		k := in.cfg.TargetClasses(out.NumStudents())
		ids := make([]string, k)
		for i := range ids {
			ids[i] = fmt.Sprintf("%d", i+1)
		}
		out.AddClasses(ids...)
	}
	if max := in.cfg.ClassConfig.MaxClassSize; max > 0 {
		if out.NumStudents() > max*out.NumClasses() {
			return nil, &InfeasibleError{Reason: fmt.Sprintf(
				"%d students exceed capacity of %d classes × %d seats",
				out.NumStudents(), out.NumClasses(), max)}
		}
	}

	// Start from a clean slate.
	for si := range out.classOf {
		out.place(si, unassignedClass)
	}

	placed, err := in.placeLocked(out)
	if err != nil {
		return nil, err
	}

	free := make([]int, 0, out.NumStudents())
	for si := range out.students {
		if !placed[si] {
			free = append(free, si)
		}
	}

	switch in.strategy {
	case InitRandom:
		in.dealRoundRobin(out, free, rng)
	case InitBalanced:
		in.dealRoundRobin(out, free, rng)
		in.rebalanceSizes(out, placed)
	case InitAcademicBalanced:
		in.serpentine(out, free)
	default: // InitConstraintAware
		in.marginalCost(out, free)
	}

	if err := in.repairMinFriends(out); err != nil {
		return nil, err
	}
	if v := NewChecker(in.cfg).Validate(out); len(v) > 0 {
		return nil, &InfeasibleError{Reason: fmt.Sprintf("%d hard violations remain after placement", len(v))}
	}
	return out, nil
}

// placeLocked assigns force_class students and force groups, reporting which
// student indices are settled.
func (in *Initializer) placeLocked(s *School) (map[int]bool, error) {
	placed := make(map[int]bool)
	if !in.cfg.Constraints.RespectForceConstraints {
		return placed, nil
	}
	max := in.cfg.ClassConfig.MaxClassSize

	for si := range s.students {
		st := &s.students[si]
		if st.ForceClass == "" || st.ForceGroup != "" {
			continue
		}
		ti, ok := s.classIdx[st.ForceClass]
		if !ok {
			return nil, &InfeasibleError{Reason: fmt.Sprintf("student %s forces unknown class %q", st.ID, st.ForceClass)}
		}
		s.place(si, ti)
		placed[si] = true
	}

	for _, tag := range s.GroupTags() {
		mem := s.groups[tag]
		if max > 0 && len(mem) > max {
			return nil, &InfeasibleError{Reason: fmt.Sprintf("force group %q has %d members, max class size is %d", tag, len(mem), max)}
		}
		target := -1
		for _, si := range mem {
			fc := s.students[si].ForceClass
			if fc == "" {
				continue
			}
			ti, ok := s.classIdx[fc]
			if !ok {
				return nil, &InfeasibleError{Reason: fmt.Sprintf("student %s forces unknown class %q", s.students[si].ID, fc)}
			}
			if target >= 0 && target != ti {
				return nil, &InfeasibleError{Reason: fmt.Sprintf("force group %q members force different classes", tag)}
			}
			target = ti
		}
		if target < 0 {
			target = in.cheapestGroupClass(s, mem)
			if target < 0 {
				return nil, &InfeasibleError{Reason: fmt.Sprintf("no class can hold force group %q", tag)}
			}
		} else if max > 0 && s.agg[target].size+len(mem) > max {
			return nil, &InfeasibleError{Reason: fmt.Sprintf("force group %q does not fit its forced class", tag)}
		}
		for _, si := range mem {
			s.place(si, target)
			placed[si] = true
		}
	}
	return placed, nil
}

// cheapestGroupClass picks the class minimizing the group's predicted
// disruption: conflict edges against current members plus an overflow
// penalty. Ties go to the smaller class index.
func (in *Initializer) cheapestGroupClass(s *School, mem []int) int {
	max := in.cfg.ClassConfig.MaxClassSize
	preferred := in.cfg.ClassConfig.PreferredClassSize
	best, bestCost := -1, 0.0
	for ti := range s.classIDs {
		if max > 0 && s.agg[ti].size+len(mem) > max {
			continue
		}
		cost := 0.0
		for _, si := range mem {
			cost += initConflictWeight * float64(in.conflictEdges(s, si, ti))
		}
		if preferred > 0 {
			if over := s.agg[ti].size + len(mem) - preferred; over > 0 {
				cost += float64(over)
			}
		}
		if best < 0 || cost < bestCost {
			best, bestCost = ti, cost
		}
	}
	return best
}

// dealRoundRobin shuffles the free students and deals them across classes.
func (in *Initializer) dealRoundRobin(s *School, free []int, rng *rand.Rand) {
	order := append([]int(nil), free...)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	k := s.NumClasses()
	for n, si := range order {
		s.place(si, n%k)
	}
}

// rebalanceSizes moves one free student at a time from the largest class to
// the smallest until the size range is at most 1.
func (in *Initializer) rebalanceSizes(s *School, locked map[int]bool) {
	for iter := 0; iter < s.NumStudents(); iter++ {
		largest, smallest := 0, 0
		for ci := range s.classIDs {
			if s.agg[ci].size > s.agg[largest].size {
				largest = ci
			}
			if s.agg[ci].size < s.agg[smallest].size {
				smallest = ci
			}
		}
		if s.agg[largest].size-s.agg[smallest].size <= 1 {
			return
		}
		moved := false
		mem := s.members[largest]
		for k := len(mem) - 1; k >= 0; k-- {
			if si := mem[k]; !locked[si] {
				s.place(si, smallest)
				moved = true
				break
			}
		}
		if !moved {
			return
		}
	}
}

// serpentine sorts free students by academic score descending and deals them
// 0,1,…,K-1,K-1,…,1,0 to equalize class means.
func (in *Initializer) serpentine(s *School, free []int) {
	order := append([]int(nil), free...)
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := s.students[order[a]].AcademicScore, s.students[order[b]].AcademicScore
		if sa != sb {
			return sa > sb
		}
		return s.students[order[a]].ID < s.students[order[b]].ID
	})
	k := s.NumClasses()
	for n, si := range order {
		lap := n / k
		pos := n % k
		if lap%2 == 1 {
			pos = k - 1 - pos
		}
		s.place(si, pos)
	}
}

// marginalCost places each free student into the class with the lowest
// marginal cost: current size + α·conflict edges added − β·friend edges
// added. Ties go to the smaller class index.
func (in *Initializer) marginalCost(s *School, free []int) {
	max := in.cfg.ClassConfig.MaxClassSize
	for _, si := range free {
		best, bestCost := -1, 0.0
		for ti := range s.classIDs {
			if max > 0 && s.agg[ti].size >= max {
				continue
			}
			cost := float64(s.agg[ti].size) +
				initConflictWeight*float64(in.conflictEdges(s, si, ti)) -
				initFriendWeight*float64(in.friendEdges(s, si, ti))
			if best < 0 || cost < bestCost {
				best, bestCost = ti, cost
			}
		}
		s.place(si, best)
	}
}

// conflictEdges counts dislike edges (both directions) between a student and
// the current members of a class.
func (in *Initializer) conflictEdges(s *School, si, ci int) int {
	edges := 0
	st := &s.students[si]
	for _, did := range st.DislikedPeers {
		if s.classOf[s.indexOf[did]] == ci {
			edges++
		}
	}
	for _, mi := range s.members[ci] {
		for _, did := range s.students[mi].DislikedPeers {
			if s.indexOf[did] == si {
				edges++
			}
		}
	}
	return edges
}

// friendEdges counts preferred-friend edges (both directions) between a
// student and the current members of a class.
func (in *Initializer) friendEdges(s *School, si, ci int) int {
	edges := 0
	st := &s.students[si]
	for _, fid := range st.PreferredFriends {
		if s.classOf[s.indexOf[fid]] == ci {
			edges++
		}
	}
	for _, mi := range s.members[ci] {
		for _, fid := range s.students[mi].PreferredFriends {
			if s.indexOf[fid] == si {
				edges++
			}
		}
	}
	return edges
}

// repairMinFriends iteratively resettles students short of required friends.
func (in *Initializer) repairMinFriends(s *School) error {
	checker := NewChecker(in.cfg)
	if in.cfg.Constraints.MinimumFriends <= 0 {
		return nil
	}
	for round := 0; round < s.NumStudents(); round++ {
		short := checker.MinFriendsShortfall(s)
		if len(short) == 0 {
			return nil
		}
		ids := make([]string, 0, len(short))
		for id := range short {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		progress := false
		for _, id := range ids {
			si := s.indexOf[id]
			st := &s.students[si]
			if in.cfg.Constraints.RespectForceConstraints && st.ForceLocked() {
				continue
			}
			// Prefer joining the class holding the most of this student's
			// preferred friends.
			bestTarget, bestFriends := -1, -1
			for ti := range s.classIDs {
				if ti == s.classOf[si] {
					continue
				}
				if max := in.cfg.ClassConfig.MaxClassSize; max > 0 && s.agg[ti].size >= max {
					continue
				}
				f := in.friendEdges(s, si, ti)
				if f > bestFriends {
					// The move must not push anyone else below their
					// requirement.
					if checker.minFriendsHoldAfterIgnoring(s, map[int]int{si: ti}, short) {
						bestTarget, bestFriends = ti, f
					}
				}
			}
			if bestTarget >= 0 {
				s.place(si, bestTarget)
				progress = true
			}
		}
		if !progress {
			return &InfeasibleError{Reason: "minimum-friends requirement cannot be satisfied"}
		}
	}
	if len(checker.MinFriendsShortfall(s)) == 0 {
		return nil
	}
	return &InfeasibleError{Reason: "minimum-friends requirement cannot be satisfied"}
}
