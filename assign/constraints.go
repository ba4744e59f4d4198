package assign

import "sort"

// AssignmentState classifies how much of a snapshot is placed.
type AssignmentState string

const (
	// StateUnassigned: no student has a class.
	StateUnassigned AssignmentState = "unassigned"
	// StatePartiallyAssigned: only force-locked students are placed.
	StatePartiallyAssigned AssignmentState = "partially_assigned"
	// StateMixed: some but not all students are placed, including unlocked ones.
	StateMixed AssignmentState = "mixed"
	// StateFullyAssigned: every student has a class.
	StateFullyAssigned AssignmentState = "fully_assigned"
)

// ViolationKind names a hard-constraint category.
type ViolationKind string

const (
	ViolationForceClass ViolationKind = "force_class"
	ViolationForceGroup ViolationKind = "force_group"
	ViolationMinFriends ViolationKind = "min_friends"
)

// Violation is one hard-constraint breach, reported by Validate. The engine
// never emits a snapshot with violations; these exist for input diagnostics.
type Violation struct {
	Kind      ViolationKind
	StudentID string // empty for group-level violations
	GroupTag  string // set for force_group violations
	Details   string
}

// Checker evaluates the hard constraints: placement locks and the
// minimum-friends requirement. It never repairs; callers reject proposals
// that would violate.
type Checker struct {
	cfg *Config
}

// NewChecker builds a checker over a configuration.
func NewChecker(cfg *Config) *Checker {
	return &Checker{cfg: cfg}
}

// requiredFriends returns min(m, |preferred|) for one student, 0 when the
// constraint is disabled.
func (c *Checker) requiredFriends(st *Student) int {
	m := c.cfg.Constraints.MinimumFriends
	if m <= 0 || len(st.PreferredFriends) == 0 {
		return 0
	}
	if n := len(st.PreferredFriends); n < m {
		return n
	}
	return m
}

// locksApply reports whether force constraints are enforced at all.
func (c *Checker) locksApply() bool {
	return c.cfg.Constraints.RespectForceConstraints
}

// Classify returns the assignment state of a snapshot.
func (c *Checker) Classify(s *School) AssignmentState {
	placed, unlockedPlaced := 0, 0
	for i := range s.students {
		if s.classOf[i] == unassignedClass {
			continue
		}
		placed++
		if !s.students[i].ForceLocked() {
			unlockedPlaced++
		}
	}
	switch {
	case placed == 0:
		return StateUnassigned
	case placed == len(s.students):
		return StateFullyAssigned
	case unlockedPlaced == 0:
		return StatePartiallyAssigned
	default:
		return StateMixed
	}
}

// Validate reports every hard-constraint violation in a snapshot, lock
// violations first (force_class by student id, then split groups by tag),
// then minimum-friends shortfalls by student id.
func (c *Checker) Validate(s *School) []Violation {
	var out []Violation
	if c.locksApply() {
		ids := make([]int, 0, len(s.students))
		for i := range s.students {
			ids = append(ids, i)
		}
		sort.Slice(ids, func(a, b int) bool { return s.students[ids[a]].ID < s.students[ids[b]].ID })
		for _, i := range ids {
			st := &s.students[i]
			if st.ForceClass == "" {
				continue
			}
			cur := ""
			if s.classOf[i] != unassignedClass {
				cur = s.classIDs[s.classOf[i]]
			}
			if cur != st.ForceClass {
				out = append(out, Violation{
					Kind:      ViolationForceClass,
					StudentID: st.ID,
					Details:   "required class " + st.ForceClass + ", placed in " + orUnassigned(cur),
				})
			}
		}
		for _, tag := range s.GroupTags() {
			mem := s.groups[tag]
			split := false
			first := s.classOf[mem[0]]
			for _, si := range mem[1:] {
				if s.classOf[si] != first {
					split = true
					break
				}
			}
			if split || first == unassignedClass {
				out = append(out, Violation{
					Kind:     ViolationForceGroup,
					GroupTag: tag,
					Details:  "group members are not co-located",
				})
			}
		}
	}
	for id, short := range c.MinFriendsShortfall(s) {
		out = append(out, Violation{
			Kind:      ViolationMinFriends,
			StudentID: id,
			Details:   "short " + itoa(short) + " required friend(s)",
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		ra, rb := violationRank(out[a].Kind), violationRank(out[b].Kind)
		if ra != rb {
			return ra < rb
		}
		if out[a].StudentID != out[b].StudentID {
			return out[a].StudentID < out[b].StudentID
		}
		return out[a].GroupTag < out[b].GroupTag
	})
	return out
}

func violationRank(k ViolationKind) int {
	switch k {
	case ViolationForceClass:
		return 0
	case ViolationForceGroup:
		return 1
	default:
		return 2
	}
}

func orUnassigned(class string) string {
	if class == "" {
		return "(unassigned)"
	}
	return class
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// MinFriendsShortfall returns, per student id, how many required friends are
// missing from their class. Students meeting the requirement are absent.
func (c *Checker) MinFriendsShortfall(s *School) map[string]int {
	out := make(map[string]int)
	for i := range s.students {
		req := c.requiredFriends(&s.students[i])
		if req == 0 {
			continue
		}
		if placed := c.placedFriends(s, i, nil); placed < req {
			out[s.students[i].ID] = req - placed
		}
	}
	return out
}

// placedFriends counts a student's preferred friends sharing their class,
// with classOf optionally overridden by a hypothetical move set.
func (c *Checker) placedFriends(s *School, si int, moves map[int]int) int {
	my := classAfter(s, si, moves)
	if my == unassignedClass {
		return 0
	}
	placed := 0
	for _, fid := range s.students[si].PreferredFriends {
		fi := s.indexOf[fid]
		if classAfter(s, fi, moves) == my {
			placed++
		}
	}
	return placed
}

func classAfter(s *School, si int, moves map[int]int) int {
	if ci, ok := moves[si]; ok {
		return ci
	}
	return s.classOf[si]
}

// minFriendsHoldAfter checks the minimum-friends constraint for every student
// whose placed-friend count a hypothetical move set could change: the moved
// students plus everyone in a source or target class.
func (c *Checker) minFriendsHoldAfter(s *School, moves map[int]int) bool {
	if c.cfg.Constraints.MinimumFriends <= 0 {
		return true
	}
	affected := make(map[int]bool, len(moves)*2)
	for si, to := range moves {
		if from := s.classOf[si]; from != unassignedClass {
			affected[from] = true
		}
		if to != unassignedClass {
			affected[to] = true
		}
	}
	for si := range moves {
		if !c.studentMinFriendsOK(s, si, moves) {
			return false
		}
	}
	for ci := range affected {
		for _, si := range s.members[ci] {
			if !c.studentMinFriendsOK(s, si, moves) {
				return false
			}
		}
	}
	return true
}

// minFriendsHoldAfterIgnoring is the repair-time variant of
// minFriendsHoldAfter: students already short before the move (keys of
// ignore) are exempt from the check, and a moved short student only has to
// strictly improve their placed-friend count.
func (c *Checker) minFriendsHoldAfterIgnoring(s *School, moves map[int]int, ignore map[string]int) bool {
	if c.cfg.Constraints.MinimumFriends <= 0 {
		return true
	}
	affected := make(map[int]bool, len(moves)*2)
	for si, to := range moves {
		if from := s.classOf[si]; from != unassignedClass {
			affected[from] = true
		}
		if to != unassignedClass {
			affected[to] = true
		}
	}
	for si := range moves {
		id := s.students[si].ID
		if _, short := ignore[id]; short {
			if c.placedFriends(s, si, moves) <= c.placedFriends(s, si, nil) {
				return false
			}
			continue
		}
		if !c.studentMinFriendsOK(s, si, moves) {
			return false
		}
	}
	for ci := range affected {
		for _, si := range s.members[ci] {
			if _, isMoved := moves[si]; isMoved {
				continue
			}
			if _, short := ignore[s.students[si].ID]; short {
				continue
			}
			if !c.studentMinFriendsOK(s, si, moves) {
				return false
			}
		}
	}
	return true
}

func (c *Checker) studentMinFriendsOK(s *School, si int, moves map[int]int) bool {
	req := c.requiredFriends(&s.students[si])
	if req == 0 {
		return true
	}
	return c.placedFriends(s, si, moves) >= req
}

// IsMoveAllowed reports whether moving one student to targetClass keeps every
// hard constraint. Force-group members are atomic: single-member moves are
// rejected (use IsGroupMoveAllowed).
func (c *Checker) IsMoveAllowed(s *School, studentID, targetClass string) bool {
	si, ok := s.indexOf[studentID]
	if !ok {
		return false
	}
	ti, ok := s.classIdx[targetClass]
	if !ok {
		return false
	}
	return c.moveAllowed(s, si, ti)
}

func (c *Checker) moveAllowed(s *School, si, ti int) bool {
	if s.classOf[si] == ti {
		return false
	}
	st := &s.students[si]
	if c.locksApply() {
		if st.ForceGroup != "" {
			return false
		}
		if st.ForceClass != "" && st.ForceClass != s.classIDs[ti] {
			return false
		}
	}
	return c.minFriendsHoldAfter(s, map[int]int{si: ti})
}

// IsSwapAllowed reports whether exchanging two students' classes keeps every
// hard constraint.
func (c *Checker) IsSwapAllowed(s *School, aID, bID string) bool {
	ai, ok := s.indexOf[aID]
	if !ok {
		return false
	}
	bi, ok := s.indexOf[bID]
	if !ok {
		return false
	}
	return c.swapAllowed(s, ai, bi)
}

func (c *Checker) swapAllowed(s *School, ai, bi int) bool {
	if ai == bi || s.classOf[ai] == s.classOf[bi] {
		return false
	}
	if s.classOf[ai] == unassignedClass || s.classOf[bi] == unassignedClass {
		return false
	}
	if c.locksApply() {
		if s.students[ai].ForceLocked() || s.students[bi].ForceLocked() {
			return false
		}
	}
	return c.minFriendsHoldAfter(s, map[int]int{ai: s.classOf[bi], bi: s.classOf[ai]})
}

// IsGroupMoveAllowed reports whether atomically moving a whole force group to
// targetClass keeps every hard constraint.
func (c *Checker) IsGroupMoveAllowed(s *School, tag, targetClass string) bool {
	mem, ok := s.groups[tag]
	if !ok || len(mem) == 0 {
		return false
	}
	ti, ok := s.classIdx[targetClass]
	if !ok {
		return false
	}
	moves := make(map[int]int, len(mem))
	for _, si := range mem {
		if c.locksApply() {
			if fc := s.students[si].ForceClass; fc != "" && fc != targetClass {
				return false
			}
		}
		moves[si] = ti
	}
	return c.minFriendsHoldAfter(s, moves)
}
