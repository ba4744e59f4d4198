package assign

// RejectReason explains why a neighborhood operation was not applied.
// Rejections are ordinary values on the hot path, never errors.
type RejectReason string

const (
	RejectNone           RejectReason = ""
	RejectUnknownStudent RejectReason = "unknown_student"
	RejectUnknownClass   RejectReason = "unknown_class"
	RejectUnknownGroup   RejectReason = "unknown_group"
	RejectSameClass      RejectReason = "same_class"
	RejectForceClass     RejectReason = "force_class_lock"
	RejectForceGroup     RejectReason = "force_group_lock"
	RejectUnassigned     RejectReason = "unassigned_student"
	RejectMinFriends     RejectReason = "min_friends"
)

// Move returns a new snapshot with one student moved to targetClass, or a
// rejection reason. The input snapshot is never mutated.
func Move(s *School, cfg *Config, studentID, targetClass string) (*School, RejectReason) {
	si, ok := s.indexOf[studentID]
	if !ok {
		return nil, RejectUnknownStudent
	}
	ti, ok := s.classIdx[targetClass]
	if !ok {
		return nil, RejectUnknownClass
	}
	if s.classOf[si] == ti {
		return nil, RejectSameClass
	}
	c := NewChecker(cfg)
	if c.locksApply() {
		if s.students[si].ForceGroup != "" {
			return nil, RejectForceGroup
		}
		if fc := s.students[si].ForceClass; fc != "" && fc != targetClass {
			return nil, RejectForceClass
		}
	}
	if !c.minFriendsHoldAfter(s, map[int]int{si: ti}) {
		return nil, RejectMinFriends
	}
	next := s.Clone()
	next.place(si, ti)
	return next, RejectNone
}

// Swap returns a new snapshot with two students' classes exchanged, or a
// rejection reason.
func Swap(s *School, cfg *Config, aID, bID string) (*School, RejectReason) {
	ai, ok := s.indexOf[aID]
	if !ok {
		return nil, RejectUnknownStudent
	}
	bi, ok := s.indexOf[bID]
	if !ok {
		return nil, RejectUnknownStudent
	}
	if ai == bi || s.classOf[ai] == s.classOf[bi] {
		return nil, RejectSameClass
	}
	if s.classOf[ai] == unassignedClass || s.classOf[bi] == unassignedClass {
		return nil, RejectUnassigned
	}
	c := NewChecker(cfg)
	if c.locksApply() {
		if s.students[ai].ForceGroup != "" || s.students[bi].ForceGroup != "" {
			return nil, RejectForceGroup
		}
		if s.students[ai].ForceClass != "" || s.students[bi].ForceClass != "" {
			return nil, RejectForceClass
		}
	}
	if !c.minFriendsHoldAfter(s, map[int]int{ai: s.classOf[bi], bi: s.classOf[ai]}) {
		return nil, RejectMinFriends
	}
	next := s.Clone()
	next.swapPlaces(ai, bi)
	return next, RejectNone
}

// MoveGroup returns a new snapshot with a whole force group moved atomically
// to targetClass, or a rejection reason.
func MoveGroup(s *School, cfg *Config, tag, targetClass string) (*School, RejectReason) {
	mem, ok := s.groups[tag]
	if !ok || len(mem) == 0 {
		return nil, RejectUnknownGroup
	}
	ti, ok := s.classIdx[targetClass]
	if !ok {
		return nil, RejectUnknownClass
	}
	c := NewChecker(cfg)
	moves := make(map[int]int, len(mem))
	for _, si := range mem {
		if c.locksApply() {
			if fc := s.students[si].ForceClass; fc != "" && fc != targetClass {
				return nil, RejectForceClass
			}
		}
		if s.classOf[si] != ti {
			moves[si] = ti
		}
	}
	if len(moves) == 0 {
		return nil, RejectSameClass
	}
	if !c.minFriendsHoldAfter(s, moves) {
		return nil, RejectMinFriends
	}
	next := s.Clone()
	for _, si := range mem {
		if next.classOf[si] != ti {
			next.place(si, ti)
		}
	}
	return next, RejectNone
}
