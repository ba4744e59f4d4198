package assign

// Gender is a student's registered gender marker.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Rank is an ordinal A..D grade (A best) used for behavior and studentiality.
type Rank string

const (
	RankA Rank = "A"
	RankB Rank = "B"
	RankC Rank = "C"
	RankD Rank = "D"
)

// ParseRank validates a raw rank cell. An empty cell is a valid "missing"
// rank and resolves to A.
func ParseRank(raw string) (Rank, bool) {
	switch raw {
	case "":
		return RankA, true
	case "A", "B", "C", "D":
		return Rank(raw), true
	}
	return "", false
}

// Numeric converts a rank to its numeric form: A=1, B=2, C=3, D=4.
// A missing rank counts as A.
func (r Rank) Numeric() float64 {
	switch r {
	case RankB:
		return 2
	case RankC:
		return 3
	case RankD:
		return 4
	default:
		return 1
	}
}

// Limits on social preference list lengths, applied during cleanup.
const (
	MaxPreferredFriends = 3
	MaxDislikedPeers    = 5
)

// Student is an immutable roster record. The engine never mutates a Student
// after snapshot construction; assignment state lives in School.
type Student struct {
	ID                string
	FirstName         string
	LastName          string
	Gender            Gender
	AcademicScore     float64
	BehaviorRank      Rank
	StudentialityRank Rank
	AssistancePackage bool
	SchoolOfOrigin    string

	PreferredFriends []string
	DislikedPeers    []string

	ForceClass string
	ForceGroup string
}

// ForceLocked reports whether the student carries any hard placement lock.
func (s *Student) ForceLocked() bool {
	return s.ForceClass != "" || s.ForceGroup != ""
}

// cleanupRelations normalizes the preference lists in place: duplicates and
// self-references are dropped, lists are truncated to their limits, and a peer
// appearing in both lists keeps only the dislike.
func (s *Student) cleanupRelations() {
	disliked := make(map[string]bool, len(s.DislikedPeers))
	s.DislikedPeers = dedupeIDs(s.DislikedPeers, s.ID, MaxDislikedPeers, nil)
	for _, id := range s.DislikedPeers {
		disliked[id] = true
	}
	s.PreferredFriends = dedupeIDs(s.PreferredFriends, s.ID, MaxPreferredFriends, disliked)
}

// dedupeIDs keeps order, drops empties, self, duplicates and excluded ids,
// and truncates to limit.
func dedupeIDs(ids []string, self string, limit int, exclude map[string]bool) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" || id == self || seen[id] || exclude[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}
