package assign

import (
	"fmt"
	"testing"
)

// testStudent builds a male student with neutral attributes.
func testStudent(id string) Student {
	return Student{
		ID:                id,
		FirstName:         "First",
		LastName:          "Last",
		Gender:            GenderMale,
		AcademicScore:     70,
		BehaviorRank:      RankA,
		StudentialityRank: RankA,
	}
}

// testRoster builds n students with sequential 9-digit ids starting at
// 101000001.
func testRoster(n int) []Student {
	out := make([]Student, n)
	for i := range out {
		out[i] = testStudent(fmt.Sprintf("%09d", 101000001+i))
		if i%2 == 1 {
			out[i].Gender = GenderFemale
		}
	}
	return out
}

// mustSchool builds a snapshot or fails the test.
func mustSchool(t *testing.T, students []Student, classIDs []string) *School {
	t.Helper()
	s, err := NewSchool(students, classIDs)
	if err != nil {
		t.Fatalf("NewSchool: %v", err)
	}
	return s
}

// mustAssign places students or fails the test.
func mustAssign(t *testing.T, s *School, byClass map[string][]string) {
	t.Helper()
	for class, ids := range byClass {
		for _, id := range ids {
			if err := s.Assign(id, class); err != nil {
				t.Fatalf("Assign(%s, %s): %v", id, class, err)
			}
		}
	}
}

// dealEvenly assigns the whole roster round-robin across the classes.
func dealEvenly(t *testing.T, s *School) {
	t.Helper()
	k := s.NumClasses()
	for i, id := range s.StudentIDs() {
		if err := s.Assign(id, s.ClassIDs()[i%k]); err != nil {
			t.Fatalf("Assign(%s): %v", id, err)
		}
	}
}

// relaxedConfig returns defaults with the min-friends constraint off, which
// most neighborhood tests want out of the way.
func relaxedConfig() *Config {
	cfg := DefaultConfig()
	cfg.Constraints.MinimumFriends = 0
	return cfg
}
