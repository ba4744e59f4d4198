package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_Classify(t *testing.T) {
	students := testRoster(4)
	students[0].ForceClass = "1"
	s := mustSchool(t, students, []string{"1", "2"})
	checker := NewChecker(DefaultConfig())

	assert.Equal(t, StateUnassigned, checker.Classify(s))

	require.NoError(t, s.Assign(students[0].ID, "1"))
	assert.Equal(t, StatePartiallyAssigned, checker.Classify(s))

	require.NoError(t, s.Assign(students[1].ID, "2"))
	assert.Equal(t, StateMixed, checker.Classify(s))

	require.NoError(t, s.Assign(students[2].ID, "1"))
	require.NoError(t, s.Assign(students[3].ID, "2"))
	assert.Equal(t, StateFullyAssigned, checker.Classify(s))
}

func TestChecker_ValidateOrdering(t *testing.T) {
	students := testRoster(5)
	students[4].ForceClass = "1" // will be misplaced
	students[2].ForceGroup = "g1"
	students[3].ForceGroup = "g1" // will be split
	students[0].PreferredFriends = []string{students[1].ID}
	s := mustSchool(t, students, []string{"1", "2"})
	mustAssign(t, s, map[string][]string{
		"1": {students[0].ID, students[2].ID},
		"2": {students[1].ID, students[3].ID, students[4].ID},
	})

	v := NewChecker(DefaultConfig()).Validate(s)
	require.Len(t, v, 3)
	assert.Equal(t, ViolationForceClass, v[0].Kind)
	assert.Equal(t, students[4].ID, v[0].StudentID)
	assert.Equal(t, ViolationForceGroup, v[1].Kind)
	assert.Equal(t, "g1", v[1].GroupTag)
	assert.Equal(t, ViolationMinFriends, v[2].Kind)
	assert.Equal(t, students[0].ID, v[2].StudentID)
}

func TestChecker_MinFriendsShortfall(t *testing.T) {
	students := testRoster(4)
	students[0].PreferredFriends = []string{students[1].ID, students[2].ID}
	s := mustSchool(t, students, []string{"1", "2"})
	mustAssign(t, s, map[string][]string{
		"1": {students[0].ID, students[3].ID},
		"2": {students[1].ID, students[2].ID},
	})

	cfg := DefaultConfig()
	cfg.Constraints.MinimumFriends = 2
	short := NewChecker(cfg).MinFriendsShortfall(s)
	assert.Equal(t, map[string]int{students[0].ID: 2}, short)

	// m=0 disables the constraint entirely.
	cfg.Constraints.MinimumFriends = 0
	assert.Empty(t, NewChecker(cfg).MinFriendsShortfall(s))
}

// A force group is atomic: moving one member is rejected, moving the whole
// group is allowed.
func TestChecker_ForceGroupAtomicity(t *testing.T) {
	students := testRoster(4)
	students[0].ForceGroup = "g1"
	students[1].ForceGroup = "g1"
	s := mustSchool(t, students, []string{"1", "2"})
	mustAssign(t, s, map[string][]string{
		"1": {students[0].ID, students[1].ID},
		"2": {students[2].ID, students[3].ID},
	})
	checker := NewChecker(relaxedConfig())

	assert.False(t, checker.IsMoveAllowed(s, students[0].ID, "2"))
	assert.False(t, checker.IsSwapAllowed(s, students[0].ID, students[2].ID))
	assert.True(t, checker.IsGroupMoveAllowed(s, "g1", "2"))
}

func TestChecker_ForceClassLock(t *testing.T) {
	students := testRoster(4)
	students[0].ForceClass = "1"
	s := mustSchool(t, students, []string{"1", "2"})
	mustAssign(t, s, map[string][]string{
		"1": {students[0].ID, students[1].ID},
		"2": {students[2].ID, students[3].ID},
	})

	checker := NewChecker(relaxedConfig())
	assert.False(t, checker.IsMoveAllowed(s, students[0].ID, "2"))
	assert.False(t, checker.IsSwapAllowed(s, students[0].ID, students[2].ID))
	assert.True(t, checker.IsMoveAllowed(s, students[1].ID, "2"))

	// With force constraints off, the lock no longer applies.
	cfg := relaxedConfig()
	cfg.Constraints.RespectForceConstraints = false
	assert.True(t, NewChecker(cfg).IsMoveAllowed(s, students[0].ID, "2"))
}

// Removing one of two placed friends is fine at m=1; removing the second
// must be rejected.
func TestChecker_MinFriendsSwapBoundary(t *testing.T) {
	students := testRoster(6)
	x, y, z := students[0], students[1], students[2]
	students[0].PreferredFriends = []string{y.ID, z.ID}
	s := mustSchool(t, students, []string{"1", "2"})
	mustAssign(t, s, map[string][]string{
		"1": {x.ID, y.ID, z.ID},
		"2": {students[3].ID, students[4].ID, students[5].ID},
	})

	checker := NewChecker(DefaultConfig()) // m=1

	// Swapping Y out leaves Z with X: allowed.
	require.True(t, checker.IsSwapAllowed(s, y.ID, students[3].ID))
	next, reason := Swap(s, DefaultConfig(), y.ID, students[3].ID)
	require.Equal(t, RejectNone, reason)

	// Now swapping Z out too would strand X at zero placed friends.
	assert.False(t, checker.IsSwapAllowed(next, z.ID, students[4].ID))
	_, reason = Swap(next, DefaultConfig(), z.ID, students[4].ID)
	assert.Equal(t, RejectMinFriends, reason)
}
