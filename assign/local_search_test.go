package assign

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSearch_FindsPairings(t *testing.T) {
	s, cfg := optimizationFixture(t)
	res, err := (&LocalSearch{}).Run(context.Background(), s, algoRNG(AlgorithmLocalSearch, 1), cfg, nil)
	require.NoError(t, err)

	assert.Greater(t, res.BestScore, res.InitialScore)
	assert.Empty(t, res.ViolationsAtEnd)

	// Greedy pairing should reunite every split friend pair here.
	final := Score(res.Best, cfg)
	assert.Equal(t, 100.0, final.StudentLayer)
}

func TestLocalSearch_DeterministicWithoutSeed(t *testing.T) {
	s, cfg := optimizationFixture(t)
	a, err := (&LocalSearch{}).Run(context.Background(), s, algoRNG(AlgorithmLocalSearch, 1), cfg, nil)
	require.NoError(t, err)
	b, err := (&LocalSearch{}).Run(context.Background(), s, algoRNG(AlgorithmLocalSearch, 999), cfg, nil)
	require.NoError(t, err)

	// Local search draws nothing from the rng: different seeds, same result.
	assert.Equal(t, a.BestScore, b.BestScore)
	assert.Equal(t, a.Best.AssignmentKey(), b.Best.AssignmentKey())
}

func TestLocalSearch_StopsWhenNoImprovingMove(t *testing.T) {
	// A perfect snapshot has no improving move: one pass, zero iterations.
	a := testStudent("101000001")
	b := testStudent("101000002")
	b.Gender = GenderFemale
	c := testStudent("101000003")
	d := testStudent("101000004")
	d.Gender = GenderFemale
	s := mustSchool(t, []Student{a, b, c, d}, []string{"1", "2"})
	mustAssign(t, s, map[string][]string{"1": {a.ID, b.ID}, "2": {c.ID, d.ID}})

	cfg := relaxedConfig()
	res, err := (&LocalSearch{}).Run(context.Background(), s, algoRNG(AlgorithmLocalSearch, 1), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.IterationsUsed)
	assert.True(t, res.EarlyStopped)
	assert.Equal(t, res.InitialScore, res.BestScore)
}

func TestLocalSearch_RespectsLocks(t *testing.T) {
	students := testRoster(8)
	students[0].ForceClass = "1"
	students[1].ForceGroup = "g1"
	students[2].ForceGroup = "g1"
	s := mustSchool(t, students, []string{"1", "2"})
	dealEvenly(t, s)
	// Co-locate the group so the start is feasible.
	sFixed := s.Clone()
	require.NoError(t, sFixed.Assign(students[2].ID, "2"))
	require.NoError(t, sFixed.Assign(students[1].ID, "2"))

	cfg := relaxedConfig()
	res, err := (&LocalSearch{}).Run(context.Background(), sFixed, algoRNG(AlgorithmLocalSearch, 1), cfg, nil)
	require.NoError(t, err)

	cls, _ := res.Best.ClassOf(students[0].ID)
	assert.Equal(t, "1", cls)
	g1, _ := res.Best.ClassOf(students[1].ID)
	g2, _ := res.Best.ClassOf(students[2].ID)
	assert.Equal(t, g1, g2)
}
