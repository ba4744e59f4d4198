package assign

import (
	"math"
	"testing"
)

// === RunKey Tests ===

func TestRunKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewRunKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewRunKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

// === PartitionedRNG Tests ===

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	rng1 := NewPartitionedRNG(NewRunKey(42))
	rng2 := NewPartitionedRNG(NewRunKey(42))

	sub := SubsystemAlgorithm(AlgorithmRandomSwap)
	for i := 0; i < 3; i++ {
		v1 := rng1.ForSubsystem(sub).Float64()
		v2 := rng2.ForSubsystem(sub).Float64()
		if v1 != v2 {
			t.Errorf("Value %d: got %v and %v, want identical", i, v1, v2)
		}
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// Drawing from subsystem A must not affect subsystem B.
	rngA := NewPartitionedRNG(NewRunKey(42))
	rngB := NewPartitionedRNG(NewRunKey(42))

	for i := 0; i < 100; i++ {
		rngA.ForSubsystem(SubsystemInitializer).Float64()
	}
	sub := SubsystemAlgorithm(AlgorithmAnnealing)
	for i := 0; i < 5; i++ {
		va := rngA.ForSubsystem(sub).Float64()
		vb := rngB.ForSubsystem(sub).Float64()
		if va != vb {
			t.Errorf("Subsystem %q not isolated: %v != %v", sub, va, vb)
		}
	}
}

func TestPartitionedRNG_InitializerUsesMasterSeed(t *testing.T) {
	if got := DeriveSeed(NewRunKey(1234), SubsystemInitializer); got != 1234 {
		t.Errorf("DeriveSeed(initializer) = %d, want 1234", got)
	}
}

func TestPartitionedRNG_DistinctSubsystemSeeds(t *testing.T) {
	key := NewRunKey(7)
	seen := map[int64]string{}
	for _, name := range AlgorithmNames() {
		sub := SubsystemAlgorithm(name)
		seed := DeriveSeed(key, sub)
		if prev, dup := seen[seed]; dup {
			t.Errorf("Subsystems %q and %q derive the same seed %d", prev, sub, seed)
		}
		seen[seed] = sub
	}
}

func TestPartitionedRNG_CachesInstances(t *testing.T) {
	p := NewPartitionedRNG(NewRunKey(9))
	sub := SubsystemBaselineRun(3)
	if p.ForSubsystem(sub) != p.ForSubsystem(sub) {
		t.Error("ForSubsystem returned distinct instances for the same name")
	}
	if p.Key() != NewRunKey(9) {
		t.Errorf("Key() = %d, want 9", p.Key())
	}
}
