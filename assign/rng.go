package assign

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === RunKey ===

// RunKey uniquely identifies a reproducible optimization run. Two runs with
// the same RunKey and identical snapshot + configuration MUST produce
// bit-for-bit identical results.
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemInitializer is the RNG subsystem for starting-assignment
	// generation. Uses the master seed directly so --random-seed keeps its
	// historical meaning for generate-assignment.
	SubsystemInitializer = "initializer"
)

// SubsystemAlgorithm returns the subsystem name for one optimizer, so
// parallel strategies draw from isolated streams.
func SubsystemAlgorithm(name string) string {
	return fmt.Sprintf("algorithm_%s", name)
}

// SubsystemBaselineRun returns the subsystem name for baseline run N.
func SubsystemBaselineRun(n int) string {
	return fmt.Sprintf("baseline_run_%d", n)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemInitializer: uses the master seed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Each goroutine must own its PartitionedRNG.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemInitializer {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the RunKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

// DeriveSeed returns the seed ForSubsystem uses for a subsystem, without
// building an rng.
func DeriveSeed(key RunKey, subsystem string) int64 {
	if subsystem == SubsystemInitializer {
		return int64(key)
	}
	return int64(key) ^ fnv1a64(subsystem)
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
