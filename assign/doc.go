// Package assign provides the core class-assignment engine for SortaClassy.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - school.go: the snapshot (packed student/class arrays, incremental aggregates, mutation primitives)
//   - scorer.go: the three-layer weighted score and its per-student/per-class decomposition
//   - algorithm.go: the shared run contract all optimizers implement
//
// # Architecture
//
// The engine is a pure core driven from the outside:
//   - constraints.go: hard-constraint checker (placement locks, minimum friends)
//   - initializer.go: strategies producing a feasible starting assignment
//   - moves.go: pure neighborhood operations (move, swap, move_group)
//   - random_swap.go, local_search.go, annealing.go, evolutionary.go: the optimizers
//   - coordinator.go: single/parallel/sequential/best_of composition
//   - baseline.go: repeated reference runs with statistics
//   - table.go: CSV import/export with validation and extra-column preservation
//
// Nothing in this package writes to stdout, stderr, or files except table.go
// (ExportFile) and config.go (SaveConfig) when explicitly asked to; long
// operations report through the ProgressSink callback contract in algorithm.go.
//
// # Reproducibility
//
// Every run derives its randomness from a master seed through PartitionedRNG
// (rng.go). Two runs with the same snapshot, seed, and configuration produce
// identical best snapshots and scores.
package assign
