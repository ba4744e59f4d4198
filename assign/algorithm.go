package assign

import (
	"context"
	"math/rand"
	"time"
)

// Algorithm names accepted by NewAlgorithm and the CLI.
const (
	AlgorithmRandomSwap   = "random_swap"
	AlgorithmLocalSearch  = "local_search"
	AlgorithmAnnealing    = "simulated_annealing"
	AlgorithmEvolutionary = "evolutionary"
)

// IterationEvent is one progress report from a long-running operation.
type IterationEvent struct {
	Iteration     int
	TotalEstimate int
	CurrentScore  float64
	BestScore     float64
	Extras        map[string]float64
}

// ProgressFunc consumes iteration events. The engine never writes to stdout,
// stderr, or files; emission is the caller's concern. The callback may block
// but must not hold locks the engine can contend on.
type ProgressFunc func(IterationEvent)

// ProgressLevel is a rate contract for progress emission.
type ProgressLevel int

const (
	// ProgressMinimal fires at start and end.
	ProgressMinimal ProgressLevel = iota
	// ProgressNormal fires at each 10% milestone.
	ProgressNormal
	// ProgressDetailed fires on every accepted iteration.
	ProgressDetailed
	// ProgressDebug fires on every proposal.
	ProgressDebug
)

// ParseProgressLevel maps the CLI log-level names onto a rate.
func ParseProgressLevel(name string) (ProgressLevel, bool) {
	switch name {
	case "minimal":
		return ProgressMinimal, true
	case "normal":
		return ProgressNormal, true
	case "detailed":
		return ProgressDetailed, true
	case "debug":
		return ProgressDebug, true
	}
	return ProgressNormal, false
}

// ProgressSink gates a ProgressFunc behind a ProgressLevel. A nil sink (or a
// sink with a nil callback) swallows every event, so algorithms call it
// unconditionally.
type ProgressSink struct {
	Level ProgressLevel
	Fn    ProgressFunc

	total         int
	lastMilestone int
}

// NewProgressSink builds a sink; fn may be nil.
func NewProgressSink(level ProgressLevel, fn ProgressFunc) *ProgressSink {
	return &ProgressSink{Level: level, Fn: fn}
}

// fork returns an independent sink sharing the level and callback, so
// concurrent runs do not contend on milestone state. The callback itself must
// be safe for concurrent use when runs execute in parallel.
func (p *ProgressSink) fork() *ProgressSink {
	if p == nil {
		return nil
	}
	return NewProgressSink(p.Level, p.Fn)
}

func (p *ProgressSink) emit(ev IterationEvent) {
	if p == nil || p.Fn == nil {
		return
	}
	ev.TotalEstimate = p.total
	p.Fn(ev)
}

// Start announces a run and records the iteration estimate for milestones.
func (p *ProgressSink) Start(total int, score float64) {
	if p == nil {
		return
	}
	p.total = total
	p.lastMilestone = 0
	p.emit(IterationEvent{Iteration: 0, CurrentScore: score, BestScore: score})
}

// Accepted reports an applied iteration; it fires per the level's rate.
func (p *ProgressSink) Accepted(iter int, current, best float64, extras map[string]float64) {
	if p == nil || p.Fn == nil {
		return
	}
	switch p.Level {
	case ProgressMinimal:
		return
	case ProgressNormal:
		if p.total <= 0 {
			return
		}
		milestone := iter * 10 / p.total
		if milestone <= p.lastMilestone {
			return
		}
		p.lastMilestone = milestone
	}
	p.emit(IterationEvent{Iteration: iter, CurrentScore: current, BestScore: best, Extras: extras})
}

// Proposal reports a candidate before acceptance; debug rate only.
func (p *ProgressSink) Proposal(iter int, current, best float64, extras map[string]float64) {
	if p == nil || p.Fn == nil || p.Level < ProgressDebug {
		return
	}
	p.emit(IterationEvent{Iteration: iter, CurrentScore: current, BestScore: best, Extras: extras})
}

// End announces completion; fires at every level.
func (p *ProgressSink) End(iter int, current, best float64) {
	if p == nil {
		return
	}
	p.emit(IterationEvent{Iteration: iter, CurrentScore: current, BestScore: best})
}

// RunResult is the shared outcome contract of every algorithm.
type RunResult struct {
	Algorithm       string
	Seed            int64
	InitialScore    float64
	BestScore       float64
	Best            *School
	IterationsUsed  int
	EarlyStopped    bool
	Cancelled       bool
	TimedOut        bool
	Stuck           bool
	Elapsed         time.Duration
	ViolationsAtEnd []Violation
}

// Improvement is the score delta achieved by the run.
func (r *RunResult) Improvement() float64 {
	return r.BestScore - r.InitialScore
}

// Algorithm is the capability set the coordinator composes: a name and a run.
// Implementations never mutate the input snapshot, never score an invalid
// snapshot, and poll ctx at least once per iteration.
type Algorithm interface {
	Name() string
	Run(ctx context.Context, start *School, rng *rand.Rand, cfg *Config, sink *ProgressSink) (*RunResult, error)
}

// NewAlgorithm builds an optimizer by name.
func NewAlgorithm(name string) (Algorithm, error) {
	switch name {
	case AlgorithmRandomSwap:
		return &RandomSwap{}, nil
	case AlgorithmLocalSearch:
		return &LocalSearch{}, nil
	case AlgorithmAnnealing:
		return &Annealing{}, nil
	case AlgorithmEvolutionary:
		return &Evolutionary{}, nil
	}
	return nil, &ConfigError{Key: "algorithm", Reason: "unknown algorithm " + name}
}

// AlgorithmNames lists the available optimizers in their canonical order.
func AlgorithmNames() []string {
	return []string{AlgorithmRandomSwap, AlgorithmLocalSearch, AlgorithmAnnealing, AlgorithmEvolutionary}
}

// runState carries the bookkeeping shared by every optimizer loop.
type runState struct {
	started time.Time
	result  *RunResult
}

func newRunState(name string, start *School, cfg *Config) (*runState, float64) {
	initial := Score(start, cfg).Final
	return &runState{
		started: time.Now(),
		result: &RunResult{
			Algorithm:    name,
			InitialScore: initial,
			BestScore:    initial,
			Best:         start.Clone(),
		},
	}, initial
}

// halt absorbs a context signal into the result flags. Returns true when the
// loop must stop.
func (rs *runState) halt(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		rs.result.Cancelled = true
		if err == context.DeadlineExceeded {
			rs.result.TimedOut = true
		}
		return true
	}
	return false
}

// finish stamps elapsed time and the end-state constraint report.
func (rs *runState) finish(cfg *Config) *RunResult {
	rs.result.Elapsed = time.Since(rs.started)
	rs.result.ViolationsAtEnd = NewChecker(cfg).Validate(rs.result.Best)
	return rs.result
}

// pickUnlocked starts at a uniformly random position in one class's member
// list and returns the first swappable student index found from there,
// wrapping around, or -1 when the class holds none.
func pickUnlocked(s *School, cfg *Config, ci int, rng *rand.Rand) int {
	mem := s.members[ci]
	if len(mem) == 0 {
		return -1
	}
	respect := cfg.Constraints.RespectForceConstraints
	offset := rng.Intn(len(mem))
	for k := range mem {
		si := mem[(offset+k)%len(mem)]
		if !respect || !s.students[si].ForceLocked() {
			return si
		}
	}
	return -1
}
