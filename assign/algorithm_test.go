package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProgressLevel(t *testing.T) {
	tests := []struct {
		name   string
		want   ProgressLevel
		wantOK bool
	}{
		{"minimal", ProgressMinimal, true},
		{"normal", ProgressNormal, true},
		{"detailed", ProgressDetailed, true},
		{"debug", ProgressDebug, true},
		{"verbose", ProgressNormal, false},
	}
	for _, tt := range tests {
		got, ok := ParseProgressLevel(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseProgressLevel(%q) = (%v, %v), want (%v, %v)", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestProgressSink_RateContract(t *testing.T) {
	count := func(level ProgressLevel) (starts, accepted, proposals int) {
		var events []IterationEvent
		sink := NewProgressSink(level, func(ev IterationEvent) { events = append(events, ev) })
		sink.Start(100, 50)
		starts = len(events)
		before := len(events)
		for i := 1; i <= 100; i++ {
			sink.Proposal(i, 50, 50, nil)
		}
		proposals = len(events) - before
		before = len(events)
		for i := 1; i <= 100; i++ {
			sink.Accepted(i, 50, 50, nil)
		}
		accepted = len(events) - before
		return
	}

	// Minimal: start and end only.
	starts, accepted, proposals := count(ProgressMinimal)
	assert.Equal(t, 1, starts)
	assert.Equal(t, 0, accepted)
	assert.Equal(t, 0, proposals)

	// Normal: one event per 10% milestone.
	_, accepted, proposals = count(ProgressNormal)
	assert.Equal(t, 10, accepted)
	assert.Equal(t, 0, proposals)

	// Detailed: every accepted iteration.
	_, accepted, proposals = count(ProgressDetailed)
	assert.Equal(t, 100, accepted)
	assert.Equal(t, 0, proposals)

	// Debug: every proposal too.
	_, accepted, proposals = count(ProgressDebug)
	assert.Equal(t, 100, accepted)
	assert.Equal(t, 100, proposals)
}

func TestProgressSink_NilSafe(t *testing.T) {
	var sink *ProgressSink
	sink.Start(10, 0)
	sink.Accepted(1, 0, 0, nil)
	sink.Proposal(1, 0, 0, nil)
	sink.End(1, 0, 0)

	withNilFn := NewProgressSink(ProgressDebug, nil)
	withNilFn.Start(10, 0)
	withNilFn.Accepted(1, 0, 0, nil)
}

func TestNewAlgorithm(t *testing.T) {
	for _, name := range AlgorithmNames() {
		algo, err := NewAlgorithm(name)
		if err != nil || algo.Name() != name {
			t.Errorf("NewAlgorithm(%q) = (%v, %v)", name, algo, err)
		}
	}
	if _, err := NewAlgorithm("tabu_search"); err == nil {
		t.Error("NewAlgorithm accepted an unknown name")
	}
}
