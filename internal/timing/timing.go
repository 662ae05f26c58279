package timing

import (
	"sync"
	"time"
)

// Stages measures named pipeline phases. Durations accumulate, so a
// stage observed twice reports the sum.
type Stages struct {
	mu        sync.Mutex
	order     []string
	durations map[string]time.Duration
}

// NewStages creates an empty stage timer.
func NewStages() *Stages {
	return &Stages{durations: make(map[string]time.Duration)}
}

// Observe records one timed run of a stage, starting now. The returned
// function stops the measurement.
func (s *Stages) Observe(stage string) func() {
	start := time.Now()
	return func() {
		s.add(stage, time.Since(start))
	}
}

func (s *Stages) add(stage string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.durations[stage]; !seen {
		s.order = append(s.order, stage)
	}
	s.durations[stage] += d
}

// Durations returns the accumulated duration per stage in
// first-observation order.
func (s *Stages) Durations() map[string]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Duration, len(s.durations))
	for stage, d := range s.durations {
		out[stage] = d
	}
	return out
}

// Keyvals renders the stage durations as alternating key/value pairs
// for structured logging, in first-observation order.
func (s *Stages) Keyvals() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]any, 0, len(s.order)*2)
	for _, stage := range s.order {
		out = append(out, stage, s.durations[stage].Round(time.Millisecond))
	}
	return out
}
