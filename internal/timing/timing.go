// Package timing provides small timing helpers for per-stage pipeline
// instrumentation.
package timing

import (
	"fmt"
	"time"
)

// Timer measures one named duration.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer creates a started timer.
func NewTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop).
func (t *Timer) Duration() time.Duration { return t.duration }

// Name returns the timer name.
func (t *Timer) Name() string { return t.name }

func (t *Timer) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, t.duration)
	}
	return t.duration.String()
}

// Stages accumulates named stage durations across one pipeline run. Not
// safe for concurrent use; each run owns its own instance.
type Stages struct {
	start  time.Time
	stages []*Timer
}

// NewStages starts a run-level clock.
func NewStages() *Stages {
	return &Stages{start: time.Now()}
}

// Time runs fn under a named timer and records it.
func (s *Stages) Time(name string, fn func()) {
	t := NewTimer(name)
	fn()
	t.Stop()
	s.stages = append(s.stages, t)
}

// Milliseconds returns the recorded stage durations in order, rounded to
// whole milliseconds.
func (s *Stages) Milliseconds() map[string]int64 {
	if len(s.stages) == 0 {
		return nil
	}
	out := make(map[string]int64, len(s.stages))
	for _, t := range s.stages {
		out[t.Name()] = t.Duration().Milliseconds()
	}
	return out
}

// TotalMilliseconds returns elapsed wall time since the run started.
func (s *Stages) TotalMilliseconds() int64 {
	return time.Since(s.start).Milliseconds()
}
