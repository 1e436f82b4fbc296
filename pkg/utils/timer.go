package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed step of a run, such as load, build or write.
type Phase struct {
	Name     string
	Duration time.Duration
}

// Timer records the duration of the sequential phases of a named run.
type Timer struct {
	mu     sync.Mutex
	name   string
	clock  Clock
	start  time.Time
	phases []Phase
}

// TimerOption configures a Timer instance.
type TimerOption func(*Timer)

// WithClock sets a custom clock.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) {
		t.clock = clock
	}
}

// NewTimer creates a Timer whose total runs from now.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{name: name, clock: NewRealClock()}
	for _, opt := range opts {
		opt(t)
	}
	t.start = t.clock.Now()
	return t
}

// TimeFuncWithError times fn as the phase phaseName and returns its error.
// A failed phase is recorded too.
func (t *Timer) TimeFuncWithError(phaseName string, fn func() error) (time.Duration, error) {
	begin := t.clock.Now()
	err := fn()
	d := t.clock.Since(begin)

	t.mu.Lock()
	t.phases = append(t.phases, Phase{Name: phaseName, Duration: d})
	t.mu.Unlock()

	return d, err
}

// Phases returns the recorded phases in the order they ran.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Phase(nil), t.phases...)
}

// Durations returns the phase durations keyed by name. A repeated phase
// accumulates.
func (t *Timer) Durations() map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, p := range t.Phases() {
		out[p.Name] += p.Duration
	}
	return out
}

// TotalDuration returns the time since the timer was created.
func (t *Timer) TotalDuration() time.Duration {
	return t.clock.Since(t.start)
}

// Summary formats the phases on one line, e.g.
// "menus: load=20ms build=5ms total=26ms".
func (t *Timer) Summary() string {
	var sb strings.Builder
	sb.WriteString(t.name)
	sb.WriteString(":")
	for _, p := range t.Phases() {
		fmt.Fprintf(&sb, " %s=%v", p.Name, p.Duration)
	}
	fmt.Fprintf(&sb, " total=%v", t.TotalDuration())
	return sb.String()
}
