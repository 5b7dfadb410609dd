// Package runtimectl implements the Runtime Tracker & Scheduler (spec
// component C9): wall-clock deadline tracking and preemptible cycle
// scheduling, delegating all actual waiting to the cancellation token so
// that every suspension point in the engine observes cancellation.
package runtimectl

import "time"

// DefaultMaxRuntime is the engine's default wall-clock budget (spec §4.9,
// 4 hours).
const DefaultMaxRuntime = 4 * time.Hour

// sleeper is the subset of canceltoken.Token the Tracker needs; defined
// here rather than importing canceltoken directly so tests can fake it.
type sleeper interface {
	Sleep(d time.Duration) bool
}

// Tracker tracks elapsed runtime against a configured limit and computes
// the next cycle deadline.
type Tracker struct {
	startedAt      time.Time
	maxRuntime     time.Duration
	scheduledStart *time.Time
	token          sleeper
}

// New builds a Tracker. scheduledStart may be nil when no scheduled start
// was configured, in which case startedAt anchors the deadline per spec
// §+E (runtime-cap anchor decision).
func New(startedAt time.Time, maxRuntime time.Duration, scheduledStart *time.Time, token sleeper) *Tracker {
	if maxRuntime <= 0 {
		maxRuntime = DefaultMaxRuntime
	}
	return &Tracker{
		startedAt:      startedAt,
		maxRuntime:     maxRuntime,
		scheduledStart: scheduledStart,
		token:          token,
	}
}

// anchor returns scheduledStart when present, else startedAt, per spec
// §4.9's hasExceededLimit definition.
func (t *Tracker) anchor() time.Time {
	if t.scheduledStart != nil {
		return *t.scheduledStart
	}
	return t.startedAt
}

// HasExceededLimit reports whether now - anchor >= maxRuntime.
func (t *Tracker) HasExceededLimit(now time.Time) bool {
	return now.Sub(t.anchor()) >= t.maxRuntime
}

// NextCycleDeadline returns the next absolute instant a cycle should fire,
// lastTick + intervalMs.
func (t *Tracker) NextCycleDeadline(lastTick time.Time, interval time.Duration) time.Time {
	return lastTick.Add(interval)
}

// SleepUntil preemptibly waits until instant, or returns true immediately
// if cancellation is observed first. Past instants return immediately.
func (t *Tracker) SleepUntil(now time.Time, instant time.Time) (interrupted bool) {
	d := instant.Sub(now)
	if d <= 0 {
		return false
	}
	return t.token.Sleep(d)
}
