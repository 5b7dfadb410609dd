// Package canceltoken provides a process-wide cooperative cancellation
// signal shared by every suspension point in the monitoring engine.
package canceltoken

import (
	"sync"
	"time"
)

// pollInterval bounds how often Sleep checks for cancellation; spec §4.2
// requires polling at <=200ms granularity.
const pollInterval = 200 * time.Millisecond

// Token is a one-way cancellation flag: once cancelled it never resets
// outside of tests. Safe for concurrent use by many readers and one
// writer.
type Token struct {
	mu        sync.RWMutex
	cancelled bool
	reason    string
	at        time.Time
}

// New returns a fresh, uncancelled Token.
func New() *Token {
	return &Token{}
}

// Cancel marks the token cancelled with the given reason. Idempotent:
// only the first call's reason and timestamp are retained.
func (t *Token) Cancel(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return
	}
	t.cancelled = true
	t.reason = reason
	t.at = time.Now()
}

// IsCancelled reports whether Cancel has been called.
func (t *Token) IsCancelled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cancelled
}

// Reason returns the retained cancellation reason, or "" if not cancelled.
func (t *Token) Reason() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.reason
}

// Timestamp returns the instant Cancel first took effect, or the zero
// time if not cancelled.
func (t *Token) Timestamp() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.at
}

// Reset clears the cancellation state. Exposed for tests only: the core
// must never call this during normal operation.
func (t *Token) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = false
	t.reason = ""
	t.at = time.Time{}
}

// Sleep blocks for up to d, polling for cancellation at pollInterval
// granularity, and returns interrupted=true the moment cancellation is
// observed instead of waiting out the full duration.
func (t *Token) Sleep(d time.Duration) (interrupted bool) {
	if t.IsCancelled() {
		return true
	}
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		step := pollInterval
		if remaining < step {
			step = remaining
		}
		time.Sleep(step)
		if t.IsCancelled() {
			return true
		}
	}
}
