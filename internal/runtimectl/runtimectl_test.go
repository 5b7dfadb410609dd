package runtimectl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSleeper struct{ called time.Duration }

func (f *fakeSleeper) Sleep(d time.Duration) bool {
	f.called = d
	return false
}

func TestHasExceededLimit_UsesStartedAtWhenNoSchedule(t *testing.T) {
	start := time.Now().Add(-5 * time.Hour)
	tr := New(start, time.Hour, nil, &fakeSleeper{})
	assert.True(t, tr.HasExceededLimit(time.Now()))
}

func TestHasExceededLimit_UsesScheduledStartAsAnchor(t *testing.T) {
	start := time.Now().Add(-10 * time.Minute)
	scheduled := time.Now().Add(-5 * time.Hour)
	tr := New(start, time.Hour, &scheduled, &fakeSleeper{})
	assert.True(t, tr.HasExceededLimit(time.Now()))
}

func TestHasExceededLimit_FalseWithinBudget(t *testing.T) {
	start := time.Now()
	tr := New(start, time.Hour, nil, &fakeSleeper{})
	assert.False(t, tr.HasExceededLimit(time.Now()))
}

func TestNextCycleDeadline(t *testing.T) {
	last := time.Now()
	tr := New(time.Now(), time.Hour, nil, &fakeSleeper{})
	deadline := tr.NextCycleDeadline(last, 30*time.Second)
	assert.Equal(t, last.Add(30*time.Second), deadline)
}

func TestSleepUntil_PastInstantReturnsImmediately(t *testing.T) {
	sleeper := &fakeSleeper{}
	tr := New(time.Now(), time.Hour, nil, sleeper)
	interrupted := tr.SleepUntil(time.Now(), time.Now().Add(-time.Second))
	assert.False(t, interrupted)
	assert.Zero(t, sleeper.called)
}

func TestSleepUntil_DelegatesToToken(t *testing.T) {
	sleeper := &fakeSleeper{}
	tr := New(time.Now(), time.Hour, nil, sleeper)
	now := time.Now()
	tr.SleepUntil(now, now.Add(5*time.Second))
	assert.Equal(t, 5*time.Second, sleeper.called)
}
