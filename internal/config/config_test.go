package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_MatchSpecValues(t *testing.T) {
	d := Defaults()
	assert.True(t, d.Continuous)
	assert.Equal(t, 30_000, d.CycleIntervalMs)
	assert.Equal(t, 14_400_000, d.MaxRuntimeMs)
	assert.Equal(t, 2, d.MaxCaptureRetries)
	assert.Equal(t, 3, d.MaxClearRetries)
}

func TestIsOneShot_TrueWhenAnyAdministrativeFlagSet(t *testing.T) {
	base := Defaults()

	clear := base
	clear.ClearPanes = true
	assert.True(t, clear.IsOneShot())

	clearAll := base
	clearAll.ClearAllPanes = true
	assert.True(t, clearAll.IsOneShot())

	killAll := base
	killAll.KillAllPanes = true
	assert.True(t, killAll.IsOneShot())

	notContinuous := base
	notContinuous.Continuous = false
	assert.True(t, notContinuous.IsOneShot())
}

func TestIsOneShot_FalseByDefault(t *testing.T) {
	assert.False(t, Defaults().IsOneShot())
}

func TestParseScheduledStart_Empty(t *testing.T) {
	o := Defaults()
	result, err := o.ParseScheduledStart(time.Now())
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestParseScheduledStart_ValidTime(t *testing.T) {
	o := Defaults()
	o.ScheduledStart = "09:30"
	now := time.Date(2026, 7, 29, 8, 0, 0, 0, time.UTC)
	result, err := o.ParseScheduledStart(now)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 9, result.Hour())
	assert.Equal(t, 30, result.Minute())
}

func TestParseScheduledStart_InvalidFormat(t *testing.T) {
	o := Defaults()
	o.ScheduledStart = "not-a-time"
	_, err := o.ParseScheduledStart(time.Now())
	assert.Error(t, err)
}
