// Package config holds the tmux-monitor configuration type and its
// viper-backed defaults, adapted from the teacher's internal/config
// (beads/theme/views/orchestration-client concerns dropped;
// MonitoringOptions substituted for the teacher's Config, following the
// same mapstructure-tagged-struct-plus-Defaults()-function shape).
package config

import (
	"fmt"
	"time"
)

// MonitoringOptions is the fully-resolved configuration for one Engine
// run, assembled from CLI flags via viper (cmd/tmuxmon).
type MonitoringOptions struct {
	SessionName       string `mapstructure:"session_name"`
	Continuous        bool   `mapstructure:"continuous"`
	ScheduledStart    string `mapstructure:"time"` // HH:MM, empty if unset
	InstructionFile   string `mapstructure:"instruction"`
	KillAllPanes      bool   `mapstructure:"kill_all_panes"`
	ClearPanes        bool   `mapstructure:"clear"`
	ClearAllPanes     bool   `mapstructure:"clear_all"`
	StartInteractive  bool   `mapstructure:"start_claude"`
	CycleIntervalMs   int    `mapstructure:"cycle_interval_ms"`
	MaxRuntimeMs      int    `mapstructure:"max_runtime_ms"`
	MaxCaptureRetries int    `mapstructure:"max_capture_retries"`
	MaxClearRetries   int    `mapstructure:"max_clear_retries"`
}

// Defaults returns spec §9's defaults, the values viper.SetDefault seeds
// before flags and any config file layer are applied.
func Defaults() MonitoringOptions {
	return MonitoringOptions{
		Continuous:        true,
		CycleIntervalMs:   30_000,
		MaxRuntimeMs:      14_400_000,
		MaxCaptureRetries: 2,
		MaxClearRetries:   3,
	}
}

// CycleInterval returns CycleIntervalMs as a time.Duration.
func (o MonitoringOptions) CycleInterval() time.Duration {
	return time.Duration(o.CycleIntervalMs) * time.Millisecond
}

// MaxRuntime returns MaxRuntimeMs as a time.Duration.
func (o MonitoringOptions) MaxRuntime() time.Duration {
	return time.Duration(o.MaxRuntimeMs) * time.Millisecond
}

// IsOneShot implements spec §6: flags that imply administrative one-shot
// behavior (--clear, --clear-all, --kill-all-panes, --start-claude, and
// --onetime) force one-time mode; absence of any one-time flag implies
// continuous mode. The CLI layer folds --onetime into Continuous=false
// before this is evaluated.
func (o MonitoringOptions) IsOneShot() bool {
	return !o.Continuous || o.ClearPanes || o.ClearAllPanes || o.KillAllPanes || o.StartInteractive
}

// ParseScheduledStart parses the "HH:MM" flag value into today's wall-clock
// instant with that time of day, per spec §6's --time flag. A result in
// the past is valid and, per spec §4.8 step 1, is treated by the engine
// as "start immediately" rather than rolled to the next day. Returns
// nil, nil when ScheduledStart is unset.
func (o MonitoringOptions) ParseScheduledStart(now time.Time) (*time.Time, error) {
	if o.ScheduledStart == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("15:04", o.ScheduledStart, now.Location())
	if err != nil {
		return nil, fmt.Errorf("invalid --time value %q: %w", o.ScheduledStart, err)
	}
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	return &scheduled, nil
}
