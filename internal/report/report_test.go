package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tettuan/tmux-monitor/internal/classify"
	"github.com/tettuan/tmux-monitor/internal/paneid"
)

func TestShouldSend_TrueWhenClearsOccurred(t *testing.T) {
	assert.True(t, ShouldSend(Counts{ClearedCount: 1}))
}

func TestShouldSend_TrueWhenStatusChanged(t *testing.T) {
	assert.True(t, ShouldSend(Counts{StatusChangedCount: 2}))
}

func TestShouldSend_FalseWhenNothingHappened(t *testing.T) {
	assert.False(t, ShouldSend(Counts{}))
}

func TestBuild_IncludesOptionalLinesOnlyWhenPositive(t *testing.T) {
	at := time.Date(2026, 7, 29, 9, 30, 0, 0, time.UTC)
	text := Build(at, Counts{ClearedCount: 0, StatusChangedCount: 0, Total: 3})
	assert.NotContains(t, text, "Cleared")
	assert.NotContains(t, text, "status changes")

	text = Build(at, Counts{ClearedCount: 2, StatusChangedCount: 1, Total: 3})
	assert.Contains(t, text, "Cleared 2 IDLE panes")
	assert.Contains(t, text, "1 pane status changes detected")
}

func TestBuild_FormatsTimestampInTokyo(t *testing.T) {
	at := time.Date(2026, 7, 29, 0, 30, 0, 0, time.UTC) // 09:30 JST
	text := Build(at, Counts{})
	assert.True(t, strings.Contains(text, "[09:30:00]"))
}

func TestCountsFromStatuses_Buckets(t *testing.T) {
	snapshots := []PaneSnapshot{
		{ID: paneid.MustParse("%1"), Status: classify.WorkerWorking},
		{ID: paneid.MustParse("%2"), Status: classify.WorkerIdle, CanRun: true},
		{ID: paneid.MustParse("%3"), Status: classify.WorkerDone, CanRun: true},
	}
	c := CountsFromStatuses(snapshots)
	assert.Equal(t, 3, c.Total)
	assert.Len(t, c.Working, 1)
	assert.Len(t, c.Idle, 1)
	assert.Len(t, c.Done, 1)
	assert.Equal(t, 2, c.AvailableForTasks)
}
