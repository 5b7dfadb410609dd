// Package report builds the status-report wire text (spec §6) sent to the
// Pane Collection's active pane after a cycle's Clear phase, and decides
// when a report is worth sending at all. Pane-id list wrapping is
// rune-width safe, grounded on the teacher's internal/ui/shared/formmodal
// use of muesli/reflow for wrapping, extended here with mattn/go-runewidth
// for measuring the (possibly multi-width) label glyphs.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tettuan/tmux-monitor/internal/classify"
	"github.com/tettuan/tmux-monitor/internal/paneid"
)

// wrapWidth bounds each pane-id line in the rendered report, matching the
// teacher's form modal's field width convention.
const wrapWidth = 72

// displayLocation is the fixed display timezone spec §6 specifies for
// report timestamps; it never affects scheduling arithmetic.
var displayLocation = mustLoadLocation("Asia/Tokyo")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SkipReason explains why no report was sent for a cycle.
type SkipReason string

// ActivePaneRequired is returned when the collection has no active pane.
const ActivePaneRequired SkipReason = "ActivePaneRequired"

// Counts summarizes one cycle's outcome for the report builder.
type Counts struct {
	ClearedCount       int
	StatusChangedCount int
	Total              int
	Working            []paneid.ID
	Idle               []paneid.ID
	Done               []paneid.ID
	AvailableForTasks  int
}

// ShouldSend implements spec §4.8 step 8's decide-to-send rule: a report
// is built only when at least one clear ran, or at least one pane's
// status kind changed this cycle.
func ShouldSend(c Counts) bool {
	return c.ClearedCount > 0 || c.StatusChangedCount > 0
}

// Build renders the exact wire format spec §6 specifies, at the given
// instant (converted to Asia/Tokyo for display only).
func Build(at time.Time, c Counts) string {
	var b strings.Builder

	ts := at.In(displayLocation).Format("15:04:05")
	fmt.Fprintf(&b, "\U0001F4CA [%s] tmux-monitor Status Report\n", ts)

	if c.ClearedCount > 0 {
		fmt.Fprintf(&b, "\U0001F9F9 Cleared %d IDLE panes\n", c.ClearedCount)
	}
	if c.StatusChangedCount > 0 {
		fmt.Fprintf(&b, "\U0001F4C8 %d pane status changes detected\n", c.StatusChangedCount)
	}

	b.WriteString("\n\U0001F4CB Current Status:\n")
	fmt.Fprintf(&b, "  Total: %d panes\n", c.Total)

	writeIDLine(&b, "⚡ Working (W)", c.Working)
	writeIDLine(&b, "\U0001F4A4 Idle (I)", c.Idle)
	writeIDLine(&b, "✅ Done (D)", c.Done)

	fmt.Fprintf(&b, "  \U0001F3AF Available for tasks: %d\n", c.AvailableForTasks)

	return b.String()
}

func writeIDLine(b *strings.Builder, label string, ids []paneid.ID) {
	if len(ids) == 0 {
		return
	}
	joined := joinIDs(ids)
	wrapped := wordwrap.String(joined, wrapWidth-runewidth.StringWidth(label)-4)
	fmt.Fprintf(b, "  %s: %s\n", label, wrapped)
}

func joinIDs(ids []paneid.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

// PaneSnapshot is one pane's id, status kind and availability, as input
// to CountsFromStatuses.
type PaneSnapshot struct {
	ID     paneid.ID
	Status classify.WorkerStatusKind
	CanRun bool
}

// CountsFromStatuses derives Counts.Working/Idle/Done/Total/Available from
// a sorted pane-status snapshot, leaving ClearedCount/StatusChangedCount
// for the caller (the engine, which knows what changed this cycle) to set.
func CountsFromStatuses(snapshots []PaneSnapshot) Counts {
	c := Counts{Total: len(snapshots)}
	for _, s := range snapshots {
		switch s.Status {
		case classify.WorkerWorking:
			c.Working = append(c.Working, s.ID)
		case classify.WorkerIdle:
			c.Idle = append(c.Idle, s.ID)
		case classify.WorkerDone:
			c.Done = append(c.Done, s.ID)
		}
		if s.CanRun {
			c.AvailableForTasks++
		}
	}
	return c
}
