package classify

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Normalize puts capture content into the canonical form used for
// comparison and pattern matching: ANSI escape sequences stripped, CRLF
// collapsed to LF, trailing per-line whitespace stripped, and the overall
// result trimmed. Stripping ANSI first keeps color codes wrapped around a
// prompt box from defeating the box-marker regex in DeriveInputField.
func Normalize(content string) string {
	stripped := ansi.Strip(content)
	stripped = strings.ReplaceAll(stripped, "\r\n", "\n")
	lines := strings.Split(stripped, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Changed reports whether two normalized captures differ. It uses a
// character-level diff rather than a raw string comparison: tmux panes
// frequently reflow cursor-only escape sequences that Normalize already
// strips, but a real terminal can also rewrap identical text across a
// differing number of blank lines, which this diff treats as equal when
// every inserted or deleted hunk is whitespace only.
func Changed(prevNormalized, currNormalized string) bool {
	if prevNormalized == currNormalized {
		return false
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(prevNormalized, currNormalized, false)
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual && strings.TrimSpace(d.Text) != "" {
			return true
		}
	}
	return false
}

// DeriveActivity implements spec §4.3's ActivityStatus rule: NotEvaluated
// when there is no previous sample, Working when the normalized content
// changed, Idle otherwise.
func DeriveActivity(prev *string, curr string) ActivityStatus {
	if prev == nil {
		return NotEvaluated
	}
	if Changed(Normalize(*prev), Normalize(curr)) {
		return Working
	}
	return Idle
}

// promptBoxPattern matches a box-drawn prompt row such as "│ > │" or
// "│ > hello │", capturing whatever sits between the ">" marker and the
// right border.
var promptBoxPattern = regexp.MustCompile(`│\s*>\s*([^│]*)│`)

// DeriveInputField implements spec §4.3's InputFieldStatus rule. It
// examines the last three lines of curr for a box-drawn prompt row.
// Returns ErrInvalidInput if curr has fewer than 3 lines.
func DeriveInputField(curr string) (InputFieldStatus, error) {
	normalized := Normalize(curr)
	lines := strings.Split(normalized, "\n")
	if len(lines) < 3 {
		return NoInputField, ErrInvalidInput
	}
	tail := strings.Join(lines[len(lines)-3:], "\n")

	m := promptBoxPattern.FindStringSubmatch(tail)
	if m == nil {
		return NoInputField, nil
	}
	if strings.TrimSpace(m[1]) == "" {
		return Empty, nil
	}
	return HasInput, nil
}

// completionMarkers and waitingMarkers are the content-pattern lists spec
// §9/+E fixes for Done and Blocked derivation. Matching is case-insensitive
// substring containment.
var (
	completionMarkers = []string{"completed", "✓ done", "task complete"}
	waitingMarkers    = []string{"waiting for", "paused", "press any key"}
	goneMarkers       = []string{"no pane", "pane gone", "can't find pane"}
)

func containsAny(haystack string, needles []string) bool {
	lower := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// DeriveWorkerStatus implements spec §4.3's WorkerStatus derivation table,
// evaluated in the documented order: pane-gone signals win regardless of
// activity, then NotEvaluated, then the Idle/Working branches.
func DeriveWorkerStatus(activity ActivityStatus, content string) WorkerStatus {
	if containsAny(content, goneMarkers) {
		return WorkerStatus{Kind: WorkerTerminated, Reason: "gone"}
	}

	switch activity {
	case NotEvaluated:
		return WorkerStatus{Kind: WorkerUnknown}
	case Idle:
		if containsAny(content, completionMarkers) {
			return WorkerStatus{Kind: WorkerDone, Result: "completed"}
		}
		return WorkerStatus{Kind: WorkerIdle}
	case Working:
		if containsAny(content, waitingMarkers) {
			return WorkerStatus{Kind: WorkerBlocked, Reason: "waiting"}
		}
		return WorkerStatus{Kind: WorkerWorking}
	default:
		return WorkerStatus{Kind: WorkerUnknown}
	}
}
