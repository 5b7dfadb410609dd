package clearproto

import (
	"regexp"
	"strings"
)

// VerificationOutcome is a verify() tag, carried on the final result for
// diagnostics rather than as a separate type union.
type VerificationOutcome string

const (
	Cleared            VerificationOutcome = "cleared"
	NotClearedMultiple VerificationOutcome = "multiple_clear_accumulated"
	NotClearedAbsent   VerificationOutcome = "pattern_absent"
)

// Reason renders the exact NotCleared reason text spec §4.7 specifies.
func (v VerificationOutcome) Reason() string {
	switch v {
	case NotClearedMultiple:
		return "multiple /clear accumulated"
	case NotClearedAbsent:
		return "pattern absent"
	default:
		return ""
	}
}

var (
	trailingPromptPattern = regexp.MustCompile(`>\s*$`)
	cursorOnlyPattern     = regexp.MustCompile(`⎿\s*$`)
	claudeBannerPattern   = regexp.MustCompile(`(?i)claude`)
)

// verify implements spec §4.7's verify(pane): capture the last 10 lines
// (callers pass that slice already joined) and classify the clear outcome.
func verify(content string) VerificationOutcome {
	trimmed := strings.TrimSpace(content)

	if strings.Count(content, "/clear") > 1 {
		return NotClearedMultiple
	}

	if trimmed == "" {
		return Cleared
	}
	if trailingPromptPattern.MatchString(trimmed) {
		return Cleared
	}
	if cursorOnlyPattern.MatchString(trimmed) {
		return Cleared
	}
	if claudeBannerPattern.MatchString(trimmed) && strings.Count(content, "/clear") <= 1 {
		return Cleared
	}

	return NotClearedAbsent
}

// lastLines returns at most n trailing lines of content.
func lastLines(content string, n int) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= n {
		return content
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
