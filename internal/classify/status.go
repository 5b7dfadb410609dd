// Package classify derives per-pane activity and worker state from
// successive capture samples using a two-sample comparison and
// content-pattern rules (spec component C3).
package classify

import "fmt"

// ActivityStatus is the tri-state result of comparing two successive
// capture samples.
type ActivityStatus int

const (
	// NotEvaluated is the mandatory initial state before two samples exist.
	NotEvaluated ActivityStatus = iota
	// Working indicates the normalized content changed between samples.
	Working
	// Idle indicates the normalized content is unchanged.
	Idle
)

// String implements fmt.Stringer.
func (a ActivityStatus) String() string {
	switch a {
	case NotEvaluated:
		return "not_evaluated"
	case Working:
		return "working"
	case Idle:
		return "idle"
	default:
		return "unknown"
	}
}

// InputFieldStatus describes the state of a box-drawn prompt row detected
// in the last three lines of a capture.
type InputFieldStatus int

const (
	// NoInputField means no prompt-box marker was found.
	NoInputField InputFieldStatus = iota
	// Empty means the prompt-box marker was found with only whitespace
	// (or nothing) between it and the right border.
	Empty
	// HasInput means the prompt-box marker was found with non-whitespace
	// content between it and the right border.
	HasInput
)

// String implements fmt.Stringer.
func (i InputFieldStatus) String() string {
	switch i {
	case NoInputField:
		return "no_input_field"
	case Empty:
		return "empty"
	case HasInput:
		return "has_input"
	default:
		return "unknown"
	}
}

// ErrInvalidInput is returned when a capture has fewer than 3 lines, which
// is required to examine the last three lines for a prompt box.
var ErrInvalidInput = fmt.Errorf("capture has fewer than 3 lines")

// WorkerStatusKind tags the WorkerStatus union.
type WorkerStatusKind string

const (
	WorkerIdle       WorkerStatusKind = "idle"
	WorkerWorking    WorkerStatusKind = "working"
	WorkerBlocked    WorkerStatusKind = "blocked"
	WorkerDone       WorkerStatusKind = "done"
	WorkerTerminated WorkerStatusKind = "terminated"
	WorkerUnknown    WorkerStatusKind = "unknown"
)

// WorkerStatus is the derived worker-level status for a pane, a tagged
// union over WorkerStatusKind with kind-specific optional payload fields.
type WorkerStatus struct {
	Kind      WorkerStatusKind
	Details   string // Working{details}
	Reason    string // Blocked{reason}, Terminated{reason}
	Result    string // Done{result}
	LastKnown string // Unknown{lastKnown}
}

// String implements fmt.Stringer.
func (w WorkerStatus) String() string {
	return string(w.Kind)
}
