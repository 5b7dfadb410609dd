package pane

import (
	"fmt"

	"github.com/tettuan/tmux-monitor/internal/classify"
	"github.com/tettuan/tmux-monitor/internal/errkind"
	"github.com/tettuan/tmux-monitor/internal/paneid"
	"github.com/tettuan/tmux-monitor/internal/tmux"
)

// Pane is one tmux pane's full observed state. All fields are unexported;
// use the constructor and the methods below to read and mutate it. A Pane
// is owned exclusively by the collection that holds it (spec §3/§9
// Ownership) — callers outside the collection only ever see snapshots.
type Pane struct {
	id             paneid.ID
	role           *paneid.Role // nil until AssignRole succeeds
	isActive       bool
	currentCommand string
	title          string

	prev *CaptureSample
	curr *CaptureSample

	activity classify.ActivityStatus
	input    classify.InputFieldStatus
	status   classify.WorkerStatus

	clearRetries    int
	lastClearReason string
}

// FromDiscovery builds a Pane from a raw discovery record. isActive is
// derived from the "1" string. Fails with InvalidFormat if the pane id is
// malformed.
func FromDiscovery(raw tmux.RawPane) (*Pane, error) {
	id, err := paneid.Parse(raw.PaneID)
	if err != nil {
		return nil, errkind.Wrap(errkind.InvalidFormat, "building pane from discovery", err)
	}
	return &Pane{
		id:             id,
		isActive:       raw.Active == "1",
		currentCommand: raw.CurrentCommand,
		title:          raw.Title,
		activity:       classify.NotEvaluated,
		input:          classify.NoInputField,
		status:         classify.WorkerStatus{Kind: classify.WorkerUnknown},
	}, nil
}

// ID returns the pane's identity.
func (p *Pane) ID() paneid.ID { return p.id }

// Role returns the assigned role, or nil if AssignRole has not yet
// succeeded for this pane.
func (p *Pane) Role() *paneid.Role { return p.role }

// IsActive reports whether this is the tmux-reported focused pane.
func (p *Pane) IsActive() bool { return p.isActive }

// CurrentCommand returns the pane's current foreground command.
func (p *Pane) CurrentCommand() string { return p.currentCommand }

// Title returns the pane's title.
func (p *Pane) Title() string { return p.title }

// Activity returns the last derived ActivityStatus.
func (p *Pane) Activity() classify.ActivityStatus { return p.activity }

// Input returns the last derived InputFieldStatus.
func (p *Pane) Input() classify.InputFieldStatus { return p.input }

// Status returns the last derived WorkerStatus.
func (p *Pane) Status() classify.WorkerStatus { return p.status }

// ClearRetries returns how many clear attempts have been made since the
// last successful clear.
func (p *Pane) ClearRetries() int { return p.clearRetries }

// AssignRole assigns role to this pane. Idempotent: a second call with
// the same role name succeeds silently; a second call with a different
// role name fails with IllegalState (spec invariant / round-trip property).
func (p *Pane) AssignRole(role paneid.Role) error {
	if p.role == nil {
		p.role = &role
		return nil
	}
	if p.role.Name() == role.Name() {
		return nil
	}
	return errkind.New(errkind.IllegalState,
		fmt.Sprintf("pane %s already has role %q, cannot reassign to %q", p.id, p.role.Name(), role.Name()))
}

// ApplyCapture rolls prev<-curr<-sample and re-derives activity/input/status.
// Fails with
// ValidationFailed (wrapping classify.ErrInvalidInput) only if sample has
// fewer than 3 lines.
func (p *Pane) ApplyCapture(sample CaptureSample) error {
	var prevContent *string
	if p.curr != nil {
		c := p.curr.Content
		prevContent = &c
	}

	input, err := classify.DeriveInputField(sample.Content)
	if err != nil {
		return errkind.Wrap(errkind.ValidationFailed, "applying capture to pane "+p.id.String(), err)
	}

	activity := classify.DeriveActivity(prevContent, sample.Content)
	status := classify.DeriveWorkerStatus(activity, sample.Content)

	p.prev = p.curr
	s := sample
	p.curr = &s
	p.activity = activity
	p.input = input
	p.status = status
	return nil
}

// MarkCleared resets clear bookkeeping after a successful clear.
func (p *Pane) MarkCleared() {
	p.clearRetries = 0
	p.lastClearReason = ""
}

// MarkClearFailed records the most recent clear failure reason.
func (p *Pane) MarkClearFailed(reason string) {
	p.lastClearReason = reason
}

// IncrementClearRetries bumps the retry counter by one.
func (p *Pane) IncrementClearRetries() {
	p.clearRetries++
}

// IsWorking reports whether the pane's WorkerStatus is Working.
func (p *Pane) IsWorking() bool { return p.status.Kind == classify.WorkerWorking }

// IsIdle reports whether the pane's WorkerStatus is Idle.
func (p *Pane) IsIdle() bool { return p.status.Kind == classify.WorkerIdle }

// IsDone reports whether the pane's WorkerStatus is Done.
func (p *Pane) IsDone() bool { return p.status.Kind == classify.WorkerDone }

// IsTerminated reports whether the pane's WorkerStatus is Terminated.
func (p *Pane) IsTerminated() bool { return p.status.Kind == classify.WorkerTerminated }

// CanAssignTask implements invariant 4: Done/Idle/Terminated panes are
// task-assignable only once evaluated and with an empty input field.
func (p *Pane) CanAssignTask() bool {
	switch p.status.Kind {
	case classify.WorkerDone, classify.WorkerIdle, classify.WorkerTerminated:
		return p.input == classify.Empty && p.activity != classify.NotEvaluated
	default:
		return false
	}
}

// ShouldBeCleared implements spec §4.3: true iff the role is worker-like,
// status is Idle or Done, and the input field is Empty. Manager-like
// panes never qualify (invariant 2), regardless of status.
func (p *Pane) ShouldBeCleared() bool {
	if p.role == nil || !p.role.IsWorkerLike() {
		return false
	}
	if p.status.Kind != classify.WorkerIdle && p.status.Kind != classify.WorkerDone {
		return false
	}
	return p.input == classify.Empty
}
