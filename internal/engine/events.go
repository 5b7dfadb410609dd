package engine

import (
	"time"

	"github.com/tettuan/tmux-monitor/internal/clearproto"
	"github.com/tettuan/tmux-monitor/internal/paneid"
	"github.com/tettuan/tmux-monitor/internal/pubsub"
)

// Event types published on the engine's broker, consumed by the journal
// and the optional TUI — mirrors the teacher's CoordinatorEvent
// fan-out shape.
const (
	EventStateChanged  pubsub.EventType = "state_changed"
	EventCycleStarted  pubsub.EventType = "cycle_started"
	EventCycleFinished pubsub.EventType = "cycle_finished"
	EventPaneObserved  pubsub.EventType = "pane_observed"
	EventPaneCleared   pubsub.EventType = "pane_cleared"
	EventReportSent    pubsub.EventType = "report_sent"
	EventReportSkipped pubsub.EventType = "report_skipped"
	EventFatal         pubsub.EventType = "fatal"
)

// Payload is the single event payload shape published through Broker;
// only the fields relevant to EventType are populated.
type Payload struct {
	CycleID       string
	State         State
	Reason        string
	ClearOutcome  clearproto.Outcome
	ReportText    string
	ChangedPanes  []paneid.ID
	PaneID        paneid.ID
	Role          string
	Status        string
	ClearAttempts int
	At            time.Time
}

// Broker is the engine's event broker type alias for callers that need to
// subscribe without importing pubsub directly.
type Broker = pubsub.Broker[Payload]

// NewBroker constructs a fresh engine event broker.
func NewBroker() *Broker {
	return pubsub.NewBroker[Payload]()
}
