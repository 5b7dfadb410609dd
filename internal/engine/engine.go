package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/tettuan/tmux-monitor/internal/canceltoken"
	"github.com/tettuan/tmux-monitor/internal/capture"
	"github.com/tettuan/tmux-monitor/internal/classify"
	"github.com/tettuan/tmux-monitor/internal/clearproto"
	"github.com/tettuan/tmux-monitor/internal/errkind"
	"github.com/tettuan/tmux-monitor/internal/instructionfile"
	"github.com/tettuan/tmux-monitor/internal/log"
	"github.com/tettuan/tmux-monitor/internal/pane"
	"github.com/tettuan/tmux-monitor/internal/panes"
	"github.com/tettuan/tmux-monitor/internal/report"
	"github.com/tettuan/tmux-monitor/internal/runtimectl"
	"github.com/tettuan/tmux-monitor/internal/tmux"
)

// Options configures one Engine run, derived from config.MonitoringOptions
// at the CLI boundary.
type Options struct {
	SessionName       string
	OneShot           bool
	ScheduledStart    *time.Time
	ShouldStartClaude bool
	CycleInterval     time.Duration
	MaxRuntime        time.Duration
	MaxCaptureRetries int
	MaxClearRetries   int
	InstructionRules  *instructionfile.Rules
	Tracer            trace.Tracer
}

// DefaultCycleInterval is spec §4.8's default cycle period.
const DefaultCycleInterval = 30 * time.Second

// Engine drives the full monitoring state machine (spec §4.8) against one
// tmux session. One Engine corresponds to one `tmuxmon` run.
type Engine struct {
	mu    sync.Mutex
	state State

	opts  Options
	repo  tmux.Repository
	comm  tmux.Communicator
	token *canceltoken.Token

	collection *panes.Collection
	tracker    *runtimectl.Tracker
	captureOrc *capture.Orchestrator
	clearProto *clearproto.Protocol

	broker *Broker
}

// New builds an Engine wired against repo/comm, with its own cancellation
// token. Callers obtain the token via Token() to request shutdown.
func New(opts Options, repo tmux.Repository, comm tmux.Communicator) *Engine {
	if opts.CycleInterval <= 0 {
		opts.CycleInterval = DefaultCycleInterval
	}
	if opts.MaxCaptureRetries <= 0 {
		opts.MaxCaptureRetries = capture.DefaultMaxRetries
	}
	if opts.MaxClearRetries <= 0 {
		opts.MaxClearRetries = clearproto.DefaultMaxRetries
	}
	token := canceltoken.New()

	e := &Engine{
		state:      Created,
		opts:       opts,
		repo:       repo,
		comm:       comm,
		token:      token,
		collection: panes.New(),
		broker:     NewBroker(),
	}
	captureOpts := []capture.Option{capture.WithMaxRetries(opts.MaxCaptureRetries)}
	clearOpts := []clearproto.Option{clearproto.WithMaxRetries(opts.MaxClearRetries)}
	if opts.Tracer != nil {
		captureOpts = append(captureOpts, capture.WithTracer(opts.Tracer))
		clearOpts = append(clearOpts, clearproto.WithTracer(opts.Tracer))
	}
	e.captureOrc = capture.New(repo, token, captureOpts...)
	e.clearProto = clearproto.New(comm, repo, token, clearOpts...)
	return e
}

// Token returns the engine's cancellation token, so callers (e.g. a
// SIGINT handler) can request cooperative shutdown.
func (e *Engine) Token() *canceltoken.Token { return e.token }

// Broker returns the engine's event broker for subscribers (journal, TUI).
func (e *Engine) Broker() *Broker { return e.broker }

func (e *Engine) setState(s State, reason string) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	e.broker.Publish(EventStateChanged, Payload{State: s, Reason: reason, At: time.Now()})
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// PaneView is a read-only snapshot of one pane, exposed to callers (the
// optional TUI) that must not hold a *pane.Pane directly since the
// collection is exclusively owned by the Engine's own goroutine.
type PaneView struct {
	ID     string
	Role   string
	Status string
	Active bool
}

// Snapshot returns a point-in-time view of every known pane, sorted by
// numeric pane ID.
func (e *Engine) Snapshot() []PaneView {
	panes := e.collection.AllSortedByNumericID()
	out := make([]PaneView, 0, len(panes))
	for _, p := range panes {
		role := ""
		if r := p.Role(); r != nil {
			role = r.Name()
		}
		out = append(out, PaneView{
			ID:     p.ID().String(),
			Role:   role,
			Status: string(p.Status().Kind),
			Active: p.IsActive(),
		})
	}
	return out
}

// Run drives the engine to completion: WaitingForSchedule → Discovering →
// Naming → StartupActions? → the Cycling loop → Stopping → Terminated.
// Returns the termination reason.
func (e *Engine) Run(ctx context.Context) string {
	started := time.Now()
	e.tracker = runtimectl.New(started, e.opts.MaxRuntime, e.opts.ScheduledStart, e.token)

	if reason := e.waitForSchedule(); reason != "" {
		return e.terminate(reason)
	}

	if err := e.discover(ctx); err != nil {
		return e.terminate("discovery_failed: " + err.Error())
	}

	e.setState(Naming, "")
	e.collection.AssignRoles()

	if e.opts.ShouldStartClaude {
		e.runStartupActions(ctx)
	}

	reason := e.cycleLoop(ctx)
	return e.terminate(reason)
}

func (e *Engine) waitForSchedule() string {
	if e.opts.ScheduledStart == nil {
		return ""
	}
	e.setState(WaitingForSchedule, "")
	now := time.Now()
	if e.opts.ScheduledStart.After(now) {
		if e.token.Sleep(e.opts.ScheduledStart.Sub(now)) {
			return "cancelled"
		}
	}
	return ""
}

func (e *Engine) discover(ctx context.Context) error {
	e.setState(Discovering, "")
	raw, err := e.repo.DiscoverPanes(ctx, e.opts.SessionName)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return errkind.New(errkind.InvalidState, "no_panes")
	}

	built := make([]*pane.Pane, 0, len(raw))
	for _, r := range raw {
		p, err := pane.FromDiscovery(r)
		if err != nil {
			log.Warn(log.CatEngine, "skipping undiscoverable pane", "paneID", r.PaneID, "reason", err.Error())
			continue
		}
		built = append(built, p)
	}
	e.collection.ReplaceAll(built)
	return nil
}

func (e *Engine) runStartupActions(ctx context.Context) {
	e.setState(StartupActions, "")
	raw := make([]tmux.RawPane, 0, e.collection.Len())
	for _, p := range e.collection.AllSortedByNumericID() {
		entry := tmux.RawPane{PaneID: p.ID().String(), CurrentCommand: p.CurrentCommand()}
		if e.opts.InstructionRules != nil {
			if cmd, ok := e.opts.InstructionRules.CommandFor(p.CurrentCommand()); ok {
				entry.StartCommand = cmd
			}
		}
		raw = append(raw, entry)
	}
	if err := e.comm.StartInteractiveIfAbsent(ctx, raw); err != nil {
		log.Warn(log.CatEngine, "startup actions failed", "reason", err.Error())
	}
}

// cycleLoop runs spec §4.8 step 5: Capture → Clear → Report, then a
// preemptible wait, repeated until cancellation, deadline, or (in
// one-shot mode) a single pass.
func (e *Engine) cycleLoop(ctx context.Context) string {
	lastTick := time.Now()
	for {
		if e.token.IsCancelled() {
			return "cancelled"
		}
		if e.tracker.HasExceededLimit(time.Now()) {
			return "deadline_exceeded"
		}

		e.setState(Cycling, "")
		cycleID := uuid.NewString()
		e.broker.Publish(EventCycleStarted, Payload{CycleID: cycleID, At: time.Now()})

		e.runOneCycle(ctx, cycleID)

		e.broker.Publish(EventCycleFinished, Payload{CycleID: cycleID, At: time.Now()})

		if e.opts.OneShot {
			return "one_shot_complete"
		}

		e.setState(WaitForNextTick, "")
		lastTick = time.Now()
		deadline := e.tracker.NextCycleDeadline(lastTick, e.opts.CycleInterval)
		if e.tracker.SleepUntil(time.Now(), deadline) {
			return "cancelled"
		}
	}
}

// runOneCycle runs Capture, Clear, and Report for a single tick, returning
// the number of panes whose status kind changed.
func (e *Engine) runOneCycle(ctx context.Context, cycleID string) int {
	e.setState(Capturing, "")
	before := e.statusSnapshot()
	if _, err := e.captureOrc.CaptureAll(ctx, e.collection.All()); err != nil {
		log.Warn(log.CatEngine, "capture pass aborted", "cycleID", cycleID, "reason", err.Error())
	}
	after := e.statusSnapshot()
	changedCount := countStatusChanges(before, after)
	e.publishObservations(cycleID)

	e.setState(Clearing, "")
	clearedCount := e.runClearPass(ctx, cycleID)

	e.setState(Reporting, "")
	e.maybeSendReport(ctx, clearedCount, changedCount)

	return changedCount
}

// publishObservations emits one EventPaneObserved per pane right after a
// capture pass, carrying each pane's freshly resolved role/status/clear
// count for journal/diagnostic consumers.
func (e *Engine) publishObservations(cycleID string) {
	for _, p := range e.collection.AllSortedByNumericID() {
		role := ""
		if r := p.Role(); r != nil {
			role = r.Name()
		}
		e.broker.Publish(EventPaneObserved, Payload{
			CycleID:       cycleID,
			PaneID:        p.ID(),
			Role:          role,
			Status:        string(p.Status().Kind),
			ClearAttempts: p.ClearRetries(),
			At:            time.Now(),
		})
	}
}

func (e *Engine) statusSnapshot() map[string]classify.WorkerStatusKind {
	snap := make(map[string]classify.WorkerStatusKind)
	for _, p := range e.collection.All() {
		snap[p.ID().String()] = p.Status().Kind
	}
	return snap
}

func countStatusChanges(before, after map[string]classify.WorkerStatusKind) int {
	count := 0
	for id, afterKind := range after {
		if beforeKind, ok := before[id]; !ok || beforeKind != afterKind {
			count++
		}
	}
	return count
}

func (e *Engine) runClearPass(ctx context.Context, cycleID string) int {
	cleared := 0
	for _, p := range e.collection.AllSortedByNumericID() {
		if !p.ShouldBeCleared() {
			continue
		}
		outcome := e.clearProto.Clear(ctx, p)
		e.broker.Publish(EventPaneCleared, Payload{CycleID: cycleID, ClearOutcome: outcome, At: time.Now()})
		if outcome.Kind == clearproto.OutcomeSuccess {
			cleared++
		}
	}
	return cleared
}

func (e *Engine) maybeSendReport(ctx context.Context, clearedCount, changedCount int) {
	var snapshots []report.PaneSnapshot
	for _, p := range e.collection.AllSortedByNumericID() {
		snapshots = append(snapshots, report.PaneSnapshot{
			ID:     p.ID(),
			Status: p.Status().Kind,
			CanRun: p.CanAssignTask(),
		})
	}
	counts := report.CountsFromStatuses(snapshots)
	counts.ClearedCount = clearedCount
	counts.StatusChangedCount = changedCount

	if !report.ShouldSend(counts) {
		e.broker.Publish(EventReportSkipped, Payload{Reason: "nothing to report", At: time.Now()})
		return
	}

	active := e.collection.Active()
	if active == nil {
		e.broker.Publish(EventReportSkipped, Payload{Reason: string(report.ActivePaneRequired), At: time.Now()})
		return
	}

	text := report.Build(time.Now(), counts)
	if err := e.comm.SendMessage(ctx, active.ID().String(), text); err != nil {
		log.Warn(log.CatReport, "failed to send status report", "reason", err.Error())
		return
	}
	e.broker.Publish(EventReportSent, Payload{ReportText: text, At: time.Now()})
}

func (e *Engine) terminate(reason string) string {
	e.setState(Stopping, reason)
	e.setState(Terminated, reason)
	if reason != "cancelled" && reason != "one_shot_complete" {
		e.broker.Publish(EventFatal, Payload{Reason: reason, At: time.Now()})
	}
	return reason
}
