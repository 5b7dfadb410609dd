package clearproto

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tettuan/tmux-monitor/internal/cachemanager"
	"github.com/tettuan/tmux-monitor/internal/canceltoken"
	"github.com/tettuan/tmux-monitor/internal/log"
	"github.com/tettuan/tmux-monitor/internal/pane"
	"github.com/tettuan/tmux-monitor/internal/tmux"
	"github.com/tettuan/tmux-monitor/internal/tracing"
)

// DefaultMaxRetries caps the strategy ladder per spec §4.7.
const DefaultMaxRetries = 3

// dedupTTL bounds how long a repeated NotCleared reason for the same pane
// is suppressed from the log, so a stuck pane doesn't spam identical lines
// every cycle.
const dedupTTL = 5 * time.Minute

// OutcomeKind tags a Clear call's result.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailed  OutcomeKind = "failed"
	OutcomeSkipped OutcomeKind = "skipped"
)

// Outcome is the tagged result of one Clear call (spec §4.7).
type Outcome struct {
	Kind         OutcomeKind
	PaneID       string
	Verification VerificationOutcome
	Strategy     Strategy
	Reason       string
	RetryCount   int
	Duration     time.Duration
}

// Protocol drives the Clear Protocol's strategy ladder against a single
// pane at a time, per spec §4.7. Grounded on the teacher's cachemanager
// for the repeated-failure dedup cache and on internal/tmux.Communicator
// for the send-keys primitives.
type Protocol struct {
	comm       tmux.Communicator
	repo       tmux.Repository
	token      *canceltoken.Token
	tracer     trace.Tracer
	maxRetries int
	seenFail   cachemanager.CacheManager[string, bool]
}

// Option configures a Protocol.
type Option func(*Protocol)

// WithMaxRetries overrides DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(p *Protocol) { p.maxRetries = n }
}

// WithTracer attaches an OpenTelemetry tracer; nil disables span creation.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Protocol) { p.tracer = tracer }
}

// New builds a Protocol against comm/repo, observing token for
// cancellation of its preemptible inter-strategy waits.
func New(comm tmux.Communicator, repo tmux.Repository, token *canceltoken.Token, opts ...Option) *Protocol {
	p := &Protocol{
		comm:       comm,
		repo:       repo,
		token:      token,
		maxRetries: DefaultMaxRetries,
		seenFail:   cachemanager.NewInMemoryCacheManager[string, bool]("clearproto.seenFail", dedupTTL, dedupTTL*2),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Clear runs the strategy ladder against p, stopping at the first
// verified success or after exhausting maxRetries strategies.
func (c *Protocol) Clear(ctx context.Context, p *pane.Pane) Outcome {
	start := time.Now()
	id := p.ID().String()

	ctx, span := c.startSpan(ctx, id)
	defer span.End()

	if !p.ShouldBeCleared() {
		return Outcome{Kind: OutcomeSkipped, PaneID: id, Reason: "shouldBeCleared is false"}
	}

	for i, strategy := range ladder {
		if i >= c.maxRetries {
			break
		}
		if c.token.IsCancelled() {
			return Outcome{Kind: OutcomeFailed, PaneID: id, Strategy: strategy, Reason: "cancelled", RetryCount: i, Duration: time.Since(start)}
		}

		if err := c.sendStrategy(ctx, id, strategy); err != nil {
			p.MarkClearFailed(err.Error())
			continue
		}

		c.settle(strategy)

		content, err := c.repo.Capture(ctx, id)
		if err != nil {
			p.MarkClearFailed(err.Error())
			continue
		}

		verdict := verify(lastLines(content, 10))
		span.AddEvent(tracing.EventClearVerified, trace.WithAttributes(
			attribute.String(tracing.AttrStrategy, string(strategy)),
		))

		if verdict == Cleared {
			p.MarkCleared()
			span.SetStatus(codes.Ok, "")
			return Outcome{Kind: OutcomeSuccess, PaneID: id, Verification: verdict, Strategy: strategy, RetryCount: i, Duration: time.Since(start)}
		}

		p.MarkClearFailed(verdict.Reason())
		p.IncrementClearRetries()
		c.logNotClearedOnce(ctx, id, verdict)

		if c.token.Sleep(1 * time.Second) {
			return Outcome{Kind: OutcomeFailed, PaneID: id, Strategy: strategy, Reason: "cancelled", RetryCount: i + 1, Duration: time.Since(start)}
		}
	}

	span.SetStatus(codes.Error, "clear ladder exhausted")
	return Outcome{Kind: OutcomeFailed, PaneID: id, Reason: "all strategies exhausted", RetryCount: p.ClearRetries(), Duration: time.Since(start)}
}

// sendStrategy performs one rung's send-keys sequence (spec §4.7).
func (c *Protocol) sendStrategy(ctx context.Context, paneID string, strategy Strategy) error {
	switch strategy {
	case DirectClear:
		return c.comm.SendClearCommand(ctx, paneID)
	case SingleEscape:
		return c.comm.SendRawKeys(ctx, paneID, "Escape")
	case IncrementalEscape:
		for i := 0; i < 3; i++ {
			if err := c.comm.SendRawKeys(ctx, paneID, "Escape"); err != nil {
				return err
			}
			if c.token.Sleep(200 * time.Millisecond) {
				return nil
			}
			content, err := c.repo.Capture(ctx, paneID)
			if err == nil && verify(lastLines(content, 10)) == Cleared {
				return nil
			}
		}
		return nil
	case RecoverySequence:
		steps := [][]string{
			{"Escape"}, {"Enter"}, {"clear", "Enter"}, {"C-l"}, {"reset", "Enter"},
		}
		for _, step := range steps {
			if err := c.comm.SendRawKeys(ctx, paneID, step...); err != nil {
				return err
			}
			if c.token.Sleep(500 * time.Millisecond) {
				return nil
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown clear strategy %q", strategy)
	}
}

// settle waits for the UI to catch up before verification; DirectClear
// gets the spec's explicit 2s settle, other strategies rely on their own
// inter-step waits.
func (c *Protocol) settle(strategy Strategy) {
	if strategy == DirectClear {
		c.token.Sleep(2 * time.Second)
	}
}

// logNotClearedOnce logs a NotCleared reason at most once per dedupTTL
// window per pane, so a stuck pane doesn't spam identical log lines every
// cycle.
func (c *Protocol) logNotClearedOnce(ctx context.Context, paneID string, verdict VerificationOutcome) {
	key := paneID + ":" + string(verdict)
	if _, found := c.seenFail.Get(ctx, key); found {
		return
	}
	c.seenFail.Set(ctx, key, true, dedupTTL)
	log.Warn(log.CatClear, "pane not cleared", "pane", paneID, "reason", verdict.Reason())
}

func (c *Protocol) startSpan(ctx context.Context, paneID string) (context.Context, trace.Span) {
	if c.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	ctx, span := c.tracer.Start(ctx, tracing.SpanPrefixClear+"pane",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(attribute.String(tracing.AttrPaneID, paneID))
	return ctx, span
}
