// Package capture implements the Capture Orchestrator (spec component C6):
// bounded-parallel per-pane capture with retry, cancellation-aware
// dispatch, and change aggregation. Grounded on the teacher's worker pool
// (internal/orchestration/pool) for the bounded-goroutine shape, adapted
// here to a fan-out/fan-in over a fixed pane set rather than a long-lived
// worker pool.
package capture

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tettuan/tmux-monitor/internal/canceltoken"
	"github.com/tettuan/tmux-monitor/internal/classify"
	"github.com/tettuan/tmux-monitor/internal/errkind"
	"github.com/tettuan/tmux-monitor/internal/log"
	"github.com/tettuan/tmux-monitor/internal/pane"
	"github.com/tettuan/tmux-monitor/internal/paneid"
	"github.com/tettuan/tmux-monitor/internal/tmux"
	"github.com/tettuan/tmux-monitor/internal/tracing"
)

// DefaultMaxRetries is the per-pane retry budget on transient capture
// failure (spec §4.6 step 3).
const DefaultMaxRetries = 2

// DefaultMaxConcurrency bounds how many panes are captured at once.
const DefaultMaxConcurrency = 8

// PaneError records a capture failure attributed to a single pane.
type PaneError struct {
	ID     paneid.ID
	Reason string
}

// Summary aggregates the outcome of one captureAll pass.
type Summary struct {
	Processed  int
	Successful int
	Changed    []paneid.ID
	Errors     []PaneError
	Duration   time.Duration
}

// Orchestrator drives bounded-parallel capture over a pane set.
type Orchestrator struct {
	repo        tmux.Repository
	token       *canceltoken.Token
	tracer      trace.Tracer
	maxRetries  int
	concurrency int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxRetries overrides DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) { o.maxRetries = n }
}

// WithConcurrency overrides DefaultMaxConcurrency.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.concurrency = n }
}

// WithTracer attaches an OpenTelemetry tracer; a nil tracer (the default)
// disables span creation.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = tracer }
}

// New builds an Orchestrator against repo, observing token for cancellation.
func New(repo tmux.Repository, token *canceltoken.Token, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		repo:        repo,
		token:       token,
		maxRetries:  DefaultMaxRetries,
		concurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type paneResult struct {
	id      paneid.ID
	sample  pane.CaptureSample
	err     error
	skipped bool
}

// CaptureAll runs spec §4.6's algorithm over panes, applying successful
// samples via pane.ApplyCapture and aggregating a Summary. Individual
// pane errors are collected, never fatal; only cancellation observed
// before dispatch stops the whole pass early.
func (o *Orchestrator) CaptureAll(ctx context.Context, panes []*pane.Pane) (Summary, error) {
	start := time.Now()

	if o.token.IsCancelled() {
		return Summary{}, errkind.New(errkind.InvalidState, "cancelled")
	}

	results := make([]paneResult, len(panes))
	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

	for i, p := range panes {
		if o.token.IsCancelled() {
			results[i] = paneResult{id: p.ID(), skipped: true}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p *pane.Pane) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = o.captureOne(ctx, p)
		}(i, p)
	}
	wg.Wait()

	summary := Summary{Processed: len(panes)}
	for i, r := range results {
		if r.skipped {
			continue
		}
		if r.err != nil {
			summary.Errors = append(summary.Errors, PaneError{ID: r.id, Reason: r.err.Error()})
			log.Warn(log.CatCapture, "pane capture failed", "pane", r.id.String(), "reason", r.err.Error())
			continue
		}
		p := panes[i]
		if err := p.ApplyCapture(r.sample); err != nil {
			summary.Errors = append(summary.Errors, PaneError{ID: r.id, Reason: err.Error()})
			continue
		}
		summary.Successful++
		if p.Activity() == classify.Working {
			summary.Changed = append(summary.Changed, r.id)
		}
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

func (o *Orchestrator) captureOne(ctx context.Context, p *pane.Pane) paneResult {
	ctx, span := o.startSpan(ctx, p)
	defer span.End()

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if o.token.IsCancelled() {
			lastErr = errkind.New(errkind.CancellationRequested, "cancelled mid-retry")
			break
		}
		content, err := o.repo.Capture(ctx, p.ID().String())
		if err == nil {
			span.AddEvent(tracing.EventPaneCaptured)
			span.SetStatus(codes.Ok, "")
			return paneResult{id: p.ID(), sample: pane.CaptureSample{Content: content, TakenAt: time.Now()}}
		}
		lastErr = err
		if attempt < o.maxRetries {
			if o.token.Sleep(100 * time.Millisecond) {
				break
			}
		}
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return paneResult{id: p.ID(), err: lastErr}
}

func (o *Orchestrator) startSpan(ctx context.Context, p *pane.Pane) (context.Context, trace.Span) {
	if o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	ctx, span := o.tracer.Start(ctx, tracing.SpanPrefixCapture+"pane",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	roleName := ""
	if role := p.Role(); role != nil {
		roleName = role.Name()
	}
	span.SetAttributes(
		attribute.String(tracing.AttrPaneID, p.ID().String()),
		attribute.String(tracing.AttrPaneRole, roleName),
	)
	return ctx, span
}
