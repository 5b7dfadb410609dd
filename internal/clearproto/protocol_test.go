package clearproto

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tettuan/tmux-monitor/internal/canceltoken"
	"github.com/tettuan/tmux-monitor/internal/pane"
	"github.com/tettuan/tmux-monitor/internal/paneid"
	"github.com/tettuan/tmux-monitor/internal/tmux"
)

type fakeComm struct {
	sentClear bool
	rawCalls  [][]string
}

func (f *fakeComm) SendMessage(ctx context.Context, paneID, text string) error { return nil }
func (f *fakeComm) SendCommand(ctx context.Context, paneID, text string) error { return nil }
func (f *fakeComm) SendClearCommand(ctx context.Context, paneID string) error {
	f.sentClear = true
	return nil
}
func (f *fakeComm) StartInteractiveIfAbsent(ctx context.Context, panes []tmux.RawPane) error {
	return nil
}
func (f *fakeComm) SendRawKeys(ctx context.Context, paneID string, keys ...string) error {
	f.rawCalls = append(f.rawCalls, keys)
	return nil
}

type fakeRepo struct {
	captures []string // consumed in order, last one repeats
}

func (f *fakeRepo) DiscoverPanes(ctx context.Context, sessionName string) ([]tmux.RawPane, error) {
	return nil, nil
}
func (f *fakeRepo) Capture(ctx context.Context, paneID string) (string, error) {
	if len(f.captures) == 0 {
		return "", nil
	}
	next := f.captures[0]
	if len(f.captures) > 1 {
		f.captures = f.captures[1:]
	}
	return next, nil
}
func (f *fakeRepo) ExecuteRaw(ctx context.Context, args []string) (string, error) { return "", nil }

func clearablePane(t *testing.T, id string) *pane.Pane {
	t.Helper()
	p, err := pane.FromDiscovery(tmux.RawPane{PaneID: id, Active: "0", CurrentCommand: "node"})
	require.NoError(t, err)
	require.NoError(t, p.AssignRole(paneid.AssignRole(5))) // worker2, worker-like
	content := "done with task\n✓ done\n│ > │"
	require.NoError(t, p.ApplyCapture(pane.CaptureSample{Content: content, TakenAt: time.Now()}))
	require.NoError(t, p.ApplyCapture(pane.CaptureSample{Content: content, TakenAt: time.Now()}))
	require.True(t, p.ShouldBeCleared())
	return p
}

func TestClear_SkipsWhenNotEligible(t *testing.T) {
	p, err := pane.FromDiscovery(tmux.RawPane{PaneID: "%1", Active: "0", CurrentCommand: "node"})
	require.NoError(t, err)

	proto := New(&fakeComm{}, &fakeRepo{}, canceltoken.New())
	outcome := proto.Clear(context.Background(), p)
	assert.Equal(t, OutcomeSkipped, outcome.Kind)
}

func TestClear_DirectClearSucceedsOnFirstTry(t *testing.T) {
	p := clearablePane(t, "%5")
	comm := &fakeComm{}
	repo := &fakeRepo{captures: []string{""}}

	proto := New(comm, repo, canceltoken.New())
	outcome := proto.Clear(context.Background(), p)

	assert.Equal(t, OutcomeSuccess, outcome.Kind)
	assert.Equal(t, DirectClear, outcome.Strategy)
	assert.True(t, comm.sentClear)
}

func TestClear_EscalatesThroughLadderOnRepeatedFailure(t *testing.T) {
	p := clearablePane(t, "%5")
	comm := &fakeComm{}
	// Every verification sees lingering content that never matches Cleared.
	repo := &fakeRepo{captures: []string{"still running\nstill running\nstill running"}}

	proto := New(comm, repo, canceltoken.New())
	outcome := proto.Clear(context.Background(), p)

	assert.Equal(t, OutcomeFailed, outcome.Kind)
	assert.Equal(t, "all strategies exhausted", outcome.Reason)
}

func TestClear_MultipleClearAccumulatedDetected(t *testing.T) {
	p := clearablePane(t, "%5")
	comm := &fakeComm{}
	repo := &fakeRepo{captures: []string{"/clear\n/clear\nstuck"}}

	proto := New(comm, repo, canceltoken.New())
	outcome := proto.Clear(context.Background(), p)

	assert.Equal(t, OutcomeFailed, outcome.Kind)
}

func TestVerify_DetectsClearedPatterns(t *testing.T) {
	assert.Equal(t, Cleared, verify(""))
	assert.Equal(t, Cleared, verify("prompt > "))
	assert.Equal(t, Cleared, verify("waiting ⎿"))
	assert.Equal(t, NotClearedMultiple, verify("/clear\nsome\n/clear"))
	assert.Equal(t, NotClearedAbsent, verify("still building things"))
}
