package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tettuan/tmux-monitor/internal/tmux"
)

type fakeRepo struct {
	panes    []tmux.RawPane
	captures map[string]string
}

func (f *fakeRepo) DiscoverPanes(ctx context.Context, sessionName string) ([]tmux.RawPane, error) {
	return f.panes, nil
}
func (f *fakeRepo) Capture(ctx context.Context, paneID string) (string, error) {
	if c, ok := f.captures[paneID]; ok {
		return c, nil
	}
	return "idle\nidle\n│ > │", nil
}
func (f *fakeRepo) ExecuteRaw(ctx context.Context, args []string) (string, error) { return "", nil }

type fakeComm struct {
	sentReports []string
}

func (f *fakeComm) SendMessage(ctx context.Context, paneID, text string) error {
	f.sentReports = append(f.sentReports, text)
	return nil
}
func (f *fakeComm) SendCommand(ctx context.Context, paneID, text string) error { return nil }
func (f *fakeComm) SendClearCommand(ctx context.Context, paneID string) error  { return nil }
func (f *fakeComm) StartInteractiveIfAbsent(ctx context.Context, panes []tmux.RawPane) error {
	return nil
}
func (f *fakeComm) SendRawKeys(ctx context.Context, paneID string, keys ...string) error { return nil }

func TestRun_OneShotDiscoversAndTerminates(t *testing.T) {
	repo := &fakeRepo{
		panes: []tmux.RawPane{
			{PaneID: "%0", Active: "1", CurrentCommand: "node"},
			{PaneID: "%1", Active: "0", CurrentCommand: "node"},
		},
	}
	comm := &fakeComm{}

	e := New(Options{OneShot: true, MaxRuntime: time.Hour}, repo, comm)
	reason := e.Run(context.Background())

	assert.Equal(t, "one_shot_complete", reason)
	assert.Equal(t, Terminated, e.State())
	assert.Equal(t, 2, e.collection.Len())
}

func TestRun_FatalOnEmptyDiscovery(t *testing.T) {
	repo := &fakeRepo{}
	comm := &fakeComm{}

	e := New(Options{OneShot: true, MaxRuntime: time.Hour}, repo, comm)
	reason := e.Run(context.Background())

	assert.Contains(t, reason, "discovery_failed")
	assert.Equal(t, Terminated, e.State())
}

func TestRun_CancelledDuringScheduledWait(t *testing.T) {
	future := time.Now().Add(time.Hour)
	repo := &fakeRepo{panes: []tmux.RawPane{{PaneID: "%0", Active: "1"}}}
	comm := &fakeComm{}

	e := New(Options{OneShot: true, ScheduledStart: &future, MaxRuntime: time.Hour}, repo, comm)
	go func() {
		time.Sleep(50 * time.Millisecond)
		e.Token().Cancel("test cancel")
	}()

	reason := e.Run(context.Background())
	assert.Equal(t, "cancelled", reason)
}

func TestBroker_EmitsStateChanges(t *testing.T) {
	repo := &fakeRepo{panes: []tmux.RawPane{{PaneID: "%0", Active: "1"}}}
	comm := &fakeComm{}

	e := New(Options{OneShot: true, MaxRuntime: time.Hour}, repo, comm)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := e.Broker().Subscribe(ctx)

	go e.Run(context.Background())

	seenTerminated := false
	for i := 0; i < 50; i++ {
		select {
		case evt := <-sub:
			if evt.Type == EventStateChanged && evt.Payload.State == Terminated {
				seenTerminated = true
			}
		case <-time.After(2 * time.Second):
		}
		if seenTerminated {
			break
		}
	}
	require.True(t, seenTerminated)
}
