package tmuxmon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tettuan/tmux-monitor/internal/tmux"
)

type fakeRepo struct {
	panes      []tmux.RawPane
	rawCalls   [][]string
	executeErr error
}

func (f *fakeRepo) DiscoverPanes(ctx context.Context, sessionName string) ([]tmux.RawPane, error) {
	return f.panes, nil
}
func (f *fakeRepo) Capture(ctx context.Context, paneID string) (string, error) { return "", nil }
func (f *fakeRepo) ExecuteRaw(ctx context.Context, args []string) (string, error) {
	f.rawCalls = append(f.rawCalls, args)
	return "", f.executeErr
}

type fakeComm struct {
	cleared []string
}

func (f *fakeComm) SendMessage(ctx context.Context, paneID, text string) error { return nil }
func (f *fakeComm) SendCommand(ctx context.Context, paneID, text string) error { return nil }
func (f *fakeComm) SendClearCommand(ctx context.Context, paneID string) error {
	f.cleared = append(f.cleared, paneID)
	return nil
}
func (f *fakeComm) StartInteractiveIfAbsent(ctx context.Context, panes []tmux.RawPane) error {
	return nil
}
func (f *fakeComm) SendRawKeys(ctx context.Context, paneID string, keys ...string) error { return nil }

func TestKillAllPanes_WithSessionName(t *testing.T) {
	repo := &fakeRepo{}
	require.NoError(t, killAllPanes(context.Background(), repo, "work"))
	require.Len(t, repo.rawCalls, 1)
	assert.Equal(t, []string{"kill-pane", "-a", "-t", "work"}, repo.rawCalls[0])
}

func TestKillAllPanes_NoSessionName(t *testing.T) {
	repo := &fakeRepo{}
	require.NoError(t, killAllPanes(context.Background(), repo, ""))
	assert.Equal(t, []string{"kill-pane", "-a"}, repo.rawCalls[0])
}

func TestClearAllPanes_DiscoversThenClearsEveryPane(t *testing.T) {
	repo := &fakeRepo{panes: []tmux.RawPane{{PaneID: "%0"}, {PaneID: "%1"}}}
	comm := &fakeComm{}
	err := clearAllPanes(context.Background(), repo, comm, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"%0", "%1"}, comm.cleared)
}
