package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/tettuan/tmux-monitor/internal/engine"
	"github.com/tettuan/tmux-monitor/internal/pubsub"
	"github.com/tettuan/tmux-monitor/internal/tmux"
)

type fakeRepo struct{ panes []tmux.RawPane }

func (f *fakeRepo) DiscoverPanes(ctx context.Context, sessionName string) ([]tmux.RawPane, error) {
	return f.panes, nil
}
func (f *fakeRepo) Capture(ctx context.Context, paneID string) (string, error) { return "", nil }
func (f *fakeRepo) ExecuteRaw(ctx context.Context, args []string) (string, error) {
	return "", nil
}

type fakeComm struct{}

func (fakeComm) SendMessage(ctx context.Context, paneID, text string) error      { return nil }
func (fakeComm) SendCommand(ctx context.Context, paneID, text string) error      { return nil }
func (fakeComm) SendClearCommand(ctx context.Context, paneID string) error       { return nil }
func (fakeComm) SendRawKeys(ctx context.Context, paneID string, keys ...string) error {
	return nil
}
func (fakeComm) StartInteractiveIfAbsent(ctx context.Context, panes []tmux.RawPane) error {
	return nil
}

func newTestEngine() *engine.Engine {
	return engine.New(engine.Options{}, &fakeRepo{}, fakeComm{})
}

func TestDashboard_View_NonEmpty(t *testing.T) {
	m := New(context.Background(), newTestEngine())
	view := m.View()
	require.NotEmpty(t, view, "expected non-empty dashboard view")
	require.Contains(t, view, "tmuxmon")
}

func TestDashboard_Update_WindowSize(t *testing.T) {
	m := New(context.Background(), newTestEngine())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	dm := updated.(Model)
	require.Equal(t, 100, dm.width)
	require.Equal(t, 40, dm.height)
}

func TestDashboard_Update_QuitsOnQ(t *testing.T) {
	m := New(context.Background(), newTestEngine())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd, "expected a quit command for 'q'")
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestDashboard_Update_ReportEventRendersBody(t *testing.T) {
	m := New(context.Background(), newTestEngine())
	evt := pubsub.Event[engine.Payload]{Type: engine.EventReportSent, Payload: engine.Payload{ReportText: "status: ok"}}
	updated, _ := m.Update(evt)
	dm := updated.(Model)
	require.NotEmpty(t, dm.reportBody)
}
