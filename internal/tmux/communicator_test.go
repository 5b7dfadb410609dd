package tmux

import (
	"context"
	"os/exec"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingFactory struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recordingFactory) factory(ctx context.Context, args ...string) *exec.Cmd {
	r.mu.Lock()
	cp := append([]string(nil), args...)
	r.calls = append(r.calls, cp)
	r.mu.Unlock()
	return exec.CommandContext(ctx, "true")
}

func TestSendCommand_EscapeByteSendsEscapeKey(t *testing.T) {
	rec := &recordingFactory{}
	tr := NewTransport("", 0).WithCommandFactory(rec.factory)

	err := tr.SendCommand(context.Background(), "%0", string(rune(escapeByte)))
	require.NoError(t, err)
	require.Len(t, rec.calls, 1)
	require.Equal(t, []string{"send-keys", "-t", "%0", "Escape"}, rec.calls[0])
}

func TestSendCommand_TextPressesEnter(t *testing.T) {
	rec := &recordingFactory{}
	tr := NewTransport("", 0).WithCommandFactory(rec.factory)

	err := tr.SendCommand(context.Background(), "%0", "cld")
	require.NoError(t, err)
	require.Equal(t, []string{"send-keys", "-t", "%0", "cld", "Enter"}, rec.calls[0])
}

func TestSendClearCommand_RunsFullMacro(t *testing.T) {
	rec := &recordingFactory{}
	tr := NewTransport("", 0).WithCommandFactory(rec.factory)

	err := tr.SendClearCommand(context.Background(), "%0")
	require.NoError(t, err)
	require.Len(t, rec.calls, 5)
	require.Equal(t, []string{"send-keys", "-t", "%0", "Escape"}, rec.calls[0])
	require.Equal(t, []string{"send-keys", "-t", "%0", "Tab"}, rec.calls[2])
	require.Equal(t, []string{"send-keys", "-t", "%0", "/clear"}, rec.calls[3])
	require.Equal(t, []string{"send-keys", "-t", "%0", "Enter"}, rec.calls[4])
}

func TestStartInteractiveIfAbsent_SkipsRunningApp(t *testing.T) {
	rec := &recordingFactory{}
	tr := NewTransport("", 0).WithCommandFactory(rec.factory)

	err := tr.StartInteractiveIfAbsent(context.Background(), []RawPane{
		{PaneID: "%0", CurrentCommand: "claude"},
	})
	require.NoError(t, err)
	require.Empty(t, rec.calls, "expected no injection into a pane already running the target app")
}

func TestStartInteractiveIfAbsent_SkipsNonShellCommand(t *testing.T) {
	rec := &recordingFactory{}
	tr := NewTransport("", 0).WithCommandFactory(rec.factory)

	err := tr.StartInteractiveIfAbsent(context.Background(), []RawPane{
		{PaneID: "%0", CurrentCommand: "vim"},
	})
	require.NoError(t, err)
	require.Empty(t, rec.calls)
}

func TestStartInteractiveIfAbsent_InjectsDefaultStartupIntoBareShell(t *testing.T) {
	rec := &recordingFactory{}
	tr := NewTransport("", 0).WithCommandFactory(rec.factory)

	err := tr.StartInteractiveIfAbsent(context.Background(), []RawPane{
		{PaneID: "%0", CurrentCommand: "zsh"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"send-keys", "-t", "%0", StartupCommand, "Enter"}, rec.calls[0])
}

func TestStartInteractiveIfAbsent_PrefersOverrideStartCommand(t *testing.T) {
	rec := &recordingFactory{}
	tr := NewTransport("", 0).WithCommandFactory(rec.factory)

	err := tr.StartInteractiveIfAbsent(context.Background(), []RawPane{
		{PaneID: "%0", CurrentCommand: "bash", StartCommand: "custom-launch"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"send-keys", "-t", "%0", "custom-launch", "Enter"}, rec.calls[0])
}
