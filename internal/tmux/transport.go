package tmux

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/tettuan/tmux-monitor/internal/errkind"
	"github.com/tettuan/tmux-monitor/internal/log"
)

// fieldFormat is the `tmux list-panes -F` format string for the 15
// pipe-delimited fields spec §6 names, in order.
const fieldFormat = "#{pane_id}|#{pane_active}|#{pane_current_command}|#{pane_title}|" +
	"#{session_name}|#{window_index}|#{window_name}|#{pane_index}|#{pane_tty}|#{pane_pid}|" +
	"#{pane_current_path}|#{window_zoomed_flag}|#{pane_width}|#{pane_height}|#{pane_start_command}"

const rawPaneFieldCount = 15

// CommandFactoryFunc builds an *exec.Cmd for the given args, allowing
// tests to substitute a fake binary without touching a real tmux server.
type CommandFactoryFunc func(ctx context.Context, args ...string) *exec.Cmd

// Transport is the real tmux(1) implementation of Repository and
// Communicator, shelling out via os/exec.
type Transport struct {
	binary         string
	timeout        time.Duration
	commandFactory CommandFactoryFunc
}

// NewTransport builds a Transport that invokes the given tmux binary
// (defaulting to "tmux" if empty) with the given per-invocation timeout
// (defaulting to 5s if <= 0).
func NewTransport(binary string, timeout time.Duration) *Transport {
	if binary == "" {
		binary = "tmux"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	t := &Transport{binary: binary, timeout: timeout}
	t.commandFactory = t.defaultCommandFactory
	return t
}

// WithCommandFactory overrides command construction; used by tests.
func (t *Transport) WithCommandFactory(f CommandFactoryFunc) *Transport {
	t.commandFactory = f
	return t
}

func (t *Transport) defaultCommandFactory(ctx context.Context, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, t.binary, args...)
}

func (t *Transport) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := t.commandFactory(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.ErrorErr(log.CatTmux, "tmux invocation failed", err,
			"subsystem", "transport", "args", strings.Join(args, " "), "stderr", stderr.String())
		return "", errkind.Wrap(errkind.CommandExecutionFailed,
			fmt.Sprintf("tmux %s: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String())), err)
	}
	return stdout.String(), nil
}

// DiscoverPanes implements Repository.
func (t *Transport) DiscoverPanes(ctx context.Context, sessionName string) ([]RawPane, error) {
	var args []string
	if sessionName != "" {
		args = []string{"list-panes", "-t", sessionName, "-F", fieldFormat}
	} else {
		args = []string{"list-panes", "-s", "-F", fieldFormat}
	}

	out, err := t.run(ctx, args...)
	if err != nil {
		return nil, errkind.Wrap(errkind.RepositoryError, "discovering panes", err)
	}
	return parsePanes(out)
}

func parsePanes(out string) ([]RawPane, error) {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	panes := make([]RawPane, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < rawPaneFieldCount {
			return nil, errkind.New(errkind.RepositoryError,
				fmt.Sprintf("malformed list-panes row: expected %d fields, got %d", rawPaneFieldCount, len(fields)))
		}
		panes = append(panes, RawPane{
			PaneID:         fields[0],
			Active:         fields[1],
			CurrentCommand: fields[2],
			Title:          fields[3],
			SessionName:    fields[4],
			WindowIndex:    fields[5],
			WindowName:     fields[6],
			PaneIndex:      fields[7],
			TTY:            fields[8],
			PID:            fields[9],
			CurrentPath:    fields[10],
			Zoomed:         fields[11],
			Width:          fields[12],
			Height:         fields[13],
			StartCommand:   fields[14],
		})
	}
	return panes, nil
}

// Capture implements Repository. It returns the last ~10 lines of the
// pane's visible content.
func (t *Transport) Capture(ctx context.Context, paneID string) (string, error) {
	out, err := t.run(ctx, "capture-pane", "-t", paneID, "-p", "-S", "-10")
	if err != nil {
		return "", errkind.Wrap(errkind.RepositoryError, "capturing pane "+paneID, err)
	}
	return out, nil
}

// ExecuteRaw implements Repository's administrative escape hatch.
func (t *Transport) ExecuteRaw(ctx context.Context, args []string) (string, error) {
	out, err := t.run(ctx, args...)
	if err != nil {
		return "", errkind.Wrap(errkind.RepositoryError, "executing raw tmux command", err)
	}
	return out, nil
}
