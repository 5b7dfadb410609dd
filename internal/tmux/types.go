// Package tmux defines the external interfaces the monitoring core
// consumes (spec §6: TmuxRepository, PaneCommunicator) and a real
// os/exec-backed transport implementing them against an actual tmux(1)
// binary. The core never shells out itself; it only ever talks to these
// interfaces.
package tmux

import "context"

// RawPane is one row of `tmux list-panes -F` decoded from its 15
// pipe-delimited fields, before any domain validation.
type RawPane struct {
	PaneID         string
	Active         string // "0" or "1"
	CurrentCommand string
	Title          string
	SessionName    string
	WindowIndex    string
	WindowName     string
	PaneIndex      string
	TTY            string
	PID            string
	CurrentPath    string
	Zoomed         string
	Width          string
	Height         string
	StartCommand   string
}

// Repository discovers panes and captures their content.
type Repository interface {
	// DiscoverPanes lists every visible pane in the given session
	// (or the current session if sessionName is empty).
	DiscoverPanes(ctx context.Context, sessionName string) ([]RawPane, error)

	// Capture returns the last ~10 lines of the given pane's content.
	Capture(ctx context.Context, paneID string) (string, error)

	// ExecuteRaw is an escape hatch for administrative tmux invocations
	// (kill-all-panes) not used by the monitoring core itself.
	ExecuteRaw(ctx context.Context, args []string) (string, error)
}

// Communicator injects text and keystrokes into panes.
type Communicator interface {
	// SendMessage injects text into a pane without pressing Enter.
	SendMessage(ctx context.Context, paneID string, text string) error

	// SendCommand injects text and presses Enter. The single byte 0x1B
	// is treated specially as "Escape" rather than literal text.
	SendCommand(ctx context.Context, paneID string, text string) error

	// SendClearCommand runs the exact clear macro: Escape, wait 200ms,
	// Escape, Tab, wait 200ms, "/clear", wait 200ms, Enter.
	SendClearCommand(ctx context.Context, paneID string) error

	// StartInteractiveIfAbsent best-effort injects the startup invocation
	// into panes running a bare interactive shell, skipping panes that
	// already look like they're running the target application.
	StartInteractiveIfAbsent(ctx context.Context, panes []RawPane) error

	// SendRawKeys sends a single tmux send-keys invocation verbatim, with
	// no inter-step waiting — the Clear Protocol owns timing between
	// steps so it can make each wait preemptible by the cancellation
	// token.
	SendRawKeys(ctx context.Context, paneID string, keys ...string) error
}
