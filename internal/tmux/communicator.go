package tmux

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/tettuan/tmux-monitor/internal/errkind"
	"github.com/tettuan/tmux-monitor/internal/log"
)

// escapeByte is the single control byte spec §6 says SendCommand treats
// specially as "Escape" instead of literal text.
const escapeByte = 0x1B

// StartupCommand is the default invocation StartupActions (spec §4.8.4)
// injects into a blank interactive shell.
const StartupCommand = "cld"

// interactiveShellPattern matches a pane whose current command is a bare
// interactive shell with no application running on top of it.
var interactiveShellPattern = regexp.MustCompile(`^(zsh|bash|sh|fish)$`)

// runningAppPattern matches a pane already running the target application,
// which StartupActions must skip.
var runningAppPattern = regexp.MustCompile(`(?i)claude|cld`)

// ctxSleep blocks for up to d, returning early with cancelled=true the
// moment ctx is done instead of riding out an uninterruptible time.Sleep.
// Keeps the clear macro and startup injection within invariant 4's
// cancellation latency bound even though each individual wait is short.
func ctxSleep(ctx context.Context, d time.Duration) (cancelled bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}

// SendMessage implements Communicator: inject text without pressing Enter.
func (t *Transport) SendMessage(ctx context.Context, paneID string, text string) error {
	_, err := t.run(ctx, "send-keys", "-t", paneID, text)
	if err != nil {
		return errkind.Wrap(errkind.CommunicationFailed, "sending message to "+paneID, err)
	}
	return nil
}

// SendCommand implements Communicator: inject text and press Enter. The
// literal byte 0x1B is sent as the tmux "Escape" key rather than as text.
func (t *Transport) SendCommand(ctx context.Context, paneID string, text string) error {
	if len(text) == 1 && text[0] == escapeByte {
		_, err := t.run(ctx, "send-keys", "-t", paneID, "Escape")
		if err != nil {
			return errkind.Wrap(errkind.CommunicationFailed, "sending Escape to "+paneID, err)
		}
		return nil
	}
	_, err := t.run(ctx, "send-keys", "-t", paneID, text, "Enter")
	if err != nil {
		return errkind.Wrap(errkind.CommunicationFailed, "sending command to "+paneID, err)
	}
	return nil
}

// SendClearCommand implements Communicator's exact macro (spec §6):
// Escape, wait 200ms, Escape, Tab, wait 200ms, "/clear", wait 200ms, Enter.
func (t *Transport) SendClearCommand(ctx context.Context, paneID string) error {
	steps := []struct {
		keys []string
		wait time.Duration
	}{
		{[]string{"Escape"}, 200 * time.Millisecond},
		{[]string{"Escape"}, 0},
		{[]string{"Tab"}, 200 * time.Millisecond},
		{[]string{"/clear"}, 200 * time.Millisecond},
		{[]string{"Enter"}, 0},
	}
	for _, step := range steps {
		args := append([]string{"send-keys", "-t", paneID}, step.keys...)
		if _, err := t.run(ctx, args...); err != nil {
			return errkind.Wrap(errkind.CommunicationFailed, "sending clear macro to "+paneID, err)
		}
		if step.wait > 0 {
			if ctxSleep(ctx, step.wait) {
				return ctx.Err()
			}
		}
	}
	return nil
}

// SendRawKeys implements Communicator: a single send-keys invocation with
// no built-in wait, so callers (the Clear Protocol) control inter-step
// timing preemptibly.
func (t *Transport) SendRawKeys(ctx context.Context, paneID string, keys ...string) error {
	args := append([]string{"send-keys", "-t", paneID}, keys...)
	if _, err := t.run(ctx, args...); err != nil {
		return errkind.Wrap(errkind.CommunicationFailed, "sending raw keys to "+paneID, err)
	}
	return nil
}

// StartInteractiveIfAbsent implements Communicator's §4.8 step 4: for each
// pane running a bare interactive shell (and not already running the
// target application), send the startup invocation followed by Enter, with
// a 500ms gap between panes.
func (t *Transport) StartInteractiveIfAbsent(ctx context.Context, panes []RawPane) error {
	for _, p := range panes {
		cmd := strings.TrimSpace(p.CurrentCommand)
		if runningAppPattern.MatchString(cmd) {
			log.Debug(log.CatEngine, "skipping startup injection, app already running",
				"subsystem", "startup", "paneID", p.PaneID, "command", cmd)
			continue
		}
		if !interactiveShellPattern.MatchString(cmd) {
			continue
		}
		startup := StartupCommand
		if p.StartCommand != "" {
			startup = p.StartCommand
		}
		if err := t.SendCommand(ctx, p.PaneID, startup); err != nil {
			log.ErrorErr(log.CatEngine, "startup injection failed", err,
				"subsystem", "startup", "paneID", p.PaneID)
			continue
		}
		if ctxSleep(ctx, 500*time.Millisecond) {
			return ctx.Err()
		}
	}
	return nil
}
