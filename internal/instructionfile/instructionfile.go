// Package instructionfile loads and hot-reloads the YAML document named
// by --instruction=PATH: an ordered list of shell-detection patterns to
// startup-command overrides, consumed by the engine's StartupActions
// phase. The watcher half is adapted from the teacher's
// internal/watcher, substituting a single-file reload for the teacher's
// change-signal-only debounce loop.
package instructionfile

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/tettuan/tmux-monitor/internal/errkind"
	"github.com/tettuan/tmux-monitor/internal/log"
)

// Override maps a shell-command detection pattern (matched with
// path.Match semantics) to the command StartupActions should inject
// instead of the default.
type Override struct {
	Pattern string `yaml:"pattern"`
	Command string `yaml:"command"`
}

type document struct {
	Overrides []Override `yaml:"overrides"`
}

// Rules holds the currently active overrides, safe for concurrent read
// by the engine and concurrent replacement by the watcher.
type Rules struct {
	mu        sync.RWMutex
	overrides []Override
}

// NewRules returns an empty rule set (no overrides).
func NewRules() *Rules {
	return &Rules{}
}

// Load parses path into a fresh Rules. An empty path yields an empty,
// always-pass-through Rules with no error.
func Load(path string) (*Rules, error) {
	r := NewRules()
	if path == "" {
		return r, nil
	}
	if err := r.reload(path); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rules) reload(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is an operator-supplied CLI flag
	if err != nil {
		return errkind.Wrap(errkind.InvalidState, "reading instruction file "+path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errkind.Wrap(errkind.InvalidFormat, "parsing instruction file "+path, err)
	}
	r.mu.Lock()
	r.overrides = doc.Overrides
	r.mu.Unlock()
	return nil
}

// CommandFor returns the startup command override for the given current
// shell command, if any pattern matches. Patterns are tried in document
// order; the first match wins.
func (r *Rules) CommandFor(currentCommand string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.overrides {
		matched, err := filepath.Match(o.Pattern, currentCommand)
		if err == nil && matched {
			return o.Command, true
		}
	}
	return "", false
}

// Watcher hot-reloads a Rules set whenever its backing file changes, with
// the teacher's debounce-timer shape applied to a single file instead of
// a database directory.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	rules     *Rules
	done      chan struct{}
}

// NewWatcher builds a Watcher over path, reloading into rules. path must
// already exist (its parent directory is what gets watched, since editors
// commonly replace the file rather than writing in place).
func NewWatcher(path string, rules *Rules) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errkind.Wrap(errkind.UnexpectedError, "creating instruction file watcher", err)
	}
	return &Watcher{
		fsWatcher: fsw,
		path:      path,
		debounce:  200 * time.Millisecond,
		rules:     rules,
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the instruction file's directory and reloading on
// change.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return errkind.Wrap(errkind.UnexpectedError, "watching instruction file directory "+dir, err)
	}
	log.Info(log.CatWatcher, "watching instruction file", "path", w.path)
	go w.loop()
	return nil
}

// Stop terminates the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C
		}
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			if err := w.rules.reload(w.path); err != nil {
				log.Warn(log.CatWatcher, "instruction file reload failed", "reason", err.Error())
			} else {
				log.Info(log.CatWatcher, "instruction file reloaded", "path", w.path)
			}
			timer = nil
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "instruction file watcher error", err)
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
