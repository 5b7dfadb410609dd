// Package main is the entry point for the tmuxmon monitoring supervisor.
package main

import (
	"fmt"
	"os"

	"github.com/tettuan/tmux-monitor/cmd/tmuxmon"
)

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	versionString := fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	tmuxmon.SetVersion(versionString)
	if err := tmuxmon.Execute(); err != nil {
		os.Exit(1)
	}
}
