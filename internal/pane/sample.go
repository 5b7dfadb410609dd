// Package pane implements the Pane aggregate (spec component C4): one
// pane's full state — identity, role, last command, current/previous
// capture, and derived statuses — behind Result-returning methods.
package pane

import "time"

// CaptureSample is the rendered text of a pane's last ~10 lines together
// with the instant it was taken.
type CaptureSample struct {
	Content string
	TakenAt time.Time
}
