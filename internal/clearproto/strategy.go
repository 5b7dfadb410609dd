// Package clearproto implements the Clear Protocol (spec component C7): a
// ladder of escalating clear strategies tried in order against a single
// worker-like pane, each followed by a verification pass. Grounded on the
// teacher's cachemanager (internal/cachemanager) for the dedup-cache idiom
// and on internal/tmux's Communicator for the send-keys primitives.
package clearproto

// Strategy tags one rung of the clear ladder (spec §4.7).
type Strategy string

const (
	DirectClear       Strategy = "direct_clear"
	SingleEscape      Strategy = "single_escape"
	IncrementalEscape Strategy = "incremental_escape"
	RecoverySequence  Strategy = "recovery_sequence"
)

// ladder is the fixed strategy order; exhausting it yields Failed.
var ladder = []Strategy{DirectClear, SingleEscape, IncrementalEscape, RecoverySequence}
