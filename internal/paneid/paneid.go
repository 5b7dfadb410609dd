// Package paneid provides validated tmux pane identifiers and ordinal role
// names.
package paneid

import (
	"fmt"
	"regexp"
	"strconv"
)

var pattern = regexp.MustCompile(`^%\d+$`)

// ErrInvalidFormat is returned when a string does not match the pane id
// format `%<digits>`.
var ErrInvalidFormat = fmt.Errorf("invalid pane id format")

// ID is an opaque, validated tmux pane identifier matching `%<digits>`.
// The zero value is not valid; always construct via Parse.
type ID struct {
	raw string
	num int
}

// Parse validates s against `%\d+` and returns the constructed ID.
// Returns ErrInvalidFormat if s does not match.
func Parse(s string) (ID, error) {
	if !pattern.MatchString(s) {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return ID{raw: s, num: n}, nil
}

// MustParse is Parse but panics on error. Intended for tests and literal
// pane ids known to be valid at compile time.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the original, unmodified representation (e.g. "%12").
func (id ID) String() string {
	return id.raw
}

// Number returns the trailing integer (e.g. 12 for "%12").
func (id ID) Number() int {
	return id.num
}

// IsZero reports whether id is the unconstructed zero value.
func (id ID) IsZero() bool {
	return id.raw == ""
}

// Less orders two ids numerically (not lexicographically), so that
// "%2" < "%10".
func Less(a, b ID) bool {
	return a.num < b.num
}
