// Package caseset builds the lists of test case numbers a run executes or skips.
//
// A run combines an explicit list of case numbers with an optional inclusive
// range. Merge expands the range and folds in the explicit entries that lie
// outside it. The same merge is used independently for the run list and for
// the skip list.
package caseset

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrInvalidStart is returned when a range starts at zero or below.
	ErrInvalidStart = errors.New("range start must be a positive integer")

	// ErrInvalidRange is returned when a range stops before it starts.
	ErrInvalidRange = errors.New("invalid range: stop must not be smaller than start")

	// ErrRangeArity is returned when a range has more than two endpoints.
	ErrRangeArity = errors.New("a range takes one or two endpoints")
)

// Range is an inclusive range of case numbers with zero, one or two
// endpoints. An empty Range means "no range". A single endpoint means
// [start, maxCase] where maxCase is supplied when the range is resolved.
type Range []int

// IsSet reports whether the range has at least one endpoint.
func (r Range) IsSet() bool {
	return len(r) > 0
}

// Bounds resolves the range to concrete start and stop values, using maxCase as
// the stop for an open-ended range.
func (r Range) Bounds(maxCase int) (start, stop int, err error) {
	switch len(r) {
	case 1:
		start, stop = r[0], maxCase
	case 2:
		start, stop = r[0], r[1]
	default:
		return 0, 0, fmt.Errorf("%w: got %d", ErrRangeArity, len(r))
	}

	if start <= 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidStart, start)
	}
	if stop < start {
		return 0, 0, fmt.Errorf("%w: %d to %d", ErrInvalidRange, start, stop)
	}
	return start, stop, nil
}

// Validate checks what can be checked without knowing the server's case
// count. A two-endpoint range is fully validated; a one-endpoint range only
// has its start checked.
func (r Range) Validate() error {
	switch len(r) {
	case 0:
		return nil
	case 1:
		if r[0] <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidStart, r[0])
		}
		return nil
	case 2:
		_, _, err := r.Bounds(0)
		return err
	default:
		return fmt.Errorf("%w: got %d", ErrRangeArity, len(r))
	}
}

// String renders the range the way the settings banner shows it.
func (r Range) String() string {
	switch len(r) {
	case 1:
		return fmt.Sprintf("%d to MAX", r[0])
	case 2:
		return fmt.Sprintf("%d to %d", r[0], r[1])
	default:
		return "-"
	}
}

// Merge returns a new sorted list holding every case number in the range
// plus every entry of values that lies outside it. Entries of values inside
// the range are represented once by the range itself. Duplicates among the
// outside entries are kept as given. values is never modified.
//
// An unset range returns a copy of values in the given order.
func Merge(maxCase int, r Range, values []int) ([]int, error) {
	if !r.IsSet() {
		return slices.Clone(values), nil
	}

	start, stop, err := r.Bounds(maxCase)
	if err != nil {
		return nil, err
	}

	outside := 0
	for _, v := range values {
		if v < start || v > stop {
			outside++
		}
	}

	out := make([]int, 0, stop-start+1+outside)
	for c := start; c <= stop; c++ {
		out = append(out, c)
	}
	for _, v := range values {
		if v < start || v > stop {
			out = append(out, v)
		}
	}

	slices.Sort(out)
	return out, nil
}

// All returns the list [1..maxCase].
func All(maxCase int) []int {
	out := make([]int, 0, maxCase)
	for c := 1; c <= maxCase; c++ {
		out = append(out, c)
	}
	return out
}

// ValidateEntries checks that every explicit entry is a positive case number.
func ValidateEntries(values []int) error {
	for i, v := range values {
		if v <= 0 {
			return fmt.Errorf("entry %d is %d: case numbers must be positive", i, v)
		}
	}
	return nil
}

// Set is a flat list of case numbers used for membership queries.
type Set []int

// Contains reports whether c appears in the set.
func (s Set) Contains(c int) bool {
	return slices.Contains(s, c)
}

// Join renders values separated by ", ", wrapping lines once a line reaches
// width characters. Entries for which skip returns true are left out.
func Join(values []int, width int, skip func(int) bool) string {
	var b strings.Builder
	lineLen := 0
	for i, v := range values {
		if skip != nil && skip(v) {
			continue
		}
		sep := ", "
		if i == len(values)-1 {
			sep = ""
		}
		item := fmt.Sprintf("%d%s", v, sep)
		b.WriteString(item)
		lineLen += len(item)
		if lineLen >= width {
			b.WriteString("\n")
			lineLen = 0
		}
	}
	return strings.TrimSuffix(strings.TrimRight(b.String(), "\n"), ", ")
}
