package ir

import (
	"fmt"
	"slices"
)

// Ordering is the causal relationship between two events.
type Ordering string

const (
	// Before means the first event happened-before the second.
	Before Ordering = "before"

	// After means the second event happened-before the first.
	After Ordering = "after"

	// Concurrent means neither event happened-before the other.
	Concurrent Ordering = "concurrent"

	// Equal means both events carry identical clocks.
	Equal Ordering = "equal"
)

// ValidOrderings lists every Ordering value.
var ValidOrderings = []Ordering{Before, After, Concurrent, Equal}

// String implements fmt.Stringer.
func (o Ordering) String() string {
	return string(o)
}

// ParseOrdering converts a textual ordering into an Ordering.
func ParseOrdering(s string) (Ordering, error) {
	o := Ordering(s)
	if slices.Contains(ValidOrderings, o) {
		return o, nil
	}
	return "", fmt.Errorf("unknown ordering %q: must be one of %v", s, ValidOrderings)
}

// Inverse returns the ordering seen from the other side.
func (o Ordering) Inverse() Ordering {
	switch o {
	case Before:
		return After
	case After:
		return Before
	}
	return o
}

// CompareClocks places a relative to b. Both clocks are padded with zeros
// to the longer length, then scanned for a strictly smaller and a strictly
// greater component.
func CompareClocks(a, b Clock) Ordering {
	var hasLess, hasGreater bool
	for i, n := 0, max(len(a), len(b)); i < n; i++ {
		av, bv := a.At(i), b.At(i)
		if av < bv {
			hasLess = true
		} else if av > bv {
			hasGreater = true
		}
	}

	switch {
	case hasLess && hasGreater:
		return Concurrent
	case hasLess:
		return Before
	case hasGreater:
		return After
	}
	return Equal
}

// DominatesClock reports whether a is at least b in every padded component
// and strictly greater in at least one.
//
// This is stricter than CompareClocks(a, b) == After only at equality:
// DominatesClock(c, c) is false.
func DominatesClock(a, b Clock) bool {
	strictly := false
	for i, n := 0, max(len(a), len(b)); i < n; i++ {
		av, bv := a.At(i), b.At(i)
		if av < bv {
			return false
		}
		if av > bv {
			strictly = true
		}
	}
	return strictly
}

// LexCompare compares padded clocks lexicographically by dimension.
func LexCompare(a, b Clock) int {
	for i, n := 0, max(len(a), len(b)); i < n; i++ {
		av, bv := a.At(i), b.At(i)
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// TotalOrderLess is a deterministic total order over events that extends
// happens-before: if a happened-before b then TotalOrderLess(a, b).
//
// Events are ordered by the sum of their clock, then lexicographically by
// clock, then by nonce. A strictly smaller clock always has a smaller sum.
func TotalOrderLess(a, b Event) bool {
	if sa, sb := a.Clock.Sum(), b.Clock.Sum(); sa != sb {
		return sa < sb
	}
	if c := LexCompare(a.Clock, b.Clock); c != 0 {
		return c < 0
	}
	return a.Nonce < b.Nonce
}

// SortCausal sorts events in place into the TotalOrderLess order.
func SortCausal(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		switch {
		case TotalOrderLess(a, b):
			return -1
		case TotalOrderLess(b, a):
			return 1
		}
		return 0
	})
}
