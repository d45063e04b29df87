package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareClocks(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Clock
		expected Ordering
	}{
		{"empty clocks are equal", Clock{}, Clock{}, Equal},
		{"nil and zeros are equal", nil, Clock{0, 0}, Equal},
		{"identical", Clock{1, 2}, Clock{1, 2}, Equal},
		{"before", Clock{1, 1}, Clock{2, 1}, Before},
		{"after", Clock{2, 1}, Clock{1, 1}, After},
		{"concurrent", Clock{1, 0}, Clock{0, 1}, Concurrent},
		{"shorter is padded with zeros", Clock{1}, Clock{1, 1}, Before},
		{"trailing zeros are not significant", Clock{1, 0, 0}, Clock{1}, Equal},
		{"longer after shorter", Clock{1, 0, 3}, Clock{1}, After},
		{"concurrent across lengths", Clock{2}, Clock{1, 2}, Concurrent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompareClocks(tt.a, tt.b))
			assert.Equal(t, tt.expected.Inverse(), CompareClocks(tt.b, tt.a), "compare should be antisymmetric")
		})
	}
}

func TestDominatesClock(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Clock
		expected bool
	}{
		{"strictly greater everywhere", Clock{2, 2}, Clock{1, 1}, true},
		{"greater in one, equal in other", Clock{2, 1}, Clock{0, 1}, true},
		{"equal is not dominance", Clock{1, 1}, Clock{1, 1}, false},
		{"empty vs empty", Clock{}, Clock{}, false},
		{"less in one component", Clock{2, 0}, Clock{1, 1}, false},
		{"padding counts as zero", Clock{1}, Clock{}, true},
		{"shorter side is behind", Clock{1}, Clock{1, 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DominatesClock(tt.a, tt.b))
		})
	}
}

// Dominates and Compare==After agree everywhere except at equality.
func TestDominatesClock_EqualityBoundary(t *testing.T) {
	c := Clock{3, 1, 4}
	assert.Equal(t, Equal, CompareClocks(c, c))
	assert.False(t, DominatesClock(c, c))

	for _, other := range []Clock{{1, 1, 1}, {3, 1, 5}, {4, 0, 0}, {3, 1}} {
		assert.Equal(t, CompareClocks(c, other) == After, DominatesClock(c, other), "other=%v", other)
	}
}

func TestParseOrdering(t *testing.T) {
	for _, o := range ValidOrderings {
		got, err := ParseOrdering(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}

	_, err := ParseOrdering("sideways")
	assert.Error(t, err)
}

func TestTotalOrderLess_ExtendsHappensBefore(t *testing.T) {
	e1 := Event{Nonce: 1, Clock: Clock{1, 0}}
	e2 := Event{Nonce: 2, Clock: Clock{0, 1}}
	e3 := Event{Nonce: 3, Clock: Clock{2, 1}}

	assert.True(t, TotalOrderLess(e1, e3))
	assert.True(t, TotalOrderLess(e2, e3))
	assert.False(t, TotalOrderLess(e3, e1))

	// Concurrent events fall back to the lexicographic tie-break.
	assert.True(t, TotalOrderLess(e2, e1))
}

func TestSortCausal(t *testing.T) {
	events := []Event{
		{ID: "c", Nonce: 3, Clock: Clock{2, 1}},
		{ID: "a", Nonce: 1, Clock: Clock{1, 0}},
		{ID: "b", Nonce: 2, Clock: Clock{0, 1}},
		{ID: "d", Nonce: 4, Clock: Clock{2, 1}},
	}

	SortCausal(events)

	ids := make([]EventID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	assert.Equal(t, []EventID{"b", "a", "c", "d"}, ids)
}
