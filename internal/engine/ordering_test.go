package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/causal/internal/ir"
)

func TestCompare_SelfIsEqual(t *testing.T) {
	e := newTestEngine(t, "a", "b")
	for _, r := range []ir.ReplicaID{"a", "b", "a"} {
		ev := mustTick(t, e, r)
		ord, err := e.Compare(ev.ID, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, ir.Equal, ord)
	}
}

// Dominates and Compare==After agree everywhere except on equal clocks,
// where Dominates is false.
func TestDominates_FalseOnEquality(t *testing.T) {
	e := newTestEngine(t, "a", "b")
	ev := mustTick(t, e, "a")

	dom, err := e.Dominates(ev.ID, ev.ID)
	require.NoError(t, err)
	assert.False(t, dom)

	ord, err := e.Compare(ev.ID, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ir.Equal, ord)
}

func TestDominates_AgreesWithAfterOffTheDiagonal(t *testing.T) {
	e := newTestEngine(t, "a", "b", "c")
	var ids []ir.EventID
	steps := []func(){
		func() { ids = append(ids, mustTick(t, e, "a").ID) },
		func() { ids = append(ids, mustTick(t, e, "b").ID) },
		func() { _, _ = e.Merge("c", "a") },
		func() { ids = append(ids, mustTick(t, e, "c").ID) },
		func() { _, _ = e.Merge("b", "c") },
		func() { ids = append(ids, mustTick(t, e, "b").ID) },
		func() { ids = append(ids, mustTick(t, e, "a").ID) },
	}
	for _, step := range steps {
		step()
	}

	for i, a := range ids {
		for j, b := range ids {
			if i == j {
				continue
			}
			ord, err := e.Compare(a, b)
			require.NoError(t, err)
			dom, err := e.Dominates(a, b)
			require.NoError(t, err)
			assert.Equal(t, ord == ir.After, dom, "events %d and %d", i, j)

			inv, err := e.Compare(b, a)
			require.NoError(t, err)
			assert.Equal(t, ord.Inverse(), inv)
		}
	}
}

func TestCompare_PaddedClocks(t *testing.T) {
	e := newTestEngine(t, "a")
	early := mustTick(t, e, "a")

	_, err := e.RegisterReplica("b")
	require.NoError(t, err)
	_, err = e.Merge("b", "a")
	require.NoError(t, err)
	late := mustTick(t, e, "b")

	require.Len(t, early.Clock, 1)
	require.Len(t, late.Clock, 2)

	ord, err := e.Compare(early.ID, late.ID)
	require.NoError(t, err)
	assert.Equal(t, ir.Before, ord)

	dom, err := e.Dominates(late.ID, early.ID)
	require.NoError(t, err)
	assert.True(t, dom)
}

func TestCompare_EventNotFound(t *testing.T) {
	e := newTestEngine(t, "a")
	ev := mustTick(t, e, "a")

	tests := []struct {
		name string
		a, b ir.EventID
	}{
		{"first missing", "missing", ev.ID},
		{"second missing", ev.ID, "missing"},
		{"both missing", "x", "y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Compare(tt.a, tt.b)
			require.Error(t, err)
			assert.True(t, IsEventNotFound(err))

			_, err = e.Dominates(tt.a, tt.b)
			require.Error(t, err)
			assert.True(t, IsEventNotFound(err))
		})
	}

	_, err := e.EventClock("missing")
	require.Error(t, err)
	assert.True(t, IsEventNotFound(err))
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCompare_ReportsFirstMissingEvent(t *testing.T) {
	e := New()
	_, err := e.Compare("x", "y")
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, "x", engErr.Event)
}
