package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/causal/internal/ir"
)

func TestListSessions_Empty(t *testing.T) {
	s := createTestStore(t)

	sessions, err := s.ListSessions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
}

func TestListSessions_OrderedByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"b", "c", "a"} {
		require.NoError(t, s.CreateSession(ctx, testSession(id)))
	}

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "a", sessions[0].ID)
	assert.Equal(t, "b", sessions[1].ID)
	assert.Equal(t, "c", sessions[2].ID)
}

func TestReadSession_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSession(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReadOperations_Empty(t *testing.T) {
	s := createTestStore(t)

	ops, err := s.ReadOperations(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, ops)
	assert.Empty(t, ops)
}

func TestReadEvents_FilterByReplica(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ops, events := twoReplicaJournal()
	require.NoError(t, s.WriteSession(ctx, testSession("s1"), ops, events))

	r1, err := s.ReadEvents(ctx, "s1", "r1")
	require.NoError(t, err)
	require.Len(t, r1, 2)
	assert.Equal(t, events[0].ID, r1[0].ID)
	assert.Equal(t, events[2].ID, r1[1].ID)

	r2, err := s.ReadEvents(ctx, "s1", "r2")
	require.NoError(t, err)
	require.Len(t, r2, 1)
	assert.Equal(t, ir.Clock{0, 1}, r2[0].Clock)

	none, err := s.ReadEvents(ctx, "s1", "r9")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReadEvents_SessionsAreIsolated(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ops, events := twoReplicaJournal()
	require.NoError(t, s.WriteSession(ctx, testSession("s1"), ops, events))
	require.NoError(t, s.WriteSession(ctx, testSession("s2"), ops[:3], events[:1]))

	n1, err := s.CountEvents(ctx, "s1")
	require.NoError(t, err)
	n2, err := s.CountEvents(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 3, n1)
	assert.Equal(t, 1, n2)
}

func TestReadEvent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ops, events := twoReplicaJournal()
	require.NoError(t, s.WriteSession(ctx, testSession("s1"), ops, events))

	got, err := s.ReadEvent(ctx, "s1", events[2].ID)
	require.NoError(t, err)
	assert.Equal(t, events[2], got)

	_, err = s.ReadEvent(ctx, "s1", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = s.ReadEvent(ctx, "other", events[2].ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
