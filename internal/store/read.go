package store

import (
	"context"
	"fmt"

	"github.com/roach88/causal/internal/ir"
)

// ListSessions returns all sessions ordered by id.
// Session ids from the UUIDv7 generator sort by creation time.
//
// Returns an empty slice (not nil) if the store holds no sessions.
func (s *Store) ListSessions(ctx context.Context) ([]ir.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, engine_version, ir_version
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []ir.Session{}
	for rows.Next() {
		var sess ir.Session
		if err := rows.Scan(&sess.ID, &sess.EngineVersion, &sess.IRVersion); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadSession retrieves a single session by ID.
// Wraps sql.ErrNoRows if not found.
func (s *Store) ReadSession(ctx context.Context, id string) (ir.Session, error) {
	var sess ir.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, engine_version, ir_version
		FROM sessions
		WHERE id = ?
	`, id).Scan(&sess.ID, &sess.EngineVersion, &sess.IRVersion)
	if err != nil {
		return ir.Session{}, fmt.Errorf("read session: %w", err)
	}
	return sess, nil
}

// ReadOperations returns a session's operations in submission order.
//
// Returns an empty slice (not nil) if none exist.
func (s *Store) ReadOperations(ctx context.Context, sessionID string) ([]ir.Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, replica, other, dim_index, event_id, clock
		FROM operations
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	ops := []ir.Operation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

// ReadEvents returns a session's events in tick order.
// Optionally restricted to one replica; pass "" for all replicas.
//
// Returns an empty slice (not nil) if none exist.
func (s *Store) ReadEvents(ctx context.Context, sessionID string, replica ir.ReplicaID) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, replica, dim_index, counter, nonce, clock
		FROM events
		WHERE session_id = ? AND (? = '' OR replica = ?)
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID, string(replica), string(replica))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ReadEvent retrieves a single event of a session.
// Wraps sql.ErrNoRows if not found.
func (s *Store) ReadEvent(ctx context.Context, sessionID string, id ir.EventID) (ir.Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, replica, dim_index, counter, nonce, clock
		FROM events
		WHERE session_id = ? AND id = ?
	`, sessionID, string(id))
	return scanEvent(row)
}

// CountEvents returns the number of events recorded for a session.
func (s *Store) CountEvents(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events WHERE session_id = ?
	`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOperation(row scanner) (ir.Operation, error) {
	var op ir.Operation
	var kind, replica, other, eventID, clockJSON string

	if err := row.Scan(&op.Seq, &kind, &replica, &other, &op.Index, &eventID, &clockJSON); err != nil {
		return ir.Operation{}, fmt.Errorf("scan operation: %w", err)
	}

	k, err := ir.ParseOperationKind(kind)
	if err != nil {
		return ir.Operation{}, fmt.Errorf("scan operation %d: %w", op.Seq, err)
	}
	op.Kind = k
	op.Replica = ir.ReplicaID(replica)
	op.Other = ir.ReplicaID(other)
	op.EventID = ir.EventID(eventID)

	c, err := unmarshalClock(clockJSON)
	if err != nil {
		return ir.Operation{}, fmt.Errorf("scan operation %d: %w", op.Seq, err)
	}
	op.Clock = c
	return op, nil
}

func scanEvent(row scanner) (ir.Event, error) {
	var ev ir.Event
	var id, replica, clockJSON string
	var counter int64

	if err := row.Scan(&id, &replica, &ev.Index, &counter, &ev.Nonce, &clockJSON); err != nil {
		return ir.Event{}, fmt.Errorf("scan event: %w", err)
	}
	ev.ID = ir.EventID(id)
	ev.Replica = ir.ReplicaID(replica)
	ev.Counter = uint64(counter)

	c, err := unmarshalClock(clockJSON)
	if err != nil {
		return ir.Event{}, fmt.Errorf("scan event %s: %w", id, err)
	}
	ev.Clock = c
	return ev, nil
}
