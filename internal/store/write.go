package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/causal/internal/ir"
)

// CreateSession inserts a session record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) CreateSession(ctx context.Context, sess ir.Session) error {
	if err := insertSession(ctx, s.db, sess); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// WriteSession writes a session with its operations and events in one
// transaction. Either everything is written or nothing is.
//
// Every insert uses ON CONFLICT DO NOTHING, so writing the same session
// twice is a no-op. Each event's seq is taken from the tick operation that
// produced it.
func (s *Store) WriteSession(ctx context.Context, sess ir.Session, ops []ir.Operation, events []ir.Event) error {
	tickSeq := make(map[ir.EventID]int64, len(events))
	for _, op := range ops {
		if op.Kind == ir.OpTick {
			tickSeq[op.EventID] = op.Seq
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write session: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := insertSession(ctx, tx, sess); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	for _, op := range ops {
		if err := insertOperation(ctx, tx, sess.ID, op); err != nil {
			return fmt.Errorf("write session: %w", err)
		}
	}

	for _, ev := range events {
		seq, ok := tickSeq[ev.ID]
		if !ok {
			return fmt.Errorf("write session: event %s has no tick operation", ev.ID)
		}
		if err := insertEvent(ctx, tx, sess.ID, ev, seq); err != nil {
			return fmt.Errorf("write session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write session: commit: %w", err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSession(ctx context.Context, db execer, sess ir.Session) error {
	if sess.ID == "" {
		return fmt.Errorf("session id must not be empty")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions (id, engine_version, ir_version)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, sess.ID, sess.EngineVersion, sess.IRVersion)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func insertOperation(ctx context.Context, db execer, sessionID string, op ir.Operation) error {
	clockJSON, err := marshalClock(op.Clock)
	if err != nil {
		return fmt.Errorf("insert operation %d: %w", op.Seq, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO operations
		(session_id, seq, kind, replica, other, dim_index, event_id, clock)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		sessionID,
		op.Seq,
		string(op.Kind),
		string(op.Replica),
		string(op.Other),
		op.Index,
		string(op.EventID),
		clockJSON,
	)
	if err != nil {
		return fmt.Errorf("insert operation %d: %w", op.Seq, err)
	}
	return nil
}

func insertEvent(ctx context.Context, db execer, sessionID string, ev ir.Event, seq int64) error {
	clockJSON, err := marshalClock(ev.Clock)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", ev.ID, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO events
		(session_id, id, replica, dim_index, counter, nonce, clock, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, id) DO NOTHING
	`,
		sessionID,
		string(ev.ID),
		string(ev.Replica),
		ev.Index,
		int64(ev.Counter),
		ev.Nonce,
		clockJSON,
		seq,
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", ev.ID, err)
	}
	return nil
}
