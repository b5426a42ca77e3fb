// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/gatehouse-dev/gatehouse/lib/codec"
	"github.com/gatehouse-dev/gatehouse/lib/schema"
	"github.com/gatehouse-dev/gatehouse/lib/sqlitepool"
)

const traceSchema = `
CREATE TABLE IF NOT EXISTS audit_trace (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	ts         INTEGER NOT NULL,
	actor      TEXT NOT NULL,
	capability TEXT NOT NULL,
	decision   TEXT NOT NULL,
	channel    TEXT NOT NULL,
	record     BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_trace_ts ON audit_trace(ts);
CREATE INDEX IF NOT EXISTS audit_trace_actor ON audit_trace(actor);
CREATE INDEX IF NOT EXISTS audit_trace_capability ON audit_trace(capability);
CREATE INDEX IF NOT EXISTS audit_trace_decision ON audit_trace(decision);
`

// TraceStore persists decision records to SQLite for operator queries.
// The full record is stored as CBOR; the indexed columns exist only to
// make filtering cheap.
type TraceStore struct {
	pool *sqlitepool.Pool
}

// TraceStoreOptions configures OpenTraceStore.
type TraceStoreOptions struct {
	// Path is the trace database file.
	Path string

	// PoolSize passes through to the connection pool.
	PoolSize int

	// Logger passes through to the connection pool.
	Logger *slog.Logger
}

// OpenTraceStore opens (or creates) the trace database.
func OpenTraceStore(opts TraceStoreOptions) (*TraceStore, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     opts.Path,
		PoolSize: opts.PoolSize,
		Logger:   opts.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, traceSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("audit: opening trace store: %w", err)
	}
	return &TraceStore{pool: pool}, nil
}

// Emit inserts the record. Implements Sink.
func (t *TraceStore) Emit(rec Record) error {
	blob, err := codec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("audit: encoding trace record: %w", err)
	}

	conn, err := t.pool.Take(context.Background())
	if err != nil {
		return err
	}
	defer t.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO audit_trace (ts, actor, capability, decision, channel, record)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				rec.Timestamp.UnixMilli(),
				rec.Actor,
				rec.CapabilityID,
				rec.Decision.String(),
				rec.Channel,
				blob,
			},
		})
	if err != nil {
		return fmt.Errorf("audit: inserting trace record: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (t *TraceStore) Close() error {
	return t.pool.Close()
}

// TraceFilter narrows a Query. Zero fields match everything.
type TraceFilter struct {
	Actor        string
	CapabilityID string

	// Decision filters to allow or deny when non-nil.
	Decision *schema.Decision

	// Since and Until bound the timestamp, inclusive on Since,
	// exclusive on Until. Zero times are open ends.
	Since time.Time
	Until time.Time

	// Limit caps the result count. Zero means 100.
	Limit int
}

// Query returns matching records, newest first.
func (t *TraceStore) Query(ctx context.Context, filter TraceFilter) ([]Record, error) {
	var where []string
	var args []any
	if filter.Actor != "" {
		where = append(where, "actor = ?")
		args = append(args, filter.Actor)
	}
	if filter.CapabilityID != "" {
		where = append(where, "capability = ?")
		args = append(args, filter.CapabilityID)
	}
	if filter.Decision != nil {
		where = append(where, "decision = ?")
		args = append(args, filter.Decision.String())
	}
	if !filter.Since.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, filter.Since.UnixMilli())
	}
	if !filter.Until.IsZero() {
		where = append(where, "ts < ?")
		args = append(args, filter.Until.UnixMilli())
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT record FROM audit_trace"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts DESC, id DESC LIMIT ?"
	args = append(args, limit)

	conn, err := t.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer t.pool.Put(conn)

	var out []Record
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			blob := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, blob)
			var rec Record
			if err := codec.Unmarshal(blob, &rec); err != nil {
				return fmt.Errorf("decoding trace record: %w", err)
			}
			out = append(out, rec)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("audit: querying trace store: %w", err)
	}
	return out, nil
}
