// Package sqlitejournal keeps failed event handler results so an operator or
// a reconciliation job can replay them.
package sqlitejournal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-saga/internal/domain/outbox"
	"go.opentelemetry.io/otel/trace"

	// Pure-Go driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS handler_failures (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id     TEXT    NOT NULL,
    event_name   TEXT    NOT NULL,
    handler      TEXT    NOT NULL,
    outcome      TEXT    NOT NULL,
    error        TEXT    NOT NULL DEFAULT '',
    duration_ms  INTEGER NOT NULL DEFAULT 0,
    trace_id     TEXT    NOT NULL DEFAULT '',
    occurred_at  TEXT    NOT NULL,
    resolved_at  TEXT
);

CREATE INDEX IF NOT EXISTS idx_handler_failures_open ON handler_failures(resolved_at, id);
CREATE INDEX IF NOT EXISTS idx_handler_failures_event ON handler_failures(event_id, handler);
`

const timeLayout = "2006-01-02T15:04:05.999999999Z"

var ErrEntryNotFound = errors.New("sqlitejournal: entry not found")

// Entry is one journaled handler failure.
type Entry struct {
	ID         int64
	EventID    string
	EventName  string
	Handler    string
	Outcome    domoutbox.Outcome
	Error      string
	Duration   time.Duration
	TraceID    string
	OccurredAt time.Time
}

// Journal implements outbox.ResultSink.
type Journal struct {
	db *sql.DB
}

func Open(path string) (*Journal, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitejournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitejournal: apply schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores failed results and ignores everything else.
func (j *Journal) Record(ctx context.Context, r domoutbox.Result) error {
	if !r.Failed() {
		return nil
	}
	msg := ""
	if r.Err != nil {
		msg = r.Err.Error()
	}
	at := r.At
	if at.IsZero() {
		at = time.Now()
	}
	traceID := ""
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		traceID = sc.TraceID().String()
	}

	const q = `
		INSERT INTO handler_failures
			(event_id, event_name, handler, outcome, error, duration_ms, trace_id, occurred_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := j.db.ExecContext(ctx, q,
		r.EventID,
		r.EventName,
		r.Handler,
		string(r.Outcome),
		msg,
		r.Duration.Milliseconds(),
		traceID,
		at.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlitejournal: record %s/%s: %w", r.Handler, r.EventID, err)
	}
	return nil
}

// Unresolved lists open failures, oldest first.
func (j *Journal) Unresolved(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
		SELECT id, event_id, event_name, handler, outcome, error, duration_ms, trace_id, occurred_at
		FROM   handler_failures
		WHERE  resolved_at IS NULL
		ORDER  BY id
		LIMIT  ?`
	rows, err := j.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlitejournal: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			durationMS int64
			occurredAt string
		)
		if err := rows.Scan(&e.ID, &e.EventID, &e.EventName, &e.Handler, &e.Outcome, &e.Error, &durationMS, &e.TraceID, &occurredAt); err != nil {
			return nil, fmt.Errorf("sqlitejournal: scan: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if e.OccurredAt, err = time.Parse(timeLayout, occurredAt); err != nil {
			return nil, fmt.Errorf("sqlitejournal: parse time %q: %w", occurredAt, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Resolve closes an entry once it has been reconciled.
func (j *Journal) Resolve(ctx context.Context, id int64) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE handler_failures SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL`,
		time.Now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("sqlitejournal: resolve %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlitejournal: resolve %d: %w", id, err)
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}
