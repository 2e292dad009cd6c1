package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"MarketPulse/internal/common"
	"MarketPulse/internal/model"
)

// SQLiteRecorder persists cycle telemetry to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *common.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *common.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the broadcaster writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.With("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS broadcast_cycles (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			source       TEXT,
			cycle        INTEGER,
			duration_ms  INTEGER,
			available    INTEGER,
			unavailable  INTEGER,
			subscribers  INTEGER,
			delivered    INTEGER,
			dropped      INTEGER,
			reason       TEXT,
			error        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON broadcast_cycles(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(ctx context.Context, rep model.CycleReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errText string
	if rep.Err != nil {
		errText = rep.Err.Error()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO broadcast_cycles
		(timestamp, source, cycle, duration_ms, available, unavailable,
		 subscribers, delivered, dropped, reason, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		rep.StartedAt.Unix(), rep.Source, int64(rep.Cycle), rep.Duration.Milliseconds(),
		rep.Available, rep.Unavailable,
		rep.Subscribers, rep.Delivered, rep.Dropped,
		model.Reason(rep.Err), errText,
	)
	if err != nil {
		return fmt.Errorf("record cycle %d: %w", rep.Cycle, err)
	}
	return nil
}

// Recent returns up to limit cycles, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]CycleRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT timestamp, source, cycle, duration_ms, available,
		unavailable, subscribers, delivered, dropped, reason, error
		FROM broadcast_cycles ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	out := []CycleRow{}
	for rows.Next() {
		var row CycleRow
		var ts, cycle int64
		if err := rows.Scan(&ts, &row.Source, &cycle, &row.DurationMs, &row.Available,
			&row.Unavailable, &row.Subscribers, &row.Delivered, &row.Dropped,
			&row.Reason, &row.Error); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		row.Timestamp = time.Unix(ts, 0)
		row.Cycle = uint64(cycle)
		out = append(out, row)
	}
	return out, rows.Err()
}

// Prune deletes cycles that started before the cutoff.
func (r *SQLiteRecorder) Prune(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM broadcast_cycles WHERE timestamp < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune cycles: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
