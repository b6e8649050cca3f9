package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists run records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS runs (
        id TEXT PRIMARY KEY,
        ts INTEGER,
        backend TEXT,
        status TEXT,
        objective REAL,
        record TEXT
    );
    CREATE INDEX IF NOT EXISTS runs_ts ON runs (ts);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append inserts rec. Appending an existing id fails.
func (s *SQLiteStore) Append(ctx context.Context, rec RunRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, ts, backend, status, objective, record) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Time.UnixNano(), rec.Backend, string(rec.Status), rec.Objective, string(b))
	return err
}

// Query returns matching records ordered by time.
func (s *SQLiteStore) Query(ctx context.Context, q RunQuery) ([]RunRecord, error) {
	var args []any
	query := `SELECT ts, record FROM runs WHERE 1=1`
	if !q.Since.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Since.UnixNano())
	}
	if !q.Until.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.Until.UnixNano())
	}
	if q.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(q.Status))
	}
	if q.Backend != "" {
		query += ` AND backend = ?`
		args = append(args, q.Backend)
	}
	if q.Limit > 0 {
		query = `SELECT ts, record FROM (` + query + ` ORDER BY ts DESC LIMIT ?) ORDER BY ts`
		args = append(args, q.Limit)
	} else {
		query += ` ORDER BY ts`
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []RunRecord
	for rows.Next() {
		var (
			ts   int64
			data string
		)
		if err := rows.Scan(&ts, &data); err != nil {
			return nil, err
		}
		var r RunRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
