package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection keeps PutMany transactions and reads strictly ordered.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			scope TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			schema_version INTEGER NOT NULL DEFAULT 0,
			updated_ts TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (scope, key)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, scope, key string) (Record, bool, error) {
	if s.db == nil {
		return Record{}, false, ErrClosed
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT key, value, schema_version, updated_ts
		FROM kv
		WHERE scope = ? AND key = ?
	`, scope, key)
	var (
		rec        Record
		value      string
		updatedRaw string
	)
	if err := row.Scan(&rec.Key, &value, &rec.SchemaVersion, &updatedRaw); err != nil {
		if err == sql.ErrNoRows {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	rec.Value = []byte(value)
	if t, err := time.Parse(timeLayout, updatedRaw); err == nil {
		rec.UpdatedTS = t
	}
	return rec, true, nil
}

func (s *SQLiteStore) PutMany(ctx context.Context, scope string, records []Record) error {
	if strings.TrimSpace(scope) == "" {
		return ErrEmptyScope
	}
	if len(records) == 0 {
		return nil
	}
	if s.db == nil {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, rec := range records {
		updated := rec.UpdatedTS
		if updated.IsZero() {
			updated = time.Now().UTC()
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO kv(scope, key, value, schema_version, updated_ts) VALUES(?, ?, ?, ?, ?)
			ON CONFLICT(scope, key) DO UPDATE SET
				value = excluded.value,
				schema_version = excluded.schema_version,
				updated_ts = excluded.updated_ts
		`, scope, rec.Key, string(rec.Value), rec.SchemaVersion, updated.UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("put %s: %w", rec.Key, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) Keys(ctx context.Context, scope string) ([]string, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv WHERE scope = ? ORDER BY key`, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"
