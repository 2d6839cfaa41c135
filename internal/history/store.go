package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alokkulkarni/agentOchestrator-sub002/pkg/api"
)

// Store is a SQLite-backed record of past health probes.
type Store struct{ db *sql.DB }

//go:embed migrations/*.sql
var migrationFS embed.FS

// Open creates the parent directory when needed, opens the database and
// applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema, err := migrationFS.ReadFile("migrations/0001_init.sql")
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// Entry is one stored probe result.
type Entry struct {
	ID         int64
	Service    string
	Status     api.Status
	Message    string
	DurationMS int64
	CheckedAt  time.Time
}

// Record stores one probe result.
func (s *Store) Record(ctx context.Context, check api.Check) error {
	at := check.LastChecked
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO probes (service, status, message, duration_ms, checked_at) VALUES (?, ?, ?, ?, ?)`,
		check.Name, string(check.Status), check.Message, check.DurationMS, at.UTC())
	if err != nil {
		return fmt.Errorf("record probe: %w", err)
	}
	return nil
}

// RecordAll stores a batch of probe results, stopping at the first failure.
func (s *Store) RecordAll(ctx context.Context, checks []api.Check) error {
	for _, c := range checks {
		if err := s.Record(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns the newest entries, optionally filtered by service.
func (s *Store) Recent(ctx context.Context, service string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, service, status, message, duration_ms, checked_at FROM probes`
	args := []any{}
	if service != "" {
		query += ` WHERE service = ?`
		args = append(args, service)
	}
	query += ` ORDER BY checked_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query probes: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var status string
		if err := rows.Scan(&e.ID, &e.Service, &status, &e.Message, &e.DurationMS, &e.CheckedAt); err != nil {
			return nil, err
		}
		e.Status = api.Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes entries older than the cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	res, err := s.db.ExecContext(ctx, `DELETE FROM probes WHERE checked_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune probes: %w", err)
	}
	return res.RowsAffected()
}

// Ping verifies the database handle.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("db not initialized")
	}
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
