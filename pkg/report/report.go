// Package report keeps the history of compliance findings in SQLite.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Honestpuck/jss-tools/pkg/compliance"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS findings(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	computer_id TEXT NOT NULL,
	machine TEXT,
	name TEXT,
	email TEXT,
	reason TEXT NOT NULL,
	os TEXT,
	build TEXT,
	checked_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_findings_checked ON findings(checked_at);
CREATE INDEX IF NOT EXISTS idx_findings_computer ON findings(computer_id);`

// Config locates the findings database.
type Config struct {
	Path string `json:"path" yaml:"path" default:"jss-tools.db"`
}

// Store is a findings history backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("report dir: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open report db: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping report db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init report schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save stores findings in one transaction.
func (s *Store) Save(ctx context.Context, findings []compliance.Finding) error {
	if len(findings) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO findings(computer_id, machine, name, email, reason, os, build, checked_at) VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range findings {
		checked := f.CheckedAt
		if checked.IsZero() {
			checked = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, f.ComputerID, f.Machine, f.Name, f.Email, f.Reason, f.OS, f.Build, checked.UnixMilli()); err != nil {
			return fmt.Errorf("insert finding for %s: %w", f.ComputerID, err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit findings, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]compliance.Finding, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT computer_id, machine, name, email, reason, os, build, checked_at FROM findings ORDER BY checked_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []compliance.Finding
	for rows.Next() {
		var f compliance.Finding
		var ms int64
		if err := rows.Scan(&f.ComputerID, &f.Machine, &f.Name, &f.Email, &f.Reason, &f.OS, &f.Build, &ms); err != nil {
			return nil, err
		}
		f.CheckedAt = time.UnixMilli(ms).UTC()
		out = append(out, f)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
