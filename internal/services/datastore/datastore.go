// Package datastore implements ridge's datastore/backup service (a
// SPEC_FULL.md domain-stack addition, listed as "out of scope" for the
// CORE but named in spec.md §6 "Service ids"). Grounded directly on the
// teacher's internal/infra/sqlite/db.go: pure-Go modernc.org/sqlite, WAL
// mode, a single-writer connection pool, and an idempotent migration.
package datastore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/routing"
)

// Service persists backup metadata in a local sqlite database.
// It is the reference implementation of the "persistence" collaborator
// spec.md §1 explicitly keeps out of the scheduling/framework core.
type Service struct {
	path string
	db   *sql.DB
}

// New constructs a datastore service backed by the sqlite file at path.
func New(path string) *Service {
	return &Service{path: path}
}

func (s *Service) Label() string { return "datastore" }
func (s *Service) ID() uint32    { return routing.ServiceIDDatastore }

func (s *Service) Setup(*framework.Environment) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("datastore: create data dir: %w", err)
	}
	dsn := s.path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("datastore: open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("datastore: ping sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return fmt.Errorf("datastore: migrate: %w", err)
	}
	s.db = db
	return nil
}

func (s *Service) Start(*framework.Environment) error { return nil }

func (s *Service) Shutdown(*framework.Environment) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS backup_manifest (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		database_name TEXT NOT NULL,
		taken_at     INTEGER NOT NULL,
		size_bytes   INTEGER NOT NULL
	)`)
	return err
}

// Ping verifies the underlying sqlite connection is reachable, for use as
// a debugsvc health check.
func (s *Service) Ping() error {
	if s.db == nil {
		return fmt.Errorf("datastore: not started")
	}
	return s.db.Ping()
}

// RecordBackup inserts a manifest row for a completed backup.
func (s *Service) RecordBackup(databaseName string, takenAtUnix int64, sizeBytes int64) error {
	_, err := s.db.Exec(`INSERT INTO backup_manifest (database_name, taken_at, size_bytes) VALUES (?, ?, ?)`,
		databaseName, takenAtUnix, sizeBytes)
	return err
}

// Call implements framework.Service: it ignores the request payload and
// always lists the recorded backups, returning a newline-joined summary as
// the body.
func (s *Service) Call(req contract.Request, resp contract.Response) (bool, error) {
	rows, err := s.db.Query(`SELECT database_name, taken_at, size_bytes FROM backup_manifest ORDER BY taken_at DESC`)
	if err != nil {
		return false, resp.Error(contract.Record{Code: contract.CodeInvalidRequest, Message: err.Error()})
	}
	defer rows.Close()

	var out []byte
	for rows.Next() {
		var name string
		var takenAt, size int64
		if err := rows.Scan(&name, &takenAt, &size); err != nil {
			return false, resp.Error(contract.Record{Code: contract.CodeInvalidRequest, Message: err.Error()})
		}
		out = append(out, []byte(fmt.Sprintf("%s %d %d\n", name, takenAt, size))...)
	}
	if err := rows.Err(); err != nil {
		return false, resp.Error(contract.Record{Code: contract.CodeInvalidRequest, Message: err.Error()})
	}
	return true, resp.Body(out)
}
