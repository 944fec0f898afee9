// Copyright 2026 VaultFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/tursodatabase/go-libsql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Store is a SQLite-backed vault metadata store. It holds the entry tree
// and the per-owner quota ledger.
type Store struct {
	path  string
	db    *sql.DB
	bunDB *bun.DB
}

// execPragma runs a PRAGMA statement using Query (not Exec) because libsql
// returns rows for PRAGMA statements. The result rows are drained and closed.
func execPragma(db *sql.DB, pragma string) error {
	rows, err := db.Query(pragma)
	if err != nil {
		return err
	}
	rows.Close()
	return nil
}

// applyPragmas sets essential PRAGMAs after opening a libsql connection.
// libsql ignores DSN-based _pragma=value parameters, so all PRAGMAs must be
// set explicitly via SQL statements after the connection is opened.
func applyPragmas(db *sql.DB) error {
	// Busy timeout MUST be set first so the journal_mode conversion below
	// waits for locks instead of failing with "database is locked".
	if err := execPragma(db, fmt.Sprintf("PRAGMA busy_timeout = %d", GetBusyTimeout())); err != nil {
		return fmt.Errorf("failed to set busy_timeout: %w", err)
	}

	// WAL mode: concurrent readers during writes.
	if err := execPragma(db, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to set journal_mode=WAL: %w", err)
	}

	// synchronous=NORMAL is safe against process crashes in WAL mode and
	// avoids an fsync on every commit.
	if err := execPragma(db, "PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("failed to set synchronous=NORMAL: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return nil
}

// Create creates a new vault database at path.
func Create(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file already exists: %s", path)
	}

	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		os.Remove(path)
		return nil, err
	}

	if err := execStatements(db, vaultSchema); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := execStatements(db, initVault, SchemaVersion); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to initialize vault: %w", err)
	}

	return newStore(path, db), nil
}

// Open opens an existing vault database.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("vault does not exist: %s", path)
	}

	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	var fileType string
	err = db.QueryRow(`SELECT value FROM schema_info WHERE key = 'type'`).Scan(&fileType)
	if err != nil || fileType != "vault" {
		db.Close()
		return nil, fmt.Errorf("not a vault database: %s", path)
	}

	return newStore(path, db), nil
}

// OpenOrCreate opens the vault database at path, creating it if missing.
func OpenOrCreate(path string) (*Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Create(path)
	}
	return Open(path)
}

func newStore(path string, db *sql.DB) *Store {
	return &Store{
		path:  path,
		db:    db,
		bunDB: bun.NewDB(db, sqlitedialect.New()),
	}
}

// Path returns the vault database file path.
func (s *Store) Path() string {
	return s.path
}

// DB returns the underlying bun database for type-safe queries.
func (s *Store) DB() *bun.DB {
	return s.bunDB
}

// Close closes the vault database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
