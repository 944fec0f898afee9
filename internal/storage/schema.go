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
	"os"
	"strconv"
	"strings"
)

const SchemaVersion = "1"

// Default busy_timeout in milliseconds (30 seconds)
const DefaultBusyTimeout = 30000

// EnvBusyTimeout overrides the SQLite busy_timeout for all vault access.
const EnvBusyTimeout = "VAULTFS_BUSY_TIMEOUT"

// configBusyTimeout is the config-file busy_timeout (set via SetConfigBusyTimeout).
var configBusyTimeout int

// SetConfigBusyTimeout sets the config-based busy_timeout value.
// A value of 0 is ignored (use env var or default).
func SetConfigBusyTimeout(timeout int) {
	configBusyTimeout = timeout
}

// GetBusyTimeout returns the busy_timeout value.
// Priority: env > config file > default.
func GetBusyTimeout() int {
	if val := os.Getenv(EnvBusyTimeout); val != "" {
		if timeout, err := strconv.Atoi(val); err == nil && timeout > 0 {
			return timeout
		}
	}
	if configBusyTimeout > 0 {
		return configBusyTimeout
	}
	return DefaultBusyTimeout
}

// Schema SQL for a vault database
const vaultSchema = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- File/folder metadata. parent_id '' means the owner's root. Rows are never
-- physically removed: is_deleted marks a write-once tombstone.
CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    parent_id TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('folder', 'image', 'document', 'pdf')),
    size INTEGER NOT NULL DEFAULT 0 CHECK (size >= 0),
    blob_ref TEXT NOT NULL DEFAULT '',
    is_favorite INTEGER NOT NULL DEFAULT 0,
    is_deleted INTEGER NOT NULL DEFAULT 0,
    deleted_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- One namespace per parent: a live file and a live folder cannot share a
-- name under the same parent. Tombstones are excluded so names can be reused.
CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_sibling_name
    ON entries(owner_id, parent_id, name) WHERE is_deleted = 0;

-- Live listing per owner
CREATE INDEX IF NOT EXISTS idx_entries_owner_live ON entries(owner_id, is_deleted);

-- Children lookups for tree traversal
CREATE INDEX IF NOT EXISTS idx_entries_parent ON entries(owner_id, parent_id, is_deleted);

-- Recent files (created_at descending)
CREATE INDEX IF NOT EXISTS idx_entries_recent ON entries(owner_id, is_deleted, created_at DESC);

-- Per-owner quota ledger: materialized aggregate over live non-folder entries.
CREATE TABLE IF NOT EXISTS quotas (
    owner_id TEXT PRIMARY KEY,
    total_used INTEGER NOT NULL DEFAULT 0 CHECK (total_used >= 0),
    used_image INTEGER NOT NULL DEFAULT 0 CHECK (used_image >= 0),
    used_document INTEGER NOT NULL DEFAULT 0 CHECK (used_document >= 0),
    used_pdf INTEGER NOT NULL DEFAULT 0 CHECK (used_pdf >= 0),
    updated_at INTEGER NOT NULL
);
`

// Initial data for a fresh vault
const initVault = `
INSERT OR IGNORE INTO schema_info (key, value) VALUES ('version', ?);
INSERT OR IGNORE INTO schema_info (key, value) VALUES ('type', 'vault');
INSERT OR IGNORE INTO schema_info (key, value) VALUES ('created_at', datetime('now'));
`

// execStatements executes multiple SQL statements separated by semicolons.
// libsql doesn't support multi-statement Exec, so we split and execute
// individually, distributing positional args across statements.
func execStatements(db *sql.DB, sqlScript string, args ...interface{}) error {
	statements := splitStatements(sqlScript)
	argIdx := 0
	for _, stmt := range statements {
		if stmt == "" {
			continue
		}
		placeholders := strings.Count(stmt, "?")
		stmtArgs := args[argIdx : argIdx+placeholders]
		argIdx += placeholders
		if _, err := db.Exec(stmt, stmtArgs...); err != nil {
			return err
		}
	}
	return nil
}

// splitStatements splits a SQL script into individual statements
func splitStatements(script string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			statements = append(statements, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
