// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists source records, embeddings, and memo rows in a
// local SQLite database.
// Implements: docs/ARCHITECTURE § Persistence.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/memo-engine/pkg/types"
)

const dbFile = "memo.db"

// Store manages the memo-engine SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the SQLite database at dataDir/memo.db and
// creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			company_name TEXT NOT NULL,
			company_id TEXT,
			crm_data TEXT,
			research_data TEXT,
			statistics_data TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_id INTEGER NOT NULL REFERENCES sources(id),
			chunk_index INTEGER NOT NULL,
			chunk_text TEXT NOT NULL,
			category TEXT NOT NULL,
			chunk_type TEXT NOT NULL,
			sources TEXT,
			vector TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_embeddings_source_id ON embeddings(source_id)`,
		`CREATE TABLE IF NOT EXISTS memo_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_id INTEGER NOT NULL REFERENCES sources(id),
			company_name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			error_log TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memo_sections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id INTEGER NOT NULL REFERENCES memo_requests(id),
			section_name TEXT NOT NULL,
			content TEXT,
			data_sources TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			error_log TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(request_id, section_name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memo_sections_request_id ON memo_sections(request_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}
