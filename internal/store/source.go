// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/memo-engine/pkg/types"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = sql.ErrNoRows

// CreateSource inserts a gathered SourceRecord and returns its ID.
func (s *Store) CreateSource(ctx context.Context, rec *types.SourceRecord) (int64, error) {
	crmJSON, _ := json.Marshal(rec.CRMData)
	researchJSON, _ := json.Marshal(rec.Research)
	statsJSON, _ := json.Marshal(rec.Statistics)

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sources (company_name, company_id, crm_data, research_data, statistics_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.CompanyName, rec.CompanyID,
		string(crmJSON), string(researchJSON), string(statsJSON),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting source: %w", err)
	}
	return res.LastInsertId()
}

// GetSource loads a SourceRecord by ID.
func (s *Store) GetSource(ctx context.Context, id int64) (*types.SourceRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_name, company_id, crm_data, research_data, statistics_data, created_at
		 FROM sources WHERE id = ?`, id)
	return scanSource(row)
}

// ListSources returns all stored SourceRecords, newest first.
func (s *Store) ListSources(ctx context.Context) ([]types.SourceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_name, company_id, crm_data, research_data, statistics_data, created_at
		 FROM sources ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var records []types.SourceRecord
	for rows.Next() {
		rec, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*types.SourceRecord, error) {
	var (
		rec          types.SourceRecord
		companyID    sql.NullString
		crmJSON      sql.NullString
		researchJSON sql.NullString
		statsJSON    sql.NullString
		createdAt    string
	)
	if err := row.Scan(&rec.ID, &rec.CompanyName, &companyID,
		&crmJSON, &researchJSON, &statsJSON, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("source not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}

	rec.CompanyID = companyID.String
	if crmJSON.Valid && crmJSON.String != "" {
		json.Unmarshal([]byte(crmJSON.String), &rec.CRMData)
	}
	if researchJSON.Valid && researchJSON.String != "" {
		json.Unmarshal([]byte(researchJSON.String), &rec.Research)
	}
	if statsJSON.Valid && statsJSON.String != "" {
		json.Unmarshal([]byte(statsJSON.String), &rec.Statistics)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}

	return &rec, nil
}

// SaveEmbeddings persists one EmbeddingEntry per chunk in a single
// transaction, preserving input order. Entries for a source are written once
// and never mutated afterwards; concurrent first-time population would write
// redundant rows, which wastes work but does not corrupt reads because
// EmbeddingsBySource returns a consistent ordered snapshot.
func (s *Store) SaveEmbeddings(ctx context.Context, sourceID int64, entries []types.EmbeddingEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO embeddings (source_id, chunk_index, chunk_text, category, chunk_type, sources, vector, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, e := range entries {
		sourcesJSON, _ := json.Marshal(e.Chunk.Sources)
		vectorJSON, err := json.Marshal(e.Vector)
		if err != nil {
			return fmt.Errorf("encoding vector: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			sourceID, e.Chunk.Index, e.Chunk.Text, e.Chunk.Category,
			string(e.Chunk.Type), string(sourcesJSON), string(vectorJSON), now,
		); err != nil {
			return fmt.Errorf("inserting embedding: %w", err)
		}
	}

	return tx.Commit()
}

// EmbeddingsBySource loads all EmbeddingEntries for a source in insertion
// order, so index position i corresponds to the i-th stored chunk.
func (s *Store) EmbeddingsBySource(ctx context.Context, sourceID int64) ([]types.EmbeddingEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_id, chunk_index, chunk_text, category, chunk_type, sources, vector
		 FROM embeddings WHERE source_id = ? ORDER BY id`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var entries []types.EmbeddingEntry
	for rows.Next() {
		var (
			e           types.EmbeddingEntry
			chunkType   string
			sourcesJSON sql.NullString
			vectorJSON  string
		)
		if err := rows.Scan(&e.ID, &e.SourceID, &e.Chunk.Index, &e.Chunk.Text,
			&e.Chunk.Category, &chunkType, &sourcesJSON, &vectorJSON); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		e.Chunk.Type = types.ChunkType(chunkType)
		if sourcesJSON.Valid && sourcesJSON.String != "" {
			json.Unmarshal([]byte(sourcesJSON.String), &e.Chunk.Sources)
		}
		if err := json.Unmarshal([]byte(vectorJSON), &e.Vector); err != nil {
			return nil, fmt.Errorf("decoding vector: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
