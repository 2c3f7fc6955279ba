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

// CreateMemoRequest inserts a pending MemoRequest row and returns its ID.
func (s *Store) CreateMemoRequest(ctx context.Context, sourceID int64, companyName string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO memo_requests (source_id, company_name, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sourceID, companyName, string(types.RunPending), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting memo request: %w", err)
	}
	return res.LastInsertId()
}

// UpdateMemoRequest sets the aggregate status and error log of a request.
func (s *Store) UpdateMemoRequest(ctx context.Context, id int64, status types.RunStatus, errorLog string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`UPDATE memo_requests SET status = ?, error_log = ?, updated_at = ? WHERE id = ?`,
		string(status), errorLog, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating memo request: %w", err)
	}
	return nil
}

// GetMemoRequest loads a MemoRequest by ID.
func (s *Store) GetMemoRequest(ctx context.Context, id int64) (*types.MemoRequest, error) {
	var (
		req       types.MemoRequest
		status    string
		errorLog  sql.NullString
		createdAt string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_id, company_name, status, error_log, created_at, updated_at
		 FROM memo_requests WHERE id = ?`, id,
	).Scan(&req.ID, &req.SourceID, &req.CompanyName, &status, &errorLog, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("memo request %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("loading memo request: %w", err)
	}

	req.Status = types.RunStatus(status)
	req.ErrorLog = errorLog.String
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		req.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		req.UpdatedAt = t
	}
	return &req, nil
}

// InsertSection persists one MemoSection row. Exactly one row is written per
// (request, section name): re-inserting the same section is a caller bug and
// surfaces as a UNIQUE constraint error.
func (s *Store) InsertSection(ctx context.Context, sec *types.MemoSection) (int64, error) {
	sourcesJSON, _ := json.Marshal(sec.Sources)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO memo_sections (request_id, section_name, content, data_sources, status, error_log, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sec.RequestID, sec.Name, sec.Content, string(sourcesJSON),
		string(sec.Status), sec.ErrorLog, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting section %s: %w", sec.Name, err)
	}
	return res.LastInsertId()
}

// UpdateSectionContent rewrites a section's content in place. Used by the
// citation unifier, which performs a single update per section.
func (s *Store) UpdateSectionContent(ctx context.Context, id int64, content string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`UPDATE memo_sections SET content = ?, updated_at = ? WHERE id = ?`,
		content, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating section content: %w", err)
	}
	return nil
}

// SectionsByRequest loads all sections for a memo request in insertion order.
func (s *Store) SectionsByRequest(ctx context.Context, requestID int64) ([]types.MemoSection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, section_name, content, data_sources, status, error_log, created_at, updated_at
		 FROM memo_sections WHERE request_id = ? ORDER BY id`, requestID)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	var sections []types.MemoSection
	for rows.Next() {
		var (
			sec         types.MemoSection
			content     sql.NullString
			sourcesJSON sql.NullString
			status      string
			errorLog    sql.NullString
			createdAt   string
			updatedAt   string
		)
		if err := rows.Scan(&sec.ID, &sec.RequestID, &sec.Name, &content,
			&sourcesJSON, &status, &errorLog, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		sec.Content = content.String
		sec.Status = types.SectionStatus(status)
		sec.ErrorLog = errorLog.String
		if sourcesJSON.Valid && sourcesJSON.String != "" {
			json.Unmarshal([]byte(sourcesJSON.String), &sec.Sources)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			sec.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			sec.UpdatedAt = t
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}
