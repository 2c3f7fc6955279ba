// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the memo-engine pipeline.
package types

import "time"

// ResearchResult holds the outcome of one web-research query for a single
// category. Failed categories carry an Error and are skipped downstream.
type ResearchResult struct {
	// Content is the narrative text returned by the research API.
	Content string `json:"content" yaml:"content"`

	// Citations lists the source URLs backing Content, in the order the
	// research API returned them. Duplicates are preserved.
	Citations []string `json:"citations,omitempty" yaml:"citations,omitempty"`

	// SearchSuccessful reports whether the query completed.
	SearchSuccessful bool `json:"search_successful" yaml:"search_successful"`

	// Error records the failure message for unsuccessful queries.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// SourceRecord aggregates all raw gathered data for one company research
// run. It is immutable once stored: memo generation only reads it, and the
// embedding cache references it by ID.
type SourceRecord struct {
	// ID is the database identifier, zero before the record is stored.
	ID int64 `json:"id" yaml:"id"`

	// CompanyName is the researched company's display name.
	CompanyName string `json:"company_name" yaml:"company_name"`

	// CompanyID is the CRM identifier for the company, if known.
	CompanyID string `json:"company_id,omitempty" yaml:"company_id,omitempty"`

	// CRMData holds raw CRM fields keyed by field name. Values are kept
	// untyped since CRM exports mix strings and numbers.
	CRMData map[string]any `json:"crm_data,omitempty" yaml:"crm_data,omitempty"`

	// Research holds narrative research content keyed by category name
	// (e.g. "market_analysis").
	Research map[string]ResearchResult `json:"research,omitempty" yaml:"research,omitempty"`

	// Statistics holds quantitative research content keyed by category
	// name (e.g. "financial_metrics"). Same shape as Research, separate
	// namespace.
	Statistics map[string]ResearchResult `json:"statistics,omitempty" yaml:"statistics,omitempty"`

	// CreatedAt is the gathering timestamp.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// HasResearch reports whether the record carries any research or statistics
// content at all. A record without it cannot seed a knowledge base.
func (s *SourceRecord) HasResearch() bool {
	return len(s.Research) > 0 || len(s.Statistics) > 0
}
