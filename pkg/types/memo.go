// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SectionStatus tracks one memo section's generation outcome.
type SectionStatus string

const (
	SectionPending   SectionStatus = "pending"
	SectionCompleted SectionStatus = "completed"
	SectionFailed    SectionStatus = "failed"
)

// RunStatus is the aggregate outcome of a memo generation run.
// All sections failed means RunFailed; zero failures means RunCompleted;
// a mix means RunPartialSuccess.
type RunStatus string

const (
	RunPending        RunStatus = "pending"
	RunCompleted      RunStatus = "completed"
	RunPartialSuccess RunStatus = "partial_success"
	RunFailed         RunStatus = "failed"
)

// MemoRequest aggregates the sections of one memo generation run for a
// company. Its status is derived from section outcomes.
type MemoRequest struct {
	// ID is the database identifier.
	ID int64 `json:"id" yaml:"id"`

	// SourceID links the request to the SourceRecord it draws on.
	SourceID int64 `json:"source_id" yaml:"source_id"`

	// CompanyName is copied from the source record for display.
	CompanyName string `json:"company_name" yaml:"company_name"`

	// Status is the aggregate run status.
	Status RunStatus `json:"status" yaml:"status"`

	// ErrorLog records a run-level failure message (e.g. knowledge base
	// build failure). Empty on success.
	ErrorLog string `json:"error_log,omitempty" yaml:"error_log,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// MemoSection is one generated section of a memo request. Exactly one row
// exists per (request, section name). Content is written once by the
// generator and rewritten once by the citation unifier.
type MemoSection struct {
	// ID is the database identifier.
	ID int64 `json:"id" yaml:"id"`

	// RequestID links the section to its MemoRequest.
	RequestID int64 `json:"request_id" yaml:"request_id"`

	// Name is the section key (e.g. "market_opportunity"), unique within
	// a request.
	Name string `json:"name" yaml:"name"`

	// Content is the generated section text. Local citation markers are
	// rewritten to global ones by the unifier.
	Content string `json:"content" yaml:"content"`

	// Sources lists the source strings the section actually used, in
	// local citation order: Sources[k-1] corresponds to marker [k] as
	// generated.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Status is completed or failed; pending only while generating.
	Status SectionStatus `json:"status" yaml:"status"`

	// ErrorLog records the failure message for failed sections.
	ErrorLog string `json:"error_log,omitempty" yaml:"error_log,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// SectionResult is the in-memory outcome of generating one section,
// returned to the run loop before citation unification.
type SectionResult struct {
	// Name is the section key.
	Name string `json:"name" yaml:"name"`

	// SectionID is the persisted MemoSection row ID.
	SectionID int64 `json:"section_id" yaml:"section_id"`

	// Status is completed or failed.
	Status SectionStatus `json:"status" yaml:"status"`

	// Content is the generated text with local citation markers.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Sources is the local-citation-ordered unique source list.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Error is the failure message for failed sections.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunResult summarizes a memo generation run.
type RunResult struct {
	// RequestID is the MemoRequest row the run wrote to.
	RequestID int64 `json:"request_id" yaml:"request_id"`

	// Status is the aggregate run status.
	Status RunStatus `json:"status" yaml:"status"`

	// Sections holds per-section outcomes in canonical order.
	Sections []SectionResult `json:"sections" yaml:"sections"`

	// Error is the run-level failure message, set only when Status is
	// RunFailed before any section was attempted.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Completed counts sections that generated successfully.
func (r *RunResult) Completed() int {
	n := 0
	for _, s := range r.Sections {
		if s.Status == SectionCompleted {
			n++
		}
	}
	return n
}

// Failed counts sections that failed to generate.
func (r *RunResult) Failed() int {
	return len(r.Sections) - r.Completed()
}
