// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ChunkType categorizes the provenance of a document chunk.
type ChunkType string

const (
	ChunkCRM        ChunkType = "crm"
	ChunkResearch   ChunkType = "research"
	ChunkStatistics ChunkType = "statistics"
)

// Chunk is a bounded-size slice of source text tagged with provenance
// metadata. It is the unit of embedding and retrieval. Chunk text is never
// re-split once created.
type Chunk struct {
	// Text is the chunk content, at most the chunker's word limit.
	Text string `json:"text" yaml:"text"`

	// Category is the research category the chunk came from (e.g.
	// "market_analysis"), or the CRM label for CRM chunks.
	Category string `json:"category" yaml:"category"`

	// Type records the chunk's namespace: crm, research, or statistics.
	Type ChunkType `json:"type" yaml:"type"`

	// Sources lists the citation URLs attached to the chunk's category.
	// Order is preserved and duplicates are allowed; deduplication happens
	// at retrieval time.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Index is the chunk's position within its category.
	Index int `json:"index" yaml:"index"`
}

// EmbeddingEntry pairs a Chunk with its vector, persisted per SourceRecord.
// Entries are written once when the knowledge base is first built and then
// reused on every subsequent memo run for that source.
type EmbeddingEntry struct {
	// ID is the database identifier, zero before the entry is stored.
	ID int64 `json:"id" yaml:"id"`

	// SourceID links the entry to its SourceRecord.
	SourceID int64 `json:"source_id" yaml:"source_id"`

	// Chunk is the embedded chunk, stored alongside the vector so the
	// index can be rebuilt without re-chunking.
	Chunk Chunk `json:"chunk" yaml:"chunk"`

	// Vector is the fixed-length embedding of Chunk.Text.
	Vector []float32 `json:"vector" yaml:"vector"`
}
