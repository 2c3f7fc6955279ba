// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rag

import (
	"context"
	"fmt"

	"github.com/pdiddy/memo-engine/internal/chunk"
	"github.com/pdiddy/memo-engine/internal/store"
	"github.com/pdiddy/memo-engine/pkg/types"
)

// defaultBatchSize bounds the number of texts sent per embedding call.
const defaultBatchSize = 100

// Embedder abstracts the embedding API so tests can supply a fake.
// EmbedBatch must return one vector per input text, in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Builder constructs a company's knowledge base: the order-aligned pair of a
// FlatIndex and the chunks it indexes.
type Builder struct {
	store     *store.Store
	embedder  Embedder
	batchSize int
}

// NewBuilder creates a Builder. batchSize 0 uses the default (100).
func NewBuilder(st *store.Store, embedder Embedder, batchSize int) *Builder {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Builder{store: st, embedder: embedder, batchSize: batchSize}
}

// BuildOrLoad returns the knowledge base for a source record, cache-first:
// persisted embeddings are reused without re-chunking or re-embedding. On a
// cache miss it chunks the source, embeds all chunks in order-preserving
// batches, persists one EmbeddingEntry per chunk, and builds the index.
//
// A source with no usable content yields (nil, nil, nil): callers must treat
// a nil index as "no knowledge base available" and fail the memo run
// gracefully instead of generating ungrounded sections.
func (b *Builder) BuildOrLoad(ctx context.Context, sourceID int64) (*FlatIndex, []types.Chunk, error) {
	entries, err := b.store.EmbeddingsBySource(ctx, sourceID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading cached embeddings: %w", err)
	}
	if len(entries) > 0 {
		return b.fromEntries(entries)
	}

	rec, err := b.store.GetSource(ctx, sourceID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading source %d: %w", sourceID, err)
	}

	chunks := chunk.Build(rec)
	if len(chunks) == 0 {
		return nil, nil, nil
	}

	vectors, err := b.embedAll(ctx, chunks)
	if err != nil {
		return nil, nil, err
	}

	entries = make([]types.EmbeddingEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = types.EmbeddingEntry{SourceID: sourceID, Chunk: c, Vector: vectors[i]}
	}
	if err := b.store.SaveEmbeddings(ctx, sourceID, entries); err != nil {
		return nil, nil, fmt.Errorf("persisting embeddings: %w", err)
	}

	index := NewFlatIndex(b.embedder.Dimensions())
	for i, vec := range vectors {
		if err := index.Add(vec); err != nil {
			return nil, nil, fmt.Errorf("indexing chunk %d: %w", i, err)
		}
	}
	return index, chunks, nil
}

// fromEntries reconstructs the index and chunk list from cached rows. The
// two are order-aligned: index position i corresponds to chunks[i].
func (b *Builder) fromEntries(entries []types.EmbeddingEntry) (*FlatIndex, []types.Chunk, error) {
	index := NewFlatIndex(b.embedder.Dimensions())
	chunks := make([]types.Chunk, len(entries))
	for i, e := range entries {
		chunks[i] = e.Chunk
		if err := index.Add(e.Vector); err != nil {
			return nil, nil, fmt.Errorf("rebuilding index from cache: %w", err)
		}
	}
	return index, chunks, nil
}

// embedAll embeds chunk texts in batches of at most batchSize, preserving
// order so each vector maps back to its originating chunk.
func (b *Builder) embedAll(ctx context.Context, chunks []types.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += b.batchSize {
		end := start + b.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		batch, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedding batch returned %d vectors for %d texts", len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}
