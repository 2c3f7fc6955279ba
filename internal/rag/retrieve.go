// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/memo-engine/internal/chunk"
	"github.com/pdiddy/memo-engine/pkg/types"
)

// defaultTopK is the number of chunks retrieved per section.
const defaultTopK = 8

// queryPromptPrefix bounds how much of the section prompt seeds the
// retrieval query.
const queryPromptPrefix = 200

// RetrievedContext pairs the formatted context block with its source list.
// The pairing is load-bearing: marker [k] in Context refers to Sources[k-1],
// and the citation unifier later maps those local numbers to global ones.
type RetrievedContext struct {
	// Context is the formatted, citation-marked context text.
	Context string

	// Sources is the deduplicated source list in first-seen order among
	// the retrieved chunks. Positional index + 1 equals the local
	// citation number embedded in Context.
	Sources []string

	// Chunks is the number of chunks included.
	Chunks int
}

// Retriever finds the most relevant chunks for a memo section and formats
// them into a context block with local citation markers.
type Retriever struct {
	embedder Embedder
	topK     int
}

// NewRetriever creates a Retriever. topK 0 uses the default (8).
func NewRetriever(embedder Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Retriever{embedder: embedder, topK: topK}
}

// RetrieveContext embeds a query built from the company name, section key,
// and a prefix of the section prompt, then returns the top-K chunks
// formatted with local citation markers. Identical source strings across
// retrieved chunks share one local number, assigned in first-seen order.
func (r *Retriever) RetrieveContext(ctx context.Context, index *FlatIndex, chunks []types.Chunk, sectionKey, sectionPrompt, companyName string) (RetrievedContext, error) {
	if index == nil || len(chunks) == 0 {
		return RetrievedContext{}, nil
	}

	query := buildQuery(companyName, sectionKey, sectionPrompt)
	vectors, err := r.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return RetrievedContext{}, fmt.Errorf("embedding query for %s: %w", sectionKey, err)
	}
	if len(vectors) != 1 {
		return RetrievedContext{}, fmt.Errorf("query embedding returned %d vectors", len(vectors))
	}

	matches := index.Search(vectors[0], r.topK)

	var (
		blocks      []string
		sources     []string
		localNumber = make(map[string]int)
	)
	for _, m := range matches {
		if m.Index >= len(chunks) {
			continue
		}
		c := chunks[m.Index]

		var markers []string
		for _, src := range c.Sources {
			num, ok := localNumber[src]
			if !ok {
				sources = append(sources, src)
				num = len(sources)
				localNumber[src] = num
			}
			marker := fmt.Sprintf("[%d]", num)
			if !contains(markers, marker) {
				markers = append(markers, marker)
			}
		}

		header := fmt.Sprintf("%s (%s)", chunk.Humanize(c.Category), chunk.Humanize(string(c.Type)))
		if len(markers) > 0 {
			header = strings.Join(markers, "") + " " + header
		}
		blocks = append(blocks, fmt.Sprintf("%s:\n%s\n", header, c.Text))
	}

	return RetrievedContext{
		Context: strings.Join(blocks, "\n"),
		Sources: sources,
		Chunks:  len(matches),
	}, nil
}

// buildQuery anchors retrieval topically without a separate query-authoring
// step: company name, humanized section key, and the prompt's first 200
// characters.
func buildQuery(companyName, sectionKey, sectionPrompt string) string {
	prefix := sectionPrompt
	if len(prefix) > queryPromptPrefix {
		prefix = prefix[:queryPromptPrefix]
	}
	return fmt.Sprintf("%s %s: %s", companyName, strings.ReplaceAll(sectionKey, "_", " "), prefix)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
