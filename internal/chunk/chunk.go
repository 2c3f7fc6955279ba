// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits gathered company data into bounded, citable text
// chunks, the unit of embedding and retrieval.
// Implements: docs/ARCHITECTURE § Knowledge Base.
package chunk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/memo-engine/pkg/types"
)

// maxChunkWords bounds the word count of a single chunk. Groups are
// non-overlapping: a category's content is split into consecutive runs of at
// most this many words.
const maxChunkWords = 800

// CRMProvenance is the fixed source label attached to CRM-derived content.
// It is an opaque citation key: the only operation ever performed on it is
// equality comparison in the citation maps.
const CRMProvenance = "Affinity CRM"

// crmFields is the allow-list of CRM fields included in the CRM chunk and
// summary, in presentation order.
var crmFields = []string{
	"name", "stage", "industry", "description", "website",
	"funding_stage", "last_funding_amount", "total_funding",
	"valuation", "employees", "headquarters", "founded_date",
}

// Build derives the chunk sequence for a source record: one crm chunk when
// CRM data is present, then research and statistics chunks per category.
// Unsuccessful or empty categories are skipped silently. Output is
// deterministic for identical input: CRM first, then categories in sorted
// name order within each namespace.
func Build(rec *types.SourceRecord) []types.Chunk {
	var chunks []types.Chunk

	if crmText := FormatCRM(rec.CRMData); crmText != "" {
		chunks = append(chunks, types.Chunk{
			Text:     crmText,
			Category: "crm_profile",
			Type:     types.ChunkCRM,
			Sources:  []string{CRMProvenance},
			Index:    0,
		})
	}

	chunks = append(chunks, categoryChunks(rec.Research, types.ChunkResearch)...)
	chunks = append(chunks, categoryChunks(rec.Statistics, types.ChunkStatistics)...)

	return chunks
}

// categoryChunks splits each successful category's content into word groups
// of at most maxChunkWords. Every chunk of a category carries the category's
// full citation list, duplicates included; deduplication is a retrieval
// concern.
func categoryChunks(categories map[string]types.ResearchResult, chunkType types.ChunkType) []types.Chunk {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var chunks []types.Chunk
	for _, name := range names {
		result := categories[name]
		if !result.SearchSuccessful || strings.TrimSpace(result.Content) == "" {
			continue
		}

		words := strings.Fields(result.Content)
		for i := 0; i < len(words); i += maxChunkWords {
			end := i + maxChunkWords
			if end > len(words) {
				end = len(words)
			}
			chunks = append(chunks, types.Chunk{
				Text:     strings.Join(words[i:end], " "),
				Category: name,
				Type:     chunkType,
				Sources:  result.Citations,
				Index:    i / maxChunkWords,
			})
		}
	}
	return chunks
}

// FormatCRM renders the allow-listed CRM fields as "Field Name: value"
// lines. Returns "" when no listed field carries a value.
func FormatCRM(crm map[string]any) string {
	if len(crm) == 0 {
		return ""
	}

	var lines []string
	for _, field := range crmFields {
		value, ok := crm[field]
		if !ok || value == nil {
			continue
		}
		text := strings.TrimSpace(fmt.Sprintf("%v", value))
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", Humanize(field), text))
	}
	return strings.Join(lines, "\n")
}

// Humanize converts a snake_case key into a display label:
// "market_opportunity" becomes "Market Opportunity".
func Humanize(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
