// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunk

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/memo-engine/pkg/types"
)

func sampleRecord() *types.SourceRecord {
	return &types.SourceRecord{
		CompanyName: "Acme Analytics",
		CRMData: map[string]any{
			"name":     "Acme Analytics",
			"stage":    "Series A",
			"industry": "Data Infrastructure",
			"ignored":  "should not appear",
		},
		Research: map[string]types.ResearchResult{
			"market_analysis": {
				Content:          "The data infrastructure market is growing rapidly.",
				Citations:        []string{"https://example.com/market"},
				SearchSuccessful: true,
			},
			"company_overview": {
				Content:          "Acme Analytics builds pipelines.",
				Citations:        []string{"https://example.com/about", "https://example.com/about"},
				SearchSuccessful: true,
			},
			"risks_and_challenges": {
				SearchSuccessful: false,
				Error:            "search timed out",
			},
		},
		Statistics: map[string]types.ResearchResult{
			"financial_metrics": {
				Content:          "ARR reached $4M in 2025.",
				Citations:        []string{"https://example.com/arr"},
				SearchSuccessful: true,
			},
		},
	}
}

func TestBuildOrdersCRMFirstThenSortedCategories(t *testing.T) {
	chunks := Build(sampleRecord())

	want := []struct {
		category  string
		chunkType types.ChunkType
	}{
		{"crm_profile", types.ChunkCRM},
		{"company_overview", types.ChunkResearch},
		{"market_analysis", types.ChunkResearch},
		{"financial_metrics", types.ChunkStatistics},
	}

	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i, w := range want {
		if chunks[i].Category != w.category || chunks[i].Type != w.chunkType {
			t.Errorf("chunk %d: got (%s, %s), want (%s, %s)",
				i, chunks[i].Category, chunks[i].Type, w.category, w.chunkType)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	first := Build(sampleRecord())
	for i := 0; i < 10; i++ {
		if got := Build(sampleRecord()); !reflect.DeepEqual(got, first) {
			t.Fatalf("iteration %d produced a different chunk sequence", i)
		}
	}
}

func TestBuildSkipsFailedAndEmptyCategories(t *testing.T) {
	rec := &types.SourceRecord{
		CompanyName: "Acme",
		Research: map[string]types.ResearchResult{
			"failed":     {SearchSuccessful: false, Error: "boom"},
			"whitespace": {Content: "   \n\t", SearchSuccessful: true},
		},
	}
	if chunks := Build(rec); len(chunks) != 0 {
		t.Fatalf("got %d chunks, want 0", len(chunks))
	}
}

func TestBuildSplitsLongContentIntoWordGroups(t *testing.T) {
	words := make([]string, 1700)
	for i := range words {
		words[i] = "word"
	}
	rec := &types.SourceRecord{
		Research: map[string]types.ResearchResult{
			"market_analysis": {
				Content:          strings.Join(words, " "),
				Citations:        []string{"https://example.com/a", "https://example.com/b"},
				SearchSuccessful: true,
			},
		},
	}

	chunks := Build(rec)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3 (1700 words at 800 per chunk)", len(chunks))
	}

	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if got := len(strings.Fields(c.Text)); got > maxChunkWords {
			t.Errorf("chunk %d has %d words, exceeds %d", i, got, maxChunkWords)
		}
		// Every chunk carries the category's full citation list.
		if len(c.Sources) != 2 {
			t.Errorf("chunk %d has %d sources, want 2", i, len(c.Sources))
		}
	}
	if got := len(strings.Fields(chunks[2].Text)); got != 100 {
		t.Errorf("last chunk has %d words, want 100", got)
	}
}

func TestBuildCRMChunkUsesProvenanceLabel(t *testing.T) {
	chunks := Build(sampleRecord())
	crm := chunks[0]
	if !reflect.DeepEqual(crm.Sources, []string{CRMProvenance}) {
		t.Fatalf("CRM chunk sources = %v, want [%s]", crm.Sources, CRMProvenance)
	}
	if strings.Contains(crm.Text, "should not appear") {
		t.Error("CRM chunk includes a field outside the allow-list")
	}
	if !strings.Contains(crm.Text, "Stage: Series A") {
		t.Errorf("CRM chunk missing humanized field line:\n%s", crm.Text)
	}
}

func TestFormatCRMSkipsEmptyValues(t *testing.T) {
	got := FormatCRM(map[string]any{
		"name":     "Acme",
		"website":  "",
		"industry": nil,
	})
	if got != "Name: Acme" {
		t.Errorf("FormatCRM = %q, want %q", got, "Name: Acme")
	}

	if FormatCRM(nil) != "" {
		t.Error("FormatCRM(nil) should be empty")
	}
}

func TestHumanize(t *testing.T) {
	cases := map[string]string{
		"market_opportunity":    "Market Opportunity",
		"crm":                   "Crm",
		"assessment_financials": "Assessment Financials",
		"traction_validation":   "Traction Validation",
	}
	for in, want := range cases {
		if got := Humanize(in); got != want {
			t.Errorf("Humanize(%q) = %q, want %q", in, got, want)
		}
	}
}
