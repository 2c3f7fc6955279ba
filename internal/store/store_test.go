// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/pdiddy/memo-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(types.StoreConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSourceRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	rec := &types.SourceRecord{
		CompanyName: "Acme Analytics",
		CompanyID:   "crm-42",
		CRMData:     map[string]any{"stage": "Series A", "employees": "38"},
		Research: map[string]types.ResearchResult{
			"market_analysis": {
				Content:          "Growing market.",
				Citations:        []string{"https://example.com/m"},
				SearchSuccessful: true,
			},
			"risks_and_challenges": {SearchSuccessful: false, Error: "timeout"},
		},
		Statistics: map[string]types.ResearchResult{
			"financial_metrics": {Content: "ARR $4M", Citations: []string{"https://example.com/f"}, SearchSuccessful: true},
		},
	}

	id, err := st.CreateSource(ctx, rec)
	if err != nil {
		t.Fatal(err)
	}

	got, err := st.GetSource(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.CompanyName != rec.CompanyName || got.CompanyID != rec.CompanyID {
		t.Errorf("identity fields differ: got %q/%q", got.CompanyName, got.CompanyID)
	}
	if !reflect.DeepEqual(got.Research, rec.Research) {
		t.Errorf("research differs:\ngot  %+v\nwant %+v", got.Research, rec.Research)
	}
	if !reflect.DeepEqual(got.Statistics, rec.Statistics) {
		t.Errorf("statistics differ:\ngot  %+v\nwant %+v", got.Statistics, rec.Statistics)
	}
	if got.CRMData["stage"] != "Series A" {
		t.Errorf("CRM data differs: %+v", got.CRMData)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not persisted")
	}
}

func TestGetSourceNotFound(t *testing.T) {
	st := testStore(t)
	_, err := st.GetSource(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListSourcesNewestFirst(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	for _, name := range []string{"First Co", "Second Co"} {
		if _, err := st.CreateSource(ctx, &types.SourceRecord{CompanyName: name}); err != nil {
			t.Fatal(err)
		}
	}

	records, err := st.ListSources(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].CompanyName != "Second Co" {
		t.Errorf("newest first: got %q", records[0].CompanyName)
	}
}

func TestEmbeddingsRoundTripPreservesOrder(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	sourceID, err := st.CreateSource(ctx, &types.SourceRecord{CompanyName: "Acme"})
	if err != nil {
		t.Fatal(err)
	}

	entries := []types.EmbeddingEntry{
		{SourceID: sourceID, Chunk: types.Chunk{Text: "first", Category: "crm_profile",
			Type: types.ChunkCRM, Sources: []string{"Affinity CRM"}}, Vector: []float32{1, 2}},
		{SourceID: sourceID, Chunk: types.Chunk{Text: "second", Category: "market_analysis",
			Type: types.ChunkResearch, Sources: []string{"https://example.com/m"}, Index: 0}, Vector: []float32{3, 4}},
		{SourceID: sourceID, Chunk: types.Chunk{Text: "third", Category: "market_analysis",
			Type: types.ChunkResearch, Sources: []string{"https://example.com/m"}, Index: 1}, Vector: []float32{5, 6}},
	}
	if err := st.SaveEmbeddings(ctx, sourceID, entries); err != nil {
		t.Fatal(err)
	}

	got, err := st.EmbeddingsBySource(ctx, sourceID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
	for i, e := range got {
		if e.Chunk.Text != entries[i].Chunk.Text {
			t.Errorf("entry %d text %q, want %q", i, e.Chunk.Text, entries[i].Chunk.Text)
		}
		if !reflect.DeepEqual(e.Vector, entries[i].Vector) {
			t.Errorf("entry %d vector %v, want %v", i, e.Vector, entries[i].Vector)
		}
		if !reflect.DeepEqual(e.Chunk.Sources, entries[i].Chunk.Sources) {
			t.Errorf("entry %d sources %v, want %v", i, e.Chunk.Sources, entries[i].Chunk.Sources)
		}
	}
}

func TestMemoRequestLifecycle(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	sourceID, err := st.CreateSource(ctx, &types.SourceRecord{CompanyName: "Acme"})
	if err != nil {
		t.Fatal(err)
	}

	reqID, err := st.CreateMemoRequest(ctx, sourceID, "Acme")
	if err != nil {
		t.Fatal(err)
	}

	req, err := st.GetMemoRequest(ctx, reqID)
	if err != nil {
		t.Fatal(err)
	}
	if req.Status != types.RunPending {
		t.Errorf("new request status %q, want pending", req.Status)
	}

	if err := st.UpdateMemoRequest(ctx, reqID, types.RunPartialSuccess, "2 sections failed"); err != nil {
		t.Fatal(err)
	}
	req, err = st.GetMemoRequest(ctx, reqID)
	if err != nil {
		t.Fatal(err)
	}
	if req.Status != types.RunPartialSuccess || req.ErrorLog != "2 sections failed" {
		t.Errorf("updated request = %q / %q", req.Status, req.ErrorLog)
	}
}

func TestSectionRoundTripAndUniqueness(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	sourceID, _ := st.CreateSource(ctx, &types.SourceRecord{CompanyName: "Acme"})
	reqID, _ := st.CreateMemoRequest(ctx, sourceID, "Acme")

	sec := &types.MemoSection{
		RequestID: reqID,
		Name:      "market_opportunity",
		Content:   "The market is large [1].",
		Sources:   []string{"https://example.com/m"},
		Status:    types.SectionCompleted,
	}
	id, err := st.InsertSection(ctx, sec)
	if err != nil {
		t.Fatal(err)
	}

	// A second row for the same (request, name) violates the schema.
	if _, err := st.InsertSection(ctx, sec); err == nil {
		t.Fatal("duplicate section insert should fail")
	}

	if err := st.UpdateSectionContent(ctx, id, "The market is large [7]."); err != nil {
		t.Fatal(err)
	}

	sections, err := st.SectionsByRequest(ctx, reqID)
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(sections))
	}
	got := sections[0]
	if got.Content != "The market is large [7]." {
		t.Errorf("content = %q", got.Content)
	}
	if !reflect.DeepEqual(got.Sources, sec.Sources) {
		t.Errorf("sources = %v", got.Sources)
	}
	if got.Status != types.SectionCompleted {
		t.Errorf("status = %q", got.Status)
	}
}
