// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package memo

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/memo-engine/internal/chunk"
	"github.com/pdiddy/memo-engine/internal/rag"
	"github.com/pdiddy/memo-engine/internal/store"
	"github.com/pdiddy/memo-engine/pkg/types"
)

// sectionMaxTokens is the completion budget for every section.
const sectionMaxTokens = 2000

// Temperatures per section character. Analytical sections (assessments and
// the numbers-heavy narrative sections) run colder than descriptive ones.
const (
	analyticalTemperature  = 0.2
	descriptiveTemperature = 0.5
)

// systemMessage frames every generation call.
const systemMessage = `You are an expert venture capital analyst writing detailed investment memos.
Your analysis should be highly data-driven, using specific metrics and statistics.
Always cite your sources using the citation numbers provided [1], [2], etc.
Be transparent about data limitations and avoid speculation.`

// groundingInstructions is appended to every section prompt after the CRM
// data and retrieved context.
const groundingInstructions = `IMPORTANT INSTRUCTIONS:
1. Base your response ONLY on the data provided above
2. When citing information, reference the citation numbers [1], [2], etc.
3. Prioritize quantitative data, specific metrics, and statistics
4. If specific information is not available, clearly state that rather than making assumptions
5. Include specific numbers, percentages, growth rates, and financial figures when mentioned
6. For assessments, justify ratings with specific data points from the research
7. Avoid the use of 'we'; focus on the facts and use a less active voice`

// TextGenerator abstracts the chat completion API so tests can supply a
// fake.
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error)
}

// Generator runs memo generation: it retrieves context per section, calls
// the text generator, and persists one MemoSection row per section.
type Generator struct {
	store     *store.Store
	builder   *rag.Builder
	retriever *rag.Retriever
	textgen   TextGenerator
	catalog   *PromptCatalog
}

// NewGenerator assembles the generation stage from its collaborators.
func NewGenerator(st *store.Store, builder *rag.Builder, retriever *rag.Retriever, textgen TextGenerator, catalog *PromptCatalog) *Generator {
	return &Generator{
		store:     st,
		builder:   builder,
		retriever: retriever,
		textgen:   textgen,
		catalog:   catalog,
	}
}

// sectionTemperature returns the sampling temperature for a section.
func sectionTemperature(sectionKey string) float64 {
	if isAssessment(sectionKey) {
		return analyticalTemperature
	}
	switch sectionKey {
	case "financial", "traction_validation", "deal_considerations":
		return analyticalTemperature
	}
	return descriptiveTemperature
}

// Run executes a full memo generation run against a stored source record:
// create the request row, build or load the knowledge base, generate every
// catalog section in canonical order, unify citations across the completed
// sections, and derive the aggregate status.
//
// A knowledge base that cannot be built (no research data) fails the run
// before any section row is written. Individual section failures never abort
// the run; they are recorded as failed rows and reflected in the aggregate
// status: all failed means failed, none failed means completed, a mix means
// partial_success.
func (g *Generator) Run(ctx context.Context, sourceID int64, progress io.Writer) (*types.RunResult, error) {
	rec, err := g.store.GetSource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading source %d: %w", sourceID, err)
	}

	requestID, err := g.store.CreateMemoRequest(ctx, sourceID, rec.CompanyName)
	if err != nil {
		return nil, fmt.Errorf("creating memo request: %w", err)
	}
	result := &types.RunResult{RequestID: requestID}

	fmt.Fprintf(progress, "building knowledge base for %s\n", rec.CompanyName)
	index, chunks, err := g.builder.BuildOrLoad(ctx, sourceID)
	if err != nil {
		g.store.UpdateMemoRequest(ctx, requestID, types.RunFailed, err.Error())
		return nil, fmt.Errorf("building knowledge base: %w", err)
	}
	if index == nil || index.Len() == 0 {
		result.Status = types.RunFailed
		result.Error = "no research data available to build knowledge base"
		if err := g.store.UpdateMemoRequest(ctx, requestID, types.RunFailed, result.Error); err != nil {
			return nil, err
		}
		fmt.Fprintf(progress, "run failed: %s\n", result.Error)
		return result, nil
	}
	fmt.Fprintf(progress, "knowledge base ready (%d chunks)\n", index.Len())

	crmSummary := chunk.FormatCRM(rec.CRMData)

	for _, sectionKey := range CanonicalOrder() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prompt, ok := g.catalog.Prompt(sectionKey)
		if !ok {
			continue
		}

		sr := g.generateSection(ctx, requestID, sectionKey, prompt, rec.CompanyName, crmSummary, index, chunks)
		result.Sections = append(result.Sections, sr)

		if sr.Status == types.SectionCompleted {
			fmt.Fprintf(progress, "completed %s (%d sources)\n", sectionKey, len(sr.Sources))
		} else {
			fmt.Fprintf(progress, "failed %s: %s\n", sectionKey, sr.Error)
		}
	}

	result.Status = aggregateStatus(result)

	if _, err := g.UnifyCitations(ctx, requestID); err != nil {
		return nil, fmt.Errorf("unifying citations: %w", err)
	}

	if err := g.store.UpdateMemoRequest(ctx, requestID, result.Status, result.Error); err != nil {
		return nil, fmt.Errorf("finalizing memo request: %w", err)
	}

	fmt.Fprintf(progress, "memo run %d: %s (%d completed, %d failed)\n",
		requestID, result.Status, result.Completed(), result.Failed())
	return result, nil
}

// generateSection produces one section and persists exactly one MemoSection
// row, completed or failed. All failure paths are absorbed into the result.
func (g *Generator) generateSection(ctx context.Context, requestID int64, sectionKey, prompt, companyName, crmSummary string, index *rag.FlatIndex, chunks []types.Chunk) types.SectionResult {
	retrieved, err := g.retriever.RetrieveContext(ctx, index, chunks, sectionKey, prompt, companyName)
	if err != nil {
		return g.persistFailure(ctx, requestID, sectionKey, fmt.Sprintf("retrieving context: %v", err))
	}

	enhanced := buildPrompt(prompt, crmSummary, retrieved)

	content, err := g.textgen.Generate(ctx, systemMessage, enhanced, sectionMaxTokens, sectionTemperature(sectionKey))
	if err != nil {
		return g.persistFailure(ctx, requestID, sectionKey, fmt.Sprintf("generating text: %v", err))
	}

	sources := retrieved.Sources
	if crmSummary != "" && !containsString(sources, chunk.CRMProvenance) {
		sources = append(sources, chunk.CRMProvenance)
	}

	sec := &types.MemoSection{
		RequestID: requestID,
		Name:      sectionKey,
		Content:   content,
		Sources:   sources,
		Status:    types.SectionCompleted,
	}
	id, err := g.store.InsertSection(ctx, sec)
	if err != nil {
		return types.SectionResult{
			Name:   sectionKey,
			Status: types.SectionFailed,
			Error:  fmt.Sprintf("persisting section: %v", err),
		}
	}

	return types.SectionResult{
		Name:      sectionKey,
		SectionID: id,
		Status:    types.SectionCompleted,
		Content:   content,
		Sources:   sources,
	}
}

// persistFailure records a failed section row so the run history shows what
// went wrong per section.
func (g *Generator) persistFailure(ctx context.Context, requestID int64, sectionKey, errMsg string) types.SectionResult {
	sec := &types.MemoSection{
		RequestID: requestID,
		Name:      sectionKey,
		Status:    types.SectionFailed,
		ErrorLog:  errMsg,
	}
	id, err := g.store.InsertSection(ctx, sec)
	if err != nil {
		// The generation error takes precedence in the result.
		id = 0
	}
	return types.SectionResult{
		Name:      sectionKey,
		SectionID: id,
		Status:    types.SectionFailed,
		Error:     errMsg,
	}
}

// buildPrompt assembles the final generation prompt: section prompt, CRM
// summary, retrieved context, grounding instructions, source count.
func buildPrompt(prompt, crmSummary string, retrieved rag.RetrievedContext) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\n=== CRM DATA ===\n")
	if crmSummary != "" {
		b.WriteString(crmSummary)
	} else {
		b.WriteString("No CRM data available.")
	}
	b.WriteString("\n\n=== RELEVANT RESEARCH & DATA (Retrieved via semantic search) ===\n")
	b.WriteString(retrieved.Context)
	b.WriteString("\n\n")
	b.WriteString(groundingInstructions)
	b.WriteString(fmt.Sprintf("\n\nSOURCES USED: %d unique sources found\n", len(retrieved.Sources)))
	return b.String()
}

// aggregateStatus derives the run status from section outcomes.
func aggregateStatus(result *types.RunResult) types.RunStatus {
	if len(result.Sections) == 0 {
		return types.RunFailed
	}
	completed := result.Completed()
	switch {
	case completed == 0:
		return types.RunFailed
	case completed == len(result.Sections):
		return types.RunCompleted
	default:
		return types.RunPartialSuccess
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
