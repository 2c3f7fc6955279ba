// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/memo-engine/pkg/types"
)

// Per-query limits. Stats queries pull more, longer pages because metric
// data is sparse across the web.
const (
	researchMaxResults       = 5
	researchMaxTokensPerPage = 1024
	statsMaxResults          = 7
	statsMaxTokensPerPage    = 1500
)

// researchCategories lists the qualitative research categories in query
// order. The order only affects progress output; chunking sorts categories
// by name.
var researchCategories = []string{
	"company_overview",
	"market_analysis",
	"competitive_landscape",
	"financial_analysis",
	"team_and_investors",
	"technology_and_product",
	"traction_and_metrics",
	"risks_and_challenges",
}

// statsCategories lists the quantitative metric categories in query order.
var statsCategories = []string{
	"financial_metrics",
	"market_metrics",
	"operational_metrics",
	"comparative_metrics",
}

// researchQuery builds the search query for a qualitative category.
func researchQuery(category, companyName string) string {
	switch category {
	case "company_overview":
		return fmt.Sprintf("What is %s company? Provide company background, business model, products, and services", companyName)
	case "market_analysis":
		return fmt.Sprintf("Market analysis for %s: market size, growth trends, opportunities, and market dynamics", companyName)
	case "competitive_landscape":
		return fmt.Sprintf("Who are %s competitors? Competitive landscape and market positioning analysis", companyName)
	case "financial_analysis":
		return fmt.Sprintf("%s funding rounds, valuation, revenue, financial metrics, and investor information", companyName)
	case "team_and_investors":
		return fmt.Sprintf("%s founders, management team, key employees, investors, and company leadership", companyName)
	case "technology_and_product":
		return fmt.Sprintf("%s technology stack, product features, technical capabilities, and innovation", companyName)
	case "traction_and_metrics":
		return fmt.Sprintf("%s customer growth, business metrics, user adoption, and key performance indicators", companyName)
	case "risks_and_challenges":
		return fmt.Sprintf("%s business risks, market challenges, competitive threats, and potential problems", companyName)
	}
	return companyName + " " + category
}

// statsQuery builds the search query for a metric category.
func statsQuery(category, companyName string) string {
	switch category {
	case "financial_metrics":
		return fmt.Sprintf("Find specific financial data and metrics for %s: revenue figures (ARR, MRR, total revenue), growth rates, funding amounts and valuations, employee count, customer count, market share, burn rate and runway", companyName)
	case "market_metrics":
		return fmt.Sprintf("Find market size and industry metrics related to %s's market: TAM and SAM size, market growth rates and projections, industry benchmarks, competitive market share, penetration rates, revenue multiples", companyName)
	case "operational_metrics":
		return fmt.Sprintf("Find operational and business metrics for %s: customer acquisition cost, LTV and LTV/CAC ratios, churn and retention, gross margins and unit economics, sales efficiency, product usage stats, geographic presence", companyName)
	case "comparative_metrics":
		return fmt.Sprintf("Find comparative data and benchmarks for %s: competitor revenue and valuation comparisons, industry average growth rates, benchmark metrics for similar companies, funding round comparisons in the sector, valuation multiples", companyName)
	}
	return companyName + " " + category
}

// Gatherer runs the full research fan-out for a company.
type Gatherer struct {
	client *Client
}

// NewGatherer creates a Gatherer backed by a Perplexity client.
func NewGatherer(client *Client) *Gatherer {
	return &Gatherer{client: client}
}

// Gather queries every research and stats category for a company and
// assembles the results into a SourceRecord. Failures are isolated per
// category: a failed search is recorded with SearchSuccessful false and its
// error message, and gathering continues. Gather itself only fails on
// context cancellation.
//
// Progress lines are written to progress as each category completes.
func (g *Gatherer) Gather(ctx context.Context, companyName, companyID string, crm map[string]any, progress io.Writer) (*types.SourceRecord, error) {
	rec := &types.SourceRecord{
		CompanyName: companyName,
		CompanyID:   companyID,
		CRMData:     crm,
		Research:    make(map[string]types.ResearchResult, len(researchCategories)),
		Statistics:  make(map[string]types.ResearchResult, len(statsCategories)),
		CreatedAt:   time.Now().UTC(),
	}

	for _, category := range researchCategories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(progress, "researching %s for %s\n", category, companyName)
		result, err := g.client.Search(ctx, researchQuery(category, companyName), researchMaxResults, researchMaxTokensPerPage)
		if err != nil {
			result = types.ResearchResult{SearchSuccessful: false, Error: err.Error()}
			fmt.Fprintf(progress, "  %s failed: %v\n", category, err)
		}
		rec.Research[category] = result
	}

	for _, category := range statsCategories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(progress, "gathering %s for %s\n", category, companyName)
		result, err := g.client.Search(ctx, statsQuery(category, companyName), statsMaxResults, statsMaxTokensPerPage)
		if err != nil {
			result = types.ResearchResult{SearchSuccessful: false, Error: err.Error()}
			fmt.Fprintf(progress, "  %s failed: %v\n", category, err)
		}
		rec.Statistics[category] = result
	}

	return rec, nil
}
