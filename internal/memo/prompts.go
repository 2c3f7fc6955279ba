// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package memo generates, citation-unifies, and compiles investment
// committee memos from a company's knowledge base.
// Implements: docs/ARCHITECTURE § Generation, § Citations, § Compilation.
package memo

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// assessmentPrefix marks the derived section keys for assessment sections.
const assessmentPrefix = "assessment_"

// mainSections is the canonical order of the narrative memo sections.
var mainSections = []string{
	"executive_summary",
	"company_snapshot",
	"people",
	"market_opportunity",
	"competitive_landscape",
	"product",
	"financial",
	"traction_validation",
	"deal_considerations",
}

// assessmentKeys is the canonical order of the assessment catalog keys. The
// section name for each is assessmentPrefix + key.
var assessmentKeys = []string{
	"people",
	"market_opportunity",
	"product",
	"financials",
	"traction_validation",
	"deal_considerations",
}

// PromptCatalog holds the per-section prompts: narrative sections keyed by
// section name, assessments in their own namespace.
type PromptCatalog struct {
	Sections    map[string]string `yaml:"sections"`
	Assessments map[string]string `yaml:"assessments"`
}

// LoadPrompts returns the prompt catalog. An empty path loads the embedded
// default catalog; otherwise the YAML file at path replaces it entirely.
func LoadPrompts(path string) (*PromptCatalog, error) {
	data := defaultPrompts
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading prompt catalog: %w", err)
		}
	}

	var catalog PromptCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parsing prompt catalog: %w", err)
	}
	if len(catalog.Sections) == 0 {
		return nil, fmt.Errorf("prompt catalog defines no sections")
	}
	return &catalog, nil
}

// CanonicalOrder returns all section keys in canonical memo order: the nine
// narrative sections, then the six assessment sections. Every stage that
// iterates sections (generation, citation unification, compilation) uses
// this order.
func CanonicalOrder() []string {
	order := make([]string, 0, len(mainSections)+len(assessmentKeys))
	order = append(order, mainSections...)
	for _, key := range assessmentKeys {
		order = append(order, assessmentPrefix+key)
	}
	return order
}

// Prompt looks up the prompt for a section key, resolving assessment keys
// through the assessment namespace.
func (c *PromptCatalog) Prompt(sectionKey string) (string, bool) {
	if key, ok := strings.CutPrefix(sectionKey, assessmentPrefix); ok {
		prompt, ok := c.Assessments[key]
		return prompt, ok
	}
	prompt, ok := c.Sections[sectionKey]
	return prompt, ok
}

// isAssessment reports whether a section key names an assessment section.
func isAssessment(sectionKey string) bool {
	return strings.HasPrefix(sectionKey, assessmentPrefix)
}
