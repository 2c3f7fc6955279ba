// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package memo

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pdiddy/memo-engine/pkg/types"
)

// markerPattern matches exact-bracket citation markers like [3]. Nothing
// else in generated prose uses this shape.
var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// CitationMap is the global citation numbering for one memo request:
// numbers start at 1 with no gaps, assigned first-seen while walking
// completed sections in canonical order.
type CitationMap struct {
	// Numbers maps a source string to its global citation number.
	Numbers map[string]int

	// Ordered lists the sources by global number: Ordered[n-1] is the
	// source numbered n.
	Ordered []string
}

// assignGlobalNumbers derives the CitationMap from completed sections.
// The input must already be filtered to completed sections and arranged in
// canonical order; the numbering is then fully determined by the persisted
// per-section source lists, so it can be recomputed identically at compile
// time.
func assignGlobalNumbers(sections []types.MemoSection) CitationMap {
	cm := CitationMap{Numbers: make(map[string]int)}
	for _, sec := range sections {
		for _, src := range sec.Sources {
			if _, ok := cm.Numbers[src]; ok {
				continue
			}
			cm.Ordered = append(cm.Ordered, src)
			cm.Numbers[src] = len(cm.Ordered)
		}
	}
	return cm
}

// completedInCanonicalOrder filters a request's sections to completed ones
// arranged in canonical section order.
func completedInCanonicalOrder(sections []types.MemoSection) []types.MemoSection {
	byName := make(map[string]types.MemoSection, len(sections))
	for _, sec := range sections {
		if sec.Status == types.SectionCompleted {
			byName[sec.Name] = sec
		}
	}

	var ordered []types.MemoSection
	for _, name := range CanonicalOrder() {
		if sec, ok := byName[name]; ok {
			ordered = append(ordered, sec)
		}
	}
	return ordered
}

// UnifyCitations rewrites the per-section local citation markers of a memo
// request into one global numbering. Sections are processed in canonical
// order; each source keeps the number it was first seen under. Every
// marker [k] is translated through the section's local source list in a
// single pass over the original text, so already-rewritten text is never
// rewritten again. Markers whose number has no local source are left
// untouched. Each rewritten section is persisted with one update;
// zero-source sections are not touched at all.
func (g *Generator) UnifyCitations(ctx context.Context, requestID int64) (CitationMap, error) {
	sections, err := g.store.SectionsByRequest(ctx, requestID)
	if err != nil {
		return CitationMap{}, fmt.Errorf("loading sections: %w", err)
	}

	completed := completedInCanonicalOrder(sections)
	cm := assignGlobalNumbers(completed)

	for _, sec := range completed {
		if len(sec.Sources) == 0 {
			continue
		}

		rewritten := markerPattern.ReplaceAllStringFunc(sec.Content, func(match string) string {
			k, err := strconv.Atoi(match[1 : len(match)-1])
			if err != nil || k < 1 || k > len(sec.Sources) {
				return match
			}
			return fmt.Sprintf("[%d]", cm.Numbers[sec.Sources[k-1]])
		})

		if err := g.store.UpdateSectionContent(ctx, sec.ID, rewritten); err != nil {
			return CitationMap{}, fmt.Errorf("updating section %s: %w", sec.Name, err)
		}
	}

	return cm, nil
}
