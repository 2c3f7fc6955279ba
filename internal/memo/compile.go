// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package memo

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/memo-engine/internal/chunk"
	"github.com/pdiddy/memo-engine/internal/store"
)

// noSectionsSentinel is returned when a request has no completed sections.
const noSectionsSentinel = "No completed sections available for this memo."

// CompileMemo assembles the final memo document for a request: completed
// sections in canonical order under humanized headings, followed by a
// Sources block listing every cited source by its global citation number.
//
// The global numbering is recomputed from the persisted per-section source
// lists with the same first-seen walk the citation unifier used, so compile
// is read-only and idempotent: repeated calls produce byte-identical output.
func CompileMemo(ctx context.Context, st *store.Store, requestID int64) (string, error) {
	sections, err := st.SectionsByRequest(ctx, requestID)
	if err != nil {
		return "", fmt.Errorf("loading sections: %w", err)
	}

	completed := completedInCanonicalOrder(sections)
	if len(completed) == 0 {
		return noSectionsSentinel, nil
	}

	cm := assignGlobalNumbers(completed)

	var parts []string
	for _, sec := range completed {
		parts = append(parts, fmt.Sprintf("## %s\n\n%s", chunk.Humanize(sec.Name), sec.Content))
	}

	if len(cm.Ordered) > 0 {
		var b strings.Builder
		b.WriteString("## Sources\n")
		for i, src := range cm.Ordered {
			b.WriteString(fmt.Sprintf("\n%d. %s", i+1, src))
		}
		parts = append(parts, b.String())
	}

	return strings.Join(parts, "\n\n"), nil
}
