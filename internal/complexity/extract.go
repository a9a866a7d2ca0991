package complexity

import (
	"fmt"
	"strings"

	"github.com/gerunddev/planbridge/internal/parser"
)

// ExtractPhaseContent returns the content belonging to the phase at
// phaseIndex (0-based). An explicit "## Phase N" section is returned
// verbatim; otherwise a self-contained summary is synthesized from the
// recommendation so every phase has non-empty content.
func ExtractPhaseContent(fullContent string, rec PhaseRecommendation, phaseIndex, totalPhases int) string {
	if section, ok := parser.PhaseSection(fullContent, phaseIndex+1); ok {
		return section
	}
	return synthesizePhaseContent(rec, phaseIndex, totalPhases)
}

func synthesizePhaseContent(rec PhaseRecommendation, phaseIndex, totalPhases int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", rec.Name)
	fmt.Fprintf(&b, "%s\n\n", rec.Description)

	b.WriteString("## Files to Modify\n")
	if len(rec.EstimatedFiles) == 0 {
		b.WriteString("- (no specific files identified)\n")
	}
	for _, f := range rec.EstimatedFiles {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\n")

	b.WriteString("## Rationale\n")
	fmt.Fprintf(&b, "%s\n\n", rec.Rationale)

	b.WriteString("## Implementation Details\n")
	fmt.Fprintf(&b, "This is phase %d of %d. Refer to the full plan for detailed implementation guidance. Focus on:\n", phaseIndex+1, totalPhases)
	fmt.Fprintf(&b, "- %s\n", rec.Name)
	fmt.Fprintf(&b, "- Files: %s\n\n", strings.Join(rec.EstimatedFiles, ", "))

	b.WriteString("## Full Plan Context\n")
	b.WriteString("See the parent plan for complete requirements and architecture.\n")

	return b.String()
}
