package alignment

// ---------------------------------------------------------------------------
// Assembler
// ---------------------------------------------------------------------------

// assemble packages the surviving components into SemanticGroups, preserving
// the order in which they survived normalization.  No re-sorting by child
// count or span size happens here; child indices refer to positions in the
// returned group list.
func assemble(narrative string, components []resolvedComponent, children [][]int) *Result {
	groups := make([]SemanticGroup, 0, len(components))
	for i, rc := range components {
		ranges := make([]Span, 0, len(rc.matches))
		latex := make([]string, 0, len(rc.matches))
		for _, m := range rc.matches {
			ranges = append(ranges, m.span)
			latex = append(latex, m.text)
		}

		label := rc.raw.Counterpart
		if label == "" {
			label = rc.raw.Role
		}

		kids := children[i]
		if kids == nil {
			kids = []int{}
		}

		groups = append(groups, SemanticGroup{
			Ranges:        ranges,
			Latex:         latex,
			Label:         label,
			NarrativeSpan: rc.narrativeSpan,
			Children:      kids,
		})
	}

	return &Result{
		Narrative: narrative,
		Groups:    groups,
	}
}
