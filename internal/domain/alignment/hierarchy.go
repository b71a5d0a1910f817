package alignment

// ---------------------------------------------------------------------------
// Hierarchy builder
// ---------------------------------------------------------------------------

// componentContains reports whether parent's spans strictly contain any span
// of child: at least one (parent span, child span) pair must satisfy strict
// span containment.  Equal spans never contain each other, so two components
// claiming the identical range produce no edge in either direction.
func componentContains(parent, child resolvedComponent) bool {
	for _, p := range parent.matches {
		for _, c := range child.matches {
			if p.span.Contains(c.span) {
				return true
			}
		}
	}
	return false
}

// buildChildren derives the direct-parent/direct-child relation from markup
// spans alone.  For each component i it first collects every component whose
// spans are strictly contained in i's spans, then discards contained
// candidates that are themselves contained in another candidate.  What
// remains is the transitive reduction of the containment DAG: only covering
// edges with no intermediate covering node.  Grandchildren therefore never
// appear
// as direct children.
//
// Candidates of identical minimal span all survive the reduction (neither
// contains the other); they are emitted in the order the components were
// supplied, which is the documented tie-break for equal-span duplicates.
func buildChildren(components []resolvedComponent) [][]int {
	n := len(components)
	children := make([][]int, n)

	for i := 0; i < n; i++ {
		var contained []int
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if componentContains(components[i], components[j]) {
				contained = append(contained, j)
			}
		}

		direct := make([]int, 0, len(contained))
		for _, c := range contained {
			isGrandchild := false
			for _, mid := range contained {
				if mid == c {
					continue
				}
				if componentContains(components[mid], components[c]) {
					isGrandchild = true
					break
				}
			}
			if !isGrandchild {
				direct = append(direct, c)
			}
		}
		children[i] = direct
	}
	return children
}
