package alignment

import (
	"regexp"
	"strings"
)

// ---------------------------------------------------------------------------
// Component normalizer
// ---------------------------------------------------------------------------

// syntacticGlue is the closed set of bare operator, arrow, and relation
// tokens that carry no standalone meaning.  A component made entirely of
// these is a model fragmentation artifact, not a semantic unit.
var syntacticGlue = map[string]struct{}{
	"+": {}, "-": {}, "=": {},
	`\cdot`: {}, `\times`: {}, `\div`: {}, `\pm`: {}, `\mp`: {},
	`\longleftarrow`: {}, `\leftarrow`: {}, `\rightarrow`: {}, `\longrightarrow`: {},
	`\Longleftarrow`: {}, `\Rightarrow`: {}, `\Longrightarrow`: {},
	`\approx`: {}, `\neq`: {}, `\leq`: {}, `\geq`: {}, `\equiv`: {}, `\sim`: {}, `\propto`: {},
}

// bareModifierRe matches a bare exponent or subscript: ^{...} or _{...} with
// nothing else, or a caret/underscore followed by a single alphanumeric.
var bareModifierRe = regexp.MustCompile(`^[\^_]\{[^{}]*\}$|^[\^_][a-zA-Z0-9]$`)

// isSyntacticGlue reports whether a symbol is a bare operator or a bare
// sub/superscript modifier.
func isSyntacticGlue(symbol string) bool {
	s := strings.TrimSpace(symbol)
	if _, ok := syntacticGlue[s]; ok {
		return true
	}
	return bareModifierRe.MatchString(s)
}

// mergeDuplicateCounterparts collapses components that share the same trimmed
// counterpart text into a single component, in first-seen order.
//
// The model sometimes splits what should be one multi-symbol component into
// separate entries with identical counterparts, e.g. s_1^2 and s_2^2 both
// quoting "their individual spreads".  The merged component carries the
// order-preserving deduplicated union of all symbol lists and the first
// member's role.  Components with an empty counterpart pass through
// unmerged.
func mergeDuplicateCounterparts(components []RawComponent) []RawComponent {
	seen := make(map[string]int, len(components)) // trimmed counterpart → merged index
	merged := make([]RawComponent, 0, len(components))

	for _, comp := range components {
		key := strings.TrimSpace(comp.Counterpart)
		if key == "" {
			merged = append(merged, cloneComponent(comp))
			continue
		}
		if at, ok := seen[key]; ok {
			existing := &merged[at]
			for _, s := range comp.Symbols {
				if !containsString(existing.Symbols, s) {
					existing.Symbols = append(existing.Symbols, s)
				}
			}
			continue
		}
		seen[key] = len(merged)
		merged = append(merged, cloneComponent(comp))
	}
	return merged
}

// dropSubsumedGlue removes components whose symbols are all syntactic glue
// and all already expressed, as literal substrings, inside another surviving
// component's joined symbol text.  Glue with no such parent is kept: dropping
// it without a parent would silently lose whatever the model meant by it.
//
// Subsumption parents are resolved in two rounds: first against components
// that are not glue-only (guaranteed survivors of this pass), then against
// glue components that the first round kept.  This keeps the "surviving
// parent" requirement well-defined without a fixpoint iteration.
func dropSubsumedGlue(components []RawComponent) ([]RawComponent, []Diagnostic) {
	if len(components) < 2 {
		return components, nil
	}

	glueOnly := make([]bool, len(components))
	for i, comp := range components {
		glueOnly[i] = len(comp.Symbols) > 0 && allGlue(comp.Symbols)
	}

	dropped := make([]bool, len(components))
	for round := 0; round < 2; round++ {
		for i, comp := range components {
			if !glueOnly[i] || dropped[i] {
				continue
			}
			for j, other := range components {
				if j == i || dropped[j] {
					continue
				}
				// Round 0 considers only non-glue parents; round 1 lets
				// surviving glue subsume remaining glue.
				if round == 0 && glueOnly[j] {
					continue
				}
				if subsumes(other.Symbols, comp.Symbols) {
					dropped[i] = true
					break
				}
			}
		}
	}

	out := make([]RawComponent, 0, len(components))
	var diags []Diagnostic
	for i, comp := range components {
		if dropped[i] {
			diags = append(diags, Diagnostic{
				Stage:       "normalize",
				Reason:      ReasonGlueSubsumed,
				Counterpart: comp.Counterpart,
				Symbol:      strings.Join(comp.Symbols, " "),
			})
			continue
		}
		out = append(out, comp)
	}
	return out, diags
}

// normalize runs the merge pass followed by the glue pass and returns the
// surviving components plus diagnostics for everything removed.
func normalize(components []RawComponent) ([]RawComponent, []Diagnostic) {
	merged := mergeDuplicateCounterparts(components)
	return dropSubsumedGlue(merged)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func cloneComponent(c RawComponent) RawComponent {
	out := c
	out.Symbols = make([]string, len(c.Symbols))
	copy(out.Symbols, c.Symbols)
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func allGlue(symbols []string) bool {
	for _, s := range symbols {
		if !isSyntacticGlue(s) {
			return false
		}
	}
	return true
}

// subsumes reports whether every symbol in small occurs as a literal
// substring of the space-joined symbol text of big.
func subsumes(big, small []string) bool {
	joined := strings.Join(big, " ")
	for _, s := range small {
		if !strings.Contains(joined, strings.TrimSpace(s)) {
			return false
		}
	}
	return true
}
