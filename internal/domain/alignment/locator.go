package alignment

import "strings"

// ---------------------------------------------------------------------------
// Locator
// ---------------------------------------------------------------------------

// maskAwareIndex returns the byte offset of the first occurrence of symbol in
// markup whose entire matched range lies outside command-name tokens, or -1.
// Rejected candidates are skipped one byte at a time, so a bare letter that
// first appears inside an unrelated command name can still match a later,
// syntactically free occurrence.
func maskAwareIndex(markup string, mask []bool, symbol string) int {
	from := 0
	for from+len(symbol) <= len(markup) {
		rel := strings.Index(markup[from:], symbol)
		if rel < 0 {
			return -1
		}
		at := from + rel
		if !maskCovers(mask, at, at+len(symbol)) {
			return at
		}
		from = at + 1
	}
	return -1
}

// locateSymbol finds symbol in markup.  Symbols that themselves contain a
// command marker intentionally reference a command and are searched plainly,
// ignoring the mask; everything else is searched mask-aware.
func locateSymbol(markup string, mask []bool, symbol string) int {
	if symbol == "" {
		return -1
	}
	if strings.Contains(symbol, `\`) {
		return strings.Index(markup, symbol)
	}
	return maskAwareIndex(markup, mask, symbol)
}

// locate converts one component from phrase/symbol text into character
// spans.  The first return is valid only when ok is true; diagnostics record
// every symbol skip and the component drop itself, if any.
//
// Only the first occurrence of the counterpart and of each symbol is ever
// used.  When the same text occurs more than once the intended referent may
// be a later occurrence; that ambiguity is a documented limitation, not
// something this stage guesses at.
func locate(markup, narrative string, mask []bool, comp RawComponent) (resolvedComponent, []Diagnostic, bool) {
	var diags []Diagnostic

	if len(comp.Symbols) == 0 {
		diags = append(diags, Diagnostic{
			Stage:       "locate",
			Reason:      ReasonEmptySymbols,
			Counterpart: comp.Counterpart,
		})
		return resolvedComponent{}, diags, false
	}

	// A counterpart the model paraphrased instead of quoting is unusable for
	// anchoring: drop the whole component.
	at := strings.Index(narrative, comp.Counterpart)
	if at < 0 {
		diags = append(diags, Diagnostic{
			Stage:       "locate",
			Reason:      ReasonCounterpartNotFound,
			Counterpart: comp.Counterpart,
		})
		return resolvedComponent{}, diags, false
	}
	narrativeSpan := Span{Start: at, End: at + len(comp.Counterpart)}

	matches := make([]spanMatch, 0, len(comp.Symbols))
	for _, sym := range comp.Symbols {
		pos := locateSymbol(markup, mask, sym)
		if pos < 0 {
			diags = append(diags, Diagnostic{
				Stage:       "locate",
				Reason:      ReasonSymbolNotFound,
				Counterpart: comp.Counterpart,
				Symbol:      sym,
			})
			continue
		}
		span := Span{Start: pos, End: pos + len(sym)}
		matches = append(matches, spanMatch{span: span, text: markup[span.Start:span.End]})
	}

	if len(matches) == 0 {
		diags = append(diags, Diagnostic{
			Stage:       "locate",
			Reason:      ReasonAllSymbolsUnlocated,
			Counterpart: comp.Counterpart,
		})
		return resolvedComponent{}, diags, false
	}

	return resolvedComponent{
		raw:           comp,
		narrativeSpan: narrativeSpan,
		matches:       matches,
	}, diags, true
}
