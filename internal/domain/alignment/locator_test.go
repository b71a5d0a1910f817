package alignment

import (
	"testing"
)

func mustLocate(t *testing.T, markup, narrative string, c RawComponent) resolvedComponent {
	t.Helper()
	rc, diags, ok := locate(markup, narrative, commandMask(markup), c)
	if !ok {
		t.Fatalf("locate(%+v) dropped the component, diags = %+v", c, diags)
	}
	return rc
}

func TestLocate_NarrativeSpanMatchesCounterpartExactly(t *testing.T) {
	narrative := "measure the miss for every data point and punish big errors"
	rc := mustLocate(t, "y_i-f(x_i)", narrative, comp("the miss", "y_i"))

	got := narrative[rc.narrativeSpan.Start:rc.narrativeSpan.End]
	if got != "the miss" {
		t.Errorf("narrative slice = %q, want %q", got, "the miss")
	}
}

func TestLocate_CounterpartNotFoundDropsComponent(t *testing.T) {
	_, diags, ok := locate("x+y", "add the parts", commandMask("x+y"),
		comp("a phrase the model invented", "x"))

	if ok {
		t.Fatal("component with an unlocatable counterpart must be dropped")
	}
	if len(diags) != 1 || diags[0].Reason != ReasonCounterpartNotFound {
		t.Errorf("diags = %+v, want one counterpart_not_found record", diags)
	}
}

func TestLocate_MarkupSpanFidelity(t *testing.T) {
	markup := `(y_i-f(x_i))^2`
	rc := mustLocate(t, markup, "the miss", comp("the miss", "y_i-f(x_i)"))

	if len(rc.matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(rc.matches))
	}
	m := rc.matches[0]
	if markup[m.span.Start:m.span.End] != m.text || m.text != "y_i-f(x_i)" {
		t.Errorf("span (%d,%d) text %q does not slice back to the symbol", m.span.Start, m.span.End, m.text)
	}
}

func TestLocate_BareLetterSkipsCommandNames(t *testing.T) {
	// The first unmasked m is the \mathrm argument, never one of the
	// letters of the command name itself.
	markup := `\mathrm{m}^{m}`
	rc := mustLocate(t, markup, "the mass", comp("the mass", "m"))

	if got := rc.matches[0].span.Start; got != 8 {
		t.Errorf("located m at %d, want 8 (first occurrence outside the command name)", got)
	}
}

func TestLocate_SymbolWithBackslashSearchesPlainly(t *testing.T) {
	markup := `\sum_{n=0}^{N-1} x_n`
	rc := mustLocate(t, markup, "add them up", comp("add them up", `\sum`))

	if got := rc.matches[0].span.Start; got != 0 {
		t.Errorf("located \\sum at %d, want 0 (command-referencing symbols ignore the mask)", got)
	}
}

func TestLocate_UnlocatableSymbolIsSkippedNotFatal(t *testing.T) {
	markup := "a+b"
	rc, diags, ok := locate(markup, "combine a and z", commandMask(markup),
		comp("combine a and z", "a", "z"))

	if !ok {
		t.Fatal("component with one locatable symbol must survive")
	}
	if len(rc.matches) != 1 || rc.matches[0].text != "a" {
		t.Errorf("matches = %+v, want only the located symbol a", rc.matches)
	}
	if len(diags) != 1 || diags[0].Reason != ReasonSymbolNotFound || diags[0].Symbol != "z" {
		t.Errorf("diags = %+v, want one symbol_not_found record for z", diags)
	}
}

func TestLocate_AllSymbolsUnlocatedDropsComponent(t *testing.T) {
	markup := "a+b"
	_, diags, ok := locate(markup, "something", commandMask(markup),
		comp("something", "q", "z"))

	if ok {
		t.Fatal("component with zero located symbols must be dropped")
	}
	last := diags[len(diags)-1]
	if last.Reason != ReasonAllSymbolsUnlocated {
		t.Errorf("final diagnostic = %+v, want all_symbols_unlocated", last)
	}
}

func TestLocate_SymbolOnlyInsideCommandNameIsUnlocatable(t *testing.T) {
	markup := `\mathrm{x}`
	_, diags, ok := locate(markup, "the rate", commandMask(markup),
		comp("the rate", "r"))

	if ok {
		t.Fatal("a letter that exists only inside a command name must not locate")
	}
	if diags[0].Reason != ReasonSymbolNotFound {
		t.Errorf("diags = %+v", diags)
	}
}

func TestLocate_EmptySymbolListDropsComponent(t *testing.T) {
	_, diags, ok := locate("x", "the thing", commandMask("x"), RawComponent{Counterpart: "the thing"})

	if ok {
		t.Fatal("component without symbols must be dropped")
	}
	if diags[0].Reason != ReasonEmptySymbols {
		t.Errorf("diags = %+v", diags)
	}
}

// Known limitation: only the first occurrence of a phrase or symbol is ever
// used, even when the intended referent is a later occurrence.
func TestLocate_FirstOccurrenceOnly(t *testing.T) {
	markup := "x + x"
	rc := mustLocate(t, markup, "double x here and x there",
		comp("x there", "x"))

	if got := rc.matches[0].span.Start; got != 0 {
		t.Errorf("symbol x located at %d, want 0 (always the first occurrence)", got)
	}
	if got := rc.narrativeSpan.Start; got != 18 {
		t.Errorf("narrative span starts at %d, want 18", got)
	}
}

func TestMaskAwareIndex_AdvancesPastRejectedCandidates(t *testing.T) {
	markup := `\nu + n`
	mask := commandMask(markup)

	if got := maskAwareIndex(markup, mask, "n"); got != 6 {
		t.Errorf("maskAwareIndex = %d, want 6 (the free n, not the one in \\nu)", got)
	}
}
