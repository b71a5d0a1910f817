// Package alignment implements the semantic component alignment and hierarchy
// engine: the deterministic stage that turns a noisy language-model draft of a
// formula explanation into validated, position-anchored, hierarchically nested
// semantic groups suitable for UI highlighting.
//
// The engine is a pure, synchronous computation over immutable input strings.
// It holds no state between runs, performs no I/O, and is safe to invoke from
// any number of goroutines concurrently.
package alignment

import (
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// Span
// ---------------------------------------------------------------------------

// Span is a half-open [Start, End) byte range into either the markup string
// or the narrative string.  On the wire it is encoded as a two-element JSON
// array [start, end], matching the format the UI consumes.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether s strictly contains c: s covers every position of
// c and is longer than c.  Equal spans do not contain each other.
func (s Span) Contains(c Span) bool {
	return s.Start <= c.Start && c.End <= s.End && s.Len() > c.Len()
}

// MarshalJSON encodes the span as [start, end].
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Start, s.End})
}

// UnmarshalJSON decodes a [start, end] array.
func (s *Span) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("alignment: span must be a [start, end] pair: %w", err)
	}
	s.Start, s.End = pair[0], pair[1]
	return nil
}

// ---------------------------------------------------------------------------
// Draft input
// ---------------------------------------------------------------------------

// RawComponent is one model-proposed mapping from one or more markup
// substrings to a narrative phrase.  Symbols are not guaranteed distinct,
// non-overlapping, or even present in the markup; the engine validates all of
// that downstream.
type RawComponent struct {
	// Symbols is the ordered, non-empty list of markup substrings the model
	// claims for this component.
	Symbols []string `json:"symbol"`

	// Counterpart is the verbatim narrative phrase the symbols map to.
	Counterpart string `json:"counterpart"`

	// Role is an optional plain-language label for what the component does.
	Role string `json:"role,omitempty"`
}

// UnmarshalJSON accepts both the current draft shape, where "symbol" is a
// list of strings, and the legacy shape where it is a bare string.  The bare
// string is normalized to a single-element list on ingress so no downstream
// stage ever branches on shape.
func (c *RawComponent) UnmarshalJSON(data []byte) error {
	var probe struct {
		Symbol      json.RawMessage `json:"symbol"`
		Counterpart string          `json:"counterpart"`
		Role        string          `json:"role"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("alignment: component: %w", err)
	}
	c.Counterpart = probe.Counterpart
	c.Role = probe.Role
	c.Symbols = nil

	if len(probe.Symbol) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(probe.Symbol, &list); err == nil {
		c.Symbols = list
		return nil
	}
	var single string
	if err := json.Unmarshal(probe.Symbol, &single); err == nil {
		c.Symbols = []string{single}
		return nil
	}
	// Wrong type entirely: leave the symbol list empty and let the engine
	// treat the component as unlocatable instead of failing the whole draft.
	return nil
}

// Draft is the structured output of the language-model collaborator: a
// one-sentence explanation plus the claimed component mappings.
type Draft struct {
	Explanation string         `json:"explanation"`
	Components  []RawComponent `json:"components"`
}

// ---------------------------------------------------------------------------
// Intermediate representation
// ---------------------------------------------------------------------------

// spanMatch pairs a located markup span with the substring it matched.
type spanMatch struct {
	span Span
	text string
}

// resolvedComponent is a RawComponent whose counterpart and symbols have been
// anchored to exact character spans.  Symbols that failed to locate are
// absent from matches; a component with zero matches is dropped before this
// type is ever constructed.
type resolvedComponent struct {
	raw           RawComponent
	narrativeSpan Span
	matches       []spanMatch
}

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

// SemanticGroup is the final, validated, span-anchored, hierarchically placed
// unit produced by the engine.
type SemanticGroup struct {
	// Ranges are the markup spans of the group's symbols, in the order the
	// symbols were given.
	Ranges []Span `json:"ranges"`

	// Latex holds the markup substrings matching Ranges one-to-one.
	Latex []string `json:"latex"`

	// Label is the counterpart phrase, or the role when a caller prefers it.
	Label string `json:"label"`

	// NarrativeSpan anchors the group's phrase inside the narrative.
	NarrativeSpan Span `json:"narrative_span"`

	// Children are indices into the enclosing group list for groups whose
	// spans are directly (not transitively) contained in this group's spans.
	Children []int `json:"children"`
}

// Result pairs the untouched narrative with the ordered semantic groups.
type Result struct {
	Narrative string          `json:"narrative"`
	Groups    []SemanticGroup `json:"groups"`
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

// DropReason classifies why a component or symbol was discarded.
type DropReason string

const (
	// ReasonEmptySymbols marks a component that arrived with no usable
	// symbol list (malformed draft shape).
	ReasonEmptySymbols DropReason = "empty_symbol_list"

	// ReasonGlueSubsumed marks a glue-only component whose symbols are all
	// already expressed inside another surviving component.
	ReasonGlueSubsumed DropReason = "glue_subsumed"

	// ReasonCounterpartNotFound marks a component whose counterpart phrase
	// is not a literal substring of the narrative.
	ReasonCounterpartNotFound DropReason = "counterpart_not_found"

	// ReasonSymbolNotFound marks a single symbol that could not be located
	// in the markup outside command-name tokens.
	ReasonSymbolNotFound DropReason = "symbol_not_found"

	// ReasonAllSymbolsUnlocated marks a component dropped because every one
	// of its symbols failed to locate.
	ReasonAllSymbolsUnlocated DropReason = "all_symbols_unlocated"
)

// Diagnostic records one recoverable per-component or per-symbol drop.  The
// engine returns diagnostics alongside the result instead of logging them,
// leaving persistence and surfacing decisions to the caller.
type Diagnostic struct {
	Stage       string     `json:"stage"` // "normalize" or "locate"
	Reason      DropReason `json:"reason"`
	Counterpart string     `json:"counterpart,omitempty"`
	Symbol      string     `json:"symbol,omitempty"`
}
