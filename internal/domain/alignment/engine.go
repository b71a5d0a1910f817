package alignment

import (
	"github.com/eli5y/eli5y/pkg/errors"
)

// ---------------------------------------------------------------------------
// Engine
// ---------------------------------------------------------------------------

// ErrNoComponents is returned when every draft component was dropped during
// alignment.  It is the only terminal failure the engine surfaces: callers
// should treat it as "the formula could not be explained", not as an internal
// defect.  Per-component drops are reported through diagnostics instead.
var ErrNoComponents = errors.New(errors.ErrCodeAlignEmptyResult,
	"no draft component could be grounded in the source text")

// Align runs the full pipeline (normalize, locate, hierarchy, assemble)
// over one formula-alignment request.  markup is the original formula
// source; draft is the fully materialized language-model output.
//
// The narrative string is returned untouched inside the Result.  Diagnostics
// describe every component and symbol that was dropped along the way and are
// returned even when the run fails with ErrNoComponents.
func Align(markup string, draft Draft) (*Result, []Diagnostic, error) {
	survivors, diags := normalize(draft.Components)

	// The mask is computed once per request and shared by every symbol
	// lookup in this run.
	mask := commandMask(markup)

	resolved := make([]resolvedComponent, 0, len(survivors))
	for _, comp := range survivors {
		rc, locDiags, ok := locate(markup, draft.Explanation, mask, comp)
		diags = append(diags, locDiags...)
		if ok {
			resolved = append(resolved, rc)
		}
	}

	if len(resolved) == 0 {
		return nil, diags, ErrNoComponents
	}

	children := buildChildren(resolved)
	return assemble(draft.Explanation, resolved, children), diags, nil
}
