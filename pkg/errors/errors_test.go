// Package errors_test provides unit tests for the AppError type, factory
// functions, and error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eli5y/eli5y/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestNew
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"formula not found", errors.ErrCodeFormulaNotFound, "formula 4f6a not found"},
		{"invalid param", errors.CodeInvalidParam, "latex must not be empty"},
		{"empty alignment", errors.ErrCodeAlignEmptyResult, "no components survived"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail, "Detail should be empty for bare New()")
			assert.Nil(t, ae.Cause, "Cause should be nil for bare New()")
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	result := errors.Wrap(nil, errors.CodeInternal, "should not matter")
	assert.Nil(t, result)
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	base := stderrors.New("connection refused")
	wrapped := errors.Wrap(base, errors.ErrCodeDatabaseError, "query failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeDatabaseError, wrapped.Code)
	assert.True(t, stderrors.Is(wrapped, base), "errors.Is must traverse the cause chain")
}

func TestWrap_UnknownCodePreservesOriginalClassification(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeAlignEmptyResult, "no components survived")
	outer := errors.Wrap(inner, errors.CodeUnknown, "alignment run failed")

	require.NotNil(t, outer)
	assert.Equal(t, errors.ErrCodeAlignEmptyResult, outer.Code,
		"wrapping with CodeUnknown must keep the inner domain code")
}

// ─────────────────────────────────────────────────────────────────────────────
// Error() format
// ─────────────────────────────────────────────────────────────────────────────

func TestError_FormatWithAndWithoutDetail(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeOCRLowConfidence, "unable to recognize formula")
	assert.Equal(t, "[OCR_003] unable to recognize formula", ae.Error())

	withDetail := ae.WithDetail("confidence=0.41")
	assert.Equal(t, "[OCR_003] unable to recognize formula: confidence=0.41", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")
}

func TestWithDetail_NilReceiver(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_FindsCodeAnywhereInChain(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeLLMRateLimited, "429 from upstream")
	mid := fmt.Errorf("calling model: %w", inner)
	outer := errors.Wrap(mid, errors.ErrCodeFormulaParseFailed, "parse failed")

	assert.True(t, errors.IsCode(outer, errors.ErrCodeLLMRateLimited))
	assert.True(t, errors.IsCode(outer, errors.ErrCodeFormulaParseFailed))
	assert.False(t, errors.IsCode(outer, errors.ErrCodeOCRFailed))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.NotFound("missing")))
	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeFormulaNotFound, "missing")))
	assert.False(t, errors.IsNotFound(errors.Internal("boom")))
	assert.False(t, errors.IsNotFound(stderrors.New("plain")))
}

func TestIsValidation(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsValidation(errors.InvalidParam("bad input")))
	assert.True(t, errors.IsValidation(errors.New(errors.ErrCodeFormulaEmptyLatex, "empty latex")))
	assert.False(t, errors.IsValidation(errors.NotFound("missing")))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeCacheError,
		errors.GetCode(errors.New(errors.ErrCodeCacheError, "redis down")))
}

// ─────────────────────────────────────────────────────────────────────────────
// HTTP status mapping
// ─────────────────────────────────────────────────────────────────────────────

func TestHTTPStatus_KnownAndUnknownCodes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusNotFound, errors.HTTPStatus(errors.ErrCodeFormulaNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, errors.HTTPStatus(errors.ErrCodeAlignEmptyResult))
	assert.Equal(t, http.StatusTooManyRequests, errors.HTTPStatus(errors.ErrCodeLLMRateLimited))
	assert.Equal(t, http.StatusInternalServerError, errors.HTTPStatus(errors.ErrorCode("NOPE")))
}
