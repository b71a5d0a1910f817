package errors

import (
	"net/http"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
)

// Aliases used at call sites that predate the ErrCode* naming.
const (
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeUnauthorized = ErrCodeUnauthorized
	CodeForbidden    = ErrCodeForbidden
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeRateLimit    = ErrCodeTooManyRequests
)

// Formula Module Error Codes
const (
	ErrCodeFormulaNotFound     ErrorCode = "FRM_001"
	ErrCodeFormulaEmptyLatex   ErrorCode = "FRM_002"
	ErrCodeFormulaParseFailed  ErrorCode = "FRM_003"
	ErrCodeFormulaAlreadySaved ErrorCode = "FRM_004"
)

// Alignment Engine Error Codes
const (
	ErrCodeAlignEmptyResult  ErrorCode = "ALN_001"
	ErrCodeAlignInvalidDraft ErrorCode = "ALN_002"
)

// Language-Model Collaborator Error Codes
const (
	ErrCodeLLMUnavailable       ErrorCode = "LLM_001"
	ErrCodeLLMInferenceFailed   ErrorCode = "LLM_002"
	ErrCodeLLMMalformedResponse ErrorCode = "LLM_003"
	ErrCodeLLMRateLimited       ErrorCode = "LLM_004"
)

// OCR Collaborator Error Codes
const (
	ErrCodeOCRUnavailable   ErrorCode = "OCR_001"
	ErrCodeOCRInvalidImage  ErrorCode = "OCR_002"
	ErrCodeOCRLowConfidence ErrorCode = "OCR_003"
	ErrCodeOCRFailed        ErrorCode = "OCR_004"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,

	ErrCodeFormulaNotFound:     http.StatusNotFound,
	ErrCodeFormulaEmptyLatex:   http.StatusBadRequest,
	ErrCodeFormulaParseFailed:  http.StatusBadGateway,
	ErrCodeFormulaAlreadySaved: http.StatusConflict,

	ErrCodeAlignEmptyResult:  http.StatusUnprocessableEntity,
	ErrCodeAlignInvalidDraft: http.StatusUnprocessableEntity,

	ErrCodeLLMUnavailable:       http.StatusBadGateway,
	ErrCodeLLMInferenceFailed:   http.StatusBadGateway,
	ErrCodeLLMMalformedResponse: http.StatusBadGateway,
	ErrCodeLLMRateLimited:       http.StatusTooManyRequests,

	ErrCodeOCRUnavailable:   http.StatusServiceUnavailable,
	ErrCodeOCRInvalidImage:  http.StatusBadRequest,
	ErrCodeOCRLowConfidence: http.StatusBadRequest,
	ErrCodeOCRFailed:        http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status code associated with c, defaulting to
// 500 Internal Server Error for unmapped codes.
func HTTPStatus(c ErrorCode) int {
	if s, ok := ErrorCodeHTTPStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}
