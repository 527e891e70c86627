package errors

import (
	"net/http"
	"strings"
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
	ErrCodeNotImplemented     ErrorCode = "COMMON_015"
)

// Reaction Module Error Codes
const (
	ErrCodeReactionEmptyReactants  ErrorCode = "RXN_001"
	ErrCodeReactionInvalidElement  ErrorCode = "RXN_002"
	ErrCodeReactionFormulaInvalid  ErrorCode = "RXN_003"
	ErrCodeReactionCorpusInvalid   ErrorCode = "RXN_004"
	ErrCodeReactionCorpusNotFound  ErrorCode = "RXN_005"
	ErrCodeReactionNotTrained      ErrorCode = "RXN_006"
)

// AI/ML Tier Error Codes
const (
	ErrCodeModelNotAvailable      ErrorCode = "AI_001"
	ErrCodeModelInferenceFailed   ErrorCode = "AI_002"
	ErrCodeModelArtifactInvalid   ErrorCode = "AI_003"
	ErrCodeModelInputInvalid      ErrorCode = "AI_004"
	ErrCodeReasoningCallFailed    ErrorCode = "AI_005"
	ErrCodeReasoningParseFailed   ErrorCode = "AI_006"
)

// Aliases kept short at call sites.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
	CodeUnknown        = ErrorCode("UNKNOWN")
	CodeOK             = ErrorCode("OK")
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
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeReactionEmptyReactants: http.StatusBadRequest,
	ErrCodeReactionInvalidElement: http.StatusBadRequest,
	ErrCodeReactionFormulaInvalid: http.StatusBadRequest,
	ErrCodeReactionCorpusInvalid:  http.StatusBadRequest,
	ErrCodeReactionCorpusNotFound: http.StatusNotFound,
	ErrCodeReactionNotTrained:     http.StatusServiceUnavailable,

	ErrCodeModelNotAvailable:    http.StatusServiceUnavailable,
	ErrCodeModelInferenceFailed: http.StatusInternalServerError,
	ErrCodeModelArtifactInvalid: http.StatusInternalServerError,
	ErrCodeModelInputInvalid:    http.StatusBadRequest,
	ErrCodeReasoningCallFailed:  http.StatusBadGateway,
	ErrCodeReasoningParseFailed: http.StatusBadGateway,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeReactionEmptyReactants: "reactant list is empty",
	ErrCodeReactionInvalidElement: "invalid element symbol",
	ErrCodeReactionFormulaInvalid: "invalid chemical formula",
	ErrCodeReactionCorpusInvalid:  "invalid training corpus",
	ErrCodeReactionCorpusNotFound: "training corpus not found",
	ErrCodeReactionNotTrained:     "prediction index not trained",

	ErrCodeModelNotAvailable:    "model not available",
	ErrCodeModelInferenceFailed: "model inference failed",
	ErrCodeModelArtifactInvalid: "invalid model artifact",
	ErrCodeModelInputInvalid:    "invalid input for model",
	ErrCodeReasoningCallFailed:  "external reasoning call failed",
	ErrCodeReasoningParseFailed: "failed to parse reasoning response",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
