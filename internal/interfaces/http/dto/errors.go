package dto

import (
	"net/http"
	"strings"
)

// Error codes returned in ErrorInfo.Code
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeDuplicateBarcode    = "ERR_DUPLICATE_BARCODE"
	ErrCodeDuplicateSerial     = "ERR_DUPLICATE_SERIAL"
	ErrCodeCounterExhausted    = "ERR_COUNTER_EXHAUSTED"
	ErrCodeConfigUnavailable   = "ERR_CONFIG_UNAVAILABLE"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock   = "ERR_INSUFFICIENT_STOCK"
	ErrCodeRequestTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateBarcode:    http.StatusConflict,
	ErrCodeDuplicateSerial:     http.StatusConflict,
	ErrCodeCounterExhausted:    http.StatusUnprocessableEntity,
	ErrCodeConfigUnavailable:   http.StatusServiceUnavailable,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
}

// NormalizeErrorCode converts a domain error code to its API form. Codes
// already in API form pass through.
func NormalizeErrorCode(code string) string {
	if code == "" {
		return ErrCodeInternal
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}

// GetHTTPStatus returns the HTTP status for an API error code. Unlisted
// ERR_INVALID_* codes are client input errors; any other unlisted code is a
// business rule violation.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "ERR_INVALID_") {
		return http.StatusBadRequest
	}
	if strings.HasPrefix(code, "ERR_") {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
