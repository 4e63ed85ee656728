package dto

import (
	"net/http"
	"strings"
)

// Error codes surfaced by the HTTP layer itself
const (
	ErrCodeInternal     = "INTERNAL"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeValidation   = "VALIDATION_FAILED"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes beginning with INVALID_ fall back to 400 when not listed here.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,

	"NOT_FOUND": http.StatusNotFound,
	"FORBIDDEN": http.StatusForbidden,

	"CONFLICT":             http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"BATCH_CONFLICT":       http.StatusConflict,

	// workflow and reconciliation rule violations
	"INVALID_STATE":     http.StatusUnprocessableEntity,
	"INVALID_ACTION":    http.StatusUnprocessableEntity,
	"QUANTITY_EXCEEDED": http.StatusUnprocessableEntity,
	"LINE_NOT_FOUND":    http.StatusUnprocessableEntity,
	"DUPLICATE_ITEM":    http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
