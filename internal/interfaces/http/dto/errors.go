package dto

import "net/http"

// General error codes used by the HTTP layer itself. Domain error codes
// (NOT_FOUND, VALIDATION_ERROR, ...) pass through from the domain unchanged.
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeNotFound   = "NOT_FOUND"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Conflicts with existing state map to 409, business rule rejections to 422,
// malformed input to 400.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	"VALIDATION_ERROR": http.StatusBadRequest,
	"NOT_FOUND":        http.StatusNotFound,

	// Statement import rejections
	"EMPTY_STATEMENT":            http.StatusBadRequest,
	"MISSING_DATE_COLUMN":        http.StatusBadRequest,
	"MISSING_DESCRIPTION_COLUMN": http.StatusBadRequest,
	"MISSING_AMOUNT_COLUMNS":     http.StatusBadRequest,

	// Duplicate or already-existing state
	"CHART_EXISTS":           http.StatusConflict,
	"ALREADY_CALCULATED":     http.StatusConflict,
	"ALREADY_RECONCILED":     http.StatusConflict,
	"LINE_ALREADY_MATCHED":   http.StatusConflict,
	"TRANSACTION_REFERENCED": http.StatusConflict,
	"RECONCILIATION_FINAL":   http.StatusConflict,
	"CONCURRENCY_CONFLICT":   http.StatusConflict,

	// Business rule rejections
	"STATE_CONFLICT":         http.StatusUnprocessableEntity,
	"INACTIVE_SCHEDULE":      http.StatusUnprocessableEntity,
	"NO_ELIGIBLE_LOTS":       http.StatusUnprocessableEntity,
	"ZERO_ENTITLEMENT":       http.StatusUnprocessableEntity,
	"UNBALANCED_JOURNAL":     http.StatusUnprocessableEntity,
	"UNRESOLVED_LINES":       http.StatusUnprocessableEntity,
	"TRANSACTION_RECONCILED": http.StatusUnprocessableEntity,
	"SCHEME_MISMATCH":        http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to 500
// for unknown codes
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
