package dto

import (
	"errors"
	"net/http"

	"github.com/tyrefleet/backend/internal/domain/shared"
)

// Transport-level error codes. Domain errors keep their own code in responses.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "TOKEN_INVALID"
	ErrCodeTooLarge     = "REQUEST_TOO_LARGE"
)

// kindHTTPStatus maps an error kind to its default HTTP status
var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:    http.StatusBadRequest,
	shared.KindStateConflict: http.StatusConflict,
	shared.KindAuthorization: http.StatusForbidden,
	shared.KindNotFound:      http.StatusNotFound,
	shared.KindPersistence:   http.StatusInternalServerError,
}

// codeHTTPStatus overrides the kind status for specific codes
var codeHTTPStatus = map[string]int{
	shared.CodeOverReceipt:         http.StatusUnprocessableEntity,
	shared.CodeIneligibleTire:      http.StatusUnprocessableEntity,
	shared.CodeAlreadyExists:       http.StatusConflict,
	shared.CodeConstraintViolation: http.StatusConflict,
	shared.CodeTransientFailure:    http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for a domain error.
// Anything that is not a DomainError is a 500.
func GetHTTPStatus(err error) int {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	if status, ok := codeHTTPStatus[de.Code]; ok {
		return status
	}
	if status, ok := kindHTTPStatus[de.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorInfoFrom builds the error body for err. Persistence failures never leak
// their cause to the client.
func ErrorInfoFrom(err error, requestID string) *ErrorInfo {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return &ErrorInfo{Code: ErrCodeInternal, Message: "an unexpected error occurred", RequestID: requestID}
	}
	info := &ErrorInfo{
		Code:      de.Code,
		Kind:      string(de.Kind),
		Message:   de.Message,
		Retryable: de.Retryable,
		RequestID: requestID,
	}
	if de.Kind == shared.KindPersistence {
		return info
	}
	if de.EntityID != "" {
		info.Entity = &EntityRef{Type: de.EntityType, ID: de.EntityID}
	}
	info.CurrentState = de.CurrentState
	info.AttemptedState = de.AttemptedState
	return info
}
