package shared

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a domain error for callers deciding how to react.
type ErrorKind string

const (
	// KindValidation is malformed or out-of-range input, rejected before any write
	KindValidation ErrorKind = "VALIDATION"
	// KindStateConflict is an operation that is not valid for the entity's current state
	KindStateConflict ErrorKind = "STATE_CONFLICT"
	// KindAuthorization is an actor lacking a required capability
	KindAuthorization ErrorKind = "AUTHORIZATION"
	// KindNotFound is a missing entity
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindPersistence is a transaction, commit or constraint failure
	KindPersistence ErrorKind = "PERSISTENCE"
)

// Error codes shared across bounded contexts
const (
	CodeInvalidInput           = "INVALID_INPUT"
	CodeNotFound               = "NOT_FOUND"
	CodeAlreadyExists          = "ALREADY_EXISTS"
	CodeInvalidState           = "INVALID_STATE"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeInvalidStatus          = "INVALID_STATUS"
	CodeOverReceipt            = "OVER_RECEIPT"
	CodeIneligibleTire         = "INELIGIBLE_TIRE"
	CodeUnbalancedTransaction  = "UNBALANCED_TRANSACTION"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeForbidden              = "FORBIDDEN"
	CodeSelfApproval           = "SELF_APPROVAL"
	CodeConstraintViolation    = "CONSTRAINT_VIOLATION"
	CodeTransientFailure       = "TRANSIENT_FAILURE"
	CodePersistenceFailure     = "PERSISTENCE_FAILURE"
)

// DomainError represents a domain-level error.
// EntityID, CurrentState and AttemptedState are filled in whenever the error is about a
// specific entity so the API layer can build a message without re-querying.
type DomainError struct {
	Kind           ErrorKind `json:"kind"`
	Code           string    `json:"code"`
	Message        string    `json:"message"`
	EntityType     string    `json:"entity_type,omitempty"`
	EntityID       string    `json:"entity_id,omitempty"`
	CurrentState   string    `json:"current_state,omitempty"`
	AttemptedState string    `json:"attempted_state,omitempty"`
	Retryable      bool      `json:"retryable"`
	Cause          error     `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.EntityID != "" {
		fmt.Fprintf(&b, " [%s %s]", e.EntityType, e.EntityID)
	}
	if e.CurrentState != "" || e.AttemptedState != "" {
		fmt.Fprintf(&b, " (current=%s attempted=%s)", e.CurrentState, e.AttemptedState)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, so sentinel comparisons survive added detail
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithEntity returns a copy of the error bound to an entity
func (e *DomainError) WithEntity(entityType, id string) *DomainError {
	cp := *e
	cp.EntityType = entityType
	cp.EntityID = id
	return &cp
}

// WithStates returns a copy of the error carrying current and attempted states
func (e *DomainError) WithStates(current, attempted string) *DomainError {
	cp := *e
	cp.CurrentState = current
	cp.AttemptedState = attempted
	return &cp
}

// NewDomainError creates a new validation-kind domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Kind:    KindValidation,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates an error for malformed or out-of-range input
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

// NewStateConflictError creates an error for an operation the entity's state does not allow
func NewStateConflictError(entityType, entityID, current, attempted, message string) *DomainError {
	return &DomainError{
		Kind:           KindStateConflict,
		Code:           CodeInvalidState,
		Message:        message,
		EntityType:     entityType,
		EntityID:       entityID,
		CurrentState:   current,
		AttemptedState: attempted,
	}
}

// NewAuthorizationError creates an error for an actor lacking a capability
func NewAuthorizationError(actorID, capability, message string) *DomainError {
	return &DomainError{
		Kind:           KindAuthorization,
		Code:           CodeForbidden,
		Message:        message,
		EntityType:     "Actor",
		EntityID:       actorID,
		AttemptedState: capability,
	}
}

// NewNotFoundError creates an error for a missing entity
func NewNotFoundError(entityType, entityID string) *DomainError {
	return &DomainError{
		Kind:       KindNotFound,
		Code:       CodeNotFound,
		Message:    entityType + " not found",
		EntityType: entityType,
		EntityID:   entityID,
	}
}

// NewPersistenceError wraps a storage failure. Retryable marks transient causes
// (lost connection, serialization failure, deadlock).
func NewPersistenceError(code string, cause error, retryable bool) *DomainError {
	return &DomainError{
		Kind:      KindPersistence,
		Code:      code,
		Message:   "persistence failure",
		Retryable: retryable,
		Cause:     cause,
	}
}

// NewOverReceiptError reports a receipt larger than the remaining quantity of a line
func NewOverReceiptError(lineID string, remaining, requested int) *DomainError {
	return &DomainError{
		Kind:           KindValidation,
		Code:           CodeOverReceipt,
		Message:        fmt.Sprintf("cannot receive %d, only %d remaining", requested, remaining),
		EntityType:     "PurchaseOrderItem",
		EntityID:       lineID,
		CurrentState:   fmt.Sprintf("remaining=%d", remaining),
		AttemptedState: fmt.Sprintf("receive=%d", requested),
	}
}

// NewInvalidStatusError reports an unrecognized target status
func NewInvalidStatusError(entityType, entityID, current, requested string) *DomainError {
	return &DomainError{
		Kind:           KindValidation,
		Code:           CodeInvalidStatus,
		Message:        fmt.Sprintf("unrecognized status %q", requested),
		EntityType:     entityType,
		EntityID:       entityID,
		CurrentState:   current,
		AttemptedState: requested,
	}
}

// NewIneligibleTireError reports a tire whose status does not allow the requested binding
func NewIneligibleTireError(tireID, current, attempted string) *DomainError {
	return &DomainError{
		Kind:           KindStateConflict,
		Code:           CodeIneligibleTire,
		Message:        "tire is not eligible",
		EntityType:     "Tire",
		EntityID:       tireID,
		CurrentState:   current,
		AttemptedState: attempted,
	}
}

// NewConcurrentModificationError reports a lost optimistic-lock race
func NewConcurrentModificationError(entityType, entityID string) *DomainError {
	return &DomainError{
		Kind:       KindStateConflict,
		Code:       CodeConcurrentModification,
		Message:    "entity was modified by another transaction",
		EntityType: entityType,
		EntityID:   entityID,
		Retryable:  true,
	}
}

// IsKind reports whether err is a DomainError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// IsRetryable reports whether the caller may retry the whole operation unchanged
func IsRetryable(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}

// Common domain errors
var (
	ErrNotFound            = &DomainError{Kind: KindNotFound, Code: CodeNotFound, Message: "Resource not found"}
	ErrAlreadyExists       = &DomainError{Kind: KindStateConflict, Code: CodeAlreadyExists, Message: "Resource already exists"}
	ErrInvalidInput        = NewValidationError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = &DomainError{Kind: KindStateConflict, Code: CodeConcurrentModification, Message: "Resource was modified by another process", Retryable: true}
	ErrForbidden           = &DomainError{Kind: KindAuthorization, Code: CodeForbidden, Message: "Access to this resource is forbidden"}
	ErrInvalidState        = &DomainError{Kind: KindStateConflict, Code: CodeInvalidState, Message: "Operation not allowed in current state"}
)
