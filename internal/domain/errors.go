package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternalError indicates an internal failure that callers should not inspect.
	ErrInternalError = errors.New("internal error")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InvalidSortFieldError is returned when a caller requests ordering by a field
// outside the sortable allow-list. The allowed set is included so the caller
// can surface it without a second lookup.
type InvalidSortFieldError struct {
	Field   string
	Allowed []string
}

// Error implements the error interface.
func (e *InvalidSortFieldError) Error() string {
	allowed := append([]string(nil), e.Allowed...)
	sort.Strings(allowed)
	return fmt.Sprintf("field %q is not sortable (allowed: %s)", e.Field, strings.Join(allowed, ", "))
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *InvalidSortFieldError) Unwrap() error {
	return ErrInvalidInput
}

// InvalidStatusTransitionError is returned when a batch status change violates
// the batch lifecycle state machine.
type InvalidStatusTransitionError struct {
	From BatchStatus
	To   BatchStatus
}

// Error implements the error interface.
func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("cannot transition batch from %s to %s", e.From, e.To)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *InvalidStatusTransitionError) Unwrap() error {
	return ErrInvalidInput
}

// DuplicateISBNError is returned when an analysis insert collides with an
// existing (batch_id, isbn_or_asin) pair.
type DuplicateISBNError struct {
	BatchID    int64
	ISBNOrASIN string
}

// Error implements the error interface.
func (e *DuplicateISBNError) Error() string {
	return fmt.Sprintf("ISBN/ASIN %s already exists in batch %d", e.ISBNOrASIN, e.BatchID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *DuplicateISBNError) Unwrap() error {
	return ErrAlreadyExists
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// NewInvalidSortFieldError creates a new InvalidSortFieldError.
func NewInvalidSortFieldError(field string, allowed []string) *InvalidSortFieldError {
	return &InvalidSortFieldError{
		Field:   field,
		Allowed: allowed,
	}
}

// NewInvalidStatusTransitionError creates a new InvalidStatusTransitionError.
func NewInvalidStatusTransitionError(from, to BatchStatus) *InvalidStatusTransitionError {
	return &InvalidStatusTransitionError{
		From: from,
		To:   to,
	}
}

// NewDuplicateISBNError creates a new DuplicateISBNError.
func NewDuplicateISBNError(batchID int64, isbnOrASIN string) *DuplicateISBNError {
	return &DuplicateISBNError{
		BatchID:    batchID,
		ISBNOrASIN: isbnOrASIN,
	}
}
