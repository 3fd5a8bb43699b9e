// Package errors provides the typed errors shared by the roster engine,
// its stores and its transports. Callers classify failures with errors.Is
// against the sentinels below; the structs carry the details an operator
// needs to decide between "retry merge", "re-fetch candidates" and
// "fix the input".
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New is an alias for the standard library errors.New.
var New = errors.New

// Is and As are re-exported so callers importing this package under the
// name "errors" keep the usual helpers.
var (
	Is = errors.Is
	As = errors.As
)

// Sentinels for errors.Is checks.
var (
	// ErrNotFound indicates a record does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed input to the engine.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable indicates a record store or ledger call failed.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrPartialMerge indicates a merge committed some steps before failing.
	ErrPartialMerge = errors.New("partial merge")

	// ErrStaleRecord indicates a merge referenced a record that no longer exists.
	ErrStaleRecord = errors.New("stale record")

	// ErrMergeInFlight indicates a merge overlaps another merge in progress.
	ErrMergeInFlight = errors.New("merge in flight")

	// ErrComparisonLimit indicates candidate generation exceeded its bound.
	ErrComparisonLimit = errors.New("comparison limit exceeded")
)

// NotFoundError is returned by stores when a record id is unknown.
type NotFoundError struct {
	Kind string
	ID   string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Kind, e.ID)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// ValidationError represents malformed input, such as a record missing a
// required name field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// StoreUnavailableError wraps a failed call to an external collaborator.
type StoreUnavailableError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewStoreUnavailableError creates a new StoreUnavailableError.
func NewStoreUnavailableError(op string, err error) *StoreUnavailableError {
	return &StoreUnavailableError{Op: op, Err: err}
}

// PartialMergeError reports a merge whose earlier steps committed while a
// later step failed. Re-running the same merge completes the remaining steps.
type PartialMergeError struct {
	Kind      string
	KeepID    string
	DiscardID string
	Completed []string
	Failed    string
	Err       error
}

// Error implements the error interface.
func (e *PartialMergeError) Error() string {
	return fmt.Sprintf("partial merge of %s %s into %s: completed [%s], failed at %s: %v",
		e.Kind, e.DiscardID, e.KeepID, strings.Join(e.Completed, ", "), e.Failed, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *PartialMergeError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *PartialMergeError) Is(target error) bool {
	return target == ErrPartialMerge
}

// StaleRecordError reports a merge against a record that was already removed.
type StaleRecordError struct {
	Kind string
	ID   string
}

// Error implements the error interface.
func (e *StaleRecordError) Error() string {
	return fmt.Sprintf("%s %s no longer exists; refresh candidates", e.Kind, e.ID)
}

// Is implements errors.Is support.
func (e *StaleRecordError) Is(target error) bool {
	return target == ErrStaleRecord
}

// NewStaleRecordError creates a new StaleRecordError.
func NewStaleRecordError(kind, id string) *StaleRecordError {
	return &StaleRecordError{Kind: kind, ID: id}
}

// MergeInFlightError reports a merge rejected because one of its ids is
// already part of a running merge.
type MergeInFlightError struct {
	ID string
}

// Error implements the error interface.
func (e *MergeInFlightError) Error() string {
	return fmt.Sprintf("record %s is already being merged", e.ID)
}

// Is implements errors.Is support.
func (e *MergeInFlightError) Is(target error) bool {
	return target == ErrMergeInFlight
}

// ComparisonLimitError reports a generation pass that would exceed its
// configured comparison bound.
type ComparisonLimitError struct {
	Kind  string
	Pairs int
	Limit int
}

// Error implements the error interface.
func (e *ComparisonLimitError) Error() string {
	return fmt.Sprintf("%s candidate generation needs %d comparisons, limit is %d; enable blocking or raise max_comparisons",
		e.Kind, e.Pairs, e.Limit)
}

// Is implements errors.Is support.
func (e *ComparisonLimitError) Is(target error) bool {
	return target == ErrComparisonLimit
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsStoreUnavailable checks if an error is a store availability error.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsPartialMerge checks if an error is a partial merge failure.
func IsPartialMerge(err error) bool {
	return errors.Is(err, ErrPartialMerge)
}

// IsStaleRecord checks if an error is a stale record conflict.
func IsStaleRecord(err error) bool {
	return errors.Is(err, ErrStaleRecord)
}

// IsMergeInFlight checks if an error is an in-flight merge conflict.
func IsMergeInFlight(err error) bool {
	return errors.Is(err, ErrMergeInFlight)
}
