package errors

import (
	"errors"
	"fmt"
)

// Domain error types for the decision core

var (
	// ErrInsufficientData indicates too few price samples for a computation.
	// Engine components translate this into neutral defaults, never a failure.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidInput indicates invalid input parameters (NaN, negative prices)
	ErrInvalidInput = errors.New("invalid input")

	// ErrComputationDegraded indicates a computation fell back to an
	// epsilon-guarded or defaulted result
	ErrComputationDegraded = errors.New("computation degraded")

	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrUnavailable indicates a backing service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Trade lifecycle errors

var (
	// ErrTradeOpen indicates the symbol already has an open trade
	ErrTradeOpen = errors.New("symbol already has an open trade")

	// ErrTradeNotClosed indicates a trade has not reached a terminal outcome yet
	ErrTradeNotClosed = errors.New("trade is not closed")

	// ErrAlreadyProcessed indicates learning was already applied to a trade
	ErrAlreadyProcessed = errors.New("trade already processed for learning")

	// ErrBelowMovementThreshold indicates the trade moved too little to learn from
	ErrBelowMovementThreshold = errors.New("trade movement below learning threshold")
)

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
