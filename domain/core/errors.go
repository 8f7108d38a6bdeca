package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrRunNotFound    = fmt.Errorf("%w: run", ErrNotFound)
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)

	// Target/task errors
	ErrInsufficientClasses = errors.New("target has fewer than the minimum number of classes")
	ErrTargetNotNumeric    = errors.New("target is not numeric")
	ErrUnknownTaskType     = errors.New("unknown task type")
	ErrUnknownModelType    = errors.New("unknown model type")

	// Protocol errors
	ErrMissingDiscriminator = errors.New("result payload has no task_type")
)

// NewNotFoundError wraps ErrNotFound with resource context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// IsNotFoundError reports whether err is a not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTargetError reports whether err describes an unusable target column
func IsTargetError(err error) bool {
	return errors.Is(err, ErrInsufficientClasses) ||
		errors.Is(err, ErrTargetNotNumeric)
}
