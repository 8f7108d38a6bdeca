package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error

	// Status is the HTTP status reported by the training service, if any.
	Status int
	// HeuristicDivergence is set when the service rejected a task type the
	// local Auto heuristic had already accepted.
	HeuristicDivergence bool
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := asAppError(err); ok {
		return &AppError{
			Code:                appErr.Code,
			Message:             message,
			Cause:               err,
			Status:              appErr.Status,
			HeuristicDivergence: appErr.HeuristicDivergence,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		clone := *appErr
		clone.Code = code
		return &clone
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := asAppError(err); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// ServiceMessage returns the message the training service attached to a
// rejection, or "" when err is not a service rejection.
func ServiceMessage(err error) string {
	if appErr, ok := asAppError(err); ok && appErr.Code == CodeServiceRejected {
		return appErr.Message
	}
	return ""
}

// IsHeuristicDivergence reports whether err is a service rejection of a
// locally auto-resolved task type.
func IsHeuristicDivergence(err error) bool {
	appErr, ok := asAppError(err)
	return ok && appErr.HeuristicDivergence
}

// MarkHeuristicDivergence flags a service rejection as a disagreement with
// the local Auto heuristic. Only client-error rejections that name the task
// or the target's classes qualify; 5xx failures and other errors are
// returned unchanged.
func MarkHeuristicDivergence(err error) error {
	appErr, ok := asAppError(err)
	if !ok || appErr.Code != CodeServiceRejected {
		return err
	}
	if appErr.Status < 400 || appErr.Status >= 500 || !rejectsTaskChoice(appErr.Message) {
		return err
	}
	clone := *appErr
	clone.HeuristicDivergence = true
	return &clone
}

var taskRejectionTerms = []string{"task", "classification", "regression", "classes"}

func rejectsTaskChoice(detail string) bool {
	detail = strings.ToLower(detail)
	for _, term := range taskRejectionTerms {
		if strings.Contains(detail, term) {
			return true
		}
	}
	return false
}

func asAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Predefined error codes
const (
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeConnectivity      = "CONNECTIVITY_ERROR"
	CodeValidationError   = "VALIDATION_ERROR"
	CodeServiceRejected   = "SERVICE_REJECTED"
	CodeProtocolError     = "PROTOCOL_ERROR"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeBusy              = "BUSY"
	CodeNotFound          = "NOT_FOUND"
	CodeDatabaseError     = "DATABASE_ERROR"
	CodeInternalError     = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func Connectivity(operation string, cause error) *AppError {
	return &AppError{
		Code:    CodeConnectivity,
		Message: fmt.Sprintf("training service unreachable during %s", operation),
		Cause:   cause,
	}
}

func Validation(cause error) *AppError {
	return &AppError{
		Code:    CodeValidationError,
		Message: "configuration is not valid",
		Cause:   cause,
	}
}

// ServiceRejected builds a service-reported error. An empty detail becomes a
// generic message.
func ServiceRejected(status int, detail string) *AppError {
	if detail == "" {
		detail = fmt.Sprintf("training service rejected the request (HTTP %d)", status)
	}
	return &AppError{
		Code:    CodeServiceRejected,
		Message: detail,
		Status:  status,
	}
}

func Protocol(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeProtocolError,
		Message: message,
		Cause:   cause,
	}
}

func InvalidTransition(from, action string) *AppError {
	return New(CodeInvalidTransition, fmt.Sprintf("cannot %s while %s", action, from))
}

func Busy(operation string) *AppError {
	return New(CodeBusy, fmt.Sprintf("a %s request is already in flight", operation))
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

// Kind is the user-facing error category.
type Kind string

const (
	KindInput        Kind = "input"
	KindConnectivity Kind = "connectivity"
	KindValidation   Kind = "validation"
	KindService      Kind = "service"
	KindProtocol     Kind = "protocol"
	KindState        Kind = "state"
	KindInternal     Kind = "internal"
)

// KindOf classifies err for user-facing messaging.
func KindOf(err error) Kind {
	switch GetCode(err) {
	case CodeInvalidInput:
		return KindInput
	case CodeConnectivity:
		return KindConnectivity
	case CodeValidationError:
		return KindValidation
	case CodeServiceRejected:
		return KindService
	case CodeProtocolError:
		return KindProtocol
	case CodeInvalidTransition, CodeBusy:
		return KindState
	default:
		return KindInternal
	}
}
