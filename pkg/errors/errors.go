package errors

import "fmt"

// ErrorType classifies failures by how the caller should react
type ErrorType string

const (
	// ErrorTypeTransient covers momentary failures that are retried locally
	// with backoff and only surfaced once the retry ceiling is exceeded.
	ErrorTypeTransient ErrorType = "transient"
	// ErrorTypeRateLimit covers block signals and exhausted windows. These
	// are handled by pause/resume and logged, never treated as run failures.
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeDataIntegrity covers contract violations such as duplicate
	// IDs in a snapshot. The run aborts without mutating anything.
	ErrorTypeDataIntegrity ErrorType = "data_integrity"
	// ErrorTypeNonRecoverable covers failures a human has to fix, e.g. a
	// required UI element that is permanently missing.
	ErrorTypeNonRecoverable ErrorType = "non_recoverable"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Process exit codes, one per failure class the CLI distinguishes.
const (
	ExitOK                   = 0
	ExitFailure              = 1
	ExitCollectionIncomplete = 2
	ExitInvalidSnapshot      = 3
	ExitExecutorFailed       = 4
)

// Error carries the failure class and the exit code the process should use.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error with the default exit code.
func New(t ErrorType, msg string) *Error {
	return &Error{Type: t, Message: msg, Code: ExitFailure}
}

// Wrap creates a typed error wrapping a cause.
func Wrap(t ErrorType, msg string, err error) *Error {
	return &Error{Type: t, Message: msg, Code: ExitFailure, Err: err}
}

// CollectionIncomplete signals that the collector hit its retry ceiling
// before the list was confirmed exhausted. Callers may downgrade this to a
// warning and keep the partial snapshot.
func CollectionIncomplete(source string, seen, expected int) *Error {
	msg := fmt.Sprintf("collection of %s stalled after %d accounts", source, seen)
	if expected > 0 {
		msg = fmt.Sprintf("%s (reported total %d)", msg, expected)
	}
	return &Error{Type: ErrorTypeTransient, Message: msg, Code: ExitCollectionIncomplete}
}

// InvalidSnapshot signals a duplicate ID inside a snapshot, which is a
// programming-error class and is never retried.
func InvalidSnapshot(source, id string) *Error {
	return &Error{
		Type:    ErrorTypeDataIntegrity,
		Message: fmt.Sprintf("%s snapshot contains duplicate id %s", source, id),
		Code:    ExitInvalidSnapshot,
	}
}

// ExecutorFailed wraps a non-recoverable failure from the action executor.
func ExecutorFailed(err error) *Error {
	return &Error{
		Type:    ErrorTypeNonRecoverable,
		Message: "executor entered failed state",
		Code:    ExitExecutorFailed,
		Err:     err,
	}
}

// NonRecoverable marks a failure the run cannot work around.
func NonRecoverable(msg string) *Error {
	return &Error{Type: ErrorTypeNonRecoverable, Message: msg, Code: ExitExecutorFailed}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeTransient, ErrorTypeRateLimit:
		return true
	default:
		return false
	}
}

// TypeOf extracts the error type, or ErrorTypeUnknown for untyped errors.
func TypeOf(err error) ErrorType {
	if e, ok := err.(*Error); ok {
		return e.Type
	}
	return ErrorTypeUnknown
}

// ExitCode maps an error to the process exit code. Untyped errors exit 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if e, ok := err.(*Error); ok && e.Code != 0 {
		return e.Code
	}
	return ExitFailure
}
