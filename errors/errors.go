package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried by the caller.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Source errors ---

// SourceNotFound creates an AppError for a source that cannot be opened.
func SourceNotFound(path string) *AppError {
	return &AppError{
		Code: ErrCodeSourceNotFound, Message: fmt.Sprintf("Could not open source %s.", path),
		Details: map[string]any{"source": path},
	}
}

// SourceRead creates an AppError for a failure while reading the source.
func SourceRead(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSourceRead, Message: fmt.Sprintf("Reading source %s failed.", path),
		Details: map[string]any{"source": path}, Cause: cause,
	}
}

// InvalidHeader creates an AppError for a header missing required columns.
func InvalidHeader(path string, missing []string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidHeader, Message: fmt.Sprintf("Source header is missing %d required column(s).", len(missing)),
		Details: map[string]any{"source": path, "missing": missing},
	}
}

// RowDecode creates an AppError for a field that failed type conversion.
func RowDecode(field, value string) *AppError {
	return &AppError{
		Code: ErrCodeRowDecode, Message: fmt.Sprintf("Invalid value %q for %s.", value, field),
		Details: map[string]any{"field": field, "value": value},
	}
}

// --- Transport errors ---

// Transport creates an AppError for a failed remote call.
func Transport(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransport, Message: fmt.Sprintf("Streaming to %s failed.", service),
		Retryable: true, Details: map[string]any{"service": service}, Cause: cause,
	}
}

// ServiceUnavailable creates an AppError for a service that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable.", service),
		Retryable: true, Details: map[string]any{"service": service},
	}
}

// ConnectionFailed creates an AppError for a failed connection to a service.
func ConnectionFailed(service string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s.", service),
		Retryable: true, Details: map[string]any{"service": service},
	}
}

// Timeout creates an AppError for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("The %s took too long.", operation),
		Retryable: true, Details: map[string]any{"operation": operation},
	}
}

// Canceled creates an AppError for a caller-initiated cancellation.
func Canceled(operation string) *AppError {
	return &AppError{
		Code: ErrCodeCanceled, Message: fmt.Sprintf("The %s was canceled.", operation),
		Details: map[string]any{"operation": operation},
	}
}

// --- Validation and internal errors ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Cause: cause,
	}
}

// --- Inspection ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// Wrap converts an arbitrary error into an AppError. Errors that already
// are (or wrap) an AppError pass through unchanged.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
