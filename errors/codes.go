package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Source errors
const (
	// ErrCodeSourceNotFound indicates the tabular source could not be opened.
	ErrCodeSourceNotFound ErrorCode = "SOURCE_NOT_FOUND"
	// ErrCodeSourceRead indicates an I/O or encoding failure while reading the source.
	ErrCodeSourceRead ErrorCode = "SOURCE_READ_FAILED"
	// ErrCodeInvalidHeader indicates the source header lacks a required column.
	ErrCodeInvalidHeader ErrorCode = "INVALID_HEADER"
	// ErrCodeRowDecode indicates a single row failed type conversion.
	ErrCodeRowDecode ErrorCode = "ROW_DECODE_FAILED"
)

// Transport errors
const (
	// ErrCodeTransport indicates the remote call failed mid-stream.
	ErrCodeTransport ErrorCode = "TRANSPORT_FAILED"
	// ErrCodeServiceUnavailable indicates the collection service is unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConnectionFailed indicates a failed connection to the collection service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the stream could not be opened in time.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeCanceled indicates the caller canceled the transfer.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// Validation and internal errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// retryableCodes marks failures a caller may sensibly try again.
// crashstream itself never retries.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeTransport:          true,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
