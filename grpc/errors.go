package grpc

import (
	"context"
	stderrors "errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/kbukum/crashstream/errors"
)

// FromGRPC converts an error returned by a stream operation into an AppError.
// Nil stays nil; errors that already are AppErrors pass through.
func FromGRPC(err error, serviceName string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	if stderrors.Is(err, context.Canceled) {
		return apperrors.Canceled("transfer").WithCause(err)
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout("transfer").WithCause(err)
	}

	st, ok := status.FromError(err)
	if !ok {
		if IsConnectionError(err) {
			return apperrors.ConnectionFailed(serviceName).WithCause(err)
		}
		return apperrors.Transport(serviceName, err)
	}

	switch st.Code() {
	case codes.Unavailable:
		if IsConnectionError(err) {
			return apperrors.ConnectionFailed(serviceName).WithCause(err)
		}
		return apperrors.ServiceUnavailable(serviceName).WithCause(err)
	case codes.Canceled:
		return apperrors.Canceled("transfer").WithCause(err)
	case codes.DeadlineExceeded:
		return apperrors.Timeout("transfer").WithCause(err)
	default:
		return apperrors.Transport(serviceName, err).
			WithDetail("grpc_code", st.Code().String()).
			WithDetail("grpc_message", st.Message())
	}
}

// IsConnectionError checks if an error is a connection-level failure.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	patterns := []string{
		"connection refused",
		"connection reset",
		"no such host",
		"transport is closing",
		"connection closed",
		"error while dialing",
	}
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}
