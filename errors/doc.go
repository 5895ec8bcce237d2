// Package errors provides the structured error type used across crashstream.
//
// Every failure that escapes a transfer is an *AppError carrying a
// machine-readable ErrorCode, a human-readable message, and the underlying
// cause. Row-level decode failures use the same type but are reported through
// a diagnostics sink instead of being returned.
package errors
