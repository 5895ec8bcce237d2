package client

import (
	"context"
	"time"

	apperrors "github.com/kbukum/crashstream/errors"
)

// StreamOpener is a function type that opens a gRPC stream.
type StreamOpener[T any] func(ctx context.Context) (T, error)

// OpenStreamWithTimeout opens a gRPC stream with an establishment timeout.
//
// The timeout applies only to opening the stream. Once open, the stream runs
// with the caller's context, so a long transfer is never cut short by it.
// A non-positive timeout calls opener directly.
//
// On timeout the opener keeps running in the background; cancelling ctx
// releases it.
func OpenStreamWithTimeout[T any](
	ctx context.Context,
	connectTimeout time.Duration,
	opener StreamOpener[T],
) (T, error) {
	var zero T

	if connectTimeout <= 0 {
		return opener(ctx)
	}

	type result struct {
		stream T
		err    error
	}
	resultCh := make(chan result, 1)

	go func() {
		stream, err := opener(ctx)
		resultCh <- result{stream: stream, err: err}
	}()

	timer := time.NewTimer(connectTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		return res.stream, res.err
	case <-timer.C:
		return zero, apperrors.Timeout("stream open").WithDetail("timeout", connectTimeout.String())
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
