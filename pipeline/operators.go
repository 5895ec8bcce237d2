package pipeline

import "context"

// FilterMap transforms each value and drops those for which fn reports
// keep == false. Use it when a stage can reject individual values without
// failing the whole pipeline.
func FilterMap[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, bool, error)) *Pipeline[O] {
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			return &filterMapIter[I, O]{source: p.create(ctx), fn: fn}
		},
	}
}

// Tap calls fn as a side-effect for each value, then passes the value through unchanged.
// Use for logging, metrics, or counting.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &tapIter[T]{source: p.create(ctx), fn: fn}
		},
	}
}

// --- Iterator implementations ---

type filterMapIter[I, O any] struct {
	source Iterator[I]
	fn     func(context.Context, I) (O, bool, error)
}

func (it *filterMapIter[I, O]) Next(ctx context.Context) (result O, ok bool, err error) {
	var zero O
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		out, keep, err := it.fn(ctx, val)
		if err != nil {
			return zero, false, err
		}
		if keep {
			return out, true, nil
		}
	}
}

func (it *filterMapIter[I, O]) Close() error { return it.source.Close() }

type tapIter[T any] struct {
	source Iterator[T]
	fn     func(context.Context, T) error
}

func (it *tapIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return val, ok, err
	}
	if err := it.fn(ctx, val); err != nil {
		var zero T
		return zero, false, err
	}
	return val, true, nil
}

func (it *tapIter[T]) Close() error { return it.source.Close() }
