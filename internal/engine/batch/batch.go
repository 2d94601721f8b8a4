// Package batch runs per-item work over a slice with bounded
// concurrency. The tolerant mode collects individual failures instead
// of aborting, which is what the summary rebuild needs: one malformed
// historical consumption must not block the whole batch.
package batch

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Common errors.
var (
	ErrNilCallback = errors.New("batch callback cannot be nil")
)

// ItemError records a single item's failure.
type ItemError struct {
	// Index is the item's position in the input slice.
	Index int
	Err   error
}

func (e ItemError) Error() string { return e.Err.Error() }

func (e ItemError) Unwrap() error { return e.Err }

// MapTolerant applies fn to every item with at most limit concurrent
// invocations. Results keep input order; failed items have the zero
// result and appear in the returned ItemError slice. Only a cancelled
// context aborts early, and that is reported as the error return.
func MapTolerant[T, R any](
	ctx context.Context,
	items []T,
	limit int,
	fn func(ctx context.Context, item T) (R, error),
) ([]R, []ItemError, error) {
	if fn == nil {
		return nil, nil, ErrNilCallback
	}
	if limit < 1 {
		limit = 1
	}

	results := make([]R, len(items))

	var (
		mu       sync.Mutex
		failures []ItemError
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var cancelled error
	for i, item := range items {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
		default:
		}
		if cancelled != nil {
			break
		}

		i, item := i, item
		g.Go(func() error {
			r, err := fn(ctx, item)
			if err != nil {
				mu.Lock()
				failures = append(failures, ItemError{Index: i, Err: err})
				mu.Unlock()
				return nil
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, failures, err
	}
	if cancelled != nil {
		return results, failures, cancelled
	}
	return results, failures, nil
}
