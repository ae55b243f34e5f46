package rstream

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/gordian-engine/rstream/internal/rschan"
)

// Reader is a cursor over a stream.
//
// Every reader of a stream observes the same values in the same order,
// starting from the first value, regardless of when the reader was created.
//
// A Reader is not safe for concurrent use;
// goroutines that need to read concurrently should each create a Reader.
type Reader[T any] struct {
	s  *store[T]
	id uint

	// Index of the next value to deliver.
	pos int
}

// Poll attempts to deliver the next value without blocking.
//
// On [StatusReady], the returned value is delivered
// and the reader advances past it.
// On [StatusPending], wake will be called
// when polling again may make progress;
// wake may be called spuriously and may be nil,
// in which case the caller must arrange to poll again by other means.
// On [StatusDone], the stream is closed and every value has been delivered;
// further polls keep returning StatusDone.
//
// A non-nil error is either a failure reported by the stream's [Producer]
// or [ErrPoisoned], and the returned Status is meaningless.
// A producer failure does not close the stream,
// and polling again retries the producer.
func (r *Reader[T]) Poll(wake func()) (T, Status, error) {
	var (
		val     T
		status  Status
		pollErr error
	)
	if err := r.s.access(func(st *State[T]) {
		val, status, pollErr = st.readAt(r.id, r.pos, wake)
	}); err != nil {
		var zero T
		return zero, 0, err
	}
	if pollErr != nil {
		var zero T
		return zero, 0, pollErr
	}

	if status == StatusReady {
		r.pos++
	}
	return val, status, nil
}

// Next blocks until the next value is available and returns it.
//
// Next returns [io.EOF] once every value of a closed stream
// has been delivered.
// If ctx is canceled first, Next returns the context's cause.
func (r *Reader[T]) Next(ctx context.Context) (T, error) {
	var zero T

	for {
		if ctx.Err() != nil {
			return zero, context.Cause(ctx)
		}

		sig := rschan.NewSignal()
		val, status, err := r.Poll(sig.Fire)
		if err != nil {
			return zero, err
		}

		switch status {
		case StatusReady:
			return val, nil
		case StatusDone:
			return zero, io.EOF
		case StatusPending:
			select {
			case <-ctx.Done():
				r.Close()
				return zero, context.Cause(ctx)
			case <-sig.Ready():
				// Poll again; the cursor is revalidated under the lock.
			}
		default:
			panic(fmt.Errorf("BUG: invalid poll status %s", status))
		}
	}
}

// All returns an iterator over the remaining values of the stream.
// Iteration stops at the end of the stream,
// or after yielding the first error.
func (r *Reader[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			val, err := r.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(val, nil) {
				return
			}
		}
	}
}

// Collect reads every remaining value until the stream ends.
func (r *Reader[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for val, err := range r.All(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, val)
	}
	return out, nil
}

// Pos returns the number of values r has delivered.
func (r *Reader[T]) Pos() int {
	return r.pos
}

// Close removes any continuation r registered with the stream.
// Abandoned readers need not be closed,
// but closing releases the continuation before the next write.
//
// Polling r after Close is permitted.
func (r *Reader[T]) Close() {
	// A poisoned stream has nothing worth cleaning up.
	_ = r.s.access(func(st *State[T]) {
		st.removeWaiter(r.id)
	})
}
