package rspubsub

import (
	"context"
	"io"
	"log/slog"

	"github.com/gordian-engine/rstream"
)

// RunChannelToStream starts a background goroutine
// that reads values from ch and appends them to the returned stream.
// The goroutine holds the only writer of the stream.
//
// The stream is frozen, and the returned done channel closed,
// when ch is closed or ctx is canceled.
// Values still unreceived on ch at cancellation are not published.
func RunChannelToStream[T any](
	ctx context.Context,
	log *slog.Logger,
	ch <-chan T,
) (s rstream.Stream[T], done <-chan struct{}) {
	s = rstream.NewOpen[T](nil, rstream.WithLogger(log))
	doneCh := make(chan struct{})

	go runChannelToStream(ctx, log, ch, s.Writer(), doneCh)

	return s, doneCh
}

func runChannelToStream[T any](
	ctx context.Context,
	log *slog.Logger,
	ch <-chan T,
	w *rstream.Writer[T],
	done chan<- struct{},
) {
	defer close(done)

	defer func() {
		if err := w.Freeze(); err != nil {
			log.Warn("Failed to freeze stream", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug(
				"Stopping due to context cancellation",
				"cause", context.Cause(ctx),
			)
			return

		case v, ok := <-ch:
			if !ok {
				return
			}
			if err := w.Append(v); err != nil {
				log.Warn("Failed to append to stream", "err", err)
				return
			}
		}
	}
}

// RunReaderToChannel starts a background goroutine
// that sends every remaining value of r to out, in order.
//
// The returned channel receives exactly one value and is then closed:
// nil if r reached the end of its stream,
// otherwise the error that stopped forwarding,
// including the context's cause if ctx was canceled.
// out is never closed by this function.
func RunReaderToChannel[T any](
	ctx context.Context,
	r *rstream.Reader[T],
	out chan<- T,
) <-chan error {
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		errCh <- runReaderToChannel(ctx, r, out)
	}()

	return errCh
}

func runReaderToChannel[T any](
	ctx context.Context,
	r *rstream.Reader[T],
	out chan<- T,
) error {
	for {
		v, err := r.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case out <- v:
		}
	}
}
