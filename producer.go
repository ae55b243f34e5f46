package rstream

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"
)

// Producer is a single-pass source of values for an open-lazy stream.
//
// Each call to PollNext either returns a value with [StatusReady],
// reports [StatusPending], or reports [StatusDone].
// On StatusPending, the producer must call wake
// (from any goroutine, but not synchronously from within PollNext)
// once polling again may make progress.
// A non-nil error is a producer failure;
// the stream remains open and PollNext may be called again later.
//
// PollNext is called while the stream is locked,
// so it must not block.
// The stream never calls PollNext concurrently,
// and never calls it again after StatusDone.
type Producer[T any] interface {
	PollNext(wake func()) (T, Status, error)
}

// ProducerFunc adapts a function to the [Producer] interface.
type ProducerFunc[T any] func(wake func()) (T, Status, error)

func (f ProducerFunc[T]) PollNext(wake func()) (T, Status, error) {
	return f(wake)
}

// FromSeq returns a producer that pulls values synchronously from seq.
// The producer never reports StatusPending,
// so seq must not block for long.
// A non-nil error yielded by seq is reported as a producer failure
// and the following poll continues with the next pair from seq.
func FromSeq[T any](seq iter.Seq2[T, error]) Producer[T] {
	return &seqProducer[T]{seq: seq}
}

type seqProducer[T any] struct {
	seq  iter.Seq2[T, error]
	next func() (T, error, bool)
	stop func()
	done bool
}

func (p *seqProducer[T]) PollNext(func()) (T, Status, error) {
	var zero T
	if p.done {
		return zero, StatusDone, nil
	}
	if p.next == nil {
		p.next, p.stop = iter.Pull2(p.seq)
	}

	val, err, ok := p.next()
	if !ok {
		p.done = true
		p.stop()
		return zero, StatusDone, nil
	}
	if err != nil {
		return zero, 0, err
	}
	return val, StatusReady, nil
}

// FromChannel returns a producer that receives values from ch.
// Closing ch exhausts the producer.
//
// When ch has no value ready,
// a single background goroutine waits for the next receive,
// so the stream lock is never held while blocked on ch.
func FromChannel[T any](ch <-chan T) Producer[T] {
	return &asyncProducer[T]{
		try: func() (T, bool, bool) {
			select {
			case v, ok := <-ch:
				return v, ok, true
			default:
				var zero T
				return zero, false, false
			}
		},
		fetch: func() (T, bool, error) {
			v, ok := <-ch
			return v, ok, nil
		},
	}
}

// FromFunc returns a producer that calls fn for each value.
// fn returning [io.EOF] exhausts the producer;
// any other error is reported as a producer failure.
//
// Calls to fn happen on a background goroutine, one at a time,
// so fn may block; ctx is passed through to every call.
func FromFunc[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) Producer[T] {
	return &asyncProducer[T]{
		fetch: func() (T, bool, error) {
			v, err := fn(ctx)
			if errors.Is(err, io.EOF) {
				var zero T
				return zero, false, nil
			}
			if err != nil {
				var zero T
				return zero, true, err
			}
			return v, true, nil
		},
	}
}

// asyncProducer turns a blocking fetch function into a [Producer].
//
// At most one fetch is in flight at a time.
// Its result is parked until the next PollNext,
// and every wake registered while it was in flight is called
// once it completes.
type asyncProducer[T any] struct {
	// Optional non-blocking fetch; got is false when nothing was ready.
	try func() (val T, ok, got bool)

	// Blocking fetch; ok is false when the source is exhausted.
	fetch func() (val T, ok bool, err error)

	mu       sync.Mutex
	inFlight bool
	done     bool
	parked   *asyncResult[T]
	wakes    []func()
}

type asyncResult[T any] struct {
	val T
	ok  bool
	err error
}

func (p *asyncProducer[T]) PollNext(wake func()) (T, Status, error) {
	var zero T

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return zero, StatusDone, nil
	}

	if res := p.parked; res != nil {
		p.parked = nil
		return p.deliverLocked(*res)
	}

	if !p.inFlight && p.try != nil {
		if val, ok, got := p.try(); got {
			return p.deliverLocked(asyncResult[T]{val: val, ok: ok})
		}
	}

	if wake != nil {
		p.wakes = append(p.wakes, wake)
	}
	if !p.inFlight {
		p.inFlight = true
		go p.run()
	}
	return zero, StatusPending, nil
}

func (p *asyncProducer[T]) deliverLocked(res asyncResult[T]) (T, Status, error) {
	var zero T
	if res.err != nil {
		return zero, 0, res.err
	}
	if !res.ok {
		p.done = true
		return zero, StatusDone, nil
	}
	return res.val, StatusReady, nil
}

func (p *asyncProducer[T]) run() {
	val, ok, err := p.fetch()

	p.mu.Lock()
	p.inFlight = false
	p.parked = &asyncResult[T]{val: val, ok: ok, err: err}
	wakes := p.wakes
	p.wakes = nil
	p.mu.Unlock()

	for _, w := range wakes {
		w()
	}
}
