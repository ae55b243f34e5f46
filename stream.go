package rstream

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// Stream is a handle to a replayable stream.
//
// Copying a Stream produces another handle to the same backing store;
// values are never copied between handles.
// The zero value is not usable;
// construct streams with [NewClosed], [NewOpen], or [FromProducer].
type Stream[T any] struct {
	s *store[T]
}

// store is the backing store shared by every handle to a stream.
type store[T any] struct {
	mu sync.Mutex

	// Set when a critical section exited by panicking.
	// Guarded by mu.
	poisoned bool

	state State[T]

	nextReaderID atomic.Uint64
}

// Option configures a stream at construction.
type Option func(*options)

type options struct {
	log *slog.Logger
}

// WithLogger sets the logger used by the stream.
// By default, streams do not log.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// NewClosed returns a closed stream containing exactly data.
//
// The stream takes ownership of data,
// so the caller must not modify the slice afterward.
func NewClosed[T any](data []T, opts ...Option) Stream[T] {
	return newStream[T](&closed[T]{data: slices.Clip(data)}, opts)
}

// NewOpen returns an open-writable stream
// whose buffer starts with the initial values, which may be nil.
// Use [Stream.Writer] to append to or freeze the stream.
//
// The stream takes ownership of initial,
// so the caller must not modify the slice afterward.
func NewOpen[T any](initial []T, opts ...Option) Stream[T] {
	return newStream[T](&openWritable[T]{data: initial}, opts)
}

// FromProducer returns an open-lazy stream that pulls values from p
// only when a reader needs a value beyond those already cached.
// The stream closes once p reports [StatusDone].
//
// The stream owns p; p is never polled concurrently,
// and it is never polled again after reporting StatusDone.
func FromProducer[T any](p Producer[T], opts ...Option) Stream[T] {
	return newStream[T](&openLazy[T]{producer: p}, opts)
}

func newStream[T any](v variant, opts []Option) Stream[T] {
	o := options{
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return Stream[T]{
		s: &store[T]{
			state: State[T]{
				log: o.log,
				v:   v,
			},
		},
	}
}

func (s Stream[T]) store() *store[T] {
	if s.s == nil {
		panic("BUG: use of zero Stream value; construct with NewClosed, NewOpen, or FromProducer")
	}
	return s.s
}

// Reader returns a new reader positioned at the start of the stream.
func (s Stream[T]) Reader() *Reader[T] {
	st := s.store()
	return &Reader[T]{
		s:  st,
		id: uint(st.nextReaderID.Add(1) - 1),
	}
}

// Writer returns a writer for the stream.
//
// A writer may be created for a stream in any state,
// but its mutating methods panic unless the stream is open-writable.
func (s Stream[T]) Writer() *Writer[T] {
	return &Writer[T]{s: s.store()}
}

// Same reports whether s and other are handles to the same backing store.
func (s Stream[T]) Same(other Stream[T]) bool {
	return s.s == other.s
}

// Kind reports the current state of the stream.
func (s Stream[T]) Kind() (Kind, error) {
	var k Kind
	err := s.store().access(func(st *State[T]) {
		k = st.Kind()
	})
	return k, err
}

// Len reports the number of values currently buffered in the stream.
func (s Stream[T]) Len() (int, error) {
	var n int
	err := s.store().access(func(st *State[T]) {
		n = st.Len()
	})
	return n, err
}

// LogValue implements [slog.LogValuer].
func (s Stream[T]) LogValue() slog.Value {
	if s.s == nil {
		return slog.StringValue("<nil stream>")
	}

	var (
		k       Kind
		n, wait int
	)
	if err := s.s.access(func(st *State[T]) {
		k = st.Kind()
		n = st.Len()
		wait = st.pendingLen()
	}); err != nil {
		return slog.GroupValue(slog.String("err", err.Error()))
	}

	return slog.GroupValue(
		slog.String("kind", k.String()),
		slog.Int("len", n),
		slog.Int("pending", wait),
	)
}

// closedValues returns the values of a closed stream,
// or false if the stream is not closed or is poisoned.
// Closed values are immutable, so the slice is safe to use after unlocking.
func (s *store[T]) closedValues() ([]T, bool) {
	var (
		data []T
		ok   bool
	)
	if err := s.access(func(st *State[T]) {
		if c, isClosed := st.v.(*closed[T]); isClosed {
			data, ok = c.data, true
		}
	}); err != nil {
		return nil, false
	}
	return data, ok
}

// access runs fn with exclusive access to the stream state.
//
// If fn panics for any reason other than a usage error,
// the store is poisoned and the panic continues;
// every later access returns [ErrPoisoned].
// Continuations drained by fn are invoked after the lock is released.
func (s *store[T]) access(fn func(*State[T])) error {
	s.mu.Lock()
	if s.poisoned {
		s.mu.Unlock()
		return ErrPoisoned
	}

	completed := false
	defer func() {
		st := &s.state
		if !completed && !st.usageFault {
			s.poisoned = true
			st.log.Error("Stream state poisoned by panic in critical section")

			// Suspended readers must observe the poisoning.
			st.drainPending()
		}
		st.usageFault = false

		wakes := st.wakes
		st.wakes = nil
		s.mu.Unlock()

		for _, w := range wakes {
			w()
		}
	}()

	fn(&s.state)
	completed = true
	return nil
}

// EqualFunc reports whether a and b are equal,
// using eq to compare values.
//
// Handles to the same store are always equal.
// Handles to distinct stores are equal only if both are closed
// and their values are pairwise equal according to eq.
// Open and poisoned streams are never equal to a distinct stream.
func EqualFunc[T any](a, b Stream[T], eq func(T, T) bool) bool {
	if a.s == b.s {
		return true
	}
	if a.s == nil || b.s == nil {
		return false
	}

	// Only one lock is held at a time,
	// so concurrent comparisons in opposite orders cannot deadlock.
	da, ok := a.s.closedValues()
	if !ok {
		return false
	}
	db, ok := b.s.closedValues()
	if !ok {
		return false
	}

	return slices.EqualFunc(da, db, eq)
}

// Equal is [EqualFunc] using the == operator.
func Equal[T comparable](a, b Stream[T]) bool {
	return EqualFunc(a, b, func(x, y T) bool { return x == y })
}
