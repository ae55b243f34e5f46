package rstream

import (
	"fmt"
	"log/slog"
	"slices"
)

// State is the shared state behind every handle to one stream.
//
// Callers only ever see a State inside [*Writer.With],
// while holding exclusive access to the stream.
// A State must not be retained after the callback returns.
type State[T any] struct {
	log *slog.Logger

	// Exactly one of *openWritable[T], *openLazy[T], or *closed[T].
	v variant

	// Continuations drained during the current critical section.
	// They are invoked after the lock is released,
	// so that a continuation that polls again cannot deadlock.
	wakes []func()

	// Set immediately before panicking for a usage error.
	// Usage errors are raised before any mutation,
	// so they do not poison the stream.
	usageFault bool
}

type variant interface {
	kind() Kind
}

type openWritable[T any] struct {
	data    []T
	pending waiterSet
}

type openLazy[T any] struct {
	producer Producer[T]
	cache    []T
}

type closed[T any] struct {
	data []T
}

func (*openWritable[T]) kind() Kind { return KindOpenWritable }
func (*openLazy[T]) kind() Kind     { return KindOpenLazy }
func (*closed[T]) kind() Kind       { return KindClosed }

// Kind reports which state s is currently in.
func (s *State[T]) Kind() Kind {
	return s.v.kind()
}

// Len returns the number of values buffered so far.
// For open-lazy streams that is the number of values
// already pulled from the producer.
func (s *State[T]) Len() int {
	return len(s.values())
}

// At returns the value at index i,
// and whether i was within the buffered values.
func (s *State[T]) At(i int) (T, bool) {
	vals := s.values()
	if i < 0 || i >= len(vals) {
		var zero T
		return zero, false
	}
	return vals[i], true
}

// Values returns a copy of the values buffered so far.
func (s *State[T]) Values() []T {
	return slices.Clone(s.values())
}

func (s *State[T]) values() []T {
	switch v := s.v.(type) {
	case *openWritable[T]:
		return v.data
	case *openLazy[T]:
		return v.cache
	case *closed[T]:
		return v.data
	default:
		panic(fmt.Errorf("BUG: unknown stream state %T", s.v))
	}
}

// Append adds val to the end of an open-writable stream
// and wakes every suspended reader.
//
// Append panics if the stream is not open-writable.
func (s *State[T]) Append(val T) {
	switch v := s.v.(type) {
	case *openWritable[T]:
		v.data = append(v.data, val)
		s.wakes = append(s.wakes, v.pending.drain()...)
	case *openLazy[T], *closed[T]:
		s.usageFault = true
		panic(fmt.Errorf("BUG: can only append to an open-writable stream (stream is %s)", s.Kind()))
	default:
		panic(fmt.Errorf("BUG: unknown stream state %T", s.v))
	}
}

// Freeze appends any final values to an open-writable stream,
// then closes it and wakes every suspended reader.
// Freezing with final values is indistinguishable
// from appending them immediately before a plain Freeze.
//
// Freeze panics if the stream is not open-writable.
func (s *State[T]) Freeze(final ...T) {
	switch v := s.v.(type) {
	case *openWritable[T]:
		// Clip so that nothing can ever append into
		// the backing array of the immutable slice.
		data := slices.Clip(append(v.data, final...))
		woken := v.pending.drain()
		s.wakes = append(s.wakes, woken...)
		s.v = &closed[T]{data: data}

		s.log.Debug("Stream frozen", "len", len(data), "woken", len(woken))
	case *openLazy[T], *closed[T]:
		s.usageFault = true
		panic(fmt.Errorf("BUG: can only freeze an open-writable stream (stream is %s)", s.Kind()))
	default:
		panic(fmt.Errorf("BUG: unknown stream state %T", s.v))
	}
}

// readAt attempts to deliver the value at index on behalf of reader id.
//
// StatusPending means wake was either registered as a continuation
// or handed to the producer.
// A non-nil error is a producer failure,
// which leaves the state unchanged.
func (s *State[T]) readAt(id uint, index int, wake func()) (T, Status, error) {
	var zero T

	switch v := s.v.(type) {
	case *closed[T]:
		if index < len(v.data) {
			return v.data[index], StatusReady, nil
		}
		return zero, StatusDone, nil

	case *openWritable[T]:
		if index < len(v.data) {
			return v.data[index], StatusReady, nil
		}
		v.pending.add(id, wake)
		return zero, StatusPending, nil

	case *openLazy[T]:
		if index < len(v.cache) {
			return v.cache[index], StatusReady, nil
		}
		if index > len(v.cache) {
			panic(fmt.Errorf(
				"BUG: reader index %d beyond lazy cache length %d", index, len(v.cache),
			))
		}

		val, status, err := v.producer.PollNext(wake)
		if err != nil {
			s.log.Warn("Producer failed", "index", index, "err", err)
			return zero, 0, err
		}

		switch status {
		case StatusReady:
			// The caller advances its cursor past this index,
			// so the value is delivered exactly once to the triggering reader
			// and replayed from the cache to every other reader.
			v.cache = append(v.cache, val)
			return val, StatusReady, nil
		case StatusPending:
			return zero, StatusPending, nil
		case StatusDone:
			s.v = &closed[T]{data: slices.Clip(v.cache)}
			s.log.Debug("Producer exhausted", "len", len(v.cache))
			return zero, StatusDone, nil
		default:
			panic(fmt.Errorf("BUG: producer returned invalid status %s", status))
		}

	default:
		panic(fmt.Errorf("BUG: unknown stream state %T", s.v))
	}
}

// removeWaiter drops the continuation of reader id, if it has one.
func (s *State[T]) removeWaiter(id uint) {
	switch v := s.v.(type) {
	case *openWritable[T]:
		v.pending.remove(id)
	case *openLazy[T], *closed[T]:
		// Nothing registered with the stream itself.
	default:
		panic(fmt.Errorf("BUG: unknown stream state %T", s.v))
	}
}

// drainPending moves every registered continuation into s.wakes.
func (s *State[T]) drainPending() {
	if v, ok := s.v.(*openWritable[T]); ok {
		s.wakes = append(s.wakes, v.pending.drain()...)
	}
}

func (s *State[T]) pendingLen() int {
	if v, ok := s.v.(*openWritable[T]); ok {
		return v.pending.len()
	}
	return 0
}
