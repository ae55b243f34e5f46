package rstream

// Writer is the producer-side capability of a stream.
//
// Writers may be copied and shared between goroutines;
// every operation is serialized with the stream's readers.
type Writer[T any] struct {
	s *store[T]
}

// Append adds val to the end of the stream
// and wakes every suspended reader.
//
// Append panics if the stream is not open-writable.
func (w *Writer[T]) Append(val T) error {
	return w.s.access(func(st *State[T]) {
		st.Append(val)
	})
}

// Freeze appends any final values and closes the stream,
// waking every suspended reader.
// The append and close happen atomically with respect to readers.
//
// Freeze panics if the stream is not open-writable.
func (w *Writer[T]) Freeze(final ...T) error {
	return w.s.access(func(st *State[T]) {
		st.Freeze(final...)
	})
}

// With runs fn with exclusive access to the stream's state,
// for atomic read-modify-write sequences.
//
// fn must not block, must not retain st,
// and must not use any Reader, Writer or Stream of the same stream.
// If fn panics, the stream is poisoned
// unless the panic was a usage error raised by st.
func (w *Writer[T]) With(fn func(st *State[T])) error {
	return w.s.access(fn)
}

// Stream returns a handle to the stream w writes to.
func (w *Writer[T]) Stream() Stream[T] {
	return Stream[T]{s: w.s}
}
