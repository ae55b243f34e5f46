package rstream

import (
	"encoding/json"
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

var errUninitialized = errors.New("cannot encode uninitialized stream")

// encodableValues returns the values of a closed stream,
// or a [*NotClosedError] for any other state.
// An empty closed stream yields a non-nil empty slice,
// so that it encodes as an empty sequence rather than null.
func (s Stream[T]) encodableValues() ([]T, error) {
	if s.s == nil {
		return nil, errUninitialized
	}

	var (
		data []T
		kind Kind
	)
	if err := s.s.access(func(st *State[T]) {
		kind = st.Kind()
		if c, ok := st.v.(*closed[T]); ok {
			data = c.data
		}
	}); err != nil {
		return nil, err
	}

	if kind != KindClosed {
		return nil, &NotClosedError{Kind: kind}
	}
	if data == nil {
		data = []T{}
	}
	return data, nil
}

// MarshalJSON encodes a closed stream as a JSON array of its values.
// Streams in any other state fail with a [*NotClosedError].
func (s Stream[T]) MarshalJSON() ([]byte, error) {
	data, err := s.encodableValues()
	if err != nil {
		return nil, err
	}
	return json.Marshal(data)
}

// UnmarshalJSON replaces s with a new closed stream
// containing the values of the JSON array b.
func (s *Stream[T]) UnmarshalJSON(b []byte) error {
	var data []T
	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}
	*s = NewClosed(data)
	return nil
}

// EncodeMsgpack implements [msgpack.CustomEncoder].
// A closed stream encodes exactly as the slice of its values;
// streams in any other state fail with a [*NotClosedError].
func (s Stream[T]) EncodeMsgpack(enc *msgpack.Encoder) error {
	data, err := s.encodableValues()
	if err != nil {
		return err
	}
	return enc.Encode(data)
}

// DecodeMsgpack implements [msgpack.CustomDecoder].
// It replaces s with a new closed stream of the decoded values.
func (s *Stream[T]) DecodeMsgpack(dec *msgpack.Decoder) error {
	var data []T
	if err := dec.Decode(&data); err != nil {
		return err
	}
	*s = NewClosed(data)
	return nil
}
