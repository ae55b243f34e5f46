package rstream_test

import (
	"encoding/json"
	"testing"

	"github.com/gordian-engine/rstream"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestStream_JSON_roundTrip(t *testing.T) {
	t.Parallel()

	s := rstream.NewClosed([]int{1, 2, 3})

	b, err := json.Marshal(s)
	require.NoError(t, err)

	plain, err := json.Marshal([]int{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, plain, b)

	var decoded rstream.Stream[int]
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.True(t, rstream.Equal(s, decoded))

	k, err := decoded.Kind()
	require.NoError(t, err)
	require.Equal(t, rstream.KindClosed, k)
}

func TestStream_JSON_empty(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(rstream.NewClosed[string](nil))
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(b))
}

func TestStream_JSON_field(t *testing.T) {
	t.Parallel()

	type record struct {
		Name   string                 `json:"name"`
		Chunks rstream.Stream[string] `json:"chunks"`
	}

	in := record{Name: "r", Chunks: rstream.NewClosed([]string{"a", "b"})}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"r","chunks":["a","b"]}`, string(b))

	var out record
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, "r", out.Name)
	require.True(t, rstream.Equal(in.Chunks, out.Chunks))
}

func TestStream_JSON_openStreamFails(t *testing.T) {
	t.Parallel()

	s := rstream.NewOpen([]int{1})

	_, err := s.MarshalJSON()
	var nce *rstream.NotClosedError
	require.ErrorAs(t, err, &nce)
	require.Equal(t, rstream.KindOpenWritable, nce.Kind)

	// Also through the encoding/json entry point.
	_, err = json.Marshal(s)
	require.ErrorAs(t, err, &nce)
}

func TestStream_msgpack_roundTrip(t *testing.T) {
	t.Parallel()

	s := rstream.NewClosed([]string{"x", "y", "z"})

	b, err := msgpack.Marshal(s)
	require.NoError(t, err)

	plain, err := msgpack.Marshal([]string{"x", "y", "z"})
	require.NoError(t, err)
	require.Equal(t, plain, b)

	var decoded rstream.Stream[string]
	require.NoError(t, msgpack.Unmarshal(b, &decoded))
	require.True(t, rstream.Equal(s, decoded))
}

func TestStream_msgpack_lazyStreamFails(t *testing.T) {
	t.Parallel()

	s := rstream.FromProducer(rstream.FromSeq(func(yield func(int, error) bool) {
		yield(1, nil)
	}))

	_, err := msgpack.Marshal(s)
	var nce *rstream.NotClosedError
	require.ErrorAs(t, err, &nce)
	require.Equal(t, rstream.KindOpenLazy, nce.Kind)
}
