package rstream_test

import (
	"context"
	"testing"

	"github.com/gordian-engine/rstream"
	"github.com/gordian-engine/rstream/internal/rstest"
	"github.com/stretchr/testify/require"
)

func TestWriter_usageErrorsPanic(t *testing.T) {
	t.Parallel()

	t.Run("append to closed", func(t *testing.T) {
		t.Parallel()

		s := rstream.NewClosed([]int{1})
		require.Panics(t, func() {
			_ = s.Writer().Append(2)
		})
	})

	t.Run("freeze closed", func(t *testing.T) {
		t.Parallel()

		s := rstream.NewOpen[int](nil)
		w := s.Writer()
		require.NoError(t, w.Freeze())
		require.Panics(t, func() {
			_ = w.Freeze()
		})
	})

	t.Run("append to lazy", func(t *testing.T) {
		t.Parallel()

		s := rstream.FromProducer(rstream.FromSeq(func(yield func(int, error) bool) {}))
		require.Panics(t, func() {
			_ = s.Writer().Append(1)
		})
	})
}

func TestWriter_usageErrorDoesNotPoison(t *testing.T) {
	t.Parallel()

	s := rstream.NewClosed([]int{1, 2})
	require.Panics(t, func() {
		_ = s.Writer().Append(3)
	})

	k, err := s.Kind()
	require.NoError(t, err)
	require.Equal(t, rstream.KindClosed, k)

	got, err := s.Reader().Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, got)
}

func TestWriter_With_atomicAppendThenInspect(t *testing.T) {
	t.Parallel()

	s := rstream.NewOpen([]string{"a"}, rstream.WithLogger(rstest.NewLogger(t)))
	w := s.Writer()

	var (
		n    int
		last string
		kind rstream.Kind
	)
	require.NoError(t, w.With(func(st *rstream.State[string]) {
		st.Append("b")
		n = st.Len()
		last, _ = st.At(n - 1)
		kind = st.Kind()
	}))

	require.Equal(t, 2, n)
	require.Equal(t, "b", last)
	require.Equal(t, rstream.KindOpenWritable, kind)

	require.NoError(t, w.With(func(st *rstream.State[string]) {
		_, ok := st.At(5)
		require.False(t, ok)
		require.Equal(t, []string{"a", "b"}, st.Values())
		st.Freeze("c")
	}))

	require.True(t, rstream.Equal(s, rstream.NewClosed([]string{"a", "b", "c"})))
	require.True(t, w.Stream().Same(s))
}

func TestWriter_With_panicPoisons(t *testing.T) {
	t.Parallel()

	s := rstream.NewOpen[int](nil, rstream.WithLogger(rstest.NewLogger(t)))
	r := s.Reader()

	woke := make(chan struct{}, 1)
	_, status, err := r.Poll(func() { woke <- struct{}{} })
	require.NoError(t, err)
	require.Equal(t, rstream.StatusPending, status)

	require.Panics(t, func() {
		_ = s.Writer().With(func(st *rstream.State[int]) {
			st.Append(1)
			panic("interrupted mid-update")
		})
	})

	// The suspended reader is woken so that it observes the failure.
	rstest.ReceiveSoon(t, woke)

	_, _, err = r.Poll(nil)
	require.ErrorIs(t, err, rstream.ErrPoisoned)

	_, err = s.Kind()
	require.ErrorIs(t, err, rstream.ErrPoisoned)

	require.ErrorIs(t, s.Writer().Append(2), rstream.ErrPoisoned)
	require.ErrorIs(t, s.Writer().Freeze(), rstream.ErrPoisoned)

	_, err = s.Reader().Next(context.Background())
	require.ErrorIs(t, err, rstream.ErrPoisoned)

	_, err = s.MarshalJSON()
	require.ErrorIs(t, err, rstream.ErrPoisoned)

	// Poisoned streams are only equal to themselves.
	require.True(t, rstream.Equal(s, s))
	require.False(t, rstream.Equal(s, rstream.NewClosed([]int{1})))
}
