package rschan_test

import (
	"sync"
	"testing"

	"github.com/gordian-engine/rstream/internal/rschan"
	"github.com/gordian-engine/rstream/internal/rstest"
	"github.com/stretchr/testify/require"
)

func TestSignal_Fire_concurrent(t *testing.T) {
	t.Parallel()

	s := rschan.NewSignal()
	require.False(t, s.Fired())
	rstest.NotSending(t, s.Ready())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Fire()
		}()
	}
	wg.Wait()

	require.True(t, s.Fired())
	rstest.IsSending(t, s.Ready())
	rstest.IsSending(t, s.Ready())
}
