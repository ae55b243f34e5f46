package rschan

import "sync"

// Signal is a one-shot, broadcast notification.
// Any number of goroutines may wait on [*Signal.Ready],
// and any number of goroutines may call [*Signal.Fire];
// only the first Fire has an effect.
//
// A Signal's Fire method is the continuation that a goroutine hands
// to a non-blocking poll before waiting for the poll to be worth retrying.
type Signal struct {
	ready chan struct{}
	once  sync.Once
}

// NewSignal returns an unfired signal.
func NewSignal() *Signal {
	return &Signal{
		ready: make(chan struct{}),
	}
}

// Fire closes the ready channel.
// Calling Fire more than once is safe.
func (s *Signal) Fire() {
	s.once.Do(func() {
		close(s.ready)
	})
}

// Ready returns a channel that is closed once s has been fired.
func (s *Signal) Ready() <-chan struct{} {
	return s.ready
}

// Fired reports whether s has been fired, without blocking.
func (s *Signal) Fired() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}
