package rstream

import "github.com/bits-and-blooms/bitset"

// waiterSet is the set of continuations registered by suspended readers,
// keyed by reader ID.
//
// A reader that polls again while still suspended
// replaces its earlier continuation,
// so each suspended reader is woken at most once per drain.
type waiterSet struct {
	// Membership by reader ID.
	ids bitset.BitSet

	// Registration order, so wakes fire in the order readers suspended.
	entries []waiter
}

type waiter struct {
	id   uint
	wake func()
}

// add registers wake for the reader with the given ID.
// A nil wake is ignored.
func (s *waiterSet) add(id uint, wake func()) {
	if wake == nil {
		return
	}

	if s.ids.Test(id) {
		for i := range s.entries {
			if s.entries[i].id == id {
				s.entries[i].wake = wake
				return
			}
		}
		panic("BUG: waiter ID set in bitset but missing from entries")
	}

	s.ids.Set(id)
	s.entries = append(s.entries, waiter{id: id, wake: wake})
}

// remove drops the continuation registered for id, if any.
func (s *waiterSet) remove(id uint) {
	if !s.ids.Test(id) {
		return
	}
	s.ids.Clear(id)

	for i := range s.entries {
		if s.entries[i].id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// drain empties the set and returns the continuations it held.
// The caller is responsible for invoking them.
func (s *waiterSet) drain() []func() {
	if len(s.entries) == 0 {
		return nil
	}

	wakes := make([]func(), len(s.entries))
	for i, w := range s.entries {
		wakes[i] = w.wake
	}

	s.ids.ClearAll()
	clear(s.entries)
	s.entries = s.entries[:0]

	return wakes
}

func (s *waiterSet) len() int {
	return len(s.entries)
}
