package client

import "time"

// stamped holds the newest value applied from a sequence of fetches.
// It is owned by the loop goroutine and never locked.
type stamped[T any] struct {
	seq       uint64
	value     T
	loaded    bool
	fetchedAt time.Time
}

// offer applies v when seq is newer than the applied stamp and reports
// whether it did. Older results lost a race against a later fetch.
func (s *stamped[T]) offer(seq uint64, v T, at time.Time) bool {
	if s.loaded && seq <= s.seq {
		return false
	}
	s.seq = seq
	s.value = v
	s.loaded = true
	s.fetchedAt = at
	return true
}

func (s *stamped[T]) get() T { return s.value }
