package sluice

import "sync"

// TriggerFunc fires the Signal it was created with. The first call wins and
// records the reason; later calls are no-ops. A nil reason is recorded as
// ErrAborted.
type TriggerFunc func(reason error)

// Signal is a one-shot broadcast that a stream has aborted. It is the
// read-only half of the pair returned by NewSignal, shaped like a context:
// Done returns a channel closed on abort, Err returns the abort reason.
//
// Observers that start watching after the signal has fired still observe
// it: Done is already closed and Err returns the stored reason.
type Signal struct {
	mu     sync.Mutex
	done   chan struct{}
	reason error
	fired  bool
}

// NewSignal returns a Signal and the TriggerFunc that fires it.
func NewSignal() (*Signal, TriggerFunc) {
	s := &Signal{done: make(chan struct{})}
	return s, s.trigger
}

func (s *Signal) trigger(reason error) {
	if reason == nil {
		reason = ErrAborted
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fired {
		return
	}
	s.fired = true
	s.reason = reason
	close(s.done)
}

// Done returns a channel that is closed when the signal fires.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Err returns nil while the signal is pending and the abort reason after it
// fires. The reason never changes once set.
func (s *Signal) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Aborted reports whether the signal has fired.
func (s *Signal) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}
