// Package profile supplies the transmit profile's timer triple to the
// scheduler. Parsing and evaluating the named profile itself is out of
// scope here (see spec.md §1 Non-goals); this package only carries the
// already-evaluated values and a staleness flag, injected by reference so
// tests can drive it deterministically instead of through a process-wide
// global.
package profile

import "sync/atomic"

// Triple is the {t0, t1, t2} millisecond delays encoding the active
// transmit profile. t0 governs Normal uploads (negative means prohibited),
// t1 governs RealTime uploads (and is the default scheduling delay), t2 is
// reserved for future use.
type Triple [3]int32

// Provider supplies the current timer triple and reports whether it has
// changed since the caller last fetched it.
type Provider interface {
	// TimersRequireUpdate reports whether GetTimers would return a
	// different triple than the last call.
	TimersRequireUpdate() bool

	// GetTimers returns the current triple and clears the update flag.
	GetTimers() Triple
}

// Static is a Provider whose triple is pushed in by a caller (a transmit
// profile evaluator, or a test) rather than computed internally.
type Static struct {
	current atomic.Value // Triple
	dirty   atomic.Bool
}

// NewStatic returns a Static provider seeded with the given triple.
func NewStatic(initial Triple) *Static {
	s := &Static{}
	s.current.Store(initial)
	return s
}

// Set pushes a new triple and marks it as requiring an update.
func (s *Static) Set(t Triple) {
	s.current.Store(t)
	s.dirty.Store(true)
}

// TimersRequireUpdate implements Provider.
func (s *Static) TimersRequireUpdate() bool {
	return s.dirty.Load()
}

// GetTimers implements Provider.
func (s *Static) GetTimers() Triple {
	s.dirty.Store(false)
	return s.current.Load().(Triple)
}
