package store

import (
	"quill/internal/types"
)

// RegisterImpl publishes a trait implementation and wakes every search
// blocked on the implementation table.
func (s *Store) RegisterImpl(impl *Impl) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.impls = append(s.impls, impl)
	s.broadcastImplsLocked()
}

// ImplsFor snapshots the implementations of trait that cover target. The
// result grows as unrelated checking registers more implementations, so
// searches retry on ImplChanged until FinishedImpls reports liveness.
func (s *Store) ImplsFor(trait, target *types.Finalized) []*Impl {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []*Impl
	for _, impl := range s.impls {
		if impl.Trait.IsOf(trait) && target.IsOf(impl.Target) {
			found = append(found, impl)
		}
	}
	return found
}

// ImplChanged returns a channel closed on the next implementation-table
// change or liveness flip. Grab the channel before snapshotting with
// ImplsFor so a registration between the two cannot be missed.
func (s *Store) ImplChanged() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.implChanged
}

// BeginImplChecks records n pending implementation checks. Must be called
// before the liveness signal can fire.
func (s *Store) BeginImplChecks(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.implsPending += n
}

// FinishImplCheck marks one pending implementation check complete and wakes
// searches so they can observe the liveness signal.
func (s *Store) FinishImplCheck() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.implsPending > 0 {
		s.implsPending--
	}
	s.broadcastImplsLocked()
}

// FinishedImpls is the liveness signal: true when parsing is done and no
// implementation checks remain pending. Searches that come up empty stop
// retrying once this holds.
func (s *Store) FinishedImpls() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parsingDone && s.implsPending == 0
}

func (s *Store) broadcastImplsLocked() {
	close(s.implChanged)
	s.implChanged = make(chan struct{})
}
