package store

import (
	"context"
	"errors"

	"quill/internal/types"
)

// ErrUnknownName is returned when a requested declaration can never exist:
// parsing has finished and the name was never registered.
var ErrUnknownName = errors.New("store: unknown declaration name")

// AwaitStruct suspends until the named struct's declaration is available.
//
// Each iteration re-checks the registry under the lock, registers a wakeup
// channel when the name is missing, and blocks on the channel. Registration
// racing with a concurrent publish is resolved by re-polling, never by
// blocking forever: the publish closes channels registered before it, and a
// publish that lands between the check and the channel registration is
// caught on the next poll.
func (s *Store) AwaitStruct(ctx context.Context, name string) (*types.StructData, error) {
	for {
		s.mu.Lock()
		if e, ok := s.structs[name]; ok && e.data != nil {
			s.mu.Unlock()
			return e.data, nil
		}
		if s.parsingDone {
			s.mu.Unlock()
			return nil, ErrUnknownName
		}
		ch := make(chan struct{})
		s.structWakers[name] = append(s.structWakers[name], ch)
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// AwaitFunction suspends until the named function's signature is resolved.
// A declared-but-unresolved name keeps waiting; an undeclared name fails
// once parsing is done. Specialized functions spawned during checking are
// declared before their jobs start, so waiting on them is safe.
func (s *Store) AwaitFunction(ctx context.Context, name string) (*types.CodelessFunction, error) {
	for {
		s.mu.Lock()
		e, ok := s.functions[name]
		if ok && e.codeless != nil {
			s.mu.Unlock()
			return e.codeless, nil
		}
		if !ok && s.parsingDone {
			s.mu.Unlock()
			return nil, ErrUnknownName
		}
		ch := make(chan struct{})
		s.functionWakers[name] = append(s.functionWakers[name], ch)
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// AwaitFinalizedFunction suspends until the named function's body has been
// checked.
func (s *Store) AwaitFinalizedFunction(ctx context.Context, name string) (*types.FinalizedFunction, error) {
	for {
		s.mu.Lock()
		e, ok := s.functions[name]
		if ok && e.finalized != nil {
			s.mu.Unlock()
			return e.finalized, nil
		}
		if !ok && s.parsingDone {
			s.mu.Unlock()
			return nil, ErrUnknownName
		}
		ch := make(chan struct{})
		s.functionWakers[name] = append(s.functionWakers[name], ch)
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
