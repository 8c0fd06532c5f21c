package check

import (
	"context"
	"errors"
	"fmt"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/store"
	"quill/internal/types"

	"fortio.org/safecast"
)

// checkImplCall resolves a call made through a trait-typed value to a
// dispatch strategy: a direct call to an implementation's method, a virtual
// call at a fixed slot in the trait's method list, or a generic virtual call
// deferred to runtime type information.
func (cv *codeVerifier) checkImplCall(ctx context.Context, vars *Variables, eff *ast.Effect) (*types.FinalizedEffect, error) {
	c := cv.checker

	args := make([]*types.FinalizedEffect, 0, len(eff.Args)+1)
	for i := range eff.Args {
		arg, err := cv.verifyEffect(ctx, vars, &eff.Args[i])
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	// The receiver's static type is the search type; a static trait call
	// searches on void.
	searchType := c.store.Void()
	if eff.Receiver != nil {
		recv, err := cv.verifyEffect(ctx, vars, eff.Receiver)
		if err != nil {
			return nil, err
		}
		searchType = types.Substitute(recv.Type, c.generics)
		args = append([]*types.FinalizedEffect{recv}, args...)
	}

	traitData, err := c.store.AwaitStruct(ctx, eff.Trait)
	if err != nil {
		if errors.Is(err, store.ErrUnknownName) {
			return nil, newError(diag.ResUnknownName, eff.Span,
				fmt.Sprintf("unknown trait %q", eff.Trait))
		}
		return nil, err
	}
	traitType := types.StructOf(traitData)

	if found, err := cv.checkVirtualCall(ctx, searchType, traitData, eff, args); err != nil || found != nil {
		return found, err
	}

	// Implementation search. The candidate set grows as unrelated checking
	// registers implementations, so retry until the liveness signal says no
	// further implementation checks are pending, then try once more.
	for {
		changed := c.store.ImplChanged()
		found, err := cv.tryGetImpl(ctx, searchType, traitType, eff, args)
		if err != nil || found != nil {
			return found, err
		}
		if c.store.FinishedImpls() {
			found, err := cv.tryGetImpl(ctx, searchType, traitType, eff, args)
			if err != nil || found != nil {
				return found, err
			}
			return nil, newError(diag.ResNoImplementation, eff.Span,
				fmt.Sprintf("nothing implements %s for %s", traitData.Name, searchType))
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// checkVirtualCall applies when the search type's own declaration already
// matches the trait being called through. The trait's method list is
// scanned in declaration order; a method's position in that list is its
// dispatch slot. Returns (nil, nil) to fall through to implementation
// search.
func (cv *codeVerifier) checkVirtualCall(ctx context.Context, searchType *types.Finalized, traitData *types.StructData, eff *ast.Effect, args []*types.FinalizedEffect) (*types.FinalizedEffect, error) {
	c := cv.checker
	if !searchType.IsOf(types.StructOf(traitData)) {
		return nil, nil
	}

	for i, found := range traitData.Functions {
		slot, err := safecast.Conv[uint32](i)
		if err != nil {
			return nil, fmt.Errorf("vtable slot overflow: %w", err)
		}
		switch {
		case found.Name == eff.Name:
			// Fully qualified match: fixed-slot virtual call.
			target, err := c.store.AwaitFunction(ctx, found.Name)
			if err != nil {
				return nil, err
			}
			return &types.FinalizedEffect{
				Kind:   types.EffVirtualCall,
				Span:   eff.Span,
				Slot:   slot,
				Target: target,
				Args:   args,
				Type:   cv.resultType(target, nil),
			}, nil

		case eff.Name != "" && types.UnqualifiedName(found.Name) == eff.Name:
			// A generic trait method called with a concrete receiver:
			// resolve the receiver's own overload.
			candidates := searchType.FindMethod(eff.Name)
			if len(candidates) > 1 {
				return nil, newError(diag.ResAmbiguousMethod, eff.Span,
					fmt.Sprintf("ambiguous method %q on %s", eff.Name, searchType))
			}
			if len(candidates) == 0 {
				return nil, newError(diag.ResUnknownMethod, eff.Span,
					fmt.Sprintf("unknown method %q on %s", eff.Name, searchType))
			}
			target := candidates[0]

			base, err := c.store.AwaitFunction(ctx, found.Name)
			if err != nil {
				return nil, err
			}

			if len(args) > 0 && args[0].Type.IsGeneric() {
				// The receiver is still generic; dispatch is decided later
				// from runtime type information.
				targetFn, err := c.store.AwaitFunction(ctx, target.Name)
				if err != nil {
					return nil, err
				}
				return &types.FinalizedEffect{
					Kind:   types.EffGenericVirtualCall,
					Span:   eff.Span,
					Slot:   slot,
					Target: targetFn,
					Base:   base,
					Args:   args,
					Type:   cv.resultType(targetFn, nil),
				}, nil
			}

			// Concrete receiver: specialize the method header in the
			// background and dispatch to the specialized version once its
			// header is registered.
			specialized, err := cv.spawnDegeneric(ctx, target, args, eff.Span)
			if err != nil {
				return nil, err
			}
			return &types.FinalizedEffect{
				Kind:   types.EffVirtualCall,
				Span:   eff.Span,
				Slot:   slot,
				Target: specialized,
				Args:   args,
				Type:   cv.resultType(specialized, nil),
			}, nil
		}
	}

	if eff.Name != "" {
		return nil, newError(diag.ResUnknownMethod, eff.Span,
			fmt.Sprintf("trait %s has no method %q", traitData.Name, eff.Name))
	}
	// "Any method" found nothing on the virtual surface; let implementation
	// search decide.
	return nil, nil
}

// tryGetImpl scans the currently known implementations for the first
// candidate whose method binds against the call. Failed candidates are
// discarded silently; first match wins.
func (cv *codeVerifier) tryGetImpl(ctx context.Context, searchType, traitType *types.Finalized, eff *ast.Effect, args []*types.FinalizedEffect) (*types.FinalizedEffect, error) {
	c := cv.checker
	for _, impl := range c.store.ImplsFor(traitType, searchType) {
		for _, m := range impl.Methods {
			if eff.Name != "" && types.UnqualifiedName(m.Name) != eff.Name {
				continue
			}
			method, err := c.store.AwaitFunction(ctx, m.Name)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				continue
			}

			var expected *types.Finalized
			if eff.Returning != nil {
				expected, err = c.finalizeType(ctx, eff.Returning, scopeOf(impl.Generics))
				if err != nil {
					return nil, newError(diag.ChkInvalidBounds, eff.Returning.Span,
						fmt.Sprintf("incorrect bounds on %s", eff.Returning))
				}
			}

			if out, err := checkMethod(cv, method, args, expected, eff.Span); err == nil {
				return out, nil
			}
		}
	}
	return nil, nil
}

// checkMethod binds a call's arguments to a candidate method and produces
// the direct call effect.
func checkMethod(cv *codeVerifier, method *types.CodelessFunction, args []*types.FinalizedEffect, expected *types.Finalized, span source.Span) (*types.FinalizedEffect, error) {
	bindings, err := bindArguments(method, args, span)
	if err != nil {
		return nil, err
	}
	result := cv.resultType(method, bindings)
	if expected != nil && !result.IsOf(expected) {
		return nil, newError(diag.ChkInvalidBounds, span,
			fmt.Sprintf("%s returns %s, expected %s", method.Data.Name, result, expected))
	}
	return &types.FinalizedEffect{
		Kind:   types.EffCall,
		Span:   span,
		Target: method,
		Args:   args,
		Type:   result,
	}, nil
}
