package check

import (
	"context"

	"quill/internal/ast"
	"quill/internal/store"
	"quill/internal/types"
)

// RegisterImpl finalizes an impl block's target and trait types and
// publishes the implementation so searches can find it. Failures are
// recorded and the implementation is skipped; its methods still verify as
// ordinary functions.
func (c *Checker) RegisterImpl(ctx context.Context, impl *ast.Impl) error {
	defs, scope, err := c.finalizeGenerics(ctx, impl.Generics)
	if err != nil {
		c.store.RecordError(AsDiagnostic(err, impl.Span))
		return err
	}
	target, err := c.finalizeType(ctx, &impl.Target, scope)
	if err != nil {
		c.store.RecordError(AsDiagnostic(err, impl.Target.Span))
		return err
	}
	trait, err := c.finalizeType(ctx, &impl.Trait, scope)
	if err != nil {
		c.store.RecordError(AsDiagnostic(err, impl.Trait.Span))
		return err
	}

	methods := make([]*types.FunctionData, 0, len(impl.Functions))
	for i := range impl.Functions {
		fn := &impl.Functions[i]
		if data := c.store.DeclaredFunction(fn.Name); data != nil {
			methods = append(methods, data)
			continue
		}
		methods = append(methods, &types.FunctionData{
			Modifiers: fn.Modifiers,
			Name:      fn.Name,
			Span:      fn.Span,
		})
	}

	c.store.RegisterImpl(&store.Impl{
		Target:   target,
		Trait:    trait,
		Methods:  methods,
		Generics: defs,
	})
	return nil
}
