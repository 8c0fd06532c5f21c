package check

import (
	"context"
	"errors"
	"fmt"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/store"
	"quill/internal/types"
)

// genericScope maps the generic parameter names visible in the current
// declaration to their finalized bounds.
type genericScope map[string][]*types.Finalized

// finalizeType converts a parsed type reference into a finalized type,
// resolving named types through the store's wait protocol. A generic
// parameter already bound in the checker's substitution map yields the bound
// concrete type; one merely in scope yields a generic type carrying its
// bounds. Resolution never fails for a name that exists in the store, even
// poisoned; a name that can never exist is an unresolved-name error.
func (c *Checker) finalizeType(ctx context.Context, expr *ast.TypeExpr, scope genericScope) (*types.Finalized, error) {
	if expr.Inner != nil {
		inner, err := c.finalizeType(ctx, expr.Inner, scope)
		if err != nil {
			return types.Invalid(), err
		}
		return types.ReferenceOf(inner), nil
	}
	if bound, ok := c.generics[expr.Name]; ok {
		return bound, nil
	}
	if bounds, ok := scope[expr.Name]; ok {
		return types.GenericOf(expr.Name, bounds), nil
	}
	for i := range expr.Args {
		if _, err := c.finalizeType(ctx, &expr.Args[i], scope); err != nil {
			return types.Invalid(), err
		}
	}
	data, err := c.store.AwaitStruct(ctx, expr.Name)
	if err != nil {
		if errors.Is(err, store.ErrUnknownName) {
			return types.Invalid(), newError(diag.ResUnknownName, expr.Span,
				fmt.Sprintf("unknown type %q", expr.Name))
		}
		return types.Invalid(), err
	}
	return types.StructOf(data), nil
}

// finalizeGenerics resolves a declaration's generic parameter list and
// builds the scope its other types are finalized under.
func (c *Checker) finalizeGenerics(ctx context.Context, params []ast.GenericParam) ([]types.GenericDef, genericScope, error) {
	defs := make([]types.GenericDef, 0, len(params))
	scope := make(genericScope, len(params))
	for i := range params {
		param := &params[i]
		bounds := make([]*types.Finalized, 0, len(param.Bounds))
		for j := range param.Bounds {
			bound, err := c.finalizeType(ctx, &param.Bounds[j], scope)
			if err != nil {
				var ce *Error
				if errors.As(err, &ce) {
					return nil, nil, newError(diag.ChkInvalidBounds, param.Bounds[j].Span,
						fmt.Sprintf("invalid bound on %s: %s", param.Name, ce.Diag.Message))
				}
				return nil, nil, err
			}
			bounds = append(bounds, bound)
		}
		defs = append(defs, types.GenericDef{Name: param.Name, Bounds: bounds})
		scope[param.Name] = bounds
	}
	return defs, scope, nil
}

func scopeOf(defs []types.GenericDef) genericScope {
	scope := make(genericScope, len(defs))
	for _, def := range defs {
		scope[def.Name] = def.Bounds
	}
	return scope
}
