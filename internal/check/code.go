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
)

// Variables tracks the local variable types of one function body.
type Variables struct {
	vars map[string]*types.Finalized
}

// VariablesFor seeds a variable map from a function's arguments.
func VariablesFor(codeless *types.CodelessFunction) *Variables {
	v := &Variables{vars: make(map[string]*types.Finalized, len(codeless.Arguments))}
	for _, arg := range codeless.Arguments {
		v.vars[arg.Name] = arg.Type
	}
	return v
}

// Get returns a variable's type.
func (v *Variables) Get(name string) (*types.Finalized, bool) {
	t, ok := v.vars[name]
	return t, ok
}

// Set declares or overwrites a variable.
func (v *Variables) Set(name string, t *types.Finalized) {
	v.vars[name] = t
}

// codeVerifier carries the state for checking one function body.
type codeVerifier struct {
	checker *Checker
	ret     *types.Finalized
	scope   genericScope
}

// verifyCode checks each expression of a body in order and reports whether
// the body returns.
func (cv *codeVerifier) verifyCode(ctx context.Context, vars *Variables, body ast.CodeBody) (types.FinalizedBody, error) {
	out := types.FinalizedBody{Label: body.Label}
	for i := range body.Expressions {
		expr := &body.Expressions[i]
		eff, err := cv.verifyEffect(ctx, vars, &expr.Effect)
		if err != nil {
			return out, err
		}
		if expr.Kind == ast.ExprReturn {
			if err := cv.checkReturn(eff); err != nil {
				return out, err
			}
			out.Returns = true
		}
		out.Expressions = append(out.Expressions, types.FinalizedExpression{
			Kind:   expr.Kind,
			Effect: eff,
		})
	}
	return out, nil
}

func (cv *codeVerifier) checkReturn(eff *types.FinalizedEffect) error {
	if cv.ret == nil {
		return nil
	}
	want := types.Substitute(cv.ret, cv.checker.generics)
	if eff.Type == nil || !eff.Type.IsOf(want) {
		return newError(diag.ChkInvalidBounds, eff.Span,
			fmt.Sprintf("returned %s, expected %s", eff.Type, want))
	}
	return nil
}

// verifyEffect finalizes one effect, resolving any declarations it needs
// through the store's wait protocol.
func (cv *codeVerifier) verifyEffect(ctx context.Context, vars *Variables, eff *ast.Effect) (*types.FinalizedEffect, error) {
	c := cv.checker
	builtins := c.store.Builtins()
	switch eff.Kind {
	case ast.EffectNOP:
		return types.NOPEffect(eff.Span, c.store.Void()), nil
	case ast.EffectIntLiteral:
		return &types.FinalizedEffect{Kind: types.EffIntLiteral, Span: eff.Span, Int: eff.Int, Type: types.StructOf(builtins.I64)}, nil
	case ast.EffectFloatLiteral:
		return &types.FinalizedEffect{Kind: types.EffFloatLiteral, Span: eff.Span, Float: eff.Float, Type: types.StructOf(builtins.F64)}, nil
	case ast.EffectBoolLiteral:
		return &types.FinalizedEffect{Kind: types.EffBoolLiteral, Span: eff.Span, Bool: eff.Bool, Type: types.StructOf(builtins.Bool)}, nil
	case ast.EffectStringLiteral:
		return &types.FinalizedEffect{Kind: types.EffStringLiteral, Span: eff.Span, Str: eff.Str, Type: types.StructOf(builtins.Str)}, nil
	case ast.EffectLoadVariable:
		t, ok := vars.Get(eff.Name)
		if !ok {
			return nil, newError(diag.ChkUnknownVariable, eff.Span,
				fmt.Sprintf("unknown variable %q", eff.Name))
		}
		return &types.FinalizedEffect{Kind: types.EffLoadVariable, Span: eff.Span, Variable: eff.Name, Type: t}, nil
	case ast.EffectFunctionCall:
		return cv.verifyFunctionCall(ctx, vars, eff)
	case ast.EffectImplCall:
		return cv.checkImplCall(ctx, vars, eff)
	}
	// The parser guarantees the effect kinds above; anything else is a
	// defect, not a user error.
	return nil, newError(diag.IntInternal, eff.Span,
		fmt.Sprintf("unhandled effect kind %d", eff.Kind))
}

func (cv *codeVerifier) verifyFunctionCall(ctx context.Context, vars *Variables, eff *ast.Effect) (*types.FinalizedEffect, error) {
	c := cv.checker
	args := make([]*types.FinalizedEffect, 0, len(eff.Args))
	for i := range eff.Args {
		arg, err := cv.verifyEffect(ctx, vars, &eff.Args[i])
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	callee, err := c.store.AwaitFunction(ctx, eff.Name)
	if err != nil {
		if errors.Is(err, store.ErrUnknownName) {
			return nil, newError(diag.ResUnknownName, eff.Span,
				fmt.Sprintf("unknown function %q", eff.Name))
		}
		return nil, err
	}

	bindings, err := bindArguments(callee, args, eff.Span)
	if err != nil {
		return nil, err
	}
	return &types.FinalizedEffect{
		Kind:   types.EffCall,
		Span:   eff.Span,
		Target: callee,
		Args:   args,
		Type:   cv.resultType(callee, bindings),
	}, nil
}

// resultType is the substituted return type of a call, or void.
func (cv *codeVerifier) resultType(callee *types.CodelessFunction, bindings map[string]*types.Finalized) *types.Finalized {
	if callee.Return == nil {
		return cv.checker.store.Void()
	}
	return types.Substitute(callee.Return, bindings)
}

// bindArguments checks finalized arguments against a callee's parameters,
// inferring generic bindings by position. A mismatch is an argument error;
// candidate searches treat it as "try the next one".
func bindArguments(callee *types.CodelessFunction, args []*types.FinalizedEffect, span source.Span) (map[string]*types.Finalized, error) {
	if len(args) != len(callee.Arguments) {
		return nil, newError(diag.ChkArgumentMismatch, span,
			fmt.Sprintf("%s takes %d arguments, got %d",
				callee.Data.Name, len(callee.Arguments), len(args)))
	}
	bindings := make(map[string]*types.Finalized)
	for i, arg := range args {
		param := callee.Arguments[i].Type.Unwrap()
		got := arg.Type.Unwrap()
		if param.Kind == types.KindGeneric {
			if prev, ok := bindings[param.Name]; ok && !prev.Equal(got) {
				return nil, newError(diag.ChkArgumentMismatch, arg.Span,
					fmt.Sprintf("conflicting bindings for %s: %s vs %s", param.Name, prev, got))
			}
			for _, bound := range param.Bounds {
				if !got.IsOf(bound) {
					return nil, newError(diag.ChkArgumentMismatch, arg.Span,
						fmt.Sprintf("%s does not satisfy bound %s of %s", got, bound, param.Name))
				}
			}
			bindings[param.Name] = got
			continue
		}
		if !got.IsOf(param) {
			return nil, newError(diag.ChkArgumentMismatch, arg.Span,
				fmt.Sprintf("argument %d of %s: %s is not a %s",
					i+1, callee.Data.Name, got, param))
		}
	}
	return bindings, nil
}
