package check

import (
	"context"
	"fmt"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/types"
)

// VerifyFunction is the signature phase: it finalizes the function's generic
// parameters, argument types and return type, and registers the signature in
// the store immediately so recursive and forward calls resolve before the
// body exists. On failure a placeholder signature is registered instead.
func (c *Checker) VerifyFunction(ctx context.Context, fn *ast.Function) (*types.CodelessFunction, ast.CodeBody) {
	codeless, err := c.verifyFunction(ctx, fn)
	if err != nil {
		c.store.RecordError(AsDiagnostic(err, fn.Span))
		codeless = &types.CodelessFunction{Data: c.functionData(fn)}
	}
	c.store.RegisterFunction(codeless)
	return codeless, fn.Body
}

func (c *Checker) verifyFunction(ctx context.Context, fn *ast.Function) (*types.CodelessFunction, error) {
	generics, scope, err := c.finalizeGenerics(ctx, fn.Generics)
	if err != nil {
		return nil, err
	}

	arguments := make([]types.FinalizedField, 0, len(fn.Arguments))
	for i := range fn.Arguments {
		arg := &fn.Arguments[i]
		argType, err := c.finalizeType(ctx, &arg.Type, scope)
		if err != nil {
			return nil, err
		}
		if c.includeRefs {
			argType = types.ReferenceOf(argType)
		}
		arguments = append(arguments, types.FinalizedField{
			Name:      arg.Name,
			Type:      argType,
			Modifiers: arg.Modifiers,
		})
	}

	var returnType *types.Finalized
	if fn.Return != nil {
		if returnType, err = c.finalizeType(ctx, fn.Return, scope); err != nil {
			return nil, err
		}
	}

	return &types.CodelessFunction{
		Data:      c.functionData(fn),
		Generics:  generics,
		Arguments: arguments,
		Return:    returnType,
	}, nil
}

// VerifyCode is the body phase: it type-checks the body against the declared
// return type and registers the finalized function. Checking errors are
// recorded and a placeholder finalized function is substituted so downstream
// consumers still get a value.
func (c *Checker) VerifyCode(ctx context.Context, codeless *types.CodelessFunction, body ast.CodeBody) *types.FinalizedFunction {
	fn, err := c.verifyFunctionCode(ctx, codeless, body)
	if err != nil {
		c.store.RecordError(AsDiagnostic(err, codeless.Data.Span))
		fn = codeless.WithBody(types.FinalizedBody{})
	}
	c.store.RegisterFinalizedFunction(fn)
	return fn
}

func (c *Checker) verifyFunctionCode(ctx context.Context, codeless *types.CodelessFunction, body ast.CodeBody) (*types.FinalizedFunction, error) {
	mods := codeless.Data.Modifiers
	// Internal, extern and abstract trait functions verify everything but
	// the code.
	if mods.Has(ast.ModInternal) || mods.Has(ast.ModExtern) || (mods.Has(ast.ModTrait) && body.Empty()) {
		return codeless.WithBody(types.EmptyReturningBody()), nil
	}

	vars := VariablesFor(codeless)
	cv := &codeVerifier{
		checker: c,
		ret:     codeless.Return,
		scope:   scopeOf(codeless.Generics),
	}
	checked, err := cv.verifyCode(ctx, vars, body)
	if err != nil {
		return nil, err
	}

	if !checked.Returns {
		switch {
		case codeless.Return == nil:
			// Fell off the end of a void function: synthesize the return.
			checked.Expressions = append(checked.Expressions, types.FinalizedExpression{
				Kind:   ast.ExprReturn,
				Effect: types.NOPEffect(codeless.Data.Span, c.store.Void()),
			})
			checked.Returns = true
		case mods.Has(ast.ModTrait):
			// Abstract contract; implementors provide the complete body.
		default:
			return nil, newError(diag.ChkIncompleteReturn, codeless.Data.Span,
				fmt.Sprintf("function %s returns void instead of a %s",
					codeless.Data.Name, codeless.Return))
		}
	}

	return codeless.WithBody(checked), nil
}

func (c *Checker) functionData(fn *ast.Function) *types.FunctionData {
	if data := c.store.DeclaredFunction(fn.Name); data != nil {
		return data
	}
	return &types.FunctionData{Modifiers: fn.Modifiers, Name: fn.Name, Span: fn.Span}
}
