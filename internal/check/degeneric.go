package check

import (
	"context"

	"quill/internal/source"
	"quill/internal/types"
)

// spawnDegeneric schedules production of a specialized header for target,
// bound to the call's argument types, and waits for the specialized header
// to be registered. The wait cannot starve: the spawned job always registers
// a header, poisoned or not. Duplicate requests for the same specialization
// collapse into one job.
func (cv *codeVerifier) spawnDegeneric(ctx context.Context, target *types.FunctionData, args []*types.FinalizedEffect, span source.Span) (*types.CodelessFunction, error) {
	c := cv.checker

	argTypes := make([]*types.Finalized, len(args))
	for i, arg := range args {
		argTypes[i] = arg.Type
	}
	name := types.Mangle(target.Name, argTypes)

	// Declare before spawning so concurrent waiters never see an unknown
	// name.
	c.store.DeclareFunction(&types.FunctionData{
		Modifiers: target.Modifiers,
		Name:      name,
		Span:      target.Span,
	})
	snapshot := append([]*types.FinalizedEffect(nil), args...)
	c.coord.Spawn(name, func(jobCtx context.Context) error {
		c.degenericHeader(jobCtx, target, name, snapshot, span)
		return nil
	})

	return c.store.AwaitFunction(ctx, name)
}

// degenericHeader builds the specialized signature and registers it. On any
// failure it still registers a placeholder so waiters resume, and records
// the failure against the call site.
func (c *Checker) degenericHeader(ctx context.Context, target *types.FunctionData, name string, args []*types.FinalizedEffect, span source.Span) {
	data := c.store.DeclaredFunction(name)
	if data == nil {
		data = &types.FunctionData{Modifiers: target.Modifiers, Name: name, Span: target.Span}
	}

	base, err := c.store.AwaitFunction(ctx, target.Name)
	if err != nil {
		c.store.RecordError(AsDiagnostic(err, span))
		c.store.RegisterFunction(&types.CodelessFunction{Data: data})
		return
	}

	bindings, err := bindArguments(base, args, span)
	if err != nil {
		c.store.RecordError(AsDiagnostic(err, span))
		c.store.RegisterFunction(&types.CodelessFunction{Data: data})
		return
	}

	arguments := make([]types.FinalizedField, len(base.Arguments))
	for i, arg := range base.Arguments {
		arguments[i] = types.FinalizedField{
			Name:      arg.Name,
			Type:      types.Substitute(arg.Type, bindings),
			Modifiers: arg.Modifiers,
		}
	}
	var returnType *types.Finalized
	if base.Return != nil {
		returnType = types.Substitute(base.Return, bindings)
	}

	c.store.RegisterFunction(&types.CodelessFunction{
		Data:      data,
		Arguments: arguments,
		Return:    returnType,
	})
}
