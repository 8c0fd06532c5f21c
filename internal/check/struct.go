package check

import (
	"context"

	"quill/internal/ast"
	"quill/internal/types"
)

// VerifyStruct finalizes every field type of a struct and registers the
// result. A field type that fails to resolve poisons the struct instead of
// failing it: the struct still finalizes to a usable, named type so
// dependents keep checking.
func (c *Checker) VerifyStruct(ctx context.Context, st *ast.Struct) *types.FinalizedStruct {
	fs, err := c.verifyStruct(ctx, st)
	if err != nil {
		c.store.RecordError(AsDiagnostic(err, st.Span))
		fs = &types.FinalizedStruct{Data: c.structData(st)}
		fs.Data.Poison(AsDiagnostic(err, st.Span))
	}
	c.store.RegisterFinalizedStruct(fs)
	return fs
}

func (c *Checker) verifyStruct(ctx context.Context, st *ast.Struct) (*types.FinalizedStruct, error) {
	data := c.structData(st)
	generics, scope, err := c.finalizeGenerics(ctx, st.Generics)
	if err != nil {
		return nil, err
	}

	fields := make([]types.FinalizedField, 0, len(st.Fields))
	for i := range st.Fields {
		field := &st.Fields[i]
		fieldType, err := c.finalizeType(ctx, &field.Type, scope)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Poisoned field, poisoned struct; keep going. The error is
			// reported once, at the definition site.
			d := AsDiagnostic(err, field.Type.Span)
			data.Poison(d)
			c.store.RecordError(d)
			fieldType = types.Invalid()
		}
		fields = append(fields, types.FinalizedField{
			Name:      field.Name,
			Type:      fieldType,
			Modifiers: field.Modifiers,
		})
	}

	return &types.FinalizedStruct{Data: data, Generics: generics, Fields: fields}, nil
}

// structData returns the identity record registered for the struct, falling
// back to a fresh record when the declaration never reached the store.
func (c *Checker) structData(st *ast.Struct) *types.StructData {
	if _, data, _ := c.store.LookupStruct(st.Name); data != nil {
		return data
	}
	return &types.StructData{
		Modifiers: st.Modifiers,
		Name:      st.Name,
		Traits:    st.Traits,
		Span:      st.Span,
	}
}
