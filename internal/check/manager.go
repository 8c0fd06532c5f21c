// Package check verifies declarations against the shared declaration store:
// it finalizes types, validates struct fields and function bodies, and
// resolves implementation calls to a dispatch strategy. Any number of
// verifications may run concurrently; they suspend only inside the store's
// Await methods.
package check

import (
	"context"

	"quill/internal/ast"
	"quill/internal/store"
	"quill/internal/tasks"
	"quill/internal/types"
)

// Manager is the capability handed to checking tasks. Every operation
// converts internal failures into recorded diagnostics plus a usable
// placeholder, so one failing declaration never aborts the rest of the
// program.
type Manager interface {
	// Coordinator schedules background specialization work.
	Coordinator() *tasks.Coordinator
	// Generics is the active substitution map from generic parameter names
	// to bound concrete types.
	Generics() map[string]*types.Finalized
	// VerifyFunction resolves a function's signature, registers it in the
	// store, and hands back the unchecked body for the second phase.
	VerifyFunction(ctx context.Context, fn *ast.Function) (*types.CodelessFunction, ast.CodeBody)
	// VerifyCode checks a function body against its resolved signature and
	// registers the finalized function.
	VerifyCode(ctx context.Context, codeless *types.CodelessFunction, body ast.CodeBody) *types.FinalizedFunction
	// VerifyStruct finalizes a struct's fields and registers the result.
	VerifyStruct(ctx context.Context, st *ast.Struct) *types.FinalizedStruct
}

// Checker is the concrete Manager.
type Checker struct {
	store       *store.Store
	coord       *tasks.Coordinator
	generics    map[string]*types.Finalized
	includeRefs bool
}

// NewChecker builds a checker over the shared store. includeRefs wraps every
// function argument in a reference type, for calling conventions that pass
// by reference.
func NewChecker(st *store.Store, coord *tasks.Coordinator, includeRefs bool) *Checker {
	return &Checker{
		store:       st,
		coord:       coord,
		generics:    make(map[string]*types.Finalized),
		includeRefs: includeRefs,
	}
}

func (c *Checker) Coordinator() *tasks.Coordinator {
	return c.coord
}

func (c *Checker) Generics() map[string]*types.Finalized {
	return c.generics
}

// Store exposes the shared declaration store.
func (c *Checker) Store() *store.Store {
	return c.store
}
