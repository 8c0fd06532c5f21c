// Package driver orchestrates checking of a whole declaration bundle: it
// seeds the declaration store, runs signature and body verification
// concurrently, and collects the finalized program for the code-generation
// stage.
package driver

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"quill/internal/ast"
	"quill/internal/check"
	"quill/internal/diag"
	"quill/internal/store"
	"quill/internal/tasks"
	"quill/internal/types"
)

// Options configure a checking run.
type Options struct {
	// IncludeRefs wraps function arguments in reference types, for
	// pass-by-reference calling conventions.
	IncludeRefs bool
	// MaxDiagnostics caps the error list; zero means 100.
	MaxDiagnostics int
	// Jobs bounds concurrent verification tasks; zero means GOMAXPROCS.
	Jobs int
}

// Output is the finalized program handed to code generation. Dispatch
// decisions live inside the finalized function bodies.
type Output struct {
	Structs   []*types.FinalizedStruct
	Functions []*types.FinalizedFunction
	Bag       *diag.Bag
}

// pendingFunction tracks one function between the signature and body
// phases.
type pendingFunction struct {
	decl     *ast.Function
	codeless *types.CodelessFunction
	body     ast.CodeBody
}

// CheckProgram checks every declaration in the bundle. Declarations may
// reference each other in any order; one failing declaration produces a
// diagnostic and a poisoned placeholder, never an aborted run.
func CheckProgram(ctx context.Context, bundle *ast.Bundle, opts Options) (*Output, error) {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	bag := diag.NewBag(opts.MaxDiagnostics)
	st := store.New(bag)
	coord := tasks.NewCoordinator(ctx, 0)
	checker := check.NewChecker(st, coord, opts.IncludeRefs)

	pending := registerSignatures(st, bundle)

	// Signature phase: resolve every signature and publish the
	// implementation table. Nothing here waits on another function, so a
	// bounded pool cannot deadlock.
	g1, ctx1 := errgroup.WithContext(ctx)
	g1.SetLimit(jobs)

	structs := make([]*types.FinalizedStruct, len(bundle.Structs))
	for i := range bundle.Structs {
		i := i
		g1.Go(func() error {
			structs[i] = checker.VerifyStruct(ctx1, &bundle.Structs[i])
			return nil
		})
	}
	for i := range pending {
		i := i
		g1.Go(func() error {
			p := &pending[i]
			p.codeless, p.body = checker.VerifyFunction(ctx1, p.decl)
			return nil
		})
	}
	for i := range bundle.Impls {
		i := i
		g1.Go(func() error {
			// Errors are recorded inside RegisterImpl; the check still
			// counts toward the liveness signal.
			_ = checker.RegisterImpl(ctx1, &bundle.Impls[i])
			st.FinishImplCheck()
			return nil
		})
	}
	if err := g1.Wait(); err != nil {
		return nil, err
	}

	// Body phase: every signature is in the store, so bodies can resolve
	// forward, backward and cyclic references without ordering.
	g2, ctx2 := errgroup.WithContext(ctx)
	g2.SetLimit(jobs)

	functions := make([]*types.FinalizedFunction, len(pending))
	for i := range pending {
		i := i
		g2.Go(func() error {
			functions[i] = checker.VerifyCode(ctx2, pending[i].codeless, pending[i].body)
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		return nil, err
	}
	if err := coord.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(structs, func(i, j int) bool {
		return structs[i].Data.Name < structs[j].Data.Name
	})
	sort.Slice(functions, func(i, j int) bool {
		return functions[i].Data.Name < functions[j].Data.Name
	})
	bag.Sort()
	bag.Dedup()

	return &Output{Structs: structs, Functions: functions, Bag: bag}, nil
}

// registerSignatures publishes every declared name before checking starts,
// so lookups can distinguish "not yet finalized" from "does not exist".
func registerSignatures(st *store.Store, bundle *ast.Bundle) []pendingFunction {
	var pending []pendingFunction
	fnData := make(map[string]*types.FunctionData)

	declare := func(fn *ast.Function) {
		data := &types.FunctionData{
			Modifiers: fn.Modifiers,
			Name:      fn.Name,
			Span:      fn.Span,
		}
		fnData[fn.Name] = data
		st.DeclareFunction(data)
		pending = append(pending, pendingFunction{decl: fn})
	}
	for i := range bundle.Functions {
		declare(&bundle.Functions[i])
	}
	for i := range bundle.Impls {
		impl := &bundle.Impls[i]
		for j := range impl.Functions {
			declare(&impl.Functions[j])
		}
	}

	for i := range bundle.Structs {
		decl := &bundle.Structs[i]
		data := &types.StructData{
			Modifiers: decl.Modifiers,
			Name:      decl.Name,
			Traits:    decl.Traits,
			Span:      decl.Span,
		}
		for _, name := range decl.Functions {
			member := fnData[name]
			if member == nil {
				// Member declared on the struct but never parsed; keep the
				// slot so vtable positions stay stable.
				member = &types.FunctionData{Name: name}
			}
			data.Functions = append(data.Functions, member)
		}
		st.RegisterStruct(data)
	}

	st.BeginImplChecks(len(bundle.Impls))
	st.SetParsingDone()
	return pending
}
