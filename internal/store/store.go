// Package store is the process-wide declaration registry shared by every
// checking task. It holds struct and function declarations at each stage of
// finalization, the trait-implementation table, the error list, and the
// wait queues that let one task suspend until another task publishes the
// declaration it needs.
//
// All mutable state lives under a single mutex; tasks block only in the
// Await methods and on the implementation-change broadcast.
package store

import (
	"sync"

	"quill/internal/diag"
	"quill/internal/types"
)

// Status describes how far a declaration has progressed.
type Status uint8

const (
	// StatusUnknown means the name has never been declared.
	StatusUnknown Status = iota
	// StatusDeclared means the name is known but its signature is not
	// resolved yet.
	StatusDeclared
	// StatusSignatureOnly means the resolved signature is available.
	StatusSignatureOnly
	// StatusFinalized means the declaration is fully checked and immutable.
	StatusFinalized
)

type structEntry struct {
	data      *types.StructData
	finalized *types.FinalizedStruct
}

type functionEntry struct {
	data      *types.FunctionData
	codeless  *types.CodelessFunction
	finalized *types.FinalizedFunction
}

// Impl records that Target implements Trait with the given methods.
type Impl struct {
	Target  *types.Finalized
	Trait   *types.Finalized
	Methods []*types.FunctionData
	// Generics are the impl block's parameter definitions, used to
	// re-finalize explicit return annotations against a candidate.
	Generics []types.GenericDef
}

// Store is the shared declaration registry.
type Store struct {
	mu sync.Mutex

	builtins  types.Builtins
	structs   map[string]*structEntry
	functions map[string]*functionEntry

	structWakers   map[string][]chan struct{}
	functionWakers map[string][]chan struct{}

	impls       []*Impl
	implChanged chan struct{}

	errors *diag.Bag

	parsingDone  bool
	implsPending int
}

// New builds a store seeded with the builtin primitive structs. Diagnostics
// recorded through the store accumulate in bag.
func New(bag *diag.Bag) *Store {
	s := &Store{
		builtins:       types.NewBuiltins(),
		structs:        make(map[string]*structEntry),
		functions:      make(map[string]*functionEntry),
		structWakers:   make(map[string][]chan struct{}),
		functionWakers: make(map[string][]chan struct{}),
		implChanged:    make(chan struct{}),
		errors:         bag,
	}
	for _, b := range s.builtins.All() {
		s.structs[b.Name] = &structEntry{data: b}
	}
	return s
}

// Builtins returns the primitive struct declarations.
func (s *Store) Builtins() types.Builtins {
	return s.builtins
}

// Void returns the unit type used for statements and static trait calls.
func (s *Store) Void() *types.Finalized {
	return types.StructOf(s.builtins.Void)
}

// RecordError appends a diagnostic to the process-wide error list. It never
// aborts checking.
func (s *Store) RecordError(d diag.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errors != nil {
		s.errors.Add(d)
	}
}

// Errors exposes the accumulated diagnostics.
func (s *Store) Errors() *diag.Bag {
	return s.errors
}

// RegisterStruct publishes a struct declaration the instant its signature is
// known and resumes every waiter registered under its name.
func (s *Store) RegisterStruct(data *types.StructData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.structs[data.Name]
	if e == nil {
		e = &structEntry{}
		s.structs[data.Name] = e
	}
	if e.data == nil {
		e.data = data
	}
	s.wakeStructLocked(data.Name)
}

// RegisterFinalizedStruct upgrades a struct to its immutable finalized form.
// The first finalization wins; later calls are ignored.
func (s *Store) RegisterFinalizedStruct(fs *types.FinalizedStruct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.structs[fs.Data.Name]
	if e == nil {
		e = &structEntry{data: fs.Data}
		s.structs[fs.Data.Name] = e
	}
	if e.finalized == nil {
		e.finalized = fs
	}
	s.wakeStructLocked(fs.Data.Name)
}

// LookupStruct reports a struct's status without blocking.
func (s *Store) LookupStruct(name string) (Status, *types.StructData, *types.FinalizedStruct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.structs[name]
	switch {
	case e == nil:
		return StatusUnknown, nil, nil
	case e.finalized != nil:
		return StatusFinalized, e.data, e.finalized
	default:
		return StatusSignatureOnly, e.data, nil
	}
}

// DeclareFunction records that a function name exists before its signature
// is resolved, so Await callers can distinguish "not yet" from "never".
func (s *Store) DeclareFunction(data *types.FunctionData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.functions[data.Name]
	if e == nil {
		s.functions[data.Name] = &functionEntry{data: data}
		return
	}
	if e.data == nil {
		e.data = data
	}
}

// DeclaredFunction returns the identity record registered for name, or nil.
func (s *Store) DeclaredFunction(name string) *types.FunctionData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.functions[name]; e != nil {
		return e.data
	}
	return nil
}

// RegisterFunction publishes a signature-only function, replacing the
// declaration placeholder, and resumes waiters.
func (s *Store) RegisterFunction(codeless *types.CodelessFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := codeless.Data.Name
	e := s.functions[name]
	if e == nil {
		e = &functionEntry{data: codeless.Data}
		s.functions[name] = e
	}
	if e.codeless == nil {
		e.codeless = codeless
	}
	s.wakeFunctionLocked(name)
}

// RegisterFinalizedFunction upgrades a function to its finalized form. The
// first finalization wins.
func (s *Store) RegisterFinalizedFunction(fn *types.FinalizedFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := fn.Data.Name
	e := s.functions[name]
	if e == nil {
		e = &functionEntry{data: fn.Data, codeless: fn.CodelessFunction}
		s.functions[name] = e
	}
	if e.codeless == nil {
		e.codeless = fn.CodelessFunction
	}
	if e.finalized == nil {
		e.finalized = fn
	}
	s.wakeFunctionLocked(name)
}

// LookupFunction reports a function's status without blocking.
func (s *Store) LookupFunction(name string) (Status, *types.CodelessFunction, *types.FinalizedFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.functions[name]
	switch {
	case e == nil:
		return StatusUnknown, nil, nil
	case e.finalized != nil:
		return StatusFinalized, e.codeless, e.finalized
	case e.codeless != nil:
		return StatusSignatureOnly, e.codeless, nil
	default:
		return StatusDeclared, nil, nil
	}
}

// SetParsingDone marks that every parsed declaration has been registered.
// After this point a lookup for an undeclared name can fail instead of
// waiting forever.
func (s *Store) SetParsingDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parsingDone = true
	for name := range s.structWakers {
		s.wakeStructLocked(name)
	}
	for name := range s.functionWakers {
		s.wakeFunctionLocked(name)
	}
	s.broadcastImplsLocked()
}

func (s *Store) wakeStructLocked(name string) {
	for _, ch := range s.structWakers[name] {
		close(ch)
	}
	delete(s.structWakers, name)
}

func (s *Store) wakeFunctionLocked(name string) {
	for _, ch := range s.functionWakers[name] {
		close(ch)
	}
	delete(s.functionWakers, name)
}
