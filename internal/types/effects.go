package types

import (
	"quill/internal/source"
)

// EffectKind enumerates finalized effects, including the three dispatch
// strategies an implementation call can resolve to.
type EffectKind uint8

const (
	// EffNOP does nothing.
	EffNOP EffectKind = iota
	// EffIntLiteral through EffStringLiteral are typed literals.
	EffIntLiteral
	EffFloatLiteral
	EffBoolLiteral
	EffStringLiteral
	// EffLoadVariable reads a local.
	EffLoadVariable
	// EffCall is a direct (static) call to a known function.
	EffCall
	// EffVirtualCall dispatches through a fixed slot in a trait's method
	// list.
	EffVirtualCall
	// EffGenericVirtualCall is a dispatch deferred to runtime type
	// information because the receiver's type is still generic.
	EffGenericVirtualCall
)

// FinalizedEffect is a checked computation with a known static type.
type FinalizedEffect struct {
	Kind EffectKind
	Span source.Span
	// Type is the effect's static result type; void for statements.
	Type *Finalized

	Int   int64
	Float float64
	Bool  bool
	Str   string

	// Variable is the local read by EffLoadVariable.
	Variable string
	// Target is the callee signature for EffCall, EffVirtualCall and
	// EffGenericVirtualCall.
	Target *CodelessFunction
	// Slot is the vtable position for virtual dispatch.
	Slot uint32
	// Base is the trait method a generic virtual call was declared on.
	Base *CodelessFunction
	Args []*FinalizedEffect
}

// NOPEffect builds a finalized no-op with the given type.
func NOPEffect(span source.Span, void *Finalized) *FinalizedEffect {
	return &FinalizedEffect{Kind: EffNOP, Span: span, Type: void}
}
