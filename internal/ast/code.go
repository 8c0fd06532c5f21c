package ast

import (
	"quill/internal/source"
)

// ExprKind distinguishes plain statements from returns.
type ExprKind uint8

const (
	// ExprLine is an effect evaluated for its side effects.
	ExprLine ExprKind = iota
	// ExprReturn returns its effect's value from the enclosing function.
	ExprReturn
)

// Expression is a single statement in a code body.
type Expression struct {
	Kind   ExprKind
	Effect Effect
}

// CodeBody is an unchecked function body.
type CodeBody struct {
	Label       string
	Expressions []Expression
}

// Empty reports whether the body has no expressions, as with abstract trait
// methods and extern declarations.
func (c *CodeBody) Empty() bool {
	return len(c.Expressions) == 0
}

// EffectKind enumerates the effects the checker understands.
type EffectKind uint8

const (
	// EffectNOP does nothing and has the void type.
	EffectNOP EffectKind = iota
	// EffectIntLiteral is a signed integer literal.
	EffectIntLiteral
	// EffectFloatLiteral is a floating-point literal.
	EffectFloatLiteral
	// EffectBoolLiteral is a boolean literal.
	EffectBoolLiteral
	// EffectStringLiteral is a string literal.
	EffectStringLiteral
	// EffectLoadVariable reads a local variable or argument.
	EffectLoadVariable
	// EffectFunctionCall calls a function by name.
	EffectFunctionCall
	// EffectImplCall calls a method through a trait-typed receiver; the
	// dispatch strategy is decided during checking.
	EffectImplCall
)

// Effect is an unresolved computation inside a code body. Which fields are
// meaningful depends on Kind.
type Effect struct {
	Kind EffectKind
	Span source.Span

	Int   int64
	Float float64
	Bool  bool
	Str   string

	// Name is the variable for EffectLoadVariable, the callee for
	// EffectFunctionCall, and the method name for EffectImplCall (empty
	// means "the unique method").
	Name string
	Args []Effect

	// Receiver is the value an impl call dispatches on; nil for static
	// trait calls.
	Receiver *Effect
	// Trait names the trait an impl call goes through.
	Trait string
	// Returning optionally pins the expected return type of a generic call.
	Returning *TypeExpr
}

// NOP builds a no-op effect.
func NOP(span source.Span) Effect {
	return Effect{Kind: EffectNOP, Span: span}
}
