// Package ast holds the unresolved declarations handed over by the parsing
// stage. Declarations may reference each other in any order; nothing here is
// resolved or type-checked.
package ast

import (
	"quill/internal/source"
)

// Modifiers encode declaration-level flags.
type Modifiers uint8

const (
	// ModPublic marks an exported declaration.
	ModPublic Modifiers = 1 << iota
	// ModInternal marks compiler-provided declarations; their bodies are
	// never checked.
	ModInternal
	// ModExtern marks declarations backed by foreign code.
	ModExtern
	// ModTrait marks trait declarations and abstract trait methods.
	ModTrait
	// ModOperation marks operator methods.
	ModOperation
)

// Has reports whether all bits of m are set.
func (m Modifiers) Has(flag Modifiers) bool {
	return m&flag == flag
}

// GenericParam is a declared generic parameter with zero or more trait bounds.
type GenericParam struct {
	Name   string
	Bounds []TypeExpr
}

// Field is a named, typed member of a struct or an argument of a function.
type Field struct {
	Name      string
	Type      TypeExpr
	Modifiers Modifiers
}

// Struct is an unresolved struct or trait declaration. Functions lists the
// names of member functions declared elsewhere in the program; Traits lists
// the names of traits this struct declares itself to implement.
type Struct struct {
	Modifiers Modifiers
	Name      string
	Generics  []GenericParam
	Fields    []Field
	Functions []string
	Traits    []string
	Span      source.Span
}

// IsTrait reports whether the declaration is a trait.
func (s *Struct) IsTrait() bool {
	return s.Modifiers.Has(ModTrait)
}

// Function is an unresolved function declaration. The body is an unchecked
// syntax tree; internal, extern and abstract trait methods carry an empty
// body.
type Function struct {
	Modifiers Modifiers
	Name      string
	Generics  []GenericParam
	Arguments []Field
	Return    *TypeExpr
	Body      CodeBody
	Span      source.Span
}

// Impl declares that Target implements Trait with the given member functions.
type Impl struct {
	Generics  []GenericParam
	Target    TypeExpr
	Trait     TypeExpr
	Functions []Function
	Span      source.Span
}
