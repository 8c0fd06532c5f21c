// Package types holds the finalized side of the checker: identity records
// for declarations, the finalized type algebra, and finalized function and
// struct representations. Everything here is immutable once published to the
// declaration store.
package types

import (
	"strings"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
)

// QualifySeparator joins a trait or struct name with a member method name.
const QualifySeparator = "::"

// StructData identifies a struct or trait declaration. Two declarations are
// the same entity iff their names match; the name is assigned once per
// compilation and never reused.
type StructData struct {
	Modifiers ast.Modifiers
	Name      string
	// Functions lists member methods in declaration order. For traits the
	// position of a method in this list is its vtable slot.
	Functions []*FunctionData
	// Traits names the traits this struct declares itself to implement.
	Traits []string
	// Poisoned is non-empty when the declaration failed validation. A
	// poisoned struct is still usable as a typed stand-in.
	Poisoned []diag.Diagnostic
	Span     source.Span
}

// Equal compares declarations by name.
func (d *StructData) Equal(other *StructData) bool {
	return other != nil && d.Name == other.Name
}

// IsPoisoned reports whether the declaration carries validation errors.
func (d *StructData) IsPoisoned() bool {
	return len(d.Poisoned) > 0
}

// IsTrait reports whether the declaration is a trait.
func (d *StructData) IsTrait() bool {
	return d.Modifiers.Has(ast.ModTrait)
}

// Poison attaches an error, keeping the declaration usable.
func (d *StructData) Poison(err diag.Diagnostic) {
	d.Poisoned = append(d.Poisoned, err)
}

// Implements reports whether the struct declares the named trait.
func (d *StructData) Implements(trait string) bool {
	for _, t := range d.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// FunctionData identifies a function declaration.
type FunctionData struct {
	Modifiers ast.Modifiers
	Name      string
	Span      source.Span
}

// Equal compares declarations by name.
func (d *FunctionData) Equal(other *FunctionData) bool {
	return other != nil && d.Name == other.Name
}

// UnqualifiedName returns the method name without its trait or struct
// qualifier: "Shape::area" becomes "area".
func UnqualifiedName(name string) string {
	if i := strings.LastIndex(name, QualifySeparator); i >= 0 {
		return name[i+len(QualifySeparator):]
	}
	return name
}
