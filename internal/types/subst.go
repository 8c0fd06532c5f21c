package types

import (
	"strings"
)

// Substitute replaces bound generic parameters with their concrete types.
// Concrete types come back unchanged, so substitution is idempotent.
func Substitute(f *Finalized, generics map[string]*Finalized) *Finalized {
	if f == nil || len(generics) == 0 {
		return f
	}
	switch f.Kind {
	case KindGeneric:
		if bound, ok := generics[f.Name]; ok {
			return bound
		}
		return f
	case KindReference:
		inner := Substitute(f.Inner, generics)
		if inner == f.Inner {
			return f
		}
		return ReferenceOf(inner)
	}
	return f
}

// Mangle derives the name of a specialized (degenericized) function from the
// base name and the concrete types bound to its generic parameters.
func Mangle(base string, bindings []*Finalized) string {
	if len(bindings) == 0 {
		return base
	}
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = b.Unwrap().String()
	}
	return base + "$" + strings.Join(parts, "$")
}
