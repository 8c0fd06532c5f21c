package ast

import (
	"strings"

	"quill/internal/source"
)

// TypeExpr is a type reference as written in source: a name with optional
// generic arguments, or a reference wrapper around another type expression.
type TypeExpr struct {
	Name  string
	Args  []TypeExpr
	Inner *TypeExpr // non-nil for reference types; Name and Args are empty
	Span  source.Span
}

// IsReference reports whether the expression is a reference wrapper.
func (t *TypeExpr) IsReference() bool {
	return t.Inner != nil
}

func (t *TypeExpr) String() string {
	if t.Inner != nil {
		return "&" + t.Inner.String()
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	var sb strings.Builder
	sb.WriteString(t.Name)
	sb.WriteByte('<')
	for i := range t.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.Args[i].String())
	}
	sb.WriteByte('>')
	return sb.String()
}

// Named builds a plain named type expression.
func Named(name string, span source.Span) TypeExpr {
	return TypeExpr{Name: name, Span: span}
}

// Ref wraps a type expression in a reference.
func Ref(inner TypeExpr) TypeExpr {
	return TypeExpr{Inner: &inner, Span: inner.Span}
}
