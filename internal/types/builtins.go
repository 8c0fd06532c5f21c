package types

import (
	"quill/internal/ast"
)

// Builtins holds the primitive struct declarations every store starts with.
// They are constructed per store rather than shared as package globals.
type Builtins struct {
	I64  *StructData
	F64  *StructData
	U64  *StructData
	Bool *StructData
	Str  *StructData
	Void *StructData
}

// NewBuiltins constructs fresh builtin declarations.
func NewBuiltins() Builtins {
	mk := func(name string) *StructData {
		return &StructData{Modifiers: ast.ModInternal, Name: name}
	}
	return Builtins{
		I64:  mk("i64"),
		F64:  mk("f64"),
		U64:  mk("u64"),
		Bool: mk("bool"),
		Str:  mk("str"),
		Void: mk("void"),
	}
}

// All returns every builtin declaration for bulk registration.
func (b Builtins) All() []*StructData {
	return []*StructData{b.I64, b.F64, b.U64, b.Bool, b.Str, b.Void}
}
