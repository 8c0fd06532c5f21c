package types

import (
	"quill/internal/ast"
)

// GenericDef is a finalized generic parameter definition.
type GenericDef struct {
	Name   string
	Bounds []*Finalized
}

// FinalizedField is a fully typed struct field or function argument.
type FinalizedField struct {
	Name      string
	Type      *Finalized
	Modifiers ast.Modifiers
}

// FinalizedStruct is a struct whose fields are fully typed. Validation
// failures live on Data.Poisoned; a poisoned struct still participates in
// checking.
type FinalizedStruct struct {
	Data     *StructData
	Generics []GenericDef
	Fields   []FinalizedField
}

// CodelessFunction is the signature-only form of a function: argument and
// return types resolved, body not yet checked. It is registered in the store
// before body checking so forward and recursive calls resolve against it.
type CodelessFunction struct {
	Data      *FunctionData
	Generics  []GenericDef
	Arguments []FinalizedField
	Return    *Finalized
}

// WithBody upgrades the signature into a finalized function.
func (c *CodelessFunction) WithBody(body FinalizedBody) *FinalizedFunction {
	return &FinalizedFunction{CodelessFunction: c, Body: body}
}

// GenericNames returns the parameter names in declaration order.
func (c *CodelessFunction) GenericNames() []string {
	names := make([]string, len(c.Generics))
	for i := range c.Generics {
		names[i] = c.Generics[i].Name
	}
	return names
}

// FinalizedFunction is a fully checked function: resolved signature plus a
// control-flow-complete body.
type FinalizedFunction struct {
	*CodelessFunction
	Body FinalizedBody
}

// FinalizedBody is a checked function body. Returns is true when every
// control path ends in a return (possibly synthesized).
type FinalizedBody struct {
	Label       string
	Expressions []FinalizedExpression
	Returns     bool
}

// EmptyReturningBody is the body attached to internal, extern and abstract
// trait functions, which skip body checking entirely.
func EmptyReturningBody() FinalizedBody {
	return FinalizedBody{Returns: true}
}

// FinalizedExpression is a checked statement.
type FinalizedExpression struct {
	Kind   ast.ExprKind
	Effect *FinalizedEffect
}
