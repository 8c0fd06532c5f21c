package types

import (
	"fmt"
	"strings"
)

// Kind enumerates the finalized type shapes.
type Kind uint8

const (
	// KindInvalid marks a placeholder produced after a resolution failure.
	KindInvalid Kind = iota
	// KindStruct is a concrete struct or trait type.
	KindStruct
	// KindGeneric is an unbound generic parameter constrained by traits.
	KindGeneric
	// KindReference wraps another finalized type.
	KindReference
)

// Finalized is a fully resolved type. Finalizing an already-finalized type
// returns it unchanged.
type Finalized struct {
	Kind   Kind
	Data   *StructData  // KindStruct
	Name   string       // KindGeneric parameter name
	Bounds []*Finalized // KindGeneric trait bounds
	Inner  *Finalized   // KindReference
}

// StructOf builds a finalized struct type.
func StructOf(data *StructData) *Finalized {
	return &Finalized{Kind: KindStruct, Data: data}
}

// GenericOf builds a finalized generic parameter type.
func GenericOf(name string, bounds []*Finalized) *Finalized {
	return &Finalized{Kind: KindGeneric, Name: name, Bounds: bounds}
}

// ReferenceOf wraps a finalized type in a reference.
func ReferenceOf(inner *Finalized) *Finalized {
	return &Finalized{Kind: KindReference, Inner: inner}
}

// Invalid builds the placeholder type used after resolution failures.
func Invalid() *Finalized {
	return &Finalized{Kind: KindInvalid}
}

func (f *Finalized) String() string {
	if f == nil {
		return "<nil>"
	}
	switch f.Kind {
	case KindStruct:
		return f.Data.Name
	case KindGeneric:
		if len(f.Bounds) == 0 {
			return f.Name
		}
		bounds := make([]string, len(f.Bounds))
		for i, b := range f.Bounds {
			bounds[i] = b.String()
		}
		return f.Name + ": " + strings.Join(bounds, " + ")
	case KindReference:
		return "&" + f.Inner.String()
	}
	return fmt.Sprintf("invalid(%d)", f.Kind)
}

// Unwrap strips reference wrappers.
func (f *Finalized) Unwrap() *Finalized {
	for f != nil && f.Kind == KindReference {
		f = f.Inner
	}
	return f
}

// InnerStruct returns the struct identity behind the type, unwrapping
// references; nil for generics and invalid types.
func (f *Finalized) InnerStruct() *StructData {
	f = f.Unwrap()
	if f == nil || f.Kind != KindStruct {
		return nil
	}
	return f.Data
}

// Equal compares types structurally, with struct identity by name.
func (f *Finalized) Equal(other *Finalized) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.Kind != other.Kind {
		return false
	}
	switch f.Kind {
	case KindStruct:
		return f.Data.Equal(other.Data)
	case KindGeneric:
		return f.Name == other.Name
	case KindReference:
		return f.Inner.Equal(other.Inner)
	}
	return true
}

// IsOf reports whether a value of type f can stand where other is required:
// the same struct, a struct implementing the required trait, a reference to
// such a type, or a generic whose bounds include the requirement.
func (f *Finalized) IsOf(other *Finalized) bool {
	if f == nil || other == nil {
		return false
	}
	f, other = f.Unwrap(), other.Unwrap()
	switch f.Kind {
	case KindStruct:
		if other.Kind != KindStruct {
			return false
		}
		if f.Data.Equal(other.Data) {
			return true
		}
		return other.Data.IsTrait() && f.Data.Implements(other.Data.Name)
	case KindGeneric:
		if other.Kind == KindGeneric && f.Name == other.Name {
			return true
		}
		for _, bound := range f.Bounds {
			if bound.IsOf(other) {
				return true
			}
		}
		return false
	}
	return false
}

// IsGeneric reports whether the type still depends on an unbound generic
// parameter.
func (f *Finalized) IsGeneric() bool {
	if f == nil {
		return false
	}
	switch f.Kind {
	case KindGeneric:
		return true
	case KindReference:
		return f.Inner.IsGeneric()
	}
	return false
}

// FindMethod returns the member methods whose unqualified name matches. On a
// generic parameter the search covers every bound trait's method list.
func (f *Finalized) FindMethod(name string) []*FunctionData {
	if f == nil {
		return nil
	}
	if g := f.Unwrap(); g != nil && g.Kind == KindGeneric {
		var found []*FunctionData
		for _, bound := range g.Bounds {
			found = append(found, bound.FindMethod(name)...)
		}
		return found
	}
	data := f.InnerStruct()
	if data == nil {
		return nil
	}
	var found []*FunctionData
	for _, fn := range data.Functions {
		if UnqualifiedName(fn.Name) == name {
			found = append(found, fn)
		}
	}
	return found
}
