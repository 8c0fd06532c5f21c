package diag

import (
	"fmt"
)

// Code identifies a diagnostic kind. Codes are grouped in numbered ranges by
// the phase that produces them.
type Code uint16

const (
	UnknownCode Code = 0

	// Resolution (3000-3099): failures while resolving names, traits and
	// implementation calls.
	ResInfo             Code = 3000
	ResUnknownName      Code = 3001
	ResUnknownMethod    Code = 3002
	ResAmbiguousMethod  Code = 3003
	ResNoImplementation Code = 3004

	// Checking (3100-3199): failures while verifying signatures and bodies.
	ChkInfo             Code = 3100
	ChkIncompleteReturn Code = 3101
	ChkInvalidBounds    Code = 3102
	ChkUnknownVariable  Code = 3103
	ChkArgumentMismatch Code = 3104

	// Internal (9000+): programming-defect conditions, reported distinctly
	// from user source errors.
	IntInternal Code = 9000
)

func (c Code) String() string {
	switch c {
	case ResUnknownName:
		return "E3001"
	case ResUnknownMethod:
		return "E3002"
	case ResAmbiguousMethod:
		return "E3003"
	case ResNoImplementation:
		return "E3004"
	case ChkIncompleteReturn:
		return "E3101"
	case ChkInvalidBounds:
		return "E3102"
	case ChkUnknownVariable:
		return "E3103"
	case ChkArgumentMismatch:
		return "E3104"
	case IntInternal:
		return "E9000"
	}
	return fmt.Sprintf("E%04d", uint16(c))
}

// IsInternal reports whether the code marks a programming defect rather than
// a user source error.
func (c Code) IsInternal() bool {
	return c >= IntInternal
}
