package ast

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// BundleSchemaVersion guards the wire format between the parsing stage and
// the checker. Bump when the declaration shapes change.
const BundleSchemaVersion uint16 = 1

// BundleFile carries a source file's content so diagnostics can be rendered
// with line context.
type BundleFile struct {
	Path    string
	Content []byte
}

// Bundle is the parsing stage's hand-off: every declaration of a program,
// in arbitrary order, plus the source files the spans point into.
type Bundle struct {
	Schema    uint16
	Files     []BundleFile
	Structs   []Struct
	Functions []Function
	Impls     []Impl
}

// EncodeBundle serializes a bundle with msgpack.
func EncodeBundle(b *Bundle) ([]byte, error) {
	b.Schema = BundleSchemaVersion
	return msgpack.Marshal(b)
}

// DecodeBundle deserializes a bundle and rejects unknown schema versions.
func DecodeBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := msgpack.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode declaration bundle: %w", err)
	}
	if b.Schema != BundleSchemaVersion {
		return nil, fmt.Errorf("declaration bundle schema %d, want %d", b.Schema, BundleSchemaVersion)
	}
	return &b, nil
}
