package diagfmt

import (
	"strings"
	"testing"

	"quill/internal/diag"
	"quill/internal/source"
)

func TestPrettyRendersLocationAndUnderline(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("demo.ql", []byte("fn main() {\n    frobnicate();\n}\n"))

	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.ResUnknownName,
		Message:  "unknown name frobnicate",
		Primary:  source.Span{File: id, Start: 16, End: 26},
	})

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{Context: true})
	out := sb.String()

	if !strings.Contains(out, "demo.ql:2:5: ERROR E3001: unknown name frobnicate") {
		t.Fatalf("missing header line in:\n%s", out)
	}
	if !strings.Contains(out, "    frobnicate();") {
		t.Fatalf("missing source line in:\n%s", out)
	}
	if !strings.Contains(out, "^~~~~~~~~") {
		t.Fatalf("missing underline in:\n%s", out)
	}
}

func TestPrettyWithoutFileSetFallsBackToOffsets(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.ChkUnknownVariable,
		Message:  "unknown variable x",
		Primary:  source.Span{File: 7, Start: 3, End: 4},
	})

	var sb strings.Builder
	Pretty(&sb, bag, nil, PrettyOpts{})
	if !strings.Contains(sb.String(), "WARNING E3103") {
		t.Fatalf("unexpected output:\n%s", sb.String())
	}
}
