// Package diagfmt renders diagnostics for humans.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"quill/internal/diag"
	"quill/internal/source"
)

// PrettyOpts control rendering.
type PrettyOpts struct {
	// Color enables ANSI colors.
	Color bool
	// Context prints the offending source line with a caret underline when
	// the file set has content for the span.
	Context bool
}

// Pretty writes diagnostics in a human-readable form, one block per
// diagnostic:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	    <source line>
//	    ^~~~~
//
// Sort the bag beforehand for deterministic output.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeDiagnostic(w, d, fs, opts)
	}
}

func writeDiagnostic(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	fmt.Fprintf(w, "%s: %s %s: %s\n",
		location(d.Primary, fs),
		severity(d.Severity, opts.Color),
		d.Code, d.Message)
	if opts.Context {
		writeContext(w, d.Primary, fs, opts)
	}
	for _, note := range d.Notes {
		fmt.Fprintf(w, "  note: %s: %s\n", location(note.Span, fs), note.Msg)
	}
}

func location(sp source.Span, fs *source.FileSet) string {
	if fs == nil || fs.Get(sp.File) == nil {
		return sp.String()
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", fs.Get(sp.File).Path, start.Line, start.Col)
}

func severity(sev diag.Severity, colored bool) string {
	if !colored {
		return sev.String()
	}
	switch sev {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold).Sprint(sev.String())
	case diag.SevWarning:
		return color.New(color.FgYellow).Sprint(sev.String())
	default:
		return color.New(color.FgCyan).Sprint(sev.String())
	}
}

// writeContext prints the first line the span covers with a caret under the
// span's start and tildes across its width. Widths follow the rendered
// width of the source text, so tabs and wide runes stay aligned.
func writeContext(w io.Writer, sp source.Span, fs *source.FileSet, opts PrettyOpts) {
	if fs == nil || fs.Get(sp.File) == nil {
		return
	}
	start, end := fs.Resolve(sp)
	line, ok := fs.Line(sp.File, start.Line)
	if !ok {
		return
	}
	fmt.Fprintf(w, "    %s\n", line)

	prefix := string(line[:min(int(start.Col)-1, len(line))])
	pad := strings.Repeat(" ", runewidth.StringWidth(prefix))

	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		covered := string(line[min(int(start.Col)-1, len(line)):min(int(end.Col)-1, len(line))])
		if cw := runewidth.StringWidth(covered); cw > 0 {
			width = cw
		}
	}
	marker := "^" + strings.Repeat("~", width-1)
	if opts.Color {
		marker = color.New(color.FgRed, color.Bold).Sprint(marker)
	}
	fmt.Fprintf(w, "    %s%s\n", pad, marker)
}
