package diag

import (
	"testing"

	"quill/internal/source"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	d := Diagnostic{Severity: SevError, Code: ResUnknownName}
	if !b.Add(d) || !b.Add(d) {
		t.Fatalf("first two adds must succeed")
	}
	if b.Add(d) {
		t.Fatalf("add past the limit must be rejected")
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", b.Len())
	}
}

func TestBagSortIsDeterministic(t *testing.T) {
	b := NewBag(10)
	b.Add(Diagnostic{Severity: SevError, Code: ChkIncompleteReturn, Primary: source.Span{File: 1, Start: 40, End: 45}})
	b.Add(Diagnostic{Severity: SevError, Code: ResUnknownName, Primary: source.Span{File: 0, Start: 10, End: 12}})
	b.Add(Diagnostic{Severity: SevWarning, Code: ChkInfo, Primary: source.Span{File: 0, Start: 10, End: 12}})
	b.Sort()

	items := b.Items()
	if items[0].Code != ResUnknownName {
		t.Fatalf("expected file 0 first, got %v", items[0].Code)
	}
	if items[1].Code != ChkInfo {
		t.Fatalf("error must sort before warning at the same span, got %v", items[1].Code)
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(10)
	sp := source.Span{File: 0, Start: 5, End: 9}
	b.Add(Diagnostic{Severity: SevError, Code: ResNoImplementation, Primary: sp})
	b.Add(Diagnostic{Severity: SevError, Code: ResNoImplementation, Primary: sp})
	b.Add(Diagnostic{Severity: SevError, Code: ResUnknownMethod, Primary: sp})
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("expected 2 after dedup, got %d", b.Len())
	}
}

func TestReportWarningKeepsSeverity(t *testing.T) {
	bag := NewBag(10)
	ReportWarning(BagReporter{Bag: bag}, ChkInfo, source.Span{File: 0, Start: 3, End: 7}, "suspicious bound").Emit()
	if bag.Len() != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", bag.Len())
	}
	if got := bag.Items()[0].Severity; got != SevWarning {
		t.Fatalf("severity = %v, want %v", got, SevWarning)
	}
	if bag.HasErrors() {
		t.Fatalf("a warning alone must not fail the run")
	}
}

func TestNopReporterDiscards(t *testing.T) {
	b := ReportError(NopReporter{}, ResUnknownName, source.Span{}, "dropped")
	b.Emit()
	if d := b.Diagnostic(); d.Code != ResUnknownName {
		t.Fatalf("builder must still expose the diagnostic, got %v", d.Code)
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(10)
	rep := BagReporter{Bag: bag}
	b := ReportError(rep, ResUnknownMethod, source.Span{File: 0, Start: 1, End: 2}, "unknown method")
	b.WithNote(source.Span{File: 0, Start: 0, End: 1}, "while resolving call")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("expected a single emit, got %d", bag.Len())
	}
	if len(bag.Items()[0].Notes) != 1 {
		t.Fatalf("note was lost")
	}
}
