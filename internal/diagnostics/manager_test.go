package diagnostics

import (
	"testing"

	"github.com/lumen-lang/lumen/internal/position"
)

func at(file string, line, col int) position.Span {
	pos := position.Position{Filename: file, Line: line, Column: col}

	return position.Span{Start: pos, End: pos}
}

func TestManagerDeduplicatesBySpan(t *testing.T) {
	m := NewManager()

	m.Report(Diagnostic{Kind: KindVariableUsedBeforeInitialized, Level: LevelError, Span: at("a.lumen", 3, 1), Message: "first"})
	m.Report(Diagnostic{Kind: KindStoredPropertyNotInitialized, Level: LevelError, Span: at("a.lumen", 3, 1), Message: "second, same span"})

	got := m.Diagnostics()
	if len(got) != 1 {
		t.Fatalf("got %d diagnostics, want 1 (second should be suppressed)", len(got))
	}
	if got[0].Message != "first" {
		t.Errorf("kept diagnostic = %q, want the first one reported", got[0].Message)
	}
}

func TestManagerKeepsDistinctSpans(t *testing.T) {
	m := NewManager()

	m.Report(Diagnostic{Span: at("a.lumen", 1, 1)})
	m.Report(Diagnostic{Span: at("a.lumen", 2, 1)})

	if len(m.Diagnostics()) != 2 {
		t.Fatalf("got %d diagnostics, want 2", len(m.Diagnostics()))
	}
}

func TestManagerHasErrors(t *testing.T) {
	m := NewManager()
	if m.HasErrors() {
		t.Fatal("empty manager should not report errors")
	}

	m.Report(Diagnostic{Level: LevelError, Span: at("a.lumen", 1, 1)})
	if !m.HasErrors() {
		t.Fatal("manager with an error-level diagnostic should report HasErrors")
	}
}

func TestManagerSortByLocation(t *testing.T) {
	m := NewManager()

	m.Report(Diagnostic{Message: "b-line-5", Span: at("b.lumen", 5, 1)})
	m.Report(Diagnostic{Message: "a-line-9", Span: at("a.lumen", 9, 1)})
	m.Report(Diagnostic{Message: "a-line-2-col-9", Span: at("a.lumen", 2, 9)})
	m.Report(Diagnostic{Message: "a-line-2-col-3", Span: at("a.lumen", 2, 3)})

	m.SortByLocation()

	got := m.Diagnostics()
	want := []string{"a-line-2-col-3", "a-line-2-col-9", "a-line-9", "b-line-5"}

	for i, msg := range want {
		if got[i].Message != msg {
			t.Errorf("position %d = %q, want %q", i, got[i].Message, msg)
		}
	}
}

func TestKindStringRoundTrip(t *testing.T) {
	if got := KindSelfInitMultipleTimes.String(); got != "selfinit_multiple_times" {
		t.Errorf("String() = %q, want selfinit_multiple_times", got)
	}
	if got := Kind(999).String(); got != "unknown_diagnostic_kind" {
		t.Errorf("String() on an out-of-range Kind = %q, want unknown_diagnostic_kind", got)
	}
}
