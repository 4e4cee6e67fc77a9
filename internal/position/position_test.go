package position

import "testing"

func TestSpanStringSameLine(t *testing.T) {
	s := Span{
		Start: Position{Filename: "/src/a.lumen", Line: 3, Column: 5},
		End:   Position{Filename: "/src/a.lumen", Line: 3, Column: 9},
	}

	if got, want := s.String(), "a.lumen:3:5-9"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSpanStringMultiLine(t *testing.T) {
	s := Span{
		Start: Position{Filename: "a.lumen", Line: 3, Column: 5},
		End:   Position{Filename: "a.lumen", Line: 4, Column: 2},
	}

	if got, want := s.String(), "a.lumen:3:5-4:2"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSpanContains(t *testing.T) {
	s := Span{
		Start: Position{Filename: "a.lumen", Line: 1, Column: 1, Offset: 10},
		End:   Position{Filename: "a.lumen", Line: 1, Column: 1, Offset: 20},
	}

	inside := Position{Filename: "a.lumen", Line: 1, Column: 1, Offset: 15}
	if !s.Contains(inside) {
		t.Error("Contains should be true for an offset inside the span")
	}

	atEnd := Position{Filename: "a.lumen", Line: 1, Column: 1, Offset: 20}
	if s.Contains(atEnd) {
		t.Error("Contains should be false for the exclusive end offset")
	}

	otherFile := Position{Filename: "b.lumen", Line: 1, Column: 1, Offset: 15}
	if s.Contains(otherFile) {
		t.Error("Contains should be false across different files")
	}
}

func TestSpanUnion(t *testing.T) {
	a := Span{
		Start: Position{Filename: "a.lumen", Line: 1, Column: 6, Offset: 5},
		End:   Position{Filename: "a.lumen", Line: 1, Column: 11, Offset: 10},
	}
	b := Span{
		Start: Position{Filename: "a.lumen", Line: 1, Column: 3, Offset: 2},
		End:   Position{Filename: "a.lumen", Line: 1, Column: 8, Offset: 7},
	}

	u := a.Union(b)
	if u.Start.Offset != 2 || u.End.Offset != 10 {
		t.Errorf("Union = [%d,%d], want [2,10]", u.Start.Offset, u.End.Offset)
	}
}

func TestPositionBeforeAfter(t *testing.T) {
	a := Position{Filename: "a.lumen", Offset: 1}
	b := Position{Filename: "a.lumen", Offset: 2}

	if !a.Before(b) || a.After(b) {
		t.Error("a should be Before b and not After it")
	}
	if !b.After(a) || b.Before(a) {
		t.Error("b should be After a and not Before it")
	}
}

func TestSourceFileGetSpanText(t *testing.T) {
	sf := NewSourceFile("a.lumen", "let x = 1\nlet y = 2\n")

	span := Span{
		Start: Position{Filename: "a.lumen", Line: 1, Column: 5, Offset: 4},
		End:   Position{Filename: "a.lumen", Line: 1, Column: 10, Offset: 9},
	}

	if got, want := sf.GetSpanText(span), "x = 1"; got != want {
		t.Errorf("GetSpanText = %q, want %q", got, want)
	}
}

func TestSourceFilePositionFromOffset(t *testing.T) {
	sf := NewSourceFile("a.lumen", "ab\ncd\n")

	pos := sf.PositionFromOffset(4)
	if pos.Line != 2 || pos.Column != 2 {
		t.Errorf("PositionFromOffset(4) = line %d col %d, want line 2 col 2", pos.Line, pos.Column)
	}
}

func TestSourceMapGetSpanText(t *testing.T) {
	sm := NewSourceMap()
	sm.AddFile("a.lumen", "hello world")

	span := Span{
		Start: Position{Filename: "a.lumen", Line: 1, Column: 7, Offset: 6},
		End:   Position{Filename: "a.lumen", Line: 1, Column: 12, Offset: 11},
	}

	if got, want := sm.GetSpanText(span), "world"; got != want {
		t.Errorf("GetSpanText = %q, want %q", got, want)
	}

	missing := Span{Start: Position{Filename: "b.lumen", Offset: 0}, End: Position{Filename: "b.lumen", Offset: 1}}
	if got := sm.GetSpanText(missing); got != "" {
		t.Errorf("GetSpanText for unknown file = %q, want empty", got)
	}
}
