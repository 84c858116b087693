package diag

import (
	"testing"

	"quill/internal/source"
)

func TestCodeIDs(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{LclUseOfUninit, "LCL0001"},
		{LclImmutableAssign, "LCL0002"},
		{BrwConflict, "BRW0001"},
		{StkEscapeStatic, "STK0003"},
		{DevDependencyInFlight, "DEV0001"},
		{MirMalformed, "MIR0001"},
		{UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.want {
			t.Errorf("%d: got %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestParseCode(t *testing.T) {
	c, ok := ParseCode("lcl0002")
	if !ok || c != LclImmutableAssign {
		t.Fatalf("ParseCode(lcl0002) = %v, %v", c, ok)
	}
	if _, ok := ParseCode("XYZ0001"); ok {
		t.Fatalf("unknown id must not resolve")
	}
	if c.Explain() == c.Title() {
		t.Errorf("LCL0002 should carry a long explanation")
	}
}

func TestBagLimitAndSort(t *testing.T) {
	b := NewBag(2)
	b.Add(New(SevWarning, LclNullDeref, spanAt(5), "w"))
	b.Add(New(SevError, BrwConflict, spanAt(1), "e"))
	if b.Add(New(SevError, BrwConflict, spanAt(9), "dropped")) {
		t.Fatalf("third diagnostic must exceed the limit")
	}
	if b.Dropped() != 1 {
		t.Fatalf("dropped = %d", b.Dropped())
	}
	b.Sort()
	if b.Items()[0].Code != BrwConflict {
		t.Fatalf("sort by start: got %v first", b.Items()[0].Code)
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatalf("bag should report both severities")
	}
	b.Filter(func(d Diagnostic) bool { return d.Severity == SevError })
	if b.Len() != 1 || b.HasWarnings() {
		t.Fatalf("filter left %d items", b.Len())
	}
}

func spanAt(off uint32) source.Span {
	return source.Span{Start: off, End: off + 1}
}
