package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSet_ResolveLines(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("mem.ql", []byte("let a = 1\nvar b = 2\n\nb = a\n"))

	tests := []struct {
		name string
		off  uint32
		want LineCol
	}{
		{"file start", 0, LineCol{Line: 1, Col: 1}},
		{"newline belongs to its line", 9, LineCol{Line: 1, Col: 10}},
		{"second line start", 10, LineCol{Line: 2, Col: 1}},
		{"empty line", 20, LineCol{Line: 3, Col: 1}},
		{"last line", 23, LineCol{Line: 4, Col: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
			if start != tt.want {
				t.Fatalf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
			}
		})
	}
}

func TestFile_GetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("mem.ql", []byte("first\nsecond\nthird"))
	f := fs.Get(id)

	if got := f.GetLine(1); got != "first" {
		t.Errorf("line 1: got %q", got)
	}
	if got := f.GetLine(3); got != "third" {
		t.Errorf("line 3: got %q", got)
	}
	if got := f.GetLine(4); got != "" {
		t.Errorf("line 4 should be empty, got %q", got)
	}
	if got := f.GetLine(0); got != "" {
		t.Errorf("line 0 should be empty, got %q", got)
	}
}

func TestFileSet_LoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.ql")
	// BOM + CRLF + decomposed "é" (e + U+0301)
	raw := []byte("\xEF\xBB\xBFlet é = 1\r\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if got, want := string(f.Content), "let é = 1\n"; got != want {
		t.Fatalf("content: got %q, want %q", got, want)
	}
	for _, flag := range []FileFlags{FileHadBOM, FileNormalizedCRLF, FileNormalizedNFC} {
		if f.Flags&flag == 0 {
			t.Errorf("expected flag %b to be set, flags=%b", flag, f.Flags)
		}
	}
	if got := f.FormatPath("relative", dir); got != "main.ql" {
		t.Errorf("relative path: got %q", got)
	}
}

func TestSpan_Prefix(t *testing.T) {
	s := Span{File: 1, Start: 10, End: 20}
	if got := s.Prefix(3); got != (Span{File: 1, Start: 10, End: 13}) {
		t.Errorf("prefix 3: got %v", got)
	}
	if got := s.Prefix(50); got != s {
		t.Errorf("prefix clamps: got %v", got)
	}
	if !(Span{}).IsZero() {
		t.Errorf("zero span must report IsZero")
	}
}
