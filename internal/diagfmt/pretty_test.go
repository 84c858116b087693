package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"quill/internal/diag"
	"quill/internal/source"
)

// reassignment строит типичную LCL0002 с меткой, заметкой и исправлением.
func reassignment(t *testing.T) (*source.FileSet, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("main.q", []byte("let x = 1\nx = 2\n"))

	d := diag.NewError(diag.LclImmutableAssign, source.Span{File: fileID, Start: 10, End: 11},
		"cannot assign twice to immutable `x`")
	d.Label = "cannot assign twice"
	d = d.WithLabel(source.Span{File: fileID, Start: 4, End: 5}, "declared here")
	d = d.WithNote(source.Span{File: fileID, Start: 0, End: 3}, "first assignment")
	d = d.WithFix("make `x` mutable", diag.FixEdit{Span: source.Span{File: fileID, Start: 0, End: 3}, NewText: "var"})

	bag := diag.NewBag(10)
	bag.Add(d)
	return fs, bag
}

func TestPrettySnippet(t *testing.T) {
	fs, bag := reassignment(t)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})

	want := "main.q:2:1: error[LCL0002]: cannot assign twice to immutable `x`\n" +
		"  |\n" +
		"2 | x = 2\n" +
		"  | ^ cannot assign twice\n" +
		"  |\n" +
		"1 | let x = 1\n" +
		"  |     - declared here\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs, bag := reassignment(t)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{
		PathMode:    PathModeBasename,
		ShowNotes:   true,
		ShowFixes:   true,
		ShowPreview: true,
	})
	output := buf.String()

	for _, want := range []string{
		"note: main.q:1:1: first assignment",
		"fix #1: make `x` mutable",
		`edit main.q:1:1 apply="var"`,
		"preview:",
		"- let x = 1",
		"+ var x = 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestPrettyHidesNotesByDefault(t *testing.T) {
	fs, bag := reassignment(t)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if strings.Contains(buf.String(), "note:") || strings.Contains(buf.String(), "fix #") {
		t.Fatalf("notes and fixes must be opt-in, got:\n%s", buf.String())
	}
}

// TestPrettyWideRunes: подчёркивание учитывает табы и широкие символы.
func TestPrettyWideRunes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("wide.q", []byte("\tlet 世界 = y\n"))

	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.LclUseOfUninit, source.Span{File: fileID, Start: 14, End: 15}, "use of possibly uninitialized `y`"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})

	want := "  | \t" + strings.Repeat(" ", 11) + "^\n"
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("expected underline %q, got:\n%q", want, buf.String())
	}
}

func TestPrettyUnderlineWidth(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("u.q", []byte("let r = &mut value\n"))

	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.BrwConflict, source.Span{File: fileID, Start: 8, End: 18}, "conflict"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if !strings.Contains(buf.String(), "|"+strings.Repeat(" ", 9)+"^"+strings.Repeat("~", 9)+"\n") {
		t.Fatalf("unexpected underline:\n%s", buf.String())
	}
}

func TestPrettyContextLines(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("ctx.q", []byte("a\nb\nc\nd\n"))

	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.LclUseOfUninit, source.Span{File: fileID, Start: 4, End: 5}, "use"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Context: 1})
	output := buf.String()
	for _, want := range []string{"2 | b\n", "3 | c\n", "4 | d\n"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in:\n%s", want, output)
		}
	}
	if strings.Contains(output, "1 | a") {
		t.Errorf("context must stop one line above:\n%s", output)
	}
}

func TestPrettyWithoutSource(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("kernel.mir.toml", nil)

	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.DevDependencyInFlight, source.Span{File: fileID, Start: 3, End: 9}, "buffer released"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	output := buf.String()
	if !strings.HasPrefix(output, "kernel.mir.toml:1:4: error[DEV0001]: buffer released\n") {
		t.Fatalf("unexpected header:\n%s", output)
	}
	if strings.Contains(output, "|") {
		t.Fatalf("no snippet expected without source:\n%s", output)
	}
}

func TestPrettyZeroSpan(t *testing.T) {
	fs := source.NewFileSet()
	fs.AddVirtual("broken.mir.toml", nil)

	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.MirMalformed, source.Span{}, "cannot load MIR document"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if got, want := buf.String(), "broken.mir.toml: error[MIR0001]: cannot load MIR document\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrettyColor(t *testing.T) {
	fs, bag := reassignment(t)

	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	Pretty(&colored, bag, fs, PrettyOpts{PathMode: PathModeBasename, Color: true})

	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("plain output has escape codes:\n%q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("colored output has no escape codes:\n%q", colored.String())
	}
}

func TestPrettyWidthTruncates(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("long.q", []byte("let value = compute(first, second, third)\n"))

	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.LclUseOfUninit, source.Span{File: fileID, Start: 4, End: 9}, "use"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Width: 12})
	if !strings.Contains(buf.String(), "1 | let value =…\n") {
		t.Fatalf("expected truncated line, got:\n%s", buf.String())
	}
}

func TestSummary(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("s.q", []byte("x\n"))
	span := source.Span{File: fileID, Start: 0, End: 1}

	tests := []struct {
		name  string
		max   int
		diags []diag.Diagnostic
		want  string
	}{
		{name: "clean", want: "no problems found\n"},
		{
			name: "mixed",
			diags: []diag.Diagnostic{
				diag.NewError(diag.BrwConflict, span, "a"),
				diag.New(diag.SevWarning, diag.LclNullDeref, span, "b"),
				diag.New(diag.SevWarning, diag.LclNullDeref, span, "c"),
			},
			want: "1 error, 2 warnings\n",
		},
		{
			name: "capped",
			max:  1,
			diags: []diag.Diagnostic{
				diag.NewError(diag.BrwConflict, span, "a"),
				diag.NewError(diag.BrwConflict, span, "b"),
			},
			want: "1 error (1 more not shown)\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag := diag.NewBag(tt.max)
			for _, d := range tt.diags {
				bag.Add(d)
			}
			var buf bytes.Buffer
			Summary(&buf, bag, false)
			if buf.String() != tt.want {
				t.Fatalf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestShort(t *testing.T) {
	fs, bag := reassignment(t)

	var buf bytes.Buffer
	Short(&buf, bag, fs, PathModeBasename)
	if got, want := buf.String(), "main.q:2:1: error LCL0002: cannot assign twice to immutable `x`\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// TestPathModeAuto проверяет авто-режим выбора пути
func TestPathModeAuto(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "short path as is", path: "test.q", expected: "test.q:1:1"},
		{
			name:     "long absolute path becomes basename",
			path:     "/very/long/absolute/path/to/some/nested/directory/file.q",
			expected: "\nfile.q:1:1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := source.NewFileSet()
			fileID := fs.AddVirtual(tt.path, []byte("x\n"))
			bag := diag.NewBag(1)
			bag.Add(diag.NewError(diag.LclUseOfUninit, source.Span{File: fileID, Start: 0, End: 1}, "use"))

			var buf bytes.Buffer
			Short(&buf, bag, fs, PathModeAuto)
			if !strings.Contains("\n"+buf.String(), tt.expected) {
				t.Errorf("expected %q in output, got:\n%s", tt.expected, buf.String())
			}
		})
	}
}

func TestParsePathMode(t *testing.T) {
	for _, m := range []PathMode{PathModeAuto, PathModeAbsolute, PathModeRelative, PathModeBasename} {
		got, err := ParsePathMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParsePathMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParsePathMode("weird"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
