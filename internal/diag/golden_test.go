package diag

import (
	"testing"

	"quill/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	file := fs.Add("/workspace/testdata/golden/sample.ql", []byte("let b = 0\nb = 1\n"), 0)

	diags := []Diagnostic{
		ReportError(nil, LclImmutableAssign, source.Span{File: file, Start: 10, End: 15}, "f: cannot assign twice to immutable variable `b`").
			WithLabel(source.Span{File: file, Start: 0, End: 5}, "declared here as immutable with `let`").
			Diagnostic(),
		{
			Severity: SevWarning,
			Code:     LclNullDeref,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: file, Start: 4, End: 5},
			Notes:    []Note{{Span: source.Span{File: file, Start: 10, End: 11}, Msg: "note line"}},
		},
	}

	expected := "label LCL0002 testdata/golden/sample.ql:1:1 declared here as immutable with `let`\n" +
		"warning LCL0004 testdata/golden/sample.ql:1:5 first line second\n" +
		"error LCL0002 testdata/golden/sample.ql:2:1 f: cannot assign twice to immutable variable `b`\n" +
		"note LCL0004 testdata/golden/sample.ql:2:1 note line"

	if got := FormatGoldenDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}
