package diagfmt

import (
	"fmt"

	"quill/internal/source"
)

// displayPath formats the path of f for output.
func displayPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.FormatPath("auto", "")
	}
}

// location renders "path:line:col", or just the path for zero spans.
func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	path := displayPath(fs, fs.Get(span.File), mode)
	if span.IsZero() {
		return path
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}

// spanText returns the source bytes under span, or "" when unavailable.
func spanText(fs *source.FileSet, span source.Span) string {
	f := fs.Get(span.File)
	if f == nil || span.End < span.Start || int(span.End) > len(f.Content) {
		return ""
	}
	return string(f.Content[span.Start:span.End])
}
