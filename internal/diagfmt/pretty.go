package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"quill/internal/diag"
	"quill/internal/source"
)

type palette struct {
	err, warn, info *color.Color
	path, gutter    *color.Color
	primary, second *color.Color
	note, fix       *color.Color
	added, removed  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgCyan, color.Bold),
		path:    color.New(color.Bold),
		gutter:  color.New(color.FgBlue, color.Bold),
		primary: color.New(color.FgRed, color.Bold),
		second:  color.New(color.FgBlue),
		note:    color.New(color.FgCyan),
		fix:     color.New(color.FgGreen),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.path, p.gutter, p.primary, p.second, p.note, p.fix, p.added, p.removed} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики для человека:
// <path>:<line>:<col>: <sev>[<CODE>]: <Message>
// затем строка исходника с подчёркиванием ^~~~ по Span, метки, заметки и исправления.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	pr := &prettyPrinter{w: w, fs: fs, opts: opts, pal: newPalette(opts.Color)}
	items := bag.Items()
	for i := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		pr.diagnostic(&items[i])
	}
	if opts.Summary {
		if len(items) > 0 {
			fmt.Fprintln(w)
		}
		writeSummary(w, bag, pr.pal)
	}
}

// Summary writes the closing "N errors, M warnings" line.
func Summary(w io.Writer, bag *diag.Bag, useColor bool) {
	writeSummary(w, bag, newPalette(useColor))
}

func writeSummary(w io.Writer, bag *diag.Bag, pal palette) {
	errs := bag.Count(diag.SevError)
	warns := bag.Count(diag.SevWarning)
	if errs == 0 && warns == 0 && bag.Dropped() == 0 {
		fmt.Fprintln(w, "no problems found")
		return
	}
	var parts []string
	if errs > 0 {
		parts = append(parts, pal.err.Sprint(plural(errs, "error")))
	}
	if warns > 0 {
		parts = append(parts, pal.warn.Sprint(plural(warns, "warning")))
	}
	line := strings.Join(parts, ", ")
	if n := bag.Dropped(); n > 0 {
		if line != "" {
			line += " "
		}
		line += fmt.Sprintf("(%d more not shown)", n)
	}
	fmt.Fprintln(w, line)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
	pal  palette
}

func (p *prettyPrinter) diagnostic(d *diag.Diagnostic) {
	sev := p.pal.severity(d.Severity)
	fmt.Fprintf(p.w, "%s: %s: %s\n",
		p.pal.path.Sprint(location(p.fs, d.Primary, p.opts.PathMode)),
		sev.Sprintf("%s[%s]", d.Severity.Word(), d.Code.ID()),
		d.Message)

	gutter := p.gutterWidth(d)
	p.snippet(d.Primary, d.Label, '^', p.pal.primary, gutter)
	for _, l := range d.Secondary {
		if l.Span.File != d.Primary.File {
			fmt.Fprintf(p.w, "  %s %s\n", p.pal.second.Sprint("-->"), location(p.fs, l.Span, p.opts.PathMode))
		}
		p.snippet(l.Span, l.Msg, '-', p.pal.second, gutter)
	}

	if p.opts.ShowNotes {
		for _, n := range d.Notes {
			if n.Span.IsZero() {
				fmt.Fprintf(p.w, "  %s %s\n", p.pal.note.Sprint("note:"), n.Msg)
				continue
			}
			fmt.Fprintf(p.w, "  %s %s: %s\n", p.pal.note.Sprint("note:"), location(p.fs, n.Span, p.opts.PathMode), n.Msg)
		}
	}
	if p.opts.ShowFixes {
		for i, fix := range d.Fixes {
			p.fix(i+1, fix)
		}
	}
}

func (p *prettyPrinter) fix(n int, fix diag.Fix) {
	fmt.Fprintf(p.w, "  %s %s\n", p.pal.fix.Sprintf("fix #%d:", n), fix.Title)
	for _, edit := range fix.Edits {
		fmt.Fprintf(p.w, "    edit %s apply=%q\n", location(p.fs, edit.Span, p.opts.PathMode), edit.NewText)
		if !p.opts.ShowPreview {
			continue
		}
		preview, err := buildFixEditPreview(p.fs, edit)
		if err != nil {
			continue
		}
		fmt.Fprintln(p.w, "    preview:")
		for _, line := range preview.before {
			fmt.Fprintf(p.w, "      %s\n", p.pal.removed.Sprint("- "+line))
		}
		for _, line := range preview.after {
			fmt.Fprintf(p.w, "      %s\n", p.pal.added.Sprint("+ "+line))
		}
	}
}

// gutterWidth fits the largest line number any snippet of d prints.
func (p *prettyPrinter) gutterWidth(d *diag.Diagnostic) int {
	widest := uint32(1)
	consider := func(span source.Span) {
		if span.IsZero() {
			return
		}
		start, _ := p.fs.Resolve(span)
		widest = max(widest, start.Line+uint32(max(p.opts.Context, 0))) //nolint:gosec // context is small
	}
	consider(d.Primary)
	for _, l := range d.Secondary {
		consider(l.Span)
	}
	return len(strconv.FormatUint(uint64(widest), 10))
}

// snippet prints the first line of span with an underline and an optional label.
func (p *prettyPrinter) snippet(span source.Span, label string, mark rune, c *color.Color, gutter int) {
	f := p.fs.Get(span.File)
	if !f.HasText() || span.IsZero() {
		if label != "" && mark == '-' {
			fmt.Fprintf(p.w, "  %s %s\n", c.Sprint("-"), label)
		}
		return
	}
	start, end := p.fs.Resolve(span)
	text := f.GetLine(start.Line)
	lastLine := uint32(len(f.LineIdx)) + 1 //nolint:gosec // bounded by content size

	bar := p.pal.gutter.Sprint("|")
	pad := strings.Repeat(" ", gutter)
	fmt.Fprintf(p.w, "%s %s\n", pad, bar)

	ctx := uint32(max(p.opts.Context, 0)) //nolint:gosec // non-negative
	from := uint32(1)
	if start.Line > ctx {
		from = start.Line - ctx
	}
	for line := from; line < start.Line; line++ {
		p.sourceLine(line, f.GetLine(line), gutter)
	}
	p.sourceLine(start.Line, text, gutter)

	col := min(int(start.Col-1), len(text))
	stop := len(text)
	if end.Line == start.Line {
		stop = min(int(end.Col-1), len(text))
	}
	width := max(runewidth.StringWidth(text[col:max(stop, col)]), 1)
	underline := string(mark) + strings.Repeat("~", width-1)
	if mark == '-' {
		underline = strings.Repeat("-", width)
	}
	msg := ""
	if label != "" {
		msg = " " + label
	}
	fmt.Fprintf(p.w, "%s %s %s%s\n", pad, bar, indentFor(text[:col]), c.Sprint(underline+msg))

	for line := start.Line + 1; line <= min(start.Line+ctx, lastLine); line++ {
		p.sourceLine(line, f.GetLine(line), gutter)
	}
}

func (p *prettyPrinter) sourceLine(n uint32, text string, gutter int) {
	if p.opts.Width > 0 {
		text = runewidth.Truncate(text, int(p.opts.Width), "…")
	}
	num := fmt.Sprintf("%*d", gutter, n)
	fmt.Fprintf(p.w, "%s %s %s\n", p.pal.gutter.Sprint(num), p.pal.gutter.Sprint("|"), text)
}

// indentFor keeps tabs and pads every other rune by its display width.
func indentFor(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}
