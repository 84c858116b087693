package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"quill/internal/mir"
	"quill/internal/source"
)

// CheckSpanInvariants runs span sanity checks on a built module:
// 1) every non-zero span points at sf and stays within its content
// 2) local, statement and terminator spans lie inside their function span
// 3) function spans do not overlap each other
//
// Zero spans mean "no location" and are skipped. Bounds are not checked
// against virtual files without content.
func CheckSpanInvariants(m *mir.Module, sf *source.File) error {
	if m == nil || sf == nil {
		return fmt.Errorf("nil module or file")
	}
	if m.File != sf.ID {
		return fmt.Errorf("module file id mismatch: got=%d want=%d", m.File, sf.ID)
	}
	limit, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	c := spanChecker{file: sf.ID, limit: limit, bounded: sf.HasText()}

	var prev *mir.Func
	for _, f := range m.Funcs {
		if f == nil {
			return fmt.Errorf("nil function in module %q", m.Name)
		}
		if err := c.check(f.Span, source.Span{}); err != nil {
			return fmt.Errorf("%s: function span: %w", f.Name, err)
		}
		if !f.Span.IsZero() {
			if prev != nil && f.Span.Start < prev.Span.End && prev.Span.Start < f.Span.End {
				return fmt.Errorf("%s: function span %v overlaps %s %v", f.Name, f.Span, prev.Name, prev.Span)
			}
			prev = f
		}
		if err := c.checkFunc(f); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

type spanChecker struct {
	file    source.FileID
	limit   uint32
	bounded bool
}

func (c spanChecker) checkFunc(f *mir.Func) error {
	for i := range f.Locals {
		l := &f.Locals[i]
		if err := c.check(l.Span, f.Span); err != nil {
			return fmt.Errorf("local %s: %w", l.Name, err)
		}
	}
	for bi := range f.Blocks {
		b := &f.Blocks[bi]
		for si := range b.Stmts {
			if err := c.check(b.Stmts[si].Span, f.Span); err != nil {
				return fmt.Errorf("bb%d[%d]: %w", bi, si, err)
			}
		}
		if err := c.check(b.Term.Span, f.Span); err != nil {
			return fmt.Errorf("bb%d terminator: %w", bi, err)
		}
	}
	return nil
}

// check validates sp against the file and, when outer is set, its container.
func (c spanChecker) check(sp, outer source.Span) error {
	if sp.IsZero() {
		return nil
	}
	if sp.File != c.file {
		return fmt.Errorf("span file mismatch: got=%d want=%d", sp.File, c.file)
	}
	if sp.End < sp.Start {
		return fmt.Errorf("span %v ends before it starts", sp)
	}
	if c.bounded && sp.End > c.limit {
		return fmt.Errorf("span end beyond content: %d > %d", sp.End, c.limit)
	}
	if !outer.IsZero() && (sp.Start < outer.Start || sp.End > outer.End) {
		return fmt.Errorf("span %v is outside %v", sp, outer)
	}
	return nil
}
