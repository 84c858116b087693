package borrowck

import (
	"fmt"

	"quill/internal/mir"
)

// checkReturnEscape reports returning a value that points into the frame.
func (c *Checker) checkReturnEscape(op *mir.Operand) {
	if c.state.inUnsafe() || c.provenance(op) == StackNone {
		return
	}
	name := c.localName(op.Place.Local)
	c.reportError(keyOf(TagStackEscapeReturn, op.Place.Local), c.spanOr(op.Span),
		fmt.Sprintf("returning `%s`, which points into this function's stack frame", name)).
		WithPrimaryLabel("stack memory escapes here").
		WithNote(c.state.fact(op.Place.Local).LastAssignment, "stack allocation assigned here").
		Emit()
}

// checkParamEscape reports storing frame memory into an `out` or `ref`
// parameter.
func (c *Checker) checkParamEscape(dst mir.Place, class StackAlloc) {
	if class == StackNone || c.state.inUnsafe() {
		return
	}
	l := c.local(dst.Local)
	if l == nil || (l.Mode != mir.ParamOut && l.Mode != mir.ParamRef) {
		return
	}
	name := c.localName(dst.Local)
	b := c.reportError(keyOf(TagStackEscapeParam, dst.Local), c.span,
		fmt.Sprintf("stack memory escapes through %s parameter `%s`", l.Mode, name)).
		WithPrimaryLabel("stored here")
	if !l.Span.IsZero() {
		b = b.WithLabel(l.Span, "parameter declared here")
	}
	b.Emit()
}

// checkStaticEscape reports storing frame memory into a static.
func (c *Checker) checkStaticEscape(static string, op *mir.Operand) {
	if c.state.inUnsafe() || c.provenance(op) == StackNone {
		return
	}
	name := c.localName(op.Place.Local)
	c.reportError(keyOf(TagStackEscapeStatic, op.Place.Local), c.spanOr(op.Span),
		fmt.Sprintf("`%s` points into the stack frame and is stored into static `%s`", name, static)).
		WithPrimaryLabel("stored here").
		Emit()
}
