package borrowck

import (
	"fmt"

	"quill/internal/mir"
	"quill/internal/source"
)

// visitOperand runs the use, move and borrow checks of a read.
func (c *Checker) visitOperand(op *mir.Operand) {
	span := c.spanOr(op.Span)
	switch op.Kind {
	case mir.OperandCopy:
		c.readPlace(op.Place, span, "use")
	case mir.OperandMove:
		if c.readPlace(op.Place, span, "move") {
			c.movePlace(op.Place, span)
		}
	case mir.OperandBorrow:
		c.borrowOperand(op, span, false)
	case mir.OperandConst, mir.OperandMmioRead, mir.OperandPending:
	}
}

// visitOutOperand handles an argument passed in `out` mode: the callee
// writes it, so it is not required to be initialized.
func (c *Checker) visitOutOperand(op *mir.Operand) {
	if !op.HasPlace() {
		c.visitOperand(op)
		return
	}
	span := c.spanOr(op.Span)
	c.readIndexLocals(op.Place, span)
	if op.Kind == mir.OperandBorrow {
		c.borrowOperand(op, span, true)
	}
}

// readPlace checks that place can be read and reports whether it was
// initialized.
func (c *Checker) readPlace(place mir.Place, span source.Span, what string) bool {
	lf := c.state.fact(place.Local)
	if lf == nil {
		return false
	}
	c.readIndexLocals(place, span)
	if lf.RequiresInit && lf.Init != Init {
		c.reportUseOfUninit(place.Local, span, what)
		return false
	}
	c.checkUnionRead(place, span)
	c.checkNullDeref(place, span)
	return true
}

func (c *Checker) readIndexLocals(place mir.Place, span source.Span) {
	for _, e := range place.Proj {
		if e.Kind == mir.ProjIndex {
			c.readPlace(mir.LocalPlace(e.IndexLocal), span, "use")
		}
	}
}

// movePlace applies a move after the read checks passed.
func (c *Checker) movePlace(place mir.Place, span source.Span) {
	if existing := c.state.Loans.firstBlocking(place); existing != nil {
		c.reportBlocked(TagMoveWhileBorrowed, place, existing, span, "move out of")
		return
	}
	if !place.IsWhole() {
		return
	}
	lf := c.state.fact(place.Local)
	lf.Init = Uninit
	lf.LastMove = span
}

// borrowOperand handles Borrow(place, kind, region) inside an rvalue or a
// call argument. When the region already owns a loan this is only a use of
// that loan.
func (c *Checker) borrowOperand(op *mir.Operand, span source.Span, out bool) {
	if c.regionHasLoan(op.Region) || c.state.Denied[op.Region] {
		return
	}
	lf := c.state.fact(op.Place.Local)
	if lf == nil {
		return
	}
	if !out {
		c.readIndexLocals(op.Place, span)
	}
	if out || c.outRegions[op.Region] || op.Borrow == mir.BorrowRaw || lf.Mode == mir.ParamOut {
		return
	}
	if lf.Init != Init {
		c.reportUseOfUninit(op.Place.Local, span, "borrow")
	}
}

func (c *Checker) checkUnionRead(place mir.Place, span source.Span) {
	if c.state.inUnsafe() {
		return
	}
	variant, ok := place.UnionField()
	if !ok {
		return
	}
	active, ok := c.state.Unions[place.Local]
	if !ok || active == variant {
		return
	}
	name := c.localName(place.Local)
	c.reportWarning(keyOf(TagInactiveUnionRead, place.Local), span,
		fmt.Sprintf("read of union field `%s` of `%s` while `%s` is the active field",
			c.fieldName(place.Local, variant), name, c.fieldName(place.Local, active))).
		WithPrimaryLabel("inactive field read here").
		WithNote(c.state.fact(place.Local).LastAssignment, "active field last written here").
		Emit()
}

func (c *Checker) checkNullDeref(place mir.Place, span source.Span) {
	if c.state.inUnsafe() || !place.HasDeref() {
		return
	}
	lf := c.state.fact(place.Local)
	if lf.Null != NullNull {
		return
	}
	name := c.localName(place.Local)
	b := c.reportWarning(keyOf(TagNullDeref, place.Local), span,
		fmt.Sprintf("dereference of `%s`, which is null here", name)).
		WithPrimaryLabel("null pointer dereferenced here")
	if !lf.LastAssignment.IsZero() {
		b = b.WithNote(lf.LastAssignment, fmt.Sprintf("`%s` set to null here", name))
	}
	b.Emit()
}

// fieldName resolves a field index of the local's record type.
func (c *Checker) fieldName(local mir.LocalID, idx int) string {
	if l := c.local(local); l != nil {
		if info, ok := c.types.Record(l.Type); ok && idx >= 0 && idx < len(info.Fields) && info.Fields[idx].Name != "" {
			return info.Fields[idx].Name
		}
	}
	return fmt.Sprintf("#%d", idx)
}
