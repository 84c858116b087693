package borrowck

import (
	"fmt"

	"quill/internal/mir"
	"quill/internal/source"
)

// assignStatement checks `dst = src` and applies its effects.
func (c *Checker) assignStatement(a *mir.AssignStmt) {
	dst := a.Dst
	c.enterUnionVariant(dst)
	ops := a.Src.Operands()
	for i := range ops {
		c.visitOperand(&ops[i])
	}
	null := c.nullStateOf(&a.Src)
	class := c.classify(&a.Src)
	c.checkParamEscape(dst, class)
	c.bindView(dst, ops)
	c.recordAssignment(dst, null, class, c.span)
}

// recordAssignment applies a write of a value with the given null state and
// stack provenance to dst. Immutable re-assignment and writes to borrowed
// places are reported; the assignment itself is still recorded.
func (c *Checker) recordAssignment(dst mir.Place, null NullState, class StackAlloc, span source.Span) {
	lf := c.state.fact(dst.Local)
	if lf == nil {
		return
	}
	if dst.HasDeref() {
		// запись через указатель: сам указатель только читается
		if c.readPlace(dst, span, "write through") {
			c.checkWrite(dst, span)
		}
		return
	}
	c.readIndexLocals(dst, span)

	if lf.AssignmentCount > 0 && !c.mayMutate(lf, dst) {
		name := c.localName(dst.Local)
		c.emitImmutableBindingError(dst.Local, span,
			fmt.Sprintf("cannot assign twice to immutable variable `%s`", name),
			"cannot assign twice to immutable variable")
	}
	c.checkWrite(dst, span)

	lf.Init = Init
	if dst.IsWhole() {
		lf.Null = null
		lf.StackAlloc = class
		delete(c.state.Unions, dst.Local)
	} else {
		lf.StackAlloc = max(lf.StackAlloc, class)
	}
	lf.AssignmentCount++
	lf.LastAssignment = span
}

// checkWrite reports a write to a place some live loan still reads.
func (c *Checker) checkWrite(dst mir.Place, span source.Span) {
	if existing := c.state.Loans.firstBlocking(dst); existing != nil {
		c.reportBlocked(TagAssignWhileBorrowed, dst, existing, span, "assign to")
	}
}

// nullStateOf computes the null state of an assigned value.
func (c *Checker) nullStateOf(rv *mir.RValue) NullState {
	switch rv.Kind {
	case mir.RValueStackAlloc, mir.RValueAggregate:
		return NullNotNull
	case mir.RValueUse:
	default:
		return NullUnknown
	}
	op := &rv.Use
	switch op.Kind {
	case mir.OperandConst:
		if op.Const.Kind == mir.ConstNull {
			return NullNull
		}
		return NullNotNull
	case mir.OperandBorrow:
		return NullNotNull
	case mir.OperandCopy, mir.OperandMove:
		if op.Place.IsWhole() {
			if lf := c.state.fact(op.Place.Local); lf != nil {
				return lf.Null
			}
		}
	}
	return NullUnknown
}

// classify determines the stack provenance of an assigned value. Reading
// any place rooted at a stack-derived local propagates it.
func (c *Checker) classify(rv *mir.RValue) StackAlloc {
	if rv.Kind == mir.RValueStackAlloc {
		return StackOrigin
	}
	for _, op := range rv.Operands() {
		if c.provenance(&op) != StackNone {
			return StackPropagated
		}
	}
	return StackNone
}

// provenance of a single operand.
func (c *Checker) provenance(op *mir.Operand) StackAlloc {
	if !op.HasPlace() {
		return StackNone
	}
	if lf := c.state.fact(op.Place.Local); lf != nil {
		return lf.StackAlloc
	}
	return StackNone
}

// enterUnionVariant switches the active variant of a union local when dst
// writes one of its fields. Loans into the previous variant end because
// their storage is overwritten.
func (c *Checker) enterUnionVariant(dst mir.Place) {
	variant, ok := dst.UnionField()
	if !ok {
		return
	}
	prev, had := c.state.Unions[dst.Local]
	if had && prev != variant {
		local := dst.Local
		c.release(func(li *LoanInfo) bool {
			v, ok := li.Place.UnionField()
			return ok && li.Place.Local == local && v == prev
		}, "union variant overwritten")
	}
	c.state.Unions[dst.Local] = variant
}

// bindView hands region loans to a span-typed destination so they live as
// long as the view does. Moving one view into another moves its loans.
func (c *Checker) bindView(dst mir.Place, ops []mir.Operand) {
	if !dst.IsWhole() || !c.isView(dst.Local) {
		return
	}
	owner := LoanOwner{Kind: OwnerView, Local: dst.Local}
	c.release(heldByView(dst.Local), "view reassigned")
	for i := range ops {
		op := &ops[i]
		var match func(*LoanInfo) bool
		switch {
		case op.Kind == mir.OperandBorrow:
			region := op.Region
			match = func(li *LoanInfo) bool { return li.Region == region }
		case op.Kind == mir.OperandMove && op.Place.IsWhole() && c.isView(op.Place.Local):
			match = heldByView(op.Place.Local)
		default:
			continue
		}
		for _, li := range c.state.Loans.transfer(match, owner) {
			c.recordLoan(EvLoanTransfer, &li, "held by "+c.localName(dst.Local))
		}
	}
}
