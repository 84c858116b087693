package borrowck

import (
	"quill/internal/mir"
)

// visitStatement dispatches one statement. Every kind is listed so a new
// kind fails review here rather than being skipped silently.
func (c *Checker) visitStatement(st *mir.Statement) {
	switch st.Kind {
	case mir.StmtAssign:
		c.assignStatement(&st.Assign)
	case mir.StmtStorageLive:
		c.storageLive(st.Local)
	case mir.StmtStorageDead:
		c.storageDead(st.Local)
	case mir.StmtDeinit:
		c.deinit(st.Place)
	case mir.StmtDefaultInit, mir.StmtZeroInit:
		c.defaultInit(st.Place)
	case mir.StmtZeroInitRaw:
		c.visitOperand(&st.ZeroInitRaw.Pointer)
		c.visitOperand(&st.ZeroInitRaw.Length)
	case mir.StmtDrop:
		c.drop(st.Place)
	case mir.StmtEnterUnsafe:
		c.state.enterUnsafe()
	case mir.StmtExitUnsafe:
		c.state.exitUnsafe()
	case mir.StmtBorrow:
		c.borrowStatement(&st.Borrow)
	case mir.StmtAssert:
		c.visitOperand(&st.Assert.Cond)
	case mir.StmtEnqueueKernel:
		c.enqueueKernel(&st.Kernel)
	case mir.StmtEnqueueCopy:
		c.enqueueCopy(&st.Copy)
	case mir.StmtRecordEvent:
		c.recordEvent(&st.Record)
	case mir.StmtWaitEvent:
		c.waitEvent(&st.Wait)
	case mir.StmtMmioStore, mir.StmtAtomicStore:
		c.visitOperand(&st.Store.Value)
	case mir.StmtStaticStore:
		c.visitOperand(&st.Store.Value)
		c.checkStaticEscape(st.Store.Static, &st.Store.Value)
	case mir.StmtInlineAsm:
		c.inlineAsm(&st.Asm)
	case mir.StmtNop, mir.StmtAtomicFence, mir.StmtRetag, mir.StmtDeferDrop,
		mir.StmtEval, mir.StmtMarkFallibleHandled, mir.StmtPending:
		// no effect on init or loans
	}
}

// storageLive starts a fresh lifetime for local.
func (c *Checker) storageLive(local mir.LocalID) {
	lf := c.state.fact(local)
	if lf == nil {
		return
	}
	c.releasePlace(mir.LocalPlace(local), "storage live")
	delete(c.state.Unions, local)
	lf.reset()
}

// storageDead ends the local. Loans on it, loans it holds as a view and
// device work completing on it all end here.
func (c *Checker) storageDead(local mir.LocalID) {
	lf := c.state.fact(local)
	if lf == nil {
		return
	}
	place := mir.LocalPlace(local)
	c.checkInFlight(place, "storage of")
	c.releasePlace(place, "storage dead")
	c.release(heldByEvent(local), "completion handle dead")
	delete(c.state.Unions, local)
	lf.reset()
}

// deinit leaves the place logically initialized but without an owned value.
func (c *Checker) deinit(place mir.Place) {
	lf := c.state.fact(place.Local)
	if lf == nil {
		return
	}
	c.releasePlace(place, "deinit")
	lf.Init = Init
	lf.RequiresInit = false
	lf.LastMove = c.span
	if lf.Nullable {
		lf.Null = NullNull
	} else {
		lf.Null = NullUnknown
	}
	lf.StackAlloc = StackNone
	delete(c.state.Unions, place.Local)
}

// defaultInit handles DefaultInit and ZeroInit: an assignment of the zero
// value.
func (c *Checker) defaultInit(place mir.Place) {
	lf := c.state.fact(place.Local)
	if lf == nil {
		return
	}
	null := NullUnknown
	if lf.Nullable {
		null = NullNull
	}
	c.enterUnionVariant(place)
	c.recordAssignment(place, null, StackNone, c.span)
}

func (c *Checker) drop(place mir.Place) {
	lf := c.state.fact(place.Local)
	if lf == nil {
		return
	}
	if lf.Init != Init {
		c.reportUseOfUninit(place.Local, c.span, "drop")
	}
	c.checkInFlight(place, "drop of")
	c.releasePlace(place, "drop")
	if place.IsWhole() {
		c.release(heldByEvent(place.Local), "completion handle dropped")
		delete(c.state.Unions, place.Local)
	} else if variant, ok := place.UnionField(); ok && c.state.Unions[place.Local] == variant {
		// dropped variant leaves no active field
		delete(c.state.Unions, place.Local)
	}
	lf.StackAlloc = StackNone
}

func (c *Checker) inlineAsm(asm *mir.InlineAsmStmt) {
	for i := range asm.Operands {
		op := &asm.Operands[i]
		switch op.Kind {
		case mir.AsmIn, mir.AsmConst:
			c.visitOperand(&op.Input)
		case mir.AsmInOut:
			c.visitOperand(&op.Input)
			c.recordAssignment(op.Output, NullUnknown, StackNone, c.span)
		case mir.AsmOut:
			c.recordAssignment(op.Output, NullUnknown, StackNone, c.span)
		case mir.AsmSym:
		}
	}
}
