package borrowck

import (
	"fmt"

	"quill/internal/mir"
)

// registerDependency records that work completing on completion reads or
// writes dep. The loan is Shared, is never conflict-checked when created,
// and ends when the completion handle is waited on or dies.
func (c *Checker) registerDependency(dep mir.Place, completion mir.LocalID) {
	key := depKey{loc: c.loc, place: dep.Key(), completion: completion}
	ids, ok := c.depCache[key]
	if !ok {
		ids = c.freshIDs()
		c.depCache[key] = ids
	}
	c.record(EvDeviceDep, ids.borrow, ids.region, &dep, "completes on "+c.localName(completion))
	c.addLoan(LoanInfo{
		ID:     ids.borrow,
		Kind:   mir.BorrowShared,
		Place:  dep,
		Region: ids.region,
		Origin: c.span,
		Owner:  LoanOwner{Kind: OwnerEvent, Local: completion},
	})
}

func (c *Checker) enqueueKernel(k *mir.EnqueueKernelStmt) {
	c.readPlace(k.Stream, c.span, "use")
	c.visitOperand(&k.Kernel)
	for i := range k.Args {
		c.visitOperand(&k.Args[i])
	}
	completion := k.CompletionPlace()
	if k.HasCompletion {
		c.recordAssignment(completion, NullUnknown, StackNone, c.span)
	}
	for i := range k.Args {
		if arg := &k.Args[i]; arg.HasPlace() {
			c.registerDependency(arg.Place, completion.Local)
		}
	}
}

// enqueueCopy writes dst on the device; the local itself is not reassigned.
func (c *Checker) enqueueCopy(cp *mir.EnqueueCopyStmt) {
	c.readPlace(cp.Stream, c.span, "use")
	c.readPlace(cp.Src, c.span, "copy")
	c.readIndexLocals(cp.Dst, c.span)
	c.checkWrite(cp.Dst, c.span)
	if lf := c.state.fact(cp.Dst.Local); lf != nil && !cp.Dst.HasDeref() {
		lf.Init = Init
	}
	c.registerDependency(cp.Dst, cp.Stream.Local)
	c.registerDependency(cp.Src, cp.Stream.Local)
}

// recordEvent makes ev complete everything queued on the stream so far.
func (c *Checker) recordEvent(r *mir.RecordEventStmt) {
	c.readPlace(r.Stream, c.span, "use")
	c.registerDependency(r.Stream, r.Event.Local)
	for _, id := range c.state.Loans.cover(r.Stream.Local, r.Event.Local) {
		li, _ := c.state.Loans.Get(id)
		c.recordLoan(EvLoanTransfer, li, "covered by "+c.localName(r.Event.Local))
	}
	c.recordAssignment(r.Event, NullUnknown, StackNone, c.span)
}

func (c *Checker) waitEvent(w *mir.WaitEventStmt) {
	c.readPlace(w.Event, c.span, "wait on")
	c.readPlace(w.Stream, c.span, "use")
	c.release(heldByEvent(w.Event.Local), "wait_event")
}

// checkInFlight reports releasing a place that queued device work still
// uses.
func (c *Checker) checkInFlight(place mir.Place, action string) {
	existing := c.state.Loans.firstDevice(place)
	if existing == nil {
		return
	}
	name := place.Format(c.fn)
	ev := c.localName(existing.Owner.Local)
	c.reportError(keyOf(TagDependencyInFlight, place.Local), c.span,
		fmt.Sprintf("%s `%s` ends while device work completing on `%s` still uses it", action, name, ev)).
		WithPrimaryLabel(fmt.Sprintf("`%s` released here", name)).
		WithLabel(existing.Origin, "device work enqueued here").
		WithFix(fmt.Sprintf("wait on `%s` before releasing `%s`", ev, name)).
		Emit()
}
