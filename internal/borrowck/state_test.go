package borrowck

import (
	"testing"

	"quill/internal/mir"
	"quill/internal/source"
	"quill/internal/types"
)

func TestStorageLiveResetsLocalFacts(t *testing.T) {
	b := newFn("f")
	x := b.mut("x", b.in.Intern(types.MakeRawPointer(b.intTy())))
	b.block(ret())
	c := NewChecker(b.f, Options{Types: b.in})
	c.state = newBorrowState(b.f)
	c.span = b.span()

	c.recordAssignment(mir.LocalPlace(x), NullNotNull, StackOrigin, c.span)
	c.addLoan(LoanInfo{ID: 1, Kind: mir.BorrowShared, Place: mir.LocalPlace(x), Region: 1,
		Owner: LoanOwner{Kind: OwnerPlace, Local: x}})
	c.state.Unions[x] = 0
	lf := c.state.fact(x)
	lf.LastMove = b.span()
	if lf.Init != Init || lf.StackAlloc != StackOrigin || lf.AssignmentCount != 1 {
		t.Fatalf("facts after assignment = %+v", lf)
	}

	c.storageLive(x)
	if lf.Init != Uninit || lf.Null != NullUnknown {
		t.Errorf("init = %v, null = %v", lf.Init, lf.Null)
	}
	if !lf.RequiresInit {
		t.Errorf("RequiresInit cleared")
	}
	if lf.AssignmentCount != 0 || lf.LastAssignment != (source.Span{}) || lf.LastMove != (source.Span{}) {
		t.Errorf("assignment history kept: %+v", lf)
	}
	if lf.StackAlloc != StackNone {
		t.Errorf("StackAlloc = %v", lf.StackAlloc)
	}
	if _, ok := c.state.Loans.Get(1); ok {
		t.Errorf("loan b1 survived storage_live")
	}
	if _, ok := c.state.Unions[x]; ok {
		t.Errorf("union variant survived storage_live")
	}
}

func TestJoinKeepsDeniedRegions(t *testing.T) {
	b := newFn("f")
	b.let("x", b.intTy())
	b.block(ret())
	a := newBorrowState(b.f)
	o := newBorrowState(b.f)
	o.Denied[3] = true
	if a.sameLattice(o) {
		t.Fatalf("states with different denied regions compare equal")
	}
	a.join(o)
	if !a.Denied[3] {
		t.Errorf("join dropped denied region")
	}
	if !a.sameLattice(o) {
		t.Errorf("joined state differs from %+v", o.Denied)
	}
}
