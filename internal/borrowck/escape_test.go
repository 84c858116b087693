package borrowck

import (
	"testing"

	"quill/internal/mir"
	"quill/internal/types"
)

func stackAlloc(elem types.TypeID, n int64) mir.RValue {
	return mir.RValue{Kind: mir.RValueStackAlloc, StackAlloc: mir.StackAlloc{Elem: elem, Count: mir.IntConst(n)}}
}

func TestClassifyStackProvenance(t *testing.T) {
	b := newFn("f")
	p := b.let("p", b.in.Intern(types.MakeRawPointer(b.intTy())))
	q := b.let("q", b.in.Intern(types.MakeRawPointer(b.intTy())))
	b.block(ret())
	c := NewChecker(b.f, Options{Types: b.in})
	c.state = newBorrowState(b.f)

	alloc := stackAlloc(b.intTy(), 4)
	if got := c.classify(&alloc); got != StackOrigin {
		t.Errorf("stack_alloc = %v", got)
	}
	use := mir.Use(mir.Copy(mir.LocalPlace(p)))
	if got := c.classify(&use); got != StackNone {
		t.Errorf("copy of plain local = %v", got)
	}
	c.state.fact(p).StackAlloc = StackOrigin
	if got := c.classify(&use); got != StackPropagated {
		t.Errorf("copy of stack local = %v", got)
	}
	sum := mir.RValue{Kind: mir.RValueBinary, Binary: mir.BinaryOp{Op: "+", Left: mir.IntConst(1), Right: mir.Copy(mir.LocalPlace(p))}}
	if got := c.classify(&sum); got != StackPropagated {
		t.Errorf("arithmetic on stack local = %v", got)
	}
	other := mir.Use(mir.Copy(mir.LocalPlace(q)))
	if got := c.classify(&other); got != StackNone {
		t.Errorf("unrelated local = %v", got)
	}
}

func TestStackEscapeThroughReturn(t *testing.T) {
	b := newFn("f")
	ptr := b.in.Intern(types.MakeRawPointer(b.intTy()))
	p := b.let("p", ptr)
	q := b.let("q", ptr)
	b.block(retValue(mir.Copy(mir.LocalPlace(q))),
		live(p), live(q),
		assign(mir.LocalPlace(p), stackAlloc(b.intTy(), 4)),
		assign(mir.LocalPlace(q), mir.Use(mir.Copy(mir.LocalPlace(p)))),
	)
	wantCodes(t, b.check(t), "STK0001")

	// whole reassignment with a regular value clears provenance
	b.f.Blocks[0].Stmts = append(b.f.Blocks[0].Stmts, assign(mir.LocalPlace(q), mir.Use(mir.NullConst())))
	b.f.Locals[q].Mutable = true
	wantCodes(t, b.check(t))
}

func TestStackEscapeSuppressedInUnsafe(t *testing.T) {
	b := newFn("f")
	p := b.let("p", b.in.Intern(types.MakeRawPointer(b.intTy())))
	b.block(retValue(mir.Copy(mir.LocalPlace(p))),
		mir.Statement{Kind: mir.StmtEnterUnsafe},
		live(p),
		assign(mir.LocalPlace(p), stackAlloc(b.intTy(), 1)),
	)
	wantCodes(t, b.check(t))
}

func TestStackEscapeThroughParamAndStatic(t *testing.T) {
	b := newFn("f")
	ptr := b.in.Intern(types.MakeRawPointer(b.intTy()))
	o := b.param("o", ptr, mir.ParamOut)
	p := b.let("p", ptr)
	b.block(ret(),
		live(p),
		assign(mir.LocalPlace(p), stackAlloc(b.intTy(), 2)),
		assign(mir.LocalPlace(o), mir.Use(mir.Copy(mir.LocalPlace(p)))),
		mir.Statement{Kind: mir.StmtStaticStore, Store: mir.StoreStmt{Static: "CACHE", Value: mir.Copy(mir.LocalPlace(p))}},
	)
	wantCodes(t, b.check(t), "STK0002", "STK0003")
}
