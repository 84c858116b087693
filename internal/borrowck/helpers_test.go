package borrowck

import (
	"strings"
	"testing"

	"quill/internal/diag"
	"quill/internal/mir"
	"quill/internal/source"
	"quill/internal/types"
)

// fnBuilder assembles small MIR functions for tests.
type fnBuilder struct {
	in  *types.Interner
	f   *mir.Func
	pos uint32
}

func newFn(name string) *fnBuilder {
	return &fnBuilder{in: types.NewInterner(), f: &mir.Func{Name: name}}
}

func (b *fnBuilder) span() source.Span {
	b.pos += 10
	return source.Span{File: 1, Start: b.pos, End: b.pos + 5}
}

func (b *fnBuilder) addLocal(l mir.Local) mir.LocalID {
	l.RequiresInit = true
	if l.Span.IsZero() {
		l.Span = b.span()
	}
	b.f.Locals = append(b.f.Locals, l)
	return mir.LocalID(len(b.f.Locals) - 1) //nolint:gosec // test sizes
}

func (b *fnBuilder) let(name string, ty types.TypeID) mir.LocalID {
	return b.addLocal(mir.Local{Name: name, Type: ty})
}

func (b *fnBuilder) mut(name string, ty types.TypeID) mir.LocalID {
	return b.addLocal(mir.Local{Name: name, Type: ty, Mutable: true})
}

func (b *fnBuilder) param(name string, ty types.TypeID, mode mir.ParamMode) mir.LocalID {
	return b.addLocal(mir.Local{Name: name, Type: ty, Mode: mode})
}

func (b *fnBuilder) intTy() types.TypeID { return b.in.Builtins().Int }

// block appends a block ending in term.
func (b *fnBuilder) block(term mir.Terminator, stmts ...mir.Statement) mir.BlockID {
	id := mir.BlockID(len(b.f.Blocks)) //nolint:gosec // test sizes
	for i := range stmts {
		if stmts[i].Span.IsZero() {
			stmts[i].Span = b.span()
		}
	}
	if term.Span.IsZero() {
		term.Span = b.span()
	}
	b.f.Blocks = append(b.f.Blocks, mir.Block{ID: id, Stmts: stmts, Term: term})
	return id
}

func (b *fnBuilder) check(t *testing.T) Result {
	t.Helper()
	if err := mir.ValidateFunc(b.f, b.in); err != nil {
		t.Fatalf("invalid test MIR: %v", err)
	}
	return Check(b.f, Options{Types: b.in})
}

func live(l mir.LocalID) mir.Statement {
	return mir.Statement{Kind: mir.StmtStorageLive, Local: l}
}

func dead(l mir.LocalID) mir.Statement {
	return mir.Statement{Kind: mir.StmtStorageDead, Local: l}
}

func assign(dst mir.Place, rv mir.RValue) mir.Statement {
	return mir.Statement{Kind: mir.StmtAssign, Assign: mir.AssignStmt{Dst: dst, Src: rv}}
}

func set(l mir.LocalID, v int64) mir.Statement {
	return assign(mir.LocalPlace(l), mir.Use(mir.IntConst(v)))
}

func borrow(id mir.BorrowID, kind mir.BorrowKind, p mir.Place, region mir.RegionID) mir.Statement {
	return mir.Statement{Kind: mir.StmtBorrow, Borrow: mir.BorrowStmt{ID: id, Kind: kind, Place: p, Region: region}}
}

func onPlace(kind mir.StmtKind, p mir.Place) mir.Statement {
	return mir.Statement{Kind: kind, Place: p}
}

func ret() mir.Terminator { return mir.Terminator{Kind: mir.TermReturn} }

func retValue(op mir.Operand) mir.Terminator {
	return mir.Terminator{Kind: mir.TermReturn, Return: mir.ReturnTerm{HasValue: true, Value: op}}
}

func jump(target mir.BlockID) mir.Terminator {
	return mir.Terminator{Kind: mir.TermGoto, Goto: mir.GotoTerm{Target: target}}
}

func branch(discr mir.Operand, then, otherwise mir.BlockID) mir.Terminator {
	return mir.Terminator{Kind: mir.TermSwitchInt, SwitchInt: mir.SwitchIntTerm{
		Discr:     discr,
		Cases:     []mir.SwitchCase{{Value: 1, Target: then}},
		Otherwise: otherwise,
	}}
}

func call(target mir.BlockID, args ...mir.CallArg) mir.Terminator {
	return mir.Terminator{Kind: mir.TermCall, Call: mir.CallTerm{
		Callee: mir.Operand{Kind: mir.OperandConst, Const: mir.Const{Kind: mir.ConstFn, Name: "callee"}},
		Args:   args,
		Target: target,
	}}
}

func field(l mir.LocalID, idx int, union bool) mir.Place {
	return mir.Place{Local: l, Proj: []mir.PlaceElem{{Kind: mir.ProjField, Field: idx, Union: union}}}
}

func deref(l mir.LocalID) mir.Place {
	return mir.Place{Local: l, Proj: []mir.PlaceElem{{Kind: mir.ProjDeref}}}
}

// codes lists the diagnostic codes of r in report order.
func codes(r Result) []string {
	out := make([]string, 0, len(r.Diagnostics))
	for i := range r.Diagnostics {
		out = append(out, r.Diagnostics[i].Code.ID())
	}
	return out
}

func wantCodes(t *testing.T, r Result, want ...string) {
	t.Helper()
	got := codes(r)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		for i := range r.Diagnostics {
			t.Logf("  %s %s", r.Diagnostics[i].Code.ID(), r.Diagnostics[i].Message)
		}
		t.Fatalf("codes = %v, want %v", got, want)
	}
}

func findDiag(t *testing.T, r Result, code diag.Code) diag.Diagnostic {
	t.Helper()
	for i := range r.Diagnostics {
		if r.Diagnostics[i].Code == code {
			return r.Diagnostics[i]
		}
	}
	t.Fatalf("no %s diagnostic in %v", code.ID(), codes(r))
	return diag.Diagnostic{}
}

func hasEvent(r Result, kind EventKind, borrow mir.BorrowID) bool {
	for _, ev := range r.Events {
		if ev.Kind == kind && ev.Borrow == borrow {
			return true
		}
	}
	return false
}
