package mir_test

import (
	"strings"
	"testing"

	"quill/internal/mir"
	"quill/internal/types"
)

func TestDumpFunc(t *testing.T) {
	in := types.NewInterner()
	f := &mir.Func{
		Name: "f",
		Locals: []mir.Local{
			{Name: "a", Type: in.Builtins().Int, Mutable: true},
			{Name: "r", Type: in.Intern(types.MakeSpan(in.Builtins().Int, false))},
		},
		Blocks: []mir.Block{{
			Stmts: []mir.Statement{
				{Kind: mir.StmtStorageLive, Local: 0},
				{Kind: mir.StmtAssign, Assign: mir.AssignStmt{Dst: mir.LocalPlace(0), Src: mir.Use(mir.IntConst(3))}},
				{Kind: mir.StmtBorrow, Borrow: mir.BorrowStmt{ID: 1, Kind: mir.BorrowShared, Place: mir.LocalPlace(0), Region: 2}},
			},
			Term: mir.Terminator{Kind: mir.TermReturn},
		}},
	}
	var sb strings.Builder
	if err := mir.DumpFunc(&sb, f, in, mir.DumpOptions{}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	want := `
fn f:
  locals:
    _0: int [mut] name=a
    _1: span<int> name=r
  bb0:
    storage_live(a)
    a = 3
    borrow b1 = &shared a in r2
    return
`
	if got := sb.String(); got != want {
		t.Fatalf("dump mismatch:\nwant:%s\ngot:%s", want, got)
	}
}
