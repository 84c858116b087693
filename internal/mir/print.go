package mir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"quill/internal/types"
)

// DumpOptions configures MIR module dumping.
type DumpOptions struct {
	// Spans appends the byte range of every statement.
	Spans bool
}

// DumpModule writes a human-readable representation of a MIR module.
func DumpModule(w io.Writer, m *Module, typesIn *types.Interner, opts DumpOptions) error {
	if w == nil || m == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "module %s funcs=%d\n", m.Name, len(m.Funcs)); err != nil {
		return err
	}
	for _, f := range m.Funcs {
		if err := DumpFunc(w, f, typesIn, opts); err != nil {
			return err
		}
	}
	return nil
}

// DumpFunc writes one function.
func DumpFunc(w io.Writer, f *Func, typesIn *types.Interner, opts DumpOptions) error {
	if w == nil || f == nil {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\nfn %s:\n", f.Name)

	b.WriteString("  locals:\n")
	for i := range f.Locals {
		l := &f.Locals[i]
		fmt.Fprintf(&b, "    _%d: %s%s name=%s\n", i, types.Label(typesIn, l.Type), formatLocalFlags(l), f.DisplayName(LocalID(i))) //nolint:gosec // local count fits LocalID
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		fmt.Fprintf(&b, "  bb%d:\n", bb.ID)
		for j := range bb.Stmts {
			st := &bb.Stmts[j]
			b.WriteString("    ")
			b.WriteString(FormatStmt(f, st))
			if opts.Spans && !st.Span.IsZero() {
				fmt.Fprintf(&b, " @%d..%d", st.Span.Start, st.Span.End)
			}
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "    %s\n", FormatTerm(f, &bb.Term))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func formatLocalFlags(l *Local) string {
	var parts []string
	if l.Mutable {
		parts = append(parts, "mut")
	}
	if l.Nullable {
		parts = append(parts, "nullable")
	}
	if l.RequiresInit {
		parts = append(parts, "requires_init")
	}
	if l.Mode != ParamNone {
		parts = append(parts, "param="+l.Mode.String())
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ",") + "]"
}

// FormatStmt renders a statement on one line.
func FormatStmt(f *Func, st *Statement) string {
	p := func(pl Place) string { return pl.Format(f) }
	op := func(o Operand) string { return FormatOperand(f, &o) }

	switch st.Kind {
	case StmtAssign:
		return p(st.Assign.Dst) + " = " + formatRValue(f, &st.Assign.Src)
	case StmtStorageLive, StmtStorageDead:
		return fmt.Sprintf("%s(%s)", st.Kind, f.DisplayName(st.Local))
	case StmtDeinit, StmtDefaultInit, StmtZeroInit, StmtDrop, StmtRetag, StmtDeferDrop, StmtMarkFallibleHandled:
		return fmt.Sprintf("%s(%s)", st.Kind, p(st.Place))
	case StmtZeroInitRaw:
		return fmt.Sprintf("zero_init_raw(%s, %s)", op(st.ZeroInitRaw.Pointer), op(st.ZeroInitRaw.Length))
	case StmtBorrow:
		return fmt.Sprintf("borrow b%d = &%s %s in r%d", st.Borrow.ID, st.Borrow.Kind, p(st.Borrow.Place), st.Borrow.Region)
	case StmtAssert:
		return fmt.Sprintf("assert(%s == %t)", op(st.Assert.Cond), st.Assert.Expected)
	case StmtEnqueueKernel:
		args := make([]string, len(st.Kernel.Args))
		for i := range st.Kernel.Args {
			args[i] = op(st.Kernel.Args[i])
		}
		return fmt.Sprintf("enqueue_kernel %s on %s (%s) -> %s",
			op(st.Kernel.Kernel), p(st.Kernel.Stream), strings.Join(args, ", "), p(st.Kernel.CompletionPlace()))
	case StmtEnqueueCopy:
		return fmt.Sprintf("enqueue_copy %s <- %s on %s", p(st.Copy.Dst), p(st.Copy.Src), p(st.Copy.Stream))
	case StmtRecordEvent:
		return fmt.Sprintf("record_event %s on %s", p(st.Record.Event), p(st.Record.Stream))
	case StmtWaitEvent:
		return fmt.Sprintf("wait_event %s on %s", p(st.Wait.Event), p(st.Wait.Stream))
	case StmtMmioStore:
		return fmt.Sprintf("mmio_store 0x%x = %s", st.Store.Addr, op(st.Store.Value))
	case StmtStaticStore:
		return fmt.Sprintf("static_store %s = %s", st.Store.Static, op(st.Store.Value))
	case StmtAtomicStore:
		return fmt.Sprintf("atomic_store %s = %s", p(st.Store.Dst), op(st.Store.Value))
	case StmtInlineAsm:
		return fmt.Sprintf("asm %q (%d operands)", st.Asm.Template, len(st.Asm.Operands))
	case StmtEval:
		return "eval " + op(st.Eval)
	default:
		return st.Kind.String()
	}
}

// FormatTerm renders a terminator on one line.
func FormatTerm(f *Func, term *Terminator) string {
	switch term.Kind {
	case TermGoto:
		return fmt.Sprintf("goto bb%d", term.Goto.Target)
	case TermSwitchInt:
		parts := make([]string, 0, len(term.SwitchInt.Cases)+1)
		for _, c := range term.SwitchInt.Cases {
			parts = append(parts, fmt.Sprintf("%d: bb%d", c.Value, c.Target))
		}
		parts = append(parts, fmt.Sprintf("otherwise: bb%d", term.SwitchInt.Otherwise))
		return fmt.Sprintf("switch %s [%s]", FormatOperand(f, &term.SwitchInt.Discr), strings.Join(parts, ", "))
	case TermCall:
		c := &term.Call
		args := make([]string, len(c.Args))
		for i := range c.Args {
			prefix := ""
			if m := c.Args[i].Mode; m == ParamOut || m == ParamRef || m == ParamIn {
				prefix = m.String() + " "
			}
			args[i] = prefix + FormatOperand(f, &c.Args[i].Value)
		}
		s := fmt.Sprintf("call %s(%s)", FormatOperand(f, &c.Callee), strings.Join(args, ", "))
		if c.HasDest {
			s = c.Dest.Format(f) + " = " + s
		}
		if c.Target == NoBlockID {
			return s + " -> !"
		}
		return fmt.Sprintf("%s -> bb%d", s, c.Target)
	case TermReturn:
		if term.Return.HasValue {
			return "return " + FormatOperand(f, &term.Return.Value)
		}
		return "return"
	case TermUnreachable:
		return "unreachable"
	default:
		return "<unterminated>"
	}
}

// FormatOperand renders an operand.
func FormatOperand(f *Func, op *Operand) string {
	switch op.Kind {
	case OperandCopy:
		return "copy " + op.Place.Format(f)
	case OperandMove:
		return "move " + op.Place.Format(f)
	case OperandBorrow:
		return fmt.Sprintf("&%s %s in r%d", op.Borrow, op.Place.Format(f), op.Region)
	case OperandConst:
		return formatConst(&op.Const)
	case OperandMmioRead:
		return fmt.Sprintf("mmio_read<%d>(0x%x)", op.Width, op.Addr)
	case OperandPending:
		return "<pending>"
	default:
		return "?"
	}
}

func formatConst(c *Const) string {
	switch c.Kind {
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ConstBool:
		return strconv.FormatBool(c.Bool)
	case ConstNull:
		return "null"
	case ConstFn:
		return "fn " + c.Name
	default:
		return "()"
	}
}

func formatRValue(f *Func, rv *RValue) string {
	op := func(o Operand) string { return FormatOperand(f, &o) }
	switch rv.Kind {
	case RValueUse:
		return op(rv.Use)
	case RValueUnary:
		return rv.Unary.Op + " " + op(rv.Unary.Operand)
	case RValueBinary:
		return fmt.Sprintf("%s %s %s", op(rv.Binary.Left), rv.Binary.Op, op(rv.Binary.Right))
	case RValueCast:
		return fmt.Sprintf("%s as #%d", op(rv.Cast.Value), rv.Cast.Target)
	case RValueAggregate:
		parts := make([]string, len(rv.Aggregate.Elems))
		for i := range rv.Aggregate.Elems {
			parts[i] = op(rv.Aggregate.Elems[i])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case RValueStackAlloc:
		return fmt.Sprintf("stack_alloc(#%d, %s)", rv.StackAlloc.Elem, op(rv.StackAlloc.Count))
	default:
		return "?"
	}
}
