package mirio

import (
	"fmt"

	"quill/internal/mir"
	"quill/internal/source"
	"quill/internal/types"
)

var paramModes = map[string]mir.ParamMode{
	"":      mir.ParamNone,
	"value": mir.ParamValue,
	"in":    mir.ParamIn,
	"out":   mir.ParamOut,
	"ref":   mir.ParamRef,
}

var borrowKinds = map[string]mir.BorrowKind{
	"shared": mir.BorrowShared,
	"unique": mir.BorrowUnique,
	"raw":    mir.BorrowRaw,
}

var asmKinds = map[string]mir.AsmOperandKind{
	"in":    mir.AsmIn,
	"out":   mir.AsmOut,
	"inout": mir.AsmInOut,
	"const": mir.AsmConst,
	"sym":   mir.AsmSym,
}

func lookupKind[K comparable, V any](table map[K]V, key K, what string) (V, error) {
	v, ok := table[key]
	if !ok {
		return v, fmt.Errorf("%w: %s %v", ErrUnknownKind, what, key)
	}
	return v, nil
}

// Build turns a decoded document into a MIR module. Spans are attached to
// file, which should hold the document's source text.
func Build(doc *Document, in *types.Interner, file source.FileID) (*mir.Module, error) {
	if err := CheckFormat(doc.Format); err != nil {
		return nil, err
	}
	if err := registerRecords(doc.Records, in); err != nil {
		return nil, err
	}
	m := &mir.Module{Name: doc.Module, File: file}
	seen := make(map[string]bool, len(doc.Funcs))
	for i := range doc.Funcs {
		fd := &doc.Funcs[i]
		if seen[fd.Name] {
			return nil, fmt.Errorf("%w: function %q defined twice", ErrMalformed, fd.Name)
		}
		seen[fd.Name] = true
		f, err := buildFunc(fd, in, file)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", fd.Name, err)
		}
		m.Funcs = append(m.Funcs, f)
	}
	return m, nil
}

func registerRecords(records []RecordDoc, in *types.Interner) error {
	for _, rd := range records {
		if _, exists := in.Named(rd.Name); exists {
			return fmt.Errorf("%w: record %q declared twice", ErrMalformed, rd.Name)
		}
		fields := make([]types.Field, 0, len(rd.Fields))
		for _, fd := range rd.Fields {
			ty, err := in.Parse(fd.Type)
			if err != nil {
				return fmt.Errorf("%w: record %s field %s: %w", ErrMalformed, rd.Name, fd.Name, err)
			}
			fields = append(fields, types.Field{Name: fd.Name, Type: ty})
		}
		switch rd.Kind {
		case "", "struct":
			in.RegisterStruct(rd.Name, fields)
		case "union":
			in.RegisterUnion(rd.Name, fields)
		default:
			return fmt.Errorf("%w: record kind %q", ErrUnknownKind, rd.Kind)
		}
	}
	return nil
}

func buildFunc(fd *FuncDoc, in *types.Interner, file source.FileID) (*mir.Func, error) {
	f := &mir.Func{Name: fd.Name, Entry: mir.BlockID(fd.Entry)} //nolint:gosec // checked by mir.ValidateFunc
	s := &scope{fn: f, names: make(map[string]mir.LocalID, len(fd.Locals)), types: in, file: file}

	var err error
	if f.Span, err = s.span(fd.Span); err != nil {
		return nil, err
	}
	for i, ld := range fd.Locals {
		l, err := s.buildLocal(&ld)
		if err != nil {
			return nil, fmt.Errorf("local %d (%s): %w", i, ld.Name, err)
		}
		if ld.Name != "" {
			if _, dup := s.names[ld.Name]; dup {
				return nil, fmt.Errorf("%w: local %q declared twice", ErrMalformed, ld.Name)
			}
			s.names[ld.Name] = mir.LocalID(i) //nolint:gosec // local count fits LocalID
		}
		f.Locals = append(f.Locals, l)
	}
	for i := range fd.Blocks {
		bd := &fd.Blocks[i]
		bb := mir.Block{ID: mir.BlockID(i)} //nolint:gosec // block count fits BlockID
		for j := range bd.Stmts {
			st, err := s.buildStmt(&bd.Stmts[j])
			if err != nil {
				return nil, fmt.Errorf("bb%d[%d] %s: %w", i, j, bd.Stmts[j].Op, err)
			}
			bb.Stmts = append(bb.Stmts, st)
		}
		if bb.Term, err = s.buildTerm(&bd.Term); err != nil {
			return nil, fmt.Errorf("bb%d[term] %s: %w", i, bd.Term.Op, err)
		}
		f.Blocks = append(f.Blocks, bb)
	}
	return f, nil
}

func (s *scope) buildLocal(ld *LocalDoc) (mir.Local, error) {
	ty, err := s.types.Parse(ld.Type)
	if err != nil {
		return mir.Local{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	mode, err := lookupKind(paramModes, ld.Param, "param mode")
	if err != nil {
		return mir.Local{}, err
	}
	sp, err := s.span(ld.Span)
	if err != nil {
		return mir.Local{}, err
	}
	requiresInit := true
	if ld.RequiresInit != nil {
		requiresInit = *ld.RequiresInit
	}
	return mir.Local{
		Name:         ld.Name,
		Type:         ty,
		Span:         sp,
		RequiresInit: requiresInit,
		Mutable:      ld.Mut,
		Nullable:     ld.Nullable,
		Mode:         mode,
	}, nil
}

// firstErr keeps the first error of a sequence of parses.
type firstErr struct{ err error }

func (e *firstErr) place(s *scope, text string) mir.Place {
	if e.err != nil {
		return mir.Place{}
	}
	p, err := s.place(text)
	e.err = err
	return p
}

func (e *firstErr) operand(s *scope, text string) mir.Operand {
	if e.err != nil {
		return mir.Operand{}
	}
	op, err := s.operand(text)
	e.err = err
	return op
}

func (s *scope) buildStmt(sd *StmtDoc) (mir.Statement, error) {
	kind, ok := mir.ParseStmtKind(sd.Op)
	if !ok {
		return mir.Statement{}, fmt.Errorf("%w: statement %q", ErrUnknownKind, sd.Op)
	}
	st := mir.Statement{Kind: kind}
	var err error
	if st.Span, err = s.span(sd.Span); err != nil {
		return st, err
	}
	var e firstErr
	switch kind {
	case mir.StmtAssign:
		st.Assign.Dst = e.place(s, sd.Dst)
		if e.err == nil {
			st.Assign.Src, e.err = s.rvalue(sd.Value)
		}
	case mir.StmtStorageLive, mir.StmtStorageDead:
		st.Local, e.err = s.local(sd.Local)
	case mir.StmtDeinit, mir.StmtDefaultInit, mir.StmtZeroInit, mir.StmtDrop,
		mir.StmtRetag, mir.StmtDeferDrop, mir.StmtMarkFallibleHandled:
		st.Place = e.place(s, sd.Place)
	case mir.StmtZeroInitRaw:
		st.ZeroInitRaw.Pointer = e.operand(s, sd.Pointer)
		st.ZeroInitRaw.Length = e.operand(s, sd.Length)
	case mir.StmtBorrow:
		st.Borrow.ID = mir.BorrowID(sd.ID)
		st.Borrow.Region = mir.RegionID(sd.Region)
		st.Borrow.Place = e.place(s, sd.Place)
		if e.err == nil {
			st.Borrow.Kind, e.err = lookupKind(borrowKinds, sd.Kind, "borrow kind")
		}
	case mir.StmtAssert:
		st.Assert.Cond = e.operand(s, sd.Cond)
		st.Assert.Expected = sd.Expected
	case mir.StmtEnqueueKernel:
		k := &st.Kernel
		k.Stream = e.place(s, sd.Stream)
		k.Kernel = e.operand(s, sd.Kernel)
		for _, a := range sd.Args {
			k.Args = append(k.Args, e.operand(s, a))
		}
		if sd.Completion != "" {
			k.HasCompletion = true
			k.Completion = e.place(s, sd.Completion)
		}
	case mir.StmtEnqueueCopy:
		st.Copy.Stream = e.place(s, sd.Stream)
		st.Copy.Dst = e.place(s, sd.Dst)
		st.Copy.Src = e.place(s, sd.Src)
	case mir.StmtRecordEvent:
		st.Record.Stream = e.place(s, sd.Stream)
		st.Record.Event = e.place(s, sd.Event)
	case mir.StmtWaitEvent:
		st.Wait.Event = e.place(s, sd.Event)
		st.Wait.Stream = e.place(s, sd.Stream)
	case mir.StmtMmioStore:
		st.Store.Addr = sd.Addr
		st.Store.Value = e.operand(s, sd.Value)
	case mir.StmtStaticStore:
		if sd.Static == "" {
			return st, fmt.Errorf("%w: static_store needs `static`", ErrMalformed)
		}
		st.Store.Static = sd.Static
		st.Store.Value = e.operand(s, sd.Value)
	case mir.StmtAtomicStore:
		st.Store.Dst = e.place(s, sd.Place)
		st.Store.Value = e.operand(s, sd.Value)
	case mir.StmtInlineAsm:
		st.Asm.Template = sd.Template
		for _, ad := range sd.Asm {
			op, err := s.buildAsm(&ad)
			if err != nil {
				return st, err
			}
			st.Asm.Operands = append(st.Asm.Operands, op)
		}
	case mir.StmtEval:
		st.Eval = e.operand(s, sd.Value)
	}
	return st, e.err
}

func (s *scope) buildAsm(ad *AsmDoc) (mir.AsmOperand, error) {
	kind, err := lookupKind(asmKinds, ad.Kind, "asm operand")
	if err != nil {
		return mir.AsmOperand{}, err
	}
	op := mir.AsmOperand{Kind: kind, Sym: ad.Sym}
	var e firstErr
	if kind == mir.AsmIn || kind == mir.AsmInOut || kind == mir.AsmConst {
		op.Input = e.operand(s, ad.Value)
	}
	if kind == mir.AsmOut || kind == mir.AsmInOut {
		op.Output = e.place(s, ad.Place)
	}
	return op, e.err
}

func (s *scope) buildTerm(td *TermDoc) (mir.Terminator, error) {
	term := mir.Terminator{}
	var err error
	if term.Span, err = s.span(td.Span); err != nil {
		return term, err
	}
	var e firstErr
	switch td.Op {
	case "goto":
		term.Kind = mir.TermGoto
		term.Goto.Target = mir.BlockID(td.Target) //nolint:gosec // checked by mir.ValidateFunc
	case "switch_int":
		term.Kind = mir.TermSwitchInt
		sw := &term.SwitchInt
		sw.Discr = e.operand(s, td.Discr)
		for _, c := range td.Cases {
			sw.Cases = append(sw.Cases, mir.SwitchCase{Value: c.Value, Target: mir.BlockID(c.Target)}) //nolint:gosec // checked by mir.ValidateFunc
		}
		sw.Otherwise = mir.BlockID(td.Otherwise) //nolint:gosec // checked by mir.ValidateFunc
	case "call":
		term.Kind = mir.TermCall
		c := &term.Call
		c.Callee = e.operand(s, td.Callee)
		for _, a := range td.Args {
			mode, err := lookupKind(paramModes, a.Mode, "argument mode")
			if err != nil {
				return term, err
			}
			if mode == mir.ParamNone {
				mode = mir.ParamValue
			}
			c.Args = append(c.Args, mir.CallArg{Mode: mode, Value: e.operand(s, a.Value)})
		}
		if td.Dest != "" {
			c.HasDest = true
			c.Dest = e.place(s, td.Dest)
		}
		c.Target = mir.BlockID(td.Target) //nolint:gosec // checked by mir.ValidateFunc
		if td.Diverges {
			c.Target = mir.NoBlockID
		}
	case "return":
		term.Kind = mir.TermReturn
		if td.Value != "" {
			term.Return.HasValue = true
			term.Return.Value = e.operand(s, td.Value)
		}
	case "unreachable":
		term.Kind = mir.TermUnreachable
	default:
		return term, fmt.Errorf("%w: terminator %q", ErrUnknownKind, td.Op)
	}
	return term, e.err
}
