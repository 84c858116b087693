package mir

import (
	"errors"
	"fmt"

	"quill/internal/types"
)

// Validate checks MIR module invariants.
// Returns error if any invariant is violated.
func Validate(m *Module, typesIn *types.Interner) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		if err := ValidateFunc(f, typesIn); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateFunc checks a single function.
func ValidateFunc(f *Func, typesIn *types.Interner) error {
	if f == nil {
		return nil
	}
	var errs []error

	if f.Entry < 0 || int(f.Entry) >= len(f.Blocks) {
		errs = append(errs, fmt.Errorf("entry block bb%d does not exist", f.Entry))
	}
	for i := range f.Blocks {
		if f.Blocks[i].ID != BlockID(i) { //nolint:gosec // block count fits BlockID
			errs = append(errs, fmt.Errorf("block at index %d has id bb%d", i, f.Blocks[i].ID))
		}
	}
	if err := validateBlocksTerminated(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateBlockTargets(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateLocalIDs(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateTypes(f, typesIn); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// validateBlocksTerminated checks that every block ends with a terminator.
func validateBlocksTerminated(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		if !f.Blocks[i].Terminated() {
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", i))
		}
	}
	return errors.Join(errs...)
}

// validateBlockTargets checks that all block target IDs exist.
func validateBlockTargets(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		for _, succ := range f.Blocks[i].Successors() {
			if succ < 0 || int(succ) >= len(f.Blocks) {
				errs = append(errs, fmt.Errorf("bb%d: %s target bb%d does not exist", i, f.Blocks[i].Term.Kind, succ))
			}
		}
	}
	return errors.Join(errs...)
}

// validateLocalIDs checks that all LocalID references are valid.
func validateLocalIDs(f *Func) error {
	var errs []error

	localExists := func(id LocalID) bool {
		return id >= 0 && int(id) < len(f.Locals)
	}
	checkPlace := func(p Place, context string) {
		if !localExists(p.Local) {
			errs = append(errs, fmt.Errorf("%s: local _%d does not exist", context, p.Local))
		}
		for _, proj := range p.Proj {
			if proj.Kind == ProjIndex && !localExists(proj.IndexLocal) {
				errs = append(errs, fmt.Errorf("%s: index local _%d does not exist", context, proj.IndexLocal))
			}
		}
	}
	checkOperand := func(op Operand, context string) {
		if op.HasPlace() {
			checkPlace(op.Place, context)
		}
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		for j := range bb.Stmts {
			st := &bb.Stmts[j]
			ctx := fmt.Sprintf("bb%d[%d] %s", i, j, st.Kind)
			for _, p := range StmtPlaces(st) {
				checkPlace(p, ctx)
			}
			for _, op := range StmtOperands(st) {
				checkOperand(op, ctx)
			}
			if (st.Kind == StmtStorageLive || st.Kind == StmtStorageDead) && !localExists(st.Local) {
				errs = append(errs, fmt.Errorf("%s: local _%d does not exist", ctx, st.Local))
			}
		}
		ctx := fmt.Sprintf("bb%d[term] %s", i, bb.Term.Kind)
		switch bb.Term.Kind {
		case TermSwitchInt:
			checkOperand(bb.Term.SwitchInt.Discr, ctx)
		case TermCall:
			checkOperand(bb.Term.Call.Callee, ctx)
			for _, a := range bb.Term.Call.Args {
				checkOperand(a.Value, ctx)
			}
			if bb.Term.Call.HasDest {
				checkPlace(bb.Term.Call.Dest, ctx)
			}
		case TermReturn:
			if bb.Term.Return.HasValue {
				checkOperand(bb.Term.Return.Value, ctx)
			}
		}
	}
	return errors.Join(errs...)
}

func validateTypes(f *Func, typesIn *types.Interner) error {
	if typesIn == nil {
		return nil
	}
	var errs []error
	for i, l := range f.Locals {
		if _, ok := typesIn.Lookup(l.Type); !ok {
			errs = append(errs, fmt.Errorf("local _%d (%s): unknown type #%d", i, l.Name, l.Type))
		}
	}
	return errors.Join(errs...)
}

// StmtPlaces returns the places a statement names directly (not through
// operands).
func StmtPlaces(st *Statement) []Place {
	switch st.Kind {
	case StmtAssign:
		return []Place{st.Assign.Dst}
	case StmtDeinit, StmtDefaultInit, StmtZeroInit, StmtDrop, StmtRetag, StmtDeferDrop, StmtMarkFallibleHandled:
		return []Place{st.Place}
	case StmtBorrow:
		return []Place{st.Borrow.Place}
	case StmtEnqueueKernel:
		if st.Kernel.HasCompletion {
			return []Place{st.Kernel.Stream, st.Kernel.Completion}
		}
		return []Place{st.Kernel.Stream}
	case StmtEnqueueCopy:
		return []Place{st.Copy.Stream, st.Copy.Dst, st.Copy.Src}
	case StmtRecordEvent:
		return []Place{st.Record.Stream, st.Record.Event}
	case StmtWaitEvent:
		return []Place{st.Wait.Event, st.Wait.Stream}
	case StmtAtomicStore:
		return []Place{st.Store.Dst}
	case StmtInlineAsm:
		var out []Place
		for _, op := range st.Asm.Operands {
			if op.Kind == AsmOut || op.Kind == AsmInOut {
				out = append(out, op.Output)
			}
		}
		return out
	default:
		return nil
	}
}

// StmtOperands returns the operands a statement reads.
func StmtOperands(st *Statement) []Operand {
	switch st.Kind {
	case StmtAssign:
		return st.Assign.Src.Operands()
	case StmtZeroInitRaw:
		return []Operand{st.ZeroInitRaw.Pointer, st.ZeroInitRaw.Length}
	case StmtAssert:
		return []Operand{st.Assert.Cond}
	case StmtEnqueueKernel:
		return append([]Operand{st.Kernel.Kernel}, st.Kernel.Args...)
	case StmtMmioStore, StmtStaticStore, StmtAtomicStore:
		return []Operand{st.Store.Value}
	case StmtEval:
		return []Operand{st.Eval}
	case StmtInlineAsm:
		var out []Operand
		for _, op := range st.Asm.Operands {
			if op.Kind == AsmIn || op.Kind == AsmInOut || op.Kind == AsmConst {
				out = append(out, op.Input)
			}
		}
		return out
	default:
		return nil
	}
}
