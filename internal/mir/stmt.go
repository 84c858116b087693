package mir

import (
	"fmt"

	"quill/internal/source"
)

// StmtKind enumerates statement kinds in MIR.
type StmtKind uint8

const (
	StmtNop StmtKind = iota
	StmtAssign
	StmtStorageLive
	StmtStorageDead
	StmtDeinit
	StmtDefaultInit
	StmtZeroInit
	StmtZeroInitRaw
	StmtDrop
	StmtEnterUnsafe
	StmtExitUnsafe
	StmtBorrow
	StmtAssert
	StmtEnqueueKernel
	StmtEnqueueCopy
	StmtRecordEvent
	StmtWaitEvent
	StmtMmioStore
	StmtStaticStore
	StmtAtomicStore
	StmtAtomicFence
	StmtInlineAsm
	StmtRetag
	StmtDeferDrop
	StmtEval
	StmtMarkFallibleHandled
	StmtPending

	stmtKindCount
)

var stmtKindNames = [stmtKindCount]string{
	StmtNop:                 "nop",
	StmtAssign:              "assign",
	StmtStorageLive:         "storage_live",
	StmtStorageDead:         "storage_dead",
	StmtDeinit:              "deinit",
	StmtDefaultInit:         "default_init",
	StmtZeroInit:            "zero_init",
	StmtZeroInitRaw:         "zero_init_raw",
	StmtDrop:                "drop",
	StmtEnterUnsafe:         "enter_unsafe",
	StmtExitUnsafe:          "exit_unsafe",
	StmtBorrow:              "borrow",
	StmtAssert:              "assert",
	StmtEnqueueKernel:       "enqueue_kernel",
	StmtEnqueueCopy:         "enqueue_copy",
	StmtRecordEvent:         "record_event",
	StmtWaitEvent:           "wait_event",
	StmtMmioStore:           "mmio_store",
	StmtStaticStore:         "static_store",
	StmtAtomicStore:         "atomic_store",
	StmtAtomicFence:         "atomic_fence",
	StmtInlineAsm:           "inline_asm",
	StmtRetag:               "retag",
	StmtDeferDrop:           "defer_drop",
	StmtEval:                "eval",
	StmtMarkFallibleHandled: "mark_fallible_handled",
	StmtPending:             "pending",
}

func (k StmtKind) String() string {
	if k < stmtKindCount {
		return stmtKindNames[k]
	}
	return fmt.Sprintf("StmtKind(%d)", k)
}

// ParseStmtKind maps the textual name back to a kind.
func ParseStmtKind(name string) (StmtKind, bool) {
	for k, n := range stmtKindNames {
		if n == name {
			return StmtKind(k), true //nolint:gosec // bounded by stmtKindCount
		}
	}
	return 0, false
}

// Statement represents a MIR statement. Only the payload matching Kind is set.
type Statement struct {
	Kind StmtKind
	Span source.Span

	Assign AssignStmt
	// Local is used by StorageLive and StorageDead.
	Local LocalID
	// Place is used by Deinit, DefaultInit, ZeroInit, Drop, Retag,
	// DeferDrop and MarkFallibleHandled.
	Place       Place
	ZeroInitRaw ZeroInitRawStmt
	Borrow      BorrowStmt
	Assert      AssertStmt
	Kernel      EnqueueKernelStmt
	Copy        EnqueueCopyStmt
	Record      RecordEventStmt
	Wait        WaitEventStmt
	// Store is used by MmioStore, StaticStore and AtomicStore.
	Store StoreStmt
	Asm   InlineAsmStmt
	Eval  Operand
}

type AssignStmt struct {
	Dst Place
	Src RValue
}

type ZeroInitRawStmt struct {
	Pointer Operand
	Length  Operand
}

type BorrowStmt struct {
	ID     BorrowID
	Kind   BorrowKind
	Place  Place
	Region RegionID
}

type AssertStmt struct {
	Cond     Operand
	Expected bool
}

// EnqueueKernelStmt launches a kernel on a stream. Completion defaults to
// the stream when HasCompletion is false.
type EnqueueKernelStmt struct {
	Stream        Place
	Kernel        Operand
	Args          []Operand
	HasCompletion bool
	Completion    Place
}

// CompletionPlace returns the place that tracks when the launch finishes.
func (k *EnqueueKernelStmt) CompletionPlace() Place {
	if k.HasCompletion {
		return k.Completion
	}
	return k.Stream
}

type EnqueueCopyStmt struct {
	Stream Place
	Dst    Place
	Src    Place
}

type RecordEventStmt struct {
	Stream Place
	Event  Place
}

type WaitEventStmt struct {
	Event  Place
	Stream Place
}

// StoreStmt writes Value to an MMIO address, a static, or atomically to Dst.
type StoreStmt struct {
	Addr   uint64 // MmioStore
	Static string // StaticStore
	Dst    Place  // AtomicStore
	Value  Operand
}

type AsmOperandKind uint8

const (
	AsmIn AsmOperandKind = iota
	AsmOut
	AsmInOut
	AsmConst
	AsmSym
)

type AsmOperand struct {
	Kind   AsmOperandKind
	Input  Operand // In, InOut, Const
	Output Place   // Out, InOut
	Sym    string  // Sym
}

type InlineAsmStmt struct {
	Template string
	Operands []AsmOperand
}
