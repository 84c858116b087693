package borrowck

import (
	"quill/internal/mir"
	"quill/internal/source"
)

type InitState uint8

const (
	Uninit InitState = iota
	Init
)

func (s InitState) String() string {
	if s == Init {
		return "init"
	}
	return "uninit"
}

type NullState uint8

const (
	NullUnknown NullState = iota
	NullNull
	NullNotNull
)

func (s NullState) String() string {
	switch s {
	case NullNull:
		return "null"
	case NullNotNull:
		return "not-null"
	default:
		return "unknown"
	}
}

// StackAlloc tracks whether a value points into the current frame.
type StackAlloc uint8

const (
	StackNone StackAlloc = iota
	// StackOrigin values come straight from a stack allocation.
	StackOrigin
	// StackPropagated values were computed from a StackOrigin value.
	StackPropagated
)

func (s StackAlloc) String() string {
	switch s {
	case StackOrigin:
		return "origin"
	case StackPropagated:
		return "propagated"
	default:
		return "none"
	}
}

// LocalFacts is the per-local dataflow state.
type LocalFacts struct {
	Init         InitState
	RequiresInit bool // sticky across resets
	Mutable      bool
	Nullable     bool
	Null         NullState
	StackAlloc   StackAlloc

	AssignmentCount int
	LastAssignment  source.Span
	LastMove        source.Span

	Mode mir.ParamMode
}

// entryFacts builds the state of a local when the function starts.
// Parameters other than `out` arrive initialized.
func entryFacts(l *mir.Local) LocalFacts {
	lf := LocalFacts{
		RequiresInit: l.RequiresInit,
		Mutable:      l.Mutable,
		Nullable:     l.Nullable,
		Mode:         l.Mode,
	}
	switch l.Mode {
	case mir.ParamValue, mir.ParamIn, mir.ParamRef:
		lf.Init = Init
		lf.AssignmentCount = 1
		lf.LastAssignment = l.Span
	case mir.ParamOut:
		lf.Init = Uninit
	default:
		lf.reset()
	}
	return lf
}

// reset restores the StorageLive state. Loans and union state of the local
// must be released by the caller first.
func (lf *LocalFacts) reset() {
	if lf.Nullable {
		lf.Init, lf.Null = Init, NullNull
	} else {
		lf.Init, lf.Null = Uninit, NullUnknown
	}
	lf.StackAlloc = StackNone
	lf.AssignmentCount = 0
	lf.LastAssignment = source.Span{}
	lf.LastMove = source.Span{}
}

// sameLattice compares the facts that drive the fixed point.
func (lf *LocalFacts) sameLattice(o *LocalFacts) bool {
	return lf.Init == o.Init &&
		lf.Null == o.Null &&
		lf.StackAlloc == o.StackAlloc &&
		lf.RequiresInit == o.RequiresInit &&
		(lf.AssignmentCount > 0) == (o.AssignmentCount > 0)
}

// joinFacts merges the facts of two incoming edges.
func joinFacts(a, b LocalFacts) LocalFacts {
	out := a
	if a.Init != Init || b.Init != Init {
		out.Init = Uninit
	}
	if a.Null != b.Null {
		out.Null = NullUnknown
	}
	out.StackAlloc = max(a.StackAlloc, b.StackAlloc)
	out.RequiresInit = a.RequiresInit || b.RequiresInit
	out.AssignmentCount = max(a.AssignmentCount, b.AssignmentCount)
	if out.LastAssignment.IsZero() {
		out.LastAssignment = b.LastAssignment
	}
	if out.LastMove.IsZero() {
		out.LastMove = b.LastMove
	}
	return out
}
