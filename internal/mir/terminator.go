package mir

import "quill/internal/source"

type TermKind uint8

const (
	TermNone TermKind = iota
	TermGoto
	TermSwitchInt
	TermCall
	TermReturn
	TermUnreachable
)

func (k TermKind) String() string {
	switch k {
	case TermGoto:
		return "goto"
	case TermSwitchInt:
		return "switch_int"
	case TermCall:
		return "call"
	case TermReturn:
		return "return"
	case TermUnreachable:
		return "unreachable"
	default:
		return "none"
	}
}

type Terminator struct {
	Kind TermKind
	Span source.Span

	Goto      GotoTerm
	SwitchInt SwitchIntTerm
	Call      CallTerm
	Return    ReturnTerm
}

type GotoTerm struct {
	Target BlockID
}

type SwitchCase struct {
	Value  int64
	Target BlockID
}

type SwitchIntTerm struct {
	Discr     Operand
	Cases     []SwitchCase
	Otherwise BlockID
}

// CallArg is an argument together with the callee's parameter mode.
type CallArg struct {
	Mode  ParamMode
	Value Operand
}

// CallTerm calls Callee and continues at Target; NoBlockID means the call
// never returns.
type CallTerm struct {
	Callee  Operand
	Args    []CallArg
	HasDest bool
	Dest    Place
	Target  BlockID
}

type ReturnTerm struct {
	HasValue bool
	Value    Operand
}
