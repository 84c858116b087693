package trace

import "time"

// Kind is the shape of an event.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event; smaller values are coarser.
type Scope uint8

const (
	// ScopeRun covers one CLI invocation.
	ScopeRun Scope = iota + 1
	// ScopeModule covers loading and checking one MIR module.
	ScopeModule
	// ScopeFunc covers one function check.
	ScopeFunc
	// ScopeLoan is the loan and region bookkeeping inside a check.
	ScopeLoan
)

func (s Scope) String() string {
	switch s {
	case ScopeRun:
		return "run"
	case ScopeModule:
		return "module"
	case ScopeFunc:
		return "func"
	case ScopeLoan:
		return "loan"
	default:
		return "unknown"
	}
}

// Event is one trace record. Tracers may keep the pointer only for the
// duration of Emit.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	Name     string // "check", "module:pipeline", "borrowck:loan_start"
	Detail   string
	Extra    map[string]string
}
