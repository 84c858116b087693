package mir

import (
	"fmt"

	"quill/internal/source"
	"quill/internal/types"
)

type BlockID int32
type LocalID int32

// BorrowID and RegionID are opaque ids assigned by MIR construction.
// The checker allocates further ids above the highest one it sees.
type BorrowID uint32
type RegionID uint32

const (
	NoBlockID BlockID = -1
	NoLocalID LocalID = -1
)

// ParamMode describes how a parameter local is passed.
type ParamMode uint8

const (
	ParamNone ParamMode = iota // not a parameter
	ParamValue
	ParamIn
	ParamOut
	ParamRef
)

func (m ParamMode) String() string {
	switch m {
	case ParamNone:
		return "none"
	case ParamValue:
		return "value"
	case ParamIn:
		return "in"
	case ParamOut:
		return "out"
	case ParamRef:
		return "ref"
	default:
		return fmt.Sprintf("ParamMode(%d)", m)
	}
}

type Local struct {
	Name string
	Type types.TypeID
	// Span points at the declaration; zero when the local is synthetic.
	Span source.Span

	RequiresInit bool
	Mutable      bool
	Nullable     bool
	Mode         ParamMode
}

// DisplayName returns the source name or a synthetic _N name.
func (f *Func) DisplayName(id LocalID) string {
	if f == nil || id < 0 || int(id) >= len(f.Locals) {
		return fmt.Sprintf("_%d", id)
	}
	if name := f.Locals[id].Name; name != "" {
		return name
	}
	return fmt.Sprintf("_%d", id)
}

// TerminatorIndex is the Location.Index of a block's terminator.
const TerminatorIndex = -1

// Location identifies a statement or the terminator of a block.
type Location struct {
	Block BlockID
	Index int
}

func StmtLoc(b BlockID, idx int) Location { return Location{Block: b, Index: idx} }
func TermLoc(b BlockID) Location          { return Location{Block: b, Index: TerminatorIndex} }

func (l Location) IsTerminator() bool { return l.Index == TerminatorIndex }

func (l Location) String() string {
	if l.IsTerminator() {
		return fmt.Sprintf("bb%d[term]", l.Block)
	}
	return fmt.Sprintf("bb%d[%d]", l.Block, l.Index)
}
