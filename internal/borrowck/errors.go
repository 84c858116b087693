package borrowck

import (
	"quill/internal/diag"
	"quill/internal/mir"
)

// ErrorTag is the violation class of an ErrorKey.
type ErrorTag uint8

const (
	TagUseOfUninit ErrorTag = iota + 1
	TagImmutableAssignment
	TagBorrowConflict
	TagOutParamUnassigned
	TagNullDeref
	TagInactiveUnionRead
	TagMoveWhileBorrowed
	TagAssignWhileBorrowed
	TagStackEscapeReturn
	TagStackEscapeParam
	TagStackEscapeStatic
	TagDependencyInFlight
)

var tagCodes = map[ErrorTag]diag.Code{
	TagUseOfUninit:         diag.LclUseOfUninit,
	TagImmutableAssignment: diag.LclImmutableAssign,
	TagOutParamUnassigned:  diag.LclOutParamUnassigned,
	TagNullDeref:           diag.LclNullDeref,
	TagInactiveUnionRead:   diag.LclInactiveUnionRead,
	TagBorrowConflict:      diag.BrwConflict,
	TagMoveWhileBorrowed:   diag.BrwMoveWhileBorrowed,
	TagAssignWhileBorrowed: diag.BrwAssignWhileBorrowed,
	TagStackEscapeReturn:   diag.StkEscapeReturn,
	TagStackEscapeParam:    diag.StkEscapeParam,
	TagStackEscapeStatic:   diag.StkEscapeStatic,
	TagDependencyInFlight:  diag.DevDependencyInFlight,
}

// Code returns the diagnostic code reported for the tag.
func (t ErrorTag) Code() diag.Code {
	return tagCodes[t]
}

// ErrorKeyKind is the violation part of an ErrorKey. Borrow is only
// meaningful for TagBorrowConflict.
type ErrorKeyKind struct {
	Tag    ErrorTag
	Local  mir.LocalID
	Borrow mir.BorrowKind
}

func UseOfUninit(local mir.LocalID) ErrorKeyKind {
	return ErrorKeyKind{Tag: TagUseOfUninit, Local: local}
}

func ImmutableAssignment(local mir.LocalID) ErrorKeyKind {
	return ErrorKeyKind{Tag: TagImmutableAssignment, Local: local}
}

func BorrowConflict(local mir.LocalID, kind mir.BorrowKind) ErrorKeyKind {
	return ErrorKeyKind{Tag: TagBorrowConflict, Local: local, Borrow: kind}
}

func keyOf(tag ErrorTag, local mir.LocalID) ErrorKeyKind {
	return ErrorKeyKind{Tag: tag, Local: local}
}

// ErrorKey identifies one logical violation at one site. Stmt is
// mir.TerminatorIndex for terminators.
type ErrorKey struct {
	Block mir.BlockID
	Stmt  int
	Kind  ErrorKeyKind
}

func newErrorKey(loc mir.Location, kind ErrorKeyKind) ErrorKey {
	return ErrorKey{Block: loc.Block, Stmt: loc.Index, Kind: kind}
}

// markReported records key and reports whether it was new.
func (c *Checker) markReported(key ErrorKey) bool {
	if _, seen := c.reported[key]; seen {
		return false
	}
	c.reported[key] = struct{}{}
	return true
}
