package mir

import (
	"quill/internal/source"
	"quill/internal/types"
)

// BorrowKind classifies a loan.
type BorrowKind uint8

const (
	BorrowShared BorrowKind = iota
	BorrowUnique
	// BorrowRaw skips initialization and conflict checks.
	BorrowRaw
)

func (k BorrowKind) String() string {
	switch k {
	case BorrowShared:
		return "shared"
	case BorrowUnique:
		return "unique"
	case BorrowRaw:
		return "raw"
	default:
		return "?"
	}
}

// OperandKind distinguishes operand types.
type OperandKind uint8

const (
	OperandConst OperandKind = iota
	OperandCopy
	OperandMove
	OperandBorrow
	OperandMmioRead
	// OperandPending is a placeholder left by an unfinished lowering.
	OperandPending
)

// Operand represents a MIR operand.
type Operand struct {
	Kind OperandKind
	Span source.Span

	Place  Place      // Copy, Move, Borrow
	Borrow BorrowKind // Borrow
	Region RegionID   // Borrow
	Const  Const      // Const
	Addr   uint64     // MmioRead
	Width  uint8      // MmioRead, in bits
}

// HasPlace reports whether the operand reads a place.
func (op *Operand) HasPlace() bool {
	switch op.Kind {
	case OperandCopy, OperandMove, OperandBorrow:
		return true
	default:
		return false
	}
}

func Copy(p Place) Operand { return Operand{Kind: OperandCopy, Place: p} }
func Move(p Place) Operand { return Operand{Kind: OperandMove, Place: p} }

func BorrowOf(p Place, kind BorrowKind, region RegionID) Operand {
	return Operand{Kind: OperandBorrow, Place: p, Borrow: kind, Region: region}
}

func IntConst(v int64) Operand {
	return Operand{Kind: OperandConst, Const: Const{Kind: ConstInt, Int: v}}
}

func NullConst() Operand {
	return Operand{Kind: OperandConst, Const: Const{Kind: ConstNull}}
}

// ConstKind distinguishes constant kinds.
type ConstKind uint8

const (
	ConstUnit ConstKind = iota
	ConstInt
	ConstFloat
	ConstBool
	ConstNull
	ConstFn
)

// Const represents a MIR constant.
type Const struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Bool  bool
	Name  string // ConstFn
}

// RValueKind distinguishes right-hand value kinds.
type RValueKind uint8

const (
	RValueUse RValueKind = iota
	RValueUnary
	RValueBinary
	RValueCast
	RValueAggregate
	// RValueStackAlloc allocates Count elements in the current frame.
	RValueStackAlloc
)

// RValue represents a right-hand value in MIR.
type RValue struct {
	Kind RValueKind

	Use        Operand
	Unary      UnaryOp
	Binary     BinaryOp
	Cast       CastOp
	Aggregate  Aggregate
	StackAlloc StackAlloc
}

type UnaryOp struct {
	Op      string
	Operand Operand
}

type BinaryOp struct {
	Op    string
	Left  Operand
	Right Operand
}

type CastOp struct {
	Value  Operand
	Target types.TypeID
}

type Aggregate struct {
	Type  types.TypeID
	Elems []Operand
}

type StackAlloc struct {
	Elem  types.TypeID
	Count Operand
}

func Use(op Operand) RValue { return RValue{Kind: RValueUse, Use: op} }

// Operands returns the operands read by the rvalue, in evaluation order.
func (rv *RValue) Operands() []Operand {
	switch rv.Kind {
	case RValueUse:
		return []Operand{rv.Use}
	case RValueUnary:
		return []Operand{rv.Unary.Operand}
	case RValueBinary:
		return []Operand{rv.Binary.Left, rv.Binary.Right}
	case RValueCast:
		return []Operand{rv.Cast.Value}
	case RValueAggregate:
		return rv.Aggregate.Elems
	case RValueStackAlloc:
		return []Operand{rv.StackAlloc.Count}
	default:
		return nil
	}
}
