package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindInt
	KindUint
	KindFloat
	// KindPointer is a checked pointer; Nullable pointers start out null.
	KindPointer
	// KindRawPointer is only dereferenced inside unsafe blocks.
	KindRawPointer
	// KindSpan is a view over storage owned by someone else.
	KindSpan
	KindStruct
	KindUnion
	// KindStream is a device work queue.
	KindStream
	// KindEvent is a device completion marker recorded on a stream.
	KindEvent
	KindKernel
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindPointer:
		return "pointer"
	case KindRawPointer:
		return "raw pointer"
	case KindSpan:
		return "span"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindStream:
		return "stream"
	case KindEvent:
		return "event"
	case KindKernel:
		return "kernel"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers/floats.
type Width uint8

const (
	WidthAny Width = 0
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
)

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID
	Width   Width  // for numeric primitives
	Mutable bool   // for spans and pointers
	Payload uint32 // record slot for structs and unions
}

// MakeInt describes a signed integer of the given width (WidthAny for "int").
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakePointer describes *T.
func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}

// MakeRawPointer describes a raw pointer.
func MakeRawPointer(elem TypeID) Type {
	return Type{Kind: KindRawPointer, Elem: elem}
}

// MakeSpan describes span<T> or span<mut T>.
func MakeSpan(elem TypeID, mutable bool) Type {
	return Type{Kind: KindSpan, Elem: elem, Mutable: mutable}
}
