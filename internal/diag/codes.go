package diag

import (
	"fmt"
	"strings"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Локальные факты: инициализация, мутабельность, null
	LclInfo               Code = 1000
	LclUseOfUninit        Code = 1001
	LclImmutableAssign    Code = 1002
	LclOutParamUnassigned Code = 1003
	LclNullDeref          Code = 1004
	LclInactiveUnionRead  Code = 1005

	// Займы
	BrwInfo                Code = 2000
	BrwConflict            Code = 2001
	BrwMoveWhileBorrowed   Code = 2002
	BrwAssignWhileBorrowed Code = 2003

	// Побег стековых аллокаций
	StkInfo         Code = 3000
	StkEscapeReturn Code = 3001
	StkEscapeParam  Code = 3002
	StkEscapeStatic Code = 3003

	// Потоки и события устройств
	DevInfo               Code = 4000
	DevDependencyInFlight Code = 4001

	// Входной MIR
	MirInfo      Code = 5000
	MirMalformed Code = 5001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		LclInfo:                "Local facts information",
		LclUseOfUninit:         "Use of possibly uninitialized value",
		LclImmutableAssign:     "Mutation of an immutable binding",
		LclOutParamUnassigned:  "Out parameter not assigned before return",
		LclNullDeref:           "Dereference of a null pointer",
		LclInactiveUnionRead:   "Read of an inactive union variant",
		BrwInfo:                "Borrow information",
		BrwConflict:            "Conflicting borrow",
		BrwMoveWhileBorrowed:   "Move out of a borrowed place",
		BrwAssignWhileBorrowed: "Assignment to a borrowed place",
		StkInfo:                "Stack allocation information",
		StkEscapeReturn:        "Stack allocation escapes through return",
		StkEscapeParam:         "Stack allocation escapes through a parameter",
		StkEscapeStatic:        "Stack allocation escapes into static storage",
		DevInfo:                "Device dependency information",
		DevDependencyInFlight:  "Device dependency released while in flight",
		MirInfo:                "MIR information",
		MirMalformed:           "Malformed MIR input",
	}

	codeExplanation = map[Code]string{
		LclUseOfUninit: "A local was read, moved, borrowed or dropped on a path where it was\n" +
			"never assigned (or was moved out). Assign it first, or declare the\n" +
			"parameter with `out` if the callee is expected to fill it.",
		LclImmutableAssign: "A binding declared with `let` was assigned a second time or borrowed\n" +
			"mutably. Declare it with `var` if it is meant to change.",
		LclOutParamUnassigned: "Every `out` parameter must be assigned on every path that returns.",
		LclNullDeref: "The pointer is known to be null at this point. Assign it before\n" +
			"dereferencing, or dereference inside an unsafe block.",
		LclInactiveUnionRead: "A union field was read while another variant was the last one written.",
		BrwConflict: "A unique borrow cannot coexist with any other live borrow of an\n" +
			"overlapping place, and a shared borrow cannot coexist with a live\n" +
			"unique one. The conflicting borrow is rejected.",
		BrwMoveWhileBorrowed:   "A value cannot be moved while a borrow of it is still live.",
		BrwAssignWhileBorrowed: "A place cannot be overwritten while a borrow of it is still live.",
		StkEscapeReturn:        "Memory allocated on the stack frame cannot be returned to the caller.",
		StkEscapeParam:         "Memory allocated on the stack frame cannot be stored through an out or ref parameter.",
		StkEscapeStatic:        "Memory allocated on the stack frame cannot be stored into static storage.",
		DevDependencyInFlight: "Storage used by enqueued device work was released before the work\n" +
			"completed. Wait on the event (or stream) that covers the work first.",
		MirMalformed: "The MIR document could not be decoded or failed structural validation.",
	}
)

var codePrefixes = [...]string{"E", "LCL", "BRW", "STK", "DEV", "MIR"}

// ID returns the stable printable code, e.g. LCL0002.
func (c Code) ID() string {
	ic := int(c)
	family := ic / 1000
	if family <= 0 || family >= len(codePrefixes) {
		return "E0000"
	}
	return fmt.Sprintf("%s%04d", codePrefixes[family], ic%1000)
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

// Explain returns the long-form description shown by `quill explain`.
func (c Code) Explain() string {
	if text, ok := codeExplanation[c]; ok {
		return text
	}
	return c.Title()
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ParseCode resolves a printable id such as "brw0001" back to its Code.
func ParseCode(id string) (Code, bool) {
	want := strings.ToUpper(strings.TrimSpace(id))
	for c := range codeDescription {
		if c != UnknownCode && c.ID() == want {
			return c, true
		}
	}
	return UnknownCode, false
}
