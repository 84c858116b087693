package mirio

import "errors"

var (
	// ErrUnsupportedFormat: the document's format version is outside the
	// supported range.
	ErrUnsupportedFormat = errors.New("unsupported MIR document format")
	// ErrUnknownKind: a statement, terminator, operand or mode name is not
	// known.
	ErrUnknownKind = errors.New("unknown kind")
	// ErrMalformed covers every other structural problem in a document.
	ErrMalformed = errors.New("malformed MIR document")
)
