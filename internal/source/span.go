package source

import (
	"fmt"
)

// Span is a half-open byte range inside one file.
// The zero Span means "no location".
type Span struct {
	File  FileID
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

// IsZero reports whether the span carries no location at all.
func (s Span) IsZero() bool {
	return s == Span{}
}

func (s Span) Len() uint32 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Prefix returns the first n bytes of the span, clamped to its length.
func (s Span) Prefix(n uint32) Span {
	if n > s.Len() {
		n = s.Len()
	}
	return Span{File: s.File, Start: s.Start, End: s.Start + n}
}
