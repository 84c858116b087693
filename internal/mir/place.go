package mir

import (
	"strconv"
	"strings"
)

type PlaceElemKind uint8

const (
	ProjDeref PlaceElemKind = iota
	ProjField
	ProjIndex
	ProjConstIndex
	ProjSubslice
	ProjDowncast
)

// PlaceElem is one projection step. Only the fields of its Kind are used.
type PlaceElem struct {
	Kind PlaceElemKind

	Field int  // ProjField
	Union bool // ProjField: the field is a union variant

	IndexLocal LocalID // ProjIndex

	Offset uint64 // ProjConstIndex, ProjSubslice (from)
	To     uint64 // ProjSubslice

	Variant int // ProjDowncast
}

// Place is a local plus a projection path; an empty path is the whole local.
type Place struct {
	Local LocalID
	Proj  []PlaceElem
}

func LocalPlace(id LocalID) Place { return Place{Local: id} }

func (p Place) IsWhole() bool { return len(p.Proj) == 0 }

// HasDeref reports whether the place reads through a pointer.
func (p Place) HasDeref() bool {
	for _, e := range p.Proj {
		if e.Kind == ProjDeref {
			return true
		}
	}
	return false
}

// UnionField returns the variant index when the first projection selects
// a union field of the local.
func (p Place) UnionField() (int, bool) {
	if len(p.Proj) == 0 || p.Proj[0].Kind != ProjField || !p.Proj[0].Union {
		return 0, false
	}
	return p.Proj[0].Field, true
}

// Overlaps reports whether two places may share storage. Distinct struct
// fields and distinct constant indices are disjoint; everything else on the
// same local is assumed to alias.
func (p Place) Overlaps(other Place) bool {
	if p.Local != other.Local {
		return false
	}
	n := min(len(p.Proj), len(other.Proj))
	for i := 0; i < n; i++ {
		a, b := p.Proj[i], other.Proj[i]
		switch {
		case a.Kind == ProjField && b.Kind == ProjField:
			if a.Field != b.Field && !a.Union && !b.Union {
				return false
			}
		case a.Kind == ProjConstIndex && b.Kind == ProjConstIndex:
			if a.Offset != b.Offset {
				return false
			}
		}
	}
	return true
}

// Key is a stable textual identity used for caching; it never depends on
// local names.
func (p Place) Key() string {
	var b strings.Builder
	b.WriteByte('_')
	b.WriteString(strconv.Itoa(int(p.Local)))
	writeProj(&b, p.Proj, func(id LocalID) string { return "_" + strconv.Itoa(int(id)) })
	return b.String()
}

// Format renders the place with local names from f.
func (p Place) Format(f *Func) string {
	var b strings.Builder
	b.WriteString(f.DisplayName(p.Local))
	writeProj(&b, p.Proj, f.DisplayName)
	return b.String()
}

func writeProj(b *strings.Builder, proj []PlaceElem, local func(LocalID) string) {
	for _, e := range proj {
		switch e.Kind {
		case ProjDeref:
			b.WriteString(".*")
		case ProjField:
			b.WriteByte('.')
			b.WriteString(strconv.Itoa(e.Field))
		case ProjIndex:
			b.WriteByte('[')
			b.WriteString(local(e.IndexLocal))
			b.WriteByte(']')
		case ProjConstIndex:
			b.WriteByte('[')
			b.WriteString(strconv.FormatUint(e.Offset, 10))
			b.WriteByte(']')
		case ProjSubslice:
			b.WriteByte('[')
			b.WriteString(strconv.FormatUint(e.Offset, 10))
			b.WriteString("..")
			b.WriteString(strconv.FormatUint(e.To, 10))
			b.WriteByte(']')
		case ProjDowncast:
			b.WriteString(" as #")
			b.WriteString(strconv.Itoa(e.Variant))
		}
	}
}
