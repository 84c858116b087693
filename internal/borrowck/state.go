package borrowck

import (
	"maps"
	"slices"

	"quill/internal/mir"
)

// BorrowState is the dataflow state threaded through one path of a
// function. Each checker owns its states exclusively.
type BorrowState struct {
	Facts []LocalFacts
	Loans Ledger
	// Unions maps a union-typed local to its active variant.
	Unions map[mir.LocalID]int
	// Denied holds regions whose Borrow statement was refused on this path.
	Denied      map[mir.RegionID]bool
	UnsafeDepth int
}

func newBorrowState(f *mir.Func) *BorrowState {
	st := &BorrowState{
		Facts:  make([]LocalFacts, len(f.Locals)),
		Unions: make(map[mir.LocalID]int),
		Denied: make(map[mir.RegionID]bool),
	}
	for i := range f.Locals {
		st.Facts[i] = entryFacts(&f.Locals[i])
	}
	return st
}

// fact returns the facts of id, or nil when id is out of range.
func (s *BorrowState) fact(id mir.LocalID) *LocalFacts {
	if id < 0 || int(id) >= len(s.Facts) {
		return nil
	}
	return &s.Facts[id]
}

func (s *BorrowState) clone() *BorrowState {
	return &BorrowState{
		Facts:       slices.Clone(s.Facts),
		Loans:       s.Loans.clone(),
		Unions:      maps.Clone(s.Unions),
		Denied:      maps.Clone(s.Denied),
		UnsafeDepth: s.UnsafeDepth,
	}
}

// join merges the exit state of another predecessor into s.
func (s *BorrowState) join(o *BorrowState) {
	for i := range s.Facts {
		if i < len(o.Facts) {
			s.Facts[i] = joinFacts(s.Facts[i], o.Facts[i])
		}
	}
	s.Loans.join(&o.Loans)
	for local, variant := range s.Unions {
		if other, ok := o.Unions[local]; !ok || other != variant {
			delete(s.Unions, local)
		}
	}
	for region := range o.Denied {
		s.Denied[region] = true
	}
	s.UnsafeDepth = max(s.UnsafeDepth, o.UnsafeDepth)
}

// sameLattice reports whether two states agree on every fact that feeds the
// fixed point. Bookkeeping such as spans is ignored.
func (s *BorrowState) sameLattice(o *BorrowState) bool {
	if len(s.Facts) != len(o.Facts) || s.UnsafeDepth != o.UnsafeDepth {
		return false
	}
	for i := range s.Facts {
		if !s.Facts[i].sameLattice(&o.Facts[i]) {
			return false
		}
	}
	return maps.Equal(s.Unions, o.Unions) && maps.Equal(s.Denied, o.Denied) && s.Loans.sameAs(&o.Loans)
}

func (s *BorrowState) enterUnsafe() { s.UnsafeDepth++ }

// exitUnsafe saturates at zero.
func (s *BorrowState) exitUnsafe() {
	if s.UnsafeDepth > 0 {
		s.UnsafeDepth--
	}
}

func (s *BorrowState) inUnsafe() bool { return s.UnsafeDepth > 0 }
