package borrowck

import (
	"slices"

	"quill/internal/mir"
	"quill/internal/source"
)

// OwnerKind names the release path that ends a loan.
type OwnerKind uint8

const (
	// OwnerPlace loans end when the borrowed place is released.
	OwnerPlace OwnerKind = iota
	// OwnerView loans are held by a span-typed local and end with it.
	OwnerView
	// OwnerEvent loans end when the completion handle is waited on or dies.
	OwnerEvent
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerView:
		return "view"
	case OwnerEvent:
		return "event"
	default:
		return "place"
	}
}

type LoanOwner struct {
	Kind  OwnerKind
	Local mir.LocalID
}

// LoanInfo is one live borrow.
type LoanInfo struct {
	ID     mir.BorrowID
	Kind   mir.BorrowKind
	Place  mir.Place
	Region mir.RegionID
	Origin source.Span
	Owner  LoanOwner
	// Covers lists events recorded after this loan that also end it.
	Covers []mir.LocalID
}

// conflicts implements the kind-compatibility rule: Unique excludes every
// other loan, Shared excludes Unique, Raw never conflicts.
func conflicts(existing, requested mir.BorrowKind) bool {
	if existing == mir.BorrowRaw || requested == mir.BorrowRaw {
		return false
	}
	return existing == mir.BorrowUnique || requested == mir.BorrowUnique
}

// Ledger holds live loans in insertion order.
type Ledger struct {
	loans []LoanInfo
}

func (l *Ledger) Len() int { return len(l.loans) }

// Loans returns the live loans; do not modify the returned slice.
func (l *Ledger) Loans() []LoanInfo { return l.loans }

// Get returns the live loan with the given id.
func (l *Ledger) Get(id mir.BorrowID) (*LoanInfo, bool) {
	for i := range l.loans {
		if l.loans[i].ID == id {
			return &l.loans[i], true
		}
	}
	return nil, false
}

// insert adds a loan unless one with the same id is already live.
func (l *Ledger) insert(loan LoanInfo) bool {
	if _, ok := l.Get(loan.ID); ok {
		return false
	}
	l.loans = append(l.loans, loan)
	return true
}

// firstConflict returns the oldest live loan that forbids loan id of kind
// on place. A loan never conflicts with itself re-taken on a back edge.
func (l *Ledger) firstConflict(id mir.BorrowID, place mir.Place, kind mir.BorrowKind) *LoanInfo {
	for i := range l.loans {
		if l.loans[i].ID == id {
			continue
		}
		if l.loans[i].Place.Overlaps(place) && conflicts(l.loans[i].Kind, kind) {
			return &l.loans[i]
		}
	}
	return nil
}

// firstBlocking returns the oldest Shared or Unique loan overlapping place.
// Writes and moves are blocked by these.
func (l *Ledger) firstBlocking(place mir.Place) *LoanInfo {
	for i := range l.loans {
		if l.loans[i].Kind != mir.BorrowRaw && l.loans[i].Place.Overlaps(place) {
			return &l.loans[i]
		}
	}
	return nil
}

// firstDevice returns the oldest device dependency loan overlapping place.
func (l *Ledger) firstDevice(place mir.Place) *LoanInfo {
	for i := range l.loans {
		if l.loans[i].Owner.Kind == OwnerEvent && l.loans[i].Place.Overlaps(place) {
			return &l.loans[i]
		}
	}
	return nil
}

// inRegion reports whether any live loan belongs to region.
func (l *Ledger) inRegion(region mir.RegionID) bool {
	for i := range l.loans {
		if l.loans[i].Region == region {
			return true
		}
	}
	return false
}

// removeWhere drops matching loans and returns them in insertion order.
func (l *Ledger) removeWhere(match func(*LoanInfo) bool) []LoanInfo {
	var removed []LoanInfo
	kept := l.loans[:0:0]
	for i := range l.loans {
		if match(&l.loans[i]) {
			removed = append(removed, l.loans[i])
			continue
		}
		kept = append(kept, l.loans[i])
	}
	if len(removed) > 0 {
		l.loans = kept
	}
	return removed
}

// touchingPlace selects loans whose borrowed place overlaps place.
func touchingPlace(place mir.Place) func(*LoanInfo) bool {
	return func(li *LoanInfo) bool { return li.Place.Overlaps(place) }
}

// heldByView selects loans owned by a span-typed local.
func heldByView(local mir.LocalID) func(*LoanInfo) bool {
	return func(li *LoanInfo) bool {
		return li.Owner.Kind == OwnerView && li.Owner.Local == local
	}
}

// heldByEvent selects loans owned or covered by a completion handle.
func heldByEvent(local mir.LocalID) func(*LoanInfo) bool {
	return func(li *LoanInfo) bool {
		if li.Owner.Kind == OwnerEvent && li.Owner.Local == local {
			return true
		}
		return slices.Contains(li.Covers, local)
	}
}

// inRegions selects loans belonging to any of the regions.
func inRegions(regions []mir.RegionID) func(*LoanInfo) bool {
	return func(li *LoanInfo) bool { return slices.Contains(regions, li.Region) }
}

// cover makes event end every loan currently owned by completion.
func (l *Ledger) cover(completion, event mir.LocalID) []mir.BorrowID {
	var ids []mir.BorrowID
	for i := range l.loans {
		li := &l.loans[i]
		if li.Owner.Kind != OwnerEvent || li.Owner.Local != completion || li.Owner.Local == event {
			continue
		}
		if !slices.Contains(li.Covers, event) {
			li.Covers = append(slices.Clip(li.Covers), event)
		}
		ids = append(ids, li.ID)
	}
	return ids
}

// transfer hands the selected loans to a new owner.
func (l *Ledger) transfer(match func(*LoanInfo) bool, owner LoanOwner) []LoanInfo {
	var moved []LoanInfo
	for i := range l.loans {
		if l.loans[i].Owner != owner && match(&l.loans[i]) {
			l.loans[i].Owner = owner
			moved = append(moved, l.loans[i])
		}
	}
	return moved
}

func (l *Ledger) clone() Ledger {
	return Ledger{loans: slices.Clone(l.loans)}
}

// join adds loans live on the other edge; covers are united.
func (l *Ledger) join(o *Ledger) {
	for i := range o.loans {
		other := &o.loans[i]
		mine, ok := l.Get(other.ID)
		if !ok {
			l.loans = append(l.loans, *other)
			continue
		}
		for _, ev := range other.Covers {
			if !slices.Contains(mine.Covers, ev) {
				mine.Covers = append(slices.Clip(mine.Covers), ev)
			}
		}
	}
}

// sameAs compares live loan identity, ownership and covers.
func (l *Ledger) sameAs(o *Ledger) bool {
	if len(l.loans) != len(o.loans) {
		return false
	}
	for i := range l.loans {
		other, ok := o.Get(l.loans[i].ID)
		if !ok || other.Owner != l.loans[i].Owner || len(other.Covers) != len(l.loans[i].Covers) {
			return false
		}
	}
	return true
}
