package borrowck

import (
	"slices"

	"quill/internal/mir"
)

// RegionInfo is the lifetime interval owning one or more loans. It is open
// while End is nil.
type RegionInfo struct {
	Start mir.Location
	End   *mir.Location
	Loans []mir.BorrowID
}

func (r *RegionInfo) Open() bool { return r.End == nil }

// regionTable is shared by every path of one function check.
type regionTable struct {
	byID  map[mir.RegionID]*RegionInfo
	order []mir.RegionID
}

func newRegionTable() regionTable {
	return regionTable{byID: make(map[mir.RegionID]*RegionInfo)}
}

func (t *regionTable) get(id mir.RegionID) (*RegionInfo, bool) {
	r, ok := t.byID[id]
	return r, ok
}

// open creates the region on its first loan and attaches borrow to it.
// It reports whether the region was created.
func (t *regionTable) open(id mir.RegionID, at mir.Location, borrow mir.BorrowID) bool {
	r, ok := t.byID[id]
	if !ok {
		r = &RegionInfo{Start: at}
		t.byID[id] = r
		t.order = append(t.order, id)
	}
	if !slices.Contains(r.Loans, borrow) {
		r.Loans = append(r.Loans, borrow)
	}
	return !ok
}

// close records the end of a region; the first release wins.
func (t *regionTable) close(id mir.RegionID, at mir.Location) bool {
	r, ok := t.byID[id]
	if !ok || r.End != nil {
		return false
	}
	end := at
	r.End = &end
	return true
}

// RegionEntry pairs a region id with its final state.
type RegionEntry struct {
	ID mir.RegionID
	RegionInfo
}

func (t *regionTable) snapshot() []RegionEntry {
	out := make([]RegionEntry, 0, len(t.order))
	for _, id := range t.order {
		r := t.byID[id]
		out = append(out, RegionEntry{ID: id, RegionInfo: RegionInfo{
			Start: r.Start,
			End:   r.End,
			Loans: slices.Clone(r.Loans),
		}})
	}
	return out
}
