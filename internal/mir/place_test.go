package mir

import "testing"

func field(i int) PlaceElem      { return PlaceElem{Kind: ProjField, Field: i} }
func unionField(i int) PlaceElem { return PlaceElem{Kind: ProjField, Field: i, Union: true} }
func constIdx(o uint64) PlaceElem {
	return PlaceElem{Kind: ProjConstIndex, Offset: o}
}

func TestPlaceOverlaps(t *testing.T) {
	whole := LocalPlace(1)
	tests := []struct {
		name string
		a, b Place
		want bool
	}{
		{"same whole local", whole, whole, true},
		{"different locals", whole, LocalPlace(2), false},
		{"whole vs field", whole, Place{Local: 1, Proj: []PlaceElem{field(0)}}, true},
		{"sibling fields", Place{Local: 1, Proj: []PlaceElem{field(0)}}, Place{Local: 1, Proj: []PlaceElem{field(1)}}, false},
		{"union variants share storage", Place{Local: 1, Proj: []PlaceElem{unionField(0)}}, Place{Local: 1, Proj: []PlaceElem{unionField(1)}}, true},
		{"distinct const index", Place{Local: 1, Proj: []PlaceElem{constIdx(0)}}, Place{Local: 1, Proj: []PlaceElem{constIdx(1)}}, false},
		{"dynamic index aliases const index", Place{Local: 1, Proj: []PlaceElem{{Kind: ProjIndex, IndexLocal: 3}}}, Place{Local: 1, Proj: []PlaceElem{constIdx(1)}}, true},
		{"nested under same field", Place{Local: 1, Proj: []PlaceElem{field(0), field(2)}}, Place{Local: 1, Proj: []PlaceElem{field(0)}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Fatalf("%s overlaps %s: got %v, want %v", tt.a.Key(), tt.b.Key(), got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Fatalf("overlap must be symmetric for %s / %s", tt.a.Key(), tt.b.Key())
			}
		})
	}
}

func TestPlaceFormatting(t *testing.T) {
	f := &Func{Locals: []Local{{Name: "buf"}, {}}}
	p := Place{Local: 0, Proj: []PlaceElem{{Kind: ProjDeref}, field(1), {Kind: ProjIndex, IndexLocal: 1}, {Kind: ProjSubslice, Offset: 2, To: 4}}}
	if got, want := p.Format(f), "buf.*.1[_1][2..4]"; got != want {
		t.Fatalf("format: got %q, want %q", got, want)
	}
	if got, want := p.Key(), "_0.*.1[_1][2..4]"; got != want {
		t.Fatalf("key: got %q, want %q", got, want)
	}
	if !p.HasDeref() {
		t.Fatalf("deref not detected")
	}
	if _, ok := (Place{Local: 0, Proj: []PlaceElem{unionField(3)}}).UnionField(); !ok {
		t.Fatalf("union field not detected")
	}
}
