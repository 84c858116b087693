package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Unit == NoTypeID || b.Bool == NoTypeID || b.Stream == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	unit, _ := in.Lookup(b.Unit)
	if unit.Kind != KindUnit {
		t.Fatalf("expected unit kind, got %v", unit.Kind)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Int
	s1 := in.Intern(MakeSpan(elem, false))
	s2 := in.Intern(MakeSpan(elem, false))
	if s1 != s2 {
		t.Fatalf("span types should be deduplicated")
	}
	if in.Intern(MakeSpan(elem, true)) == s1 {
		t.Fatalf("mutable and immutable spans must differ")
	}
}

func TestRecordsAreNominal(t *testing.T) {
	in := NewInterner()
	fields := []Field{{Name: "x", Type: in.Builtins().Int}}
	a := in.RegisterStruct("A", fields)
	b := in.RegisterStruct("B", fields)
	if a == b {
		t.Fatalf("records with equal fields must stay distinct")
	}
	u := in.RegisterUnion("Bits", []Field{{Name: "i", Type: in.Builtins().Int}, {Name: "f", Type: in.Builtins().Float}})
	if !in.IsUnion(u) || in.IsUnion(a) {
		t.Fatalf("union classification is wrong")
	}
	if ft, ok := in.FieldType(u, 1); !ok || ft != in.Builtins().Float {
		t.Fatalf("field 1 of Bits: got %v, %v", ft, ok)
	}
}

func TestParse(t *testing.T) {
	in := NewInterner()
	pair := in.RegisterStruct("Pair", nil)
	tests := []struct {
		text  string
		label string
	}{
		{"int", "int"},
		{"uint32", "uint32"},
		{"float64", "float64"},
		{"*int", "*int"},
		{"raw *Pair", "raw *Pair"},
		{"span<mut int8>", "span<mut int8>"},
		{"stream", "stream"},
		{"Pair", "Pair"},
	}
	for _, tt := range tests {
		id, err := in.Parse(tt.text)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.text, err)
		}
		if got := Label(in, id); got != tt.label {
			t.Errorf("parse %q: label %q, want %q", tt.text, got, tt.label)
		}
	}
	if id, _ := in.Parse("Pair"); id != pair {
		t.Errorf("named record should resolve to the registered id")
	}
	for _, bad := range []string{"", "int12", "Missing", "span<Missing>"} {
		if _, err := in.Parse(bad); err == nil {
			t.Errorf("parse %q: expected error", bad)
		}
	}
}

func TestClassification(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	view := in.Intern(MakeSpan(b.Int, false))
	if !in.IsView(view) || in.IsView(b.Int) {
		t.Fatalf("view classification is wrong")
	}
	for _, id := range []TypeID{b.Stream, b.Event, b.Kernel} {
		if !in.IsDevice(id) {
			t.Errorf("%s should be a device type", Label(in, id))
		}
	}
	if in.IsDevice(view) {
		t.Errorf("span is not a device type")
	}
}
