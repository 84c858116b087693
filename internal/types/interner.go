package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Bool    TypeID
	Int     TypeID
	Uint    TypeID
	Float   TypeID
	Stream  TypeID
	Event   TypeID
	Kernel  TypeID
}

// Field describes a single member of a struct or union.
type Field struct {
	Name string
	Type TypeID
}

// RecordInfo stores metadata for nominal struct and union types.
type RecordInfo struct {
	Name   string
	Fields []Field
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Records are nominal: every registration gets a fresh TypeID.
type Interner struct {
	types    []Type
	index    map[Type]TypeID
	builtins Builtins
	records  []RecordInfo
	byName   map[string]TypeID
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:  make(map[Type]TypeID, 32),
		byName: make(map[string]TypeID),
	}
	in.records = append(in.records, RecordInfo{}) // slot 0 is the invalid sentinel
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Int = in.Intern(MakeInt(WidthAny))
	in.builtins.Uint = in.Intern(MakeUint(WidthAny))
	in.builtins.Float = in.Intern(MakeFloat(WidthAny))
	in.builtins.Stream = in.Intern(Type{Kind: KindStream})
	in.builtins.Event = in.Intern(Type{Kind: KindEvent})
	in.builtins.Kernel = in.Intern(Type{Kind: KindKernel})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Len returns the number of interned types including the invalid sentinel.
func (in *Interner) Len() int {
	return len(in.types)
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if in == nil || id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// RegisterStruct allocates a nominal struct type.
func (in *Interner) RegisterStruct(name string, fields []Field) TypeID {
	return in.registerRecord(KindStruct, name, fields)
}

// RegisterUnion allocates a nominal union type. Each field is one variant.
func (in *Interner) RegisterUnion(name string, fields []Field) TypeID {
	return in.registerRecord(KindUnion, name, fields)
}

func (in *Interner) registerRecord(kind Kind, name string, fields []Field) TypeID {
	slot, err := safecast.Conv[uint32](len(in.records))
	if err != nil {
		panic(fmt.Errorf("record info overflow: %w", err))
	}
	in.records = append(in.records, RecordInfo{Name: name, Fields: slices.Clone(fields)})
	id := in.internRaw(Type{Kind: kind, Payload: slot})
	if name != "" {
		in.byName[name] = id
	}
	return id
}

// Record returns metadata for a struct or union TypeID.
func (in *Interner) Record(id TypeID) (*RecordInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || (tt.Kind != KindStruct && tt.Kind != KindUnion) {
		return nil, false
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.records) {
		return nil, false
	}
	return &in.records[tt.Payload], true
}

// Named returns the record registered under name.
func (in *Interner) Named(name string) (TypeID, bool) {
	id, ok := in.byName[name]
	return id, ok
}

// FieldType returns the type of the idx-th field of a record.
func (in *Interner) FieldType(id TypeID, idx int) (TypeID, bool) {
	info, ok := in.Record(id)
	if !ok || idx < 0 || idx >= len(info.Fields) {
		return NoTypeID, false
	}
	return info.Fields[idx].Type, true
}
