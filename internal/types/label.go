package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Label returns a user-friendly label for a TypeID.
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID || typesIn == nil {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindUnit:
		return "()"
	case KindBool:
		return "bool"
	case KindInt:
		return formatNumber("int", tt.Width)
	case KindUint:
		return formatNumber("uint", tt.Width)
	case KindFloat:
		return formatNumber("float", tt.Width)
	case KindPointer:
		return "*" + labelDepth(typesIn, tt.Elem, depth+1)
	case KindRawPointer:
		return "raw *" + labelDepth(typesIn, tt.Elem, depth+1)
	case KindSpan:
		if tt.Mutable {
			return "span<mut " + labelDepth(typesIn, tt.Elem, depth+1) + ">"
		}
		return "span<" + labelDepth(typesIn, tt.Elem, depth+1) + ">"
	case KindStruct, KindUnion:
		info, ok := typesIn.Record(id)
		if !ok || info.Name == "" {
			return tt.Kind.String()
		}
		return info.Name
	case KindStream, KindEvent, KindKernel:
		return tt.Kind.String()
	default:
		return fmt.Sprintf("%s#%d", tt.Kind, id)
	}
}

func formatNumber(base string, w Width) string {
	if w == WidthAny {
		return base
	}
	return base + strconv.Itoa(int(w))
}

// IsView reports whether values of the type borrow storage they do not own.
func (in *Interner) IsView(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindSpan
}

// IsUnion reports whether the type is a union with per-variant storage.
func (in *Interner) IsUnion(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindUnion
}

// IsDevice reports whether the type is a stream, event or kernel handle.
func (in *Interner) IsDevice(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindStream, KindEvent, KindKernel:
		return true
	default:
		return false
	}
}

// IsPointerLike reports whether the type can be dereferenced.
func (in *Interner) IsPointerLike(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && (tt.Kind == KindPointer || tt.Kind == KindRawPointer)
}

// Parse resolves a textual type such as "int32", "*Pair", "span<mut int>"
// or a registered record name.
func (in *Interner) Parse(text string) (TypeID, error) {
	s := strings.TrimSpace(text)
	switch {
	case s == "":
		return NoTypeID, fmt.Errorf("empty type")
	case strings.HasPrefix(s, "raw *"):
		elem, err := in.Parse(s[len("raw *"):])
		if err != nil {
			return NoTypeID, err
		}
		return in.Intern(MakeRawPointer(elem)), nil
	case strings.HasPrefix(s, "*"):
		elem, err := in.Parse(s[1:])
		if err != nil {
			return NoTypeID, err
		}
		return in.Intern(MakePointer(elem)), nil
	case strings.HasPrefix(s, "span<") && strings.HasSuffix(s, ">"):
		inner := strings.TrimSpace(s[len("span<") : len(s)-1])
		mutable := false
		if rest, ok := strings.CutPrefix(inner, "mut "); ok {
			inner, mutable = rest, true
		}
		elem, err := in.Parse(inner)
		if err != nil {
			return NoTypeID, err
		}
		return in.Intern(MakeSpan(elem, mutable)), nil
	}

	b := in.builtins
	switch s {
	case "()", "unit":
		return b.Unit, nil
	case "bool":
		return b.Bool, nil
	case "stream":
		return b.Stream, nil
	case "event":
		return b.Event, nil
	case "kernel":
		return b.Kernel, nil
	}
	for _, num := range []struct {
		prefix string
		make   func(Width) Type
	}{{"uint", MakeUint}, {"int", MakeInt}, {"float", MakeFloat}} {
		rest, ok := strings.CutPrefix(s, num.prefix)
		if !ok {
			continue
		}
		if rest == "" {
			return in.Intern(num.make(WidthAny)), nil
		}
		w, err := strconv.ParseUint(rest, 10, 8)
		if err != nil {
			break // not a numeric type, maybe a record named "interval"
		}
		switch width := Width(w); width {
		case Width8, Width16, Width32, Width64:
			return in.Intern(num.make(width)), nil
		}
		return NoTypeID, fmt.Errorf("unsupported width in %q", s)
	}
	if id, ok := in.Named(s); ok {
		return id, nil
	}
	return NoTypeID, fmt.Errorf("unknown type %q", s)
}
