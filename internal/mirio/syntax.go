package mirio

import (
	"fmt"
	"strconv"
	"strings"

	"quill/internal/mir"
	"quill/internal/source"
	"quill/internal/types"
)

// scope resolves names inside one function while its body is built.
type scope struct {
	fn    *mir.Func
	names map[string]mir.LocalID
	types *types.Interner
	file  source.FileID
}

func (s *scope) local(name string) (mir.LocalID, error) {
	if id, ok := s.names[name]; ok {
		return id, nil
	}
	if rest, ok := strings.CutPrefix(name, "_"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 && n < len(s.fn.Locals) {
			return mir.LocalID(n), nil //nolint:gosec // bounded by len(Locals)
		}
	}
	return mir.NoLocalID, fmt.Errorf("%w: unknown local %q", ErrMalformed, name)
}

func isIdent(c byte, first bool) bool {
	switch {
	case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

// place parses `x`, `x.0`, `p.*`, `a[i]`, `a[3]`, `a[1..4]`, `e@2`.
// A field projection on a union-typed value is marked as a union field.
func (s *scope) place(text string) (mir.Place, error) {
	t := strings.TrimSpace(text)
	n := 0
	for n < len(t) && isIdent(t[n], n == 0) {
		n++
	}
	if n == 0 {
		return mir.Place{}, fmt.Errorf("%w: bad place %q", ErrMalformed, text)
	}
	id, err := s.local(t[:n])
	if err != nil {
		return mir.Place{}, err
	}
	p := mir.Place{Local: id}
	cur := s.fn.Locals[id].Type
	rest := t[n:]
	for rest != "" {
		var elem mir.PlaceElem
		switch {
		case strings.HasPrefix(rest, ".*"):
			elem.Kind = mir.ProjDeref
			rest = rest[2:]
			cur = s.elemOf(cur)
		case rest[0] == '.':
			digits := leadingDigits(rest[1:])
			if digits == "" {
				return mir.Place{}, fmt.Errorf("%w: bad projection in %q", ErrMalformed, text)
			}
			idx, _ := strconv.Atoi(digits) //nolint:errcheck // digits only
			elem = mir.PlaceElem{Kind: mir.ProjField, Field: idx, Union: s.types.IsUnion(cur)}
			rest = rest[1+len(digits):]
			cur, _ = s.types.FieldType(cur, idx)
		case rest[0] == '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return mir.Place{}, fmt.Errorf("%w: unclosed index in %q", ErrMalformed, text)
			}
			elem, err = s.index(rest[1:end])
			if err != nil {
				return mir.Place{}, err
			}
			rest = rest[end+1:]
			cur = s.elemOf(cur)
		case rest[0] == '@':
			digits := leadingDigits(rest[1:])
			if digits == "" {
				return mir.Place{}, fmt.Errorf("%w: bad downcast in %q", ErrMalformed, text)
			}
			v, _ := strconv.Atoi(digits) //nolint:errcheck // digits only
			elem = mir.PlaceElem{Kind: mir.ProjDowncast, Variant: v}
			rest = rest[1+len(digits):]
		default:
			return mir.Place{}, fmt.Errorf("%w: unexpected %q in place %q", ErrMalformed, rest, text)
		}
		p.Proj = append(p.Proj, elem)
	}
	return p, nil
}

func (s *scope) index(inner string) (mir.PlaceElem, error) {
	inner = strings.TrimSpace(inner)
	if from, to, ok := strings.Cut(inner, ".."); ok {
		a, err1 := strconv.ParseUint(from, 10, 64)
		b, err2 := strconv.ParseUint(to, 10, 64)
		if err1 != nil || err2 != nil || b < a {
			return mir.PlaceElem{}, fmt.Errorf("%w: bad subslice [%s]", ErrMalformed, inner)
		}
		return mir.PlaceElem{Kind: mir.ProjSubslice, Offset: a, To: b}, nil
	}
	if v, err := strconv.ParseUint(inner, 10, 64); err == nil {
		return mir.PlaceElem{Kind: mir.ProjConstIndex, Offset: v}, nil
	}
	id, err := s.local(inner)
	if err != nil {
		return mir.PlaceElem{}, err
	}
	return mir.PlaceElem{Kind: mir.ProjIndex, IndexLocal: id}, nil
}

// elemOf follows a pointer or span to its element type; NoTypeID otherwise.
func (s *scope) elemOf(id types.TypeID) types.TypeID {
	tt, ok := s.types.Lookup(id)
	if !ok {
		return types.NoTypeID
	}
	switch tt.Kind {
	case types.KindPointer, types.KindRawPointer, types.KindSpan:
		return tt.Elem
	}
	return types.NoTypeID
}

func leadingDigits(s string) string {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return s[:n]
}

var borrowPrefixes = []struct {
	prefix string
	kind   mir.BorrowKind
}{
	{"&shared ", mir.BorrowShared},
	{"&unique ", mir.BorrowUnique},
	{"&raw ", mir.BorrowRaw},
}

// operand parses `copy P`, `move P`, `&KIND P in rN`, constants,
// `mmio_read<W>(ADDR)` and `<pending>`.
func (s *scope) operand(text string) (mir.Operand, error) {
	t := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(t, "copy "); ok {
		p, err := s.place(rest)
		return mir.Copy(p), err
	}
	if rest, ok := strings.CutPrefix(t, "move "); ok {
		p, err := s.place(rest)
		return mir.Move(p), err
	}
	for _, bp := range borrowPrefixes {
		rest, ok := strings.CutPrefix(t, bp.prefix)
		if !ok {
			continue
		}
		placeText, regionText, ok := strings.Cut(rest, " in r")
		if !ok {
			return mir.Operand{}, fmt.Errorf("%w: borrow %q lacks `in rN`", ErrMalformed, text)
		}
		region, err := strconv.ParseUint(strings.TrimSpace(regionText), 10, 32)
		if err != nil {
			return mir.Operand{}, fmt.Errorf("%w: bad region in %q", ErrMalformed, text)
		}
		p, err := s.place(placeText)
		return mir.BorrowOf(p, bp.kind, mir.RegionID(region)), err
	}
	if rest, ok := strings.CutPrefix(t, "fn "); ok {
		return mir.Operand{Kind: mir.OperandConst, Const: mir.Const{Kind: mir.ConstFn, Name: strings.TrimSpace(rest)}}, nil
	}
	if strings.HasPrefix(t, "mmio_read<") {
		return parseMmio(t)
	}
	switch t {
	case "<pending>":
		return mir.Operand{Kind: mir.OperandPending}, nil
	case "null":
		return mir.NullConst(), nil
	case "()":
		return mir.Operand{Kind: mir.OperandConst, Const: mir.Const{Kind: mir.ConstUnit}}, nil
	case "true", "false":
		return mir.Operand{Kind: mir.OperandConst, Const: mir.Const{Kind: mir.ConstBool, Bool: t == "true"}}, nil
	}
	if v, err := strconv.ParseInt(t, 0, 64); err == nil {
		return mir.IntConst(v), nil
	}
	if v, err := strconv.ParseFloat(t, 64); err == nil {
		return mir.Operand{Kind: mir.OperandConst, Const: mir.Const{Kind: mir.ConstFloat, Float: v}}, nil
	}
	return mir.Operand{}, fmt.Errorf("%w: operand %q", ErrUnknownKind, text)
}

func parseMmio(t string) (mir.Operand, error) {
	open := strings.IndexByte(t, '(')
	if open < 0 || !strings.HasSuffix(t, ")") || t[open-1] != '>' {
		return mir.Operand{}, fmt.Errorf("%w: bad mmio read %q", ErrMalformed, t)
	}
	width, err := strconv.ParseUint(t[len("mmio_read<"):open-1], 10, 8)
	if err != nil {
		return mir.Operand{}, fmt.Errorf("%w: bad mmio width in %q", ErrMalformed, t)
	}
	addr, err := strconv.ParseUint(t[open+1:len(t)-1], 0, 64)
	if err != nil {
		return mir.Operand{}, fmt.Errorf("%w: bad mmio address in %q", ErrMalformed, t)
	}
	return mir.Operand{Kind: mir.OperandMmioRead, Addr: addr, Width: uint8(width)}, nil
}

// binaryOps is searched longest first so `<=` wins over `<`.
var binaryOps = []string{
	"<<", ">>", "==", "!=", "<=", ">=", "&&", "||",
	"+", "-", "*", "/", "%", "<", ">", "&", "|", "^",
}

// rvalue parses an operand or one of `neg OP`, `not OP`, `OP as TYPE`,
// `OP <binop> OP`, `TYPE{OP, ...}`, `stack_alloc(TYPE, OP)`.
func (s *scope) rvalue(text string) (mir.RValue, error) {
	t := strings.TrimSpace(text)
	if inner, ok := strings.CutPrefix(t, "stack_alloc("); ok && strings.HasSuffix(inner, ")") {
		tyText, countText, ok := strings.Cut(inner[:len(inner)-1], ",")
		if !ok {
			return mir.RValue{}, fmt.Errorf("%w: stack_alloc needs a type and a count: %q", ErrMalformed, text)
		}
		elem, err := s.types.Parse(tyText)
		if err != nil {
			return mir.RValue{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		count, err := s.operand(countText)
		if err != nil {
			return mir.RValue{}, err
		}
		return mir.RValue{Kind: mir.RValueStackAlloc, StackAlloc: mir.StackAlloc{Elem: elem, Count: count}}, nil
	}
	if open := strings.IndexByte(t, '{'); open >= 0 && strings.HasSuffix(t, "}") {
		return s.aggregate(t[:open], t[open+1:len(t)-1])
	}
	for _, op := range []string{"neg", "not"} {
		if rest, ok := strings.CutPrefix(t, op+" "); ok {
			operand, err := s.operand(rest)
			return mir.RValue{Kind: mir.RValueUnary, Unary: mir.UnaryOp{Op: op, Operand: operand}}, err
		}
	}
	if i := strings.LastIndex(t, " as "); i >= 0 {
		value, err := s.operand(t[:i])
		if err != nil {
			return mir.RValue{}, err
		}
		target, err := s.types.Parse(t[i+len(" as "):])
		if err != nil {
			return mir.RValue{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return mir.RValue{Kind: mir.RValueCast, Cast: mir.CastOp{Value: value, Target: target}}, nil
	}
	for _, op := range binaryOps {
		left, right, ok := strings.Cut(t, " "+op+" ")
		if !ok {
			continue
		}
		l, err := s.operand(left)
		if err != nil {
			return mir.RValue{}, err
		}
		r, err := s.operand(right)
		if err != nil {
			return mir.RValue{}, err
		}
		return mir.RValue{Kind: mir.RValueBinary, Binary: mir.BinaryOp{Op: op, Left: l, Right: r}}, nil
	}
	op, err := s.operand(t)
	return mir.Use(op), err
}

func (s *scope) aggregate(tyText, body string) (mir.RValue, error) {
	agg := mir.Aggregate{Type: types.NoTypeID}
	if tyText = strings.TrimSpace(tyText); tyText != "" {
		ty, err := s.types.Parse(tyText)
		if err != nil {
			return mir.RValue{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		agg.Type = ty
	}
	if strings.TrimSpace(body) != "" {
		for _, part := range strings.Split(body, ",") {
			op, err := s.operand(part)
			if err != nil {
				return mir.RValue{}, err
			}
			agg.Elems = append(agg.Elems, op)
		}
	}
	return mir.RValue{Kind: mir.RValueAggregate, Aggregate: agg}, nil
}

// span converts `[start, end]`; an empty list is no location.
func (s *scope) span(v []uint32) (source.Span, error) {
	switch len(v) {
	case 0:
		return source.Span{}, nil
	case 2:
		if v[1] < v[0] {
			return source.Span{}, fmt.Errorf("%w: span [%d, %d] ends before it starts", ErrMalformed, v[0], v[1])
		}
		return source.Span{File: s.file, Start: v[0], End: v[1]}, nil
	default:
		return source.Span{}, fmt.Errorf("%w: span must be [start, end], got %v", ErrMalformed, v)
	}
}
