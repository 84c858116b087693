package mirio

// Document is the on-disk form of a MIR module, shared by the TOML and
// msgpack encodings. Places, operands and rvalues are written in the same
// notation mir.DumpFunc prints, e.g. `copy x`, `&unique buf.0 in r3`.
type Document struct {
	Format string `toml:"format" msgpack:"format"`
	Module string `toml:"module" msgpack:"module"`
	// Source is the program text spans point into, relative to the document.
	Source  string      `toml:"source,omitempty" msgpack:"source,omitempty"`
	Records []RecordDoc `toml:"record,omitempty" msgpack:"records,omitempty"`
	Funcs   []FuncDoc   `toml:"func" msgpack:"funcs"`
}

// RecordDoc declares a struct or union. Fields may name records declared
// before it.
type RecordDoc struct {
	Name   string     `toml:"name" msgpack:"name"`
	Kind   string     `toml:"kind" msgpack:"kind"` // struct | union
	Fields []FieldDoc `toml:"fields" msgpack:"fields"`
}

type FieldDoc struct {
	Name string `toml:"name" msgpack:"name"`
	Type string `toml:"type" msgpack:"type"`
}

type FuncDoc struct {
	Name   string     `toml:"name" msgpack:"name"`
	Entry  int        `toml:"entry,omitempty" msgpack:"entry,omitempty"`
	Span   []uint32   `toml:"span,omitempty" msgpack:"span,omitempty"`
	Locals []LocalDoc `toml:"local" msgpack:"locals"`
	Blocks []BlockDoc `toml:"block" msgpack:"blocks"`
}

// LocalDoc declares one local. RequiresInit defaults to true.
type LocalDoc struct {
	Name         string   `toml:"name" msgpack:"name"`
	Type         string   `toml:"type" msgpack:"type"`
	Mut          bool     `toml:"mut,omitempty" msgpack:"mut,omitempty"`
	Nullable     bool     `toml:"nullable,omitempty" msgpack:"nullable,omitempty"`
	RequiresInit *bool    `toml:"requires_init,omitempty" msgpack:"requires_init,omitempty"`
	Param        string   `toml:"param,omitempty" msgpack:"param,omitempty"` // value | in | out | ref
	Span         []uint32 `toml:"span,omitempty" msgpack:"span,omitempty"`
}

type BlockDoc struct {
	Stmts []StmtDoc `toml:"stmts" msgpack:"stmts"`
	Term  TermDoc   `toml:"term" msgpack:"term"`
}

// StmtDoc is one statement; Op selects which of the other fields are read.
type StmtDoc struct {
	Op   string   `toml:"op" msgpack:"op"`
	Span []uint32 `toml:"span,omitempty" msgpack:"span,omitempty"`

	Local string `toml:"local,omitempty" msgpack:"local,omitempty"`
	Place string `toml:"place,omitempty" msgpack:"place,omitempty"`
	Dst   string `toml:"dst,omitempty" msgpack:"dst,omitempty"`
	Src   string `toml:"src,omitempty" msgpack:"src,omitempty"`
	Value string `toml:"value,omitempty" msgpack:"value,omitempty"`

	ID     uint32 `toml:"id,omitempty" msgpack:"id,omitempty"`
	Kind   string `toml:"kind,omitempty" msgpack:"kind,omitempty"`
	Region uint32 `toml:"region,omitempty" msgpack:"region,omitempty"`

	Cond     string `toml:"cond,omitempty" msgpack:"cond,omitempty"`
	Expected bool   `toml:"expected,omitempty" msgpack:"expected,omitempty"`

	Stream     string   `toml:"stream,omitempty" msgpack:"stream,omitempty"`
	Event      string   `toml:"event,omitempty" msgpack:"event,omitempty"`
	Kernel     string   `toml:"kernel,omitempty" msgpack:"kernel,omitempty"`
	Args       []string `toml:"args,omitempty" msgpack:"args,omitempty"`
	Completion string   `toml:"completion,omitempty" msgpack:"completion,omitempty"`

	Addr    uint64 `toml:"addr,omitempty" msgpack:"addr,omitempty"`
	Static  string `toml:"static,omitempty" msgpack:"static,omitempty"`
	Pointer string `toml:"pointer,omitempty" msgpack:"pointer,omitempty"`
	Length  string `toml:"length,omitempty" msgpack:"length,omitempty"`

	Template string   `toml:"template,omitempty" msgpack:"template,omitempty"`
	Asm      []AsmDoc `toml:"asm,omitempty" msgpack:"asm,omitempty"`
}

type AsmDoc struct {
	Kind  string `toml:"kind" msgpack:"kind"` // in | out | inout | const | sym
	Value string `toml:"value,omitempty" msgpack:"value,omitempty"`
	Place string `toml:"place,omitempty" msgpack:"place,omitempty"`
	Sym   string `toml:"sym,omitempty" msgpack:"sym,omitempty"`
}

// TermDoc is a block terminator. A call without Target and with Diverges
// set never returns.
type TermDoc struct {
	Op   string   `toml:"op" msgpack:"op"`
	Span []uint32 `toml:"span,omitempty" msgpack:"span,omitempty"`

	Target    int       `toml:"target,omitempty" msgpack:"target,omitempty"`
	Discr     string    `toml:"discr,omitempty" msgpack:"discr,omitempty"`
	Cases     []CaseDoc `toml:"cases,omitempty" msgpack:"cases,omitempty"`
	Otherwise int       `toml:"otherwise,omitempty" msgpack:"otherwise,omitempty"`

	Callee   string   `toml:"callee,omitempty" msgpack:"callee,omitempty"`
	Args     []ArgDoc `toml:"args,omitempty" msgpack:"args,omitempty"`
	Dest     string   `toml:"dest,omitempty" msgpack:"dest,omitempty"`
	Diverges bool     `toml:"diverges,omitempty" msgpack:"diverges,omitempty"`

	Value string `toml:"value,omitempty" msgpack:"value,omitempty"`
}

type CaseDoc struct {
	Value  int64 `toml:"value" msgpack:"value"`
	Target int   `toml:"target" msgpack:"target"`
}

type ArgDoc struct {
	Mode  string `toml:"mode,omitempty" msgpack:"mode,omitempty"`
	Value string `toml:"value" msgpack:"value"`
}
