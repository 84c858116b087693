package borrowck

import (
	"fmt"

	"fortio.org/safecast"

	"quill/internal/diag"
	"quill/internal/mir"
	"quill/internal/source"
	"quill/internal/trace"
	"quill/internal/types"
)

// DefaultMaxBlockVisits bounds how often one block is re-checked while the
// fixed point settles.
const DefaultMaxBlockVisits = 64

// Options configures a function check.
type Options struct {
	Types  *types.Interner
	Tracer trace.Tracer
	// SpanID parents the node-scope trace events.
	SpanID         uint64
	MaxBlockVisits int
}

// Result is everything one check produced.
type Result struct {
	Func        string
	Diagnostics []diag.Diagnostic
	Events      []Event
	Regions     []RegionEntry
	// Capped is set when some block hit the visit limit.
	Capped bool
}

// HasErrors reports whether any diagnostic is an error.
func (r *Result) HasErrors() bool {
	for i := range r.Diagnostics {
		if r.Diagnostics[i].Severity >= diag.SevError {
			return true
		}
	}
	return false
}

// depKey identifies one device dependency site.
type depKey struct {
	loc        mir.Location
	place      string
	completion mir.LocalID
}

type depIDs struct {
	borrow mir.BorrowID
	region mir.RegionID
}

// Checker checks a single function. It is not safe for concurrent use;
// create one per function.
type Checker struct {
	fn     *mir.Func
	types  *types.Interner
	tracer trace.Tracer
	spanID uint64

	maxVisits int
	capped    bool

	state *BorrowState
	loc   mir.Location
	span  source.Span

	reported map[ErrorKey]struct{}
	bag      *diag.Bag
	reporter diag.Reporter

	regions    regionTable
	depCache   map[depKey]depIDs
	nextBorrow uint32
	nextRegion uint32
	outRegions map[mir.RegionID]bool

	events []Event
}

// NewChecker prepares a checker for f.
func NewChecker(f *mir.Func, opts Options) *Checker {
	bag := diag.NewBag(0)
	c := &Checker{
		fn:         f,
		types:      opts.Types,
		tracer:     opts.Tracer,
		spanID:     opts.SpanID,
		maxVisits:  opts.MaxBlockVisits,
		reported:   make(map[ErrorKey]struct{}),
		bag:        bag,
		reporter:   diag.BagReporter{Bag: bag},
		regions:    newRegionTable(),
		depCache:   make(map[depKey]depIDs),
		outRegions: make(map[mir.RegionID]bool),
	}
	if c.types == nil {
		c.types = types.NewInterner()
	}
	if c.tracer == nil {
		c.tracer = trace.Nop
	}
	if c.maxVisits <= 0 {
		c.maxVisits = DefaultMaxBlockVisits
	}
	c.prescan()
	return c
}

// Check runs the borrow checker over f.
func Check(f *mir.Func, opts Options) Result {
	if f == nil {
		return Result{}
	}
	return NewChecker(f, opts).Run()
}

// Run walks every reachable block until the states settle and returns the
// collected diagnostics.
func (c *Checker) Run() Result {
	f := c.fn
	if c.fn.Block(f.Entry) != nil {
		c.walk()
	}
	return Result{
		Func:        f.Name,
		Diagnostics: c.bag.Items(),
		Events:      c.events,
		Regions:     c.regions.snapshot(),
		Capped:      c.capped,
	}
}

// walk visits blocks in reverse postorder with a worklist. A block's entry
// state is the join of the exit states of its already visited predecessors.
func (c *Checker) walk() {
	f := c.fn
	rpo := f.ReversePostorder()
	rank := make([]int, len(f.Blocks))
	for i, b := range rpo {
		rank[b] = i
	}
	preds := f.Predecessors()
	exits := make([]*BorrowState, len(f.Blocks))
	visits := make([]int, len(f.Blocks))
	initial := newBorrowState(f)

	queued := make([]bool, len(f.Blocks))
	for _, b := range rpo {
		queued[b] = true
	}
	for {
		// pick the queued block that comes first in reverse postorder
		next := mir.NoBlockID
		for _, b := range rpo {
			if queued[b] {
				next = b
				break
			}
		}
		if next == mir.NoBlockID {
			return
		}
		queued[next] = false
		if visits[next] >= c.maxVisits {
			c.capped = true
			continue
		}
		visits[next]++

		entry := c.entryState(next, initial, preds[next], exits)
		if entry == nil {
			continue
		}
		c.state = entry
		c.visitBlock(next)

		if prev := exits[next]; prev != nil && prev.sameLattice(c.state) {
			continue
		}
		exits[next] = c.state
		for _, succ := range f.Blocks[next].Successors() {
			if succ >= 0 && int(succ) < len(f.Blocks) {
				queued[succ] = true
			}
		}
	}
}

func (c *Checker) entryState(b mir.BlockID, initial *BorrowState, preds []mir.BlockID, exits []*BorrowState) *BorrowState {
	var entry *BorrowState
	if b == c.fn.Entry {
		entry = initial.clone()
	}
	for _, p := range preds {
		if exits[p] == nil {
			continue
		}
		if entry == nil {
			entry = exits[p].clone()
			continue
		}
		entry.join(exits[p])
	}
	return entry
}

func (c *Checker) visitBlock(b mir.BlockID) {
	bb := &c.fn.Blocks[b]
	for i := range bb.Stmts {
		c.loc = mir.StmtLoc(b, i)
		c.span = bb.Stmts[i].Span
		c.visitStatement(&bb.Stmts[i])
	}
	c.loc = mir.TermLoc(b)
	c.span = bb.Term.Span
	c.visitTerminator(&bb.Term)
}

// prescan finds out-argument regions and the highest ids used by the MIR so
// fresh ids never collide with them.
func (c *Checker) prescan() {
	var maxBorrow, maxRegion uint32
	seeOperand := func(op *mir.Operand) {
		if op.Kind == mir.OperandBorrow {
			maxRegion = max(maxRegion, uint32(op.Region))
		}
	}
	for i := range c.fn.Blocks {
		bb := &c.fn.Blocks[i]
		for j := range bb.Stmts {
			st := &bb.Stmts[j]
			if st.Kind == mir.StmtBorrow {
				maxBorrow = max(maxBorrow, uint32(st.Borrow.ID))
				maxRegion = max(maxRegion, uint32(st.Borrow.Region))
			}
			for _, op := range mir.StmtOperands(st) {
				seeOperand(&op)
			}
		}
		if bb.Term.Kind != mir.TermCall {
			continue
		}
		for k := range bb.Term.Call.Args {
			arg := &bb.Term.Call.Args[k]
			seeOperand(&arg.Value)
			if arg.Mode == mir.ParamOut && arg.Value.Kind == mir.OperandBorrow {
				c.outRegions[arg.Value.Region] = true
			}
		}
	}
	c.nextBorrow = maxBorrow + 1
	c.nextRegion = maxRegion + 1
}

// freshIDs allocates a borrow/region pair from the checker's counters.
func (c *Checker) freshIDs() depIDs {
	if _, err := safecast.Conv[uint32](uint64(c.nextBorrow) + 1); err != nil {
		panic(fmt.Errorf("borrow id overflow: %w", err))
	}
	if _, err := safecast.Conv[uint32](uint64(c.nextRegion) + 1); err != nil {
		panic(fmt.Errorf("region id overflow: %w", err))
	}
	ids := depIDs{borrow: mir.BorrowID(c.nextBorrow), region: mir.RegionID(c.nextRegion)}
	c.nextBorrow++
	c.nextRegion++
	return ids
}

// localName is the user-facing name of a local.
func (c *Checker) localName(id mir.LocalID) string {
	return c.fn.DisplayName(id)
}

func (c *Checker) local(id mir.LocalID) *mir.Local {
	return c.fn.Local(id)
}

func (c *Checker) isView(id mir.LocalID) bool {
	l := c.local(id)
	return l != nil && c.types.IsView(l.Type)
}

// spanOr picks the operand's own span when it has one.
func (c *Checker) spanOr(sp source.Span) source.Span {
	if sp.IsZero() {
		return c.span
	}
	return sp
}
