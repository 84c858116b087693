package borrowck

import (
	"fmt"
	"time"

	"quill/internal/mir"
	"quill/internal/trace"
)

// EventKind identifies the type of loan event recorded during analysis.
type EventKind uint8

const (
	EvLoanStart EventKind = iota
	EvLoanRelease
	EvRegionOpen
	EvRegionClose
	EvBorrowDenied
	EvDeviceDep
	EvLoanTransfer
)

func (k EventKind) String() string {
	switch k {
	case EvLoanStart:
		return "loan_start"
	case EvLoanRelease:
		return "loan_release"
	case EvRegionOpen:
		return "region_open"
	case EvRegionClose:
		return "region_close"
	case EvBorrowDenied:
		return "borrow_denied"
	case EvDeviceDep:
		return "device_dep"
	case EvLoanTransfer:
		return "loan_transfer"
	default:
		return "unknown"
	}
}

// Event is a lightweight log entry produced while checking.
// It is meant for debug output and never affects diagnostics.
type Event struct {
	Kind   EventKind
	Loc    mir.Location
	Borrow mir.BorrowID
	Region mir.RegionID
	Place  string
	Note   string
}

func (e Event) String() string {
	s := fmt.Sprintf("%s %s b%d r%d", e.Loc, e.Kind, e.Borrow, e.Region)
	if e.Place != "" {
		s += " " + e.Place
	}
	if e.Note != "" {
		s += " (" + e.Note + ")"
	}
	return s
}

// record appends to the event log and mirrors the entry to the tracer.
func (c *Checker) record(kind EventKind, borrow mir.BorrowID, region mir.RegionID, place *mir.Place, note string) {
	ev := Event{Kind: kind, Loc: c.loc, Borrow: borrow, Region: region, Note: note}
	if place != nil {
		ev.Place = place.Format(c.fn)
	}
	c.events = append(c.events, ev)

	if !c.tracer.Enabled() || !c.tracer.Level().ShouldEmit(trace.ScopeLoan) {
		return
	}
	c.tracer.Emit(&trace.Event{
		Time:     time.Now(),
		Seq:      trace.NextSeq(),
		Kind:     trace.KindPoint,
		Scope:    trace.ScopeLoan,
		ParentID: c.spanID,
		Name:     "borrowck:" + kind.String(),
		Detail:   c.fn.Name + " " + ev.String(),
	})
}

func (c *Checker) recordLoan(kind EventKind, li *LoanInfo, note string) {
	c.record(kind, li.ID, li.Region, &li.Place, note)
}
