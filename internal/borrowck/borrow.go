package borrowck

import (
	"fmt"

	"quill/internal/mir"
)

// borrowStatement validates and records a Borrow statement.
func (c *Checker) borrowStatement(b *mir.BorrowStmt) {
	place := b.Place
	lf := c.state.fact(place.Local)
	if lf == nil {
		return
	}
	span := c.span
	outArg := c.outRegions[b.Region]

	// 1. инициализация
	if b.Kind != mir.BorrowRaw && lf.Mode != mir.ParamOut && !outArg && lf.Init != Init {
		c.reportUseOfUninit(place.Local, span, "borrow")
		c.deny(b, "uninitialized")
		return
	}

	// 2. мутабельность: предупреждаем, но заём всё равно пробуем
	if b.Kind == mir.BorrowUnique && !c.mayMutate(lf, place) && !(outArg && lf.AssignmentCount == 0) {
		name := c.localName(place.Local)
		c.emitImmutableBindingError(place.Local, span,
			fmt.Sprintf("cannot take a mutable borrow of `%s`", name),
			"mutable borrow occurs here")
	}

	// 3. конфликты
	if b.Kind != mir.BorrowRaw {
		if existing := c.state.Loans.firstConflict(b.ID, place, b.Kind); existing != nil {
			c.reportBorrowConflict(place, b.Kind, existing, span)
			c.deny(b, fmt.Sprintf("conflicts with b%d", existing.ID))
			return
		}
	}

	// 4. успех
	c.addLoan(LoanInfo{
		ID:     b.ID,
		Kind:   b.Kind,
		Place:  place,
		Region: b.Region,
		Origin: span,
		Owner:  LoanOwner{Kind: OwnerPlace, Local: place.Local},
	})
}

// mayMutate reports whether writes through place are allowed for a local
// with the given facts. Writes behind a deref go to someone else's storage.
func (c *Checker) mayMutate(lf *LocalFacts, place mir.Place) bool {
	if lf.Mutable || place.HasDeref() {
		return true
	}
	return lf.Mode == mir.ParamOut || lf.Mode == mir.ParamRef
}

func (c *Checker) deny(b *mir.BorrowStmt, why string) {
	c.state.Denied[b.Region] = true
	c.record(EvBorrowDenied, b.ID, b.Region, &b.Place, why)
}

// addLoan opens the loan's region at the current location and inserts the
// loan into the ledger.
func (c *Checker) addLoan(li LoanInfo) {
	if c.regions.open(li.Region, c.loc, li.ID) {
		c.record(EvRegionOpen, li.ID, li.Region, nil, "")
	}
	if c.state.Loans.insert(li) {
		c.recordLoan(EvLoanStart, &li, li.Kind.String())
	}
}

// release drops the selected loans and closes regions left without live
// loans.
func (c *Checker) release(match func(*LoanInfo) bool, why string) []LoanInfo {
	removed := c.state.Loans.removeWhere(match)
	for i := range removed {
		li := &removed[i]
		c.recordLoan(EvLoanRelease, li, why)
		if !c.state.Loans.inRegion(li.Region) && c.regions.close(li.Region, c.loc) {
			c.record(EvRegionClose, li.ID, li.Region, nil, why)
		}
	}
	return removed
}

// releasePlace ends loans of place, plus the view loans it holds when the
// whole span-typed local goes away.
func (c *Checker) releasePlace(place mir.Place, why string) {
	c.release(touchingPlace(place), why)
	if place.IsWhole() && c.isView(place.Local) {
		c.release(heldByView(place.Local), why)
	}
}

// regionHasLoan reports whether the region already owns a recorded loan.
func (c *Checker) regionHasLoan(region mir.RegionID) bool {
	r, ok := c.regions.get(region)
	return ok && len(r.Loans) > 0
}
