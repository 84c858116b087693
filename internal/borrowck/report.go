package borrowck

import (
	"fmt"

	"quill/internal/diag"
	"quill/internal/mir"
	"quill/internal/source"
)

// reportError starts an error diagnostic at the current location. It
// returns nil when the same violation was already reported at this site;
// ReportBuilder methods accept a nil receiver.
func (c *Checker) reportError(kind ErrorKeyKind, span source.Span, msg string) *diag.ReportBuilder {
	return c.report(diag.SevError, kind, span, msg)
}

// reportWarning is reportError for advisory findings.
func (c *Checker) reportWarning(kind ErrorKeyKind, span source.Span, msg string) *diag.ReportBuilder {
	return c.report(diag.SevWarning, kind, span, msg)
}

func (c *Checker) report(sev diag.Severity, kind ErrorKeyKind, span source.Span, msg string) *diag.ReportBuilder {
	if !c.markReported(newErrorKey(c.loc, kind)) {
		return nil
	}
	return diag.NewReportBuilder(c.reporter, sev, kind.Tag.Code(), span, c.fn.Name+": "+msg)
}

// emitImmutableBindingError reports a write to a `let` binding with the
// declaration label and the let-to-var suggestion.
func (c *Checker) emitImmutableBindingError(local mir.LocalID, span source.Span, msg, label string) {
	b := c.reportError(ImmutableAssignment(local), span, msg)
	if b == nil {
		return
	}
	b.WithPrimaryLabel(label)
	name := c.localName(local)
	decl := source.Span{}
	if l := c.local(local); l != nil {
		decl = l.Span
	}
	if !decl.IsZero() {
		b.WithLabel(decl, "declared here as immutable with `let`")
	}
	if decl.Len() >= 3 {
		b.WithFix(fmt.Sprintf("make `%s` mutable", name), diag.FixEdit{Span: decl.Prefix(3), NewText: "var"})
	} else {
		b.WithFix(fmt.Sprintf("consider declaring `%s` with `var` instead of `let`", name))
	}
	b.Emit()
}

// reportUseOfUninit reports reading a local that is not initialized on the
// current path.
func (c *Checker) reportUseOfUninit(local mir.LocalID, span source.Span, what string) {
	lf := c.state.fact(local)
	b := c.reportError(UseOfUninit(local), span, fmt.Sprintf("%s of possibly uninitialized `%s`", what, c.localName(local))).
		WithPrimaryLabel(fmt.Sprintf("`%s` used here before it is initialized", c.localName(local)))
	if lf != nil && !lf.LastMove.IsZero() {
		b = b.WithNote(lf.LastMove, "value moved out here")
	} else if l := c.local(local); l != nil && !l.Span.IsZero() {
		b = b.WithLabel(l.Span, "declared here")
	}
	b.Emit()
}

func (c *Checker) reportBorrowConflict(place mir.Place, kind mir.BorrowKind, existing *LoanInfo, span source.Span) {
	name := place.Format(c.fn)
	b := c.reportError(BorrowConflict(place.Local, kind), span,
		fmt.Sprintf("cannot borrow `%s` as %s because it is already borrowed as %s", name, kind, existing.Kind)).
		WithPrimaryLabel(fmt.Sprintf("%s borrow occurs here", kind))
	if !existing.Origin.IsZero() {
		b = b.WithLabel(existing.Origin, fmt.Sprintf("%s borrow of `%s` starts here", existing.Kind, existing.Place.Format(c.fn)))
	}
	b.Emit()
}

func (c *Checker) reportBlocked(tag ErrorTag, place mir.Place, existing *LoanInfo, span source.Span, action string) {
	name := place.Format(c.fn)
	b := c.reportError(keyOf(tag, place.Local), span,
		fmt.Sprintf("cannot %s `%s` because it is borrowed", action, name)).
		WithPrimaryLabel(fmt.Sprintf("`%s` is %s here while borrowed", name, pastTense(action)))
	if !existing.Origin.IsZero() {
		b = b.WithLabel(existing.Origin, fmt.Sprintf("%s borrow of `%s` starts here", existing.Kind, existing.Place.Format(c.fn)))
	}
	if existing.Owner.Kind == OwnerEvent {
		b = b.WithNote(existing.Origin, fmt.Sprintf("borrowed by device work completing on `%s`", c.localName(existing.Owner.Local)))
	}
	b.Emit()
}

func pastTense(action string) string {
	switch action {
	case "move out of":
		return "moved"
	case "assign to":
		return "assigned"
	default:
		return action + "ed"
	}
}
