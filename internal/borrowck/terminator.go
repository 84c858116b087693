package borrowck

import (
	"fmt"

	"quill/internal/mir"
)

func (c *Checker) visitTerminator(term *mir.Terminator) {
	switch term.Kind {
	case mir.TermSwitchInt:
		c.visitOperand(&term.SwitchInt.Discr)
	case mir.TermCall:
		c.callTerminator(&term.Call)
	case mir.TermReturn:
		c.returnTerminator(&term.Return)
	case mir.TermGoto, mir.TermUnreachable, mir.TermNone:
	}
}

// callTerminator checks the arguments, ends the loans scoped to the call
// and records the writes of the destination and out arguments.
func (c *Checker) callTerminator(call *mir.CallTerm) {
	c.visitOperand(&call.Callee)
	var scoped []mir.RegionID
	for i := range call.Args {
		arg := &call.Args[i]
		if arg.Mode == mir.ParamOut {
			c.visitOutOperand(&arg.Value)
		} else {
			c.visitOperand(&arg.Value)
		}
		if arg.Value.Kind == mir.OperandBorrow {
			scoped = append(scoped, arg.Value.Region)
		}
	}
	if len(scoped) > 0 {
		c.release(inRegions(scoped), "call returned")
	}
	for i := range call.Args {
		arg := &call.Args[i]
		if arg.Mode == mir.ParamOut && arg.Value.HasPlace() {
			c.recordAssignment(arg.Value.Place, NullUnknown, StackNone, c.spanOr(arg.Value.Span))
		}
	}
	if call.HasDest {
		c.recordAssignment(call.Dest, NullUnknown, StackNone, c.span)
	}
}

func (c *Checker) returnTerminator(ret *mir.ReturnTerm) {
	if ret.HasValue {
		c.visitOperand(&ret.Value)
		c.checkReturnEscape(&ret.Value)
	}
	for i := range c.fn.Locals {
		id := mir.LocalID(i) //nolint:gosec // local count fits LocalID
		lf := c.state.fact(id)
		if lf.Mode != mir.ParamOut || lf.Init == Init {
			continue
		}
		name := c.localName(id)
		b := c.reportError(keyOf(TagOutParamUnassigned, id), c.span,
			fmt.Sprintf("out parameter `%s` is not assigned on every path to this return", name)).
			WithPrimaryLabel("returning here")
		if decl := c.fn.Locals[i].Span; !decl.IsZero() {
			b = b.WithLabel(decl, "parameter declared here")
		}
		b.Emit()
	}
}
