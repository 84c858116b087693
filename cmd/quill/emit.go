package main

import (
	"fmt"
	"io"

	"quill/internal/driver"
	"quill/internal/mir"
)

// emitMIR prints every decoded module; documents that failed to load have
// no module and are skipped.
func emitMIR(out io.Writer, res *driver.RunResult) error {
	for _, mr := range res.Modules {
		if mr.Module == nil {
			continue
		}
		fmt.Fprintf(out, "== MIR %s ==\n", mr.Path)
		if err := mir.DumpModule(out, mr.Module, mr.Types, mir.DumpOptions{Spans: true}); err != nil {
			return fmt.Errorf("failed to dump MIR: %w", err)
		}
		fmt.Fprintln(out)
	}
	return nil
}

// emitLoans prints the loan event log and the final region table of each
// checked function.
func emitLoans(out io.Writer, res *driver.RunResult) {
	for _, mr := range res.Modules {
		for i := range mr.Funcs {
			fr := &mr.Funcs[i]
			if fr.Malformed {
				continue
			}
			fmt.Fprintf(out, "== LOANS %s ==\n", fr.Name)
			for _, ev := range fr.Events {
				fmt.Fprintf(out, "  %s\n", ev)
			}
			if len(fr.Regions) > 0 {
				fmt.Fprintln(out, "  regions:")
			}
			for _, r := range fr.Regions {
				end := "open"
				if r.End != nil {
					end = r.End.String()
				}
				fmt.Fprintf(out, "    r%d %s..%s loans=%v\n", r.ID, r.Start, end, r.Loans)
			}
			if fr.Capped {
				fmt.Fprintln(out, "  (block visit cap reached)")
			}
		}
	}
}
