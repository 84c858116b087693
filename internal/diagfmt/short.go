package diagfmt

import (
	"fmt"
	"io"

	"quill/internal/diag"
	"quill/internal/source"
)

// Short пишет по одной строке на диагностику:
// <path>:<line>:<col>: <sev> <CODE>: <Message>
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode) {
	if bag == nil {
		return
	}
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s: %s %s: %s\n", location(fs, d.Primary, mode), d.Severity.Word(), d.Code.ID(), d.Message)
	}
}
