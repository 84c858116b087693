package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quill/internal/diag"
)

var explainCmd = &cobra.Command{
	Use:   "explain <CODE>",
	Short: "Describe a diagnostic code such as BRW0001",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, ok := diag.ParseCode(args[0])
		if !ok {
			return fmt.Errorf("unknown diagnostic code %q", args[0])
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s\n\n%s\n", code.ID(), code.Title(), code.Explain())
		return nil
	},
}
