package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"quill/internal/mir"
	"quill/internal/mirio"
	"quill/internal/source"
)

var packCmd = &cobra.Command{
	Use:   "pack <in.mir.toml> <out.mirpack>",
	Short: "Convert a TOML MIR document to the binary msgpack form",
	Args:  cobra.ExactArgs(2),
	RunE:  runPack,
}

var dumpCmd = &cobra.Command{
	Use:   "dump <file.mir.toml|file.mirpack>",
	Short: "Print the decoded MIR of a document without checking it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().Bool("spans", false, "append statement byte ranges")
}

func runPack(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	doc, err := mirio.ReadDocument(in)
	if err != nil {
		return err
	}
	// проверяем, что документ вообще собирается, прежде чем писать
	if _, err := mirio.FromDocument(in, doc, source.NewFileSet()); err != nil {
		return err
	}
	if doc.Source != "" && !filepath.IsAbs(doc.Source) {
		rebased, err := rebaseSource(doc.Source, filepath.Dir(in), filepath.Dir(out))
		if err != nil {
			return err
		}
		doc.Source = rebased
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := mirio.Pack(doc, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to pack %s: %w", in, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "packed %s -> %s\n", in, out)
	return nil
}

// rebaseSource keeps a document-relative source path valid after the
// document moves from fromDir to toDir.
func rebaseSource(src, fromDir, toDir string) (string, error) {
	abs, err := filepath.Abs(filepath.Join(fromDir, src))
	if err != nil {
		return "", err
	}
	absTo, err := filepath.Abs(toDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absTo, abs)
	if err != nil {
		return abs, nil
	}
	return filepath.ToSlash(rel), nil
}

func runDump(cmd *cobra.Command, args []string) error {
	spans, err := cmd.Flags().GetBool("spans")
	if err != nil {
		return fmt.Errorf("failed to get spans flag: %w", err)
	}
	unit, err := mirio.Load(args[0], source.NewFileSet())
	if err != nil {
		return err
	}
	return mir.DumpModule(cmd.OutOrStdout(), unit.Module, unit.Types, mir.DumpOptions{Spans: spans})
}
