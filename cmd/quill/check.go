package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/diag"
	"quill/internal/diagfmt"
	"quill/internal/driver"
	"quill/internal/observ"
	"quill/internal/project"
	"quill/internal/source"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.mir.toml|file.mirpack|directory>...",
	Short: "Check MIR documents for ownership and borrowing errors",
	Long: `Check runs the local facts, borrow, stack escape and device checks over
every function of the given MIR documents, or every document below the
given directories`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	checkCmd.Flags().Int("jobs", 0, "max parallel function checks (0 = from quill.toml, then auto)")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	checkCmd.Flags().Bool("watch", false, "re-check when documents, sources or quill.toml change")
	checkCmd.Flags().Bool("emit-loans", false, "print the loan event log and region table of every function")
	checkCmd.Flags().Bool("emit-mir", false, "print the decoded MIR of every module")
	checkCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	checkCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	checkCmd.Flags().StringSlice("allow", nil, "diagnostic codes to suppress, e.g. LCL0004")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("preview", false, "show how suggested fixes change the source")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("no-cache", false, "ignore the result cache configured in quill.toml")
	checkCmd.Flags().Int("max-block-visits", 0, "per-block visit cap of the dataflow walk (0 = default)")
}

// checkSettings is everything runCheck resolved from flags and quill.toml.
type checkSettings struct {
	args     []string
	manifest *project.Manifest
	opts     driver.Options

	format    string
	ui        uiMode
	watch     bool
	emitLoans bool
	emitMIR   bool
	timings   io.Writer

	pretty diagfmt.PrettyOpts
	json   diagfmt.JSONOpts
}

// runCheck executes the "check" command. Diagnostics go to stdout; the
// command fails with errChecksFailed when any error survived filtering.
func runCheck(cmd *cobra.Command, args []string) error {
	s, err := readCheckSettings(cmd, args)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, s.manifest.Config.Trace)
	if err != nil {
		return err
	}
	defer cleanup()
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	if s.watch {
		return watchAndCheck(cmd, s)
	}
	res, err := checkOnce(cmd.Context(), cmd.OutOrStdout(), s)
	if err != nil {
		return err
	}
	if res.HasErrors() {
		return errChecksFailed
	}
	return nil
}

func readCheckSettings(cmd *cobra.Command, args []string) (*checkSettings, error) {
	s := &checkSettings{args: args}
	flags := cmd.Flags()

	var err error
	if s.format, err = flags.GetString("format"); err != nil {
		return nil, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch s.format {
	case "pretty", "short", "json":
	default:
		return nil, fmt.Errorf("unknown format: %s", s.format)
	}
	uiStr, err := flags.GetString("ui")
	if err != nil {
		return nil, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if s.ui, err = readUIMode(uiStr); err != nil {
		return nil, err
	}

	s.manifest, err = loadManifest(cmd, args[0])
	if err != nil {
		return nil, err
	}
	s.opts, err = driver.OptionsFromConfig(s.manifest.Config)
	if err != nil {
		return nil, err
	}
	if err := applyCheckFlags(cmd, &s.opts); err != nil {
		return nil, err
	}
	if s.opts.NoWarnings && s.opts.WarningsAsErrors {
		return nil, fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}

	bools := map[string]*bool{
		"watch":      &s.watch,
		"emit-loans": &s.emitLoans,
		"emit-mir":   &s.emitMIR,
	}
	for name, dst := range bools {
		if *dst, err = flags.GetBool(name); err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
	}
	s.opts.EmitLoans = s.emitLoans

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if showTimings {
		s.timings = cmd.ErrOrStderr()
	}

	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	if s.opts.Cache, err = openCache(s.manifest, noCache); err != nil {
		return nil, fmt.Errorf("failed to open result cache: %w", err)
	}

	withNotes, _ := flags.GetBool("with-notes")
	suggest, _ := flags.GetBool("suggest")
	preview, _ := flags.GetBool("preview")
	fullPath, _ := flags.GetBool("fullpath")
	colored, err := useColor(cmd)
	if err != nil {
		return nil, err
	}
	pathMode := diagfmt.PathModeRelative
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	s.pretty = diagfmt.PrettyOpts{
		Color:       colored,
		Context:     1,
		PathMode:    pathMode,
		ShowNotes:   withNotes,
		ShowFixes:   suggest || preview,
		ShowPreview: preview,
		Summary:     true,
	}
	s.json = diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         pathMode,
		IncludeNotes:     withNotes,
		IncludeFixes:     suggest || preview,
		IncludePreviews:  preview,
	}
	return s, nil
}

// applyCheckFlags lays explicitly set flags over the quill.toml options.
func applyCheckFlags(cmd *cobra.Command, opts *driver.Options) error {
	flags := cmd.Flags()
	if flags.Changed("jobs") {
		jobs, err := flags.GetInt("jobs")
		if err != nil {
			return fmt.Errorf("failed to get jobs flag: %w", err)
		}
		opts.Jobs = jobs
	}
	if maxDiags, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	} else if maxDiags > 0 {
		opts.MaxDiagnostics = maxDiags
	}
	if flags.Changed("no-warnings") {
		opts.NoWarnings, _ = flags.GetBool("no-warnings")
	}
	if flags.Changed("warnings-as-errors") {
		opts.WarningsAsErrors, _ = flags.GetBool("warnings-as-errors")
	}
	if flags.Changed("max-block-visits") {
		opts.MaxBlockVisits, _ = flags.GetInt("max-block-visits")
	}
	allow, err := flags.GetStringSlice("allow")
	if err != nil {
		return fmt.Errorf("failed to get allow flag: %w", err)
	}
	for _, id := range allow {
		code, ok := diag.ParseCode(id)
		if !ok {
			return fmt.Errorf("--allow: unknown diagnostic code %q", id)
		}
		opts.Allow = append(opts.Allow, code)
	}
	return nil
}

// collectDocuments expands every argument into the MIR documents it names.
func collectDocuments(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		found, err := project.CollectInputs(arg)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no MIR documents found under %s", arg)
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

// checkOnce runs one full check and prints the result.
func checkOnce(ctx context.Context, out io.Writer, s *checkSettings) (*driver.RunResult, error) {
	var timer *observ.Timer
	if s.timings != nil {
		timer = observ.NewTimer()
		defer func() { _, _ = timer.WriteTo(s.timings) }()
	}

	endCollect := timer.Begin("collect")
	paths, err := collectDocuments(s.args)
	if err != nil {
		return nil, err
	}
	endCollect(fmt.Sprintf("%d documents", len(paths)))
	base := s.manifest.Root
	if base == "" {
		if base, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	fs := source.NewFileSetWithBase(base)

	var res *driver.RunResult
	if shouldUseTUI(s.ui, s.format) {
		res, err = runWithUI(ctx, out, "checking "+strings.Join(displayArgs(s.args, base), ", "), paths, fs, s.opts)
	} else {
		opts := s.opts
		res, err = driver.Run(ctx, paths, fs, &opts)
	}
	if err != nil {
		return res, err
	}
	timer.Add("check", res.Elapsed, fmt.Sprintf("%d modules", len(res.Modules)))

	endRender := timer.Begin("render")
	defer endRender(s.format)
	if s.emitMIR {
		if err := emitMIR(out, res); err != nil {
			return res, err
		}
	}
	if s.emitLoans {
		emitLoans(out, res)
	}
	return res, render(out, res, s)
}

func render(out io.Writer, res *driver.RunResult, s *checkSettings) error {
	switch s.format {
	case "pretty":
		diagfmt.Pretty(out, res.Bag, res.FileSet, s.pretty)
	case "short":
		diagfmt.Short(out, res.Bag, res.FileSet, s.pretty.PathMode)
	case "json":
		if err := diagfmt.JSON(out, res.Bag, res.FileSet, s.json); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	}
	return nil
}

func displayArgs(args []string, base string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = project.DisplayPath(a, base)
	}
	return out
}

// watchAndCheck re-runs the check on every relevant change until the
// command context is cancelled.
func watchAndCheck(cmd *cobra.Command, s *checkSettings) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	s.ui = uiModeOff

	roots := make([]string, 0, len(s.args))
	for _, a := range s.args {
		roots = append(roots, filepath.Clean(a))
	}
	w, err := driver.NewWatcher(roots, driver.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	run := func() {
		if _, err := checkOnce(ctx, out, s); err != nil && ctx.Err() == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "quill: %v\n", err)
		}
		fmt.Fprintln(out, "watching for changes, press Ctrl+C to stop")
	}
	run()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-w.Errors():
				fmt.Fprintf(cmd.ErrOrStderr(), "quill: watch: %v\n", err)
			}
		}
	}()

	err = w.Run(ctx, func(changed []string) {
		fmt.Fprintf(out, "\n%d file(s) changed, re-checking\n", len(changed))
		run()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
