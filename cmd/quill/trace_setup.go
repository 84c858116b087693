package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quill/internal/project"
	"quill/internal/trace"
)

// setupTracing merges the [trace] section of quill.toml with the trace
// flags (flags win) and attaches the tracer to the command context.
// The returned cleanup flushes and closes it; in ring mode it also dumps
// the retained events to stderr.
func setupTracing(cmd *cobra.Command, cfg project.TraceConfig) (func(), error) {
	flags := cmd.Root().PersistentFlags()

	traceOutput, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	if levelStr == "" {
		levelStr = cfg.Level
	}
	if modeStr == "" {
		modeStr = cfg.Mode
	}
	if traceOutput == "" {
		traceOutput = cfg.Output
	}
	// --trace без уровня включает трассировку функций
	if flags.Changed("trace") && (levelStr == "" || levelStr == "off") && !flags.Changed("trace-level") {
		levelStr = "func"
	}
	if levelStr == "" {
		levelStr = "off"
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}
	mode := trace.ModeStream
	if modeStr != "" {
		if mode, err = trace.ParseMode(modeStr); err != nil {
			return nil, fmt.Errorf("invalid trace mode: %w", err)
		}
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func() {
		if mode == trace.ModeRing {
			if ring, ok := tracer.(*trace.RingTracer); ok {
				dumpFormat := trace.FormatText
				if format == trace.FormatNDJSON {
					dumpFormat = format
				}
				if err := ring.Dump(os.Stderr, dumpFormat); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
				}
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}
