package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"quill/internal/diagfmt"
)

const sampleDoc = "testdata/sample.mir.toml"

// resetFlags возвращает флаги к значениям по умолчанию: rootCmd глобален.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeWithStderr(t, args...)
	return out, err
}

func executeWithStderr(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCheckShort(t *testing.T) {
	out, err := execute(t, "check", "--format", "short", "--ui", "off", "--color", "off", sampleDoc)
	if !errors.Is(err, errChecksFailed) {
		t.Fatalf("expected errChecksFailed, got %v", err)
	}
	for _, want := range []string{
		"sample.q:4:13: error BRW0001: f: cannot borrow `x` as shared because it is already borrowed as unique",
		"sample.q:8:5: error LCL0001: g: use of possibly uninitialized `y`",
		"sample.q:12:12: warning LCL0004: h: dereference of `p`, which is null here",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestCheckPrettySummary(t *testing.T) {
	out, err := execute(t, "check", "--ui", "off", "--color", "off", sampleDoc)
	if !errors.Is(err, errChecksFailed) {
		t.Fatalf("expected errChecksFailed, got %v", err)
	}
	if !strings.Contains(out, "error[BRW0001]") || !strings.HasSuffix(out, "2 errors, 1 warning\n") {
		t.Fatalf("unexpected pretty output:\n%s", out)
	}
}

func TestCheckJSON(t *testing.T) {
	out, err := execute(t, "check", "--format", "json", sampleDoc)
	if !errors.Is(err, errChecksFailed) {
		t.Fatalf("expected errChecksFailed, got %v", err)
	}
	var payload diagfmt.DiagnosticsOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if payload.Count != 3 || payload.Errors != 2 || payload.Warnings != 1 {
		t.Fatalf("unexpected counters: %+v", payload)
	}
}

func TestCheckAllowAndWarnings(t *testing.T) {
	out, err := execute(t, "check", "--format", "short", "--ui", "off",
		"--allow", "BRW0001", "--allow", "lcl0001", sampleDoc)
	if err != nil {
		t.Fatalf("warnings alone must not fail the check: %v\n%s", err, out)
	}
	if strings.Contains(out, "BRW0001") || !strings.Contains(out, "LCL0004") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	_, err = execute(t, "check", "--format", "short", "--ui", "off",
		"--allow", "BRW0001,LCL0001", "--warnings-as-errors", sampleDoc)
	if !errors.Is(err, errChecksFailed) {
		t.Fatalf("promoted warning must fail the check, got %v", err)
	}

	_, err = execute(t, "check", "--no-warnings", "--warnings-as-errors", sampleDoc)
	if err == nil || errors.Is(err, errChecksFailed) {
		t.Fatalf("conflicting flags must be rejected, got %v", err)
	}

	_, err = execute(t, "check", "--allow", "XYZ0001", sampleDoc)
	if err == nil || !strings.Contains(err.Error(), "XYZ0001") {
		t.Fatalf("unknown code must be rejected, got %v", err)
	}
}

func TestCheckUsesConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "quill.toml")
	data := "[check]\nallow = [\"LCL0004\"]\nmax_diagnostics = 1\n"
	if err := os.WriteFile(cfg, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "check", "--config", cfg, "--ui", "off", "--color", "off", sampleDoc)
	if !errors.Is(err, errChecksFailed) {
		t.Fatalf("expected errChecksFailed, got %v", err)
	}
	if strings.Contains(out, "LCL0004") {
		t.Fatalf("allowed code leaked into output:\n%s", out)
	}
	if !strings.Contains(out, "1 error (1 more not shown)") {
		t.Fatalf("max_diagnostics not applied:\n%s", out)
	}
}

func TestCheckEmitLoans(t *testing.T) {
	out, _ := execute(t, "check", "--format", "short", "--ui", "off", "--emit-loans", "--emit-mir", sampleDoc)
	for _, want := range []string{"== MIR testdata/sample.mir.toml ==", "module sample funcs=3", "== LOANS f ==", "regions:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestCheckMissingInput(t *testing.T) {
	_, err := execute(t, "check", "--ui", "off", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no MIR documents") {
		t.Fatalf("expected missing-input error, got %v", err)
	}
}

func TestPackAndCheckPacked(t *testing.T) {
	packed := filepath.Join(t.TempDir(), "sample.mirpack")
	if _, err := execute(t, "pack", sampleDoc, packed); err != nil {
		t.Fatalf("pack: %v", err)
	}
	out, err := execute(t, "check", "--format", "short", "--ui", "off", packed)
	if !errors.Is(err, errChecksFailed) {
		t.Fatalf("expected errChecksFailed, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "sample.q:4:13: error BRW0001") {
		t.Fatalf("packed document lost its source:\n%s", out)
	}

	dump, err := execute(t, "dump", packed)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.HasPrefix(dump, "module sample funcs=3\n") {
		t.Fatalf("unexpected dump:\n%s", dump)
	}
}

func TestExplain(t *testing.T) {
	out, err := execute(t, "explain", "brw0001")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "BRW0001: Conflicting borrow\n") {
		t.Fatalf("unexpected explain output:\n%s", out)
	}
	if _, err := execute(t, "explain", "nope"); err == nil {
		t.Fatal("expected error for unknown code")
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json", "--full")
	if err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if payload.Tool != "quill" || payload.Version == "" || payload.GitCommit == "" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestReadUIMode(t *testing.T) {
	cases := map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, " off ": uiModeOff}
	for in, want := range cases {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Error("expected error for invalid mode")
	}
	if shouldUseTUI(uiModeOff, "pretty") || !shouldUseTUI(uiModeOn, "json") {
		t.Error("explicit modes must win")
	}
}

func TestRebaseSource(t *testing.T) {
	got, err := rebaseSource("sample.q", "a/docs", "a/out")
	if err != nil {
		t.Fatal(err)
	}
	if got != "../docs/sample.q" {
		t.Fatalf("rebaseSource = %q", got)
	}
}

func TestCheckTimingsAndProfiles(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.out")
	mem := filepath.Join(dir, "mem.out")

	_, stderr, err := executeWithStderr(t, "check", "--format", "short", "--ui", "off", "--color", "off",
		"--timings", "--cpu-profile", cpu, "--mem-profile", mem, sampleDoc)
	if !errors.Is(err, errChecksFailed) {
		t.Fatalf("expected errChecksFailed, got %v", err)
	}
	for _, want := range []string{"timings:", "collect", "// 1 documents", "check", "render", "// short", "total"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("expected %q in stderr:\n%s", want, stderr)
		}
	}
	for _, path := range []string{cpu, mem} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("profile not written: %v", err)
		}
	}
}
