package driver

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/internal/diag"
	"quill/internal/project"
	"quill/internal/source"
	"quill/internal/trace"
)

const sampleGolden = "error BRW0001 sample.q:4:13 f: cannot borrow `x` as shared because it is already borrowed as unique\n" +
	"error LCL0001 sample.q:8:5 g: use of possibly uninitialized `y`\n" +
	"warning LCL0004 sample.q:12:12 h: dereference of `p`, which is null here"

func testdataPath(t *testing.T, name string) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)
	return abs
}

func runFixture(t *testing.T, opts *Options, names ...string) (*RunResult, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSetWithBase(filepath.Dir(testdataPath(t, "sample.q")))
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = testdataPath(t, n)
	}
	res, err := Run(context.Background(), paths, fs, opts)
	require.NoError(t, err)
	return res, fs
}

func TestRunGolden(t *testing.T) {
	res, fs := runFixture(t, &Options{}, "sample.mir.toml")
	assert.Equal(t, sampleGolden, diag.FormatGoldenDiagnostics(res.Bag.Items(), fs, false))
	assert.True(t, res.HasErrors())
	require.Len(t, res.Modules, 1)
	assert.Len(t, res.Modules[0].Funcs, 3)
}

func TestRunIsDeterministicAcrossJobs(t *testing.T) {
	serial, _ := runFixture(t, &Options{Jobs: 1}, "sample.mir.toml")
	for range 5 {
		parallel, _ := runFixture(t, &Options{Jobs: 8}, "sample.mir.toml")
		require.Equal(t, serial.Bag.Items(), parallel.Bag.Items())
	}
}

func TestFiltering(t *testing.T) {
	t.Run("allow", func(t *testing.T) {
		res, _ := runFixture(t, &Options{Allow: []diag.Code{diag.LclNullDeref}}, "sample.mir.toml")
		assert.Equal(t, 2, res.Bag.Len())
		assert.False(t, res.Bag.HasWarnings())
	})
	t.Run("no warnings", func(t *testing.T) {
		res, _ := runFixture(t, &Options{NoWarnings: true}, "sample.mir.toml")
		assert.Equal(t, 2, res.Bag.Len())
	})
	t.Run("warnings as errors", func(t *testing.T) {
		res, _ := runFixture(t, &Options{WarningsAsErrors: true}, "sample.mir.toml")
		assert.Equal(t, 3, res.Bag.Count(diag.SevError))
		// исходный результат функции не меняется
		assert.Equal(t, diag.SevWarning, res.Modules[0].Funcs[2].Diagnostics[0].Severity)
	})
	t.Run("cap", func(t *testing.T) {
		res, _ := runFixture(t, &Options{MaxDiagnostics: 1}, "sample.mir.toml")
		assert.Equal(t, 1, res.Bag.Len())
		assert.Equal(t, 2, res.Bag.Dropped())
		assert.Equal(t, diag.BrwConflict, res.Bag.Items()[0].Code, "function order is kept")
	})
}

func TestMalformedFunctionIsNotChecked(t *testing.T) {
	res, _ := runFixture(t, &Options{}, "malformed.mir.toml")
	require.Len(t, res.Modules, 1)
	funcs := res.Modules[0].Funcs
	require.Len(t, funcs, 2)
	assert.True(t, funcs[0].Malformed)
	assert.False(t, funcs[1].Malformed)

	items := res.Bag.Items()
	require.Len(t, items, 1)
	assert.Equal(t, diag.MirMalformed, items[0].Code)
	assert.Contains(t, items[0].Message, "jumps_nowhere")
	require.NotEmpty(t, items[0].Notes)
	assert.Contains(t, items[0].Notes[0].Msg, "bb7")
}

func TestLoadFailureBecomesDiagnostic(t *testing.T) {
	res, _ := runFixture(t, &Options{}, "broken.mir.toml", "sample.mir.toml")
	require.Len(t, res.Modules, 2)
	first := res.Bag.Items()[0]
	assert.Equal(t, diag.MirMalformed, first.Code)
	assert.Contains(t, first.Message, "cannot load MIR document")
	assert.Equal(t, 4, res.Bag.Len(), "later documents are still checked")
}

func TestResultCache(t *testing.T) {
	cache, err := OpenResultCache(t.TempDir())
	require.NoError(t, err)
	opts := &Options{Cache: cache}

	first, fs1 := runFixture(t, opts, "sample.mir.toml")
	assert.False(t, first.Modules[0].Cached)
	second, fs2 := runFixture(t, opts, "sample.mir.toml")
	assert.True(t, second.Modules[0].Cached)
	assert.Equal(t,
		diag.FormatGoldenDiagnostics(first.Bag.Items(), fs1, true),
		diag.FormatGoldenDiagnostics(second.Bag.Items(), fs2, true))

	// события займов в кэше не хранятся
	loans, _ := runFixture(t, &Options{Cache: cache, EmitLoans: true}, "sample.mir.toml")
	assert.False(t, loans.Modules[0].Cached)
	assert.NotEmpty(t, loans.Modules[0].Funcs[0].Events)
	assert.NotEmpty(t, loans.Modules[0].Funcs[0].Regions)

	require.NoError(t, cache.DropAll())
	third, _ := runFixture(t, opts, "sample.mir.toml")
	assert.False(t, third.Modules[0].Cached)
}

func TestCacheKeyDependsOnSource(t *testing.T) {
	fs := source.NewFileSet()
	a := fs.AddVirtual("a.q", []byte("fn a() {}"))
	b := fs.AddVirtual("b.q", []byte("fn b() {}"))
	doc := []byte("format = \"1.0\"")
	assert.NotEqual(t, CacheKey(doc, fs.Get(a)), CacheKey(doc, fs.Get(b)))
	assert.Equal(t, CacheKey(doc, fs.Get(a)), CacheKey(doc, fs.Get(a)))
}

func TestProgressEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		counts = map[ProgressStatus]int{}
	)
	opts := &Options{Jobs: 4, Observer: func(ev ProgressEvent) {
		mu.Lock()
		counts[ev.Status]++
		mu.Unlock()
	}}
	runFixture(t, opts, "sample.mir.toml")
	assert.Equal(t, map[ProgressStatus]int{ProgressQueued: 3, ProgressStarted: 3, ProgressDone: 3}, counts)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, []string{testdataPath(t, "sample.mir.toml")}, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunTraceSpans(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelFunc)
	ctx := trace.WithTracer(context.Background(), ring)
	_, err := Run(ctx, []string{testdataPath(t, "sample.mir.toml")}, nil, &Options{})
	require.NoError(t, err)

	begins := map[trace.Scope]int{}
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindBegin {
			begins[ev.Scope]++
		}
		assert.NotEqual(t, trace.ScopeLoan, ev.Scope, "loan events need the debug level")
	}
	assert.Equal(t, map[trace.Scope]int{trace.ScopeRun: 1, trace.ScopeModule: 1, trace.ScopeFunc: 3}, begins)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := project.Default()
	cfg.Check.Jobs = 3
	cfg.Check.Allow = []string{"BRW0001"}
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, opts.Jobs)
	assert.Equal(t, project.DefaultMaxDiagnostics, opts.MaxDiagnostics)
	assert.Equal(t, []diag.Code{diag.BrwConflict}, opts.Allow)

	cfg.Check.Allow = []string{"nope"}
	_, err = OptionsFromConfig(cfg)
	assert.ErrorIs(t, err, project.ErrBadConfig)
}
