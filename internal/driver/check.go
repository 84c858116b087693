package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"quill/internal/borrowck"
	"quill/internal/diag"
	"quill/internal/mir"
	"quill/internal/source"
	"quill/internal/trace"
	"quill/internal/types"
)

// FuncResult is the outcome for one function, before filtering.
type FuncResult struct {
	Name        string
	Diagnostics []diag.Diagnostic
	Events      []borrowck.Event
	Regions     []borrowck.RegionEntry
	Elapsed     time.Duration
	Capped      bool
	// Malformed is set when structural validation failed and the
	// function was not checked.
	Malformed bool
}

// ModuleResult collects the function results of one module in declaration
// order, plus the filtered and capped bag built from them.
type ModuleResult struct {
	Path   string
	Module *mir.Module
	Types  *types.Interner
	Funcs  []FuncResult
	Bag    *diag.Bag
	Cached bool
}

// CheckModule checks every function of m in parallel. Results land in
// per-index slots and are merged in function order, so the output does not
// depend on scheduling. Cancellation is observed between functions only.
func CheckModule(ctx context.Context, m *mir.Module, in *types.Interner, opts *Options) (*ModuleResult, error) {
	if opts == nil {
		opts = &Options{}
	}
	res := &ModuleResult{Module: m, Types: in, Funcs: make([]FuncResult, len(m.Funcs))}

	tracer := trace.FromContext(ctx)
	modSpan := trace.Begin(tracer, trace.ScopeModule, "module "+m.Name, trace.SpanFromContext(ctx))
	defer func() {
		modSpan.With("funcs", strconv.Itoa(len(m.Funcs))).End("")
	}()

	for _, f := range m.Funcs {
		opts.Observer.emit(ProgressEvent{Module: m.Name, Func: f.Name, Status: ProgressQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(m.Funcs))))

	for i, f := range m.Funcs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			opts.Observer.emit(ProgressEvent{Module: m.Name, Func: f.Name, Status: ProgressStarted})
			// индекс i уникален для горутины, мьютекс не нужен
			res.Funcs[i] = checkFunc(tracer, modSpan.ID(), f, in, opts)
			fr := &res.Funcs[i]
			opts.Observer.emit(ProgressEvent{
				Module:      m.Name,
				Func:        f.Name,
				Status:      ProgressDone,
				Elapsed:     fr.Elapsed,
				Diagnostics: len(fr.Diagnostics),
				Errors:      countErrors(fr.Diagnostics),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Bag = opts.merge(res.Funcs)
	return res, nil
}

func checkFunc(tracer trace.Tracer, parent uint64, f *mir.Func, in *types.Interner, opts *Options) FuncResult {
	span := trace.Begin(tracer, trace.ScopeFunc, "fn "+f.Name, parent)
	started := time.Now()

	if err := mir.ValidateFunc(f, in); err != nil {
		d := malformed(f, err)
		span.With("malformed", "true").End("")
		return FuncResult{Name: f.Name, Diagnostics: []diag.Diagnostic{d}, Elapsed: time.Since(started), Malformed: true}
	}

	r := borrowck.Check(f, borrowck.Options{
		Types:          in,
		Tracer:         tracer,
		SpanID:         span.ID(),
		MaxBlockVisits: opts.MaxBlockVisits,
	})
	out := FuncResult{
		Name:        f.Name,
		Diagnostics: r.Diagnostics,
		Elapsed:     time.Since(started),
		Capped:      r.Capped,
	}
	if opts.EmitLoans {
		out.Events = r.Events
		out.Regions = r.Regions
	}
	span.With("diagnostics", strconv.Itoa(len(r.Diagnostics))).End("")
	return out
}

// malformed turns a validation error into a MIR0001 diagnostic at the
// function's span, one note per violated invariant.
func malformed(f *mir.Func, err error) diag.Diagnostic {
	d := diag.NewError(diag.MirMalformed, f.Span, fmt.Sprintf("%s: malformed MIR, function not checked", f.Name))
	for _, line := range errorLines(err) {
		d = d.WithNote(source.Span{}, line)
	}
	return d
}

func errorLines(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, errorLines(e)...)
		}
		return out
	}
	return strings.Split(err.Error(), "\n")
}

// merge filters, promotes and caps the function results in order.
func (o *Options) merge(funcs []FuncResult) *diag.Bag {
	bag := diag.NewBag(o.MaxDiagnostics)
	for i := range funcs {
		for _, d := range funcs[i].Diagnostics {
			if !o.keep(&d) {
				continue
			}
			bag.Add(o.promote(d))
		}
	}
	return bag
}

func countErrors(ds []diag.Diagnostic) int {
	n := 0
	for i := range ds {
		if ds[i].Severity >= diag.SevError {
			n++
		}
	}
	return n
}
