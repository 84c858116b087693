package driver

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"quill/internal/diag"
	"quill/internal/mirio"
	"quill/internal/source"
	"quill/internal/trace"
)

// RunResult is the outcome of checking a list of documents.
type RunResult struct {
	FileSet *source.FileSet
	Modules []*ModuleResult
	// Bag merges every module bag in input order under one cap.
	Bag     *diag.Bag
	Elapsed time.Duration
}

// HasErrors reports whether any error survived filtering.
func (r *RunResult) HasErrors() bool {
	return r != nil && r.Bag != nil && r.Bag.HasErrors()
}

// Run loads and checks each document in paths, in order. Documents that
// cannot be loaded produce a MIR0001 diagnostic instead of failing the run;
// the returned error is reserved for cancellation.
func Run(ctx context.Context, paths []string, fs *source.FileSet, opts *Options) (*RunResult, error) {
	if opts == nil {
		opts = &Options{}
	}
	if fs == nil {
		fs = source.NewFileSet()
	}
	started := time.Now()
	tracer := trace.FromContext(ctx)
	runSpan := trace.Begin(tracer, trace.ScopeRun, "check", trace.SpanFromContext(ctx))
	ctx = trace.WithSpan(ctx, runSpan)

	res := &RunResult{FileSet: fs, Bag: diag.NewBag(opts.MaxDiagnostics)}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			runSpan.End("cancelled")
			return res, err
		}
		mr, err := checkPath(ctx, path, fs, opts)
		if err != nil {
			runSpan.End("cancelled")
			return res, err
		}
		res.Modules = append(res.Modules, mr)
		res.Bag.Merge(mr.Bag)
	}
	res.Elapsed = time.Since(started)
	runSpan.With("modules", strconv.Itoa(len(paths))).
		With("diagnostics", strconv.Itoa(res.Bag.Len())).
		End("")
	return res, nil
}

func checkPath(ctx context.Context, path string, fs *source.FileSet, opts *Options) (*ModuleResult, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return loadFailure(path, fs, opts, err), nil
	}
	doc, err := mirio.DecodeBytes(path, data)
	if err != nil {
		return loadFailure(path, fs, opts, err), nil
	}
	unit, err := mirio.FromDocument(path, doc, fs)
	if err != nil {
		return loadFailure(path, fs, opts, err), nil
	}

	useCache := opts.Cache != nil && !opts.EmitLoans
	key := CacheKey(data, fs.Get(unit.Module.File))
	if useCache {
		funcs, ok, cacheErr := opts.Cache.Get(key, unit.Module.File)
		if cacheErr != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopeModule, "cache", "read failed: "+cacheErr.Error(), trace.SpanFromContext(ctx))
		}
		if ok && len(funcs) == len(unit.Module.Funcs) {
			opts.Observer.emit(ProgressEvent{Module: unit.Module.Name, Status: ProgressCached})
			return &ModuleResult{
				Path:   path,
				Module: unit.Module,
				Types:  unit.Types,
				Funcs:  funcs,
				Bag:    opts.merge(funcs),
				Cached: true,
			}, nil
		}
	}

	mr, err := CheckModule(ctx, unit.Module, unit.Types, opts)
	if err != nil {
		return nil, err
	}
	mr.Path = path
	if useCache {
		if putErr := opts.Cache.Put(key, mr.Funcs); putErr != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopeModule, "cache", "write failed: "+putErr.Error(), trace.SpanFromContext(ctx))
		}
	}
	return mr, nil
}

// loadFailure reports a document that never became a module.
func loadFailure(path string, fs *source.FileSet, opts *Options, err error) *ModuleResult {
	file := fs.AddVirtual(path, nil)
	d := diag.NewError(diag.MirMalformed, source.Span{File: file}, fmt.Sprintf("cannot load MIR document: %v", err))
	fr := FuncResult{Name: path, Diagnostics: []diag.Diagnostic{d}, Malformed: true}
	return &ModuleResult{Path: path, Funcs: []FuncResult{fr}, Bag: opts.merge([]FuncResult{fr})}
}
