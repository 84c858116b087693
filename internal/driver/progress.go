package driver

import "time"

// ProgressStatus is the stage a function check reports.
type ProgressStatus int

const (
	// ProgressQueued is sent once per function before any check starts.
	ProgressQueued ProgressStatus = iota
	ProgressStarted
	ProgressDone
	// ProgressCached marks a module whose result came from the cache.
	ProgressCached
)

func (s ProgressStatus) String() string {
	switch s {
	case ProgressQueued:
		return "queued"
	case ProgressStarted:
		return "started"
	case ProgressDone:
		return "done"
	case ProgressCached:
		return "cached"
	default:
		return "unknown"
	}
}

// ProgressEvent describes one function check boundary.
type ProgressEvent struct {
	Module      string
	Func        string
	Status      ProgressStatus
	Elapsed     time.Duration
	Diagnostics int
	Errors      int
}

// ProgressObserver receives progress events. It is called from the worker
// goroutines and must be safe for concurrent use.
type ProgressObserver func(ProgressEvent)

func (o ProgressObserver) emit(ev ProgressEvent) {
	if o != nil {
		o(ev)
	}
}
