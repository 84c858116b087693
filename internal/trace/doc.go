// Package trace records what a quill run did and how long it took.
//
// Events form spans at four scopes: the whole run, each module, each
// function check and, at debug level, every loan and region transition
// inside the borrow checker. A tracer either streams events (text or
// NDJSON) or keeps the most recent ones in a ring for a dump on failure.
//
//	quill check --trace=- --trace-level=func pipeline.mir.toml
package trace
