// Package diag defines the diagnostic model shared by the checker, the MIR
// loader and the CLI.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with a stable string
//     form such as LCL0002. Families: LCL (local facts), BRW (borrows),
//     STK (stack escapes), DEV (device dependencies), MIR (input).
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span and Label – the canonical source.Span and the text shown
//     under it.
//   - Secondary – further labelled spans ("declared here").
//   - Notes – optional spans/messages for additional context.
//   - Fixes – suggestions. A Fix with edits is structural (span + replacement),
//     a Fix without edits is free text.
//
// # Emitting diagnostics
//
// Producers construct a ReportBuilder via ReportError/ReportWarning, chain
// WithPrimaryLabel / WithLabel / WithNote / WithFix and call Emit. BagReporter
// aggregates into a Bag, which supports sorting, deduplication and filtering.
//
// Package diag does not render anything; see internal/diagfmt.
package diag
