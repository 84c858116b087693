// Package borrowck checks MIR functions for initialization, mutability and
// borrow violations.
//
// The checker walks reachable blocks in reverse postorder, joining the
// states of already visited predecessors, and re-visits blocks until their
// exit states stop changing. Loans live in a per-path ledger; regions are
// shared by all paths of one function and remember where they opened and
// first closed. Device work adds Shared loans that end only when their
// completion handle is waited on or dies.
//
// A Checker is single-use and not safe for concurrent use. Independent
// functions may be checked in parallel with separate checkers.
package borrowck
