// Package compiler wires the stages of a compilation together:
//
//	sources → tokens → parsed concepts → graph → macro fixpoint
//	        → strict resolution → validation → dependency order
//
// Every stage runs synchronously in the caller's goroutine. Lazy wraps a
// compilation so that concurrent callers share a single build.
package compiler
