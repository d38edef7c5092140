// Package graph holds the concept graph of one compilation.
//
// Concepts live in an append-only arena and are addressed by
// concept.Handle. The graph deduplicates concepts by identity and binds
// reference members to their targets as soon as both ends are present.
// References to concepts that do not exist yet wait in a side table until a
// later Add supplies the target; Strict turns whatever is still waiting into
// an error once no more concepts can appear.
//
// A Graph is not safe for concurrent mutation. Once compilation finishes the
// graph is only read, and any number of goroutines may share it.
package graph
