// Package dag orders the nodes of a dependency graph so that every node comes
// after the nodes it depends on.
//
// Nodes are dense integers, which lets the traversal track visits in a bitset
// and keep its own explicit stack. Graphs with cycles are accepted: on a
// cycle, the node reached first wins and is emitted after the rest of the
// cycle.
package dag
