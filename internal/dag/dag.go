package dag

import (
	"fmt"
)

// New creates a graph with n nodes numbered 0..n-1 and no edges.
func New(n int) *Graph {
	return &Graph{deps: make([][]int, n)}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.deps) }

// AddEdge records that node depends on dep. Self-references are accepted and
// ignored by Sort.
func (g *Graph) AddEdge(node, dep int) error {
	if node < 0 || node >= len(g.deps) {
		return fmt.Errorf("node not found: %d", node)
	}
	if dep < 0 || dep >= len(g.deps) {
		return fmt.Errorf("dependency node not found: %d", dep)
	}
	g.deps[node] = append(g.deps[node], dep)
	return nil
}

// Dependencies returns the nodes the given node depends on.
func (g *Graph) Dependencies(node int) []int {
	return g.deps[node]
}

// Sort returns every node exactly once, each one right after all the nodes
// reachable through its dependencies. Roots are taken in node order and
// dependencies in insertion order, so the result is deterministic.
func (g *Graph) Sort() []int {
	n := len(g.deps)
	out := make([]int, 0, n)
	visited := newBitset(n)
	var stack []frame

	for root := range n {
		if visited.has(root) {
			continue
		}
		visited.set(root)
		stack = append(stack, frame{node: root})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.deps[top.node]
			if top.next < len(deps) {
				dep := deps[top.next]
				top.next++
				if !visited.has(dep) {
					visited.set(dep)
					stack = append(stack, frame{node: dep})
				}
				continue
			}
			out = append(out, top.node)
			stack = stack[:len(stack)-1]
		}
	}
	return out
}

// DetectCycles checks the graph for any cycles. It returns the nodes of the
// first cycle found, in dependency order, or nil.
func (g *Graph) DetectCycles() []int {
	const (
		unvisited = iota
		onStack
		done
	)
	n := len(g.deps)
	state := make([]uint8, n)
	var stack []frame

	for root := range n {
		if state[root] != unvisited {
			continue
		}
		state[root] = onStack
		stack = append(stack[:0], frame{node: root})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.deps[top.node]
			if top.next == len(deps) {
				state[top.node] = done
				stack = stack[:len(stack)-1]
				continue
			}
			dep := deps[top.next]
			top.next++
			switch state[dep] {
			case unvisited:
				state[dep] = onStack
				stack = append(stack, frame{node: dep})
			case onStack:
				// The cycle is the part of the stack above dep.
				var cycle []int
				for i := len(stack) - 1; i >= 0; i-- {
					cycle = append(cycle, stack[i].node)
					if stack[i].node == dep {
						break
					}
				}
				return cycle
			}
		}
	}
	return nil
}
