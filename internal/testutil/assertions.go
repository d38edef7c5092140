package testutil

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/conceptc/internal/compiler"
	"github.com/vk/conceptc/internal/concept"
)

// Keys returns the sorted keys of every concept in a result.
func Keys(result *compiler.Result) []string {
	out := make([]string, 0, result.Graph.Len())
	for _, c := range result.Graph.Instances() {
		out = append(out, c.Key())
	}
	sort.Strings(out)
	return out
}

// AssertTopological checks that every concept comes after the targets of its
// references, except along references that close a cycle.
func AssertTopological(t *testing.T, result *compiler.Result) {
	t.Helper()
	require.Len(t, result.Order, result.Graph.Len())

	pos := make(map[concept.Handle]int, len(result.Order))
	for i, h := range result.Order {
		_, dup := pos[h]
		require.False(t, dup, "concept %s appears twice", result.Graph.Instance(h).Key())
		pos[h] = i
	}
	for _, c := range result.Graph.Instances() {
		for i, m := range c.Desc.AllMembers() {
			if !m.IsReference() {
				continue
			}
			target := c.Values[i].Ref
			require.NotEqual(t, concept.NoHandle, target, "%s.%s is not resolved", c.Key(), m.Name)
			if reachable(result, target, c.Handle) {
				continue
			}
			assert.Less(t, pos[target], pos[c.Handle], "%s must precede %s", result.Graph.Instance(target).Key(), c.Key())
		}
	}
}

// reachable reports whether to can be reached from from through references.
func reachable(result *compiler.Result, from, to concept.Handle) bool {
	seen := map[concept.Handle]bool{from: true}
	stack := []concept.Handle{from}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h == to {
			return true
		}
		c := result.Graph.Instance(h)
		for i, m := range c.Desc.AllMembers() {
			if ref := c.Values[i].Ref; m.IsReference() && ref != concept.NoHandle && !seen[ref] {
				seen[ref] = true
				stack = append(stack, ref)
			}
		}
	}
	return false
}
