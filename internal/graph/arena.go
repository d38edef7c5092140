package graph

import (
	"fmt"

	"github.com/vk/conceptc/internal/concept"
)

// FromArena rebuilds a graph around an arena whose handles and reference
// bindings were stored earlier, e.g. by a snapshot. Instances keep their
// identity: the graph adopts the given pointers. A bound reference must
// point at a concept of the member's type whose identity matches the stored
// path.
func FromArena(types Types, arena []*concept.Instance) (*Graph, error) {
	g := New(types)
	for i, c := range arena {
		if c.Handle != concept.Handle(i) {
			return nil, fmt.Errorf("concept '%s' has handle %d at arena position %d", c.Key(), c.Handle, i)
		}
		identity := c.Identity()
		if _, dup := g.byIdentity[identity]; dup {
			return nil, fmt.Errorf("arena holds '%s' twice", identity)
		}
		g.arena = append(g.arena, c)
		g.missing = append(g.missing, 0)
		g.byKey[c.Key()] = c.Handle
		g.byIdentity[identity] = c.Handle
		for _, name := range c.Desc.Lineage() {
			g.byType[name] = append(g.byType[name], c.Handle)
		}
	}

	for _, c := range g.arena {
		for i, m := range c.Desc.AllMembers() {
			if !m.IsReference() {
				continue
			}
			ref := c.Values[i].Ref
			if ref == concept.NoHandle {
				target, err := g.targetIdentity(c, i)
				if err != nil {
					return nil, err
				}
				g.waiting[target] = append(g.waiting[target], waiter{h: c.Handle, member: i})
				g.missing[c.Handle]++
				continue
			}
			if int(ref) < 0 || int(ref) >= len(g.arena) {
				return nil, fmt.Errorf("member '%s' of '%s' points outside the arena", m.Name, c.Key())
			}
			target := g.arena[ref]
			if !target.Desc.Is(m.Type) {
				return nil, fmt.Errorf("member '%s' of '%s' is bound to '%s' which is not a %s", m.Name, c.Key(), target.Key(), m.Type)
			}
			if want, err := g.targetIdentity(c, i); err != nil {
				return nil, err
			} else if want != target.Identity() {
				return nil, fmt.Errorf("member '%s' of '%s' names '%s' but is bound to '%s'", m.Name, c.Key(), want, target.Identity())
			}
			g.incoming[ref] = append(g.incoming[ref], c.Handle)
		}
	}
	return g, nil
}
