package graph

import (
	"github.com/vk/conceptc/internal/concept"
)

type view struct {
	g *Graph
	c *concept.Instance
}

func (v view) Handle() concept.Handle { return v.c.Handle }
func (v view) Type() string { return v.c.Type() }
func (v view) Descriptor() *concept.Descriptor { return v.c.Desc }
func (v view) Is(typeName string) bool { return v.c.Desc.Is(typeName) }
func (v view) Key() string { return v.c.Key() }
func (v view) Identity() string { return v.c.Identity() }
func (v view) Path() string { return v.c.Path() }
func (v view) Description() string { return v.c.Description() }
func (v view) Get(member string) string { return v.c.Get(member) }
func (v view) Origin() string { return v.c.Origin }
func (v view) String() string { return v.c.Key() }

func (v view) Ref(member string) (concept.View, bool) {
	i := v.c.Desc.MemberIndex(member)
	if i < 0 || !v.c.Desc.AllMembers()[i].IsReference() {
		return nil, false
	}
	h := v.c.Values[i].Ref
	if h == concept.NoHandle {
		return nil, false
	}
	return v.g.At(h), true
}

// View returns read-only access to the whole graph.
func (g *Graph) View() concept.GraphView { return g }

// Len returns the number of concepts.
func (g *Graph) Len() int { return len(g.arena) }

// At returns a view of the concept at h.
func (g *Graph) At(h concept.Handle) concept.View {
	return view{g: g, c: g.arena[h]}
}

// Lookup finds a concept by key.
func (g *Graph) Lookup(key string) (concept.View, bool) {
	h, ok := g.byKey[key]
	if !ok {
		return nil, false
	}
	return g.At(h), true
}

// LookupIdentity finds a concept by identity.
func (g *Graph) LookupIdentity(identity string) (concept.View, bool) {
	h, ok := g.byIdentity[identity]
	if !ok {
		return nil, false
	}
	return g.At(h), true
}

// OfType lists the concepts of a type or its derived types, in handle order.
func (g *Graph) OfType(typeName string) []concept.View {
	handles := g.byType[typeName]
	out := make([]concept.View, len(handles))
	for i, h := range handles {
		out[i] = g.At(h)
	}
	return out
}

// Referencing lists the concepts with a reference bound to h, in the order
// the references were bound.
func (g *Graph) Referencing(h concept.Handle) []concept.View {
	handles := g.incoming[h]
	out := make([]concept.View, 0, len(handles))
	seen := make(map[concept.Handle]struct{}, len(handles))
	for _, from := range handles {
		if _, dup := seen[from]; dup {
			continue
		}
		seen[from] = struct{}{}
		out = append(out, g.At(from))
	}
	return out
}

// Descriptor returns a registered concept type.
func (g *Graph) Descriptor(typeName string) (*concept.Descriptor, bool) {
	return g.types.Descriptor(typeName)
}
