package graph

import (
	"context"
	"slices"

	"github.com/vk/conceptc/internal/concept"
	"github.com/vk/conceptc/internal/ctxlog"
	"github.com/vk/conceptc/internal/diag"
)

// Types looks up registered concept types.
type Types interface {
	Descriptor(name string) (*concept.Descriptor, bool)
}

type waiter struct {
	h      concept.Handle
	member int
}

// Graph is the arena of concepts plus its lookup tables.
type Graph struct {
	types Types

	arena      []*concept.Instance
	missing    []int
	byKey      map[string]concept.Handle
	byIdentity map[string]concept.Handle
	byType     map[string][]concept.Handle
	incoming   map[concept.Handle][]concept.Handle

	// waiting maps a target identity to the references that need it.
	waiting map[string][]waiter
}

// New creates an empty graph.
func New(types Types) *Graph {
	return &Graph{
		types:      types,
		byKey:      make(map[string]concept.Handle),
		byIdentity: make(map[string]concept.Handle),
		byType:     make(map[string][]concept.Handle),
		incoming:   make(map[concept.Handle][]concept.Handle),
		waiting:    make(map[string][]waiter),
	}
}

// Add registers a batch of concepts and binds every reference it can. It
// returns, in handle order, the concepts that became resolved: new concepts
// without pending references and earlier concepts whose last pending
// reference was satisfied by this batch.
//
// A concept whose identity is already taken is dropped when its
// description is identical, and is a DuplicateDefinitionError otherwise.
func (g *Graph) Add(ctx context.Context, batch []*concept.Instance) ([]concept.Handle, error) {
	logger := ctxlog.FromContext(ctx)

	var added []concept.Handle
	for _, c := range batch {
		h, isNew, err := g.register(c)
		if err != nil {
			return nil, err
		}
		if isNew {
			added = append(added, h)
		}
	}

	var resolved []concept.Handle
	for _, h := range added {
		if err := g.bindOwn(h); err != nil {
			return nil, err
		}
	}
	for _, h := range added {
		done, err := g.satisfyWaiters(h)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, done...)
	}
	for _, h := range added {
		if g.missing[h] == 0 {
			resolved = append(resolved, h)
		}
	}
	slices.Sort(resolved)
	resolved = slices.Compact(resolved)

	logger.Debug("Concept batch added.", "batch", len(batch), "new", len(added), "resolved", len(resolved), "concepts", len(g.arena))
	return resolved, nil
}

func (g *Graph) register(c *concept.Instance) (concept.Handle, bool, error) {
	identity := c.Identity()
	if h, exists := g.byIdentity[identity]; exists {
		existing := g.arena[h]
		if existing == c {
			return h, false, nil
		}
		if existing.Description() != c.Description() {
			key := c.Key()
			if existing.Type() != c.Type() {
				key = identity
			}
			return concept.NoHandle, false, &diag.DuplicateDefinitionError{
				Key:       key,
				Existing:  existing.Description(),
				Duplicate: c.Description(),
			}
		}
		return h, false, nil
	}

	h := concept.Handle(len(g.arena))
	c.Handle = h
	g.arena = append(g.arena, c)
	g.missing = append(g.missing, 0)
	g.byKey[c.Key()] = h
	g.byIdentity[identity] = h
	for _, name := range c.Desc.Lineage() {
		g.byType[name] = append(g.byType[name], h)
	}
	return h, true, nil
}

// bindOwn binds the references of a newly registered concept whose targets
// already exist and queues the others.
func (g *Graph) bindOwn(h concept.Handle) error {
	c := g.arena[h]
	for _, i := range c.Pending() {
		target, err := g.targetIdentity(c, i)
		if err != nil {
			return err
		}
		th, ok := g.byIdentity[target]
		if !ok {
			g.waiting[target] = append(g.waiting[target], waiter{h: h, member: i})
			g.missing[h]++
			continue
		}
		if err := g.bind(c, i, th); err != nil {
			return err
		}
	}
	return nil
}

// satisfyWaiters binds the queued references that target the concept h and
// returns the concepts that became resolved.
func (g *Graph) satisfyWaiters(h concept.Handle) ([]concept.Handle, error) {
	identity := g.arena[h].Identity()
	waiters := g.waiting[identity]
	if len(waiters) == 0 {
		return nil, nil
	}
	delete(g.waiting, identity)

	var done []concept.Handle
	for _, w := range waiters {
		if err := g.bind(g.arena[w.h], w.member, h); err != nil {
			return nil, err
		}
		g.missing[w.h]--
		if g.missing[w.h] == 0 {
			done = append(done, w.h)
		}
	}
	return done, nil
}

func (g *Graph) bind(c *concept.Instance, member int, target concept.Handle) error {
	m := c.Desc.AllMembers()[member]
	t := g.arena[target]
	if !t.Desc.Is(m.Type) {
		return &diag.UnresolvedReferenceError{
			Concept:      c.Description(),
			Member:       m.Name,
			Reference:    m.Type + " " + c.Values[member].Text,
			ExpectedType: m.Type,
			Found:        t.Key(),
		}
	}
	c.Bind(member, target)
	g.incoming[target] = append(g.incoming[target], c.Handle)
	return nil
}

func (g *Graph) targetIdentity(c *concept.Instance, member int) (string, error) {
	m := c.Desc.AllMembers()[member]
	td, ok := g.types.Descriptor(m.Type)
	if !ok {
		return "", &diag.UnresolvedReferenceError{
			Concept:      c.Description(),
			Member:       m.Name,
			Reference:    m.Type + " " + c.Values[member].Text,
			ExpectedType: m.Type,
		}
	}
	return concept.IdentityOf(td, c.Values[member].Text), nil
}

// Strict reports the first reference that is still pending, in handle
// order. It is called once no further concepts can be added.
func (g *Graph) Strict() error {
	unresolved := g.Unresolved()
	if len(unresolved) == 0 {
		return nil
	}
	c := g.arena[unresolved[0]]
	i := c.Pending()[0]
	m := c.Desc.AllMembers()[i]
	return &diag.UnresolvedReferenceError{
		Concept:      c.Description(),
		Member:       m.Name,
		Reference:    m.Type + " " + c.Values[i].Text,
		ExpectedType: m.Type,
	}
}

// Unresolved lists, in handle order, the concepts with pending references.
func (g *Graph) Unresolved() []concept.Handle {
	var out []concept.Handle
	for h, n := range g.missing {
		if n > 0 {
			out = append(out, concept.Handle(h))
		}
	}
	return out
}

// IsResolved reports whether every reference of h is bound.
func (g *Graph) IsResolved(h concept.Handle) bool { return g.missing[h] == 0 }

// Instances returns the arena. Callers must not modify it.
func (g *Graph) Instances() []*concept.Instance { return g.arena }

// Instance returns the concept at h.
func (g *Graph) Instance(h concept.Handle) *concept.Instance { return g.arena[h] }

// Types returns the type lookup the graph was built with.
func (g *Graph) Types() Types { return g.types }
