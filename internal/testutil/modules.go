package testutil

import (
	"sync/atomic"

	"github.com/vk/conceptc/internal/concept"
	"github.com/vk/conceptc/internal/registry"
)

// GrowModule registers "Grow <Name>" and a rule that turns every Grow into
// a new one with an extra "x", so expansion never reaches a fixpoint.
type GrowModule struct{}

// Register registers the Grow type and rule.
func (GrowModule) Register(r *registry.Registry) {
	r.RegisterType(&concept.Descriptor{Name: "Grow", Keyword: "Grow", Members: []concept.Member{{Name: "Name", Key: true}}})
	r.RegisterRule(&registry.Rule{
		Name:  "grow",
		Types: []string{"Grow"},
		Expand: func(c concept.View, g concept.GraphView) ([]*concept.Instance, error) {
			d, _ := g.Descriptor("Grow")
			return []*concept.Instance{d.New().Set("Name", c.Get("Name")+"x")}, nil
		},
	})
}

// NodeModule registers "Node <Name> <Next>", whose references may form
// cycles.
type NodeModule struct{}

// Register registers the Node type.
func (NodeModule) Register(r *registry.Registry) {
	r.RegisterType(&concept.Descriptor{Name: "Node", Keyword: "Node", Members: []concept.Member{
		{Name: "Name", Key: true},
		{Name: "Next", Kind: concept.Reference, Type: "Node"},
	}})
}

// AmbiguousModule registers two types that read the same tokens.
type AmbiguousModule struct{}

// Register registers the ambiguous pair.
func (AmbiguousModule) Register(r *registry.Registry) {
	name := concept.Member{Name: "Name", Key: true}
	r.RegisterType(&concept.Descriptor{Name: "LookupTable", Keyword: "Table", Members: []concept.Member{name}})
	r.RegisterType(&concept.Descriptor{Name: "PhysicalTable", Keyword: "Table", Members: []concept.Member{name}})
}

// CountingModule counts how often its rule runs.
type CountingModule struct {
	Runs atomic.Int64
}

// Register registers a rule on modules that only counts.
func (m *CountingModule) Register(r *registry.Registry) {
	r.RegisterRule(&registry.Rule{
		Name:  "count_modules",
		Types: []string{"Module"},
		Expand: func(concept.View, concept.GraphView) ([]*concept.Instance, error) {
			m.Runs.Add(1)
			return nil, nil
		},
	})
}
