package common

import (
	"fmt"
	"strconv"

	"github.com/vk/conceptc/internal/concept"
	"github.com/vk/conceptc/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the standard concept types and their macro rules.
func (m *Module) Register(r *registry.Registry) {
	for _, d := range Types() {
		r.RegisterType(d)
	}
	r.RegisterRule(&registry.Rule{
		Name:         "writable_id",
		Capabilities: []string{CapabilityWritable},
		Expand:       expandID,
		Version:      "1",
	})
	r.RegisterRule(&registry.Rule{
		Name:    "reference_index",
		Types:   []string{TypeReference},
		Expand:  expandReferenceIndex,
		Version: "1",
	})
}

// initHierarchy points the hierarchy at its own data structure.
func initHierarchy(c *concept.Instance) ([]*concept.Instance, error) {
	c.Set("Target", c.Get("DataStructure"))
	return nil, nil
}

// expandHierarchy turns a hierarchy into a reference to the parent record.
func expandHierarchy(c concept.View, g concept.GraphView) ([]*concept.Instance, error) {
	d, ok := g.Descriptor(TypeReference)
	if !ok {
		return nil, fmt.Errorf("concept type '%s' is not registered", TypeReference)
	}
	return []*concept.Instance{
		d.New().
			Set("DataStructure", c.Get("DataStructure")).
			Set("Name", c.Get("Name")).
			Set("Referenced", c.Get("Target")),
	}, nil
}

// expandID gives every writable data structure a Guid ID property.
func expandID(c concept.View, g concept.GraphView) ([]*concept.Instance, error) {
	d, ok := g.Descriptor(TypeGuid)
	if !ok {
		return nil, fmt.Errorf("concept type '%s' is not registered", TypeGuid)
	}
	return []*concept.Instance{d.New().Set("DataStructure", c.Path()).Set("Name", "ID")}, nil
}

// expandReferenceIndex indexes every reference property.
func expandReferenceIndex(c concept.View, g concept.GraphView) ([]*concept.Instance, error) {
	d, ok := g.Descriptor(TypeSqlIndex)
	if !ok {
		return nil, fmt.Errorf("concept type '%s' is not registered", TypeSqlIndex)
	}
	return []*concept.Instance{d.New().Set("Property", c.Path())}, nil
}

func validateMaxLength(c concept.View, _ concept.GraphView) error {
	n, err := strconv.Atoi(c.Get("Length"))
	if err != nil || n <= 0 {
		return fmt.Errorf("length must be a positive integer, got '%s'", c.Get("Length"))
	}
	if p, ok := c.Ref("Property"); ok && !p.Is(TypeShortString) {
		return fmt.Errorf("only ShortString properties have a maximum length, '%s' is a %s", p.Key(), p.Type())
	}
	return nil
}
