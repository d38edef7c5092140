package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/conceptc/internal/concept"
)

// template is a macro rule whose output is computed from HCL expressions.
type template struct {
	name  string
	when  hcl.Expression
	emits []emission
}

type emission struct {
	typeName string
	members  map[string]hcl.Expression
	// order is the sorted member names, for deterministic evaluation.
	order []string
}

func (t *template) expand(c concept.View, g concept.GraphView) ([]*concept.Instance, error) {
	ectx := evalContext(c)
	if t.when != nil {
		ok, err := evalBool(t.when, ectx)
		if err != nil {
			return nil, fmt.Errorf("macro '%s' on '%s': when: %w", t.name, c.Key(), err)
		}
		if !ok {
			return nil, nil
		}
	}

	out := make([]*concept.Instance, 0, len(t.emits))
	for _, em := range t.emits {
		d, ok := g.Descriptor(em.typeName)
		if !ok {
			return nil, fmt.Errorf("macro '%s' emits unknown concept type '%s'", t.name, em.typeName)
		}
		inst := d.New()
		for _, name := range em.order {
			if d.MemberIndex(name) < 0 {
				return nil, fmt.Errorf("macro '%s': concept type '%s' has no member '%s'", t.name, em.typeName, name)
			}
			v, err := evalString(em.members[name], ectx)
			if err != nil {
				return nil, fmt.Errorf("macro '%s' on '%s': %s: %w", t.name, c.Key(), name, err)
			}
			inst.Set(name, v)
		}
		out = append(out, inst)
	}
	return out, nil
}
