package parser

import (
	"fmt"

	"github.com/vk/conceptc/internal/concept"
	"github.com/vk/conceptc/internal/token"
)

// trial is one attempt to read a concept. Trials never touch the parser's
// state, so a failed trial is simply dropped.
type trial struct {
	p     *Parser
	start int
	end   int

	inst     *concept.Instance
	emitted  []*concept.Instance
	warnings []string

	// active holds the nested parses in progress, so a type that needs
	// itself parsed at the same position fails instead of recursing.
	active map[activeParse]struct{}
}

type activeParse struct {
	desc    *concept.Descriptor
	keyOnly bool
	pos     int
}

func (t *trial) peek() (token.Token, bool) {
	if t.end >= len(t.p.tokens) {
		return token.Token{}, false
	}
	return t.p.tokens[t.end], true
}

func (t *trial) describeNext() string {
	tok, ok := t.peek()
	if !ok {
		return "end of input"
	}
	return fmt.Sprintf("'%s' at %s", tok, t.p.set.Locate(tok.Offset))
}

// parse reads the members of d. In keyOnly mode only key members are read,
// embedded members are read as plain references and the enclosing concept
// is ignored.
func (t *trial) parse(d *concept.Descriptor, enclosing *concept.Instance, keyOnly bool) (*concept.Instance, error) {
	k := activeParse{desc: d, keyOnly: keyOnly, pos: t.end}
	if _, again := t.active[k]; again {
		return nil, fmt.Errorf("concept type '%s' cannot be read: it starts with itself at %s", d.Name, t.describeNext())
	}
	if t.active == nil {
		t.active = make(map[activeParse]struct{})
	}
	t.active[k] = struct{}{}
	defer delete(t.active, k)

	inst := d.New()
	members := d.AllMembers()

	var embedded *concept.Instance
	prevKey, prevExplicit := false, false
	for i, m := range members {
		if !m.Parsable() || (keyOnly && !m.Key) {
			continue
		}
		lastEmbedded := embedded
		embedded = nil

		if err := t.separator(m, prevKey, prevExplicit); err != nil {
			return nil, err
		}
		prevKey, prevExplicit = m.Key, false

		if !m.IsReference() {
			tok, ok := t.peek()
			if !ok || !tok.IsValue() {
				return nil, fmt.Errorf("expected a value for member '%s', found %s", m.Name, t.describeNext())
			}
			inst.Values[i].Text = tok.Value
			t.end++
			continue
		}

		if i == 0 && !keyOnly && enclosing != nil && enclosing.Desc.Is(m.Type) {
			inst.Values[i].Text = enclosing.Path()
			continue
		}

		if parent, ok := t.parentOf(lastEmbedded, m.Type); ok {
			inst.Values[i].Text = parent
			continue
		}

		target, ok := t.p.grammar.Descriptor(m.Type)
		if !ok {
			return nil, fmt.Errorf("member '%s' references unknown concept type '%s'", m.Name, m.Type)
		}
		if m.Kind == concept.Embedded && !keyOnly {
			nested, err := t.parse(target, enclosing, false)
			if err != nil {
				return nil, fmt.Errorf("embedded %s: %w", m.Name, err)
			}
			t.emitted = append(t.emitted, nested)
			inst.Values[i].Text = nested.Path()
			embedded = nested
		} else {
			nested, err := t.parse(target, nil, true)
			if err != nil {
				return nil, fmt.Errorf("reference %s: %w", m.Name, err)
			}
			inst.Values[i].Text = nested.Path()
		}
		prevExplicit = true
	}
	return inst, nil
}

// separator consumes the '.' that separates a key member from an explicitly
// read reference key before it, and handles a '.' that appears where no
// separator belongs.
func (t *trial) separator(m concept.Member, prevKey, prevExplicit bool) error {
	if !m.Key || !prevKey {
		return nil
	}
	tok, ok := t.peek()
	isDot := ok && tok.IsSpecial(".")
	if prevExplicit {
		if !isDot {
			return fmt.Errorf("expected '.' before key member '%s', found %s", m.Name, t.describeNext())
		}
		t.end++
		return nil
	}
	if !isDot {
		return nil
	}
	switch t.p.opts.ExcessDotInKey {
	case ExcessDotIgnore:
	case ExcessDotWarn:
		t.warnings = append(t.warnings, fmt.Sprintf("unexpected '.' before key member '%s' at %s", m.Name, t.p.set.Locate(tok.Offset)))
	default:
		return fmt.Errorf("unexpected '.' before key member '%s' at %s", m.Name, t.p.set.Locate(tok.Offset))
	}
	t.end++
	return nil
}

// parentOf returns the target of the first member of an embedded concept
// when that member is a reference compatible with typeName.
func (t *trial) parentOf(embedded *concept.Instance, typeName string) (string, bool) {
	if embedded == nil {
		return "", false
	}
	members := embedded.Desc.AllMembers()
	if len(members) == 0 || !members[0].IsReference() {
		return "", false
	}
	declared, ok := t.p.grammar.Descriptor(members[0].Type)
	if !ok || !declared.Is(typeName) {
		return "", false
	}
	return embedded.Values[0].Text, true
}
