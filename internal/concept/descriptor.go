package concept

import (
	"fmt"
	"slices"
	"strings"
)

// MemberKind is the storage kind of a member.
type MemberKind int

const (
	// String members hold plain text.
	String MemberKind = iota
	// Reference members point at another concept by its path.
	Reference
	// Embedded members are references whose target is written inline and
	// emitted as a concept of its own.
	Embedded
)

func (k MemberKind) String() string {
	switch k {
	case String:
		return "string"
	case Reference:
		return "reference"
	case Embedded:
		return "embedded"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseMemberKind is the inverse of MemberKind.String.
func ParseMemberKind(s string) (MemberKind, error) {
	switch strings.ToLower(s) {
	case "string", "":
		return String, nil
	case "reference":
		return Reference, nil
	case "embedded":
		return Embedded, nil
	default:
		return 0, fmt.Errorf("unknown member kind '%s'", s)
	}
}

// Member describes one slot of a concept type.
type Member struct {
	Name string
	Kind MemberKind
	// Type is the referenced concept type for Reference and Embedded members.
	Type string
	Key  bool
	// NotParsable members are skipped by the parser and usually filled by
	// the Initialize capability.
	NotParsable bool
}

// IsReference reports whether the member points at another concept.
func (m Member) IsReference() bool { return m.Kind != String }

// Parsable reports whether the parser reads the member from tokens.
func (m Member) Parsable() bool { return !m.NotParsable }

// InitializeFunc runs on a freshly parsed instance. It may fill derived
// members and return extra concepts to add alongside.
type InitializeFunc func(c *Instance) ([]*Instance, error)

// ValidateFunc checks a resolved concept against the complete graph.
type ValidateFunc func(c View, g GraphView) error

// ExpandFunc derives new concepts from a resolved concept.
type ExpandFunc func(c View, g GraphView) ([]*Instance, error)

// Descriptor is the static table entry of a concept type.
type Descriptor struct {
	Name string
	// Keyword starts the concept in scripts. Empty for types that can only
	// be embedded, referenced or created by macros.
	Keyword      string
	Base         string
	Capabilities []string
	// Members lists the members declared by this type. Members of the base
	// type come first in the linked member list.
	Members []Member

	Initialize InitializeFunc
	Validate   ValidateFunc
	Expand     ExpandFunc

	base    *Descriptor
	members []Member
	index   map[string]int
	keys    []int
	linked  bool
}

// Linked reports whether Link has processed the descriptor.
func (d *Descriptor) Linked() bool { return d.linked }

// BaseDescriptor returns the linked base type, or nil.
func (d *Descriptor) BaseDescriptor() *Descriptor { return d.base }

// Root returns the top of the base chain.
func (d *Descriptor) Root() *Descriptor {
	r := d
	for r.base != nil {
		r = r.base
	}
	return r
}

// Is reports whether d is the named type or derives from it.
func (d *Descriptor) Is(typeName string) bool {
	for t := d; t != nil; t = t.base {
		if t.Name == typeName {
			return true
		}
	}
	return false
}

// Lineage returns d's name followed by its base types, nearest first.
func (d *Descriptor) Lineage() []string {
	var out []string
	for t := d; t != nil; t = t.base {
		out = append(out, t.Name)
	}
	return out
}

// HasCapability reports whether d or any base type carries the tag.
func (d *Descriptor) HasCapability(tag string) bool {
	for t := d; t != nil; t = t.base {
		if slices.Contains(t.Capabilities, tag) {
			return true
		}
	}
	return false
}

// AllMembers returns inherited and own members in declaration order.
func (d *Descriptor) AllMembers() []Member {
	d.mustBeLinked()
	return d.members
}

// KeyMembers returns the indexes of the key members.
func (d *Descriptor) KeyMembers() []int {
	d.mustBeLinked()
	return d.keys
}

// MemberIndex returns the position of the named member, or -1.
func (d *Descriptor) MemberIndex(name string) int {
	d.mustBeLinked()
	if i, ok := d.index[name]; ok {
		return i
	}
	return -1
}

// New creates an empty instance of d.
func (d *Descriptor) New() *Instance {
	d.mustBeLinked()
	values := make([]Value, len(d.members))
	for i := range values {
		values[i].Ref = NoHandle
	}
	return &Instance{Desc: d, Values: values, Handle: NoHandle}
}

func (d *Descriptor) mustBeLinked() {
	if !d.linked {
		panic(fmt.Sprintf("concept type '%s' is used before it was linked", d.Name))
	}
}

// Link resolves base types and member lists of a complete descriptor set.
// Every problem found is reported in a single error.
func Link(descs []*Descriptor) error {
	byName := make(map[string]*Descriptor, len(descs))
	var errs []string
	for _, d := range descs {
		if d.Name == "" {
			errs = append(errs, "concept type with empty name")
			continue
		}
		byName[d.Name] = d
	}

	for _, d := range descs {
		d.base = nil
		if d.Base == "" {
			continue
		}
		base, ok := byName[d.Base]
		if !ok {
			errs = append(errs, fmt.Sprintf("concept type '%s': base type '%s' is not registered", d.Name, d.Base))
			continue
		}
		d.base = base
	}

	for _, d := range descs {
		if cycleInBase(d) {
			errs = append(errs, fmt.Sprintf("concept type '%s': base type chain is cyclic", d.Name))
			d.base = nil
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("concept type validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	for _, d := range descs {
		var all []Member
		for _, t := range slices.Backward(d.chain()) {
			all = append(all, t.Members...)
		}
		d.members = all
		d.index = make(map[string]int, len(all))
		d.keys = d.keys[:0]
		for i, m := range all {
			if _, dup := d.index[m.Name]; dup {
				errs = append(errs, fmt.Sprintf("concept type '%s': member '%s' is declared twice", d.Name, m.Name))
				continue
			}
			d.index[m.Name] = i
			if m.Key {
				d.keys = append(d.keys, i)
			}
			if m.IsReference() {
				if _, ok := byName[m.Type]; !ok {
					errs = append(errs, fmt.Sprintf("concept type '%s': member '%s' references unknown type '%s'", d.Name, m.Name, m.Type))
				}
			} else if m.Type != "" {
				errs = append(errs, fmt.Sprintf("concept type '%s': string member '%s' must not declare a type", d.Name, m.Name))
			}
		}
		d.linked = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("concept type validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func (d *Descriptor) chain() []*Descriptor {
	var out []*Descriptor
	for t := d; t != nil; t = t.base {
		out = append(out, t)
	}
	return out
}

func cycleInBase(d *Descriptor) bool {
	slow, fast := d, d
	for fast != nil && fast.base != nil {
		slow = slow.base
		fast = fast.base.base
		if slow == fast {
			return true
		}
	}
	return false
}
