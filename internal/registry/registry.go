package registry

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/vk/conceptc/internal/concept"
)

// Module is the interface that all concept modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Rule is a macro rule. It is triggered by every resolved concept whose type
// (or one of its base types) is listed in Types, or which carries one of the
// Capabilities tags.
type Rule struct {
	Name         string
	Types        []string
	Capabilities []string
	Expand       concept.ExpandFunc
	// Version changes whenever the behavior of Expand changes. It is part of
	// the registry fingerprint that keys cached builds.
	Version string
}

// Registry holds the concept types and macro rules of one application
// instance.
type Registry struct {
	types []*concept.Descriptor
	rules []*Rule

	typeIndex map[string]*concept.Descriptor
	ruleIndex map[string]*Rule

	frozen     bool
	keywords   map[string][]*concept.Descriptor
	dispatch   map[*concept.Descriptor][]*Rule
	validators map[*concept.Descriptor][]concept.ValidateFunc
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		typeIndex: make(map[string]*concept.Descriptor),
		ruleIndex: make(map[string]*Rule),
	}
}

// Load registers every module in order.
func (r *Registry) Load(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// RegisterType adds a concept type. Duplicate names and registration after
// Freeze are programmer errors and panic.
func (r *Registry) RegisterType(d *concept.Descriptor) {
	r.mustBeOpen()
	if _, exists := r.typeIndex[d.Name]; exists {
		panic(fmt.Sprintf("concept type with name '%s' already registered", d.Name))
	}
	slog.Debug("Registering concept type.", "name", d.Name, "keyword", d.Keyword)
	r.typeIndex[d.Name] = d
	r.types = append(r.types, d)
}

// RegisterRule adds a macro rule.
func (r *Registry) RegisterRule(rule *Rule) {
	r.mustBeOpen()
	if _, exists := r.ruleIndex[rule.Name]; exists {
		panic(fmt.Sprintf("macro rule with name '%s' already registered", rule.Name))
	}
	if rule.Expand == nil {
		panic(fmt.Sprintf("macro rule '%s' has no expand function", rule.Name))
	}
	slog.Debug("Registering macro rule.", "name", rule.Name, "types", rule.Types, "capabilities", rule.Capabilities)
	r.ruleIndex[rule.Name] = rule
	r.rules = append(r.rules, rule)
}

func (r *Registry) mustBeOpen() {
	if r.frozen {
		panic("registry is frozen")
	}
}

// Frozen reports whether Freeze succeeded.
func (r *Registry) Frozen() bool { return r.frozen }

// Descriptor returns a registered concept type.
func (r *Registry) Descriptor(name string) (*concept.Descriptor, bool) {
	d, ok := r.typeIndex[name]
	return d, ok
}

// Types returns the concept types in registration order.
func (r *Registry) Types() []*concept.Descriptor { return r.types }

// Rules returns the macro rules in registration order, including the rules
// derived from Expand capabilities once frozen.
func (r *Registry) Rules() []*Rule { return r.rules }

// Rule returns a registered rule by name.
func (r *Registry) Rule(name string) (*Rule, bool) {
	rule, ok := r.ruleIndex[name]
	return rule, ok
}

// ByKeyword returns the concept types introduced by a keyword, in
// registration order.
func (r *Registry) ByKeyword(keyword string) []*concept.Descriptor {
	r.mustBeFrozen()
	return r.keywords[keyword]
}

// Keywords returns every keyword, sorted.
func (r *Registry) Keywords() []string {
	r.mustBeFrozen()
	out := make([]string, 0, len(r.keywords))
	for k := range r.keywords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RulesFor returns the rules triggered by concepts of type d.
func (r *Registry) RulesFor(d *concept.Descriptor) []*Rule {
	r.mustBeFrozen()
	return r.dispatch[d]
}

// ValidatorsFor returns the Validate capabilities of d and its base types,
// base first.
func (r *Registry) ValidatorsFor(d *concept.Descriptor) []concept.ValidateFunc {
	r.mustBeFrozen()
	return r.validators[d]
}

func (r *Registry) mustBeFrozen() {
	if !r.frozen {
		panic("registry is not frozen")
	}
}

// triggers reports whether rule applies to d.
func (rule *Rule) triggers(d *concept.Descriptor) bool {
	for _, t := range rule.Types {
		if d.Is(t) {
			return true
		}
	}
	return slices.ContainsFunc(rule.Capabilities, d.HasCapability)
}
