package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/vk/conceptc/internal/concept"
	"github.com/vk/conceptc/internal/ctxlog"
)

// ExpandRuleSuffix names the rules derived from Expand capabilities.
const ExpandRuleSuffix = ".Expand"

// Freeze links the concept types, validates the rule bindings and builds the
// static dispatch tables. After Freeze the registry is read-only.
func (r *Registry) Freeze(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if r.frozen {
		return nil
	}

	if err := concept.Link(r.types); err != nil {
		return err
	}

	rules := slices.Clone(r.rules)
	for _, d := range r.types {
		if d.Expand == nil {
			continue
		}
		name := d.Name + ExpandRuleSuffix
		if _, exists := r.ruleIndex[name]; exists {
			return fmt.Errorf("macro rule name '%s' collides with the expand capability of concept type '%s'", name, d.Name)
		}
		rules = append(rules, &Rule{Name: name, Types: []string{d.Name}, Expand: d.Expand})
	}

	if err := r.validate(rules); err != nil {
		return err
	}
	for _, rule := range rules[len(r.rules):] {
		r.ruleIndex[rule.Name] = rule
	}
	r.rules = rules

	r.keywords = make(map[string][]*concept.Descriptor)
	r.dispatch = make(map[*concept.Descriptor][]*Rule, len(r.types))
	r.validators = make(map[*concept.Descriptor][]concept.ValidateFunc, len(r.types))
	for _, d := range r.types {
		if d.Keyword != "" {
			r.keywords[d.Keyword] = append(r.keywords[d.Keyword], d)
		}
		for _, rule := range r.rules {
			if rule.triggers(d) {
				r.dispatch[d] = append(r.dispatch[d], rule)
			}
		}
		lineage := d.Lineage()
		for _, name := range slices.Backward(lineage) {
			if v := r.typeIndex[name].Validate; v != nil {
				r.validators[d] = append(r.validators[d], v)
			}
		}
	}

	r.frozen = true
	logger.Debug("Registry frozen.", "types", len(r.types), "rules", len(r.rules), "keywords", len(r.keywords))
	return nil
}

// validate checks that every rule trigger names something that exists.
func (r *Registry) validate(rules []*Rule) error {
	var errs []string

	capabilities := make(map[string]struct{})
	for _, d := range r.types {
		for _, c := range d.Capabilities {
			capabilities[c] = struct{}{}
		}
	}

	for _, rule := range rules {
		if len(rule.Types) == 0 && len(rule.Capabilities) == 0 {
			errs = append(errs, fmt.Sprintf("macro rule '%s': no triggering concept type or capability", rule.Name))
		}
		for _, t := range rule.Types {
			if _, ok := r.typeIndex[t]; !ok {
				errs = append(errs, fmt.Sprintf("macro rule '%s': triggering concept type '%s' is not registered", rule.Name, t))
			}
		}
		for _, c := range rule.Capabilities {
			if _, ok := capabilities[c]; !ok {
				errs = append(errs, fmt.Sprintf("macro rule '%s': no concept type carries capability '%s'", rule.Name, c))
			}
		}
	}

	for _, d := range r.types {
		if chain := r.leftRecursiveKey(d); chain != nil {
			errs = append(errs, fmt.Sprintf("concept type '%s': key starts with a reference back to itself (%s), so it can never be written", d.Name, strings.Join(chain, " -> ")))
		}
	}

	for _, d := range r.types {
		if d.Keyword == "" {
			continue
		}
		if strings.ContainsFunc(d.Keyword, notKeywordRune) {
			errs = append(errs, fmt.Sprintf("concept type '%s': keyword '%s' is not a plain identifier", d.Name, d.Keyword))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// leftRecursiveKey follows the first key member of d while it is a
// reference and returns the type chain when it leads back to d.
func (r *Registry) leftRecursiveKey(d *concept.Descriptor) []string {
	chain := []string{d.Name}
	seen := map[*concept.Descriptor]bool{d: true}
	for cur := d; ; {
		next := r.firstKeyTarget(cur)
		if next == nil {
			return nil
		}
		chain = append(chain, next.Name)
		if next == d {
			return chain
		}
		if seen[next] {
			return nil
		}
		seen[next] = true
		cur = next
	}
}

func (r *Registry) firstKeyTarget(d *concept.Descriptor) *concept.Descriptor {
	for _, m := range d.AllMembers() {
		if !m.Key || !m.Parsable() {
			continue
		}
		if !m.IsReference() {
			return nil
		}
		return r.typeIndex[m.Type]
	}
	return nil
}

func notKeywordRune(r rune) bool {
	return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
