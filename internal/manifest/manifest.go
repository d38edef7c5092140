package manifest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zeebo/xxh3"

	"github.com/vk/conceptc/internal/concept"
	"github.com/vk/conceptc/internal/ctxlog"
	"github.com/vk/conceptc/internal/fsutil"
	"github.com/vk/conceptc/internal/registry"
)

// Extension is the file extension of manifest files.
const Extension = ".hcl"

// Manifest is the set of concept types and macro rules declared by one or
// more manifest files.
type Manifest struct {
	Files []string
	types []*concept.Descriptor
	rules []*registry.Rule
}

// Types returns the declared concept types.
func (m *Manifest) Types() []*concept.Descriptor { return m.types }

// Rules returns the declared macro rules.
func (m *Manifest) Rules() []*registry.Rule { return m.rules }

// Register registers every declared type and rule.
func (m *Manifest) Register(r *registry.Registry) {
	for _, d := range m.types {
		r.RegisterType(d)
	}
	for _, rule := range m.rules {
		r.RegisterRule(rule)
	}
}

// Load reads every manifest file found under paths. Missing paths are
// skipped.
func Load(ctx context.Context, paths ...string) (*Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Manifest loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extension, true)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered manifest files.", "count", len(files))

	parser := hclparse.NewParser()
	m := &Manifest{}
	for _, name := range files {
		file, diags := parser.ParseHCLFile(name)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse manifest %s: %w", name, diags)
		}
		if err := m.add(ctx, name, file); err != nil {
			return nil, err
		}
	}

	logger.Debug("Manifest loading complete.", "types", len(m.types), "rules", len(m.rules))
	return m, nil
}

// Parse reads a single manifest held in memory.
func Parse(ctx context.Context, name string, src []byte) (*Manifest, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", name, diags)
	}
	m := &Manifest{}
	if err := m.add(ctx, name, file); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) add(ctx context.Context, name string, file *hcl.File) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode manifest %s: %w", name, diags)
	}
	version := strconv.FormatUint(xxh3.Hash(file.Bytes), 16)

	var problems []string
	for _, c := range root.Concepts {
		d, err := translateConcept(c)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		m.types = append(m.types, d)
	}
	for _, mb := range root.Macros {
		rule, errs := translateMacro(ctx, mb, version)
		if len(errs) > 0 {
			problems = append(problems, errs...)
			continue
		}
		m.rules = append(m.rules, rule)
	}
	if len(problems) > 0 {
		return fmt.Errorf("manifest %s validation failed:\n- %s", name, strings.Join(problems, "\n- "))
	}
	m.Files = append(m.Files, name)
	return nil
}

func translateConcept(c *conceptBlock) (*concept.Descriptor, error) {
	d := &concept.Descriptor{
		Name:         c.Name,
		Keyword:      c.Keyword,
		Base:         c.Base,
		Capabilities: c.Capabilities,
	}
	for _, mb := range c.Members {
		kind, err := concept.ParseMemberKind(mb.Kind)
		if err != nil {
			return nil, fmt.Errorf("concept '%s', member '%s': %w", c.Name, mb.Name, err)
		}
		d.Members = append(d.Members, concept.Member{
			Name:        mb.Name,
			Kind:        kind,
			Type:        mb.Type,
			Key:         mb.Key,
			NotParsable: mb.Parsable != nil && !*mb.Parsable,
		})
	}
	return d, nil
}

func translateMacro(ctx context.Context, mb *macroBlock, version string) (*registry.Rule, []string) {
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf("macro '%s': ", mb.Name)+fmt.Sprintf(format, args...))
	}

	t := &template{name: mb.Name}
	if isExprDefined(ctx, mb.When, "when") {
		t.when = mb.When
	}

	exprs := []hcl.Expression{t.when}
	for _, e := range mb.Emits {
		attrs, diags := e.attributes()
		if diags.HasErrors() {
			fail("emit '%s': %s", e.Type, diags.Error())
			continue
		}
		em := emission{typeName: e.Type, members: make(map[string]hcl.Expression, len(attrs))}
		for name, attr := range attrs {
			em.members[name] = attr.Expr
			em.order = append(em.order, name)
			exprs = append(exprs, attr.Expr)
		}
		sort.Strings(em.order)
		t.emits = append(t.emits, em)
	}

	for _, p := range analyze(exprs...).check(knownFunctions()) {
		fail("%s", p)
	}
	if mb.On == "" && mb.Capability == "" {
		fail("needs 'on' or 'capability'")
	}
	if len(mb.Emits) == 0 {
		fail("emits nothing")
	}
	if len(problems) > 0 {
		return nil, problems
	}

	rule := &registry.Rule{Name: mb.Name, Expand: t.expand, Version: version}
	if mb.On != "" {
		rule.Types = []string{mb.On}
	}
	if mb.Capability != "" {
		rule.Capabilities = []string{mb.Capability}
	}
	return rule, nil
}
