package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/conceptc/internal/concept"
)

func noExpand(concept.View, concept.GraphView) ([]*concept.Instance, error) { return nil, nil }

// testModule registers a small hierarchy used across the tests.
type testModule struct{}

func (testModule) Register(r *Registry) {
	r.RegisterType(&concept.Descriptor{Name: "Module", Keyword: "Module", Members: []concept.Member{{Name: "Name", Key: true}}})
	r.RegisterType(&concept.Descriptor{Name: "DataStructure", Members: []concept.Member{
		{Name: "Module", Kind: concept.Reference, Type: "Module", Key: true},
		{Name: "Name", Key: true},
	}, Validate: func(concept.View, concept.GraphView) error { return nil }})
	r.RegisterType(&concept.Descriptor{Name: "Entity", Keyword: "Entity", Base: "DataStructure", Capabilities: []string{"Writable"},
		Validate: func(concept.View, concept.GraphView) error { return nil }})
	r.RegisterType(&concept.Descriptor{Name: "Browse", Keyword: "Browse", Base: "DataStructure"})
	r.RegisterType(&concept.Descriptor{Name: "LegacyEntity", Keyword: "Entity", Base: "DataStructure", Expand: noExpand})

	r.RegisterRule(&Rule{Name: "on_data", Types: []string{"DataStructure"}, Expand: noExpand})
	r.RegisterRule(&Rule{Name: "on_writable", Capabilities: []string{"Writable"}, Expand: noExpand})
	r.RegisterRule(&Rule{Name: "on_module", Types: []string{"Module"}, Expand: noExpand})
}

func frozen(t *testing.T) *Registry {
	t.Helper()
	r := New()
	r.Load(testModule{})
	require.NoError(t, r.Freeze(context.Background()))
	return r
}

func ruleNames(rules []*Rule) []string {
	out := []string{}
	for _, rule := range rules {
		out = append(out, rule.Name)
	}
	return out
}

func TestFreeze_BuildsTables(t *testing.T) {
	r := frozen(t)
	require.True(t, r.Frozen())

	t.Run("keywords keep registration order", func(t *testing.T) {
		descs := r.ByKeyword("Entity")
		require.Len(t, descs, 2)
		assert.Equal(t, "Entity", descs[0].Name)
		assert.Equal(t, "LegacyEntity", descs[1].Name)
		assert.Empty(t, r.ByKeyword("DataStructure"))
		assert.Equal(t, []string{"Browse", "Entity", "Module"}, r.Keywords())
	})

	t.Run("dispatch follows base types and capabilities", func(t *testing.T) {
		entity, _ := r.Descriptor("Entity")
		browse, _ := r.Descriptor("Browse")
		legacy, _ := r.Descriptor("LegacyEntity")
		module, _ := r.Descriptor("Module")

		assert.Equal(t, []string{"on_data", "on_writable"}, ruleNames(r.RulesFor(entity)))
		assert.Equal(t, []string{"on_data"}, ruleNames(r.RulesFor(browse)))
		assert.Equal(t, []string{"on_data", "LegacyEntity.Expand"}, ruleNames(r.RulesFor(legacy)))
		assert.Equal(t, []string{"on_module"}, ruleNames(r.RulesFor(module)))
	})

	t.Run("validators include base types", func(t *testing.T) {
		entity, _ := r.Descriptor("Entity")
		browse, _ := r.Descriptor("Browse")
		module, _ := r.Descriptor("Module")
		assert.Len(t, r.ValidatorsFor(entity), 2)
		assert.Len(t, r.ValidatorsFor(browse), 1)
		assert.Empty(t, r.ValidatorsFor(module))
	})

	t.Run("expand capability becomes a rule", func(t *testing.T) {
		rule, ok := r.Rule("LegacyEntity.Expand")
		require.True(t, ok)
		assert.Equal(t, []string{"LegacyEntity"}, rule.Types)
		assert.Len(t, r.Rules(), 4)
	})

	t.Run("second freeze is a no-op", func(t *testing.T) {
		assert.NoError(t, r.Freeze(context.Background()))
		assert.Len(t, r.Rules(), 4)
	})
}

func TestRegistry_Panics(t *testing.T) {
	t.Run("duplicate type", func(t *testing.T) {
		r := New()
		r.RegisterType(&concept.Descriptor{Name: "A"})
		assert.PanicsWithValue(t, "concept type with name 'A' already registered", func() {
			r.RegisterType(&concept.Descriptor{Name: "A"})
		})
	})

	t.Run("duplicate rule", func(t *testing.T) {
		r := New()
		r.RegisterRule(&Rule{Name: "x", Types: []string{"A"}, Expand: noExpand})
		assert.Panics(t, func() { r.RegisterRule(&Rule{Name: "x", Types: []string{"A"}, Expand: noExpand}) })
	})

	t.Run("rule without function", func(t *testing.T) {
		assert.Panics(t, func() { New().RegisterRule(&Rule{Name: "x", Types: []string{"A"}}) })
	})

	t.Run("register after freeze", func(t *testing.T) {
		r := frozen(t)
		assert.PanicsWithValue(t, "registry is frozen", func() { r.RegisterType(&concept.Descriptor{Name: "Late"}) })
	})

	t.Run("tables before freeze", func(t *testing.T) {
		assert.Panics(t, func() { New().ByKeyword("x") })
	})
}

func TestFreeze_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name     string
		setup    func(r *Registry)
		contains []string
	}{
		{
			name: "unknown trigger type and capability",
			setup: func(r *Registry) {
				r.RegisterType(&concept.Descriptor{Name: "A", Keyword: "A"})
				r.RegisterRule(&Rule{Name: "r1", Types: []string{"Missing"}, Expand: noExpand})
				r.RegisterRule(&Rule{Name: "r2", Capabilities: []string{"Nope"}, Expand: noExpand})
				r.RegisterRule(&Rule{Name: "r3", Expand: noExpand})
			},
			contains: []string{
				"registry validation failed",
				"'r1': triggering concept type 'Missing' is not registered",
				"'r2': no concept type carries capability 'Nope'",
				"'r3': no triggering concept type or capability",
			},
		},
		{
			name: "bad keyword",
			setup: func(r *Registry) {
				r.RegisterType(&concept.Descriptor{Name: "A", Keyword: "A-B"})
			},
			contains: []string{"keyword 'A-B' is not a plain identifier"},
		},
		{
			name: "link errors surface",
			setup: func(r *Registry) {
				r.RegisterType(&concept.Descriptor{Name: "A", Base: "Missing"})
			},
			contains: []string{"base type 'Missing' is not registered"},
		},
		{
			name: "key that starts with its own type",
			setup: func(r *Registry) {
				r.RegisterType(&concept.Descriptor{Name: "Folder", Keyword: "Folder", Members: []concept.Member{
					{Name: "Parent", Kind: concept.Reference, Type: "Folder", Key: true},
					{Name: "Name", Key: true},
				}})
				r.RegisterType(&concept.Descriptor{Name: "Left", Keyword: "Left", Members: []concept.Member{
					{Name: "Right", Kind: concept.Reference, Type: "Right", Key: true},
				}})
				r.RegisterType(&concept.Descriptor{Name: "Right", Members: []concept.Member{
					{Name: "Left", Kind: concept.Reference, Type: "Left", Key: true},
				}})
			},
			contains: []string{
				"concept type 'Folder': key starts with a reference back to itself (Folder -> Folder)",
				"concept type 'Left': key starts with a reference back to itself (Left -> Right -> Left)",
				"concept type 'Right': key starts with a reference back to itself (Right -> Left -> Right)",
			},
		},
		{
			name: "expand rule name collision",
			setup: func(r *Registry) {
				r.RegisterType(&concept.Descriptor{Name: "A", Expand: noExpand})
				r.RegisterRule(&Rule{Name: "A.Expand", Types: []string{"A"}, Expand: noExpand})
			},
			contains: []string{"collides with the expand capability"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := New()
			tc.setup(r)
			err := r.Freeze(context.Background())
			require.Error(t, err)
			for _, s := range tc.contains {
				assert.Contains(t, err.Error(), s)
			}
			assert.False(t, r.Frozen())
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := frozen(t)
	b := frozen(t)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := New()
	c.Load(testModule{})
	c.RegisterRule(&Rule{Name: "extra", Types: []string{"Module"}, Expand: noExpand, Version: "1"})
	require.NoError(t, c.Freeze(context.Background()))
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
