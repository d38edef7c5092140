package hcl_features_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/conceptc/internal/integration_tests"
	"github.com/vk/conceptc/internal/testutil"
)

// TestHCL_TemplateMacro_ExpandsToFixpoint validates that template macros
// feed their output back into expansion: the audit macro adds a reference
// property, which in turn triggers the built-in index rule.
func TestHCL_TemplateMacro_ExpandsToFixpoint(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"audit.hcl": `
macro "audit_owner" {
  capability = "Writable"
  when       = self.Name != "User"

  emit "Reference" {
    DataStructure = self.path
    Name          = "CreatedBy"
    Referenced    = format("%s.User", self.Module)
  }
}
`,
		"model.rhe": `
Module Shop {
	Entity User;
	Entity Cart;
}`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, nil)

	// --- Assert ---
	require.NoError(t, result.Err)
	keys := integration_tests.Keys(t, result.Output)
	assert.Contains(t, keys, "Reference Shop.Cart.CreatedBy")
	assert.Contains(t, keys, "SqlIndex Shop.Cart.CreatedBy")
	assert.NotContains(t, keys, "Reference Shop.User.CreatedBy")
	assert.Less(t, integration_tests.IndexOf(keys, "Entity Shop.User"), integration_tests.IndexOf(keys, "Reference Shop.Cart.CreatedBy"))
}
