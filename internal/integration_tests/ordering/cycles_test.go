package ordering_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/conceptc/internal/app"
	"github.com/vk/conceptc/internal/integration_tests"
	"github.com/vk/conceptc/internal/testutil"
)

// TestOrdering_ReferencedConceptsComeFirst validates the dependency order of
// the output on a chain declared back to front.
func TestOrdering_ReferencedConceptsComeFirst(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{"chain.rhe": `Node D C; Node C B; Node B A; Node A Z; Node Z Z;`}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, nil, testutil.NodeModule{})

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, []string{"Node Z", "Node A", "Node B", "Node C", "Node D"}, integration_tests.Keys(t, result.Output))
}

// TestOrdering_CyclesAreEmittedOnce validates that reference cycles neither
// hang the compiler nor duplicate concepts.
func TestOrdering_CyclesAreEmittedOnce(t *testing.T) {
	t.Parallel()

	files := map[string]string{"ring.rhe": `Node A B; Node B C; Node C A; Node Tail A;`}

	result := testutil.RunIntegrationTest(t, files, &app.Config{OutputFormat: "json"}, testutil.NodeModule{})

	require.NoError(t, result.Err)
	keys := integration_tests.Keys(t, result.Output)
	assert.ElementsMatch(t, []string{"Node A", "Node B", "Node C", "Node Tail"}, keys)
	assert.Equal(t, "Node Tail", keys[len(keys)-1])
	assert.Contains(t, result.LogOutput, "Concept graph contains a reference cycle.")
}
