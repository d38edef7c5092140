// Package integration_tests holds end-to-end tests that run the whole
// application over scripts and manifests written to a temporary directory.
package integration_tests

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/conceptc/internal/output"
)

// Keys decodes the JSON output of a run and returns its concept keys in
// output order.
func Keys(t *testing.T, out string) []string {
	t.Helper()
	var doc output.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc), "output is not a JSON concept list")
	keys := make([]string, len(doc.Concepts))
	for i, c := range doc.Concepts {
		keys[i] = c.Key
	}
	return keys
}

// IndexOf returns the position of key in keys, or -1.
func IndexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
