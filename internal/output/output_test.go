package output_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vk/conceptc/internal/output"
	"github.com/vk/conceptc/internal/testutil"
)

func TestParseFormat(t *testing.T) {
	f, err := output.ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, output.FormatYAML, f)

	f, err = output.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, output.FormatText, f)

	_, err = output.ParseFormat("xml")
	assert.ErrorContains(t, err, "unknown output format 'xml'")
}

func TestBuild(t *testing.T) {
	res := testutil.Compile(t, `Module M { Entity E { Integer I; } }`)
	require.NoError(t, res.Err)

	doc := output.Build(res.Result)
	require.Len(t, doc.Concepts, res.Result.Graph.Len())

	seen := map[string]int{}
	for i, c := range doc.Concepts {
		seen[c.Key] = i
	}
	assert.Less(t, seen["Module M"], seen["Entity M.E"])
	assert.Less(t, seen["Entity M.E"], seen["Integer M.E.I"])

	integer := doc.Concepts[seen["Integer M.E.I"]]
	assert.Equal(t, []output.Member{
		{Name: "DataStructure", Value: "M.E", Ref: "Entity M.E"},
		{Name: "Name", Value: "I"},
	}, integer.Members)
}

func TestWrite(t *testing.T) {
	res := testutil.Compile(t, `Module M { Entity E; }`)
	require.NoError(t, res.Err)
	doc := output.Build(res.Result)

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, output.Write(&buf, doc, output.FormatText))
		assert.Contains(t, buf.String(), "Entity M.E\n    Module -> Module M\n    Name = \"E\"\n")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, output.Write(&buf, doc, output.FormatJSON))
		var back output.Document
		require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
		assert.Equal(t, doc, &back)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, output.Write(&buf, doc, output.FormatYAML))
		var back output.Document
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
		assert.Equal(t, doc, &back)
	})
}
