package token

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/conceptc/internal/diag"
	"github.com/vk/conceptc/internal/source"
)

// fakeFiles serves include content from memory.
func fakeFiles(files map[string]string) func(string) ([]byte, error) {
	return func(name string) ([]byte, error) {
		if content, ok := files[filepath.ToSlash(name)]; ok {
			return []byte(content), nil
		}
		return nil, fs.ErrNotExist
	}
}

func values(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Value
	}
	return out
}

func TestTokenize(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		values []string
		kinds  []Kind
	}{
		{
			name:   "texts and specials",
			input:  "Module M { Entity E; }",
			values: []string{"Module", "M", "{", "Entity", "E", ";", "}"},
			kinds:  []Kind{Text, Text, Special, Text, Text, Special, Special},
		},
		{
			name:   "underscore and digits are text",
			input:  "a_1 2b",
			values: []string{"a_1", "2b"},
			kinds:  []Kind{Text, Text},
		},
		{
			name:   "comments are dropped",
			input:  "A // a comment ; {\nB",
			values: []string{"A", "B"},
			kinds:  []Kind{Text, Text},
		},
		{
			name:   "comment at end of input",
			input:  "A //",
			values: []string{"A"},
			kinds:  []Kind{Text},
		},
		{
			name:   "single slash is special",
			input:  "a/b",
			values: []string{"a", "/", "b"},
			kinds:  []Kind{Text, Special, Text},
		},
		{
			name:   "double quoted with escaped delimiter",
			input:  `"say ""hi"""`,
			values: []string{`say "hi"`},
			kinds:  []Kind{QuotedString},
		},
		{
			name:   "single quoted keeps other quote",
			input:  `'it''s "x"'`,
			values: []string{`it's "x"`},
			kinds:  []Kind{QuotedString},
		},
		{
			name:   "empty quoted string",
			input:  `'' x`,
			values: []string{"", "x"},
			kinds:  []Kind{QuotedString, Text},
		},
		{
			name:   "dotted key",
			input:  "M.E.I",
			values: []string{"M", ".", "E", ".", "I"},
			kinds:  []Kind{Text, Special, Text, Special, Text},
		},
		{
			name:   "empty input",
			input:  "  \n\t ",
			values: []string{},
			kinds:  []Kind{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tokens, err := Tokenize(source.FromString("test", tc.input), Options{})
			require.NoError(t, err)
			assert.Equal(t, tc.values, append([]string{}, values(tokens)...))
			kinds := []Kind{}
			for _, tok := range tokens {
				kinds = append(kinds, tok.Kind)
			}
			assert.Equal(t, tc.kinds, kinds)
		})
	}
}

func TestTokenize_OffsetsMapAcrossSources(t *testing.T) {
	set := source.NewSet(
		source.Text{Name: "a.rhe", Content: "A;"},
		source.Text{Name: "b.rhe", Content: "\n  B;"},
	)
	tokens, err := Tokenize(set, Options{})
	require.NoError(t, err)
	require.Len(t, tokens, 4)

	loc := set.Locate(tokens[2].Offset)
	assert.Equal(t, "b.rhe", loc.Source)
	assert.Equal(t, 2, loc.Line)
	assert.Equal(t, 3, loc.Column)
}

func TestTokenize_LexicalErrors(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		contains string
	}{
		{name: "unterminated double quote", input: `A "abc`, contains: `missing closing character "`},
		{name: "unterminated single quote", input: `A 'ab''`, contains: `missing closing character '`},
		{name: "include without close", input: "A <file.sql\n>", contains: "not terminated"},
		{name: "include at end", input: "A <file.sql", contains: "not terminated"},
		{name: "empty include", input: "A <>", contains: "empty file name"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Tokenize(source.FromString("s.rhe", tc.input), Options{ReadFile: fakeFiles(nil)})
			require.Error(t, err)
			var lexErr *diag.LexicalError
			require.True(t, errors.As(err, &lexErr))
			assert.Contains(t, lexErr.Error(), tc.contains)
			assert.Equal(t, "s.rhe", lexErr.Location.Source)
			assert.Equal(t, 3, lexErr.Location.Column)
		})
	}
}

func TestTokenize_ExternalInclude(t *testing.T) {
	set := source.NewSet(source.Text{Name: "m.rhe", Path: "scripts/m.rhe", Content: "SqlView V <views/v.sql>;"})

	t.Run("variant file wins", func(t *testing.T) {
		files := fakeFiles(map[string]string{
			"scripts/views/v.PostgreSql.sql": "SELECT 2",
			"scripts/views/v.sql":            "SELECT 1",
		})
		tokens, err := Tokenize(set, Options{Variant: "PostgreSql", ReadFile: files})
		require.NoError(t, err)
		require.Len(t, tokens, 4)
		assert.Equal(t, ExternalInclude, tokens[2].Kind)
		assert.Equal(t, "SELECT 2", tokens[2].Value)
		assert.Equal(t, filepath.FromSlash("scripts/views/v.PostgreSql.sql"), tokens[2].File)
	})

	t.Run("falls back to base name", func(t *testing.T) {
		files := fakeFiles(map[string]string{"scripts/views/v.sql": "\uFEFFSELECT 1"})
		tokens, err := Tokenize(set, Options{Variant: "PostgreSql", ReadFile: files})
		require.NoError(t, err)
		assert.Equal(t, "SELECT 1", tokens[2].Value)
	})

	t.Run("other extensions skip the variant", func(t *testing.T) {
		var tried []string
		read := func(name string) ([]byte, error) {
			tried = append(tried, filepath.ToSlash(name))
			return []byte("x"), nil
		}
		_, err := Tokenize(source.NewSet(source.Text{Name: "m", Path: "m.rhe", Content: "<a.txt>"}), Options{Variant: "PostgreSql", ReadFile: read})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.txt"}, tried)
	})

	t.Run("missing file lists every tried path", func(t *testing.T) {
		_, err := Tokenize(set, Options{Variant: "PostgreSql", ReadFile: fakeFiles(nil)})
		var lexErr *diag.LexicalError
		require.True(t, errors.As(err, &lexErr))
		assert.Equal(t, []string{
			filepath.FromSlash("scripts/views/v.PostgreSql.sql"),
			filepath.FromSlash("scripts/views/v.sql"),
		}, lexErr.Tried)
		assert.Contains(t, lexErr.Error(), "cannot find external file 'views/v.sql'")
	})

	t.Run("read failure other than missing", func(t *testing.T) {
		read := func(string) ([]byte, error) { return nil, fs.ErrPermission }
		_, err := Tokenize(set, Options{ReadFile: read})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot read external file")
	})
}

func TestTokenize_ExternalIncludeFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "body.sql"), []byte("SELECT 1"), 0o644))
	script := filepath.Join(dir, "main.rhe")

	set := source.NewSet(source.Text{Name: "main.rhe", Path: script, Content: "X <body.sql>"})
	tokens, err := Tokenize(set, Options{})
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "SELECT 1", tokens[1].Value)
}

func TestTokenizer_NextIsStreaming(t *testing.T) {
	tz := New(source.FromString("s", `A "unterminated`), Options{})

	tok, ok, err := tz.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", tok.Value)

	_, _, err = tz.Next()
	assert.Error(t, err)
}

func TestIncludeFingerprint(t *testing.T) {
	set := source.NewSet(source.Text{Name: "m.rhe", Path: "scripts/m.rhe", Content: "SqlView V <views/v.sql>;"})
	fingerprint := func(t *testing.T, files map[string]string, variant string) uint64 {
		t.Helper()
		tokens, err := Tokenize(set, Options{Variant: variant, ReadFile: fakeFiles(files)})
		require.NoError(t, err)
		return IncludeFingerprint(tokens)
	}

	base := fingerprint(t, map[string]string{"scripts/views/v.sql": "SELECT 1"}, "")
	assert.Equal(t, base, fingerprint(t, map[string]string{"scripts/views/v.sql": "SELECT 1"}, ""))
	assert.NotEqual(t, base, fingerprint(t, map[string]string{"scripts/views/v.sql": "SELECT 2"}, ""), "content changed")
	assert.NotEqual(t, base, fingerprint(t, map[string]string{
		"scripts/views/v.sql":            "SELECT 1",
		"scripts/views/v.PostgreSql.sql": "SELECT 1",
	}, "PostgreSql"), "resolved path changed")

	plain, err := Tokenize(source.FromString("s.rhe", "Module M;"), Options{})
	require.NoError(t, err)
	assert.Equal(t, IncludeFingerprint(nil), IncludeFingerprint(plain))
}
