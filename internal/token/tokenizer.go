package token

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vk/conceptc/internal/diag"
	"github.com/vk/conceptc/internal/source"
)

// DefaultVariantExtensions lists the include extensions that get a
// variant-specific lookup by default.
var DefaultVariantExtensions = []string{".sql"}

// Options configures include resolution.
type Options struct {
	// Variant selects platform-specific include files, e.g. "PostgreSql"
	// turns <view.sql> into a lookup of view.PostgreSql.sql first.
	Variant string
	// VariantExtensions defaults to DefaultVariantExtensions when nil.
	VariantExtensions []string
	// ReadFile defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
}

// Tokenizer scans a source.Set one token at a time.
type Tokenizer struct {
	set  *source.Set
	text string
	pos  int
	opts Options
}

// New creates a Tokenizer positioned at the start of set.
func New(set *source.Set, opts Options) *Tokenizer {
	if opts.VariantExtensions == nil {
		opts.VariantExtensions = DefaultVariantExtensions
	}
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	return &Tokenizer{set: set, text: set.Joined(), opts: opts}
}

// Tokenize scans the whole set.
func Tokenize(set *source.Set, opts Options) ([]Token, error) {
	t := New(set, opts)
	var tokens []Token
	for {
		tok, ok, err := t.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// Next returns the next token. ok is false at end of input.
func (t *Tokenizer) Next() (tok Token, ok bool, err error) {
	for {
		t.skipSpace()
		if t.pos >= len(t.text) {
			return Token{}, false, nil
		}
		if strings.HasPrefix(t.text[t.pos:], "//") {
			t.skipLine()
			continue
		}
		break
	}

	start := t.pos
	r, size := utf8.DecodeRuneInString(t.text[t.pos:])
	switch {
	case isTextRune(r):
		for t.pos < len(t.text) {
			r, size := utf8.DecodeRuneInString(t.text[t.pos:])
			if !isTextRune(r) {
				break
			}
			t.pos += size
		}
		return Token{Kind: Text, Value: t.text[start:t.pos], Offset: start}, true, nil
	case r == '"' || r == '\'':
		value, err := t.scanQuoted(byte(r))
		if err != nil {
			return Token{}, false, err
		}
		return Token{Kind: QuotedString, Value: value, Offset: start}, true, nil
	case r == '<':
		file, value, err := t.scanInclude()
		if err != nil {
			return Token{}, false, err
		}
		return Token{Kind: ExternalInclude, Value: value, Offset: start, File: file}, true, nil
	default:
		t.pos += size
		return Token{Kind: Special, Value: t.text[start:t.pos], Offset: start}, true, nil
	}
}

func isTextRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (t *Tokenizer) skipSpace() {
	for t.pos < len(t.text) {
		r, size := utf8.DecodeRuneInString(t.text[t.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		t.pos += size
	}
}

func (t *Tokenizer) skipLine() {
	if i := strings.IndexByte(t.text[t.pos:], '\n'); i >= 0 {
		t.pos += i + 1
		return
	}
	t.pos = len(t.text)
}

// scanQuoted reads a string delimited by quote. A doubled delimiter stands
// for one literal delimiter.
func (t *Tokenizer) scanQuoted(quote byte) (string, error) {
	start := t.pos
	t.pos++
	var sb strings.Builder
	for {
		i := strings.IndexByte(t.text[t.pos:], quote)
		if i < 0 {
			return "", t.errorAt(start, fmt.Sprintf("unexpected end of script within quoted string, missing closing character %c", quote))
		}
		sb.WriteString(t.text[t.pos : t.pos+i])
		t.pos += i + 1
		if t.pos < len(t.text) && t.text[t.pos] == quote {
			sb.WriteByte(quote)
			t.pos++
			continue
		}
		return sb.String(), nil
	}
}

func (t *Tokenizer) scanInclude() (file, content string, err error) {
	start := t.pos
	rest := t.text[t.pos+1:]
	end := strings.IndexByte(rest, '>')
	if nl := strings.IndexAny(rest, "\r\n"); end < 0 || (nl >= 0 && nl < end) {
		return "", "", t.errorAt(start, "external include is not terminated with '>' on the same line")
	}
	name := strings.TrimSpace(rest[:end])
	if name == "" {
		return "", "", t.errorAt(start, "external include has an empty file name")
	}
	t.pos += end + 2

	tried := t.candidates(start, name)
	for _, candidate := range tried {
		data, readErr := t.opts.ReadFile(candidate)
		if readErr == nil {
			return candidate, strings.TrimPrefix(string(data), "\uFEFF"), nil
		}
		if !errors.Is(readErr, fs.ErrNotExist) {
			return "", "", t.errorAt(start, fmt.Sprintf("cannot read external file %s: %v", candidate, readErr))
		}
	}
	lexErr := t.errorAt(start, fmt.Sprintf("cannot find external file '%s'", name))
	lexErr.Tried = tried
	return "", "", lexErr
}

// candidates lists the file paths tried for an include, in order.
func (t *Tokenizer) candidates(offset int, name string) []string {
	dir := ""
	if text, ok := t.set.TextAt(offset); ok && text.Path != "" {
		dir = filepath.Dir(text.Path)
	}
	name = filepath.FromSlash(name)
	if !filepath.IsAbs(name) && dir != "" {
		name = filepath.Join(dir, name)
	}

	var out []string
	ext := filepath.Ext(name)
	if t.opts.Variant != "" && ext != "" && slices.Contains(t.opts.VariantExtensions, strings.ToLower(ext)) {
		out = append(out, strings.TrimSuffix(name, ext)+"."+t.opts.Variant+ext)
	}
	return append(out, name)
}

func (t *Tokenizer) errorAt(offset int, msg string) *diag.LexicalError {
	return &diag.LexicalError{Location: t.set.Locate(offset), Message: msg}
}
