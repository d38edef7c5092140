package source

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"
)

// Separator is inserted between consecutive texts of a Set.
const Separator = "\n\n"

// Text is one named script source.
type Text struct {
	Name    string
	Path    string // file path, empty for in-memory sources
	Content string
}

// Location identifies a position inside one source text.
type Location struct {
	Source string
	Path   string
	Offset int // byte offset inside the source text
	Line   int // 1-based
	Column int // 1-based, in bytes
}

// String renders the location as "name:line:column".
func (l Location) String() string {
	if l.Source == "" {
		return fmt.Sprintf("offset %d", l.Offset)
	}
	return fmt.Sprintf("%s:%d:%d", l.Source, l.Line, l.Column)
}

// Set is an ordered collection of texts joined into one scannable string.
type Set struct {
	texts  []Text
	starts []int
	joined string
}

// NewSet builds a Set, preserving the given order.
func NewSet(texts ...Text) *Set {
	s := &Set{
		texts:  append([]Text(nil), texts...),
		starts: make([]int, len(texts)),
	}
	var sb strings.Builder
	for i, t := range texts {
		if i > 0 {
			sb.WriteString(Separator)
		}
		s.starts[i] = sb.Len()
		sb.WriteString(t.Content)
	}
	s.joined = sb.String()
	return s
}

// FromString is a shorthand for a single in-memory source.
func FromString(name, content string) *Set {
	return NewSet(Text{Name: name, Content: content})
}

// Joined returns the concatenation of all texts.
func (s *Set) Joined() string { return s.joined }

// Texts returns the texts in their original order.
func (s *Set) Texts() []Text { return s.texts }

// Len returns the number of texts.
func (s *Set) Len() int { return len(s.texts) }

// index returns the position of the text containing the global offset.
// Offsets that fall on a separator belong to the preceding text.
func (s *Set) index(offset int) int {
	if len(s.starts) == 0 {
		return -1
	}
	i := sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i
}

// TextAt returns the text containing the global offset.
func (s *Set) TextAt(offset int) (Text, bool) {
	i := s.index(offset)
	if i < 0 {
		return Text{}, false
	}
	return s.texts[i], true
}

// Locate maps a global offset to a Location.
func (s *Set) Locate(offset int) Location {
	i := s.index(offset)
	if i < 0 {
		return Location{Offset: offset}
	}
	t := s.texts[i]
	local := offset - s.starts[i]
	if local > len(t.Content) {
		local = len(t.Content)
	}
	if local < 0 {
		local = 0
	}
	prefix := t.Content[:local]
	line := strings.Count(prefix, "\n") + 1
	col := local - strings.LastIndexByte(prefix, '\n')
	return Location{
		Source: t.Name,
		Path:   t.Path,
		Offset: local,
		Line:   line,
		Column: col,
	}
}

// Fingerprint hashes every name and content of the set. Equal sets always
// produce equal fingerprints.
func (s *Set) Fingerprint() uint64 {
	h := xxh3.New()
	for _, t := range s.texts {
		h.WriteString(t.Name)
		h.Write([]byte{0})
		h.WriteString(t.Content)
		h.Write([]byte{0})
	}
	return h.Sum64()
}
