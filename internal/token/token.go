package token

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// Kind is the lexical class of a token.
type Kind int

const (
	Text Kind = iota
	QuotedString
	ExternalInclude
	Special
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case QuotedString:
		return "quoted string"
	case ExternalInclude:
		return "external include"
	case Special:
		return "special"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Token is one lexical unit.
type Token struct {
	Kind  Kind
	Value string
	// Offset is the global offset inside the joined source set.
	Offset int
	// File is the resolved path for ExternalInclude tokens.
	File string
}

// IsSpecial reports whether t is the given special character.
func (t Token) IsSpecial(ch string) bool {
	return t.Kind == Special && t.Value == ch
}

// IsValue reports whether t can fill a string member.
func (t Token) IsValue() bool {
	return t.Kind == Text || t.Kind == QuotedString || t.Kind == ExternalInclude
}

func (t Token) String() string {
	if t.Kind == ExternalInclude {
		return "<" + t.File + ">"
	}
	if t.Kind == QuotedString {
		return fmt.Sprintf("%q", t.Value)
	}
	return t.Value
}

// IncludeFingerprint hashes the resolved path and content of every external
// include in tokens. Together with the source set fingerprint it covers all
// text a compilation reads.
func IncludeFingerprint(tokens []Token) uint64 {
	h := xxh3.New()
	for _, t := range tokens {
		if t.Kind != ExternalInclude {
			continue
		}
		h.WriteString(t.File)
		h.Write([]byte{0})
		h.WriteString(t.Value)
		h.Write([]byte{0})
	}
	return h.Sum64()
}
