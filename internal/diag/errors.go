package diag

import (
	"fmt"
	"strings"

	"github.com/vk/conceptc/internal/source"
)

// Kind classifies compilation errors.
type Kind int

const (
	KindLexical Kind = iota
	KindSyntax
	KindDuplicateDefinition
	KindUnresolvedReference
	KindInfiniteExpansion
	KindSemanticValidation
)

func (k Kind) String() string {
	switch k {
	case KindLexical:
		return "lexical error"
	case KindSyntax:
		return "syntax error"
	case KindDuplicateDefinition:
		return "duplicate definition"
	case KindUnresolvedReference:
		return "unresolved reference"
	case KindInfiniteExpansion:
		return "infinite expansion"
	case KindSemanticValidation:
		return "semantic validation error"
	default:
		return "unknown error"
	}
}

// Error is implemented by every error of this package.
type Error interface {
	error
	Kind() Kind
}

// LexicalError reports malformed input found by the tokenizer.
type LexicalError struct {
	Location source.Location
	Message  string
	// Tried lists the files attempted for a missing external include.
	Tried []string
}

func (e *LexicalError) Kind() Kind { return KindLexical }

func (e *LexicalError) Error() string {
	msg := fmt.Sprintf("%s at %s: %s", KindLexical, e.Location, e.Message)
	if len(e.Tried) > 0 {
		msg += "\ntried:\n- " + strings.Join(e.Tried, "\n- ")
	}
	return msg
}

// SyntaxError reports a statement the parser could not accept.
type SyntaxError struct {
	Location source.Location
	Message  string
	// Candidates names the concept types involved, e.g. for ambiguous syntax.
	Candidates []string
	// Details holds the partial failures of every trial parse.
	Details []string
}

func (e *SyntaxError) Kind() Kind { return KindSyntax }

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("%s at %s: %s", KindSyntax, e.Location, e.Message)
	if len(e.Details) > 0 {
		msg += "\n- " + strings.Join(e.Details, "\n- ")
	}
	return msg
}

// DuplicateDefinitionError reports two different concepts with one identity.
type DuplicateDefinitionError struct {
	Key       string
	Existing  string
	Duplicate string
}

func (e *DuplicateDefinitionError) Kind() Kind { return KindDuplicateDefinition }

func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("%s of '%s':\n  existing:  %s\n  duplicate: %s", KindDuplicateDefinition, e.Key, e.Existing, e.Duplicate)
}

// UnresolvedReferenceError reports a reference member whose target does not
// exist, or exists with an incompatible type.
type UnresolvedReferenceError struct {
	Concept      string
	Member       string
	Reference    string
	ExpectedType string
	// Found is set when a concept with the referenced path exists but is not
	// of the expected type.
	Found string
}

func (e *UnresolvedReferenceError) Kind() Kind { return KindUnresolvedReference }

func (e *UnresolvedReferenceError) Error() string {
	if e.Found != "" {
		return fmt.Sprintf("%s: member '%s' of '%s' references '%s' which is not a %s",
			KindUnresolvedReference, e.Member, e.Concept, e.Found, e.ExpectedType)
	}
	return fmt.Sprintf("%s: member '%s' of '%s' references %s '%s' which is not declared",
		KindUnresolvedReference, e.Member, e.Concept, e.ExpectedType, e.Reference)
}

// InfiniteExpansionError reports that the macro fixpoint was not reached
// within the iteration ceiling.
type InfiniteExpansionError struct {
	Iterations int
	Rule       string
	Trigger    string
	Concept    string
}

func (e *InfiniteExpansionError) Kind() Kind { return KindInfiniteExpansion }

func (e *InfiniteExpansionError) Error() string {
	return fmt.Sprintf("%s: probable infinite recursive expansion after %d iterations; rule '%s' on '%s' keeps creating new concepts, last one '%s'",
		KindInfiniteExpansion, e.Iterations, e.Rule, e.Trigger, e.Concept)
}

// Violation is one failed self-check.
type Violation struct {
	Concept string
	Message string
}

// SemanticValidationError collects every failed self-check of a compilation.
type SemanticValidationError struct {
	Violations []Violation
}

func (e *SemanticValidationError) Kind() Kind { return KindSemanticValidation }

func (e *SemanticValidationError) Error() string {
	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		lines = append(lines, fmt.Sprintf("%s: %s", v.Concept, v.Message))
	}
	return fmt.Sprintf("%s:\n- %s", KindSemanticValidation, strings.Join(lines, "\n- "))
}
