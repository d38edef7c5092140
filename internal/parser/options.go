package parser

import (
	"fmt"
	"strings"
)

// ExcessDotPolicy decides what happens to a '.' between two key members
// where none is expected. Old scripts sometimes contain one.
type ExcessDotPolicy int

const (
	ExcessDotError ExcessDotPolicy = iota
	ExcessDotWarn
	ExcessDotIgnore
)

func (p ExcessDotPolicy) String() string {
	switch p {
	case ExcessDotWarn:
		return "warn"
	case ExcessDotIgnore:
		return "ignore"
	default:
		return "error"
	}
}

// ParseExcessDotPolicy parses "error", "warn" or "ignore".
func ParseExcessDotPolicy(s string) (ExcessDotPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return ExcessDotError, nil
	case "warn", "warning":
		return ExcessDotWarn, nil
	case "ignore":
		return ExcessDotIgnore, nil
	default:
		return 0, fmt.Errorf("invalid excess dot policy '%s' (must be error, warn or ignore)", s)
	}
}

// DefaultMaxErrorLines bounds the trial failures listed in one SyntaxError.
const DefaultMaxErrorLines = 10

// Options configures a Parser.
type Options struct {
	ExcessDotInKey ExcessDotPolicy
	// MaxErrorLines defaults to DefaultMaxErrorLines.
	MaxErrorLines int
}
