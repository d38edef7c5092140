package parser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/conceptc/internal/concept"
	"github.com/vk/conceptc/internal/ctxlog"
	"github.com/vk/conceptc/internal/diag"
	"github.com/vk/conceptc/internal/source"
	"github.com/vk/conceptc/internal/token"
)

// Grammar is the view of the registry the parser needs.
type Grammar interface {
	ByKeyword(keyword string) []*concept.Descriptor
	Keywords() []string
	Descriptor(name string) (*concept.Descriptor, bool)
}

// Parser turns tokens into concept instances.
type Parser struct {
	grammar Grammar
	opts    Options
	set     *source.Set
	tokens  []token.Token
	logger  *slog.Logger
}

// New creates a parser over tokens scanned from set.
func New(grammar Grammar, set *source.Set, tokens []token.Token, opts Options) *Parser {
	if opts.MaxErrorLines <= 0 {
		opts.MaxErrorLines = DefaultMaxErrorLines
	}
	return &Parser{grammar: grammar, opts: opts, set: set, tokens: tokens, logger: slog.Default()}
}

// Parse is a shorthand for New(...).Parse(ctx).
func Parse(ctx context.Context, grammar Grammar, set *source.Set, tokens []token.Token, opts Options) ([]*concept.Instance, error) {
	return New(grammar, set, tokens, opts).Parse(ctx)
}

// Parse reads every statement. Concepts are returned in the order they were
// written; embedded concepts precede the concept that embeds them and
// concepts produced by Initialize follow it.
func (p *Parser) Parse(ctx context.Context) ([]*concept.Instance, error) {
	p.logger = ctxlog.FromContext(ctx)

	var out []*concept.Instance
	var blocks []*concept.Instance
	pos := 0
	for pos < len(p.tokens) {
		tok := p.tokens[pos]

		if tok.IsSpecial("}") {
			if len(blocks) == 0 {
				return nil, p.syntaxError(pos, "unexpected '}': there is no open block to close")
			}
			blocks = blocks[:len(blocks)-1]
			pos++
			continue
		}

		var enclosing *concept.Instance
		if len(blocks) > 0 {
			enclosing = blocks[len(blocks)-1]
		}

		accepted, err := p.parseStatement(pos, enclosing)
		if err != nil {
			return nil, err
		}
		pos = accepted.end

		origin := p.set.Locate(tok.Offset).String()
		batch := append(accepted.emitted, accepted.inst)
		for _, c := range batch {
			c.Origin = origin
		}
		for _, w := range accepted.warnings {
			p.logger.Warn("Excess '.' in concept key.", "concept", accepted.inst.Key(), "location", origin, "detail", w)
		}

		if pos >= len(p.tokens) {
			return nil, p.syntaxError(pos, fmt.Sprintf("expected ';' or '{' after '%s', found end of input", accepted.inst.Key()))
		}
		switch next := p.tokens[pos]; {
		case next.IsSpecial(";"):
		case next.IsSpecial("{"):
			blocks = append(blocks, accepted.inst)
		default:
			return nil, p.syntaxError(pos, fmt.Sprintf("expected ';' or '{' after '%s', found '%s'", accepted.inst.Key(), next))
		}
		pos++

		for _, c := range batch {
			out = append(out, c)
			if c.Desc.Initialize == nil {
				continue
			}
			extra, err := c.Desc.Initialize(c)
			if err != nil {
				return nil, p.syntaxError(accepted.start, fmt.Sprintf("cannot initialize '%s': %v", c.Key(), err))
			}
			for _, e := range extra {
				e.Origin = origin
			}
			out = append(out, extra...)
		}
	}

	if len(blocks) > 0 {
		unclosed := blocks[len(blocks)-1]
		return nil, &diag.SyntaxError{
			Location: p.locate(len(p.tokens)),
			Message:  fmt.Sprintf("missing '}' to close the block of '%s' opened at %s", unclosed.Key(), unclosed.Origin),
			Details:  dump(unclosed),
		}
	}

	p.logger.Debug("Scripts parsed.", "tokens", len(p.tokens), "concepts", len(out))
	return out, nil
}

// parseStatement runs one trial per concept type registered under the
// keyword at pos and selects the longest successful one.
func (p *Parser) parseStatement(pos int, enclosing *concept.Instance) (*trial, error) {
	tok := p.tokens[pos]
	if tok.Kind != token.Text {
		return nil, p.syntaxError(pos, fmt.Sprintf("expected a concept keyword, found '%s'", tok))
	}
	descs := p.grammar.ByKeyword(tok.Value)
	if len(descs) == 0 {
		msg := fmt.Sprintf("unrecognized concept keyword '%s'", tok.Value)
		if s := suggest(tok.Value, p.grammar.Keywords()); s != "" {
			msg += fmt.Sprintf("; did you mean '%s'?", s)
		}
		return nil, p.syntaxError(pos, msg)
	}

	var best []*trial
	var failures []string
	for _, d := range descs {
		t := &trial{p: p, start: pos, end: pos + 1}
		inst, err := t.parse(d, enclosing, false)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", d.Name, err))
			continue
		}
		t.inst = inst
		switch {
		case len(best) == 0 || t.end > best[0].end:
			best = []*trial{t}
		case t.end == best[0].end:
			best = append(best, t)
		}
	}

	switch len(best) {
	case 0:
		return nil, p.syntaxErrorWithDetails(pos, fmt.Sprintf("cannot parse '%s'", tok.Value), failures)
	case 1:
		return best[0], nil
	default:
		names := make([]string, len(best))
		for i, t := range best {
			names[i] = t.inst.Type()
		}
		err := p.syntaxErrorWithDetails(pos, fmt.Sprintf("ambiguous syntax: '%s' parses as each of %v", tok.Value, names), nil)
		err.Candidates = names
		return nil, err
	}
}

func (p *Parser) locate(pos int) source.Location {
	if pos < len(p.tokens) {
		return p.set.Locate(p.tokens[pos].Offset)
	}
	return p.set.Locate(len(p.set.Joined()))
}

func (p *Parser) syntaxError(pos int, msg string) *diag.SyntaxError {
	return &diag.SyntaxError{Location: p.locate(pos), Message: msg}
}

func (p *Parser) syntaxErrorWithDetails(pos int, msg string, details []string) *diag.SyntaxError {
	if extra := len(details) - p.opts.MaxErrorLines; extra > 0 {
		details = append(details[:p.opts.MaxErrorLines:p.opts.MaxErrorLines], fmt.Sprintf("... and %d more", extra))
	}
	return &diag.SyntaxError{Location: p.locate(pos), Message: msg, Details: details}
}

// dump lists the member values of an instance, one per line.
func dump(c *concept.Instance) []string {
	members := c.Desc.AllMembers()
	out := make([]string, 0, len(members)+1)
	out = append(out, c.Type())
	for i, m := range members {
		out = append(out, fmt.Sprintf("%s = %s", m.Name, concept.Quote(c.Values[i].Text)))
	}
	return out
}
