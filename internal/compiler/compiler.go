package compiler

import (
	"context"
	"fmt"

	"github.com/vk/conceptc/internal/concept"
	"github.com/vk/conceptc/internal/ctxlog"
	"github.com/vk/conceptc/internal/dag"
	"github.com/vk/conceptc/internal/graph"
	"github.com/vk/conceptc/internal/macro"
	"github.com/vk/conceptc/internal/parser"
	"github.com/vk/conceptc/internal/source"
	"github.com/vk/conceptc/internal/token"
	"github.com/vk/conceptc/internal/validate"
)

// Registry is everything a compilation reads from the registry.
type Registry interface {
	parser.Grammar
	macro.Rules
	validate.Validators
}

// Options configures one compilation.
type Options struct {
	Token          token.Options
	ExcessDotInKey parser.ExcessDotPolicy
	MaxErrorLines  int
	MaxIterations  int
	// Hints are updated in place; nil uses throwaway hints.
	Hints *macro.Hints
}

// Result is a finished compilation. It is never modified after Compile
// returns.
type Result struct {
	Graph *graph.Graph
	// Order lists every concept after the concepts it references.
	Order []concept.Handle
	Stats macro.Stats
}

// Ordered returns the concepts in dependency order.
func (r *Result) Ordered() []*concept.Instance {
	out := make([]*concept.Instance, len(r.Order))
	for i, h := range r.Order {
		out[i] = r.Graph.Instance(h)
	}
	return out
}

// Lookup finds a concept by key.
func (r *Result) Lookup(key string) (concept.View, bool) {
	return r.Graph.Lookup(key)
}

// Compile runs the whole pipeline over set.
func Compile(ctx context.Context, reg Registry, set *source.Set, opts Options) (*Result, error) {
	tokens, err := Tokenize(ctx, set, opts)
	if err != nil {
		return nil, err
	}
	return CompileTokens(ctx, reg, set, tokens, opts)
}

// Tokenize is the first stage of Compile. Callers that need the tokens
// before compiling, e.g. to fingerprint included files, run it themselves
// and continue with CompileTokens.
func Tokenize(ctx context.Context, set *source.Set, opts Options) ([]token.Token, error) {
	tokens, err := token.Tokenize(set, opts.Token)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Scripts tokenized.", "sources", set.Len(), "tokens", len(tokens))
	return tokens, nil
}

// CompileTokens runs the pipeline after tokenizing. tokens must have been
// scanned from set.
func CompileTokens(ctx context.Context, reg Registry, set *source.Set, tokens []token.Token, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Compilation started.", "sources", set.Len(), "tokens", len(tokens))

	parseCtx, _ := ctxlog.With(ctx, "stage", "parse")
	parsed, err := parser.Parse(parseCtx, reg, set, tokens, parser.Options{ExcessDotInKey: opts.ExcessDotInKey, MaxErrorLines: opts.MaxErrorLines})
	if err != nil {
		return nil, err
	}

	g := graph.New(reg)
	if _, err := g.Add(parseCtx, parsed); err != nil {
		return nil, err
	}

	macroCtx, _ := ctxlog.With(ctx, "stage", "macro")
	engine := macro.New(reg, macro.Options{MaxIterations: opts.MaxIterations, Hints: opts.Hints})
	stats, err := engine.Run(macroCtx, g)
	if err != nil {
		return nil, err
	}

	if err := g.Strict(); err != nil {
		return nil, err
	}
	if err := validate.Run(ctx, reg, g.View()); err != nil {
		return nil, err
	}

	order, err := Order(ctx, g)
	if err != nil {
		return nil, err
	}

	logger.Debug("Compilation finished.", "concepts", g.Len(), "iterations", stats.Iterations)
	return &Result{Graph: g, Order: order, Stats: stats}, nil
}

// Order sorts the concepts of g so that referenced concepts come first.
func Order(ctx context.Context, g *graph.Graph) ([]concept.Handle, error) {
	logger := ctxlog.FromContext(ctx)

	d := dag.New(g.Len())
	for _, c := range g.Instances() {
		for i, m := range c.Desc.AllMembers() {
			if !m.IsReference() {
				continue
			}
			ref := c.Values[i].Ref
			if ref == concept.NoHandle {
				return nil, fmt.Errorf("cannot order '%s': member '%s' is not resolved", c.Key(), m.Name)
			}
			if err := d.AddEdge(int(c.Handle), int(ref)); err != nil {
				return nil, err
			}
		}
	}

	if cycle := d.DetectCycles(); cycle != nil {
		keys := make([]string, len(cycle))
		for i, n := range cycle {
			keys[i] = g.Instance(concept.Handle(n)).Key()
		}
		logger.Debug("Concept graph contains a reference cycle.", "cycle", keys)
	}

	sorted := d.Sort()
	out := make([]concept.Handle, len(sorted))
	for i, n := range sorted {
		out[i] = concept.Handle(n)
	}
	return out, nil
}
