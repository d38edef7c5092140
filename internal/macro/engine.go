package macro

import (
	"context"
	"fmt"
	"slices"

	"github.com/vk/conceptc/internal/concept"
	"github.com/vk/conceptc/internal/ctxlog"
	"github.com/vk/conceptc/internal/diag"
	"github.com/vk/conceptc/internal/graph"
	"github.com/vk/conceptc/internal/registry"
)

// DefaultMaxIterations is the iteration ceiling used when none is set.
const DefaultMaxIterations = 200

// Rules is the part of the registry the engine needs.
type Rules interface {
	Rules() []*registry.Rule
	RulesFor(d *concept.Descriptor) []*registry.Rule
}

// Options configures an Engine.
type Options struct {
	MaxIterations int
	// Hints defaults to fresh, empty hints.
	Hints *Hints
}

// Stats summarizes a run.
type Stats struct {
	Iterations int
	Created    int
	RuleRuns   int
}

// Engine expands a graph to its fixpoint.
type Engine struct {
	rules Rules
	opts  Options
}

// New creates an engine.
func New(rules Rules, opts Options) *Engine {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Hints == nil {
		opts.Hints = NewHints()
	}
	return &Engine{rules: rules, opts: opts}
}

// Hints returns the hints the engine reads and updates.
func (e *Engine) Hints() *Hints { return e.opts.Hints }

// lastCreated names the most recent concept a rule added.
type lastCreated struct {
	rule    string
	trigger string
	key     string
}

// Run expands g until an iteration resolves no new concept.
func (e *Engine) Run(ctx context.Context, g *graph.Graph) (Stats, error) {
	logger := ctxlog.FromContext(ctx)
	var stats Stats
	var last lastCreated

	for iteration := 1; ; iteration++ {
		if iteration > e.opts.MaxIterations {
			return stats, &diag.InfiniteExpansionError{
				Iterations: e.opts.MaxIterations,
				Rule:       last.rule,
				Trigger:    last.trigger,
				Concept:    last.key,
			}
		}
		stats.Iterations = iteration

		resolved := 0
		for _, rule := range e.opts.Hints.Order(e.rules.Rules()) {
			batch, triggers, runs, err := e.sweep(g, rule)
			if err != nil {
				return stats, err
			}
			stats.RuleRuns += runs
			if len(batch) == 0 {
				continue
			}

			before := g.Len()
			newly, err := g.Add(ctx, batch)
			if err != nil {
				return stats, fmt.Errorf("macro rule '%s': %w", rule.Name, err)
			}
			resolved += len(newly)

			if created := g.Len() - before; created > 0 {
				stats.Created += created
				e.opts.Hints.Record(rule.Name, iteration)
				c := g.Instance(concept.Handle(g.Len() - 1))
				last = lastCreated{rule: rule.Name, trigger: triggerOf(c, batch, triggers), key: c.Key()}
			}
		}

		logger.Debug("Macro iteration finished.", "iteration", iteration, "resolved", resolved, "concepts", g.Len())
		if resolved == 0 {
			logger.Debug("Macro expansion reached fixpoint.", "iterations", iteration, "created", stats.Created, "rule_runs", stats.RuleRuns)
			return stats, nil
		}
	}
}

// sweep runs one rule on every resolved concept it is bound to. triggers
// holds the key of the concept that produced each batch entry.
func (e *Engine) sweep(g *graph.Graph, rule *registry.Rule) (batch []*concept.Instance, triggers []string, runs int, err error) {
	n := g.Len()
	for h := range concept.Handle(n) {
		if !g.IsResolved(h) || !slices.Contains(e.rules.RulesFor(g.Instance(h).Desc), rule) {
			continue
		}
		trigger := g.At(h)
		out, err := rule.Expand(trigger, g)
		runs++
		if err != nil {
			return nil, nil, runs, fmt.Errorf("macro rule '%s' on '%s': %w", rule.Name, trigger.Key(), err)
		}
		for _, c := range out {
			c.Origin = fmt.Sprintf("macro rule %s on %s", rule.Name, trigger.Key())
			batch = append(batch, c)
			triggers = append(triggers, trigger.Key())
		}
	}
	return batch, triggers, runs, nil
}

func triggerOf(c *concept.Instance, batch []*concept.Instance, triggers []string) string {
	for i := len(batch) - 1; i >= 0; i-- {
		if batch[i] == c {
			return triggers[i]
		}
	}
	return ""
}
