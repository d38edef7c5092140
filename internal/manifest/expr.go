package manifest

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/vk/conceptc/internal/ctxlog"
)

// isExprDefined reports whether an optional attribute was written in the
// source. Omitted optional attributes decode to a zero-width expression
// rather than nil.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", defined,
	)
	return defined
}

// traversalKey renders a traversal canonically, e.g. "self.Name".
func traversalKey(t hcl.Traversal) string {
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// analysis lists what a group of expressions refers to.
type analysis struct {
	references []hcl.Traversal
	functions  []string
}

// analyze collects the unique variable traversals and function calls of
// exprs, both sorted.
func analyze(exprs ...hcl.Expression) analysis {
	traversals := make(map[string]hcl.Traversal)
	functions := make(map[string]struct{})

	for _, expr := range exprs {
		if expr == nil {
			continue
		}
		for _, t := range expr.Variables() {
			traversals[traversalKey(t)] = t
		}
		if syntaxExpr, ok := expr.(hclsyntax.Expression); ok {
			walkForFunctions(syntaxExpr, functions)
		}
	}

	keys := make([]string, 0, len(traversals))
	for k := range traversals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var a analysis
	for _, k := range keys {
		a.references = append(a.references, traversals[k])
	}
	for f := range functions {
		a.functions = append(a.functions, f)
	}
	sort.Strings(a.functions)
	return a
}

// check returns one message per reference to something other than `self`
// and per call of a function missing from known.
func (a analysis) check(known map[string]bool) []string {
	var problems []string
	for _, t := range a.references {
		if root := t.RootName(); root != selfVar {
			problems = append(problems, fmt.Sprintf("unknown variable '%s' in '%s'; only '%s' is available", root, traversalKey(t), selfVar))
		}
	}
	for _, f := range a.functions {
		if !known[f] {
			problems = append(problems, fmt.Sprintf("unknown function '%s'", f))
		}
	}
	return problems
}

// walkForFunctions walks the syntax tree looking for function calls.
func walkForFunctions(expr hclsyntax.Expression, functions map[string]struct{}) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		functions[e.Name] = struct{}{}
		for _, arg := range e.Args {
			walkForFunctions(arg, functions)
		}
	case *hclsyntax.BinaryOpExpr:
		walkForFunctions(e.LHS, functions)
		walkForFunctions(e.RHS, functions)
	case *hclsyntax.ConditionalExpr:
		walkForFunctions(e.Condition, functions)
		walkForFunctions(e.TrueResult, functions)
		walkForFunctions(e.FalseResult, functions)
	case *hclsyntax.UnaryOpExpr:
		walkForFunctions(e.Val, functions)
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			walkForFunctions(part, functions)
		}
	case *hclsyntax.TemplateWrapExpr:
		walkForFunctions(e.Wrapped, functions)
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			walkForFunctions(item, functions)
		}
	case *hclsyntax.ObjectConsExpr:
		for _, item := range e.Items {
			walkForFunctions(item.KeyExpr, functions)
			walkForFunctions(item.ValueExpr, functions)
		}
	case *hclsyntax.IndexExpr:
		walkForFunctions(e.Collection, functions)
		walkForFunctions(e.Key, functions)
	case *hclsyntax.ParenthesesExpr:
		walkForFunctions(e.Expression, functions)
	}
}
