package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/vk/conceptc/internal/concept"
)

const selfVar = "self"

// functions are the functions available to macro expressions.
var functions = map[string]function.Function{
	"upper":   stdlib.UpperFunc,
	"lower":   stdlib.LowerFunc,
	"format":  stdlib.FormatFunc,
	"join":    stdlib.JoinFunc,
	"replace": stdlib.ReplaceFunc,
}

func knownFunctions() map[string]bool {
	known := make(map[string]bool, len(functions))
	for name := range functions {
		known[name] = true
	}
	return known
}

// selfValue renders a concept as the `self` object.
func selfValue(c concept.View) cty.Value {
	attrs := map[string]cty.Value{}
	for _, m := range c.Descriptor().AllMembers() {
		attrs[m.Name] = cty.StringVal(c.Get(m.Name))
	}
	attrs["type"] = cty.StringVal(c.Type())
	attrs["key"] = cty.StringVal(c.Key())
	attrs["path"] = cty.StringVal(c.Path())
	return cty.ObjectVal(attrs)
}

func evalContext(c concept.View) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{selfVar: selfValue(c)},
		Functions: functions,
	}
}

// evalString evaluates expr and converts the result to a string.
func evalString(expr hcl.Expression, ectx *hcl.EvalContext) (string, error) {
	v, diags := expr.Value(ectx)
	if diags.HasErrors() {
		return "", diags
	}
	v, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("%s: %w", expr.Range(), err)
	}
	if v.IsNull() || !v.IsKnown() {
		return "", fmt.Errorf("%s: expression has no value", expr.Range())
	}
	return v.AsString(), nil
}

// evalBool evaluates expr and converts the result to a bool.
func evalBool(expr hcl.Expression, ectx *hcl.EvalContext) (bool, error) {
	v, diags := expr.Value(ectx)
	if diags.HasErrors() {
		return false, diags
	}
	v, err := convert.Convert(v, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("%s: %w", expr.Range(), err)
	}
	if v.IsNull() || !v.IsKnown() {
		return false, fmt.Errorf("%s: condition has no value", expr.Range())
	}
	return v.True(), nil
}
