// Package validate runs the self-checks of concept types over a finished
// graph.
package validate

import (
	"context"

	"github.com/vk/conceptc/internal/concept"
	"github.com/vk/conceptc/internal/ctxlog"
	"github.com/vk/conceptc/internal/diag"
)

// Validators returns the checks that apply to a concept type.
type Validators interface {
	ValidatorsFor(d *concept.Descriptor) []concept.ValidateFunc
}

// Run checks every concept in handle order and reports all violations in a
// single SemanticValidationError.
func Run(ctx context.Context, validators Validators, g concept.GraphView) error {
	logger := ctxlog.FromContext(ctx)

	var violations []diag.Violation
	checked := 0
	for h := range concept.Handle(g.Len()) {
		c := g.At(h)
		checks := validators.ValidatorsFor(c.Descriptor())
		if len(checks) == 0 {
			continue
		}
		checked++
		for _, check := range checks {
			if err := check(c, g); err != nil {
				violations = append(violations, diag.Violation{Concept: c.Description(), Message: err.Error()})
			}
		}
	}

	logger.Debug("Concepts validated.", "checked", checked, "violations", len(violations))
	if len(violations) > 0 {
		return &diag.SemanticValidationError{Violations: violations}
	}
	return nil
}
