package analyzer

import (
	"fmt"
	"strings"

	"github.com/barisgit/fluxgen/internal/typegen/decl"
)

// ConfigurationError reports a controller whose route annotations cannot be
// used. It is fatal for the generation run.
type ConfigurationError struct {
	Controller string
	Pos        string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	if e.Pos != "" {
		return fmt.Sprintf("%s: controller %s: %s", e.Pos, e.Controller, e.Reason)
	}
	return fmt.Sprintf("controller %s: %s", e.Controller, e.Reason)
}

// ControllerBaseName strips the controller suffix from a declaration name
func ControllerBaseName(name, suffix string) string {
	if suffix == "" {
		return name
	}
	return strings.TrimSuffix(name, suffix)
}

// SubstitutePlaceholder replaces the placeholder token in a route template
// with the controller base name. Templates without the token are returned
// unchanged.
func SubstitutePlaceholder(template, placeholder, controllerBaseName string) string {
	if placeholder == "" || !strings.Contains(template, placeholder) {
		return template
	}
	return strings.ReplaceAll(template, placeholder, controllerBaseName)
}

// ResolveControllerRoute evaluates the controller's route annotation and
// substitutes the placeholder token. The annotation must carry exactly one
// constant string argument.
func ResolveControllerRoute(d *decl.Declaration, opts Options) (string, error) {
	routeAnnotation, ok := d.Annotation(opts.RouteAnnotation)
	if !ok {
		return "", &ConfigurationError{
			Controller: d.Name,
			Pos:        d.Pos,
			Reason:     fmt.Sprintf("missing %s annotation", opts.RouteAnnotation),
		}
	}

	if len(routeAnnotation.Args) != 1 {
		return "", &ConfigurationError{
			Controller: d.Name,
			Pos:        d.Pos,
			Reason:     fmt.Sprintf("%s annotation must have exactly one argument, got %d", opts.RouteAnnotation, len(routeAnnotation.Args)),
		}
	}

	template, err := routeAnnotation.Args[0].StringValue()
	if err != nil {
		return "", &ConfigurationError{
			Controller: d.Name,
			Pos:        d.Pos,
			Reason:     fmt.Sprintf("%s argument %s is not a constant string: %v", opts.RouteAnnotation, routeAnnotation.Args[0].Expr(), err),
		}
	}

	baseName := ControllerBaseName(d.Name, opts.ControllerSuffix)
	return SubstitutePlaceholder(template, opts.Placeholder, baseName), nil
}
