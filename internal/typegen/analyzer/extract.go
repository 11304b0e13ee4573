package analyzer

import (
	"errors"
	"fmt"

	"github.com/barisgit/fluxgen/internal/typegen/decl"
	"github.com/barisgit/fluxgen/internal/typegen/types"
)

// Extract finds every controller in the surface and returns one endpoint per
// method carrying the endpoint annotation, in declaration order.
//
// Misconfigured controllers do not stop the scan; all of their errors are
// joined into the returned error and no endpoints are returned.
func Extract(surface decl.Surface, opts Options) ([]types.EndpointDescriptor, error) {
	var endpoints []types.EndpointDescriptor
	var errs []error

	for _, d := range surface.Declarations() {
		if !d.HasAnnotation(opts.RouteAnnotation) {
			continue
		}

		controllerEndpoints, err := extractController(d, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		endpoints = append(endpoints, controllerEndpoints...)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return endpoints, nil
}

func extractController(d *decl.Declaration, opts Options) ([]types.EndpointDescriptor, error) {
	controllerRoute, err := ResolveControllerRoute(d, opts)
	if err != nil {
		return nil, err
	}
	controllerName := ControllerBaseName(d.Name, opts.ControllerSuffix)

	var endpoints []types.EndpointDescriptor
	for _, method := range d.Methods {
		getAnnotation, ok := method.Annotation(opts.EndpointAnnotation)
		if !ok {
			continue
		}

		routePart, err := methodRoutePart(getAnnotation)
		if err != nil {
			return nil, &ConfigurationError{
				Controller: d.Name,
				Pos:        method.Pos,
				Reason:     fmt.Sprintf("method %s: %v", method.Name, err),
			}
		}

		endpoints = append(endpoints, types.EndpointDescriptor{
			ControllerName:     controllerName,
			ControllerRoute:    controllerRoute,
			MethodName:         method.Name,
			MethodRoutePart:    routePart,
			HTTPVerb:           types.MethodGet,
			DeclaredReturnType: method.Returns,
		})
	}

	return endpoints, nil
}

// methodRoutePart reads the optional route fragment of an endpoint annotation
func methodRoutePart(a decl.Annotation) (string, error) {
	if len(a.Args) == 0 {
		return "", nil
	}
	part, err := a.Args[0].StringValue()
	if err != nil {
		return "", fmt.Errorf("%s argument %s is not a constant string: %w", a.Name, a.Args[0].Expr(), err)
	}
	return part, nil
}
