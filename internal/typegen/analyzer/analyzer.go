package analyzer

import (
	"github.com/barisgit/fluxgen/internal/typegen/decl"
	"github.com/barisgit/fluxgen/internal/typegen/mapper"
	"github.com/barisgit/fluxgen/internal/typegen/types"
)

// Options names the annotations and conventions the extractor looks for
type Options struct {
	RouteAnnotation    string
	EndpointAnnotation string
	ControllerSuffix   string
	Placeholder        string
}

// DefaultOptions returns the ASP.NET-style conventions
func DefaultOptions() Options {
	return Options{
		RouteAnnotation:    "Route",
		EndpointAnnotation: "HttpGet",
		ControllerSuffix:   "Controller",
		Placeholder:        "[controller]",
	}
}

// AnalyzeSurface extracts the endpoints of a surface and resolves their types
func AnalyzeSurface(surface decl.Surface, opts Options, m *mapper.Mapper) (*types.APIAnalysis, error) {
	endpoints, err := Extract(surface, opts)
	if err != nil {
		return nil, err
	}
	return Resolve(endpoints, surface, m), nil
}
