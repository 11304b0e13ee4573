package analyzer

import (
	"fmt"
	"strings"

	"github.com/barisgit/fluxgen/internal/typegen/decl"
	"github.com/barisgit/fluxgen/internal/typegen/mapper"
	"github.com/barisgit/fluxgen/internal/typegen/types"
)

// Warning codes recorded by Resolve
const (
	WarnAmbiguousTypeName = "ambiguous_type_name"
)

// typeResolver owns the de-duplication state of a single Resolve call
type typeResolver struct {
	surface decl.Surface
	mapper  *mapper.Mapper

	index    map[string]int // type name -> position in defs
	defs     []types.TypeDefinition
	warnings []types.Warning
}

// Resolve renders the client type of every endpoint and collects one type
// definition per distinct named response type. Endpoints are returned as
// copies with ClientType set; the input slice is not modified.
//
// Type definitions are keyed by name only. When two declarations share a
// name the first one wins and a warning is recorded.
func Resolve(endpoints []types.EndpointDescriptor, surface decl.Surface, m *mapper.Mapper) *types.APIAnalysis {
	r := &typeResolver{
		surface: surface,
		mapper:  m,
		index:   make(map[string]int),
	}

	resolved := make([]types.EndpointDescriptor, len(endpoints))
	for i, endpoint := range endpoints {
		endpoint.ClientType = r.clientType(endpoint.DeclaredReturnType)
		resolved[i] = endpoint
	}

	return &types.APIAnalysis{
		Endpoints: resolved,
		TypeDefs:  r.defs,
		Warnings:  r.warnings,
	}
}

// clientType renders a declared return type
func (r *typeResolver) clientType(ref types.TypeRef) string {
	switch t := ref.(type) {
	case types.Primitive:
		return r.mapper.Map(t.Name, false)
	case types.Named:
		return r.namedType(t.Name)
	case types.Collection:
		return mapper.Array(r.elementType(t.Elem))
	case types.Nullable:
		return mapper.Nullable(r.clientType(t.Elem))
	default:
		types.UnhandledRef(ref)
		return ""
	}
}

// elementType renders the element of a collection. Only one level of
// collection is modeled: nested collections fall back to the mapper.
func (r *typeResolver) elementType(ref types.TypeRef) string {
	switch t := ref.(type) {
	case types.Primitive:
		return r.mapper.Map(t.Name, false)
	case types.Named:
		return r.namedType(t.Name)
	case types.Nullable:
		return r.elementType(t.Elem)
	case types.Collection:
		return r.mapper.Map(t.Source(), false)
	default:
		types.UnhandledRef(ref)
		return ""
	}
}

// namedType returns the client name of a named type, describing it on first
// use. Names without a declaration go through the primitive table.
func (r *typeResolver) namedType(name string) string {
	if _, seen := r.index[name]; seen {
		return name
	}

	candidates := decl.Lookup(r.surface, name)
	if len(candidates) == 0 {
		return r.mapper.Map(name, false)
	}

	if len(candidates) > 1 {
		positions := make([]string, 0, len(candidates))
		for _, c := range candidates {
			positions = append(positions, c.Pos)
		}
		r.warnings = append(r.warnings, types.Warning{
			Code:    WarnAmbiguousTypeName,
			Message: fmt.Sprintf("%d declarations named %s (%s); using the first", len(candidates), name, strings.Join(positions, ", ")),
		})
	}

	r.index[name] = len(r.defs)
	r.defs = append(r.defs, describe(candidates[0]))
	return name
}

// describe walks the properties of a declaration exactly once. Property types
// are not expanded further.
func describe(d *decl.Declaration) types.TypeDefinition {
	def := types.TypeDefinition{
		Name:       d.Name,
		Properties: make([]types.PropertyInfo, 0, len(d.Properties)),
	}

	for _, p := range d.Properties {
		prop := types.PropertyInfo{Name: p.Name}
		if nullable, ok := p.Type.(types.Nullable); ok {
			prop.SourceTypeName = nullable.Elem.Source()
			prop.Nullable = true
		} else {
			prop.SourceTypeName = p.Type.Source()
		}
		def.Properties = append(def.Properties, prop)
	}

	return def
}
