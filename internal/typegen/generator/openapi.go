package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/barisgit/fluxgen/internal/typegen/mapper"
	"github.com/barisgit/fluxgen/internal/typegen/types"
)

const schemaRefPrefix = "#/components/schemas/"

// OpenAPIOptions describes the generated document
type OpenAPIOptions struct {
	Title   string
	Version string
	Mapper  *mapper.Mapper
}

// BuildOpenAPI describes the analysed endpoints as an OpenAPI document. Each
// type definition becomes a component schema; endpoint responses reference
// them.
func BuildOpenAPI(analysis *types.APIAnalysis, opts OpenAPIOptions) *huma.OpenAPI {
	title := opts.Title
	if title == "" {
		title = "API"
	}
	version := opts.Version
	if version == "" {
		version = "1.0.0"
	}

	registry := huma.NewMapRegistry(schemaRefPrefix, huma.DefaultSchemaNamer)
	known := make(map[string]bool, len(analysis.TypeDefs))
	for _, def := range analysis.TypeDefs {
		known[def.Name] = true
	}

	b := &schemaBuilder{mapper: opts.Mapper, known: known}
	for _, def := range analysis.TypeDefs {
		registry.Map()[def.Name] = b.typeDefSchema(def)
	}

	oapi := &huma.OpenAPI{
		OpenAPI: "3.1.0",
		Info: &huma.Info{
			Title:   title,
			Version: version,
		},
		Components: &huma.Components{
			Schemas: registry,
		},
	}

	for _, e := range analysis.Endpoints {
		oapi.AddOperation(&huma.Operation{
			OperationID: lowerFirst(e.ControllerName + e.MethodName),
			Method:      e.HTTPVerb,
			Path:        "/" + strings.TrimPrefix(e.URL(), "/"),
			Summary:     fmt.Sprintf("%s %s", e.ControllerName, e.MethodName),
			Tags:        []string{e.ControllerName},
			Responses: map[string]*huma.Response{
				"200": {
					Description: "OK",
					Content: map[string]*huma.MediaType{
						"application/json": {Schema: b.refSchema(e.DeclaredReturnType)},
					},
				},
			},
		})
	}

	return oapi
}

// RenderOpenAPI serializes the document as YAML when path ends in .yaml or
// .yml, and as indented JSON otherwise.
func RenderOpenAPI(oapi *huma.OpenAPI, path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := oapi.YAML()
		if err != nil {
			return nil, fmt.Errorf("failed to generate OpenAPI YAML: %w", err)
		}
		return data, nil
	default:
		raw, err := oapi.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to generate OpenAPI JSON: %w", err)
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return nil, fmt.Errorf("failed to indent OpenAPI JSON: %w", err)
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	}
}

type schemaBuilder struct {
	mapper *mapper.Mapper
	known  map[string]bool
}

func (b *schemaBuilder) typeDefSchema(def types.TypeDefinition) *huma.Schema {
	schema := &huma.Schema{
		Type:       "object",
		Properties: make(map[string]*huma.Schema, len(def.Properties)),
	}
	for _, prop := range def.Properties {
		name := lowerFirst(prop.Name)
		propSchema := b.primitiveSchema(prop.SourceTypeName)
		// an untyped schema already admits null
		propSchema.Nullable = prop.Nullable && propSchema.Type != ""
		schema.Properties[name] = propSchema
		if !prop.Nullable {
			schema.Required = append(schema.Required, name)
		}
	}
	return schema
}

// refSchema mirrors the client type rendering of the type resolver
func (b *schemaBuilder) refSchema(ref types.TypeRef) *huma.Schema {
	switch t := ref.(type) {
	case types.Primitive:
		return b.primitiveSchema(t.Name)
	case types.Named:
		if b.known[t.Name] {
			return &huma.Schema{Ref: schemaRefPrefix + t.Name}
		}
		return b.primitiveSchema(t.Name)
	case types.Collection:
		elem := t.Elem
		if nullable, ok := elem.(types.Nullable); ok {
			elem = nullable.Elem
		}
		if _, nested := elem.(types.Collection); nested {
			return &huma.Schema{Type: "array", Items: &huma.Schema{}}
		}
		return &huma.Schema{Type: "array", Items: b.refSchema(elem)}
	case types.Nullable:
		schema := b.refSchema(t.Elem)
		switch {
		case schema.Ref != "":
			return &huma.Schema{OneOf: []*huma.Schema{schema, {Type: "null"}}}
		case schema.Type != "":
			schema.Nullable = true
		}
		return schema
	default:
		types.UnhandledRef(ref)
		return nil
	}
}

// primitiveSchema maps a source type name through the client table
func (b *schemaBuilder) primitiveSchema(sourceName string) *huma.Schema {
	mapped, _ := b.mapper.Lookup(sourceName)
	switch mapped {
	case mapper.TypeNumber:
		return &huma.Schema{Type: "number"}
	case mapper.TypeString:
		return &huma.Schema{Type: "string"}
	case mapper.TypeBoolean:
		return &huma.Schema{Type: "boolean"}
	case mapper.TypeDate:
		return &huma.Schema{Type: "string", Format: "date-time"}
	default:
		return &huma.Schema{}
	}
}
