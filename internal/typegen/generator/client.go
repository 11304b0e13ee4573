package generator

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/barisgit/fluxgen/internal/typegen/mapper"
	"github.com/barisgit/fluxgen/internal/typegen/types"
)

// DefaultHeader is written at the top of generated clients
const DefaultHeader = "// Code generated by fluxgen. DO NOT EDIT."

//go:embed templates/client.ts.tmpl
var clientTemplate string

var clientTmpl = template.Must(template.New("client").Parse(clientTemplate))

// ClientOptions controls the generated client module
type ClientOptions struct {
	FunctionPrefix string // prepended to <Controller><Method>, default "fetch"
	BaseURL        string // optional prefix for every fetched URL
	Header         string // optional leading comment, empty for none
	Mapper         *mapper.Mapper
}

// ClientTemplateData is the data passed to the client template
type ClientTemplateData struct {
	Header    string
	Endpoints []EndpointTemplateData
	Types     []TypeTemplateData
}

// EndpointTemplateData is one generated call wrapper
type EndpointTemplateData struct {
	FunctionName string
	ResponseType string
	RequestURL   string
}

// TypeTemplateData is one generated type alias
type TypeTemplateData struct {
	Name       string
	Properties []PropertyTemplateData
}

// PropertyTemplateData is one property of a generated type alias
type PropertyTemplateData struct {
	Name string
	Type string
}

// WriteClient renders the client module: one async call wrapper per endpoint
// followed by one type alias per type definition. Output depends only on the
// inputs and their order.
func WriteClient(endpoints []types.EndpointDescriptor, typeDefs []types.TypeDefinition, opts ClientOptions) (string, error) {
	data := newClientTemplateData(endpoints, typeDefs, opts)

	var buf strings.Builder
	if err := clientTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute client template: %w", err)
	}
	return buf.String(), nil
}

func newClientTemplateData(endpoints []types.EndpointDescriptor, typeDefs []types.TypeDefinition, opts ClientOptions) ClientTemplateData {
	prefix := opts.FunctionPrefix
	if prefix == "" {
		prefix = "fetch"
	}

	data := ClientTemplateData{
		Header:    opts.Header,
		Endpoints: make([]EndpointTemplateData, 0, len(endpoints)),
		Types:     make([]TypeTemplateData, 0, len(typeDefs)),
	}

	for _, endpoint := range endpoints {
		responseType := endpoint.ClientType
		if responseType == "" {
			responseType = mapper.TypeFallback
		}
		data.Endpoints = append(data.Endpoints, EndpointTemplateData{
			FunctionName: endpoint.FunctionName(prefix),
			ResponseType: responseType,
			RequestURL:   requestURL(opts.BaseURL, endpoint.URL()),
		})
	}

	for _, def := range typeDefs {
		typeData := TypeTemplateData{
			Name:       def.Name,
			Properties: make([]PropertyTemplateData, 0, len(def.Properties)),
		}
		for _, prop := range def.Properties {
			typeData.Properties = append(typeData.Properties, PropertyTemplateData{
				Name: propertyKey(prop.Name),
				Type: opts.Mapper.Map(prop.SourceTypeName, prop.Nullable),
			})
		}
		data.Types = append(data.Types, typeData)
	}

	return data
}
