package generator

import (
	"encoding/json"
	"fmt"

	"github.com/barisgit/fluxgen/internal/typegen/types"
)

// RouteManifestEntry is one route in the JSON manifest
type RouteManifestEntry struct {
	Method       string `json:"method"`
	URL          string `json:"url"`
	Controller   string `json:"controller"`
	MethodName   string `json:"methodName"`
	Function     string `json:"function"`
	ResponseType string `json:"responseType"`
}

// GenerateRouteManifest renders a JSON manifest of all endpoints
func GenerateRouteManifest(endpoints []types.EndpointDescriptor, functionPrefix string) ([]byte, error) {
	if functionPrefix == "" {
		functionPrefix = "fetch"
	}

	routes := make([]RouteManifestEntry, 0, len(endpoints))
	for _, e := range endpoints {
		routes = append(routes, RouteManifestEntry{
			Method:       e.HTTPVerb,
			URL:          e.URL(),
			Controller:   e.ControllerName,
			MethodName:   e.MethodName,
			Function:     e.FunctionName(functionPrefix),
			ResponseType: e.ClientType,
		})
	}

	data, err := json.MarshalIndent(routes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal routes: %w", err)
	}
	return append(data, '\n'), nil
}
