package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barisgit/fluxgen/internal/typegen/analyzer"
	"github.com/barisgit/fluxgen/internal/typegen/mapper"
	"github.com/barisgit/fluxgen/internal/typegen/types"
)

const weatherModel = `
constants:
  Routes.Weather: "GetWeatherForecast"
declarations:
  - name: WeatherForecastController
    annotations:
      - name: ApiController
      - name: Route
        args: ["[controller]"]
    methods:
      - name: GetForecast
        annotations:
          - name: HttpGet
            args: [{const: Routes.Weather}]
        returns: IEnumerable<WeatherForecast>
      - name: Helper
        returns: int
  - name: WeatherForecast
    properties:
      - name: Date
        type: {named: DateTime}
      - name: TemperatureC
        type: {primitive: int}
      - name: Summary
        type: string?
`

func TestParseWeatherModel(t *testing.T) {
	m, err := Parse([]byte(weatherModel), "weather.yaml")
	require.NoError(t, err)

	decls := m.Declarations()
	require.Len(t, decls, 2)

	controller := decls[0]
	assert.Equal(t, "WeatherForecastController", controller.Name)
	assert.Equal(t, "weather.yaml:5:5", controller.Pos)
	assert.True(t, controller.HasAnnotation("ApiController"))

	route, ok := controller.Annotation("Route")
	require.True(t, ok)
	require.Len(t, route.Args, 1)
	value, err := route.Args[0].StringValue()
	require.NoError(t, err)
	assert.Equal(t, "[controller]", value)

	require.Len(t, controller.Methods, 2)
	get, ok := controller.Methods[0].Annotation("HttpGet")
	require.True(t, ok)
	value, err = get.Args[0].StringValue()
	require.NoError(t, err)
	assert.Equal(t, "GetWeatherForecast", value)
	assert.Equal(t, "Routes.Weather", get.Args[0].Expr())

	assert.Equal(t, types.Collection{
		Elem: types.Named{Name: "WeatherForecast"},
		Raw:  "IEnumerable<WeatherForecast>",
	}, controller.Methods[0].Returns)

	forecast := decls[1]
	require.Len(t, forecast.Properties, 3)
	assert.Equal(t, types.Named{Name: "DateTime"}, forecast.Properties[0].Type)
	assert.Equal(t, types.Primitive{Name: "int"}, forecast.Properties[1].Type)
	assert.Equal(t, types.Nullable{Elem: types.Primitive{Name: "string"}, Raw: "string?"}, forecast.Properties[2].Type)
}

func TestParseJSONModel(t *testing.T) {
	data := `{"declarations": [{"name": "PingController",` +
		`"annotations": [{"name": "Route", "args": ["api/[controller]"]}],` +
		`"methods": [{"name": "Get", "annotations": [{"name": "HttpGet"}], "returns": {"primitive": "string"}}]}]}`

	m, err := Parse([]byte(data), "ping.json")
	require.NoError(t, err)
	require.Len(t, m.Declarations(), 1)
	assert.Equal(t, types.Primitive{Name: "string"}, m.Declarations()[0].Methods[0].Returns)
}

func TestModelEndToEnd(t *testing.T) {
	m, err := Parse([]byte(weatherModel), "weather.yaml")
	require.NoError(t, err)

	analysis, err := analyzer.AnalyzeSurface(m, analyzer.DefaultOptions(), mapper.New(nil))
	require.NoError(t, err)

	require.Len(t, analysis.Endpoints, 1)
	assert.Equal(t, "WeatherForecast/GetWeatherForecast", analysis.Endpoints[0].URL())
	assert.Equal(t, "WeatherForecast[]", analysis.Endpoints[0].ClientType)
	require.Len(t, analysis.TypeDefs, 1)
	assert.Equal(t, []types.PropertyInfo{
		{Name: "Date", SourceTypeName: "DateTime"},
		{Name: "TemperatureC", SourceTypeName: "int"},
		{Name: "Summary", SourceTypeName: "string", Nullable: true},
	}, analysis.TypeDefs[0].Properties)
}

func TestCollectionOfGenericElement(t *testing.T) {
	m, err := Parse([]byte(`declarations:
  - name: LookupController
    annotations:
      - {name: Route, args: ["[controller]"]}
    methods:
      - name: Tables
        annotations: [{name: HttpGet}]
        returns: List<Dictionary<string, int>>
`), "lookup.yaml")
	require.NoError(t, err)

	analysis, err := analyzer.AnalyzeSurface(m, analyzer.DefaultOptions(), mapper.New(nil))
	require.NoError(t, err)
	require.Len(t, analysis.Endpoints, 1)
	assert.Equal(t, "any[]", analysis.Endpoints[0].ClientType)
}

func TestUndefinedConstant(t *testing.T) {
	data := `
declarations:
  - name: BrokenController
    annotations:
      - name: Route
        args: [{const: Missing}]
`
	m, err := Parse([]byte(data), "broken.yaml")
	require.NoError(t, err, "constants are resolved lazily")

	_, err = analyzer.Extract(m, analyzer.DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BrokenController")
	assert.Contains(t, err.Error(), "undefined constant Missing")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "two type kinds",
			data: "declarations:\n  - name: X\n    properties:\n      - name: A\n        type: {primitive: int, named: Y}\n",
			want: "exactly one",
		},
		{
			name: "unknown type kind",
			data: "declarations:\n  - name: X\n    properties:\n      - name: A\n        type: {map: int}\n",
			want: "unknown type kind",
		},
		{
			name: "argument mapping without const",
			data: "declarations:\n  - name: X\n    annotations:\n      - name: Route\n        args: [{value: a}]\n",
			want: "must name a constant",
		},
		{
			name: "missing declaration name",
			data: "declarations:\n  - annotations: []\n",
			want: "has no name",
		},
		{
			name: "property without type",
			data: "declarations:\n  - name: X\n    properties:\n      - name: A\n",
			want: "needs a name and a type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "bad.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(weatherModel), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Declarations(), 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseTypeRef(t *testing.T) {
	tests := []struct {
		text string
		want types.TypeRef
	}{
		{"int", types.Primitive{Name: "int"}},
		{" string ", types.Primitive{Name: "string"}},
		{"DateTime", types.Named{Name: "DateTime"}},
		{"WeatherForecast", types.Named{Name: "WeatherForecast"}},
		{"int?", types.Nullable{Elem: types.Primitive{Name: "int"}, Raw: "int?"}},
		{"Nullable<int>", types.Nullable{Elem: types.Primitive{Name: "int"}, Raw: "Nullable<int>"}},
		{"X[]", types.Collection{Elem: types.Named{Name: "X"}, Raw: "X[]"}},
		{"List<X>", types.Collection{Elem: types.Named{Name: "X"}, Raw: "List<X>"}},
		{
			"System.Collections.Generic.IReadOnlyList<X>",
			types.Collection{Elem: types.Named{Name: "X"}, Raw: "System.Collections.Generic.IReadOnlyList<X>"},
		},
		{
			"List<List<int>>",
			types.Collection{
				Elem: types.Collection{Elem: types.Primitive{Name: "int"}, Raw: "List<int>"},
				Raw:  "List<List<int>>",
			},
		},
		{"Dictionary<string, int>", types.Named{Name: "Dictionary<string, int>"}},
		{
			"List<Dictionary<string, int>>",
			types.Collection{Elem: types.Named{Name: "Dictionary<string, int>"}, Raw: "List<Dictionary<string, int>>"},
		},
		{"KeyValuePair<string, List<int>>", types.Named{Name: "KeyValuePair<string, List<int>>"}},
		{"List<string, int>", types.Named{Name: "List<string, int>"}},
		{
			"X?[]",
			types.Collection{Elem: types.Nullable{Elem: types.Named{Name: "X"}, Raw: "X?"}, Raw: "X?[]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseTypeRef(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTypeRefErrors(t *testing.T) {
	for _, text := range []string{"", "  ", "List<", "a,b", "?"} {
		_, err := ParseTypeRef(text)
		assert.Error(t, err, "text %q", text)
	}
}
