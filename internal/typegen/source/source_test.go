package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barisgit/fluxgen/internal/typegen/analyzer"
	"github.com/barisgit/fluxgen/internal/typegen/decl"
	"github.com/barisgit/fluxgen/internal/typegen/mapper"
	"github.com/barisgit/fluxgen/internal/typegen/types"
)

const testdataPath = "github.com/barisgit/fluxgen/internal/typegen/source/testdata/"

func load(t *testing.T, pkgs ...string) *Source {
	t.Helper()
	patterns := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		patterns = append(patterns, testdataPath+p)
	}
	src, err := Load(context.Background(), "", patterns...)
	require.NoError(t, err)
	return src
}

func names(decls []*decl.Declaration) []string {
	out := make([]string, 0, len(decls))
	for _, d := range decls {
		out = append(out, d.Name)
	}
	return out
}

func TestLoadDeclarations(t *testing.T) {
	src := load(t, "weather")

	assert.Equal(t, []string{
		"WeatherForecastController",
		"StatusController",
		"WeatherForecast",
		"Meta",
	}, names(src.Declarations()))

	controller := src.Declarations()[0]
	assert.True(t, controller.HasAnnotation(RouteAnnotation))
	assert.Contains(t, controller.Pos, "controller.go:")

	methods := controller.Methods
	require.Len(t, methods, 4)
	assert.Equal(t, "GetForecast", methods[0].Name)
	assert.Equal(t, types.Collection{
		Elem: types.Named{Name: "WeatherForecast"},
		Raw:  "[]WeatherForecast",
	}, methods[0].Returns)
	assert.Equal(t, types.Nullable{
		Elem: types.Named{Name: "WeatherForecast"},
		Raw:  "*WeatherForecast",
	}, methods[1].Returns)
	assert.Equal(t, types.Primitive{Name: "void"}, methods[2].Returns)
	assert.True(t, hasAnnotation(methods[2], "HttpPost"))
	assert.Empty(t, methods[3].Annotations)
}

func hasAnnotation(m decl.Method, name string) bool {
	_, ok := m.Annotation(name)
	return ok
}

func TestLoadProperties(t *testing.T) {
	src := load(t, "weather")

	forecast := decl.Lookup(src, "WeatherForecast")
	require.Len(t, forecast, 1)

	props := forecast[0].Properties
	require.Len(t, props, 5)

	got := make(map[string]types.TypeRef, len(props))
	order := make([]string, 0, len(props))
	for _, p := range props {
		got[p.Name] = p.Type
		order = append(order, p.Name)
	}

	assert.Equal(t, []string{"date", "temperatureC", "summary", "tags", "raw"}, order)
	assert.Equal(t, types.Named{Name: "time.Time"}, got["date"])
	assert.Equal(t, types.Primitive{Name: "int"}, got["temperatureC"])
	assert.Equal(t, types.Nullable{Elem: types.Primitive{Name: "string"}, Raw: "*string"}, got["summary"])
	assert.Equal(t, types.Collection{Elem: types.Primitive{Name: "string"}, Raw: "[]string"}, got["tags"])
	assert.Equal(t, types.Primitive{Name: "string"}, got["raw"])
}

func TestDirectiveConstants(t *testing.T) {
	src := load(t, "weather")

	status := decl.Lookup(src, "StatusController")
	require.Len(t, status, 1)

	route, ok := status[0].Annotation(RouteAnnotation)
	require.True(t, ok)
	require.Len(t, route.Args, 1)
	assert.Equal(t, `apiPrefix + "/[controller]"`, route.Args[0].Expr())

	value, err := route.Args[0].StringValue()
	require.NoError(t, err)
	assert.Equal(t, "api/[controller]", value)
}

func TestWeatherAnalysis(t *testing.T) {
	src := load(t, "weather")

	analysis, err := analyzer.AnalyzeSurface(src, analyzer.DefaultOptions(), mapper.New(nil))
	require.NoError(t, err)

	type endpoint struct{ url, clientType string }
	var got []endpoint
	for _, e := range analysis.Endpoints {
		got = append(got, endpoint{e.URL(), e.ClientType})
	}
	assert.Equal(t, []endpoint{
		{"WeatherForecast/GetWeatherForecast", "WeatherForecast[]"},
		{"WeatherForecast", "WeatherForecast | null | undefined"},
		{"api/Status/ping", "string"},
		{"api/Status/count", "number"},
		{"api/Status/nothing", "any"},
	}, got)

	require.Len(t, analysis.TypeDefs, 1)
	assert.Equal(t, []types.PropertyInfo{
		{Name: "date", SourceTypeName: "time.Time"},
		{Name: "temperatureC", SourceTypeName: "int"},
		{Name: "summary", SourceTypeName: "string", Nullable: true},
		{Name: "tags", SourceTypeName: "[]string"},
		{Name: "raw", SourceTypeName: "string"},
	}, analysis.TypeDefs[0].Properties)
	assert.Empty(t, analysis.Warnings)
}

func TestAmbiguousTypeAcrossPackages(t *testing.T) {
	src := load(t, "weather", "other")

	// other sorts before weather, so its declaration is found first
	analysis, err := analyzer.AnalyzeSurface(src, analyzer.DefaultOptions(), mapper.New(nil))
	require.NoError(t, err)

	require.Len(t, analysis.TypeDefs, 1)
	assert.Equal(t, []types.PropertyInfo{
		{Name: "Celsius", SourceTypeName: "float64"},
	}, analysis.TypeDefs[0].Properties)

	require.Len(t, analysis.Warnings, 1)
	assert.Equal(t, analyzer.WarnAmbiguousTypeName, analysis.Warnings[0].Code)
}

func TestBadRouteArguments(t *testing.T) {
	src := load(t, "badroute")

	_, err := analyzer.Extract(src, analyzer.DefaultOptions())
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "controller BadRouteController")
	assert.Contains(t, msg, "not a string")
	assert.Contains(t, msg, "controller TwoArgsController")
	assert.Contains(t, msg, "exactly one argument, got 2")
	assert.Contains(t, msg, "controller UnknownController")
	assert.Contains(t, msg, "missingConst")
}

func TestUnknownDirective(t *testing.T) {
	_, err := Load(context.Background(), "", testdataPath+"broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown directive //fluxgen:delete-all")
}

func TestLoadMissingPackage(t *testing.T) {
	_, err := Load(context.Background(), "", testdataPath+"doesnotexist")
	assert.Error(t, err)
}

func TestReceiverName(t *testing.T) {
	src := load(t, "weather")

	status := decl.Lookup(src, "StatusController")
	require.Len(t, status, 1)
	assert.Len(t, status[0].Methods, 3, "value receivers attach too")
}
