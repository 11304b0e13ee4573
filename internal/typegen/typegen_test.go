package typegen

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barisgit/fluxgen/config"
	"github.com/barisgit/fluxgen/internal/typegen/analyzer"
	"github.com/barisgit/fluxgen/internal/typegen/generator"
	"github.com/barisgit/fluxgen/internal/typegen/mapper"
	"github.com/barisgit/fluxgen/internal/typegen/model"
)

const weatherModel = `declarations:
  - name: WeatherForecastController
    annotations:
      - name: Route
        args: ["[controller]"]
    methods:
      - name: GetForecast
        annotations:
          - name: HttpGet
            args: [GetWeatherForecast]
        returns: IEnumerable<WeatherForecast>
  - name: WeatherForecast
    properties:
      - {name: Date, type: DateTime}
      - {name: TemperatureC, type: int}
      - {name: Summary, type: string?}
`

const weatherClient = `export const fetchWeatherForecastGetForecast: () => Promise<WeatherForecast[]> = async () => {
  const response = await fetch("WeatherForecast/GetWeatherForecast");
  const body = await response.json();
  return body;
}

export type WeatherForecast = {
  date: Date
  temperatureC: number
  summary: string | null | undefined
}

`

// project writes a model, a configuration and returns the loaded config
func project(t *testing.T, modelYAML, extraConfig string) *config.ProjectConfig {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "api.model.yaml"), []byte(modelYAML), 0o644))

	configYAML := "name: weather\nsource:\n  kind: model\n  model_file: api.model.yaml\noutput:\n  header: false\n" + extraConfig
	configPath := filepath.Join(dir, "fluxgen.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o644))

	cfg, err := config.NewConfigManager(config.ConfigLoadOptions{
		Path:              configPath,
		ValidateStructure: true,
		ApplyDefaults:     true,
		Quiet:             true,
	}).LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestRender(t *testing.T) {
	m, err := model.Parse([]byte(weatherModel), "api.model.yaml")
	require.NoError(t, err)

	result, err := Render(m, Options{
		Analyzer:   analyzer.DefaultOptions(),
		Mapper:     mapper.New(nil),
		ClientFile: "apiClient.ts",
	})
	require.NoError(t, err)

	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, "apiClient.ts", result.Artifacts[0].Path)
	assert.Equal(t, weatherClient, string(result.Artifacts[0].Data))
}

func TestRenderTypeMapOverride(t *testing.T) {
	m, err := model.Parse([]byte(weatherModel), "api.model.yaml")
	require.NoError(t, err)

	result, err := Render(m, Options{
		Analyzer:   analyzer.DefaultOptions(),
		Mapper:     mapper.New(map[string]string{"DateTime": "string"}),
		ClientFile: "apiClient.ts",
	})
	require.NoError(t, err)
	assert.Contains(t, string(result.Artifacts[0].Data), "  date: string\n")
}

func TestGenerate(t *testing.T) {
	cfg := project(t, weatherModel, "  manifest_file: build/routes.json\n  openapi_file: build/openapi.json\n")

	report, err := Generate(context.Background(), cfg, false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Endpoints)
	assert.Equal(t, 1, report.Types)
	assert.Len(t, report.Written, 3)

	client, err := os.ReadFile(cfg.Resolve("apiClient.ts"))
	require.NoError(t, err)
	assert.Equal(t, weatherClient, string(client))

	manifest, err := os.ReadFile(cfg.Resolve("build/routes.json"))
	require.NoError(t, err)
	var routes []generator.RouteManifestEntry
	require.NoError(t, json.Unmarshal(manifest, &routes))
	require.Len(t, routes, 1)
	assert.Equal(t, "WeatherForecast/GetWeatherForecast", routes[0].URL)

	openapi, err := os.ReadFile(cfg.Resolve("build/openapi.json"))
	require.NoError(t, err)
	assert.Contains(t, string(openapi), `"/WeatherForecast/GetWeatherForecast"`)
}

func TestGenerateIsIdempotent(t *testing.T) {
	cfg := project(t, weatherModel, "")

	first, err := Generate(context.Background(), cfg, false)
	require.NoError(t, err)
	require.Len(t, first.Written, 1)

	second, err := Generate(context.Background(), cfg, false)
	require.NoError(t, err)
	assert.Empty(t, second.Written)
	assert.Equal(t, first.Written, second.Unchanged)
}

func TestGenerateOverwritesPreviousOutput(t *testing.T) {
	cfg := project(t, weatherModel, "")
	clientPath := cfg.Resolve("apiClient.ts")
	require.NoError(t, os.WriteFile(clientPath, []byte("// stale\n"), 0o644))

	_, err := Generate(context.Background(), cfg, false)
	require.NoError(t, err)

	data, err := os.ReadFile(clientPath)
	require.NoError(t, err)
	assert.Equal(t, weatherClient, string(data))

	// no temporary files are left behind
	entries, err := os.ReadDir(filepath.Dir(clientPath))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestGenerateConfigurationErrorWritesNothing(t *testing.T) {
	broken := weatherModel + `  - name: BrokenController
    annotations:
      - name: Route
        args: ["a", "b"]
`
	cfg := project(t, broken, "")
	clientPath := cfg.Resolve("apiClient.ts")
	require.NoError(t, os.WriteFile(clientPath, []byte("// previous\n"), 0o644))

	_, err := Generate(context.Background(), cfg, false)
	require.Error(t, err)

	var cfgErr *analyzer.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "BrokenController", cfgErr.Controller)

	data, err := os.ReadFile(clientPath)
	require.NoError(t, err)
	assert.Equal(t, "// previous\n", string(data))
}

func TestGenerateDryRun(t *testing.T) {
	cfg := project(t, weatherModel, "")

	report, err := Generate(context.Background(), cfg, true)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Empty(t, report.Written)

	_, err = os.Stat(cfg.Resolve("apiClient.ts"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateMissingModel(t *testing.T) {
	cfg := project(t, weatherModel, "")
	require.NoError(t, os.Remove(cfg.Resolve("api.model.yaml")))

	_, err := Generate(context.Background(), cfg, false)
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := project(t, weatherModel, "  base_url: https://api.example.com\n")

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "Route", opts.Analyzer.RouteAnnotation)
	assert.Equal(t, "https://api.example.com", opts.Client.BaseURL)
	assert.Empty(t, opts.Client.Header, "header disabled in config")
	assert.Equal(t, "weather", opts.OpenAPI.Title)
	assert.Equal(t, []string{cfg.Resolve("apiClient.ts")}, OutputPaths(cfg))
}
