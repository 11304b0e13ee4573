package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/barisgit/fluxgen/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

const (
	sourceChoiceGo    = "Go packages (//fluxgen: directives)"
	sourceChoiceModel = "Declaration model file (YAML or JSON)"
)

const exampleModel = `# Controllers and response types for fluxgen
constants:
  ForecastRoute: GetWeatherForecast

declarations:
  - name: WeatherForecastController
    annotations:
      - name: Route
        args: ["[controller]"]
    methods:
      - name: Get
        annotations:
          - name: HttpGet
            args: [{const: ForecastRoute}]
        returns: IEnumerable<WeatherForecast>

  - name: WeatherForecast
    properties:
      - {name: Date, type: DateTime}
      - {name: TemperatureC, type: int}
      - {name: Summary, type: string?}
`

func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a fluxgen configuration file",
		Long:  "Create a fluxgen.yaml configuration file, asking for the source and output settings",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}

	cmd.Flags().Bool("force", false, "Overwrite existing configuration file")
	cmd.Flags().BoolP("yes", "y", false, "Accept all defaults without prompting")
	cmd.Flags().String("name", "", "Project name (default: current directory name)")
	cmd.Flags().String("source", "", "Source kind: go or model")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	yes, _ := cmd.Flags().GetBool("yes")
	projectName, _ := cmd.Flags().GetString("name")
	sourceKind, _ := cmd.Flags().GetString("source")

	configPath := config.ConfigPath("")

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s\nUse --force to overwrite", configPath)
		}
	}

	if projectName == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		projectName = filepath.Base(wd)
	}

	options := config.DefaultLoadOptions()
	options.Path = configPath
	options.AllowMissing = true
	options.Quiet = true
	cfg, err := config.NewConfigManager(options).LoadConfig()
	if err != nil {
		return err
	}
	cfg.Name = projectName

	if sourceKind != "" {
		cfg.Source.Kind = sourceKind
	}

	if !yes {
		if err := askProjectSettings(cfg, sourceKind == ""); err != nil {
			return err
		}
	}

	if cfg.Source.Kind == config.SourceModel {
		if cfg.Source.ModelFile == "" {
			cfg.Source.ModelFile = config.DefaultModelFile
		}
		cfg.Source.Patterns = nil
		if err := writeExampleModel(cfg.Source.ModelFile); err != nil {
			return err
		}
	}

	if err := config.WriteConfig(configPath, cfg); err != nil {
		return err
	}
	if err := config.ValidateConfigFile(configPath); err != nil {
		return err
	}

	fmt.Printf("✅ Created configuration file: %s\n", configPath)
	fmt.Printf("   Project: %s\n", cfg.Name)
	fmt.Printf("   Source: %s (%s)\n", cfg.Source.Kind, cfg.SourceInput())
	fmt.Printf("   Client: %s\n", cfg.Output.ClientFile)
	fmt.Printf("\n🚀 Run 'fluxgen generate' to generate the client\n")

	return nil
}

func askProjectSettings(cfg *config.ProjectConfig, askSource bool) error {
	if askSource {
		var choice string
		sourcePrompt := &survey.Select{
			Message: "Where are your controllers declared?",
			Options: []string{sourceChoiceGo, sourceChoiceModel},
			Default: sourceChoiceGo,
		}
		if err := survey.AskOne(sourcePrompt, &choice); err != nil {
			return err
		}
		if choice == sourceChoiceModel {
			cfg.Source.Kind = config.SourceModel
		} else {
			cfg.Source.Kind = config.SourceGo
		}
	}

	if cfg.Source.Kind == config.SourceModel {
		modelPrompt := &survey.Input{
			Message: "Declaration model file:",
			Default: config.DefaultModelFile,
		}
		if err := survey.AskOne(modelPrompt, &cfg.Source.ModelFile, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	} else {
		var patterns string
		patternsPrompt := &survey.Input{
			Message: "Package patterns (space separated):",
			Default: strings.Join(cfg.Source.Patterns, " "),
		}
		if err := survey.AskOne(patternsPrompt, &patterns, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
		cfg.Source.Patterns = strings.Fields(patterns)
	}

	clientPrompt := &survey.Input{
		Message: "Generated client file:",
		Default: cfg.Output.ClientFile,
	}
	if err := survey.AskOne(clientPrompt, &cfg.Output.ClientFile, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	prefixPrompt := &survey.Input{
		Message: "Function name prefix:",
		Default: cfg.Output.FunctionPrefix,
	}
	if err := survey.AskOne(prefixPrompt, &cfg.Output.FunctionPrefix, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	var withOpenAPI bool
	openapiPrompt := &survey.Confirm{
		Message: "Also write an OpenAPI document?",
		Default: false,
	}
	if err := survey.AskOne(openapiPrompt, &withOpenAPI); err != nil {
		return err
	}
	if withOpenAPI {
		cfg.Output.OpenAPIFile = "openapi.json"
	}

	return nil
}

// writeExampleModel creates a starter model unless the file already exists
func writeExampleModel(path string) error {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.WriteFile(path, []byte(exampleModel), 0o644); err != nil {
		return fmt.Errorf("failed to write example model: %w", err)
	}
	fmt.Printf("📝 Created example model: %s\n", path)
	return nil
}
