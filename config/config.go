package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default file names
const (
	DefaultConfigFile = "fluxgen.yaml"
	DefaultModelFile  = "fluxgen.model.yaml"
	DefaultClientFile = "apiClient.ts"
)

// Source kinds
const (
	SourceGo    = "go"
	SourceModel = "model"
)

// Environment variables that override configuration values
const (
	EnvConfig   = "FLUXGEN_CONFIG"
	EnvOutput   = "FLUXGEN_OUTPUT"
	EnvLogLevel = "FLUXGEN_LOG_LEVEL"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error in field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "no validation errors"
	}

	var messages []string
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

func (errs ValidationErrors) HasErrors() bool {
	return len(errs) > 0
}

// ConfigLoadOptions provides options for loading configuration
type ConfigLoadOptions struct {
	Path              string
	AllowMissing      bool
	ValidateStructure bool
	ApplyDefaults     bool
	ApplyEnv          bool
	WarnOnDeprecated  bool
	Quiet             bool
}

// DefaultLoadOptions returns sensible defaults for config loading
func DefaultLoadOptions() ConfigLoadOptions {
	return ConfigLoadOptions{
		Path:              DefaultConfigFile,
		AllowMissing:      false,
		ValidateStructure: true,
		ApplyDefaults:     true,
		ApplyEnv:          true,
		WarnOnDeprecated:  true,
		Quiet:             false,
	}
}

// ConfigManager handles configuration loading, validation, and management
type ConfigManager struct {
	options ConfigLoadOptions
	getenv  func(string) string
}

// NewConfigManager creates a new configuration manager
func NewConfigManager(options ConfigLoadOptions) *ConfigManager {
	return &ConfigManager{
		options: options,
		getenv:  os.Getenv,
	}
}

// LoadConfig loads and validates the configuration with comprehensive error handling
func (cm *ConfigManager) LoadConfig() (*ProjectConfig, error) {
	return cm.LoadConfigFromPath(cm.options.Path)
}

// LoadConfigFromPath loads configuration from a specific path. Relative
// paths inside the file are resolved against the file's directory.
func (cm *ConfigManager) LoadConfigFromPath(path string) (*ProjectConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if cm.options.AllowMissing {
			if !cm.options.Quiet {
				slog.Warn("configuration file not found, using defaults", "path", path)
			}
			config := cm.createDefaultConfig()
			return cm.finish(config, path)
		}
		return nil, fmt.Errorf("configuration file not found: %s\n\nRun 'fluxgen init' to create one", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	var config ProjectConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %s: %w\n\nPlease check your YAML syntax", path, err)
	}

	if cm.options.WarnOnDeprecated && !cm.options.Quiet {
		cm.checkDeprecatedFields(&config)
	}

	return cm.finish(&config, path)
}

// finish applies defaults, environment overrides and validation in order
func (cm *ConfigManager) finish(config *ProjectConfig, path string) (*ProjectConfig, error) {
	if cm.options.ApplyDefaults {
		cm.applyDefaults(config)
	}

	if cm.options.ApplyEnv {
		cm.applyEnv(config)
	}

	if cm.options.ValidateStructure {
		if errs := cm.validateConfig(config); errs.HasErrors() {
			return nil, fmt.Errorf("configuration validation failed:\n%s", cm.formatValidationErrors(errs))
		}
	}

	if absPath, err := filepath.Abs(path); err == nil {
		config.path = absPath
	}
	return config, nil
}

// validateConfig performs comprehensive validation on the configuration
func (cm *ConfigManager) validateConfig(config *ProjectConfig) ValidationErrors {
	var errors ValidationErrors

	switch config.Source.Kind {
	case SourceGo:
		if len(config.Source.Patterns) == 0 {
			errors = append(errors, ValidationError{
				Field:   "source.patterns",
				Value:   config.Source.Patterns,
				Message: "at least one package pattern is required for go sources",
			})
		}
	case SourceModel:
		if config.Source.ModelFile == "" {
			errors = append(errors, ValidationError{
				Field:   "source.model_file",
				Value:   config.Source.ModelFile,
				Message: "model file cannot be empty for model sources",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "source.kind",
			Value:   config.Source.Kind,
			Message: fmt.Sprintf("unsupported source kind '%s', valid options are: %s, %s", config.Source.Kind, SourceGo, SourceModel),
		})
	}

	if config.Annotations.Route == "" {
		errors = append(errors, ValidationError{
			Field:   "annotations.route",
			Value:   config.Annotations.Route,
			Message: "route annotation name cannot be empty",
		})
	}

	if config.Annotations.Endpoint == "" {
		errors = append(errors, ValidationError{
			Field:   "annotations.endpoint",
			Value:   config.Annotations.Endpoint,
			Message: "endpoint annotation name cannot be empty",
		})
	}

	if config.Output.ClientFile == "" {
		errors = append(errors, ValidationError{
			Field:   "output.client_file",
			Value:   config.Output.ClientFile,
			Message: "client output file cannot be empty",
		})
	}

	if !isIdentifier(config.Output.FunctionPrefix) {
		errors = append(errors, ValidationError{
			Field:   "output.function_prefix",
			Value:   config.Output.FunctionPrefix,
			Message: "function prefix must be a valid identifier",
		})
	}

	if file := config.Output.OpenAPIFile; file != "" {
		switch strings.ToLower(filepath.Ext(file)) {
		case ".json", ".yaml", ".yml":
		default:
			errors = append(errors, ValidationError{
				Field:   "output.openapi_file",
				Value:   file,
				Message: "OpenAPI file must end in .json, .yaml or .yml",
			})
		}
	}

	for source, client := range config.TypeMap {
		if source == "" || client == "" {
			errors = append(errors, ValidationError{
				Field:   "type_map",
				Value:   fmt.Sprintf("%s: %s", source, client),
				Message: "type map entries need both a source and a client type",
			})
		}
	}

	if config.LogLevel != "" && !slices.Contains(validLogLevels, config.LogLevel) {
		errors = append(errors, ValidationError{
			Field:   "log_level",
			Value:   config.LogLevel,
			Message: fmt.Sprintf("unsupported log level '%s', valid options are: %s", config.LogLevel, strings.Join(validLogLevels, ", ")),
		})
	}

	if config.Watch.Debounce < 0 {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce",
			Value:   config.Watch.Debounce,
			Message: "debounce cannot be negative",
		})
	}

	return errors
}

// applyDefaults sets default values for missing configuration fields
func (cm *ConfigManager) applyDefaults(config *ProjectConfig) {
	if config.Source.Kind == "" {
		if config.Source.ModelFile != "" {
			config.Source.Kind = SourceModel
		} else {
			config.Source.Kind = SourceGo
		}
	}
	if config.Source.Dir == "" {
		config.Source.Dir = "."
	}
	if config.Source.Kind == SourceGo && len(config.Source.Patterns) == 0 {
		config.Source.Patterns = []string{"./..."}
	}

	if config.Annotations.Route == "" {
		config.Annotations.Route = "Route"
	}
	if config.Annotations.Endpoint == "" {
		config.Annotations.Endpoint = "HttpGet"
	}
	if config.Annotations.ControllerSuffix == "" {
		config.Annotations.ControllerSuffix = "Controller"
	}
	if config.Annotations.Placeholder == "" {
		config.Annotations.Placeholder = "[controller]"
	}

	if config.Output.ClientFile == "" {
		config.Output.ClientFile = DefaultClientFile
	}
	if config.Output.FunctionPrefix == "" {
		config.Output.FunctionPrefix = "fetch"
	}
	if config.Output.Header == nil {
		header := true
		config.Output.Header = &header
	}

	if config.TypeMap == nil {
		config.TypeMap = make(map[string]string)
	}

	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = 300 * time.Millisecond
	}
	if len(config.Watch.Extensions) == 0 {
		config.Watch.Extensions = []string{".go", ".yaml", ".yml", ".json"}
	}
}

// applyEnv overrides configuration values from the environment
func (cm *ConfigManager) applyEnv(config *ProjectConfig) {
	if output := cm.getenv(EnvOutput); output != "" {
		config.Output.ClientFile = output
	}
	if level := cm.getenv(EnvLogLevel); level != "" {
		config.LogLevel = strings.ToLower(level)
	}
}

// checkDeprecatedFields warns about deprecated configuration fields
func (cm *ConfigManager) checkDeprecatedFields(config *ProjectConfig) {
	if config.Output.TypesFile != "" {
		slog.Warn("deprecated field 'output.types_file' is no longer used, types are written to output.client_file")
	}
}

// createDefaultConfig creates a default configuration when no config file exists
func (cm *ConfigManager) createDefaultConfig() *ProjectConfig {
	header := true
	return &ProjectConfig{
		Name: filepath.Base(mustGetwd()),
		Source: SourceConfig{
			Kind:     SourceGo,
			Dir:      ".",
			Patterns: []string{"./..."},
		},
		Annotations: DefaultAnnotations(),
		Output: OutputConfig{
			ClientFile:     DefaultClientFile,
			FunctionPrefix: "fetch",
			Header:         &header,
		},
		TypeMap:  make(map[string]string),
		LogLevel: "info",
		Watch: WatchConfig{
			Debounce:   300 * time.Millisecond,
			Extensions: []string{".go", ".yaml", ".yml", ".json"},
		},
	}
}

// formatValidationErrors formats validation errors in a user-friendly way
func (cm *ConfigManager) formatValidationErrors(errors ValidationErrors) string {
	var lines []string
	for i, err := range errors {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, err.Error()))
	}
	return strings.Join(lines, "\n")
}

// LoadEnvFile loads variables from a .env file into the process
// environment. A missing file is not an error; variables already set win.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ConfigPath returns the configuration path to use: the explicit flag value,
// then $FLUXGEN_CONFIG, then the default file name.
func ConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	return DefaultConfigFile
}

// ValidateConfigFile validates a configuration file without loading it fully
func ValidateConfigFile(path string) error {
	cm := NewConfigManager(ConfigLoadOptions{
		Path:              path,
		AllowMissing:      false,
		ValidateStructure: true,
		ApplyDefaults:     true,
		WarnOnDeprecated:  true,
		Quiet:             false,
	})

	_, err := cm.LoadConfigFromPath(path)
	return err
}

// GetConfigInfo returns information about the current configuration
func GetConfigInfo(path string) (*ConfigInfo, error) {
	options := DefaultLoadOptions()
	options.Quiet = true
	cm := NewConfigManager(options)
	config, err := cm.LoadConfigFromPath(path)
	if err != nil {
		return nil, err
	}

	return &ConfigInfo{
		Path:         config.path,
		ProjectName:  config.Name,
		SourceKind:   config.Source.Kind,
		SourceInput:  config.SourceInput(),
		ClientFile:   config.Output.ClientFile,
		Prefix:       config.Output.FunctionPrefix,
		ManifestFile: config.Output.ManifestFile,
		OpenAPIFile:  config.Output.OpenAPIFile,
		TypeMapSize:  len(config.TypeMap),
		AfterHook:    config.Hooks.AfterGenerate,
	}, nil
}

// ConfigInfo contains summary information about a configuration
type ConfigInfo struct {
	Path         string
	ProjectName  string
	SourceKind   string
	SourceInput  string
	ClientFile   string
	Prefix       string
	ManifestFile string
	OpenAPIFile  string
	TypeMapSize  int
	AfterHook    string
}

// String returns a formatted string representation of config info
func (info *ConfigInfo) String() string {
	var lines []string
	lines = append(lines, "📋 Configuration Summary")
	lines = append(lines, fmt.Sprintf("   Path: %s", info.Path))
	lines = append(lines, fmt.Sprintf("   Project: %s", info.ProjectName))
	lines = append(lines, fmt.Sprintf("   Source: %s (%s)", info.SourceKind, info.SourceInput))
	lines = append(lines, fmt.Sprintf("   Client: %s (prefix %q)", info.ClientFile, info.Prefix))
	if info.ManifestFile != "" {
		lines = append(lines, fmt.Sprintf("   Manifest: %s", info.ManifestFile))
	}
	if info.OpenAPIFile != "" {
		lines = append(lines, fmt.Sprintf("   OpenAPI: %s", info.OpenAPIFile))
	}
	if info.TypeMapSize > 0 {
		lines = append(lines, fmt.Sprintf("   Type map: %d entries", info.TypeMapSize))
	}
	if info.AfterHook != "" {
		lines = append(lines, fmt.Sprintf("   After generate: %s", info.AfterHook))
	}

	return strings.Join(lines, "\n")
}

// LoadConfig loads configuration using default options
func LoadConfig() (*ProjectConfig, error) {
	cm := NewConfigManager(DefaultLoadOptions())
	return cm.LoadConfig()
}

// LoadConfigWithDefaults loads configuration, creating defaults if missing
func LoadConfigWithDefaults(path string) (*ProjectConfig, error) {
	options := DefaultLoadOptions()
	options.Path = path
	options.AllowMissing = true

	cm := NewConfigManager(options)
	return cm.LoadConfig()
}

// WriteConfig writes a configuration file
func WriteConfig(path string, config *ProjectConfig) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write configuration file %s: %w", path, err)
	}
	return nil
}

// Helper functions

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "fluxgen"
	}
	return wd
}

type ProjectConfig struct {
	Name        string            `yaml:"name"`
	Source      SourceConfig      `yaml:"source"`
	Annotations AnnotationsConfig `yaml:"annotations"`
	Output      OutputConfig      `yaml:"output"`
	TypeMap     map[string]string `yaml:"type_map,omitempty"`
	Hooks       HooksConfig       `yaml:"hooks,omitempty"`
	Watch       WatchConfig       `yaml:"watch,omitempty"`
	LogLevel    string            `yaml:"log_level,omitempty"`

	path string
}

// SourceConfig selects the declaration front-end
type SourceConfig struct {
	Kind      string   `yaml:"kind"`                 // "go" or "model"
	Dir       string   `yaml:"dir"`                  // working directory for package patterns
	Patterns  []string `yaml:"patterns,omitempty"`   // go package patterns
	ModelFile string   `yaml:"model_file,omitempty"` // declaration model, YAML or JSON
}

// AnnotationsConfig names the annotations read from declaration models. Go
// sources always use the //fluxgen: directives.
type AnnotationsConfig struct {
	Route            string `yaml:"route"`
	Endpoint         string `yaml:"endpoint"`
	ControllerSuffix string `yaml:"controller_suffix"`
	Placeholder      string `yaml:"placeholder"`
}

type OutputConfig struct {
	ClientFile     string `yaml:"client_file"`
	FunctionPrefix string `yaml:"function_prefix"`
	BaseURL        string `yaml:"base_url,omitempty"`
	Header         *bool  `yaml:"header,omitempty"`
	ManifestFile   string `yaml:"manifest_file,omitempty"`
	OpenAPIFile    string `yaml:"openapi_file,omitempty"`
	OpenAPITitle   string `yaml:"openapi_title,omitempty"`
	TypesFile      string `yaml:"types_file,omitempty"` // Legacy, ignored
}

type HooksConfig struct {
	AfterGenerate string `yaml:"after_generate,omitempty"` // shell command run after each successful generation
}

type WatchConfig struct {
	Debounce   time.Duration `yaml:"debounce,omitempty"`
	Extensions []string      `yaml:"extensions,omitempty"`
}

// DefaultAnnotations returns the ASP.NET-style annotation names
func DefaultAnnotations() AnnotationsConfig {
	return AnnotationsConfig{
		Route:            "Route",
		Endpoint:         "HttpGet",
		ControllerSuffix: "Controller",
		Placeholder:      "[controller]",
	}
}

// Path returns the absolute path the configuration was loaded from
func (c *ProjectConfig) Path() string {
	return c.path
}

// BaseDir is the directory relative paths in the configuration resolve against
func (c *ProjectConfig) BaseDir() string {
	if c.path == "" {
		return "."
	}
	return filepath.Dir(c.path)
}

// Resolve returns p relative to the configuration directory
func (c *ProjectConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir(), p)
}

// HeaderEnabled reports whether generated files start with a header comment
func (c *ProjectConfig) HeaderEnabled() bool {
	return c.Output.Header == nil || *c.Output.Header
}

// SourceInput describes where declarations are read from
func (c *ProjectConfig) SourceInput() string {
	if c.Source.Kind == SourceModel {
		return c.Source.ModelFile
	}
	return strings.Join(c.Source.Patterns, " ")
}
