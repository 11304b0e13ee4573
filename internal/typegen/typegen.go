// Package typegen runs the client generation pipeline: load declarations,
// extract endpoints, resolve response types, and write the generated files.
package typegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/barisgit/fluxgen/config"
	"github.com/barisgit/fluxgen/internal/typegen/analyzer"
	"github.com/barisgit/fluxgen/internal/typegen/decl"
	"github.com/barisgit/fluxgen/internal/typegen/generator"
	"github.com/barisgit/fluxgen/internal/typegen/mapper"
	"github.com/barisgit/fluxgen/internal/typegen/model"
	"github.com/barisgit/fluxgen/internal/typegen/source"
	"github.com/barisgit/fluxgen/internal/typegen/types"
)

// Options controls rendering. Paths are used as given.
type Options struct {
	Analyzer     analyzer.Options
	Mapper       *mapper.Mapper
	Client       generator.ClientOptions
	ClientFile   string
	ManifestFile string // optional
	OpenAPIFile  string // optional
	OpenAPI      generator.OpenAPIOptions
}

// Artifact is one rendered output file
type Artifact struct {
	Path string
	Data []byte
}

// Result is the in-memory output of a pipeline run
type Result struct {
	Analysis  *types.APIAnalysis
	Artifacts []Artifact
}

// Report summarizes a generation run
type Report struct {
	Endpoints int
	Types     int
	Warnings  []types.Warning
	Written   []string
	Unchanged []string
	DryRun    bool
	Duration  time.Duration
}

// Render runs extraction, type resolution and rendering without touching
// the filesystem. Any extraction error aborts the run.
func Render(surface decl.Surface, opts Options) (*Result, error) {
	analysis, err := analyzer.AnalyzeSurface(surface, opts.Analyzer, opts.Mapper)
	if err != nil {
		return nil, err
	}

	client := opts.Client
	client.Mapper = opts.Mapper
	code, err := generator.WriteClient(analysis.Endpoints, analysis.TypeDefs, client)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Analysis:  analysis,
		Artifacts: []Artifact{{Path: opts.ClientFile, Data: []byte(code)}},
	}

	if opts.ManifestFile != "" {
		data, err := generator.GenerateRouteManifest(analysis.Endpoints, client.FunctionPrefix)
		if err != nil {
			return nil, err
		}
		result.Artifacts = append(result.Artifacts, Artifact{Path: opts.ManifestFile, Data: data})
	}

	if opts.OpenAPIFile != "" {
		openapiOpts := opts.OpenAPI
		openapiOpts.Mapper = opts.Mapper
		data, err := generator.RenderOpenAPI(generator.BuildOpenAPI(analysis, openapiOpts), opts.OpenAPIFile)
		if err != nil {
			return nil, err
		}
		result.Artifacts = append(result.Artifacts, Artifact{Path: opts.OpenAPIFile, Data: data})
	}

	return result, nil
}

// OptionsFromConfig builds render options from a project configuration.
// Output paths are resolved against the configuration directory.
func OptionsFromConfig(cfg *config.ProjectConfig) Options {
	analyzerOpts := analyzer.Options{
		RouteAnnotation:    cfg.Annotations.Route,
		EndpointAnnotation: cfg.Annotations.Endpoint,
		ControllerSuffix:   cfg.Annotations.ControllerSuffix,
		Placeholder:        cfg.Annotations.Placeholder,
	}
	if cfg.Source.Kind == config.SourceGo {
		analyzerOpts.RouteAnnotation = source.RouteAnnotation
		analyzerOpts.EndpointAnnotation = source.GetAnnotation
	}

	opts := Options{
		Analyzer: analyzerOpts,
		Mapper:   mapper.New(cfg.TypeMap),
		Client: generator.ClientOptions{
			FunctionPrefix: cfg.Output.FunctionPrefix,
			BaseURL:        cfg.Output.BaseURL,
		},
		ClientFile:   cfg.Resolve(cfg.Output.ClientFile),
		ManifestFile: cfg.Resolve(cfg.Output.ManifestFile),
		OpenAPIFile:  cfg.Resolve(cfg.Output.OpenAPIFile),
		OpenAPI: generator.OpenAPIOptions{
			Title: cfg.Output.OpenAPITitle,
		},
	}
	if opts.OpenAPI.Title == "" {
		opts.OpenAPI.Title = cfg.Name
	}
	if cfg.HeaderEnabled() {
		opts.Client.Header = generator.DefaultHeader
	}
	return opts
}

// OpenSurface loads the declarations named by the source configuration
func OpenSurface(ctx context.Context, cfg *config.ProjectConfig) (decl.Surface, error) {
	switch cfg.Source.Kind {
	case config.SourceGo:
		src, err := source.Load(ctx, cfg.Resolve(cfg.Source.Dir), cfg.Source.Patterns...)
		if err != nil {
			return nil, fmt.Errorf("failed to load go sources: %w", err)
		}
		return src, nil
	case config.SourceModel:
		m, err := model.Load(cfg.Resolve(cfg.Source.ModelFile))
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported source kind %q", cfg.Source.Kind)
	}
}

// Generate runs the whole pipeline for a configuration. Nothing is written
// unless every artifact rendered successfully. Files whose content is
// unchanged are left alone.
func Generate(ctx context.Context, cfg *config.ProjectConfig, dryRun bool) (*Report, error) {
	start := time.Now()

	surface, err := OpenSurface(ctx, cfg)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded declarations", "count", len(surface.Declarations()), "source", cfg.SourceInput())

	result, err := Render(surface, OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}

	report := &Report{
		Endpoints: len(result.Analysis.Endpoints),
		Types:     len(result.Analysis.TypeDefs),
		Warnings:  result.Analysis.Warnings,
		DryRun:    dryRun,
	}
	for _, w := range report.Warnings {
		slog.Warn("type resolution", "code", w.Code, "msg", w.Message)
	}

	for _, artifact := range result.Artifacts {
		if dryRun {
			slog.Info("would write", "path", artifact.Path, "bytes", len(artifact.Data))
			continue
		}

		changed, err := writeIfChanged(artifact.Path, artifact.Data)
		if err != nil {
			return nil, err
		}
		if changed {
			report.Written = append(report.Written, artifact.Path)
			slog.Debug("wrote", "path", artifact.Path, "bytes", len(artifact.Data))
		} else {
			report.Unchanged = append(report.Unchanged, artifact.Path)
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

// OutputPaths lists every file a configuration generates
func OutputPaths(cfg *config.ProjectConfig) []string {
	opts := OptionsFromConfig(cfg)
	paths := []string{opts.ClientFile}
	for _, p := range []string{opts.ManifestFile, opts.OpenAPIFile} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func writeIfChanged(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return false, err
	}
	return true, nil
}

// writeFileAtomic replaces path with data through a temporary file in the
// same directory, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
