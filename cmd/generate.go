package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/barisgit/fluxgen/config"
	"github.com/barisgit/fluxgen/internal/dev"
	"github.com/barisgit/fluxgen/internal/logging"
	"github.com/barisgit/fluxgen/internal/typegen"

	"github.com/spf13/cobra"
)

func GenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Generate the TypeScript API client",
		Long:    "Analyze annotated controllers and generate a TypeScript client with one fetch function per GET endpoint and one type per response shape",
		Args:    cobra.NoArgs,
		RunE:    runGenerate,
	}

	cmd.Flags().StringP("config", "c", "", "Path to the configuration file (default $FLUXGEN_CONFIG or fluxgen.yaml)")
	cmd.Flags().BoolP("watch", "w", false, "Regenerate whenever sources change")
	cmd.Flags().Bool("debug", false, "Enable debug logging")
	cmd.Flags().Bool("quiet", false, "Only log warnings and errors (for use in build scripts)")
	cmd.Flags().Bool("dry-run", false, "Render everything but write nothing")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	configFlag, _ := cmd.Flags().GetString("config")
	watch, _ := cmd.Flags().GetBool("watch")
	debug, _ := cmd.Flags().GetBool("debug")
	quiet, _ := cmd.Flags().GetBool("quiet")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if err := config.LoadEnvFile(""); err != nil {
		return err
	}

	configPath := config.ConfigPath(configFlag)
	cfg, err := loadProjectConfig(configPath, quiet)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.LogLevel, debug, quiet); err != nil {
		return err
	}

	ctx := cmd.Context()
	if !watch {
		if err := generateOnce(ctx, cfg, dryRun); err != nil {
			return err
		}
		if hook := hookRunner(cfg); hook != nil && !dryRun {
			return hook.Run(ctx)
		}
		return nil
	}

	// The configuration is reloaded on every run so edits apply without a restart
	generate := func(ctx context.Context) error {
		current, err := loadProjectConfig(configPath, true)
		if err != nil {
			return err
		}
		return generateOnce(ctx, current, dryRun)
	}

	var hook *dev.HookRunner
	if !dryRun {
		hook = hookRunner(cfg)
	}

	session := dev.NewSession(generate, dev.WatchOptions{
		Roots:      watchRoots(cfg),
		Files:      watchFiles(cfg),
		Extensions: cfg.Watch.Extensions,
		Ignore:     typegen.OutputPaths(cfg),
		Debounce:   cfg.Watch.Debounce,
		Hook:       hook,
	})

	slog.Info("watching for changes", "source", cfg.SourceInput())
	return session.Run(ctx)
}

func generateOnce(ctx context.Context, cfg *config.ProjectConfig, dryRun bool) error {
	report, err := typegen.Generate(ctx, cfg, dryRun)
	if err != nil {
		return fmt.Errorf("type generation failed: %w", err)
	}

	slog.Info("generated API client",
		"endpoints", report.Endpoints,
		"types", report.Types,
		"written", len(report.Written),
		"unchanged", len(report.Unchanged),
		"warnings", len(report.Warnings),
		"took", report.Duration.Round(time.Millisecond),
	)
	for _, path := range report.Written {
		slog.Debug("updated", "path", path)
	}
	return nil
}

func loadProjectConfig(path string, quiet bool) (*config.ProjectConfig, error) {
	options := config.DefaultLoadOptions()
	options.Path = path
	options.AllowMissing = path == config.DefaultConfigFile
	options.Quiet = quiet

	return config.NewConfigManager(options).LoadConfig()
}

// setupLogging applies the configured level; --debug and --quiet win
func setupLogging(configured string, debug, quiet bool) error {
	level, err := logging.ParseLevel(configured)
	if err != nil {
		return err
	}
	switch {
	case debug:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	logging.Init(level)
	return nil
}

func hookRunner(cfg *config.ProjectConfig) *dev.HookRunner {
	return dev.NewHookRunner(cfg.Hooks.AfterGenerate, cfg.BaseDir())
}

func watchRoots(cfg *config.ProjectConfig) []string {
	if cfg.Source.Kind == config.SourceGo {
		return []string{cfg.Resolve(cfg.Source.Dir)}
	}
	return nil
}

func watchFiles(cfg *config.ProjectConfig) []string {
	var files []string
	if cfg.Path() != "" {
		files = append(files, cfg.Path())
	}
	if cfg.Source.Kind == config.SourceModel {
		files = append(files, filepath.Clean(cfg.Resolve(cfg.Source.ModelFile)))
	}
	return files
}
