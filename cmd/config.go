package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/barisgit/fluxgen/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage project configuration",
		Long:  "Validate, view, and upgrade your fluxgen configuration",
	}

	cmd.AddCommand(configValidateCmd())
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configUpgradeCmd())

	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate configuration file",
		Long:  "Validate the syntax and structure of a fluxgen configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigValidate,
	}

	cmd.Flags().Bool("strict", false, "Enable strict validation (fail on warnings)")

	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [config-file]",
		Short: "Show configuration information",
		Long:  "Display detailed information about the current configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigShow,
	}

	cmd.Flags().Bool("verbose", false, "Show the full configuration with defaults applied")

	return cmd
}

func configUpgradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade [config-file]",
		Short: "Upgrade configuration to latest format",
		Long:  "Rewrite an existing configuration file with missing defaults filled in and legacy fields removed",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigUpgrade,
	}

	cmd.Flags().Bool("backup", true, "Create backup of original file")

	return cmd
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath(args)
	strict, _ := cmd.Flags().GetBool("strict")

	fmt.Printf("🔍 Validating configuration file: %s\n", configPath)

	cm := config.NewConfigManager(config.ConfigLoadOptions{
		Path:              configPath,
		AllowMissing:      false,
		ValidateStructure: true,
		ApplyDefaults:     true,
		WarnOnDeprecated:  true,
		Quiet:             false,
	})

	cfg, err := cm.LoadConfigFromPath(configPath)
	if err != nil {
		fmt.Printf("❌ Configuration validation failed:\n%v\n", err)
		return err
	}

	fmt.Printf("✅ Configuration is valid!\n")

	info, err := config.GetConfigInfo(configPath)
	if err == nil {
		fmt.Printf("\n%s\n", info.String())
	}

	if strict {
		issues := checkConfigIssues(cfg)
		if len(issues) > 0 {
			fmt.Printf("\n⚠️  Potential issues found:\n")
			for i, issue := range issues {
				fmt.Printf("  %d. %s\n", i+1, issue)
			}
			return fmt.Errorf("strict validation failed due to %d issue(s)", len(issues))
		}
	}

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath(args)
	verbose, _ := cmd.Flags().GetBool("verbose")

	info, err := config.GetConfigInfo(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fmt.Printf("%s\n", info.String())

	if verbose {
		options := config.DefaultLoadOptions()
		options.Quiet = true
		cfg, err := config.NewConfigManager(options).LoadConfigFromPath(configPath)
		if err != nil {
			return fmt.Errorf("failed to load full configuration: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal configuration: %w", err)
		}

		fmt.Printf("\n📝 Detailed Configuration:\n```yaml\n%s```\n", string(data))
	}

	return nil
}

func runConfigUpgrade(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath(args)
	backup, _ := cmd.Flags().GetBool("backup")

	fmt.Printf("🔄 Upgrading configuration file: %s\n", configPath)

	if backup {
		backupPath := configPath + ".backup"
		if err := copyFile(configPath, backupPath); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		fmt.Printf("📋 Created backup: %s\n", backupPath)
	}

	// Old files may not validate yet; defaults are applied first
	cm := config.NewConfigManager(config.ConfigLoadOptions{
		Path:              configPath,
		AllowMissing:      false,
		ValidateStructure: false,
		ApplyDefaults:     true,
		WarnOnDeprecated:  true,
		Quiet:             false,
	})

	cfg, err := cm.LoadConfigFromPath(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Output.TypesFile = ""

	if err := config.WriteConfig(configPath, cfg); err != nil {
		return err
	}

	fmt.Printf("✅ Configuration upgraded successfully\n")

	if err := config.ValidateConfigFile(configPath); err != nil {
		fmt.Printf("⚠️  Warning: Upgraded configuration has validation issues:\n%v\n", err)
	} else {
		fmt.Printf("✅ Upgraded configuration is valid\n")
	}

	return nil
}

func getConfigPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return config.ConfigPath("")
}

func checkConfigIssues(cfg *config.ProjectConfig) []string {
	var issues []string

	if filepath.Ext(cfg.Output.ClientFile) != ".ts" {
		issues = append(issues, fmt.Sprintf("Client file %q does not end in .ts", cfg.Output.ClientFile))
	}

	if cfg.Output.BaseURL == "" {
		issues = append(issues, "No base_url set - generated requests are relative to the page origin")
	}

	if cfg.Source.Kind == config.SourceGo && slices.Contains(cfg.Source.Patterns, "./...") {
		issues = append(issues, "Pattern ./... loads every package - narrow it to your controller packages for faster runs")
	}

	for name, ts := range cfg.TypeMap {
		if ts == "any" {
			issues = append(issues, fmt.Sprintf("type_map maps %s to any - the generated types lose information", name))
		}
	}
	slices.Sort(issues)

	return issues
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
