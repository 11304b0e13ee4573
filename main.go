package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/barisgit/fluxgen/cmd"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:           "fluxgen",
		Short:         "fluxgen - typed TypeScript clients for annotated API controllers",
		Long:          `fluxgen reads annotated controller declarations and generates a TypeScript client with one fetch function per GET endpoint.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("fluxgen v" + version)
			fmt.Println("Run 'fluxgen --help' for available commands")
		},
	}

	rootCmd.AddCommand(cmd.InitCmd())
	rootCmd.AddCommand(cmd.GenerateCmd())
	rootCmd.AddCommand(cmd.ConfigCmd())
	rootCmd.AddCommand(cmd.VersionCmd(version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
