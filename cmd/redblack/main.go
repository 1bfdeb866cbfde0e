// Package main provides the entry point for the redblack CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/redblack/cmd/redblack/commands"
	"github.com/Sumatoshi-tech/redblack/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "redblack",
		Short: "Red-black tree toolkit",
		Long: `redblack exercises and uses an arena-backed red-black tree.

Commands:
  stress    Randomized workload checked against an oracle
  sort      Sort unsigned integer keys through the tree`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(commands.ConfigFlag, "", commands.ConfigUsage)

	rootCmd.AddCommand(commands.NewStressCommand())
	rootCmd.AddCommand(commands.NewSortCommand())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String("redblack"))
		},
	}
}
