// Package main provides the entry point for the catalog CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/catalog/cmd/catalog/commands"
	"github.com/Sumatoshi-tech/catalog/pkg/version"
)

func main() {
	opts := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Product catalog backed by a red-black tree",
		Long: `catalog loads products from a CSV file into an ordered in-memory map
keyed by product ID and lets you insert and look up products.

Commands:
  shell     Load the source, then run the interactive menu
  load      Load the source and print an ingestion summary
  get       Load the source and print one product`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	opts.Bind(rootCmd)

	rootCmd.AddCommand(commands.NewShellCommand(opts))
	rootCmd.AddCommand(commands.NewLoadCommand(opts))
	rootCmd.AddCommand(commands.NewGetCommand(opts))
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
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
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
