// Package commands implements the catalog subcommands.
package commands

import "github.com/spf13/cobra"

const (
	configFlag       = "config"
	configFlagUsage  = "path to catalog.yaml (default: search ., ./config, /etc/catalog)"
	verboseFlag      = "verbose"
	verboseShort     = "v"
	verboseFlagUsage = "debug logging"
	noColorFlag      = "no-color"
	noColorFlagUsage = "disable colored output"

	sourceFlag      = "source"
	sourceShort     = "s"
	sourceFlagUsage = "product CSV file, optionally .lz4 (overrides source.path)"
)

// GlobalOptions are the persistent flags shared by every subcommand.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	NoColor    bool
}

// Bind registers the options as persistent flags on root.
func (o *GlobalOptions) Bind(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringVar(&o.ConfigPath, configFlag, "", configFlagUsage)
	flags.BoolVarP(&o.Verbose, verboseFlag, verboseShort, false, verboseFlagUsage)
	flags.BoolVar(&o.NoColor, noColorFlag, false, noColorFlagUsage)
}

func addSourceFlag(cmd *cobra.Command, source *string) {
	cmd.Flags().StringVarP(source, sourceFlag, sourceShort, "", sourceFlagUsage)
}
