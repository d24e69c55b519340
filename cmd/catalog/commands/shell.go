package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/catalog/pkg/observability"
	"github.com/Sumatoshi-tech/catalog/pkg/shell"
)

const (
	shellCmdUse   = "shell"
	shellCmdShort = "Load the product source, then run the interactive menu"

	msgLoaded = "Products loaded successfully!"
)

// NewShellCommand creates the shell subcommand.
func NewShellCommand(opts *GlobalOptions) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   shellCmdUse,
		Short: shellCmdShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, opts, source)
		},
	}

	addSourceFlag(cmd, &source)

	return cmd
}

func runShell(cmd *cobra.Command, opts *GlobalOptions, source string) (err error) {
	sess, err := openSession(opts, observability.ModeShell, source, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, sess.close(context.WithoutCancel(cmd.Context())))
	}()

	ctx, span := sess.providers.Tracer.Start(cmd.Context(), "catalog.shell")
	defer span.End()

	_, err = sess.ingest(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), msgLoaded)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	sh := shell.New(sess.catalog, cmd.InOrStdin(), cmd.OutOrStdout(),
		shell.WithErrorOutput(cmd.ErrOrStderr()),
		shell.WithColor(sess.cfg.Shell.Color && !opts.NoColor),
		shell.WithLogger(sess.logger),
	)

	return sh.Run(ctx)
}
