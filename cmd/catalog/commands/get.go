package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/catalog/pkg/observability"
	"github.com/Sumatoshi-tech/catalog/pkg/product"
)

const (
	getCmdUse       = "get <product-id>"
	getCmdShort     = "Load the product source and print one product"
	getArgCount     = 1
	formatFlag      = "format"
	formatShort     = "f"
	formatFlagUsage = "output format: text, json or yaml"
)

// ErrProductNotFound is returned when the requested product ID is absent.
var ErrProductNotFound = errors.New("product not found")

// NewGetCommand creates the get subcommand.
func NewGetCommand(opts *GlobalOptions) *cobra.Command {
	var (
		source string
		format string
	)

	cmd := &cobra.Command{
		Use:   getCmdUse,
		Short: getCmdShort,
		Args:  cobra.ExactArgs(getArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := product.ParseFormat(format)
			if err != nil {
				return err
			}

			return runGet(cmd, opts, source, args[0], outFormat)
		},
	}

	addSourceFlag(cmd, &source)
	cmd.Flags().StringVarP(&format, formatFlag, formatShort, string(product.FormatText), formatFlagUsage)

	return cmd
}

func runGet(cmd *cobra.Command, opts *GlobalOptions, source, id string, format product.Format) (err error) {
	sess, err := openSession(opts, observability.ModeCLI, source, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, sess.close(context.WithoutCancel(cmd.Context())))
	}()

	ctx, span := sess.providers.Tracer.Start(cmd.Context(), "catalog.get",
		trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	_, err = sess.ingest(ctx)
	if err != nil {
		return err
	}

	found, ok := sess.catalog.Search(ctx, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}

	return product.Write(cmd.OutOrStdout(), found, format)
}
