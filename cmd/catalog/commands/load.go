package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/catalog/pkg/catalog"
	"github.com/Sumatoshi-tech/catalog/pkg/ingest"
	"github.com/Sumatoshi-tech/catalog/pkg/observability"
)

const (
	loadCmdUse        = "load"
	loadCmdShort      = "Load the product source and print an ingestion summary"
	verifyFlag        = "verify"
	verifyFlagUsage   = "check the red-black tree invariants after loading"
	skippedFlag       = "show-skipped"
	skippedFlagUsage  = "list malformed rows and duplicate product IDs"
	fieldsColumnWidth = 60
)

// NewLoadCommand creates the load subcommand.
func NewLoadCommand(opts *GlobalOptions) *cobra.Command {
	var (
		source      string
		verify      bool
		showSkipped bool
	)

	cmd := &cobra.Command{
		Use:   loadCmdUse,
		Short: loadCmdShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoad(cmd, opts, source, verify, showSkipped)
		},
	}

	addSourceFlag(cmd, &source)
	cmd.Flags().BoolVar(&verify, verifyFlag, false, verifyFlagUsage)
	cmd.Flags().BoolVar(&showSkipped, skippedFlag, false, skippedFlagUsage)

	return cmd
}

func runLoad(cmd *cobra.Command, opts *GlobalOptions, source string, verify, showSkipped bool) (err error) {
	sess, err := openSession(opts, observability.ModeCLI, source, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, sess.close(context.WithoutCancel(cmd.Context())))
	}()

	ctx, span := sess.providers.Tracer.Start(cmd.Context(), "catalog.load")
	defer span.End()

	result, err := sess.ingest(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	renderSummary(out, result, sess.catalog.Stats())

	if showSkipped {
		renderSkipped(out, result)
	}

	if verify {
		verifyErr := sess.catalog.Verify()
		if verifyErr != nil {
			return fmt.Errorf("verify: %w", verifyErr)
		}

		okColor := color.New(color.FgGreen)
		if opts.NoColor {
			okColor.DisableColor()
		}

		_, err = okColor.Fprintln(out, "Red-black invariants hold")
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	return nil
}

func renderSummary(out io.Writer, result ingest.Result, stats catalog.Stats) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(out)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle("Ingestion summary")

	tbl.AppendRows([]table.Row{
		{"Source", result.Source},
		{"Run ID", result.RunID},
		{"Rows", humanize.Comma(int64(result.Rows))},
		{"Inserted", humanize.Comma(int64(result.Inserted))},
		{"Skipped", humanize.Comma(int64(len(result.Skipped)))},
		{"Duplicates", humanize.Comma(int64(len(result.Duplicates)))},
	})
	tbl.AppendSeparator()
	tbl.AppendRows([]table.Row{
		{"Records", humanize.Comma(int64(stats.Records))},
		{"Height", stats.Height},
		{"Black height", stats.BlackHeight},
		{"Duration", result.Duration.String()},
	})

	tbl.Render()
}

func renderSkipped(out io.Writer, result ingest.Result) {
	if len(result.Skipped) == 0 && len(result.Duplicates) == 0 {
		return
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(out)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Line", "Problem", "Fields"})
	tbl.SetColumnConfigs([]table.ColumnConfig{{Number: 3, WidthMax: fieldsColumnWidth}})

	for _, row := range result.Skipped {
		tbl.AppendRow(table.Row{row.Line, row.Reason, strings.Join(row.Fields, " | ")})
	}

	for _, id := range result.Duplicates {
		tbl.AppendRow(table.Row{"-", "duplicate product ID", id})
	}

	tbl.AppendFooter(table.Row{"", "Total", len(result.Skipped) + len(result.Duplicates)})
	tbl.Render()
}
