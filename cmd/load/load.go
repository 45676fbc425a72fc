// Package load implements the load command.
package load

import (
	"fjacquet/bwa-report/cmd/common"
	"fjacquet/bwa-report/cmd/root"
	internalcommon "fjacquet/bwa-report/internal/common"

	"github.com/spf13/cobra"
)

type options struct {
	inputs []string
	kind   string
	output string
}

// NewCmd returns the load command.
func NewCmd(app *root.App) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load input files and print diagnostics",
		Long: `Load one or more input files and print what was read: encoding, delimiter,
loaded and skipped rows and every row issue. With -o the classified
transactions are written as a CSV listing.

Example:
  bwa-report load -i buchungen.csv -o listing.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, opts)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.inputs, "input", "i", nil, "Input file (repeatable)")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "Force the source kind (csv, xlsx, json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the classified transactions as CSV")
	return cmd
}

func run(cmd *cobra.Command, app *root.App, opts *options) error {
	sources, err := common.Sources(opts.inputs, opts.kind)
	if err != nil {
		return err
	}
	c := app.Container
	sess, err := c.NewSession(cmd.Context())
	if err != nil {
		return err
	}
	res, err := sess.Load(cmd.Context(), sources...)
	if err != nil {
		return err
	}
	if err := common.PrintDiagnostics(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if opts.output == "" {
		return nil
	}
	snap := sess.Snapshot()
	return internalcommon.WriteTransactionsToCSVFile(opts.output, snap.Transactions, snap.Mapping,
		app.Config().CSVDelimiter(), c.GetLogger())
}
